package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ShayCichocki/compo/pkg/models"
)

// DefaultRetention is how many iterations are kept before the oldest are
// pruned.
const DefaultRetention = 200

// Store records iteration results with bounded retention.
type Store struct {
	db        *DB
	retention int
}

// NewStore wraps a migrated database. retention <= 0 uses the default.
func NewStore(db *DB, retention int) *Store {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Store{db: db, retention: retention}
}

// Record persists one iteration result and prunes history beyond the
// retention bound.
func (s *Store) Record(ctx context.Context, result models.IterationResult) error {
	nodes, err := json.Marshal(result.CreatedNodeIDs)
	if err != nil {
		return fmt.Errorf("encode node ids: %w", err)
	}
	paths, err := json.Marshal(result.GeneratedPaths)
	if err != nil {
		return fmt.Errorf("encode artifact paths: %w", err)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	_, err = s.db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO iterations
			(id, success, duration_ms, final_state, message, created_node_ids, generated_paths, error, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID,
		result.Success,
		result.Duration.Milliseconds(),
		string(result.FinalState),
		result.Message,
		string(nodes),
		string(paths),
		result.Error,
		result.StartedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert iteration: %w", err)
	}

	_, err = s.db.conn.ExecContext(ctx, `
		DELETE FROM iterations WHERE id NOT IN (
			SELECT id FROM iterations ORDER BY started_at DESC, id DESC LIMIT ?
		)`, s.retention)
	if err != nil {
		return fmt.Errorf("prune iterations: %w", err)
	}

	return nil
}

// Get loads one iteration by id.
func (s *Store) Get(ctx context.Context, id string) (*models.IterationResult, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	row := s.db.conn.QueryRowContext(ctx, `
		SELECT id, success, duration_ms, final_state, message, created_node_ids, generated_paths, error, started_at
		FROM iterations WHERE id = ?`, id)

	result, err := scanIteration(row)
	if err != nil {
		return nil, fmt.Errorf("get iteration %s: %w", id, err)
	}
	return result, nil
}

// Recent returns up to n iterations, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]models.IterationResult, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, success, duration_ms, final_state, message, created_node_ids, generated_paths, error, started_at
		FROM iterations ORDER BY started_at DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("list iterations: %w", err)
	}
	defer rows.Close()

	var results []models.IterationResult
	for rows.Next() {
		result, err := scanIteration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan iteration: %w", err)
		}
		results = append(results, *result)
	}
	return results, rows.Err()
}

// Count returns the number of stored iterations.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var count int
	row := s.db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM iterations")
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count iterations: %w", err)
	}
	return count, nil
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanIteration(row scanner) (*models.IterationResult, error) {
	var (
		result     models.IterationResult
		durationMS int64
		finalState string
		nodes      string
		paths      string
	)

	err := row.Scan(
		&result.ID,
		&result.Success,
		&durationMS,
		&finalState,
		&result.Message,
		&nodes,
		&paths,
		&result.Error,
		&result.StartedAt,
	)
	if err != nil {
		return nil, err
	}

	result.Duration = time.Duration(durationMS) * time.Millisecond
	result.FinalState = models.AssistantState(finalState)
	if err := json.Unmarshal([]byte(nodes), &result.CreatedNodeIDs); err != nil {
		return nil, fmt.Errorf("decode node ids: %w", err)
	}
	if err := json.Unmarshal([]byte(paths), &result.GeneratedPaths); err != nil {
		return nil, fmt.Errorf("decode artifact paths: %w", err)
	}

	return &result, nil
}
