// Package bridge lets an editor extension drive the compositor without
// speaking the TCP protocol: it drops a JSON command file, the watcher
// executes it against the graph backend, and a response file appears next
// to it.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ShayCichocki/compo/internal/fusion"
	"github.com/ShayCichocki/compo/pkg/models"
)

// defaultPollInterval paces the polling fallback when the filesystem
// watcher cannot be created.
const defaultPollInterval = 500 * time.Millisecond

// Command is one editor request.
type Command struct {
	// Action is execute_step, build_lower_third, clear_composition, or
	// get_context.
	Action string `json:"action"`
	// Step is the plan step for execute_step.
	Step *StepPayload `json:"step,omitempty"`
	// Title and Subtitle feed build_lower_third.
	Title    string `json:"title,omitempty"`
	Subtitle string `json:"subtitle,omitempty"`
}

// StepPayload mirrors a plan step in wire form.
type StepPayload struct {
	Kind        string         `json:"kind"`
	Description string         `json:"description"`
	Params      map[string]any `json:"params,omitempty"`
}

// Response is written next to the command file once the command ran.
type Response struct {
	Success bool   `json:"success"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// graphHost is what the watcher needs from the compositor side.
type graphHost interface {
	fusion.Backend
	BuildLowerThird(ctx context.Context, title, subtitle string) ([]string, error)
}

// Watcher executes commands dropped into a JSON file.
type Watcher struct {
	commandFile  string
	backend      graphHost
	watcher      *fsnotify.Watcher
	pollInterval time.Duration
}

// New creates a watcher for the given command file. The parent directory is
// created if needed. If a filesystem watcher cannot be set up, the watcher
// degrades to polling.
func New(commandFile string, backend graphHost) (*Watcher, error) {
	dir := filepath.Dir(commandFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create bridge directory: %w", err)
	}

	w := &Watcher{
		commandFile:  commandFile,
		backend:      backend,
		pollInterval: defaultPollInterval,
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("[bridge] file watcher unavailable, falling back to polling: %v", err)
		return w, nil
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		log.Printf("[bridge] cannot watch %s, falling back to polling: %v", dir, err)
		return w, nil
	}
	w.watcher = fsw

	return w, nil
}

// Run processes commands until the context is cancelled. Each command file
// is consumed exactly once: handled, answered, then removed.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		if w.watcher != nil {
			w.watcher.Close()
		}
	}()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	var events chan fsnotify.Event
	var errors chan error
	if w.watcher != nil {
		events = w.watcher.Events
		errors = w.watcher.Errors
	}

	log.Printf("[bridge] watching %s", w.commandFile)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if event.Name != w.commandFile {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			w.consume(ctx)
		case <-errors:
			// Keep watching; the poll ticker covers missed events.
		case <-ticker.C:
			w.consume(ctx)
		}
	}
}

// consume reads, executes and removes one command file, if present.
func (w *Watcher) consume(ctx context.Context) {
	data, err := os.ReadFile(w.commandFile)
	if err != nil || len(data) == 0 {
		return
	}

	var cmd Command
	var resp Response
	if err := json.Unmarshal(data, &cmd); err != nil {
		resp = Response{Success: false, Error: fmt.Sprintf("malformed command: %v", err)}
	} else {
		resp = w.handle(ctx, cmd)
	}

	if err := w.writeResponse(resp); err != nil {
		log.Printf("[bridge] write response: %v", err)
	}
	if err := os.Remove(w.commandFile); err != nil {
		log.Printf("[bridge] remove command file: %v", err)
	}
}

// handle dispatches one command against the graph backend.
func (w *Watcher) handle(ctx context.Context, cmd Command) Response {
	if !w.backend.Available() {
		return Response{Success: false, Error: "graph backend unavailable"}
	}

	switch cmd.Action {
	case "execute_step":
		if cmd.Step == nil {
			return Response{Success: false, Error: "execute_step requires a step"}
		}
		nodeID, err := w.backend.CreateStep(ctx, models.PlanStep{
			Kind:        models.ParseStepKind(cmd.Step.Kind),
			Description: cmd.Step.Description,
			Params:      cmd.Step.Params,
		})
		if err != nil {
			return Response{Success: false, Error: err.Error()}
		}
		return Response{Success: true, Result: map[string]any{"node_id": nodeID}}

	case "build_lower_third":
		if cmd.Title == "" {
			return Response{Success: false, Error: "build_lower_third requires a title"}
		}
		nodes, err := w.backend.BuildLowerThird(ctx, cmd.Title, cmd.Subtitle)
		if err != nil {
			return Response{Success: false, Error: err.Error()}
		}
		return Response{Success: true, Result: map[string]any{"node_ids": nodes}}

	case "clear_composition":
		if err := w.backend.ClearComposition(ctx); err != nil {
			return Response{Success: false, Error: err.Error()}
		}
		return Response{Success: true, Result: map[string]any{"status": "cleared"}}

	case "get_context":
		compContext, err := w.backend.CompositionContext(ctx)
		if err != nil {
			return Response{Success: false, Error: err.Error()}
		}
		return Response{Success: true, Result: map[string]any{"context": compContext}}

	default:
		return Response{Success: false, Error: fmt.Sprintf("unknown action: %s", cmd.Action)}
	}
}

// ResponseFile returns where responses for this watcher's commands land.
func (w *Watcher) ResponseFile() string {
	return w.commandFile + ".response"
}

func (w *Watcher) writeResponse(resp Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return os.WriteFile(w.ResponseFile(), data, 0644)
}
