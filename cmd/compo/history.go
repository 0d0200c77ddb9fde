package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/compo/internal/config"
	"github.com/ShayCichocki/compo/internal/state"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent iterations",
	Long: `List recent iterations from the history database, newest first.

History is bounded: the oldest iterations are pruned once the configured
retention limit is reached.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Maximum number of iterations to show")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Print iterations as JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dbPath := cfg.History.Path
	if dbPath == "" {
		dbPath = state.DefaultDBPath()
	}

	db, err := state.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open history database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate history database: %w", err)
	}

	store := state.NewStore(db, cfg.History.Retention)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results, err := store.Recent(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("list iterations: %w", err)
	}

	if historyJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("encode iterations: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No iterations recorded. Run 'compo run <request>' to start.")
		return nil
	}

	for _, r := range results {
		mark := color.GreenString("✓")
		if !r.Success {
			mark = color.RedString("✗")
		}
		fmt.Printf("%s %s  %s (%d artifact(s), %.1fs, %s ago)\n",
			mark, shortID(r.ID), r.Message, r.ArtifactCount(), r.Duration.Seconds(),
			formatDuration(time.Since(r.StartedAt)))
		if r.Error != "" {
			fmt.Printf("    %s\n", r.Error)
		}
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
