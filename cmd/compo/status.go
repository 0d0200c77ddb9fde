package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/compo/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backend availability and recent iterations",
	Long: `Probe each backend and display what the assistant can currently do.

Shows:
  - Compositor bridge reachability
  - Generation server reachability
  - Planning advisor availability
  - The soft iteration budget
  - Recent iteration history`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		rt, err := newRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		displayStatus(rt)
		return nil
	},
}

func displayStatus(rt *runtime) {
	status := rt.assistant.Status()

	fmt.Println("Backends:")
	fmt.Printf("  compositor (%s): %s\n", rt.cfg.Bridge.Addr, availability(status.GraphAvailable))
	fmt.Printf("  generation (%s): %s\n", rt.cfg.ComfyUI.URL, availability(status.GenerationAvailable))
	fmt.Printf("  advisor (%s): %s\n", rt.cfg.Advisor.Provider, availability(status.AdvisorAvailable))
	if rt.cfg.Advisor.Provider == "anthropic" && !rt.cfg.Anthropic.UseAWSBedrock {
		fmt.Printf("  anthropic key: %s\n", config.GetAPIKeySource(rt.cfg))
	}
	fmt.Printf("  iteration budget: %s\n", status.Budget)

	if rt.store == nil {
		fmt.Println("\nHistory: unavailable")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := rt.store.Count(ctx)
	if err != nil {
		fmt.Printf("\nHistory: %v\n", err)
		return
	}
	fmt.Printf("\nHistory: %d iteration(s) recorded\n", count)

	recent, err := rt.store.Recent(ctx, 5)
	if err != nil || len(recent) == 0 {
		return
	}
	for _, r := range recent {
		mark := color.GreenString("✓")
		if !r.Success {
			mark = color.RedString("✗")
		}
		fmt.Printf("  %s %s (%s ago)\n", mark, r.Message, formatDuration(time.Since(r.StartedAt)))
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		if m > 0 {
			return fmt.Sprintf("%dh%dm", h, m)
		}
		return fmt.Sprintf("%dh", h)
	}
	days := int(d.Hours()) / 24
	return fmt.Sprintf("%dd", days)
}
