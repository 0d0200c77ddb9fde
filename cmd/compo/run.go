package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/compo/internal/config"
)

var (
	runBudget time.Duration
	runJSON   bool
)

var runCmd = &cobra.Command{
	Use:   "run <request>",
	Short: "Process a single request",
	Long: `Process one natural-language request and print the result.

The request is classified as graph work, image generation, or a hybrid,
planned, and executed. Graph steps go to the compositor over its script
bridge; generation prompts go to the image server. The process exits 0
when the iteration succeeded and 1 otherwise.

Examples:
  compo run "create a red background with the text Hello"
  compo run "generate a cyberpunk city at night"
  compo run --json "generate a forest and add a glow"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRequest,
}

func init() {
	runCmd.Flags().DurationVar(&runBudget, "budget", 0, "Override the soft iteration budget (e.g. 30s)")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Print the full iteration result as JSON")
}

func runRequest(cmd *cobra.Command, args []string) error {
	request := strings.Join(args, " ")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	var overrides []func(*config.Config)
	if runBudget > 0 {
		overrides = append(overrides, func(cfg *config.Config) {
			cfg.Iteration.Budget = runBudget
		})
	}

	rt, err := newRuntime(ctx, overrides...)
	if err != nil {
		return err
	}
	defer rt.Close()

	result := rt.assistant.Process(ctx, request)

	if runJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		fmt.Println(string(data))
	} else {
		printResult(result)
	}

	if !result.Success {
		os.Exit(1)
	}
	return nil
}
