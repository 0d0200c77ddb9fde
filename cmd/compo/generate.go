package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/compo/internal/comfy"
	"github.com/ShayCichocki/compo/internal/config"
)

var generateSeed int64

var generateCmd = &cobra.Command{
	Use:   "generate <prompt> [prompt...]",
	Short: "Generate images directly, one per prompt",
	Long: `Send prompts straight to the generation server, bypassing
classification and planning.

Prompts run sequentially and stop at the first failure; images produced
before the failure are still reported.

Examples:
  compo generate "a cyberpunk city at night"
  compo generate "a forest" "the same forest in winter"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().Int64Var(&generateSeed, "seed", 0, "Sampling seed (0 picks one)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	client := comfy.NewClient(ctx, cfg.ComfyUI.URL, cfg.ComfyUI.Model)
	if !client.Available() {
		return fmt.Errorf("generation server unreachable at %s", cfg.ComfyUI.URL)
	}

	opts := comfy.Options{
		NegativePrompt: cfg.Generation.NegativePrompt,
		Width:          cfg.Generation.Width,
		Height:         cfg.Generation.Height,
		Steps:          cfg.Generation.Steps,
		CFG:            cfg.Generation.CFG,
		Seed:           generateSeed,
	}

	results, batchErr := client.GenerateBatch(ctx, args, opts)
	for _, r := range results {
		fmt.Printf("%s %s (%.1fs)\n", color.GreenString("✓"), r.ImagePath, r.Elapsed.Seconds())
	}
	if batchErr != nil {
		return fmt.Errorf("generate: %w", batchErr)
	}
	return nil
}
