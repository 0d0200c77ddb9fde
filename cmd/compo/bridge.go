package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/compo/internal/bridge"
	"github.com/ShayCichocki/compo/internal/config"
	"github.com/ShayCichocki/compo/internal/fusion"
)

var bridgeCommandFile string

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Run the editor command bridge",
	Long: `Watch a JSON command file and execute dropped commands against the
compositor. An editor extension writes a command, the bridge runs it, and
writes a response file next to it.

Supported actions: execute_step, build_lower_third, clear_composition,
get_context.

Runs until interrupted.`,
	RunE: runBridge,
}

func init() {
	bridgeCmd.Flags().StringVar(&bridgeCommandFile, "file", "", "Command file to watch (default from config, else a temp path)")
}

func runBridge(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	commandFile := bridgeCommandFile
	if commandFile == "" {
		commandFile = cfg.Bridge.CommandFile
	}
	if commandFile == "" {
		commandFile = filepath.Join(os.TempDir(), "compo", "command.json")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	backend := fusion.NewBridge(ctx, fusion.NewClient(cfg.Bridge.Addr))

	watcher, err := bridge.New(commandFile, backend)
	if err != nil {
		return fmt.Errorf("create bridge watcher: %w", err)
	}

	fmt.Printf("Watching %s (responses land at %s)\n", commandFile, watcher.ResponseFile())
	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
