package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "compo",
	Short: "Natural-language compositing assistant",
	Long: `Compo routes natural-language requests to a node-graph compositor,
a generative image backend, or both.

With no arguments, launches an interactive session where you type requests
and watch them execute. Each request is classified as graph work, image
generation, or a hybrid of the two, planned, and run within a soft time
budget so iteration stays fast.

Core capabilities:
- Builds backgrounds, text, blurs, glows, and merges in the compositor
- Generates images from prompts and loads them into the graph
- Keeps a bounded history of every iteration
- Answers editor commands dropped through a file bridge`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(bridgeCmd)
	rootCmd.AddCommand(versionCmd)
}
