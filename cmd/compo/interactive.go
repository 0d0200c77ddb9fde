package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/ShayCichocki/compo/pkg/models"
)

func runInteractive() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("[compo] received shutdown signal")
		cancel()
	}()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	printBanner(rt)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(color.CyanString("compo> "))
		if !scanner.Scan() {
			break
		}
		request := strings.TrimSpace(scanner.Text())
		if request == "" {
			continue
		}

		switch strings.ToLower(request) {
		case "exit", "quit":
			return nil
		case "help":
			printHelp()
			continue
		case "status":
			displayStatus(rt)
			continue
		case "clear":
			if err := rt.assistant.ClearComposition(ctx); err != nil {
				fmt.Printf("%s %v\n", color.RedString("✗"), err)
			} else {
				fmt.Printf("%s Composition cleared\n", color.GreenString("✓"))
			}
			continue
		}

		result := rt.assistant.Process(ctx, request)
		printResult(result)

		if ctx.Err() != nil {
			return nil
		}
	}
	return scanner.Err()
}

func printBanner(rt *runtime) {
	fmt.Printf("compo %s\n", Version())
	status := rt.assistant.Status()
	fmt.Printf("  compositor: %s  generation: %s  advisor: %s\n",
		availability(status.GraphAvailable),
		availability(status.GenerationAvailable),
		availability(status.AdvisorAvailable))
	fmt.Println("Type a request, or 'help' for commands.")
	fmt.Println()
}

func printHelp() {
	fmt.Println(`Commands:
  status   Show backend availability and recent iterations
  clear    Clear the composition
  exit     Leave the session

Anything else is treated as a request, e.g.:
  create a blue background with the text "Title"
  generate a mountain landscape at sunset
  generate a forest and blur it`)
}

// printResult renders one iteration outcome.
func printResult(result models.IterationResult) {
	mark := color.GreenString("✓")
	if !result.Success {
		mark = color.RedString("✗")
	}
	fmt.Printf("%s %s (%.1fs)\n", mark, result.Message, result.Duration.Seconds())

	for _, id := range result.CreatedNodeIDs {
		fmt.Printf("    node %s\n", id)
	}
	for _, path := range result.GeneratedPaths {
		fmt.Printf("    image %s\n", path)
	}
	if result.Error != "" {
		fmt.Printf("    %s\n", color.RedString(result.Error))
	}
}

func availability(ok bool) string {
	if ok {
		return color.GreenString("ready")
	}
	return color.YellowString("offline")
}
