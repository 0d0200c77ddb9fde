package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ShayCichocki/compo/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify compo configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/compo/config.yaml
Project-specific overrides can be placed in .compo.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("anthropic.api_key: %s (source: %s)\n",
		config.MaskAPIKey(cfg.Anthropic.APIKey), config.GetAPIKeySource(cfg))
	fmt.Printf("anthropic.model: %s\n", orUnset(cfg.Anthropic.Model))
	fmt.Printf("advisor.provider: %s\n", cfg.Advisor.Provider)
	fmt.Printf("bridge.addr: %s\n", cfg.Bridge.Addr)
	fmt.Printf("bridge.command_file: %s\n", orUnset(cfg.Bridge.CommandFile))
	fmt.Printf("comfyui.url: %s\n", cfg.ComfyUI.URL)
	fmt.Printf("comfyui.model: %s\n", cfg.ComfyUI.Model)
	fmt.Printf("iteration.budget: %s\n", cfg.Iteration.Budget)
	fmt.Printf("generation.width: %d\n", cfg.Generation.Width)
	fmt.Printf("generation.height: %d\n", cfg.Generation.Height)
	fmt.Printf("generation.steps: %d\n", cfg.Generation.Steps)
	fmt.Printf("generation.cfg: %g\n", cfg.Generation.CFG)
	fmt.Printf("generation.negative_prompt: %s\n", cfg.Generation.NegativePrompt)
	fmt.Printf("history.path: %s\n", orUnset(cfg.History.Path))
	fmt.Printf("history.retention: %d\n", cfg.History.Retention)
	fmt.Printf("keywords.path: %s\n", orUnset(cfg.Keywords.Path))
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "anthropic.model":
		return orUnset(cfg.Anthropic.Model), nil
	case "advisor.provider":
		return cfg.Advisor.Provider, nil
	case "bridge.addr":
		return cfg.Bridge.Addr, nil
	case "bridge.command_file":
		return orUnset(cfg.Bridge.CommandFile), nil
	case "comfyui.url":
		return cfg.ComfyUI.URL, nil
	case "comfyui.model":
		return cfg.ComfyUI.Model, nil
	case "iteration.budget":
		return cfg.Iteration.Budget.String(), nil
	case "generation.width":
		return strconv.Itoa(cfg.Generation.Width), nil
	case "generation.height":
		return strconv.Itoa(cfg.Generation.Height), nil
	case "generation.steps":
		return strconv.Itoa(cfg.Generation.Steps), nil
	case "generation.cfg":
		return strconv.FormatFloat(cfg.Generation.CFG, 'g', -1, 64), nil
	case "generation.negative_prompt":
		return cfg.Generation.NegativePrompt, nil
	case "history.path":
		return orUnset(cfg.History.Path), nil
	case "history.retention":
		return strconv.Itoa(cfg.History.Retention), nil
	case "keywords.path":
		return orUnset(cfg.Keywords.Path), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "advisor.provider":
		switch value {
		case "anthropic", "copilot", "none":
			cfg.Advisor.Provider = value
		default:
			return fmt.Errorf("invalid advisor provider %q: use anthropic, copilot, or none", value)
		}
	case "bridge.addr":
		cfg.Bridge.Addr = value
	case "bridge.command_file":
		cfg.Bridge.CommandFile = value
	case "comfyui.url":
		cfg.ComfyUI.URL = value
	case "comfyui.model":
		cfg.ComfyUI.Model = value
	case "iteration.budget":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for iteration.budget: %w", err)
		}
		cfg.Iteration.Budget = d
	case "generation.width":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for generation.width: %w", err)
		}
		cfg.Generation.Width = n
	case "generation.height":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for generation.height: %w", err)
		}
		cfg.Generation.Height = n
	case "generation.steps":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for generation.steps: %w", err)
		}
		cfg.Generation.Steps = n
	case "generation.cfg":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid value for generation.cfg: %w", err)
		}
		cfg.Generation.CFG = f
	case "generation.negative_prompt":
		cfg.Generation.NegativePrompt = value
	case "history.path":
		cfg.History.Path = value
	case "history.retention":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for history.retention: %w", err)
		}
		cfg.History.Retention = n
	case "keywords.path":
		cfg.Keywords.Path = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
