// Package config handles configuration loading and management for compo.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for compo.
type Config struct {
	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	Advisor    AdvisorConfig    `mapstructure:"advisor"`
	Bridge     BridgeConfig     `mapstructure:"bridge"`
	ComfyUI    ComfyUIConfig    `mapstructure:"comfyui"`
	Iteration  IterationConfig  `mapstructure:"iteration"`
	Generation GenerationConfig `mapstructure:"generation"`
	History    HistoryConfig    `mapstructure:"history"`
	Keywords   KeywordsConfig   `mapstructure:"keywords"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey        string `mapstructure:"api_key"`
	Model         string `mapstructure:"model"`
	UseAWSBedrock bool   `mapstructure:"use_aws_bedrock"`
	AWSRegion     string `mapstructure:"aws_region"`
	AWSProfile    string `mapstructure:"aws_profile"`
}

// AdvisorConfig selects the planning advisor.
type AdvisorConfig struct {
	// Provider is one of "anthropic", "copilot", or "none".
	Provider string `mapstructure:"provider"`
}

// BridgeConfig holds compositor bridge settings.
type BridgeConfig struct {
	// Addr is the TCP address of the compositor script host.
	Addr string `mapstructure:"addr"`
	// CommandFile is the JSON command file watched by the editor bridge.
	CommandFile string `mapstructure:"command_file"`
}

// ComfyUIConfig holds generation server settings.
type ComfyUIConfig struct {
	URL   string `mapstructure:"url"`
	Model string `mapstructure:"model"`
}

// IterationConfig holds per-request execution settings.
type IterationConfig struct {
	// Budget is the soft time budget per request. Overruns warn, never
	// cancel.
	Budget time.Duration `mapstructure:"budget"`
}

// GenerationConfig holds the speed-biased generation parameters.
type GenerationConfig struct {
	Width          int     `mapstructure:"width"`
	Height         int     `mapstructure:"height"`
	Steps          int     `mapstructure:"steps"`
	CFG            float64 `mapstructure:"cfg"`
	NegativePrompt string  `mapstructure:"negative_prompt"`
}

// HistoryConfig holds iteration-history settings.
type HistoryConfig struct {
	// Path is the SQLite database location. Empty uses the XDG default.
	Path string `mapstructure:"path"`
	// Retention bounds how many iterations are kept.
	Retention int `mapstructure:"retention"`
}

// KeywordsConfig points at an optional keyword-table override file.
type KeywordsConfig struct {
	Path string `mapstructure:"path"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, COMFYUI_URL, COMPO_BRIDGE_ADDR)
// 2. Project config (.compo.yaml in current directory or parent)
// 3. User config (~/.config/compo/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.model", "ANTHROPIC_MODEL")
	v.BindEnv("comfyui.url", "COMFYUI_URL")
	v.BindEnv("bridge.addr", "COMPO_BRIDGE_ADDR")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.use_aws_bedrock", cfg.Anthropic.UseAWSBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("advisor.provider", cfg.Advisor.Provider)
	v.Set("bridge.addr", cfg.Bridge.Addr)
	v.Set("bridge.command_file", cfg.Bridge.CommandFile)
	v.Set("comfyui.url", cfg.ComfyUI.URL)
	v.Set("comfyui.model", cfg.ComfyUI.Model)
	v.Set("iteration.budget", cfg.Iteration.Budget.String())
	v.Set("generation.width", cfg.Generation.Width)
	v.Set("generation.height", cfg.Generation.Height)
	v.Set("generation.steps", cfg.Generation.Steps)
	v.Set("generation.cfg", cfg.Generation.CFG)
	v.Set("generation.negative_prompt", cfg.Generation.NegativePrompt)
	v.Set("history.path", cfg.History.Path)
	v.Set("history.retention", cfg.History.Retention)
	v.Set("keywords.path", cfg.Keywords.Path)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "")
	v.SetDefault("anthropic.use_aws_bedrock", false)

	v.SetDefault("advisor.provider", "anthropic")

	v.SetDefault("bridge.addr", "127.0.0.1:7810")
	v.SetDefault("bridge.command_file", "")

	v.SetDefault("comfyui.url", "http://localhost:8188")
	v.SetDefault("comfyui.model", "wan2.2.safetensors")

	v.SetDefault("iteration.budget", "20s")

	// Speed-biased so a full generation fits in one iteration.
	v.SetDefault("generation.width", 512)
	v.SetDefault("generation.height", 512)
	v.SetDefault("generation.steps", 15)
	v.SetDefault("generation.cfg", 7.0)
	v.SetDefault("generation.negative_prompt", "blurry, low quality, distorted")

	v.SetDefault("history.path", "")
	v.SetDefault("history.retention", 200)

	v.SetDefault("keywords.path", "")
}

// getUserConfigDir returns the XDG config directory for compo.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "compo")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "compo")
	}
	return filepath.Join(home, ".config", "compo")
}

// findProjectConfig searches for .compo.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".compo.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Advisor: AdvisorConfig{
			Provider: "anthropic",
		},
		Bridge: BridgeConfig{
			Addr: "127.0.0.1:7810",
		},
		ComfyUI: ComfyUIConfig{
			URL:   "http://localhost:8188",
			Model: "wan2.2.safetensors",
		},
		Iteration: IterationConfig{
			Budget: 20 * time.Second,
		},
		Generation: GenerationConfig{
			Width:          512,
			Height:         512,
			Steps:          15,
			CFG:            7.0,
			NegativePrompt: "blurry, low quality, distorted",
		},
		History: HistoryConfig{
			Retention: 200,
		},
	}
}
