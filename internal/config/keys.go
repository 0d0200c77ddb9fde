package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoAPIKey means neither the environment nor the config carries a usable
// Anthropic API key.
var ErrNoAPIKey = errors.New("no Anthropic API key configured")

// KeySource says where an API key was resolved from.
type KeySource string

const (
	KeySourceEnv    KeySource = "environment"
	KeySourceConfig KeySource = "config_file"
	KeySourceNone   KeySource = "none"
)

// resolveKey applies the shared resolution order: the ANTHROPIC_API_KEY
// environment variable wins, then the config file with ${VAR} references
// expanded. An unexpanded reference counts as no key.
func resolveKey(cfg *Config) (string, KeySource) {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return key, KeySourceEnv
	}
	if cfg != nil && cfg.Anthropic.APIKey != "" {
		key := os.ExpandEnv(cfg.Anthropic.APIKey)
		if key != "" && !strings.HasPrefix(key, "${") {
			return key, KeySourceConfig
		}
	}
	return "", KeySourceNone
}

// GetAPIKey resolves the Anthropic API key for the advisor.
func GetAPIKey(cfg *Config) (string, error) {
	key, source := resolveKey(cfg)
	if source == KeySourceNone {
		return "", ErrNoAPIKey
	}
	return key, nil
}

// GetAPIKeySource reports where GetAPIKey would find the key, for display.
func GetAPIKeySource(cfg *Config) KeySource {
	_, source := resolveKey(cfg)
	return source
}

// ValidateAPIKey checks the key's shape without calling the API. Anthropic
// keys carry an sk-ant- prefix and are well over twenty characters.
func ValidateAPIKey(key string) error {
	if key == "" {
		return ErrNoAPIKey
	}
	if !strings.HasPrefix(key, "sk-ant-") {
		return fmt.Errorf("malformed API key: missing sk-ant- prefix")
	}
	if len(key) < 20 {
		return fmt.Errorf("malformed API key: too short")
	}
	return nil
}

// MaskAPIKey renders a key for display, keeping the prefix and the last
// four characters.
func MaskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 15 {
		return "***"
	}
	return key[:7] + "..." + key[len(key)-4:]
}
