package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Advisor.Provider != "anthropic" {
		t.Errorf("expected default advisor 'anthropic', got %q", cfg.Advisor.Provider)
	}

	if cfg.Bridge.Addr != "127.0.0.1:7810" {
		t.Errorf("expected default bridge addr, got %q", cfg.Bridge.Addr)
	}

	if cfg.ComfyUI.URL != "http://localhost:8188" {
		t.Errorf("expected default comfyui url, got %q", cfg.ComfyUI.URL)
	}

	if cfg.Iteration.Budget != 20*time.Second {
		t.Errorf("expected 20s budget, got %v", cfg.Iteration.Budget)
	}

	if cfg.Generation.Width != 512 || cfg.Generation.Height != 512 {
		t.Errorf("expected 512x512 generation, got %dx%d", cfg.Generation.Width, cfg.Generation.Height)
	}

	if cfg.Generation.Steps != 15 {
		t.Errorf("expected 15 sampling steps, got %d", cfg.Generation.Steps)
	}

	if cfg.History.Retention != 200 {
		t.Errorf("expected retention 200, got %d", cfg.History.Retention)
	}
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
anthropic:
  api_key: test-key
  model: claude-3-5-haiku-20241022
advisor:
  provider: copilot
bridge:
  addr: 127.0.0.1:9999
comfyui:
  url: http://gpu-box:8188
  model: custom.safetensors
iteration:
  budget: 30s
generation:
  width: 768
  height: 768
  steps: 20
history:
  retention: 50
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Anthropic.APIKey != "test-key" {
		t.Errorf("api_key = %q", cfg.Anthropic.APIKey)
	}
	if cfg.Advisor.Provider != "copilot" {
		t.Errorf("advisor = %q", cfg.Advisor.Provider)
	}
	if cfg.Bridge.Addr != "127.0.0.1:9999" {
		t.Errorf("bridge addr = %q", cfg.Bridge.Addr)
	}
	if cfg.ComfyUI.URL != "http://gpu-box:8188" {
		t.Errorf("comfyui url = %q", cfg.ComfyUI.URL)
	}
	if cfg.Iteration.Budget != 30*time.Second {
		t.Errorf("budget = %v", cfg.Iteration.Budget)
	}
	if cfg.Generation.Width != 768 || cfg.Generation.Steps != 20 {
		t.Errorf("generation = %+v", cfg.Generation)
	}
	if cfg.History.Retention != 50 {
		t.Errorf("retention = %d", cfg.History.Retention)
	}
}

func TestLoadFromPathPartialFileKeepsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
comfyui:
  url: http://other:8188
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.ComfyUI.URL != "http://other:8188" {
		t.Errorf("comfyui url = %q", cfg.ComfyUI.URL)
	}
	// Everything else stays at defaults.
	if cfg.Iteration.Budget != 20*time.Second {
		t.Errorf("budget = %v, want default", cfg.Iteration.Budget)
	}
	if cfg.Generation.Width != 512 {
		t.Errorf("width = %d, want default", cfg.Generation.Width)
	}
}

func TestLoadFromPathExpandsAPIKeyEnv(t *testing.T) {
	t.Setenv("TEST_COMPO_KEY", "sk-ant-expanded")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	configContent := "anthropic:\n  api_key: ${TEST_COMPO_KEY}\n"
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Anthropic.APIKey != "sk-ant-expanded" {
		t.Errorf("api_key = %q, want expanded value", cfg.Anthropic.APIKey)
	}
}

func TestLoadFromPathMissingFile(t *testing.T) {
	if _, err := LoadFromPath("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
