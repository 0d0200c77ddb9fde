package advisor

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CopilotAdvisor analyzes requests by shelling out to the GitHub Copilot CLI
// (`gh copilot suggest`). It is useful when no Anthropic credentials are
// configured but the user is authenticated with gh.
type CopilotAdvisor struct {
	// ghPath is the gh binary to invoke. Defaults to "gh".
	ghPath string
	// timeout bounds a single suggest call.
	timeout time.Duration
}

// NewCopilotAdvisor creates an advisor backed by the gh CLI. It returns an
// error if gh is not on PATH.
func NewCopilotAdvisor() (*CopilotAdvisor, error) {
	path, err := exec.LookPath("gh")
	if err != nil {
		return nil, fmt.Errorf("gh CLI not found in PATH\n\n" +
			"The Copilot advisor requires the GitHub CLI.\n" +
			"Install it and run: gh auth login")
	}
	return &CopilotAdvisor{ghPath: path, timeout: 30 * time.Second}, nil
}

// Suggest runs `gh copilot suggest` with the analysis prompt.
func (c *CopilotAdvisor) Suggest(ctx context.Context, request, compContext string) (*Suggestion, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.ghPath, "copilot", "suggest", "-t", "shell", buildPrompt(request, compContext))
	out, err := cmd.Output()
	if err != nil {
		var stderr string
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = strings.TrimSpace(string(exitErr.Stderr))
		}
		if stderr != "" {
			return nil, fmt.Errorf("copilot CLI: %s", stderr)
		}
		return nil, fmt.Errorf("copilot CLI: %w", err)
	}

	text := strings.TrimSpace(string(out))
	if text == "" {
		return nil, fmt.Errorf("copilot CLI returned an empty response")
	}

	return ParseSuggestion(text), nil
}

// Available probes the gh CLI with a short version check.
func (c *CopilotAdvisor) Available() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, c.ghPath, "--version").Run() == nil
}
