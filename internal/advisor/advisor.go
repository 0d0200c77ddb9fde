// Package advisor provides the natural-language planner used to classify
// compositing requests. Advisors are untrusted oracles: they may be slow,
// unreachable, or return malformed output, and callers must be prepared to
// fall back to local heuristics.
package advisor

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
)

// Suggestion is the advisor's analysis of one request.
type Suggestion struct {
	// TaskType is the advisor's category guess: "graph", "generation" or
	// "hybrid". Empty when the advisor returned unstructured text.
	TaskType string `json:"task_type"`
	// Explanation is the advisor's rationale, or the raw response text when
	// no structured data could be parsed.
	Explanation string `json:"explanation"`
	// Confidence reflects how the suggestion was obtained: high when the
	// response parsed as JSON, lower for free text.
	Confidence float64 `json:"confidence"`
	// Steps is the advisor's optional step breakdown.
	Steps []StepDescriptor `json:"steps,omitempty"`
	// Raw is the verbatim advisor output.
	Raw string `json:"-"`
}

// StepDescriptor is one advisor-proposed step. Kind tags are free-form here;
// the classifier maps them onto the closed StepKind set.
type StepDescriptor struct {
	Kind        string         `json:"type"`
	Description string         `json:"description"`
	Prompt      string         `json:"prompt,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
}

// Advisor analyzes a request, optionally with composition context.
type Advisor interface {
	// Suggest returns the advisor's analysis. An error means the advisor was
	// unreachable or produced nothing usable; callers degrade to heuristics.
	Suggest(ctx context.Context, request, compContext string) (*Suggestion, error)
	// Available reports whether the advisor can currently be reached.
	Available() bool
}

const (
	// ConfidenceStructured is assigned when the response parsed as JSON.
	ConfidenceStructured = 0.9
	// ConfidenceFreeText is assigned when only raw text was available.
	ConfidenceFreeText = 0.7
)

// jsonObjectRe matches the first JSON object embedded in a response. Advisors
// often wrap JSON in prose or code fences.
var jsonObjectRe = regexp.MustCompile(`\{[\s\S]*\}`)

// suggestionPayload is the JSON shape advisors are asked to respond with.
type suggestionPayload struct {
	TaskType    string           `json:"task_type"`
	Explanation string           `json:"explanation"`
	Steps       []StepDescriptor `json:"steps"`
}

// ParseSuggestion converts raw advisor output into a Suggestion. Structured
// JSON is preferred; anything else becomes a free-text suggestion with no
// category. It never returns an error: malformed output is still usable as
// keyword-scoring input.
func ParseSuggestion(output string) *Suggestion {
	if match := jsonObjectRe.FindString(output); match != "" {
		var payload suggestionPayload
		if err := json.Unmarshal([]byte(match), &payload); err == nil && payload.TaskType != "" {
			return &Suggestion{
				TaskType:    normalizeTaskType(payload.TaskType),
				Explanation: payload.Explanation,
				Confidence:  ConfidenceStructured,
				Steps:       payload.Steps,
				Raw:         output,
			}
		}
	}

	return &Suggestion{
		Explanation: strings.TrimSpace(output),
		Confidence:  ConfidenceFreeText,
		Raw:         output,
	}
}

// normalizeTaskType maps advisor vocabulary onto the three canonical types.
func normalizeTaskType(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "graph", "fusion", "nodes", "compositing":
		return "graph"
	case "generation", "comfyui", "ai", "image":
		return "generation"
	case "hybrid", "both", "mixed":
		return "hybrid"
	default:
		return ""
	}
}

// buildPrompt assembles the analysis prompt sent to an advisor.
func buildPrompt(request, compContext string) string {
	var b strings.Builder
	b.WriteString("Compositing assistant task: ")
	b.WriteString(request)
	b.WriteString("\n\nAvailable tools:\n")
	b.WriteString("1. Node graph (backgrounds, text, transforms, merges, blur, glow, loaders)\n")
	b.WriteString("2. AI image generation (characters, scenes, photorealistic or artistic content)\n\n")
	b.WriteString("Decide whether the task needs the node graph, AI generation, or both.\n")
	b.WriteString("Respond with JSON only:\n")
	b.WriteString(`{"task_type": "graph" | "generation" | "hybrid", "explanation": "...", "steps": [{"type": "...", "description": "...", "prompt": "..."}]}`)
	b.WriteString("\nKeep the plan to at most 3 steps; it must execute in under 20 seconds.")
	if compContext != "" {
		b.WriteString("\n\nCurrent composition state:\n")
		b.WriteString(compContext)
	}
	return b.String()
}
