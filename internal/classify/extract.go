package classify

import (
	"regexp"
	"strings"

	"github.com/ShayCichocki/compo/pkg/models"
)

var (
	doubleQuotedRe = regexp.MustCompile(`"([^"]+)"`)
	singleQuotedRe = regexp.MustCompile(`'([^']+)'`)
)

// defaultTextContent is used when no text content can be extracted.
const defaultTextContent = "Sample Text"

// extractGraphSteps pattern-matches the fixed step vocabulary against a
// request. The returned list is never empty: when nothing matches, a single
// generic step carries the raw request.
func (c *Classifier) extractGraphSteps(request string) []models.PlanStep {
	var steps []models.PlanStep
	lower := strings.ToLower(request)

	if strings.Contains(lower, "background") {
		steps = append(steps, models.PlanStep{
			Kind:        models.StepKindBackground,
			Description: "Create background",
			Params:      map[string]any{"color": colorFor(lower)},
		})
	}

	if containsAny(lower, "text", "title", "subtitle", "lower-third") {
		steps = append(steps, models.PlanStep{
			Kind:        models.StepKindText,
			Description: "Create text",
			Params: map[string]any{
				"text": extractTextContent(request),
				"size": 0.1,
			},
		})
	}

	if strings.Contains(lower, "glow") {
		steps = append(steps, models.PlanStep{
			Kind:        models.StepKindGlow,
			Description: "Add glow effect",
			Params:      map[string]any{"intensity": 5.0},
		})
	}

	if strings.Contains(lower, "blur") {
		steps = append(steps, models.PlanStep{
			Kind:        models.StepKindBlur,
			Description: "Add blur effect",
			Params:      map[string]any{"blur_size": 5.0},
		})
	}

	if containsAny(lower, "move", "position", "transform", "scale", "rotate") {
		steps = append(steps, models.PlanStep{
			Kind:        models.StepKindTransform,
			Description: "Transform element",
		})
	}

	if len(steps) == 0 {
		steps = append(steps, models.PlanStep{
			Kind:        models.StepKindGeneric,
			Description: request,
		})
	}

	return steps
}

// extractTextContent pulls text content from quotes, or from the words after
// a text-indicating keyword, defaulting to placeholder text.
func extractTextContent(request string) string {
	if m := doubleQuotedRe.FindStringSubmatch(request); m != nil {
		return m[1]
	}
	if m := singleQuotedRe.FindStringSubmatch(request); m != nil {
		return m[1]
	}

	lower := strings.ToLower(request)
	for _, kw := range []string{"saying", "text", "title", "subtitle"} {
		idx := strings.Index(lower, kw)
		if idx < 0 {
			continue
		}
		rest := strings.TrimSpace(request[idx+len(kw):])
		rest = strings.Trim(rest, `"'`)
		if rest != "" {
			return rest
		}
	}

	return defaultTextContent
}

// buildPrompts derives generation prompts from a request: imperative verbs
// are stripped and a quality suffix is appended based on content category.
// Always returns at least one non-empty prompt.
func (c *Classifier) buildPrompts(request string) []string {
	prompt := strings.ToLower(request)
	for _, verb := range c.tables.StripVerbs {
		prompt = strings.ReplaceAll(prompt, verb, "")
	}
	prompt = strings.Join(strings.Fields(prompt), " ")
	if prompt == "" {
		prompt = strings.TrimSpace(strings.ToLower(request))
	}

	lower := strings.ToLower(request)
	switch {
	case strings.Contains(lower, "background"):
		prompt = "cinematic background, " + prompt + ", high quality, detailed"
	case strings.Contains(lower, "character"):
		prompt = "character, " + prompt + ", professional lighting, detailed"
	default:
		prompt = prompt + ", high quality, professional"
	}

	return []string{strings.TrimSpace(strings.Trim(prompt, ","))}
}

// containsAny reports whether text contains any of the given substrings.
func containsAny(text string, subs ...string) bool {
	for _, s := range subs {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}
