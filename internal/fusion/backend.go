package fusion

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/ShayCichocki/compo/pkg/models"
)

// probeTimeout bounds the availability check at construction.
const probeTimeout = 3 * time.Second

// Backend is the graph capability consumed by the orchestrator. A nil or
// unavailable backend means graph work cannot run at all.
type Backend interface {
	// CreateStep materializes one plan step as a node and returns the
	// node id. Steps that carry nothing actionable return an error.
	CreateStep(ctx context.Context, step models.PlanStep) (string, error)

	// Connect wires a source node's output into an input socket on a
	// target node.
	Connect(ctx context.Context, from, to, input string) error

	// ClearComposition removes every node from the live composition.
	ClearComposition(ctx context.Context) error

	// CompositionContext returns a human-readable description of the
	// current composition for advisor prompts.
	CompositionContext(ctx context.Context) (string, error)

	// Available reports whether the backend answered its liveness probe
	// at construction time.
	Available() bool
}

// caller abstracts the bridge client so the backend can be tested against
// an in-memory host.
type caller interface {
	Call(ctx context.Context, action string, params map[string]any) (json.RawMessage, error)
}

// Bridge implements Backend over a script-host client.
type Bridge struct {
	client    caller
	available bool
	seq       int
}

// NewBridge probes the script host once and returns a backend whose
// availability reflects the probe. An unreachable host is not an error:
// the orchestrator decides per plan whether graph work is required.
func NewBridge(ctx context.Context, client *Client) *Bridge {
	b := &Bridge{client: client}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := client.Ping(probeCtx); err != nil {
		log.Printf("[fusion] bridge unreachable: %v", err)
		return b
	}

	b.available = true
	return b
}

// newBridgeWith wires a backend to an arbitrary caller. Test hook.
func newBridgeWith(client caller, available bool) *Bridge {
	return &Bridge{client: client, available: available}
}

// Available reports the construction-time probe result.
func (b *Bridge) Available() bool {
	return b.available
}

// CreateStep dispatches on the step kind and issues one create_node command.
// Unknown kinds were already collapsed to Generic by the classifier; a
// generic step has no node mapping and is reported as not actionable so the
// caller can skip it and move on.
func (b *Bridge) CreateStep(ctx context.Context, step models.PlanStep) (string, error) {
	var nodeType string
	var nodeParams map[string]any

	switch step.Kind {
	case models.StepKindBackground:
		nodeType = "Background"
		color := colorParam(step.Params, "color", models.Color{R: 0.5, G: 0.5, B: 0.5, A: 1})
		nodeParams = map[string]any{
			"TopLeftRed":   color.R,
			"TopLeftGreen": color.G,
			"TopLeftBlue":  color.B,
			"TopLeftAlpha": color.A,
		}
	case models.StepKindText:
		nodeType = "Text+"
		nodeParams = map[string]any{
			"StyledText": stringParam(step.Params, "text", "Sample Text"),
			"Font":       "Arial",
			"Size":       floatParam(step.Params, "size", 0.1),
			"Red":        1.0,
			"Green":      1.0,
			"Blue":       1.0,
		}
	case models.StepKindTransform:
		nodeType = "Transform"
		nodeParams = map[string]any{
			"Size":  floatParam(step.Params, "size", 1.0),
			"Angle": floatParam(step.Params, "angle", 0.0),
		}
	case models.StepKindMerge:
		nodeType = "Merge"
		nodeParams = map[string]any{
			"Blend": floatParam(step.Params, "opacity", 1.0),
		}
	case models.StepKindBlur:
		nodeType = "Blur"
		nodeParams = map[string]any{
			"XBlurSize": floatParam(step.Params, "blur_size", 10.0),
		}
	case models.StepKindGlow:
		nodeType = "Glow"
		nodeParams = map[string]any{
			"GlowSize": floatParam(step.Params, "intensity", 10.0),
			"Gain":     1.0,
		}
	case models.StepKindLoader:
		nodeType = "Loader"
		nodeParams = map[string]any{
			"Clip": stringParam(step.Params, "clip", ""),
		}
	default:
		return "", fmt.Errorf("nothing actionable in step %q", step.Description)
	}

	b.seq++
	name := fmt.Sprintf("%s%d", nodeType, b.seq)

	result, err := b.client.Call(ctx, "create_node", map[string]any{
		"node_type": nodeType,
		"name":      name,
		"params":    nodeParams,
		"x_pos":     b.seq,
		"y_pos":     0,
	})
	if err != nil {
		return "", fmt.Errorf("create %s node: %w", nodeType, err)
	}

	// The host may rename the node; prefer its answer.
	var created struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(result, &created); err == nil && created.Name != "" {
		name = created.Name
	}

	return name, nil
}

// Connect wires from's output into the named input on to.
func (b *Bridge) Connect(ctx context.Context, from, to, input string) error {
	if input == "" {
		input = "Input"
	}
	_, err := b.client.Call(ctx, "connect_nodes", map[string]any{
		"from":  from,
		"to":    to,
		"input": input,
	})
	if err != nil {
		return fmt.Errorf("connect %s to %s: %w", from, to, err)
	}
	return nil
}

// ClearComposition removes all nodes from the live composition.
func (b *Bridge) ClearComposition(ctx context.Context) error {
	if _, err := b.client.Call(ctx, "clear_composition", nil); err != nil {
		return fmt.Errorf("clear composition: %w", err)
	}
	b.seq = 0
	return nil
}

// CompositionContext fetches the host's description of the current
// composition. An empty string is returned on failure so advisor prompts
// simply omit the section.
func (b *Bridge) CompositionContext(ctx context.Context) (string, error) {
	result, err := b.client.Call(ctx, "get_context", nil)
	if err != nil {
		return "", fmt.Errorf("get composition context: %w", err)
	}

	var payload struct {
		Context string `json:"context"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return "", fmt.Errorf("decode composition context: %w", err)
	}
	return payload.Context, nil
}

func stringParam(params map[string]any, key, fallback string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func floatParam(params map[string]any, key string, fallback float64) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return fallback
}

// colorParam reads a colour value either as a models.Color (heuristic plans)
// or as a decoded JSON object (advisor plans).
func colorParam(params map[string]any, key string, fallback models.Color) models.Color {
	switch v := params[key].(type) {
	case models.Color:
		return v
	case map[string]any:
		c := fallback
		if r, ok := v["r"].(float64); ok {
			c.R = r
		}
		if g, ok := v["g"].(float64); ok {
			c.G = g
		}
		if b, ok := v["b"].(float64); ok {
			c.B = b
		}
		if a, ok := v["a"].(float64); ok {
			c.A = a
		}
		return c
	}
	return fallback
}
