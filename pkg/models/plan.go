package models

// TaskCategory represents which backend(s) a request is routed to.
type TaskCategory string

const (
	// CategoryGraphOnly indicates the request is satisfied by graph steps alone.
	CategoryGraphOnly TaskCategory = "graph_only"
	// CategoryGenerationOnly indicates the request requires image generation.
	CategoryGenerationOnly TaskCategory = "generation_only"
	// CategoryHybrid indicates the request requires generation followed by graph work.
	CategoryHybrid TaskCategory = "hybrid"
)

// Valid returns true if the category is a known value.
func (c TaskCategory) Valid() bool {
	switch c {
	case CategoryGraphOnly, CategoryGenerationOnly, CategoryHybrid:
		return true
	default:
		return false
	}
}

// NeedsGraph returns true if plans of this category include graph steps.
func (c TaskCategory) NeedsGraph() bool {
	return c == CategoryGraphOnly || c == CategoryHybrid
}

// NeedsGeneration returns true if plans of this category include generation prompts.
func (c TaskCategory) NeedsGeneration() bool {
	return c == CategoryGenerationOnly || c == CategoryHybrid
}

// StepKind identifies the operation a graph step performs.
// The set is closed; anything the classifier cannot recognize maps to
// StepKindGeneric rather than failing.
type StepKind string

const (
	// StepKindBackground creates a solid-color background node.
	StepKindBackground StepKind = "background"
	// StepKindText creates a styled text node.
	StepKindText StepKind = "text"
	// StepKindTransform creates a position/scale/rotation node.
	StepKindTransform StepKind = "transform"
	// StepKindMerge creates a compositing merge node.
	StepKindMerge StepKind = "merge"
	// StepKindBlur creates a blur effect node.
	StepKindBlur StepKind = "blur"
	// StepKindGlow creates a glow effect node.
	StepKindGlow StepKind = "glow"
	// StepKindLoader creates a media loader node for a file artifact.
	StepKindLoader StepKind = "loader"
	// StepKindGeneric carries an unrecognized request verbatim.
	StepKindGeneric StepKind = "generic"
)

// Valid returns true if the kind is a known value.
func (k StepKind) Valid() bool {
	switch k {
	case StepKindBackground, StepKindText, StepKindTransform, StepKindMerge,
		StepKindBlur, StepKindGlow, StepKindLoader, StepKindGeneric:
		return true
	default:
		return false
	}
}

// ParseStepKind maps a free-form kind tag to a StepKind.
// Unknown tags degrade to StepKindGeneric.
func ParseStepKind(s string) StepKind {
	k := StepKind(s)
	if k.Valid() {
		return k
	}
	return StepKindGeneric
}

// PlanStep is one unit of graph work within an ExecutionPlan.
type PlanStep struct {
	// Kind identifies the node operation to perform.
	Kind StepKind `json:"kind"`
	// Description is a human-readable summary of the step.
	Description string `json:"description"`
	// Params holds backend parameters keyed by input name.
	Params map[string]any `json:"params,omitempty"`
}

// StepSource identifies which plan list a StepRef points into.
type StepSource string

const (
	// SourceGraph references an entry in ExecutionPlan.GraphSteps.
	SourceGraph StepSource = "graph"
	// SourceGeneration references an entry in ExecutionPlan.GenerationPrompts.
	SourceGeneration StepSource = "generation"
)

// StepRef is one entry in the authoritative execution order.
type StepRef struct {
	// Source is the list the Index resolves into.
	Source StepSource `json:"source"`
	// Index is the position within the source list.
	Index int `json:"index"`
}

// ExecutionPlan is the routed form of one request: a category, the concrete
// steps for each backend, and the authoritative interleaved execution order.
// Plans are built per request and discarded after execution.
type ExecutionPlan struct {
	// Category is the routing decision. Immutable once assigned.
	Category TaskCategory `json:"category"`
	// SourceRequest is the original natural-language request.
	SourceRequest string `json:"source_request"`
	// GraphSteps are the graph operations, in insertion order.
	GraphSteps []PlanStep `json:"graph_steps,omitempty"`
	// GenerationPrompts are the image-generation prompts, in insertion order.
	GenerationPrompts []string `json:"generation_prompts,omitempty"`
	// ExecutionOrder interleaves references into GraphSteps and
	// GenerationPrompts. It is the authoritative execution sequence and may
	// differ from the natural concatenation of the two lists.
	ExecutionOrder []StepRef `json:"execution_order"`
}

// Validate checks the ExecutionOrder invariant: every reference resolves to
// exactly one step, and no step is referenced twice.
func (p *ExecutionPlan) Validate() error {
	seen := make(map[StepRef]bool, len(p.ExecutionOrder))
	for _, ref := range p.ExecutionOrder {
		switch ref.Source {
		case SourceGraph:
			if ref.Index < 0 || ref.Index >= len(p.GraphSteps) {
				return &PlanError{Ref: ref, Reason: "graph index out of range"}
			}
		case SourceGeneration:
			if ref.Index < 0 || ref.Index >= len(p.GenerationPrompts) {
				return &PlanError{Ref: ref, Reason: "generation index out of range"}
			}
		default:
			return &PlanError{Ref: ref, Reason: "unknown step source"}
		}
		if seen[ref] {
			return &PlanError{Ref: ref, Reason: "step referenced twice"}
		}
		seen[ref] = true
	}
	return nil
}

// PlanError describes an invalid step reference within a plan.
type PlanError struct {
	Ref    StepRef
	Reason string
}

func (e *PlanError) Error() string {
	return "invalid plan step " + string(e.Ref.Source) + ": " + e.Reason
}
