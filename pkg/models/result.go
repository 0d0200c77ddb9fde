package models

import "time"

// AssistantState represents where the assistant is in one iteration cycle.
// The lifecycle is linear: Idle -> Analyzing -> Routing -> one of the
// executing states -> Complete, with Error reachable from every non-terminal
// state. Idle is the only re-entrant state; a new request always restarts
// from it.
type AssistantState string

const (
	// StateIdle means no request is being processed.
	StateIdle AssistantState = "idle"
	// StateAnalyzing means the request is being classified.
	StateAnalyzing AssistantState = "analyzing"
	// StateRouting means a plan exists and an execution path is being chosen.
	StateRouting AssistantState = "routing"
	// StateExecutingGraph means graph steps are being applied.
	StateExecutingGraph AssistantState = "executing_graph"
	// StateExecutingGeneration means images are being generated.
	StateExecutingGeneration AssistantState = "executing_generation"
	// StateExecutingHybrid means generation then graph phases are running.
	StateExecutingHybrid AssistantState = "executing_hybrid"
	// StateComplete means the iteration finished.
	StateComplete AssistantState = "complete"
	// StateError means the iteration aborted with an error.
	StateError AssistantState = "error"
)

// Valid returns true if the state is a known value.
func (s AssistantState) Valid() bool {
	switch s {
	case StateIdle, StateAnalyzing, StateRouting, StateExecutingGraph,
		StateExecutingGeneration, StateExecutingHybrid, StateComplete, StateError:
		return true
	default:
		return false
	}
}

// Terminal returns true for states that end an iteration.
func (s AssistantState) Terminal() bool {
	return s == StateComplete || s == StateError
}

// IterationResult is the outcome of one assistant iteration. It is created
// fresh per request, never mutated after being returned, and owned
// exclusively by the caller.
type IterationResult struct {
	// ID uniquely identifies this iteration.
	ID string `json:"id"`
	// Success indicates whether the iteration produced what the plan required.
	Success bool `json:"success"`
	// Duration is the measured wall-clock time for the iteration.
	Duration time.Duration `json:"duration"`
	// FinalState is the terminal state the iteration ended in.
	FinalState AssistantState `json:"final_state"`
	// Message summarizes the outcome for display.
	Message string `json:"message"`
	// CreatedNodeIDs lists graph node identifiers created by the iteration.
	CreatedNodeIDs []string `json:"created_node_ids,omitempty"`
	// GeneratedPaths lists file paths of generated images.
	GeneratedPaths []string `json:"generated_paths,omitempty"`
	// Error holds the failure text, if any.
	Error string `json:"error,omitempty"`
	// StartedAt is when the iteration began.
	StartedAt time.Time `json:"started_at"`
}

// ArtifactCount returns the total number of artifacts the iteration produced.
func (r *IterationResult) ArtifactCount() int {
	return len(r.CreatedNodeIDs) + len(r.GeneratedPaths)
}

// GenerationResult is the outcome of a single image-generation call.
type GenerationResult struct {
	// ImagePath is the local path of the downloaded image.
	ImagePath string `json:"image_path"`
	// Prompt is the positive prompt that produced the image.
	Prompt string `json:"prompt"`
	// Seed is the sampling seed used.
	Seed int64 `json:"seed"`
	// Steps is the number of sampling steps used.
	Steps int `json:"steps"`
	// Elapsed is how long the generation took.
	Elapsed time.Duration `json:"elapsed"`
}
