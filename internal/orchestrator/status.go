package orchestrator

import (
	"time"

	"github.com/ShayCichocki/compo/pkg/models"
)

// Status is a snapshot of the assistant and its capabilities.
type Status struct {
	// State is the assistant's current state.
	State models.AssistantState `json:"state"`
	// GraphAvailable reports whether the graph backend answered its probe.
	GraphAvailable bool `json:"graph_available"`
	// GenerationAvailable reports whether the generation backend answered
	// its probe.
	GenerationAvailable bool `json:"generation_available"`
	// AdvisorAvailable reports whether a planning advisor is configured.
	AdvisorAvailable bool `json:"advisor_available"`
	// Budget is the soft per-iteration time budget.
	Budget time.Duration `json:"budget"`
}

// Status reports the assistant's current state and backend availability.
func (a *Assistant) Status() Status {
	return Status{
		State:               a.State(),
		GraphAvailable:      a.graph != nil && a.graph.Available(),
		GenerationAvailable: a.gen != nil && a.gen.Available(),
		AdvisorAvailable:    a.planner != nil && a.planner.AdvisorAvailable(),
		Budget:              a.budget,
	}
}
