// Package orchestrator runs one request end to end: classify, execute
// against the graph and generation backends, and report a structured
// iteration result.
package orchestrator

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/ShayCichocki/compo/pkg/models"
)

// EventType represents the type of orchestrator event.
type EventType string

const (
	// EventStateChanged indicates the assistant moved to a new state.
	EventStateChanged EventType = "state_changed"
	// EventStepStarted indicates a graph step is about to execute.
	EventStepStarted EventType = "step_started"
	// EventStepCompleted indicates a graph step created its node.
	EventStepCompleted EventType = "step_completed"
	// EventStepSkipped indicates a graph step failed and was skipped.
	EventStepSkipped EventType = "step_skipped"
	// EventGenerationStarted indicates an image generation is in flight.
	EventGenerationStarted EventType = "generation_started"
	// EventGenerationCompleted indicates an image artifact is on disk.
	EventGenerationCompleted EventType = "generation_completed"
	// EventGenerationFailed indicates a generation call failed.
	EventGenerationFailed EventType = "generation_failed"
	// EventBudgetExceeded indicates the iteration ran past its soft budget.
	EventBudgetExceeded EventType = "budget_exceeded"
	// EventIterationDone indicates a process call finished, success or not.
	EventIterationDone EventType = "iteration_done"
)

// Event is emitted by the assistant as it works through a request.
// Events are advisory; consumers update displays, never control flow.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// IterationID identifies the process call this event belongs to.
	IterationID string
	// State is the assistant state at emission time.
	State models.AssistantState
	// Message provides additional context about the event.
	Message string
	// Error contains error details for failure events.
	Error error
	// Timestamp is when the event occurred.
	Timestamp time.Time
	// Duration is the elapsed time, set on iteration_done and
	// budget_exceeded events.
	Duration time.Duration
}

// EventEmitter provides a simple, thread-safe way to emit events to
// subscribers.
type EventEmitter struct {
	events       chan Event
	droppedCount atomic.Uint64
}

// NewEventEmitter creates a new EventEmitter with the given buffer size.
func NewEventEmitter(bufferSize int) *EventEmitter {
	return &EventEmitter{
		events: make(chan Event, bufferSize),
	}
}

// Emit sends an event to the events channel.
// If the channel is full, it tries with a timeout before dropping the event.
func (e *EventEmitter) Emit(event Event) {
	select {
	case e.events <- event:
		return
	default:
	}

	// Give the receiver a moment to drain before dropping.
	select {
	case e.events <- event:
	case <-time.After(100 * time.Millisecond):
		count := e.droppedCount.Add(1)
		if count%10 == 1 {
			log.Printf("[orchestrator] WARNING: Event channel full, dropped event (total dropped: %d): type=%s", count, event.Type)
		}
	}
}

// DroppedCount returns the total number of events that have been dropped.
func (e *EventEmitter) DroppedCount() uint64 {
	return e.droppedCount.Load()
}

// Events returns a read-only channel of events.
func (e *EventEmitter) Events() <-chan Event {
	return e.events
}

// Close closes the events channel. Call once the assistant is done.
func (e *EventEmitter) Close() {
	close(e.events)
}
