package orchestrator

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/compo/internal/comfy"
	"github.com/ShayCichocki/compo/pkg/models"
)

// DefaultBudget is the soft per-iteration time budget. It is advisory:
// elapsed time is measured after execution and overruns produce a warning,
// never a cancellation.
const DefaultBudget = 20 * time.Second

// Planner turns a request into an execution plan. Classification never
// fails; degraded plans are still plans.
type Planner interface {
	Classify(ctx context.Context, request, compContext string) *models.ExecutionPlan
	AdvisorAvailable() bool
}

// GraphBackend is the node-graph capability. It mutates a single live
// composition and is owned exclusively by the assistant for the duration of
// one Process call.
type GraphBackend interface {
	CreateStep(ctx context.Context, step models.PlanStep) (string, error)
	Connect(ctx context.Context, from, to, input string) error
	ClearComposition(ctx context.Context) error
	CompositionContext(ctx context.Context) (string, error)
	Available() bool
}

// GenerationBackend produces image artifacts. Calls block until the
// artifact is on local disk.
type GenerationBackend interface {
	Generate(ctx context.Context, prompt string, opts comfy.Options) (*models.GenerationResult, error)
	Available() bool
}

// Recorder persists finished iterations. Failures are logged, never
// propagated: history is a convenience, not a dependency.
type Recorder interface {
	Record(ctx context.Context, result models.IterationResult) error
}

// Assistant is the execution orchestrator. Process is synchronous and not
// safe for concurrent calls against the same composition; callers that need
// concurrency must serialize externally.
type Assistant struct {
	planner  Planner
	graph    GraphBackend
	gen      GenerationBackend
	recorder Recorder
	emitter  *EventEmitter

	budget  time.Duration
	genOpts comfy.Options

	mu    sync.Mutex
	state models.AssistantState
}

// Option configures an Assistant. Use With* functions to create Options.
type Option func(*Assistant)

// WithBudget sets the soft iteration budget.
func WithBudget(d time.Duration) Option {
	return func(a *Assistant) {
		if d > 0 {
			a.budget = d
		}
	}
}

// WithRecorder persists each iteration result to the given store.
func WithRecorder(r Recorder) Option {
	return func(a *Assistant) { a.recorder = r }
}

// WithGenerationOptions overrides the speed-biased generation defaults.
func WithGenerationOptions(opts comfy.Options) Option {
	return func(a *Assistant) { a.genOpts = opts }
}

// New creates an Assistant. Either backend may be nil or unavailable;
// whether that fails a request depends on what its plan needs.
func New(planner Planner, graph GraphBackend, gen GenerationBackend, opts ...Option) *Assistant {
	a := &Assistant{
		planner: planner,
		graph:   graph,
		gen:     gen,
		emitter: NewEventEmitter(64),
		budget:  DefaultBudget,
		state:   models.StateIdle,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Events returns the assistant's event stream.
func (a *Assistant) Events() <-chan Event {
	return a.emitter.Events()
}

// Close releases the event stream.
func (a *Assistant) Close() {
	a.emitter.Close()
}

// Process runs one request to completion and always returns a structured
// result; failures are data, not panics. A panicking backend is caught
// here, converted into an Error result carrying whatever partial artifacts
// had accumulated.
func (a *Assistant) Process(ctx context.Context, request string) (result models.IterationResult) {
	start := time.Now()
	id := uuid.New().String()
	log.Printf("[orchestrator] processing request: %q", request)

	result = models.IterationResult{
		ID:        id,
		StartedAt: start,
	}

	var run runResult
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[orchestrator] recovered from panic: %v", r)
			result.CreatedNodeIDs = run.created
			result.GeneratedPaths = run.generated
			result.Success = false
			result.Message = "request aborted by an internal failure"
			result.Error = fmt.Sprintf("panic: %v", r)
			result = a.finish(ctx, result, start)
		}
	}()

	a.setState(id, models.StateAnalyzing)

	var compContext string
	if a.graph != nil && a.graph.Available() {
		c, err := a.graph.CompositionContext(ctx)
		if err != nil {
			log.Printf("[orchestrator] composition context unavailable: %v", err)
		} else {
			compContext = c
		}
	}

	plan := a.planner.Classify(ctx, request, compContext)
	a.setState(id, models.StateRouting)

	if err := plan.Validate(); err != nil {
		result.Message = "invalid execution plan"
		result.Error = err.Error()
		return a.finish(ctx, result, start)
	}

	switch plan.Category {
	case models.CategoryGraphOnly:
		a.setState(id, models.StateExecutingGraph)
	case models.CategoryGenerationOnly:
		a.setState(id, models.StateExecutingGeneration)
	case models.CategoryHybrid:
		a.setState(id, models.StateExecutingHybrid)
	}

	if err := a.checkPreconditions(plan); err != nil {
		result.Message = err.Error()
		result.Error = err.Error()
		return a.finish(ctx, result, start)
	}

	a.runPlan(ctx, id, plan, &run)
	result.CreatedNodeIDs = run.created
	result.GeneratedPaths = run.generated
	result.Success = run.succeeded()
	result.Message = buildSummary(plan.Category, len(run.created), len(run.generated), run.skipped, run.genFailures, run.notActionable)

	return a.finish(ctx, result, start)
}

// checkPreconditions enforces the hard backend requirements of a plan.
// A category that needs a backend fails fast when it is absent; the error
// names the missing backend.
func (a *Assistant) checkPreconditions(plan *models.ExecutionPlan) error {
	if plan.Category.NeedsGeneration() && (a.gen == nil || !a.gen.Available()) {
		return fmt.Errorf("generation backend unavailable: cannot run %s plan", plan.Category)
	}
	if plan.Category.NeedsGraph() && (a.graph == nil || !a.graph.Available()) {
		return fmt.Errorf("graph backend unavailable: cannot run %s plan", plan.Category)
	}
	return nil
}

// finish stamps duration and final state, applies the soft budget check,
// records the iteration, and emits the closing event. The assistant
// returns to Idle afterward; the terminal state lives on in the result.
func (a *Assistant) finish(ctx context.Context, result models.IterationResult, start time.Time) models.IterationResult {
	result.Duration = time.Since(start)

	if result.Duration > a.budget {
		warning := fmt.Sprintf(" (exceeded %.0fs budget: took %.1fs)", a.budget.Seconds(), result.Duration.Seconds())
		result.Message += warning
		a.emitter.Emit(Event{
			Type:        EventBudgetExceeded,
			IterationID: result.ID,
			Message:     warning,
			Duration:    result.Duration,
			Timestamp:   time.Now(),
		})
	}

	// Precondition, validation, and unhandled failures carry error text
	// and end in Error. A plan that ran to completion ends in Complete
	// even when it produced nothing; that soft failure is message-only.
	if result.Error != "" {
		result.FinalState = models.StateError
	} else {
		result.FinalState = models.StateComplete
	}
	a.setState(result.ID, result.FinalState)

	if a.recorder != nil {
		if err := a.recorder.Record(ctx, result); err != nil {
			log.Printf("[orchestrator] failed to record iteration: %v", err)
		}
	}

	a.emitter.Emit(Event{
		Type:        EventIterationDone,
		IterationID: result.ID,
		State:       result.FinalState,
		Message:     result.Message,
		Duration:    result.Duration,
		Timestamp:   time.Now(),
	})
	log.Printf("[orchestrator] iteration %s done in %.1fs: %s", result.ID, result.Duration.Seconds(), result.Message)

	a.setState(result.ID, models.StateIdle)

	return result
}

func (a *Assistant) setState(id string, state models.AssistantState) {
	a.mu.Lock()
	a.state = state
	a.mu.Unlock()

	a.emitter.Emit(Event{
		Type:        EventStateChanged,
		IterationID: id,
		State:       state,
		Timestamp:   time.Now(),
	})
}

// State returns the assistant's current state.
func (a *Assistant) State() models.AssistantState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// ClearComposition removes every node from the live composition.
func (a *Assistant) ClearComposition(ctx context.Context) error {
	if a.graph == nil || !a.graph.Available() {
		return fmt.Errorf("graph backend unavailable: nothing to clear")
	}
	return a.graph.ClearComposition(ctx)
}
