package orchestrator

import (
	"context"
	"log"
	"time"

	"github.com/ShayCichocki/compo/pkg/models"
)

// artifactPlaceholder in a loader step's clip parameter is resolved to the
// most recent generated artifact at execution time.
const artifactPlaceholder = "{generated_image}"

// runResult aggregates what one plan execution produced. Generic steps
// that carried nothing executable are counted apart from steps the backend
// refused, so the summary can tell the two apart.
type runResult struct {
	created       []string
	generated     []string
	skipped       int
	genFailures   int
	notActionable int
}

// succeeded applies the best-effort rule: an iteration succeeds when it
// produced at least one artifact, or when nothing went wrong at all. A plan
// whose every step failed or was skipped is a failure.
func (r runResult) succeeded() bool {
	if r.skipped == 0 && r.genFailures == 0 && r.notActionable == 0 {
		return true
	}
	return len(r.created)+len(r.generated) > 0
}

// runPlan walks the execution order and invokes the backend each entry
// points at. Graph step failures skip the step and continue; generation
// failures are counted but do not stop remaining prompts. Preconditions
// were already checked, with one exception: a GenerationOnly plan carries a
// trailing loader step that is silently dropped when the graph backend is
// absent.
func (a *Assistant) runPlan(ctx context.Context, id string, plan *models.ExecutionPlan, run *runResult) {
	for _, ref := range plan.ExecutionOrder {
		switch ref.Source {
		case models.SourceGeneration:
			a.runGeneration(ctx, id, plan.GenerationPrompts[ref.Index], run)
		case models.SourceGraph:
			a.runGraphStep(ctx, id, plan.GraphSteps[ref.Index], run)
		}
	}
}

func (a *Assistant) runGeneration(ctx context.Context, id, prompt string, run *runResult) {
	a.emitter.Emit(Event{
		Type:        EventGenerationStarted,
		IterationID: id,
		Message:     prompt,
		Timestamp:   time.Now(),
	})

	result, err := a.gen.Generate(ctx, prompt, a.genOpts)
	if err != nil {
		run.genFailures++
		log.Printf("[orchestrator] generation of %q failed: %v", prompt, err)
		a.emitter.Emit(Event{
			Type:        EventGenerationFailed,
			IterationID: id,
			Error:       err,
			Timestamp:   time.Now(),
		})
		return
	}

	run.generated = append(run.generated, result.ImagePath)
	a.emitter.Emit(Event{
		Type:        EventGenerationCompleted,
		IterationID: id,
		Message:     result.ImagePath,
		Timestamp:   time.Now(),
	})
}

func (a *Assistant) runGraphStep(ctx context.Context, id string, step models.PlanStep, run *runResult) {
	step = resolveArtifact(step, run.generated)

	// A loader with no artifact to load has nothing to do. Non-fatal:
	// this only happens when every generation ahead of it failed, which
	// is already reported, or when the graph backend is absent on a
	// generation-only plan.
	if step.Kind == models.StepKindLoader {
		if len(run.generated) == 0 {
			run.skipped++
			return
		}
		if a.graph == nil || !a.graph.Available() {
			log.Printf("[orchestrator] graph backend absent, artifact left on disk")
			return
		}
	}

	a.emitter.Emit(Event{
		Type:        EventStepStarted,
		IterationID: id,
		Message:     step.Description,
		Timestamp:   time.Now(),
	})

	nodeID, err := a.graph.CreateStep(ctx, step)
	if err != nil {
		if step.Kind == models.StepKindGeneric {
			run.notActionable++
		} else {
			run.skipped++
		}
		log.Printf("[orchestrator] step skipped: %v", err)
		a.emitter.Emit(Event{
			Type:        EventStepSkipped,
			IterationID: id,
			Message:     step.Description,
			Error:       err,
			Timestamp:   time.Now(),
		})
		return
	}

	run.created = append(run.created, nodeID)
	a.emitter.Emit(Event{
		Type:        EventStepCompleted,
		IterationID: id,
		Message:     nodeID,
		Timestamp:   time.Now(),
	})
}

// resolveArtifact substitutes the newest generated artifact path into a
// loader step's clip parameter. The step is copied; plans stay immutable so
// repeated classification of the same request compares equal.
func resolveArtifact(step models.PlanStep, generated []string) models.PlanStep {
	if step.Kind != models.StepKindLoader || len(generated) == 0 {
		return step
	}
	clip, ok := step.Params["clip"].(string)
	if !ok || clip != artifactPlaceholder {
		return step
	}

	params := make(map[string]any, len(step.Params))
	for k, v := range step.Params {
		params[k] = v
	}
	params["clip"] = generated[len(generated)-1]
	step.Params = params
	return step
}
