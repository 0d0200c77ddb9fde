package classify

import (
	"context"
	"log"
	"strings"

	"github.com/ShayCichocki/compo/internal/advisor"
	"github.com/ShayCichocki/compo/pkg/models"
)

// artifactPlaceholder marks a loader parameter that is resolved to a real
// file path once generation has produced one.
const artifactPlaceholder = "{generated_image}"

// Classifier routes requests into ExecutionPlans. It consults an advisor
// when one is configured and falls back to keyword heuristics on any
// advisor failure.
type Classifier struct {
	advisor advisor.Advisor
	tables  KeywordTables
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithTables replaces the default keyword tables.
func WithTables(tables KeywordTables) Option {
	return func(c *Classifier) {
		c.tables = tables
	}
}

// New creates a Classifier. The advisor may be nil, in which case only
// local heuristics are used.
func New(adv advisor.Advisor, opts ...Option) *Classifier {
	c := &Classifier{
		advisor: adv,
		tables:  DefaultKeywordTables,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AdvisorAvailable reports whether an advisor is configured and answering.
func (c *Classifier) AdvisorAvailable() bool {
	return c.advisor != nil && c.advisor.Available()
}

// Classify turns a request into an ExecutionPlan. It never fails: advisor
// errors and malformed suggestions degrade to heuristics, and the returned
// plan always contains at least one step.
func (c *Classifier) Classify(ctx context.Context, request, compContext string) *models.ExecutionPlan {
	var sug *advisor.Suggestion
	if c.advisor != nil {
		s, err := c.advisor.Suggest(ctx, request, compContext)
		if err != nil {
			log.Printf("[classify] advisor unavailable, using local heuristics: %v", err)
		} else {
			sug = s
		}
	}

	switch c.resolveCategory(request, sug) {
	case models.CategoryGenerationOnly:
		return c.generationPlan(request)
	case models.CategoryHybrid:
		return c.hybridPlan(request, sug)
	default:
		return c.graphPlan(request)
	}
}

// resolveCategory picks the task category. A structured advisor suggestion
// is trusted directly; otherwise the request and advisor text are scored
// against the two keyword tables. Equal nonzero counts resolve to Hybrid:
// extracting meaning from both signal sets is safer than guessing one.
func (c *Classifier) resolveCategory(request string, sug *advisor.Suggestion) models.TaskCategory {
	if sug != nil {
		switch sug.TaskType {
		case "graph":
			return models.CategoryGraphOnly
		case "generation":
			return models.CategoryGenerationOnly
		case "hybrid":
			return models.CategoryHybrid
		}
	}

	text := strings.ToLower(request)
	if sug != nil {
		text += " " + strings.ToLower(sug.Explanation)
	}

	genHits := countHits(text, c.tables.Generation)
	graphHits := countHits(text, c.tables.Graph)

	switch {
	case genHits > graphHits:
		return models.CategoryGenerationOnly
	case genHits > 0 && graphHits > 0:
		return models.CategoryHybrid
	default:
		return models.CategoryGraphOnly
	}
}

// graphPlan builds a pure graph plan: one execution entry per extracted
// step, in list order.
func (c *Classifier) graphPlan(request string) *models.ExecutionPlan {
	steps := c.extractGraphSteps(request)

	order := make([]models.StepRef, len(steps))
	for i := range steps {
		order[i] = models.StepRef{Source: models.SourceGraph, Index: i}
	}

	return &models.ExecutionPlan{
		Category:       models.CategoryGraphOnly,
		SourceRequest:  request,
		GraphSteps:     steps,
		ExecutionOrder: order,
	}
}

// generationPlan builds a generation plan. A loader step is always appended
// so the artifact lands in the composition, and generation entries precede
// the loader that consumes their output.
func (c *Classifier) generationPlan(request string) *models.ExecutionPlan {
	prompts := c.buildPrompts(request)

	loader := models.PlanStep{
		Kind:        models.StepKindLoader,
		Description: "Load generated image",
		Params:      map[string]any{"clip": artifactPlaceholder},
	}

	order := make([]models.StepRef, 0, len(prompts)+1)
	for i := range prompts {
		order = append(order, models.StepRef{Source: models.SourceGeneration, Index: i})
	}
	order = append(order, models.StepRef{Source: models.SourceGraph, Index: 0})

	return &models.ExecutionPlan{
		Category:          models.CategoryGenerationOnly,
		SourceRequest:     request,
		GraphSteps:        []models.PlanStep{loader},
		GenerationPrompts: prompts,
		ExecutionOrder:    order,
	}
}

// hybridPlan builds a plan needing both backends. When the advisor supplied
// a step breakdown, its ordering is authoritative; otherwise generation runs
// before graph work.
func (c *Classifier) hybridPlan(request string, sug *advisor.Suggestion) *models.ExecutionPlan {
	plan := &models.ExecutionPlan{
		Category:      models.CategoryHybrid,
		SourceRequest: request,
	}

	if sug != nil {
		for _, step := range sug.Steps {
			if isGenerationStep(step) {
				prompt := step.Prompt
				if prompt == "" {
					prompt = c.buildPrompts(request)[0]
				}
				plan.GenerationPrompts = append(plan.GenerationPrompts, prompt)
				plan.ExecutionOrder = append(plan.ExecutionOrder, models.StepRef{
					Source: models.SourceGeneration,
					Index:  len(plan.GenerationPrompts) - 1,
				})
				continue
			}

			desc := step.Description
			if desc == "" {
				desc = request
			}
			plan.GraphSteps = append(plan.GraphSteps, models.PlanStep{
				Kind:        models.ParseStepKind(step.Kind),
				Description: desc,
				Params:      step.Params,
			})
			plan.ExecutionOrder = append(plan.ExecutionOrder, models.StepRef{
				Source: models.SourceGraph,
				Index:  len(plan.GraphSteps) - 1,
			})
		}
	}

	// A hybrid plan must exercise both backends even if the advisor's
	// breakdown covered only one.
	if len(plan.GenerationPrompts) == 0 {
		plan.GenerationPrompts = c.buildPrompts(request)
		refs := make([]models.StepRef, len(plan.GenerationPrompts))
		for i := range plan.GenerationPrompts {
			refs[i] = models.StepRef{Source: models.SourceGeneration, Index: i}
		}
		plan.ExecutionOrder = append(refs, plan.ExecutionOrder...)
	}
	if len(plan.GraphSteps) == 0 {
		plan.GraphSteps = c.extractGraphSteps(request)
		for i := range plan.GraphSteps {
			plan.ExecutionOrder = append(plan.ExecutionOrder, models.StepRef{
				Source: models.SourceGraph,
				Index:  i,
			})
		}
	}

	return plan
}

// isGenerationStep reports whether an advisor step descriptor describes
// image generation rather than graph work.
func isGenerationStep(step advisor.StepDescriptor) bool {
	switch strings.ToLower(step.Kind) {
	case "comfyui", "generation", "generate", "image", "ai":
		return true
	}
	return step.Prompt != ""
}
