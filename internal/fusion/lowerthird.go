package fusion

import (
	"context"
	"fmt"

	"github.com/ShayCichocki/compo/pkg/models"
)

// BuildLowerThird assembles a complete lower-third template: a coloured bar
// transformed into the lower part of the frame, a title merged on top, and
// optionally a subtitle. Returns the created node ids in creation order.
func (b *Bridge) BuildLowerThird(ctx context.Context, title, subtitle string) ([]string, error) {
	var created []string

	bg, err := b.CreateStep(ctx, models.PlanStep{
		Kind:        models.StepKindBackground,
		Description: "Lower-third bar",
		Params: map[string]any{
			"color": models.Color{R: 0, G: 0.3, B: 0.6, A: 0.9},
		},
	})
	if err != nil {
		return created, fmt.Errorf("lower-third bar: %w", err)
	}
	created = append(created, bg)

	transform, err := b.CreateStep(ctx, models.PlanStep{
		Kind:        models.StepKindTransform,
		Description: "Position bar in lower third",
		Params:      map[string]any{"size": 0.4},
	})
	if err != nil {
		return created, fmt.Errorf("lower-third transform: %w", err)
	}
	created = append(created, transform)

	if err := b.Connect(ctx, bg, transform, "Input"); err != nil {
		return created, err
	}

	titleNode, err := b.CreateStep(ctx, models.PlanStep{
		Kind:        models.StepKindText,
		Description: "Lower-third title",
		Params:      map[string]any{"text": title, "size": 0.08},
	})
	if err != nil {
		return created, fmt.Errorf("lower-third title: %w", err)
	}
	created = append(created, titleNode)

	merge, err := b.CreateStep(ctx, models.PlanStep{
		Kind:        models.StepKindMerge,
		Description: "Merge title onto bar",
	})
	if err != nil {
		return created, fmt.Errorf("lower-third merge: %w", err)
	}
	created = append(created, merge)

	if err := b.Connect(ctx, transform, merge, "Background"); err != nil {
		return created, err
	}
	if err := b.Connect(ctx, titleNode, merge, "Foreground"); err != nil {
		return created, err
	}

	if subtitle == "" {
		return created, nil
	}

	subtitleNode, err := b.CreateStep(ctx, models.PlanStep{
		Kind:        models.StepKindText,
		Description: "Lower-third subtitle",
		Params:      map[string]any{"text": subtitle, "size": 0.05},
	})
	if err != nil {
		return created, fmt.Errorf("lower-third subtitle: %w", err)
	}
	created = append(created, subtitleNode)

	subMerge, err := b.CreateStep(ctx, models.PlanStep{
		Kind:        models.StepKindMerge,
		Description: "Merge subtitle",
	})
	if err != nil {
		return created, fmt.Errorf("lower-third subtitle merge: %w", err)
	}
	created = append(created, subMerge)

	if err := b.Connect(ctx, merge, subMerge, "Background"); err != nil {
		return created, err
	}
	if err := b.Connect(ctx, subtitleNode, subMerge, "Foreground"); err != nil {
		return created, err
	}

	return created, nil
}
