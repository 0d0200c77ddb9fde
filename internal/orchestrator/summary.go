package orchestrator

import (
	"fmt"
	"strings"

	"github.com/ShayCichocki/compo/pkg/models"
)

// buildSummary renders the human-readable outcome of one iteration. Pure
// function of its inputs so identical runs report identically.
// notActionable counts generic steps that carried nothing executable;
// skipped counts concrete steps the backend refused. "nothing actionable"
// is reserved for plans where generic steps were the only content.
func buildSummary(category models.TaskCategory, created, generated, skipped, genFailures, notActionable int) string {
	if created == 0 && generated == 0 && skipped == 0 && genFailures == 0 && notActionable > 0 {
		return "nothing actionable in request"
	}
	if created == 0 && generated == 0 && genFailures == 0 && skipped > 0 {
		return fmt.Sprintf("all %d graph step(s) failed", skipped)
	}

	var parts []string

	switch category {
	case models.CategoryGraphOnly:
		parts = append(parts, fmt.Sprintf("created %d node(s)", created))
	case models.CategoryGenerationOnly:
		parts = append(parts, fmt.Sprintf("generated %d image(s)", generated))
		if created > 0 {
			parts = append(parts, fmt.Sprintf("loaded into %d node(s)", created))
		}
	case models.CategoryHybrid:
		parts = append(parts, fmt.Sprintf("generated %d image(s)", generated))
		parts = append(parts, fmt.Sprintf("created %d node(s)", created))
	}

	if skipped > 0 {
		parts = append(parts, fmt.Sprintf("skipped %d step(s)", skipped))
	}
	if notActionable > 0 {
		parts = append(parts, fmt.Sprintf("ignored %d generic step(s)", notActionable))
	}
	if genFailures > 0 {
		parts = append(parts, fmt.Sprintf("%d generation(s) failed", genFailures))
	}

	return strings.Join(parts, ", ")
}
