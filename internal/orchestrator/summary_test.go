package orchestrator

import (
	"strings"
	"testing"

	"github.com/ShayCichocki/compo/pkg/models"
)

func TestBuildSummary(t *testing.T) {
	tests := []struct {
		name          string
		category      models.TaskCategory
		created       int
		generated     int
		skipped       int
		genFailures   int
		notActionable int
		want          []string
	}{
		{
			name:     "graph only",
			category: models.CategoryGraphOnly,
			created:  3,
			want:     []string{"created 3 node(s)"},
		},
		{
			name:      "generation with load",
			category:  models.CategoryGenerationOnly,
			created:   1,
			generated: 1,
			want:      []string{"generated 1 image(s)", "loaded into 1 node(s)"},
		},
		{
			name:      "hybrid",
			category:  models.CategoryHybrid,
			created:   2,
			generated: 1,
			want:      []string{"generated 1 image(s)", "created 2 node(s)"},
		},
		{
			name:     "partial graph",
			category: models.CategoryGraphOnly,
			created:  2,
			skipped:  1,
			want:     []string{"created 2 node(s)", "skipped 1 step(s)"},
		},
		{
			name:        "generation failures noted",
			category:    models.CategoryGenerationOnly,
			generated:   1,
			genFailures: 1,
			want:        []string{"generated 1 image(s)", "1 generation(s) failed"},
		},
		{
			name:          "nothing actionable",
			category:      models.CategoryGraphOnly,
			notActionable: 1,
			want:          []string{"nothing actionable in request"},
		},
		{
			name:     "every concrete step failed",
			category: models.CategoryGraphOnly,
			skipped:  3,
			want:     []string{"all 3 graph step(s) failed"},
		},
		{
			name:          "generic step among concrete ones",
			category:      models.CategoryGraphOnly,
			created:       2,
			notActionable: 1,
			want:          []string{"created 2 node(s)", "ignored 1 generic step(s)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildSummary(tt.category, tt.created, tt.generated, tt.skipped, tt.genFailures, tt.notActionable)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("summary %q missing %q", got, want)
				}
			}
		})
	}
}

func TestBuildSummaryFailureMessagesDistinct(t *testing.T) {
	// A generic plan with no real content and a concrete plan whose every
	// step failed at the backend must not report the same thing.
	generic := buildSummary(models.CategoryGraphOnly, 0, 0, 0, 0, 1)
	failed := buildSummary(models.CategoryGraphOnly, 0, 0, 3, 0, 0)
	if generic == failed {
		t.Errorf("both outcomes report %q", generic)
	}
	if strings.Contains(failed, "nothing actionable") {
		t.Errorf("backend failures misreported as non-actionable: %q", failed)
	}
}

func TestBuildSummaryDeterministic(t *testing.T) {
	first := buildSummary(models.CategoryHybrid, 2, 1, 1, 0, 0)
	second := buildSummary(models.CategoryHybrid, 2, 1, 1, 0, 0)
	if first != second {
		t.Errorf("summary not deterministic: %q vs %q", first, second)
	}
}
