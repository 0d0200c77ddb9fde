// Package classify turns a natural-language request (plus an optional advisor
// suggestion) into an ExecutionPlan. Classification never fails: when the
// advisor is unreachable or returns garbage, local keyword heuristics take
// over so the system degrades instead of erroring out.
package classify

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ShayCichocki/compo/pkg/models"
)

// KeywordTables is the single source of truth for category classification.
// The tables are immutable configuration data: loaded once at startup,
// never written at runtime.
type KeywordTables struct {
	// Generation keywords indicate content only the image generator can
	// produce: characters, scenes, photorealism, artistic styles.
	Generation []string `yaml:"generation"`

	// Graph keywords indicate work the node graph handles directly:
	// backgrounds, text, transforms, effects.
	Graph []string `yaml:"graph"`

	// StripVerbs are imperative words removed from a request before it is
	// used as a generation prompt.
	StripVerbs []string `yaml:"strip_verbs"`
}

// DefaultKeywordTables returns the authoritative keyword mappings.
var DefaultKeywordTables = KeywordTables{
	Generation: []string{
		"generate",
		"create character",
		"create scene",
		"fantasy",
		"realistic",
		"photorealistic",
		"photo",
		"dragon",
		"person",
		"character",
		"landscape",
		"environment",
		"painting",
		"artistic",
		"ai-generated",
		"using ai",
		"with ai",
	},
	Graph: []string{
		"background",
		"gradient",
		"text",
		"title",
		"subtitle",
		"lower-third",
		"transform",
		"position",
		"scale",
		"rotate",
		"merge",
		"mask",
		"color",
		"blur",
		"glow",
		"brightness",
		"contrast",
		"effect",
		"node",
	},
	StripVerbs: []string{
		"create",
		"generate",
		"make",
		"add",
		"using ai",
		"with ai",
	},
}

// namedColor pairs a colour name with its compositor value.
type namedColor struct {
	name  string
	color models.Color
}

// colorTable maps colour names in a request to compositor colours.
// Ordered so extraction is deterministic when several names appear.
// Immutable after init.
var colorTable = []namedColor{
	{"red", models.Color{R: 1, G: 0, B: 0, A: 1}},
	{"green", models.Color{R: 0, G: 1, B: 0, A: 1}},
	{"blue", models.Color{R: 0, G: 0, B: 1, A: 1}},
	{"yellow", models.Color{R: 1, G: 1, B: 0, A: 1}},
	{"cyan", models.Color{R: 0, G: 1, B: 1, A: 1}},
	{"magenta", models.Color{R: 1, G: 0, B: 1, A: 1}},
	{"white", models.Color{R: 1, G: 1, B: 1, A: 1}},
	{"black", models.Color{R: 0, G: 0, B: 0, A: 1}},
	{"orange", models.Color{R: 1, G: 0.5, B: 0, A: 1}},
	{"purple", models.Color{R: 0.5, G: 0, B: 0.5, A: 1}},
	{"gray", models.Color{R: 0.5, G: 0.5, B: 0.5, A: 1}},
	{"grey", models.Color{R: 0.5, G: 0.5, B: 0.5, A: 1}},
}

// defaultColor is neutral grey, used when no colour name matches.
var defaultColor = models.Color{R: 0.5, G: 0.5, B: 0.5, A: 1}

// LoadTables reads keyword-table overrides from a YAML file. Empty lists in
// the file keep the defaults; non-empty lists replace them wholesale.
func LoadTables(path string) (KeywordTables, error) {
	tables := DefaultKeywordTables

	data, err := os.ReadFile(path)
	if err != nil {
		return tables, fmt.Errorf("read keyword tables: %w", err)
	}

	var override KeywordTables
	if err := yaml.Unmarshal(data, &override); err != nil {
		return tables, fmt.Errorf("parse keyword tables: %w", err)
	}

	if len(override.Generation) > 0 {
		tables.Generation = override.Generation
	}
	if len(override.Graph) > 0 {
		tables.Graph = override.Graph
	}
	if len(override.StripVerbs) > 0 {
		tables.StripVerbs = override.StripVerbs
	}

	return tables, nil
}

// countHits counts how many keywords from the list occur in text.
// Text must already be lowercased.
func countHits(text string, keywords []string) int {
	count := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			count++
		}
	}
	return count
}

// colorFor extracts a colour from a lowercased request, defaulting to
// neutral grey.
func colorFor(text string) models.Color {
	for _, nc := range colorTable {
		if strings.Contains(text, nc.name) {
			return nc.color
		}
	}
	return defaultColor
}
