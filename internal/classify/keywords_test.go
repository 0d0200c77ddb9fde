package classify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ShayCichocki/compo/pkg/models"
)

func TestLoadTablesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keywords.yaml")
	content := `generation:
  - spaceship
  - nebula
strip_verbs:
  - render
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	tables, err := LoadTables(path)
	if err != nil {
		t.Fatalf("LoadTables: %v", err)
	}

	if len(tables.Generation) != 2 || tables.Generation[0] != "spaceship" {
		t.Errorf("generation = %v, want override", tables.Generation)
	}
	if len(tables.StripVerbs) != 1 || tables.StripVerbs[0] != "render" {
		t.Errorf("strip_verbs = %v, want override", tables.StripVerbs)
	}
	// Graph list was empty in the file, defaults stay.
	if len(tables.Graph) != len(DefaultKeywordTables.Graph) {
		t.Errorf("graph = %v, want defaults", tables.Graph)
	}
}

func TestLoadTablesMissingFile(t *testing.T) {
	tables, err := LoadTables("/nonexistent/keywords.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if len(tables.Generation) == 0 {
		t.Error("defaults should be returned alongside the error")
	}
}

func TestColorFor(t *testing.T) {
	tests := []struct {
		text string
		want models.Color
	}{
		{"a red background", models.Color{R: 1, G: 0, B: 0, A: 1}},
		{"something grey", models.Color{R: 0.5, G: 0.5, B: 0.5, A: 1}},
		{"no colour here", defaultColor},
		// First table entry wins when several names appear.
		{"red and blue stripes", models.Color{R: 1, G: 0, B: 0, A: 1}},
	}

	for _, tt := range tests {
		if got := colorFor(tt.text); got != tt.want {
			t.Errorf("colorFor(%q) = %+v, want %+v", tt.text, got, tt.want)
		}
	}
}

func TestExtractTextContent(t *testing.T) {
	tests := []struct {
		request string
		want    string
	}{
		{`text "Hello World"`, "Hello World"},
		{`title 'Breaking News'`, "Breaking News"},
		{"a lower-third saying Tonight at 9", "Tonight at 9"},
		{"just a title", defaultTextContent},
	}

	for _, tt := range tests {
		if got := extractTextContent(tt.request); got != tt.want {
			t.Errorf("extractTextContent(%q) = %q, want %q", tt.request, got, tt.want)
		}
	}
}
