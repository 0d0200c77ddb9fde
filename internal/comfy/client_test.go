package comfy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
)

// newTestServer runs a minimal ComfyUI lookalike: accepts workflow
// submissions, reports them finished on the first history poll, and serves
// a fixed image payload.
func newTestServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	submissions := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/system_stats", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/prompt", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Prompt   map[string]any `json:"prompt"`
			ClientID string         `json:"client_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if body.ClientID == "" || len(body.Prompt) == 0 {
			http.Error(w, "missing fields", http.StatusBadRequest)
			return
		}
		submissions++
		fmt.Fprintf(w, `{"prompt_id":"p%d"}`, submissions)
	})
	mux.HandleFunc("/history/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/history/")
		fmt.Fprintf(w, `{%q:{"outputs":{"7":{"images":[{"filename":"out.png","subfolder":"","type":"output"}]}}}}`, id)
	})
	mux.HandleFunc("/view", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("filename") != "out.png" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("png-bytes"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &submissions
}

func TestGenerate(t *testing.T) {
	srv, _ := newTestServer(t)

	c := NewClient(context.Background(), srv.URL, "")
	if !c.Available() {
		t.Fatal("client should be available")
	}
	c.outDir = t.TempDir()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := c.Generate(ctx, "a fantasy dragon scene, high quality", Options{Seed: 42})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if result.Prompt != "a fantasy dragon scene, high quality" {
		t.Errorf("prompt = %q", result.Prompt)
	}
	if result.Seed != 42 {
		t.Errorf("seed = %d, want 42", result.Seed)
	}
	if result.Steps != DefaultSteps {
		t.Errorf("steps = %d, want %d", result.Steps, DefaultSteps)
	}

	data, err := os.ReadFile(result.ImagePath)
	if err != nil {
		t.Fatalf("artifact not written: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("artifact content = %q", data)
	}
}

func TestGenerateBatchStopsOnFailure(t *testing.T) {
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/system_stats", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/prompt", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			http.Error(w, "queue full", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"prompt_id":"p1"}`)
	})
	mux.HandleFunc("/history/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"p1":{"outputs":{"7":{"images":[{"filename":"out.png"}]}}}}`)
	})
	mux.HandleFunc("/view", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("png-bytes"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(context.Background(), srv.URL, "")
	c.outDir = t.TempDir()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results, err := c.GenerateBatch(ctx, []string{"first", "second"}, Options{Seed: 1})
	if err == nil {
		t.Fatal("expected batch failure")
	}
	if len(results) != 1 {
		t.Fatalf("partial results = %d, want 1", len(results))
	}
	if results[0].Prompt != "first" {
		t.Errorf("surviving result = %q", results[0].Prompt)
	}
}

func TestNewClientUnreachable(t *testing.T) {
	c := NewClient(context.Background(), "http://127.0.0.1:1", "")
	if c.Available() {
		t.Error("client should be unavailable when the server cannot be reached")
	}
}

func TestSubmitRejectedWorkflow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/system_stats", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/prompt", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid checkpoint", http.StatusBadRequest)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(context.Background(), srv.URL, "missing.safetensors")

	_, err := c.Generate(context.Background(), "anything", Options{Seed: 1})
	if err == nil {
		t.Fatal("expected submit error")
	}
	if !strings.Contains(err.Error(), "invalid checkpoint") {
		t.Errorf("error = %v", err)
	}
}

func TestBuildWorkflow(t *testing.T) {
	opts := Options{Seed: 7}
	opts.applyDefaults()
	wf := buildWorkflow("wan2.2.safetensors", "a castle", opts)

	sampler, ok := wf["5"].(map[string]any)
	if !ok {
		t.Fatal("missing sampler node")
	}
	inputs := sampler["inputs"].(map[string]any)
	if inputs["seed"] != int64(7) {
		t.Errorf("seed = %v", inputs["seed"])
	}
	if inputs["steps"] != DefaultSteps {
		t.Errorf("steps = %v, want %d", inputs["steps"], DefaultSteps)
	}

	latent := wf["4"].(map[string]any)["inputs"].(map[string]any)
	if latent["width"] != DefaultWidth || latent["height"] != DefaultHeight {
		t.Errorf("latent size = %vx%v", latent["width"], latent["height"])
	}

	positive := wf["2"].(map[string]any)["inputs"].(map[string]any)
	if positive["text"] != "a castle" {
		t.Errorf("positive prompt = %v", positive["text"])
	}
	negative := wf["3"].(map[string]any)["inputs"].(map[string]any)
	if negative["text"] != defaultNegativePrompt {
		t.Errorf("negative prompt = %v", negative["text"])
	}
}
