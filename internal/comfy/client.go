// Package comfy is the generation backend adapter: it submits text-to-image
// workflows to a ComfyUI server, watches progress over a websocket, and
// downloads the finished artifact to a local file.
package comfy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/compo/pkg/models"
)

const (
	// DefaultServerURL is where a local ComfyUI instance listens.
	DefaultServerURL = "http://localhost:8188"

	// DefaultModel is the checkpoint used for generation.
	DefaultModel = "wan2.2.safetensors"

	// probeTimeout bounds the liveness check.
	probeTimeout = 5 * time.Second

	// historyPollInterval paces polling when websocket progress is not
	// available.
	historyPollInterval = 2 * time.Second
)

// Speed-biased defaults. Generation has to fit inside an interactive
// iteration, so resolution and step count are cut well below the server's
// quality settings.
const (
	DefaultWidth  = 512
	DefaultHeight = 512
	DefaultSteps  = 15
	DefaultCFG    = 7.0

	defaultNegativePrompt = "blurry, low quality, distorted"
)

// Options tune a single generation call. Zero values take the speed-biased
// defaults above.
type Options struct {
	NegativePrompt string
	Width          int
	Height         int
	Steps          int
	CFG            float64
	Seed           int64
}

func (o *Options) applyDefaults() {
	if o.NegativePrompt == "" {
		o.NegativePrompt = defaultNegativePrompt
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Steps == 0 {
		o.Steps = DefaultSteps
	}
	if o.CFG == 0 {
		o.CFG = DefaultCFG
	}
	if o.Seed == 0 {
		o.Seed = time.Now().Unix()
	}
}

// Client talks to one ComfyUI server. Safe for sequential use; generation
// calls are blocking and are not issued concurrently by the orchestrator.
type Client struct {
	serverURL string
	model     string
	clientID  string
	http      *http.Client
	outDir    string
	available bool
}

// NewClient probes the server once and returns a client whose availability
// reflects the probe. An unreachable server is not an error here: whether
// generation is required is decided per plan.
func NewClient(ctx context.Context, serverURL, model string) *Client {
	if serverURL == "" {
		serverURL = DefaultServerURL
	}
	if model == "" {
		model = DefaultModel
	}

	c := &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		model:     model,
		clientID:  uuid.New().String(),
		http:      &http.Client{},
		outDir:    os.TempDir(),
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := c.probe(probeCtx); err != nil {
		log.Printf("[comfy] server unreachable at %s: %v", c.serverURL, err)
		return c
	}

	c.available = true
	return c
}

// Available reports the construction-time probe result.
func (c *Client) Available() bool {
	return c.available
}

// probe checks the server's stats endpoint.
func (c *Client) probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+"/system_stats", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

// Generate runs one text-to-image workflow and blocks until the artifact
// is on local disk. Progress events are advisory: a failed websocket never
// fails the generation, history polling picks up the result regardless.
func (c *Client) Generate(ctx context.Context, prompt string, opts Options) (*models.GenerationResult, error) {
	opts.applyDefaults()
	start := time.Now()

	promptID, err := c.submit(ctx, prompt, opts)
	if err != nil {
		return nil, err
	}
	log.Printf("[comfy] generating: %q (steps=%d, %dx%d)", prompt, opts.Steps, opts.Width, opts.Height)

	c.watchProgress(ctx, promptID)

	imageRef, err := c.awaitOutput(ctx, promptID)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(c.outDir, fmt.Sprintf("comfyui_%s.png", promptID))
	if err := c.download(ctx, imageRef, path); err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	log.Printf("[comfy] generated in %.1fs: %s", elapsed.Seconds(), path)

	return &models.GenerationResult{
		ImagePath: path,
		Prompt:    prompt,
		Seed:      opts.Seed,
		Steps:     opts.Steps,
		Elapsed:   elapsed,
	}, nil
}

// GenerateBatch runs prompts sequentially and stops at the first failure,
// returning the results produced so far alongside the error.
func (c *Client) GenerateBatch(ctx context.Context, prompts []string, opts Options) ([]models.GenerationResult, error) {
	results := make([]models.GenerationResult, 0, len(prompts))
	for i, prompt := range prompts {
		log.Printf("[comfy] batch %d/%d", i+1, len(prompts))
		result, err := c.Generate(ctx, prompt, opts)
		if err != nil {
			return results, fmt.Errorf("prompt %d of %d: %w", i+1, len(prompts), err)
		}
		results = append(results, *result)
	}
	return results, nil
}

// submit posts the workflow and returns the server-assigned prompt id.
func (c *Client) submit(ctx context.Context, prompt string, opts Options) (string, error) {
	body, err := json.Marshal(map[string]any{
		"prompt":    buildWorkflow(c.model, prompt, opts),
		"client_id": c.clientID,
	})
	if err != nil {
		return "", fmt.Errorf("encode workflow: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/prompt", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit workflow: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("submit workflow: status %d: %s", resp.StatusCode, msg)
	}

	var submitted struct {
		PromptID string `json:"prompt_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&submitted); err != nil {
		return "", fmt.Errorf("decode submit response: %w", err)
	}
	if submitted.PromptID == "" {
		return "", fmt.Errorf("submit workflow: no prompt id in response")
	}
	return submitted.PromptID, nil
}

// imageRef locates a finished image on the server.
type imageRef struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

// awaitOutput polls the history endpoint until the prompt has outputs or
// the context expires.
func (c *Client) awaitOutput(ctx context.Context, promptID string) (imageRef, error) {
	ticker := time.NewTicker(historyPollInterval)
	defer ticker.Stop()

	for {
		ref, done, err := c.fetchHistory(ctx, promptID)
		if err != nil {
			return imageRef{}, err
		}
		if done {
			return ref, nil
		}

		select {
		case <-ctx.Done():
			return imageRef{}, fmt.Errorf("await generation %s: %w", promptID, ctx.Err())
		case <-ticker.C:
		}
	}
}

// fetchHistory reads one history snapshot. done is false while the prompt
// is still executing.
func (c *Client) fetchHistory(ctx context.Context, promptID string) (imageRef, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+"/history/"+promptID, nil)
	if err != nil {
		return imageRef{}, false, fmt.Errorf("build history request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return imageRef{}, false, fmt.Errorf("fetch history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return imageRef{}, false, fmt.Errorf("fetch history: status %d", resp.StatusCode)
	}

	var history map[string]struct {
		Outputs map[string]struct {
			Images []imageRef `json:"images"`
		} `json:"outputs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return imageRef{}, false, fmt.Errorf("decode history: %w", err)
	}

	entry, ok := history[promptID]
	if !ok {
		return imageRef{}, false, nil
	}
	for _, output := range entry.Outputs {
		if len(output.Images) > 0 {
			return output.Images[0], true, nil
		}
	}
	return imageRef{}, false, nil
}

// download fetches the image bytes and writes them to path.
func (c *Client) download(ctx context.Context, ref imageRef, path string) error {
	folderType := ref.Type
	if folderType == "" {
		folderType = "output"
	}

	q := url.Values{}
	q.Set("filename", ref.Filename)
	q.Set("subfolder", ref.Subfolder)
	q.Set("type", folderType)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+"/view?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download image: status %d", resp.StatusCode)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("write image file: %w", err)
	}
	return nil
}
