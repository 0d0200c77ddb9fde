package advisor

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"
)

// AnthropicAdvisor analyzes requests with the Anthropic Messages API.
type AnthropicAdvisor struct {
	client anthropic.Client
	model  anthropic.Model
}

// AnthropicConfig contains settings for creating an AnthropicAdvisor.
type AnthropicConfig struct {
	// Model is the Claude model to use. Defaults to Haiku; request analysis
	// must fit inside the iteration budget.
	Model anthropic.Model
	// APIKey is the resolved Anthropic API key. Required unless
	// UseAWSBedrock is set; resolution order belongs to the caller.
	APIKey string
	// UseAWSBedrock routes requests through AWS Bedrock instead of the
	// direct API.
	UseAWSBedrock bool
	// AWSRegion is the Bedrock region (e.g. "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS profile name.
	AWSProfile string
}

// NewAnthropicAdvisor creates an advisor backed by the Anthropic API.
func NewAnthropicAdvisor(cfg AnthropicConfig) (*AnthropicAdvisor, error) {
	var opts []option.RequestOption

	if cfg.UseAWSBedrock {
		ctx := context.Background()

		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.AWSProfile))
		}

		opts = append(opts, bedrock.WithLoadDefaultConfig(ctx, loadOpts...))
	} else {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic API key is required")
		}
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}

	model := cfg.Model
	if model == "" {
		model = anthropic.ModelClaude3_5Haiku20241022
	}

	return &AnthropicAdvisor{
		client: anthropic.NewClient(opts...),
		model:  model,
	}, nil
}

// Suggest sends a single analysis request and parses the response.
func (a *AnthropicAdvisor) Suggest(ctx context.Context, request, compContext string) (*Suggestion, error) {
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: "You route compositing requests between a node graph and an AI image generator. Respond with JSON only."},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(request, compContext))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("advisor request: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text += variant.Text
		}
	}
	if text == "" {
		return nil, fmt.Errorf("advisor returned an empty response")
	}

	return ParseSuggestion(text), nil
}

// Available reports whether the advisor is usable. Construction already
// validated credentials, so a constructed advisor is considered available.
func (a *AnthropicAdvisor) Available() bool {
	return true
}

// Model returns the configured model name.
func (a *AnthropicAdvisor) Model() anthropic.Model {
	return a.model
}
