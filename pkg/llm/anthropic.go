package llm

import (
	"context"
	"encoding/json"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

const defaultAnthropicMaxTokens = 4096

// AnthropicProvider implements Provider on the official anthropic-sdk-go.
// It covers plain free-text generation and tool-forced structured output.
// Retrieval tools (web search, URL context) are not offered here; extraction
// stages that need them run on the Gemini provider.
type AnthropicProvider struct {
	client sdk.Client
	model  string
}

// NewAnthropicProvider creates an Anthropic-backed provider.
func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	return &AnthropicProvider{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Name returns the provider discriminator.
func (p *AnthropicProvider) Name() ProviderName {
	return ProviderAnthropic
}

// ErrToolsUnsupported is returned when a request asks for retrieval tools
// this provider does not offer.
var ErrToolsUnsupported = eris.New("anthropic provider: retrieval tools not supported")

// GenerateText issues a single message call and concatenates text blocks.
func (p *AnthropicProvider) GenerateText(ctx context.Context, req TextRequest) (*TextResponse, error) {
	if req.Tools.WebSearch || req.Tools.URLContext {
		return nil, ErrToolsUnsupported
	}

	msg, err := p.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(p.model),
		MaxTokens: defaultAnthropicMaxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt)),
		},
	}, option.WithMaxRetries(req.MaxRetries))
	if err != nil {
		return nil, eris.Wrap(err, "anthropic: create message")
	}

	var text string
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(sdk.TextBlock); ok {
			text += tb.Text
		}
	}

	return &TextResponse{
		Text:  text,
		Usage: anthropicUsage(msg),
	}, nil
}

// GenerateObject forces a tool call whose input schema is the requested
// schema; the tool input is the structured result.
func (p *AnthropicProvider) GenerateObject(ctx context.Context, req ObjectRequest) (*ObjectResponse, error) {
	properties, _ := req.Schema["properties"].(map[string]any)
	required := requiredKeys(req.Schema)

	params := sdk.MessageNewParams{
		Model:     sdk.Model(p.model),
		MaxTokens: defaultAnthropicMaxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt)),
		},
		Tools: []sdk.ToolUnionParam{
			{
				OfTool: &sdk.ToolParam{
					Name:        "record_fields",
					Description: sdk.String("Record the extracted field values"),
					InputSchema: sdk.ToolInputSchemaParam{
						Type:       "object",
						Properties: properties,
						Required:   required,
					},
				},
			},
		},
		ToolChoice: sdk.ToolChoiceParamOfTool("record_fields"),
	}

	msg, err := p.client.Messages.New(ctx, params, option.WithMaxRetries(req.MaxRetries))
	if err != nil {
		return nil, eris.Wrap(err, "anthropic: create message")
	}

	var obj map[string]any
	for _, block := range msg.Content {
		tu, ok := block.AsAny().(sdk.ToolUseBlock)
		if !ok {
			continue
		}
		raw, err := json.Marshal(tu.Input)
		if err != nil {
			return nil, eris.Wrap(err, "anthropic: marshal tool input")
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, eris.Wrap(err, "anthropic: decode tool input")
		}
		break
	}
	if obj == nil {
		return nil, eris.New("anthropic: no tool_use block in response")
	}

	return &ObjectResponse{
		Object: obj,
		Usage:  anthropicUsage(msg),
	}, nil
}

func anthropicUsage(msg *sdk.Message) *Usage {
	return &Usage{
		Provider:     ProviderAnthropic,
		InputTokens:  Int64(msg.Usage.InputTokens),
		OutputTokens: Int64(msg.Usage.OutputTokens),
	}
}

func requiredKeys(schema map[string]any) []string {
	var out []string
	switch req := schema["required"].(type) {
	case []string:
		out = req
	case []any:
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}
