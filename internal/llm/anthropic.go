package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// defaultAnthropicMaxTokens is used when the request leaves MaxTokens unset;
// the Messages API requires a value.
const defaultAnthropicMaxTokens = 1024

// AnthropicProvider streams completions from the Anthropic Messages API.
type AnthropicProvider struct {
	Inner anthropic.Client
}

// NewAnthropic builds an AnthropicProvider from opt.
func NewAnthropic(opt Options) *AnthropicProvider {
	var opts []option.RequestOption
	if opt.APIKey != "" {
		opts = append(opts, option.WithAPIKey(opt.APIKey))
	}
	if strings.TrimSpace(opt.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(opt.BaseURL))
	}
	if opt.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(opt.HTTPClient))
	}
	return &AnthropicProvider{Inner: anthropic.NewClient(opts...)}
}

func (p *AnthropicProvider) StreamChat(ctx context.Context, req ChatRequest, onDelta func(string)) error {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
		Temperature: anthropic.Float(float64(req.Temperature)),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	stream := p.Inner.Messages.NewStreaming(ctx, params)
	defer stream.Close()
	for stream.Next() {
		ev, ok := stream.Current().AsAny().(anthropic.ContentBlockDeltaEvent)
		if !ok {
			continue
		}
		if d, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok && d.Text != "" {
			onDelta(d.Text)
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("anthropic stream: %w", err)
	}
	return nil
}
