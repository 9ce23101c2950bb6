package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ChatRequest is a single-turn chat: one system directive, one user message.
type ChatRequest struct {
	Model       string
	System      string
	User        string
	MaxTokens   int
	Temperature float32
}

// StreamClient streams a chat completion, handing each text fragment to
// onDelta in arrival order. It returns once the stream ends.
type StreamClient interface {
	StreamChat(ctx context.Context, req ChatRequest, onDelta func(string)) error
}

// ModelLister is an optional capability that allows listing available models.
// Callers should use a type assertion to detect availability.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// ErrUnknownProvider is returned by New for an unsupported provider name.
var ErrUnknownProvider = errors.New("unknown llm provider")

// Options configure a provider client.
type Options struct {
	Provider   string
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// New returns the streaming client for opt.Provider. An empty provider
// selects OpenAI.
func New(opt Options) (StreamClient, error) {
	switch strings.ToLower(strings.TrimSpace(opt.Provider)) {
	case "", ProviderOpenAI:
		return NewOpenAI(opt), nil
	case ProviderAnthropic:
		return NewAnthropic(opt), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, opt.Provider)
}

// OpenAIProvider adapts *openai.Client to StreamClient and ModelLister. It
// also serves any OpenAI-compatible backend reachable through BaseURL.
type OpenAIProvider struct {
	Inner *openai.Client
}

// NewOpenAI builds an OpenAIProvider from opt.
func NewOpenAI(opt Options) *OpenAIProvider {
	cfg := openai.DefaultConfig(opt.APIKey)
	if strings.TrimSpace(opt.BaseURL) != "" {
		cfg.BaseURL = strings.TrimRight(opt.BaseURL, "/")
	}
	if opt.HTTPClient != nil {
		cfg.HTTPClient = opt.HTTPClient
	}
	return &OpenAIProvider{Inner: openai.NewClientWithConfig(cfg)}
}

func (p *OpenAIProvider) StreamChat(ctx context.Context, req ChatRequest, onDelta func(string)) error {
	stream, err := p.Inner.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		N:           1,
		Stream:      true,
	})
	if err != nil {
		return fmt.Errorf("openai stream: %w", err)
	}
	defer stream.Close()
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("openai stream recv: %w", err)
		}
		for _, ch := range resp.Choices {
			if ch.Delta.Content != "" {
				onDelta(ch.Delta.Content)
			}
		}
	}
}

func (p *OpenAIProvider) ListModels(ctx context.Context) ([]string, error) {
	list, err := p.Inner.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		out = append(out, m.ID)
	}
	return out, nil
}
