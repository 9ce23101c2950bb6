// Package synth turns the extracted key sentences into an abstractive
// summary by streaming a chat completion.
package synth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gosummarize/internal/cache"
	"github.com/hyperifyio/gosummarize/internal/llm"
)

// DefaultSystemPrompt is the directive sent ahead of the key sentences.
const DefaultSystemPrompt = "Please summarize the following text:"

// ErrNoSubstantiveBody indicates the model produced no usable text, or the
// cache was required but empty.
var ErrNoSubstantiveBody = errors.New("no substantive body")

// Input is one summarization request.
type Input struct {
	Model string
	// Sentences are sent joined by single spaces, in the given order.
	Sentences []string
	// LanguageHint, when set, asks the model to answer in that language.
	LanguageHint string
}

// Synthesizer streams a summary from an llm.StreamClient.
type Synthesizer struct {
	Client llm.StreamClient
	Cache  *cache.LLMCache
	// SystemPrompt, when non-empty, overrides DefaultSystemPrompt.
	SystemPrompt string
	MaxTokens    int
	Temperature  float32
	// CacheOnly returns from cache and fails fast if missing.
	CacheOnly bool
}

// Messages returns the system and user messages for in.
func (s *Synthesizer) Messages(in Input) (system, user string) {
	system = DefaultSystemPrompt
	if strings.TrimSpace(s.SystemPrompt) != "" {
		system = s.SystemPrompt
	}
	if in.LanguageHint != "" {
		system += "\nWrite the summary in language: " + in.LanguageHint
	}
	return system, strings.Join(in.Sentences, " ")
}

// Synthesize streams the summary, handing each fragment to onDelta as it
// arrives, and returns the complete text. A failure before the first fragment
// is retried once after a short pause; a failure mid-stream is returned as is
// since the caller has already seen partial output.
func (s *Synthesizer) Synthesize(ctx context.Context, in Input, onDelta func(string)) (string, error) {
	if s.Client == nil && !s.CacheOnly {
		return "", errors.New("synthesizer not configured")
	}
	if strings.TrimSpace(in.Model) == "" {
		return "", errors.New("synthesizer: model is required")
	}
	if len(in.Sentences) == 0 {
		return "", ErrNoSubstantiveBody
	}
	if onDelta == nil {
		onDelta = func(string) {}
	}
	system, user := s.Messages(in)
	key := cache.KeyFrom(in.Model, system+"\n\n"+user)

	if s.Cache != nil {
		if raw, ok, _ := s.Cache.Get(ctx, key); ok {
			var out struct {
				Summary string `json:"summary"`
			}
			if err := json.Unmarshal(raw, &out); err == nil && strings.TrimSpace(out.Summary) != "" {
				log.Debug().Str("key", key).Msg("summary served from cache")
				onDelta(out.Summary)
				return out.Summary, nil
			}
		}
	}
	if s.CacheOnly {
		return "", ErrNoSubstantiveBody
	}

	req := llm.ChatRequest{
		Model:       in.Model,
		System:      system,
		User:        user,
		MaxTokens:   s.MaxTokens,
		Temperature: s.Temperature,
	}
	var sb strings.Builder
	emit := func(d string) {
		sb.WriteString(d)
		onDelta(d)
	}
	err := s.Client.StreamChat(ctx, req, emit)
	if err != nil && sb.Len() == 0 && ctx.Err() == nil {
		log.Warn().Err(err).Msg("summary stream failed; retrying once")
		sleep(ctx, retryDelay)
		err = s.Client.StreamChat(ctx, req, emit)
	}
	if err != nil {
		return sb.String(), fmt.Errorf("synthesize: %w", err)
	}
	out := sb.String()
	if strings.TrimSpace(out) == "" {
		return "", ErrNoSubstantiveBody
	}
	if s.Cache != nil {
		payload, _ := json.Marshal(map[string]string{"summary": out})
		if err := s.Cache.Save(ctx, key, payload); err != nil {
			log.Warn().Err(err).Msg("llm cache save failed")
		}
	}
	return out, nil
}

// retryDelay is a variable so tests can shorten it.
var retryDelay = 100 * time.Millisecond

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
