package synth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"github.com/hyperifyio/gosummarize/internal/cache"
	"github.com/hyperifyio/gosummarize/internal/llm"
)

type scriptedClient struct {
	calls   int
	lastReq llm.ChatRequest
	// fail[i] is returned by call i after emitting partial[i].
	fail    []error
	partial [][]string
	deltas  []string
}

func (c *scriptedClient) StreamChat(ctx context.Context, req llm.ChatRequest, onDelta func(string)) error {
	i := c.calls
	c.calls++
	c.lastReq = req
	if i < len(c.fail) && c.fail[i] != nil {
		if i < len(c.partial) {
			for _, d := range c.partial[i] {
				onDelta(d)
			}
		}
		return c.fail[i]
	}
	for _, d := range c.deltas {
		onDelta(d)
	}
	return nil
}

func init() { retryDelay = 0 }

func TestSynthesize_BuildsRequestAndStreams(t *testing.T) {
	c := &scriptedClient{deltas: []string{"Solar ", "is ", "cheap."}}
	s := &Synthesizer{Client: c, MaxTokens: 256}
	var seen []string
	out, err := s.Synthesize(context.Background(), Input{
		Model:     "m",
		Sentences: []string{"Solar panels are cheap.", "Batteries store energy."},
	}, func(d string) { seen = append(seen, d) })
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if out != "Solar is cheap." {
		t.Fatalf("unexpected output %q", out)
	}
	if diff := cmp.Diff([]string{"Solar ", "is ", "cheap."}, seen); diff != "" {
		t.Fatalf("deltas mismatch:\n%s", diff)
	}
	want := llm.ChatRequest{
		Model:     "m",
		System:    DefaultSystemPrompt,
		User:      "Solar panels are cheap. Batteries store energy.",
		MaxTokens: 256,
	}
	if diff := cmp.Diff(want, c.lastReq); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestSynthesize_LanguageHintAndOverride(t *testing.T) {
	c := &scriptedClient{deltas: []string{"ok"}}
	s := &Synthesizer{Client: c, SystemPrompt: "Summarize briefly."}
	if _, err := s.Synthesize(context.Background(), Input{Model: "m", Sentences: []string{"A."}, LanguageHint: "German"}, nil); err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if c.lastReq.System != "Summarize briefly.\nWrite the summary in language: German" {
		t.Fatalf("unexpected system message %q", c.lastReq.System)
	}
}

func TestSynthesize_RetriesOnceBeforeFirstDelta(t *testing.T) {
	c := &scriptedClient{fail: []error{errors.New("503")}, deltas: []string{"done"}}
	s := &Synthesizer{Client: c}
	out, err := s.Synthesize(context.Background(), Input{Model: "m", Sentences: []string{"A."}}, nil)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if out != "done" || c.calls != 2 {
		t.Fatalf("out=%q calls=%d", out, c.calls)
	}
}

func TestSynthesize_RejectedRequestIsNotRepeated(t *testing.T) {
	rejected := &openai.APIError{HTTPStatusCode: 401, Message: "invalid api key"}
	c := &scriptedClient{fail: []error{rejected, rejected}, deltas: []string{"never"}}
	s := &Synthesizer{Client: llm.NewBreaker(c, llm.DefaultBreakerSettings("test"))}
	_, err := s.Synthesize(context.Background(), Input{Model: "m", Sentences: []string{"A."}}, nil)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected the retry to be refused by the breaker, got %v", err)
	}
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) || apiErr.HTTPStatusCode != 401 {
		t.Fatalf("error should keep the provider cause, got %v", err)
	}
	if c.calls != 1 {
		t.Fatalf("provider called %d times, want 1", c.calls)
	}
}

func TestSynthesize_TransientFailureStillRetriesThroughBreaker(t *testing.T) {
	c := &scriptedClient{fail: []error{&openai.APIError{HTTPStatusCode: 503}}, deltas: []string{"done"}}
	s := &Synthesizer{Client: llm.NewBreaker(c, llm.DefaultBreakerSettings("test"))}
	out, err := s.Synthesize(context.Background(), Input{Model: "m", Sentences: []string{"A."}}, nil)
	if err != nil || out != "done" || c.calls != 2 {
		t.Fatalf("out=%q calls=%d err=%v", out, c.calls, err)
	}
}

func TestSynthesize_NoRetryAfterPartialOutput(t *testing.T) {
	c := &scriptedClient{fail: []error{errors.New("reset")}, partial: [][]string{{"Sol"}}, deltas: []string{"never"}}
	s := &Synthesizer{Client: c}
	out, err := s.Synthesize(context.Background(), Input{Model: "m", Sentences: []string{"A."}}, nil)
	if err == nil || !strings.Contains(err.Error(), "reset") {
		t.Fatalf("expected stream error, got %v", err)
	}
	if out != "Sol" || c.calls != 1 {
		t.Fatalf("out=%q calls=%d", out, c.calls)
	}
}

func TestSynthesize_EmptyResponse(t *testing.T) {
	s := &Synthesizer{Client: &scriptedClient{deltas: []string{"  ", "\n"}}}
	_, err := s.Synthesize(context.Background(), Input{Model: "m", Sentences: []string{"A."}}, nil)
	if !errors.Is(err, ErrNoSubstantiveBody) {
		t.Fatalf("expected ErrNoSubstantiveBody, got %v", err)
	}
	_, err = s.Synthesize(context.Background(), Input{Model: "m"}, nil)
	if !errors.Is(err, ErrNoSubstantiveBody) {
		t.Fatalf("no sentences: expected ErrNoSubstantiveBody, got %v", err)
	}
}

func TestSynthesize_CacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := &scriptedClient{deltas: []string{"cached ", "summary"}}
	s := &Synthesizer{Client: c, Cache: &cache.LLMCache{Dir: dir}}
	in := Input{Model: "m", Sentences: []string{"A.", "B."}}
	if _, err := s.Synthesize(context.Background(), in, nil); err != nil {
		t.Fatalf("first: %v", err)
	}
	var replay []string
	out, err := s.Synthesize(context.Background(), in, func(d string) { replay = append(replay, d) })
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if c.calls != 1 {
		t.Fatalf("second call should hit the cache, calls=%d", c.calls)
	}
	if out != "cached summary" || len(replay) != 1 || replay[0] != "cached summary" {
		t.Fatalf("unexpected replay %q %v", out, replay)
	}

	offline := &Synthesizer{Cache: &cache.LLMCache{Dir: dir}, CacheOnly: true}
	if out, err := offline.Synthesize(context.Background(), in, nil); err != nil || out != "cached summary" {
		t.Fatalf("cache-only hit: %q %v", out, err)
	}
	if _, err := offline.Synthesize(context.Background(), Input{Model: "m", Sentences: []string{"C."}}, nil); !errors.Is(err, ErrNoSubstantiveBody) {
		t.Fatalf("cache-only miss: expected ErrNoSubstantiveBody, got %v", err)
	}
}

func TestSynthesize_RequiresModel(t *testing.T) {
	s := &Synthesizer{Client: &scriptedClient{}}
	if _, err := s.Synthesize(context.Background(), Input{Sentences: []string{"A."}}, nil); err == nil {
		t.Fatal("expected error without model")
	}
}
