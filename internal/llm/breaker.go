package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
)

// BreakerSettings tune the circuit breaker guarding a provider.
type BreakerSettings struct {
	Name string
	// MaxRequests is the number of trial calls allowed while half-open.
	MaxRequests uint32
	// Interval clears the closed-state counts; zero never clears them.
	Interval time.Duration
	// Timeout is how long the breaker stays open before going half-open.
	Timeout time.Duration
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
}

// DefaultBreakerSettings trips after 3 consecutive failures, or on the first
// permanent one, and retries after 30 seconds.
func DefaultBreakerSettings(name string) BreakerSettings {
	return BreakerSettings{
		Name:                name,
		MaxRequests:         1,
		Interval:            60 * time.Second,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 3,
	}
}

// Breaker guards a StreamClient with a circuit breaker. While open, calls
// fail fast with gobreaker.ErrOpenState. It trips after the configured number
// of consecutive failures, or at once on a failure that repeating cannot fix
// (see IsPermanent). Context cancellation is not counted as a failure.
type Breaker struct {
	Inner StreamClient
	cb    *gobreaker.CircuitBreaker

	mu        sync.Mutex
	permanent error
}

// NewBreaker wraps inner.
func NewBreaker(inner StreamClient, s BreakerSettings) *Breaker {
	threshold := s.ConsecutiveFailures
	if threshold == 0 {
		threshold = 1
	}
	b := &Breaker{Inner: inner}
	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= threshold || b.lastPermanent() != nil
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("llm circuit breaker state changed")
		},
	})
	return b
}

// State reports the current breaker state.
func (b *Breaker) State() gobreaker.State { return b.cb.State() }

func (b *Breaker) StreamChat(ctx context.Context, req ChatRequest, onDelta func(string)) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		err := b.Inner.StreamChat(ctx, req, onDelta)
		b.mu.Lock()
		if IsPermanent(err) {
			b.permanent = err
		} else {
			b.permanent = nil
		}
		b.mu.Unlock()
		return nil, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		if cause := b.lastPermanent(); cause != nil {
			return fmt.Errorf("%w: %w", err, cause)
		}
	}
	return err
}

func (b *Breaker) lastPermanent() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.permanent
}

// IsPermanent reports whether err is a provider rejection that will not go
// away on retry: bad request, authentication, permission, unknown model or
// unprocessable input.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	code := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	var antErr *anthropic.Error
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		code = reqErr.HTTPStatusCode
	case errors.As(err, &antErr):
		code = antErr.StatusCode
	}
	switch code {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden,
		http.StatusNotFound, http.StatusUnprocessableEntity:
		return true
	}
	return false
}

// ListModels forwards to the wrapped client when it supports listing.
func (b *Breaker) ListModels(ctx context.Context) ([]string, error) {
	if l, ok := b.Inner.(ModelLister); ok {
		return l.ListModels(ctx)
	}
	return nil, nil
}
