package app

import (
	"fmt"
	"time"

	"github.com/hyperifyio/gosummarize/internal/extract"
	"github.com/hyperifyio/gosummarize/internal/extractive"
	"github.com/hyperifyio/gosummarize/internal/lang"
	"github.com/hyperifyio/gosummarize/internal/rank"
	selecter "github.com/hyperifyio/gosummarize/internal/select"
)

// Config holds runtime configuration for the application.
type Config struct {
	// Source: exactly one of URL or InputPath ("-" reads stdin).
	URL       string
	InputPath string

	OutputPath    string
	OutputPDFPath string

	// Extractive stage
	Language      string
	Sentences     int
	Order         string
	Damping       float64
	Threshold     float64
	MaxIterations int
	ExtractMode   string
	Workers       int

	// LLM
	LLMProvider  string
	LLMBaseURL   string
	LLMModel     string
	LLMAPIKey    string
	LLMMaxTokens int
	SystemPrompt string
	// AnswerInLanguage asks the model to reply in the document language.
	AnswerInLanguage bool

	// Fetch
	UserAgent    string
	FetchTimeout time.Duration
	// IgnoreRobots skips the robots.txt check before fetching a URL.
	IgnoreRobots bool

	// Behavior
	DryRun           bool
	Verbose          bool
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool
	LLMCacheOnly     bool
}

// Defaults used by DefaultConfig and the CLI flags.
const (
	DefaultUserAgent    = "gosummarize/1.0 (+https://github.com/hyperifyio/gosummarize)"
	DefaultLLMMaxTokens = 1024
	DefaultFetchTimeout = 15 * time.Second
)

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Language:      string(lang.English),
		Sentences:     extractive.DefaultSentenceCount,
		Order:         selecter.OrderRank.String(),
		Damping:       rank.DefaultDamping,
		Threshold:     rank.DefaultThreshold,
		MaxIterations: rank.DefaultMaxIterations,
		ExtractMode:   string(extract.ModeParagraphs),
		LLMProvider:   "openai",
		LLMMaxTokens:  DefaultLLMMaxTokens,
		UserAgent:     DefaultUserAgent,
		FetchTimeout:  DefaultFetchTimeout,
	}
}

// ExtractiveConfig converts the flat settings into the ranking pipeline's
// configuration.
func (c Config) ExtractiveConfig() (extractive.Config, error) {
	l, err := lang.Parse(c.Language)
	if err != nil {
		return extractive.Config{}, err
	}
	order, err := selecter.ParseOrder(c.Order)
	if err != nil {
		return extractive.Config{}, err
	}
	ec := extractive.Config{
		Language:      l,
		SentenceCount: c.Sentences,
		Damping:       c.Damping,
		Threshold:     c.Threshold,
		MaxIterations: c.MaxIterations,
		Order:         order,
		Workers:       c.Workers,
	}
	if err := ec.Validate(); err != nil {
		return extractive.Config{}, fmt.Errorf("config: %w", err)
	}
	return ec, nil
}
