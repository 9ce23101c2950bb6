// Package extractive wires the TextRank stages together: normalize the
// document, build the similarity graph, rank it and select the best
// sentences.
package extractive

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperifyio/gosummarize/internal/lang"
	"github.com/hyperifyio/gosummarize/internal/normalize"
	"github.com/hyperifyio/gosummarize/internal/rank"
	selecter "github.com/hyperifyio/gosummarize/internal/select"
	"github.com/hyperifyio/gosummarize/internal/similarity"
)

// DefaultSentenceCount is the number of sentences extracted when the caller
// does not ask for a specific count.
const DefaultSentenceCount = 30

var (
	// ErrEmptyInput means the document contained no sentences.
	ErrEmptyInput = rank.ErrEmptyInput
	// ErrNoConvergence means the ranking hit its iteration cap.
	ErrNoConvergence = rank.ErrNoConvergence
)

// Ranked is a selected sentence together with its TextRank score.
type Ranked = selecter.Ranked

// Config is the full set of parameters of one summarization run.
type Config struct {
	Language      lang.Language
	SentenceCount int
	Damping       float64
	Threshold     float64
	MaxIterations int
	Order         selecter.Order
	// Workers bounds parallelism of the similarity build; zero means GOMAXPROCS.
	Workers int
}

// DefaultConfig returns English, 30 sentences, damping 0.85, threshold 0.001,
// at most 1000 iterations, rank order.
func DefaultConfig() Config {
	return Config{
		Language:      lang.English,
		SentenceCount: DefaultSentenceCount,
		Damping:       rank.DefaultDamping,
		Threshold:     rank.DefaultThreshold,
		MaxIterations: rank.DefaultMaxIterations,
		Order:         selecter.OrderRank,
	}
}

func (c Config) rankOptions() rank.Options {
	return rank.Options{Damping: c.Damping, Threshold: c.Threshold, MaxIterations: c.MaxIterations}
}

// Validate reports the first invalid parameter.
func (c Config) Validate() error {
	if !c.Language.Valid() {
		return fmt.Errorf("unsupported language %q", string(c.Language))
	}
	if c.SentenceCount <= 0 {
		return fmt.Errorf("sentence count must be positive, got %d", c.SentenceCount)
	}
	return c.rankOptions().Validate()
}

// Summary is the outcome of a run.
type Summary struct {
	// Sentences are the selected sentences in the configured order.
	Sentences []Ranked
	// Total is the number of sentences found in the document.
	Total int
	// Iterations is the number of power iteration steps taken.
	Iterations int
	Order      selecter.Order
}

// Strings returns the selected sentence texts.
func (s Summary) Strings() []string {
	out := make([]string, len(s.Sentences))
	for i, r := range s.Sentences {
		out[i] = r.Text
	}
	return out
}

// Text joins the selected sentences with single spaces.
func (s Summary) Text() string {
	return strings.Join(s.Strings(), " ")
}

// Truncate returns a copy of s holding only the n highest-scored sentences,
// keeping their current relative order.
func (s Summary) Truncate(n int) Summary {
	if n < 0 {
		n = 0
	}
	if n >= len(s.Sentences) {
		return s
	}
	keep := make([]Ranked, len(s.Sentences))
	copy(keep, s.Sentences)
	best, _ := selecter.Select(sentencesOf(keep), scoresOf(keep), selecter.Options{Count: n})
	allowed := make(map[int]struct{}, n)
	for _, b := range best {
		allowed[b.Index] = struct{}{}
	}
	out := s
	out.Sentences = make([]Ranked, 0, n)
	for _, r := range keep {
		if _, ok := allowed[r.Index]; ok {
			out.Sentences = append(out.Sentences, r)
		}
	}
	return out
}

func sentencesOf(rs []Ranked) []normalize.Sentence {
	out := make([]normalize.Sentence, len(rs))
	for i, r := range rs {
		out[i] = r.Sentence
	}
	return out
}

func scoresOf(rs []Ranked) []float64 {
	out := make([]float64, len(rs))
	for i, r := range rs {
		out[i] = r.Score
	}
	return out
}

// Summarize runs the whole pipeline over text.
func Summarize(ctx context.Context, text string, cfg Config) (Summary, error) {
	if err := cfg.Validate(); err != nil {
		return Summary{}, fmt.Errorf("config: %w", err)
	}
	n, err := normalize.New(cfg.Language)
	if err != nil {
		return Summary{}, err
	}
	return SummarizeSentences(ctx, n.Sentences(text), cfg)
}

// SummarizeSentences runs the pipeline over already normalized sentences.
func SummarizeSentences(ctx context.Context, sentences []normalize.Sentence, cfg Config) (Summary, error) {
	if err := cfg.Validate(); err != nil {
		return Summary{}, fmt.Errorf("config: %w", err)
	}
	if len(sentences) == 0 {
		return Summary{}, ErrEmptyInput
	}
	m, err := similarity.Build(ctx, normalize.TokenLists(sentences), similarity.Options{Workers: cfg.Workers})
	if err != nil {
		return Summary{}, fmt.Errorf("similarity: %w", err)
	}
	res, err := rank.Iterate(m, cfg.rankOptions())
	if err != nil {
		if errors.Is(err, ErrEmptyInput) {
			return Summary{}, err
		}
		return Summary{}, fmt.Errorf("rank: %w", err)
	}
	selected, err := selecter.Select(sentences, res.Vector, selecter.Options{Count: cfg.SentenceCount, Order: cfg.Order})
	if err != nil {
		return Summary{}, fmt.Errorf("select: %w", err)
	}
	return Summary{
		Sentences:  selected,
		Total:      len(sentences),
		Iterations: res.Iterations,
		Order:      cfg.Order,
	}, nil
}
