package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gosummarize/internal/budget"
	"github.com/hyperifyio/gosummarize/internal/cache"
	"github.com/hyperifyio/gosummarize/internal/extractive"
	"github.com/hyperifyio/gosummarize/internal/fetch"
	"github.com/hyperifyio/gosummarize/internal/llm"
	"github.com/hyperifyio/gosummarize/internal/robots"
	"github.com/hyperifyio/gosummarize/internal/synth"
)

// ErrNoDocument is returned when the source yields no text to summarize.
var ErrNoDocument = errors.New("no document text")

// ErrPromptTooLarge is returned when not even one key sentence fits the
// model's context window.
var ErrPromptTooLarge = errors.New("prompt does not fit the model context")

type App struct {
	cfg       Config
	ecfg      extractive.Config
	client    llm.StreamClient
	fetcher   *fetch.Client
	httpCache *cache.HTTPCache
	llmCache  *cache.LLMCache
	stdout    io.Writer
	stdin     io.Reader
}

// Option customizes an App.
type Option func(*App)

// WithStdout sets where summaries stream to. Defaults to os.Stdout.
func WithStdout(w io.Writer) Option { return func(a *App) { a.stdout = w } }

// WithStdin sets the reader used for "-input -". Defaults to os.Stdin.
func WithStdin(r io.Reader) Option { return func(a *App) { a.stdin = r } }

// WithClient replaces the provider built from the configuration.
func WithClient(c llm.StreamClient) Option { return func(a *App) { a.client = c } }

func New(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	ecfg, err := cfg.ExtractiveConfig()
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, ecfg: ecfg, stdout: os.Stdout, stdin: os.Stdin}
	for _, o := range opts {
		o(a)
	}

	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge)
			if err != nil {
				log.Warn().Err(err).Msg("cache purge failed")
			} else if n > 0 {
				log.Debug().Int("removed", n).Msg("purged stale cache entries")
			}
		}
		a.httpCache = &cache.HTTPCache{Dir: filepath.Join(cfg.CacheDir, "http"), StrictPerms: cfg.CacheStrictPerms}
		a.llmCache = &cache.LLMCache{Dir: filepath.Join(cfg.CacheDir, "llm"), StrictPerms: cfg.CacheStrictPerms}
	}

	a.fetcher = &fetch.Client{
		HTTPClient:        newHTTPClient(0),
		UserAgent:         cfg.UserAgent,
		MaxAttempts:       3,
		PerRequestTimeout: cfg.FetchTimeout,
		Cache:             a.httpCache,
	}
	if !cfg.IgnoreRobots {
		a.fetcher.Robots = &robots.Checker{HTTPClient: newHTTPClient(cfg.FetchTimeout), UserAgent: cfg.UserAgent}
	}

	if cfg.DryRun || a.client != nil {
		return a, nil
	}
	provider, err := llm.New(llm.Options{
		Provider:   cfg.LLMProvider,
		BaseURL:    cfg.LLMBaseURL,
		APIKey:     cfg.LLMAPIKey,
		HTTPClient: newHTTPClient(0),
	})
	if err != nil {
		return nil, err
	}
	if lister, ok := provider.(llm.ModelLister); ok && !cfg.LLMCacheOnly {
		preflight(ctx, lister, cfg.LLMModel)
	}
	a.client = llm.NewBreaker(provider, llm.DefaultBreakerSettings(cfg.LLMProvider))
	return a, nil
}

// preflight lists models as a best-effort connectivity check. Failures only
// warn; synthesis surfaces real errors.
func preflight(ctx context.Context, lister llm.ModelLister, model string) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	models, err := lister.ListModels(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("LLM model list failed; continuing")
		return
	}
	if len(models) == 0 {
		log.Warn().Msg("LLM returned zero models")
		return
	}
	log.Info().Int("count", len(models)).Msg("LLM models available")
	for _, m := range models {
		if m == model {
			return
		}
	}
	log.Warn().Str("model", model).Msg("configured model not listed by the server")
}

func (a *App) Close() {}

// Run loads the document, extracts the key sentences and either prints them
// (dry run) or streams an abstractive summary of them to stdout.
func (a *App) Run(ctx context.Context) error {
	src, err := a.loadSource(ctx)
	if err != nil {
		return err
	}
	text := src.Doc.Prose()
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: %s", ErrNoDocument, src.Name)
	}

	key, err := extractive.Summarize(ctx, text, a.ecfg)
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}
	log.Info().
		Int("sentences", key.Total).
		Int("selected", len(key.Sentences)).
		Int("iterations", key.Iterations).
		Str("order", key.Order.String()).
		Msg("extracted key sentences")

	rep := report{
		Title:      src.Doc.Title,
		Source:     src.Name,
		SourceHash: computeSHA256Hex(text),
		Footer: footerInfo{
			Model:     a.cfg.LLMModel,
			Provider:  a.cfg.LLMProvider,
			BaseURL:   a.cfg.LLMBaseURL,
			Language:  string(a.ecfg.Language),
			Total:     key.Total,
			HTTPCache: a.httpCache != nil,
			LLMCache:  a.llmCache != nil,
			DryRun:    a.cfg.DryRun,
		},
	}

	if a.cfg.DryRun {
		for _, s := range key.Strings() {
			if _, err := fmt.Fprintln(a.stdout, s); err != nil {
				return err
			}
		}
		rep.Key = key
		return a.writeReport(rep)
	}

	syn := &synth.Synthesizer{
		Client:       a.client,
		Cache:        a.llmCache,
		SystemPrompt: a.cfg.SystemPrompt,
		MaxTokens:    a.cfg.LLMMaxTokens,
		CacheOnly:    a.cfg.LLMCacheOnly,
	}
	in := synth.Input{Model: a.cfg.LLMModel}
	if a.cfg.AnswerInLanguage {
		in.LanguageHint = a.ecfg.Language.DisplayName()
	}
	system, _ := syn.Messages(in)
	fit := budget.FitCount(a.cfg.LLMModel, a.cfg.LLMMaxTokens, system, bestFirst(key))
	if fit == 0 {
		return ErrPromptTooLarge
	}
	if fit < len(key.Sentences) {
		log.Warn().Int("kept", fit).Int("selected", len(key.Sentences)).Str("model", a.cfg.LLMModel).Msg("key sentences truncated to fit the model context")
		key = key.Truncate(fit)
	}
	in.Sentences = key.Strings()
	rep.Key = key

	var werr error
	out, err := syn.Synthesize(ctx, in, func(d string) {
		if werr == nil {
			_, werr = io.WriteString(a.stdout, d)
		}
	})
	if werr == nil && out != "" && !strings.HasSuffix(out, "\n") {
		_, werr = io.WriteString(a.stdout, "\n")
	}
	if err != nil {
		return err
	}
	if werr != nil {
		return fmt.Errorf("write summary: %w", werr)
	}
	rep.Summary = out
	return a.writeReport(rep)
}

func (a *App) writeReport(rep report) error {
	if a.cfg.OutputPath == "" && a.cfg.OutputPDFPath == "" {
		return nil
	}
	rep.Footer.Selected = len(rep.Key.Sentences)
	rep.Footer.Iterations = rep.Key.Iterations
	md := rep.Markdown()
	if a.cfg.OutputPath != "" {
		if err := os.WriteFile(a.cfg.OutputPath, []byte(md), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		log.Info().Str("out", a.cfg.OutputPath).Msg("wrote output")
		data, err := marshalManifestJSON(rep.manifestMeta(), buildManifestEntries(rep.Key))
		if err == nil {
			err = os.WriteFile(deriveManifestSidecarPath(a.cfg.OutputPath), data, 0o644)
		}
		if err != nil {
			log.Warn().Err(err).Msg("manifest sidecar not written")
		}
	}
	if a.cfg.OutputPDFPath != "" {
		if err := writeSimplePDF(md, a.cfg.OutputPDFPath); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		log.Info().Str("out", a.cfg.OutputPDFPath).Msg("wrote pdf")
	}
	return nil
}

// bestFirst returns the selected sentence texts ordered by descending score,
// ties by document position.
func bestFirst(s extractive.Summary) []string {
	rs := append([]extractive.Ranked(nil), s.Sentences...)
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Score != rs[j].Score {
			return rs[i].Score > rs[j].Score
		}
		return rs[i].Index < rs[j].Index
	})
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Text
	}
	return out
}
