package app

import (
	"flag"
)

// flagBinding ties a flag name to the Config field it sets.
type flagBinding struct {
	name string
	copy func(dst *Config, src Config)
}

// RegisterFlags defines the CLI flags on fs, writing into c. Defaults are
// taken from c.
func RegisterFlags(fs *flag.FlagSet, c *Config) {
	fs.StringVar(&c.URL, "url", c.URL, "URL of the page to summarize")
	fs.StringVar(&c.InputPath, "input", c.InputPath, "Path to a text or HTML file to summarize ('-' reads stdin)")
	fs.StringVar(&c.OutputPath, "output", c.OutputPath, "Optional path to write a Markdown report")
	fs.StringVar(&c.OutputPDFPath, "output.pdf", c.OutputPDFPath, "Optional path to write the report as PDF")
	fs.StringVar(&c.Language, "lang", c.Language, "Document language for stop words and stemming (e.g. en, de, french)")
	fs.IntVar(&c.Sentences, "sentences", c.Sentences, "Number of key sentences to extract")
	fs.StringVar(&c.Order, "order", c.Order, "Order of extracted sentences: rank or document")
	fs.Float64Var(&c.Damping, "damping", c.Damping, "TextRank damping factor in (0,1)")
	fs.Float64Var(&c.Threshold, "threshold", c.Threshold, "Convergence threshold on the largest score change")
	fs.IntVar(&c.MaxIterations, "max.iterations", c.MaxIterations, "Maximum power iteration steps")
	fs.IntVar(&c.Workers, "workers", c.Workers, "Similarity workers (0 uses GOMAXPROCS)")
	fs.StringVar(&c.ExtractMode, "extract.mode", c.ExtractMode, "HTML extraction: paragraphs, main or readability")
	fs.StringVar(&c.LLMProvider, "llm.provider", c.LLMProvider, "LLM provider: openai or anthropic")
	fs.StringVar(&c.LLMBaseURL, "llm.base", c.LLMBaseURL, "LLM base URL (OpenAI-compatible servers included)")
	fs.StringVar(&c.LLMModel, "llm.model", c.LLMModel, "Model name")
	fs.StringVar(&c.LLMAPIKey, "llm.key", c.LLMAPIKey, "LLM API key")
	fs.IntVar(&c.LLMMaxTokens, "llm.maxTokens", c.LLMMaxTokens, "Maximum tokens of the generated summary")
	fs.StringVar(&c.SystemPrompt, "llm.systemPrompt", c.SystemPrompt, "Override the summarization directive")
	fs.BoolVar(&c.AnswerInLanguage, "llm.answerInLanguage", c.AnswerInLanguage, "Ask the model to answer in the document language")
	fs.BoolVar(&c.LLMCacheOnly, "llm.cacheOnly", c.LLMCacheOnly, "Serve the summary from the LLM cache only")
	fs.StringVar(&c.UserAgent, "fetch.ua", c.UserAgent, "User-Agent for page fetches")
	fs.DurationVar(&c.FetchTimeout, "fetch.timeout", c.FetchTimeout, "Per-request fetch timeout")
	fs.BoolVar(&c.IgnoreRobots, "fetch.ignoreRobots", c.IgnoreRobots, "Fetch the URL even when robots.txt disallows it")
	fs.StringVar(&c.CacheDir, "cache.dir", c.CacheDir, "Cache directory path (empty disables caching)")
	fs.DurationVar(&c.CacheMaxAge, "cache.maxAge", c.CacheMaxAge, "Max age for cache entries before purge (e.g. 24h); 0 disables")
	fs.BoolVar(&c.CacheClear, "cache.clear", c.CacheClear, "Clear cache directory before run")
	fs.BoolVar(&c.CacheStrictPerms, "cache.strictPerms", c.CacheStrictPerms, "Restrict cache permissions (0700 dirs, 0600 files)")
	fs.BoolVar(&c.DryRun, "dry-run", c.DryRun, "Print the extracted sentences without calling the model")
	fs.BoolVar(&c.Verbose, "v", c.Verbose, "Verbose logging")
}

var flagBindings = []flagBinding{
	{"url", func(d *Config, s Config) { d.URL = s.URL }},
	{"input", func(d *Config, s Config) { d.InputPath = s.InputPath }},
	{"output", func(d *Config, s Config) { d.OutputPath = s.OutputPath }},
	{"output.pdf", func(d *Config, s Config) { d.OutputPDFPath = s.OutputPDFPath }},
	{"lang", func(d *Config, s Config) { d.Language = s.Language }},
	{"sentences", func(d *Config, s Config) { d.Sentences = s.Sentences }},
	{"order", func(d *Config, s Config) { d.Order = s.Order }},
	{"damping", func(d *Config, s Config) { d.Damping = s.Damping }},
	{"threshold", func(d *Config, s Config) { d.Threshold = s.Threshold }},
	{"max.iterations", func(d *Config, s Config) { d.MaxIterations = s.MaxIterations }},
	{"workers", func(d *Config, s Config) { d.Workers = s.Workers }},
	{"extract.mode", func(d *Config, s Config) { d.ExtractMode = s.ExtractMode }},
	{"llm.provider", func(d *Config, s Config) { d.LLMProvider = s.LLMProvider }},
	{"llm.base", func(d *Config, s Config) { d.LLMBaseURL = s.LLMBaseURL }},
	{"llm.model", func(d *Config, s Config) { d.LLMModel = s.LLMModel }},
	{"llm.key", func(d *Config, s Config) { d.LLMAPIKey = s.LLMAPIKey }},
	{"llm.maxTokens", func(d *Config, s Config) { d.LLMMaxTokens = s.LLMMaxTokens }},
	{"llm.systemPrompt", func(d *Config, s Config) { d.SystemPrompt = s.SystemPrompt }},
	{"llm.answerInLanguage", func(d *Config, s Config) { d.AnswerInLanguage = s.AnswerInLanguage }},
	{"llm.cacheOnly", func(d *Config, s Config) { d.LLMCacheOnly = s.LLMCacheOnly }},
	{"fetch.ua", func(d *Config, s Config) { d.UserAgent = s.UserAgent }},
	{"fetch.timeout", func(d *Config, s Config) { d.FetchTimeout = s.FetchTimeout }},
	{"fetch.ignoreRobots", func(d *Config, s Config) { d.IgnoreRobots = s.IgnoreRobots }},
	{"cache.dir", func(d *Config, s Config) { d.CacheDir = s.CacheDir }},
	{"cache.maxAge", func(d *Config, s Config) { d.CacheMaxAge = s.CacheMaxAge }},
	{"cache.clear", func(d *Config, s Config) { d.CacheClear = s.CacheClear }},
	{"cache.strictPerms", func(d *Config, s Config) { d.CacheStrictPerms = s.CacheStrictPerms }},
	{"dry-run", func(d *Config, s Config) { d.DryRun = s.DryRun }},
	{"v", func(d *Config, s Config) { d.Verbose = s.Verbose }},
}

// ApplyFlags copies into dst the fields of src whose flags were set on the
// command line, giving explicit flags the highest precedence.
func ApplyFlags(dst *Config, src Config, fs *flag.FlagSet) {
	if dst == nil || fs == nil {
		return
	}
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	for _, b := range flagBindings {
		if set[b.name] {
			b.copy(dst, src)
		}
	}
}

// Resolve merges defaults, an optional config file, the environment and the
// flags set on fs (whose values live in flagged) into the final Config.
func Resolve(fs *flag.FlagSet, flagged Config, configPath string) (Config, error) {
	cfg := DefaultConfig()
	if configPath != "" {
		fc, err := LoadConfigFile(configPath)
		if err != nil {
			return Config{}, err
		}
		ApplyFileConfig(&cfg, fc)
	}
	ApplyEnvOverrides(&cfg)
	ApplyFlags(&cfg, flagged, fs)
	return cfg, nil
}
