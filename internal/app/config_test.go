package app

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// clearEnv blanks every variable ApplyEnvOverrides reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SUMMARY_URL", "LLM_PROVIDER", "LLM_BASE_URL", "LLM_MODEL", "LLM_API_KEY", "LLM_MAX_TOKENS",
		"LLM_SYSTEM_PROMPT", "SUMMARY_LANGUAGE", "SUMMARY_SENTENCES", "SUMMARY_ORDER", "SUMMARY_DAMPING",
		"SUMMARY_THRESHOLD", "SUMMARY_MAX_ITERATIONS", "EXTRACT_MODE", "FETCH_USER_AGENT", "FETCH_TIMEOUT",
		"CACHE_DIR", "CACHE_MAX_AGE", "CACHE_CLEAR", "CACHE_STRICT_PERMS", "LLM_CACHE_ONLY", "DRY_RUN", "VERBOSE",
		"FETCH_IGNORE_ROBOTS", "CONF__URL", "CONF__EXTRACT_SENTENCES", "CONF__GPT__API_KEY", "CONF__GPT__API_URL",
	} {
		t.Setenv(k, "")
	}
}

func parseFlags(t *testing.T, args ...string) (*flag.FlagSet, Config) {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fl := DefaultConfig()
	RegisterFlags(fs, &fl)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return fs, fl
}

func TestResolve_Precedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "gosummarize.yaml")
	yml := `
url: https://example.com/file
summary:
  sentences: 10
  order: document
  language: de
llm:
  model: file-model
  provider: anthropic
cache:
  maxAge: 24h
fetch:
  timeout: 3s
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LLM_MODEL", "env-model")
	t.Setenv("SUMMARY_ORDER", "rank")

	fs, fl := parseFlags(t, "-sentences", "5", "-url", "https://example.com/flag")
	cfg, err := Resolve(fs, fl, path)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := DefaultConfig()
	want.URL = "https://example.com/flag"
	want.Sentences = 5
	want.Order = "rank"
	want.Language = "de"
	want.LLMModel = "env-model"
	want.LLMProvider = "anthropic"
	want.CacheMaxAge = 24 * time.Hour
	want.FetchTimeout = 3 * time.Second
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("resolved config mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_UnsetFlagsDoNotOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("SUMMARY_SENTENCES", "12")
	fs, fl := parseFlags(t, "-dry-run")
	cfg, err := Resolve(fs, fl, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Sentences != 12 || !cfg.DryRun {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadConfigFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.json")
	if err := os.WriteFile(path, []byte(`{"input":"doc.txt","summary":{"damping":0.9},"cache":{"dir":"/tmp/c","maxAge":"1h"}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	fc, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := DefaultConfig()
	ApplyFileConfig(&cfg, fc)
	if cfg.InputPath != "doc.txt" || cfg.Damping != 0.9 || cfg.CacheDir != "/tmp/c" || cfg.CacheMaxAge != time.Hour {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadConfigFile_BadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(path, []byte("cache:\n  maxAge: soon\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigFile(path); err == nil {
		t.Fatal("expected duration parse error")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DRY_RUN", "yes")
	t.Setenv("SUMMARY_SENTENCES", "not-a-number")
	t.Setenv("SUMMARY_DAMPING", "0.7")
	t.Setenv("CACHE_MAX_AGE", "2h")
	t.Setenv("EXTRACT_MODE", "readability")
	cfg := DefaultConfig()
	ApplyEnvOverrides(&cfg)
	if !cfg.DryRun || cfg.Damping != 0.7 || cfg.CacheMaxAge != 2*time.Hour || cfg.ExtractMode != "readability" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Sentences != DefaultConfig().Sentences {
		t.Fatalf("invalid integer should be ignored, got %d", cfg.Sentences)
	}
	t.Setenv("DRY_RUN", "off")
	ApplyEnvOverrides(&cfg)
	if cfg.DryRun {
		t.Fatal("DRY_RUN=off should disable dry run")
	}
}

func TestApplyEnvOverrides_LegacyNames(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONF__URL", "https://example.org/a")
	t.Setenv("CONF__EXTRACT_SENTENCES", "12")
	t.Setenv("CONF__GPT__API_KEY", "sk-legacy")
	t.Setenv("CONF__GPT__API_URL", "http://localhost:8080/v1")
	cfg := DefaultConfig()
	ApplyEnvOverrides(&cfg)
	if cfg.URL != "https://example.org/a" || cfg.Sentences != 12 || cfg.LLMAPIKey != "sk-legacy" || cfg.LLMBaseURL != "http://localhost:8080/v1" {
		t.Fatalf("legacy names not applied: %+v", cfg)
	}

	t.Setenv("SUMMARY_URL", "https://example.org/b")
	t.Setenv("LLM_API_KEY", "sk-current")
	cfg = DefaultConfig()
	ApplyEnvOverrides(&cfg)
	if cfg.URL != "https://example.org/b" || cfg.LLMAPIKey != "sk-current" {
		t.Fatalf("current names must win over legacy ones: url=%q key=%q", cfg.URL, cfg.LLMAPIKey)
	}
}

func TestValidateConfig(t *testing.T) {
	base := DefaultConfig()
	base.InputPath = "doc.txt"
	base.LLMModel = "m"
	if err := ValidateConfig(base); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	bad := map[string]func(*Config){
		"no source":      func(c *Config) { c.InputPath = "" },
		"two sources":    func(c *Config) { c.URL = "https://example.com" },
		"no model":       func(c *Config) { c.LLMModel = "" },
		"provider":       func(c *Config) { c.LLMProvider = "bard" },
		"language":       func(c *Config) { c.Language = "klingon" },
		"order":          func(c *Config) { c.Order = "random" },
		"sentences":      func(c *Config) { c.Sentences = 0 },
		"damping":        func(c *Config) { c.Damping = 1 },
		"threshold":      func(c *Config) { c.Threshold = 0 },
		"iterations":     func(c *Config) { c.MaxIterations = 0 },
		"extract mode":   func(c *Config) { c.ExtractMode = "pdf" },
		"cache only":     func(c *Config) { c.LLMCacheOnly = true },
		"negative limit": func(c *Config) { c.Workers = -1 },
	}
	for name, mut := range bad {
		c := base
		mut(&c)
		if err := ValidateConfig(c); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
	dry := base
	dry.DryRun = true
	dry.LLMModel = ""
	dry.LLMProvider = "whatever"
	if err := ValidateConfig(dry); err != nil {
		t.Fatalf("dry run should not need llm settings: %v", err)
	}
}

func TestLoadEnvFiles(t *testing.T) {
	t.Setenv("GOSUMMARIZE_TEST_A", "")
	t.Setenv("GOSUMMARIZE_TEST_B", "process")
	t.Setenv("GOSUMMARIZE_TEST_C", "")
	dir := t.TempDir()
	first := filepath.Join(dir, ".env")
	second := filepath.Join(dir, ".env.local")
	if err := os.WriteFile(first, []byte("# sample\nGOSUMMARIZE_TEST_A=alpha\nGOSUMMARIZE_TEST_B=file\nGOSUMMARIZE_TEST_C=one\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(second, []byte("GOSUMMARIZE_TEST_C=\"two\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := LoadEnvFiles(first, filepath.Join(dir, "missing.env"), second, ""); err != nil {
		t.Fatalf("load: %v", err)
	}
	got := []string{os.Getenv("GOSUMMARIZE_TEST_A"), os.Getenv("GOSUMMARIZE_TEST_B"), os.Getenv("GOSUMMARIZE_TEST_C")}
	if diff := cmp.Diff([]string{"alpha", "process", "two"}, got); diff != "" {
		t.Fatalf("env mismatch (-want +got):\n%s", diff)
	}
}
