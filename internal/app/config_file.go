package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/gosummarize/internal/extract"
	"github.com/hyperifyio/gosummarize/internal/llm"
)

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
	URL       string `yaml:"url" json:"url"`
	Input     string `yaml:"input" json:"input"`
	Output    string `yaml:"output" json:"output"`
	OutputPDF string `yaml:"outputPDF" json:"outputPDF"`

	Summary struct {
		Language      string  `yaml:"language" json:"language"`
		Sentences     int     `yaml:"sentences" json:"sentences"`
		Order         string  `yaml:"order" json:"order"`
		Damping       float64 `yaml:"damping" json:"damping"`
		Threshold     float64 `yaml:"threshold" json:"threshold"`
		MaxIterations int     `yaml:"maxIterations" json:"maxIterations"`
		Workers       int     `yaml:"workers" json:"workers"`
	} `yaml:"summary" json:"summary"`

	Extract struct {
		Mode string `yaml:"mode" json:"mode"`
	} `yaml:"extract" json:"extract"`

	LLM struct {
		Provider         string `yaml:"provider" json:"provider"`
		BaseURL          string `yaml:"base" json:"base"`
		Model            string `yaml:"model" json:"model"`
		APIKey           string `yaml:"key" json:"key"`
		MaxTokens        int    `yaml:"maxTokens" json:"maxTokens"`
		SystemPrompt     string `yaml:"systemPrompt" json:"systemPrompt"`
		AnswerInLanguage bool   `yaml:"answerInLanguage" json:"answerInLanguage"`
		CacheOnly        bool   `yaml:"cacheOnly" json:"cacheOnly"`
	} `yaml:"llm" json:"llm"`

	Fetch struct {
		UserAgent    string   `yaml:"userAgent" json:"userAgent"`
		Timeout      Duration `yaml:"timeout" json:"timeout"`
		IgnoreRobots bool     `yaml:"ignoreRobots" json:"ignoreRobots"`
	} `yaml:"fetch" json:"fetch"`

	DryRun  bool `yaml:"dryRun" json:"dryRun"`
	Verbose bool `yaml:"verbose" json:"verbose"`

	Cache struct {
		Dir         string   `yaml:"dir" json:"dir"`
		MaxAge      Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool     `yaml:"clear" json:"clear"`
		StrictPerms bool     `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`
}

// Duration accepts Go duration strings ("90s", "24h") in YAML and JSON.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	return d.parse(s)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return d.parse(s)
}

func (d *Duration) parse(s string) error {
	if strings.TrimSpace(s) == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays every value set in fc onto cfg. It runs before
// environment and flag overrides, so only defaults are replaced in practice.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	setStr := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, v int) {
		if v > 0 {
			*dst = v
		}
	}
	setTrue := func(dst *bool, v bool) {
		if v {
			*dst = true
		}
	}

	setStr(&cfg.URL, fc.URL)
	setStr(&cfg.InputPath, fc.Input)
	setStr(&cfg.OutputPath, fc.Output)
	setStr(&cfg.OutputPDFPath, fc.OutputPDF)

	setStr(&cfg.Language, fc.Summary.Language)
	setInt(&cfg.Sentences, fc.Summary.Sentences)
	setStr(&cfg.Order, fc.Summary.Order)
	if fc.Summary.Damping > 0 {
		cfg.Damping = fc.Summary.Damping
	}
	if fc.Summary.Threshold > 0 {
		cfg.Threshold = fc.Summary.Threshold
	}
	setInt(&cfg.MaxIterations, fc.Summary.MaxIterations)
	setInt(&cfg.Workers, fc.Summary.Workers)
	setStr(&cfg.ExtractMode, fc.Extract.Mode)

	setStr(&cfg.LLMProvider, fc.LLM.Provider)
	setStr(&cfg.LLMBaseURL, fc.LLM.BaseURL)
	setStr(&cfg.LLMModel, fc.LLM.Model)
	setStr(&cfg.LLMAPIKey, fc.LLM.APIKey)
	setInt(&cfg.LLMMaxTokens, fc.LLM.MaxTokens)
	setStr(&cfg.SystemPrompt, fc.LLM.SystemPrompt)
	setTrue(&cfg.AnswerInLanguage, fc.LLM.AnswerInLanguage)
	setTrue(&cfg.LLMCacheOnly, fc.LLM.CacheOnly)

	setStr(&cfg.UserAgent, fc.Fetch.UserAgent)
	if fc.Fetch.Timeout > 0 {
		cfg.FetchTimeout = time.Duration(fc.Fetch.Timeout)
	}

	setTrue(&cfg.IgnoreRobots, fc.Fetch.IgnoreRobots)

	setTrue(&cfg.DryRun, fc.DryRun)
	setTrue(&cfg.Verbose, fc.Verbose)

	setStr(&cfg.CacheDir, fc.Cache.Dir)
	if fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = time.Duration(fc.Cache.MaxAge)
	}
	setTrue(&cfg.CacheClear, fc.Cache.Clear)
	setTrue(&cfg.CacheStrictPerms, fc.Cache.StrictPerms)
}

// ValidateConfig performs schema validation of the merged configuration.
// For dry-run, LLM settings may be omitted.
func ValidateConfig(cfg Config) error {
	url, input := strings.TrimSpace(cfg.URL), strings.TrimSpace(cfg.InputPath)
	if url == "" && input == "" {
		return errors.New("config: a url or an input path is required")
	}
	if url != "" && input != "" {
		return errors.New("config: url and input are mutually exclusive")
	}
	if _, err := cfg.ExtractiveConfig(); err != nil {
		return err
	}
	if _, err := extract.ForMode(extract.Mode(cfg.ExtractMode)); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.CacheMaxAge < 0 || cfg.FetchTimeout < 0 || cfg.LLMMaxTokens < 0 || cfg.Workers < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	if cfg.LLMCacheOnly && strings.TrimSpace(cfg.CacheDir) == "" {
		return errors.New("config: llm cache-only mode needs a cache dir")
	}
	if !cfg.DryRun {
		switch strings.ToLower(strings.TrimSpace(cfg.LLMProvider)) {
		case "", llm.ProviderOpenAI, llm.ProviderAnthropic:
		default:
			return fmt.Errorf("config: %w: %q", llm.ErrUnknownProvider, cfg.LLMProvider)
		}
		if strings.TrimSpace(cfg.LLMModel) == "" {
			return errors.New("config: llm.model is required (or set LLM_MODEL)")
		}
	}
	return nil
}
