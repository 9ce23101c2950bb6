package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ApplyEnvOverrides overrides cfg fields with environment variables when
// they are set. It runs after ApplyFileConfig so env takes precedence over
// the config file while flags remain highest precedence. Malformed numeric
// values are ignored with a warning.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	setStr := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, key string) {
		s := strings.TrimSpace(os.Getenv(key))
		if s == "" {
			return
		}
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			log.Warn().Str("env", key).Str("value", s).Msg("ignoring invalid integer")
			return
		}
		*dst = n
	}
	setFloat := func(dst *float64, key string) {
		s := strings.TrimSpace(os.Getenv(key))
		if s == "" {
			return
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			log.Warn().Str("env", key).Str("value", s).Msg("ignoring invalid number")
			return
		}
		*dst = f
	}
	setDuration := func(dst *time.Duration, key string) {
		s := strings.TrimSpace(os.Getenv(key))
		if s == "" {
			return
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			log.Warn().Str("env", key).Str("value", s).Msg("ignoring invalid duration")
			return
		}
		*dst = d
	}
	// Booleans override when env present and truthy/falsey
	setBool := func(dst *bool, key string) {
		switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
		case "1", "true", "yes", "on":
			*dst = true
		case "0", "false", "no", "off":
			*dst = false
		}
	}

	// CONF__ names from earlier releases are read first so the current names win.
	setStr(&cfg.URL, "CONF__URL")
	setInt(&cfg.Sentences, "CONF__EXTRACT_SENTENCES")
	setStr(&cfg.LLMAPIKey, "CONF__GPT__API_KEY")
	setStr(&cfg.LLMBaseURL, "CONF__GPT__API_URL")

	setStr(&cfg.URL, "SUMMARY_URL")
	setStr(&cfg.LLMProvider, "LLM_PROVIDER")
	setStr(&cfg.LLMBaseURL, "LLM_BASE_URL")
	setStr(&cfg.LLMModel, "LLM_MODEL")
	setStr(&cfg.LLMAPIKey, "LLM_API_KEY")
	setInt(&cfg.LLMMaxTokens, "LLM_MAX_TOKENS")
	setStr(&cfg.SystemPrompt, "LLM_SYSTEM_PROMPT")

	setStr(&cfg.Language, "SUMMARY_LANGUAGE")
	setInt(&cfg.Sentences, "SUMMARY_SENTENCES")
	setStr(&cfg.Order, "SUMMARY_ORDER")
	setFloat(&cfg.Damping, "SUMMARY_DAMPING")
	setFloat(&cfg.Threshold, "SUMMARY_THRESHOLD")
	setInt(&cfg.MaxIterations, "SUMMARY_MAX_ITERATIONS")
	setStr(&cfg.ExtractMode, "EXTRACT_MODE")
	setStr(&cfg.UserAgent, "FETCH_USER_AGENT")
	setDuration(&cfg.FetchTimeout, "FETCH_TIMEOUT")
	setBool(&cfg.IgnoreRobots, "FETCH_IGNORE_ROBOTS")

	setStr(&cfg.CacheDir, "CACHE_DIR")
	setDuration(&cfg.CacheMaxAge, "CACHE_MAX_AGE")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
	setBool(&cfg.LLMCacheOnly, "LLM_CACHE_ONLY")
	setBool(&cfg.DryRun, "DRY_RUN")
	setBool(&cfg.Verbose, "VERBOSE")
}
