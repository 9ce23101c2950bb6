// Package budget sizes the abstractive prompt against a model's context
// window using a character based token estimate.
package budget

import (
	"math"
	"strings"
)

// DefaultContextTokens is assumed for models missing from the table.
const DefaultContextTokens = 8192

// EstimateTokensFromChars converts a character count into an estimated token
// count (~4 chars per token in English, rounded up).
func EstimateTokensFromChars(charCount int) int {
	if charCount <= 0 {
		return 0
	}
	return int(math.Ceil(float64(charCount) / 4.0))
}

// EstimateTokens returns the estimated token count of a string.
func EstimateTokens(s string) int {
	return EstimateTokensFromChars(len(s))
}

// EstimatePromptTokens estimates the tokens of a system message plus the
// given sentences joined by single spaces.
func EstimatePromptTokens(system string, sentences []string) int {
	chars := 0
	for i, s := range sentences {
		if i > 0 {
			chars++
		}
		chars += len(s)
	}
	return EstimateTokens(system) + EstimateTokensFromChars(chars)
}

// ModelContextTokens returns an estimated maximum context window for a given
// model name. Unknown models fall back to DefaultContextTokens.
func ModelContextTokens(modelName string) int {
	name := strings.ToLower(strings.TrimSpace(modelName))
	if name == "" {
		return DefaultContextTokens
	}
	if v, ok := knownModelMax[name]; ok {
		return v
	}
	for _, p := range knownPrefixes {
		if strings.HasPrefix(name, p.prefix) {
			return p.tokens
		}
	}
	switch {
	case strings.HasSuffix(name, "1m"):
		return 1_000_000
	case strings.HasSuffix(name, "200k"):
		return 200_000
	case strings.HasSuffix(name, "128k"):
		return 128_000
	case strings.HasSuffix(name, "32k"):
		return 32_768
	case strings.Contains(name, "-mini"):
		return 128_000
	}
	return DefaultContextTokens
}

// RemainingContext computes the input tokens left after reserving output and
// accounting for the prompt. It is never negative.
func RemainingContext(modelName string, reservedForOutput int, promptTokens int) int {
	if reservedForOutput < 0 {
		reservedForOutput = 0
	}
	remaining := ModelContextTokens(modelName) - reservedForOutput - promptTokens
	if remaining < 0 {
		return 0
	}
	return remaining
}

// HeadroomTokens is the larger of 5% of the model context or 512 tokens,
// covering tokenizer drift and message framing.
func HeadroomTokens(modelName string) int {
	dyn := int(math.Ceil(float64(ModelContextTokens(modelName)) * 0.05))
	if dyn < 512 {
		return 512
	}
	return dyn
}

// RemainingContextWithHeadroom is RemainingContext with HeadroomTokens added
// to the output reservation.
func RemainingContextWithHeadroom(modelName string, reservedForOutput int, promptTokens int) int {
	return RemainingContext(modelName, reservedForOutput+HeadroomTokens(modelName), promptTokens)
}

// FitCount returns how many leading sentences fit into the model's context
// together with the system message, keeping reservedForOutput tokens and the
// headroom free. Sentences are expected best first.
func FitCount(modelName string, reservedForOutput int, system string, sentences []string) int {
	avail := RemainingContextWithHeadroom(modelName, reservedForOutput, EstimateTokens(system))
	chars := 0
	for i, s := range sentences {
		next := chars + len(s)
		if i > 0 {
			next++
		}
		if EstimateTokensFromChars(next) > avail {
			return i
		}
		chars = next
	}
	return len(sentences)
}

// knownModelMax contains rough context sizes for common model identifiers.
var knownModelMax = map[string]int{
	"gpt-3.5-turbo":     16_385,
	"gpt-4":             8_192,
	"gpt-4-turbo":       128_000,
	"gpt-4o":            128_000,
	"gpt-4o-mini":       128_000,
	"gpt-4.1":           1_047_576,
	"gpt-4.1-mini":      1_047_576,
	"llama-3":           8_192,
	"llama-3.1":         128_000,
	"gpt-oss-20b":       131_072,
	"claude-3-haiku":    200_000,
	"claude-3-opus":     200_000,
	"claude-3-5-sonnet": 200_000,
}

// knownPrefixes covers dated or versioned model ids.
var knownPrefixes = []struct {
	prefix string
	tokens int
}{
	{"claude-", 200_000},
	{"gpt-4o", 128_000},
	{"gpt-4.1", 1_047_576},
	{"gpt-3.5-turbo", 16_385},
}
