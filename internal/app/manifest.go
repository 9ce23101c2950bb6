package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/hyperifyio/gosummarize/internal/extractive"
)

// manifestEntry records one key sentence sent to the model.
type manifestEntry struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
	Chars int     `json:"chars"`
}

// manifestMeta captures high-level run details that aid reproducibility.
type manifestMeta struct {
	Source       string    `json:"source"`
	SourceSHA256 string    `json:"source_sha256"`
	Provider     string    `json:"provider,omitempty"`
	Model        string    `json:"model,omitempty"`
	Language     string    `json:"language"`
	Order        string    `json:"order"`
	Total        int       `json:"total_sentences"`
	Iterations   int       `json:"iterations"`
	HTTPCache    bool      `json:"http_cache"`
	LLMCache     bool      `json:"llm_cache"`
	Version      string    `json:"version"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// computeSHA256Hex returns a lowercase hex-encoded SHA-256 of the given text.
func computeSHA256Hex(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

func buildManifestEntries(s extractive.Summary) []manifestEntry {
	out := make([]manifestEntry, 0, len(s.Sentences))
	for _, r := range s.Sentences {
		out = append(out, manifestEntry{Index: r.Index, Score: r.Score, Chars: len(r.Text)})
	}
	return out
}

// marshalManifestJSON encodes a machine-readable sidecar manifest.
func marshalManifestJSON(meta manifestMeta, entries []manifestEntry) ([]byte, error) {
	payload := struct {
		Meta      manifestMeta    `json:"meta"`
		Sentences []manifestEntry `json:"sentences"`
	}{Meta: meta, Sentences: entries}
	return json.MarshalIndent(payload, "", "  ")
}

// deriveManifestSidecarPath returns a sidecar JSON path next to the output Markdown.
func deriveManifestSidecarPath(outputPath string) string {
	return outputPath + ".manifest.json"
}
