package app

import (
	"strconv"
	"strings"
)

// footerInfo records the settings needed to reproduce a run.
type footerInfo struct {
	Model      string
	Provider   string
	BaseURL    string
	Language   string
	Selected   int
	Total      int
	Iterations int
	HTTPCache  bool
	LLMCache   bool
	DryRun     bool
}

// appendReproFooter appends a deterministic footer that records
// configuration useful for reproducibility and auditing.
func appendReproFooter(markdown string, f footerInfo) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(markdown, "\n"))
	b.WriteString("\n\n---\n")
	b.WriteString("Reproducibility: ")
	if f.DryRun {
		b.WriteString("mode=extractive")
	} else {
		b.WriteString("provider=")
		b.WriteString(strings.TrimSpace(f.Provider))
		b.WriteString("; model=")
		b.WriteString(strings.TrimSpace(f.Model))
		b.WriteString("; llm_base_url=")
		b.WriteString(strings.TrimSpace(f.BaseURL))
	}
	b.WriteString("; language=")
	b.WriteString(f.Language)
	b.WriteString("; sentences=")
	b.WriteString(strconv.Itoa(f.Selected))
	b.WriteString("/")
	b.WriteString(strconv.Itoa(f.Total))
	b.WriteString("; iterations=")
	b.WriteString(strconv.Itoa(f.Iterations))
	b.WriteString("; http_cache=")
	b.WriteString(strconv.FormatBool(f.HTTPCache))
	b.WriteString("; llm_cache=")
	b.WriteString(strconv.FormatBool(f.LLMCache))
	b.WriteString("; version=")
	b.WriteString(BuildVersion)
	b.WriteString("\n")
	return b.String()
}
