package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/hyperifyio/gosummarize/internal/extractive"
)

// report is everything written to -output and -output.pdf.
type report struct {
	Title  string
	Source string
	// SourceHash is the SHA-256 of the text the sentences were split from.
	SourceHash string
	Summary    string
	Key        extractive.Summary
	Footer     footerInfo
}

func (r report) Markdown() string {
	var b strings.Builder
	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = "Summary"
	}
	b.WriteString("# ")
	b.WriteString(title)
	b.WriteString("\n\n")
	if r.Source != "" {
		fmt.Fprintf(&b, "Source: %s\n\n", r.Source)
	}
	if s := strings.TrimSpace(r.Summary); s != "" {
		b.WriteString("## Summary\n\n")
		b.WriteString(s)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "## Key sentences (%d of %d, %s order)\n\n", len(r.Key.Sentences), r.Key.Total, r.Key.Order)
	for i, s := range r.Key.Sentences {
		fmt.Fprintf(&b, "%d. %s (score %.4f)\n", i+1, s.Text, s.Score)
	}
	return appendReproFooter(b.String(), r.Footer)
}

func (r report) manifestMeta() manifestMeta {
	m := manifestMeta{
		Source:       r.Source,
		SourceSHA256: r.SourceHash,
		Language:     r.Footer.Language,
		Order:        r.Key.Order.String(),
		Total:        r.Key.Total,
		Iterations:   r.Key.Iterations,
		HTTPCache:    r.Footer.HTTPCache,
		LLMCache:     r.Footer.LLMCache,
		Version:      BuildVersion,
		GeneratedAt:  time.Now().UTC(),
	}
	if !r.Footer.DryRun {
		m.Provider = r.Footer.Provider
		m.Model = r.Footer.Model
	}
	return m
}
