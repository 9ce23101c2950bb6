package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// Extractor converts raw HTML into a Document. Implementations are
// deterministic and free of side effects.
type Extractor interface {
	Extract(input []byte, pageURL string) (Document, error)
}

// Mode names an extraction strategy.
type Mode string

const (
	// ModeParagraphs keeps the text of every <p> element.
	ModeParagraphs Mode = "paragraphs"
	// ModeMain keeps headings, paragraphs, lists and code under
	// main/article/body.
	ModeMain Mode = "main"
	// ModeReadability uses Mozilla's readability algorithm.
	ModeReadability Mode = "readability"
)

// ForMode returns the extractor for m. An empty mode selects paragraphs.
func ForMode(m Mode) (Extractor, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(string(m)))) {
	case "", ModeParagraphs:
		return ParagraphExtractor{}, nil
	case ModeMain:
		return HeuristicExtractor{}, nil
	case ModeReadability:
		return ReadabilityExtractor{}, nil
	}
	return nil, fmt.Errorf("unknown extract mode %q (want paragraphs, main or readability)", string(m))
}

// HeuristicExtractor uses FromHTML.
type HeuristicExtractor struct{}

func (HeuristicExtractor) Extract(input []byte, _ string) (Document, error) {
	return FromHTML(input), nil
}

// ParagraphExtractor collects the whitespace-collapsed text of each <p>
// element, one block per paragraph. Empty paragraphs are skipped.
type ParagraphExtractor struct{}

func (ParagraphExtractor) Extract(input []byte, _ string) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(input))
	if err != nil {
		return Document{}, fmt.Errorf("parse html: %w", err)
	}
	out := Document{Title: strings.TrimSpace(doc.Find("head title").First().Text())}
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if t := strings.Join(strings.Fields(s.Text()), " "); t != "" {
			out.Blocks = append(out.Blocks, t)
		}
	})
	return out, nil
}

// ReadabilityExtractor runs go-readability and splits its text content on
// blank lines.
type ReadabilityExtractor struct{}

func (ReadabilityExtractor) Extract(input []byte, pageURL string) (Document, error) {
	var u *url.URL
	if pageURL != "" {
		parsed, err := url.Parse(pageURL)
		if err != nil {
			return Document{}, fmt.Errorf("parse url: %w", err)
		}
		u = parsed
	}
	article, err := readability.FromReader(bytes.NewReader(input), u)
	if err != nil {
		return Document{}, fmt.Errorf("readability: %w", err)
	}
	return Document{Title: strings.TrimSpace(article.Title), Blocks: splitBlocks(article.TextContent)}, nil
}

// PlainText turns a plain text document into blocks separated by blank lines.
func PlainText(input []byte) Document {
	return Document{Blocks: splitBlocks(string(input))}
}

func splitBlocks(text string) []string {
	var out []string
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		if t := strings.Join(strings.Fields(para), " "); t != "" {
			out = append(out, t)
		}
	}
	return out
}
