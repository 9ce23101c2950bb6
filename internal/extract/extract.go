package extract

import (
	"bytes"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// Document is the readable content of a page, split into text blocks
// (paragraphs, headings, list items, code blocks) in document order.
type Document struct {
	Title  string
	Blocks []string
}

// Text joins the blocks with blank lines.
func (d Document) Text() string {
	return strings.Join(d.Blocks, "\n\n")
}

// Prose joins the blocks with single spaces into running text. Blocks that do
// not end in terminal punctuation (headings, list items) get a period so a
// sentence splitter does not glue them to the following block.
func (d Document) Prose() string {
	parts := make([]string, 0, len(d.Blocks))
	for _, b := range d.Blocks {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		if !endsSentence(b) {
			b += "."
		}
		parts = append(parts, b)
	}
	return strings.Join(parts, " ")
}

func endsSentence(s string) bool {
	s = strings.TrimRightFunc(s, func(r rune) bool {
		return r == '"' || r == '\'' || r == ')' || r == ']' || r == '»' || r == '”' || r == '’'
	})
	if s == "" {
		return false
	}
	switch s[len(s)-1] {
	case '.', '!', '?', ':', ';':
		return true
	}
	r := []rune(s)
	switch r[len(r)-1] {
	case '…', '。', '！', '？':
		return true
	}
	return false
}

// FromHTML extracts readable blocks from HTML, preferring <main> or
// <article>, falling back to <body>. Navigation, footers, scripts and
// consent banners are skipped.
func FromHTML(input []byte) Document {
	root, err := html.Parse(bytes.NewReader(input))
	if err != nil || root == nil {
		return Document{}
	}
	doc := Document{Title: strings.TrimSpace(findTitle(root))}
	content := findFirst(root, "main")
	if content == nil {
		content = findFirst(root, "article")
	}
	if content == nil {
		content = findFirst(root, "body")
	}
	if content == nil {
		return doc
	}
	w := &blockWriter{}
	w.walk(content, false)
	w.flush()
	doc.Blocks = w.blocks
	return doc
}

func findTitle(n *html.Node) string {
	head := findFirst(n, "head")
	if head == nil {
		return ""
	}
	t := findFirst(head, "title")
	if t == nil || t.FirstChild == nil {
		return ""
	}
	return t.FirstChild.Data
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && strings.EqualFold(n.Data, tag) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// blockWriter accumulates inline text and cuts it into blocks at block
// element boundaries.
type blockWriter struct {
	cur    strings.Builder
	blocks []string
}

func (w *blockWriter) flush() {
	s := w.cur.String()
	w.cur.Reset()
	if strings.TrimSpace(s) == "" {
		return
	}
	w.blocks = append(w.blocks, s)
}

func (w *blockWriter) walk(n *html.Node, inPre bool) {
	switch n.Type {
	case html.TextNode:
		if inPre {
			w.cur.WriteString(n.Data)
		} else {
			w.cur.WriteString(collapseSpaces(n.Data))
		}
		return
	case html.ElementNode:
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			w.walk(c, inPre)
		}
		return
	}

	if isBoilerplateContainer(n) {
		return
	}
	name := strings.ToLower(n.Data)
	block := false
	switch name {
	case "script", "style", "noscript", "nav", "footer", "aside", "iframe", "template", "svg":
		return
	case "br":
		w.cur.WriteString(" ")
		return
	case "pre":
		inPre = true
		block = true
	case "p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "blockquote", "figcaption", "td", "th", "dt", "dd", "div", "section", "ul", "ol", "table", "tr", "hr":
		block = true
	}
	if block {
		w.flush()
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, inPre)
	}
	if block {
		if inPre {
			s := strings.Trim(w.cur.String(), "\n")
			w.cur.Reset()
			w.cur.WriteString(s)
			w.flush()
			return
		}
		s := strings.TrimSpace(collapseSpaces(w.cur.String()))
		w.cur.Reset()
		w.cur.WriteString(s)
		w.flush()
	}
}

// isBoilerplateContainer returns true if the element looks like a cookie or
// consent banner.
func isBoilerplateContainer(n *html.Node) bool {
	for _, attr := range n.Attr {
		key := strings.ToLower(attr.Key)
		if key != "id" && key != "class" && key != "role" && key != "aria-label" && !strings.HasPrefix(key, "data-") {
			continue
		}
		val := strings.ToLower(attr.Val)
		for _, marker := range []string{"cookie", "consent", "gdpr"} {
			if strings.Contains(val, marker) {
				return true
			}
		}
	}
	return false
}

func collapseSpaces(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}
