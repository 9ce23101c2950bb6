// Package normalize splits documents into sentences and each sentence into
// a sequence of case-folded, stop-word filtered word stems.
package normalize

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/analysis"
	"github.com/blevesearch/segment"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/neurosnap/sentences.v1"
	"gopkg.in/neurosnap/sentences.v1/data"
	"gopkg.in/neurosnap/sentences.v1/english"

	"github.com/hyperifyio/gosummarize/internal/lang"
)

// Sentence is one sentence of a document. Index is its 0-based position in
// the document and is never reused; Tokens may be empty when the sentence
// carries no content words.
type Sentence struct {
	Index  int
	Text   string
	Tokens []string
}

type tokenizer interface {
	Tokenize(text string) []*sentences.Sentence
}

// Normalizer turns text into Sentences for a single language. It is safe for
// concurrent use.
type Normalizer struct {
	lang      lang.Language
	splitter  tokenizer
	stopWords analysis.TokenMap
}

// New builds a Normalizer for l.
func New(l lang.Language) (*Normalizer, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("unsupported language %q", string(l))
	}
	sw, err := l.StopWords()
	if err != nil {
		return nil, err
	}
	splitter, err := newSplitter(l)
	if err != nil {
		return nil, fmt.Errorf("sentence tokenizer: %w", err)
	}
	return &Normalizer{lang: l, splitter: splitter, stopWords: sw}, nil
}

// newSplitter returns a Punkt tokenizer trained for l when training data is
// bundled, otherwise an untrained one that still splits on terminal
// punctuation.
func newSplitter(l lang.Language) (tokenizer, error) {
	if l == lang.English {
		return english.NewSentenceTokenizer(nil)
	}
	if b, err := data.Asset("data/" + l.Name() + ".json"); err == nil {
		training, err := sentences.LoadTraining(b)
		if err != nil {
			return nil, err
		}
		return sentences.NewSentenceTokenizer(training), nil
	}
	return sentences.NewSentenceTokenizer(sentences.NewStorage()), nil
}

// Language reports the language the normalizer was built for.
func (n *Normalizer) Language() lang.Language { return n.lang }

// Sentences splits text into sentences in document order. Segments that are
// blank after trimming are skipped; everything else is kept, including
// sentences whose token list ends up empty, so indices stay dense.
func (n *Normalizer) Sentences(text string) []Sentence {
	text = norm.NFC.String(text)
	raw := n.splitter.Tokenize(text)
	out := make([]Sentence, 0, len(raw))
	for _, s := range raw {
		t := strings.TrimSpace(s.Text)
		if t == "" {
			continue
		}
		out = append(out, Sentence{
			Index:  len(out),
			Text:   t,
			Tokens: n.Tokens(t),
		})
	}
	return out
}

// Tokens returns the normalized stems of a single sentence: words by Unicode
// word boundaries, lower-cased, stop words removed, then stemmed.
func (n *Normalizer) Tokens(sentence string) []string {
	folded := n.lang.Caser().String(norm.NFC.String(sentence))
	seg := segment.NewWordSegmenterDirect([]byte(folded))
	var out []string
	for seg.Segment() {
		if seg.Type() == segment.None {
			continue
		}
		w := seg.Text()
		if n.stopWords[w] {
			continue
		}
		if st := n.lang.Stem(w); st != "" {
			out = append(out, st)
		}
	}
	return out
}

// TokenLists returns the token slices of ss, index aligned.
func TokenLists(ss []Sentence) [][]string {
	out := make([][]string, len(ss))
	for i, s := range ss {
		out[i] = s.Tokens
	}
	return out
}

// Texts returns the raw sentence texts of ss, index aligned.
func Texts(ss []Sentence) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.Text
	}
	return out
}
