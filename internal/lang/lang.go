// Package lang holds the per-language resources used to normalize text:
// stop-word lists, Snowball stemmers and case folding rules.
package lang

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/analysis"
	"github.com/blevesearch/bleve/analysis/lang/de"
	"github.com/blevesearch/bleve/analysis/lang/en"
	"github.com/blevesearch/bleve/analysis/lang/es"
	"github.com/blevesearch/bleve/analysis/lang/fr"
	"github.com/blevesearch/bleve/analysis/lang/it"
	"github.com/blevesearch/bleve/analysis/lang/nl"
	"github.com/blevesearch/bleve/analysis/lang/pt"
	"github.com/blevesearch/bleve/analysis/lang/ru"
	"github.com/blevesearch/bleve/analysis/lang/sv"
	"github.com/blevesearch/snowballstem"
	"github.com/blevesearch/snowballstem/dutch"
	"github.com/blevesearch/snowballstem/english"
	"github.com/blevesearch/snowballstem/french"
	"github.com/blevesearch/snowballstem/german"
	"github.com/blevesearch/snowballstem/italian"
	"github.com/blevesearch/snowballstem/portuguese"
	"github.com/blevesearch/snowballstem/russian"
	"github.com/blevesearch/snowballstem/spanish"
	"github.com/blevesearch/snowballstem/swedish"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language is an ISO 639-1 code of a supported natural language.
type Language string

const (
	English    Language = "en"
	German     Language = "de"
	French     Language = "fr"
	Spanish    Language = "es"
	Italian    Language = "it"
	Portuguese Language = "pt"
	Russian    Language = "ru"
	Dutch      Language = "nl"
	Swedish    Language = "sv"
)

type resources struct {
	name      string
	stopWords []byte
	stem      func(*snowballstem.Env) bool
}

var supported = map[Language]resources{
	English:    {name: "english", stopWords: en.EnglishStopWords, stem: english.Stem},
	German:     {name: "german", stopWords: de.GermanStopWords, stem: german.Stem},
	French:     {name: "french", stopWords: fr.FrenchStopWords, stem: french.Stem},
	Spanish:    {name: "spanish", stopWords: es.SpanishStopWords, stem: spanish.Stem},
	Italian:    {name: "italian", stopWords: it.ItalianStopWords, stem: italian.Stem},
	Portuguese: {name: "portuguese", stopWords: pt.PortugueseStopWords, stem: portuguese.Stem},
	Russian:    {name: "russian", stopWords: ru.RussianStopWords, stem: russian.Stem},
	Dutch:      {name: "dutch", stopWords: nl.DutchStopWords, stem: dutch.Stem},
	Swedish:    {name: "swedish", stopWords: sv.SwedishStopWords, stem: swedish.Stem},
}

// Supported returns the supported languages sorted by code.
func Supported() []Language {
	out := make([]Language, 0, len(supported))
	for l := range supported {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Parse resolves a user supplied language hint. It accepts BCP 47 tags
// ("en", "en-US", "pt_BR") and English language names ("German").
func Parse(s string) (Language, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty language")
	}
	for code, r := range supported {
		if strings.EqualFold(s, r.name) {
			return code, nil
		}
	}
	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil {
		return "", fmt.Errorf("parse language %q: %w", s, err)
	}
	base, _ := tag.Base()
	l := Language(base.String())
	if _, ok := supported[l]; !ok {
		return "", fmt.Errorf("unsupported language %q", s)
	}
	return l, nil
}

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	_, ok := supported[l]
	return ok
}

// Name returns the lower-case English name of the language, e.g. "english".
func (l Language) Name() string {
	return supported[l].name
}

// DisplayName returns the English display name of the language, e.g.
// "English" or "German".
func (l Language) DisplayName() string {
	return display.English.Languages().Name(l.Tag())
}

// Tag returns the BCP 47 tag for l.
func (l Language) Tag() language.Tag {
	return language.Make(string(l))
}

// Caser returns a lower-casing caser for l. Casers keep internal state and
// must not be shared between goroutines.
func (l Language) Caser() cases.Caser {
	return cases.Lower(l.Tag())
}

var (
	stopMu    sync.Mutex
	stopCache = map[Language]analysis.TokenMap{}
)

// StopWords returns the stop-word set of l. The returned map is shared and
// must be treated as read-only.
func (l Language) StopWords() (analysis.TokenMap, error) {
	r, ok := supported[l]
	if !ok {
		return nil, fmt.Errorf("unsupported language %q", string(l))
	}
	stopMu.Lock()
	defer stopMu.Unlock()
	if tm, ok := stopCache[l]; ok {
		return tm, nil
	}
	tm := analysis.NewTokenMap()
	if err := tm.LoadBytes(r.stopWords); err != nil {
		return nil, fmt.Errorf("load %s stop words: %w", r.name, err)
	}
	stopCache[l] = tm
	return tm, nil
}

// Stem reduces an already lower-cased word to its Snowball stem. Unsupported
// languages return the word unchanged.
func (l Language) Stem(word string) string {
	r, ok := supported[l]
	if !ok || word == "" {
		return word
	}
	env := snowballstem.NewEnv(word)
	r.stem(env)
	return env.Current()
}
