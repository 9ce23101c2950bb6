package selecter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hyperifyio/gosummarize/internal/normalize"
)

// Order controls the order in which selected sentences are emitted.
type Order int

const (
	// OrderRank emits sentences by descending score.
	OrderRank Order = iota
	// OrderDocument emits the selected sentences in their original document order.
	OrderDocument
)

// ParseOrder accepts "rank" or "document" (also "doc", "position").
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rank", "score":
		return OrderRank, nil
	case "document", "doc", "position":
		return OrderDocument, nil
	}
	return OrderRank, fmt.Errorf("unknown order %q (want rank or document)", s)
}

func (o Order) String() string {
	if o == OrderDocument {
		return "document"
	}
	return "rank"
}

// Ranked is a sentence paired with its score.
type Ranked struct {
	normalize.Sentence
	Score float64
}

// Options configures selection.
type Options struct {
	// Count is the number of sentences wanted. Values above the number of
	// sentences select everything; zero or less selects nothing.
	Count int
	Order Order
}

// Select pairs each sentence with its score, keeps the Count best (ties go to
// the earlier sentence) and returns them in the requested order.
func Select(sentences []normalize.Sentence, scores []float64, opt Options) ([]Ranked, error) {
	if len(scores) != len(sentences) {
		return nil, fmt.Errorf("score count %d does not match sentence count %d", len(scores), len(sentences))
	}
	ranked := make([]Ranked, len(sentences))
	for i, s := range sentences {
		ranked[i] = Ranked{Sentence: s, Score: scores[i]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Index < ranked[j].Index
	})
	k := opt.Count
	if k < 0 {
		k = 0
	}
	if k > len(ranked) {
		k = len(ranked)
	}
	out := ranked[:k:k]
	if opt.Order == OrderDocument {
		ByDocument(out)
	}
	return out, nil
}

// ByDocument sorts rs in place by sentence index.
func ByDocument(rs []Ranked) {
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].Index < rs[j].Index })
}
