// Package similarity builds the sentence-by-sentence cosine similarity matrix
// used as the TextRank graph.
package similarity

import (
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Matrix is a square row-major matrix of float64. The zero value is an empty
// 0x0 matrix.
type Matrix struct {
	n    int
	data []float64
}

// NewMatrix returns an n x n zero matrix.
func NewMatrix(n int) *Matrix {
	if n < 0 {
		n = 0
	}
	return &Matrix{n: n, data: make([]float64, n*n)}
}

// FromRows builds a matrix from square rows. It panics if rows is ragged.
func FromRows(rows [][]float64) *Matrix {
	m := NewMatrix(len(rows))
	for i, r := range rows {
		if len(r) != m.n {
			panic("similarity: ragged rows")
		}
		copy(m.data[i*m.n:(i+1)*m.n], r)
	}
	return m
}

// Size returns the number of rows (and columns).
func (m *Matrix) Size() int { return m.n }

// At returns the entry at row i, column j.
func (m *Matrix) At(i, j int) float64 { return m.data[i*m.n+j] }

func (m *Matrix) set(i, j int, v float64) { m.data[i*m.n+j] = v }

// ColumnSum returns the sum of column j excluding the diagonal.
func (m *Matrix) ColumnSum(j int) float64 {
	var sum float64
	for i := 0; i < m.n; i++ {
		if i != j {
			sum += m.At(i, j)
		}
	}
	return sum
}

// Rows returns a copy of the matrix as nested slices.
func (m *Matrix) Rows() [][]float64 {
	out := make([][]float64, m.n)
	for i := range out {
		out[i] = append([]float64(nil), m.data[i*m.n:(i+1)*m.n]...)
	}
	return out
}

// Normalized returns a new matrix in which every off-diagonal entry is divided
// by its column sum, so each column sums to 1. Columns that sum to 0 stay
// all-zero. The receiver is not modified.
func (m *Matrix) Normalized() *Matrix {
	out := NewMatrix(m.n)
	for j := 0; j < m.n; j++ {
		sum := m.ColumnSum(j)
		if sum == 0 {
			continue
		}
		for i := 0; i < m.n; i++ {
			if i != j {
				out.set(i, j, m.At(i, j)/sum)
			}
		}
	}
	return out
}

// Options tunes the builder.
type Options struct {
	// Workers bounds the number of goroutines computing rows. Zero means
	// GOMAXPROCS.
	Workers int
}

// Build returns the column-normalized similarity matrix of the given token
// lists.
func Build(ctx context.Context, tokens [][]string, opt Options) (*Matrix, error) {
	raw, err := Similarities(ctx, tokens, opt)
	if err != nil {
		return nil, err
	}
	return raw.Normalized(), nil
}

// Similarities returns the symmetric matrix of pairwise cosine similarities
// between token lists, with a zero diagonal. A pair involving a sentence
// without tokens has similarity 0.
func Similarities(ctx context.Context, tokens [][]string, opt Options) (*Matrix, error) {
	vecs := vectorize(tokens)
	n := len(vecs)
	m := NewMatrix(n)
	if n < 2 {
		return m, nil
	}
	workers := opt.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n-1; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			// Row i owns cells (i,j) and (j,i) for j > i; no other row writes them.
			for j := i + 1; j < n; j++ {
				s := cosine(vecs[i], vecs[j])
				m.set(i, j, s)
				m.set(j, i, s)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}

// vector is a sparse term-count vector keyed by interned term id.
type vector struct {
	counts map[int]int
	norm   float64
}

// vectorize interns every distinct token to a small integer and returns one
// sparse count vector per token list.
func vectorize(tokens [][]string) []vector {
	ids := make(map[string]int)
	out := make([]vector, len(tokens))
	for i, toks := range tokens {
		counts := make(map[int]int, len(toks))
		for _, t := range toks {
			id, ok := ids[t]
			if !ok {
				id = len(ids)
				ids[t] = id
			}
			counts[id]++
		}
		var sq int
		for _, c := range counts {
			sq += c * c
		}
		out[i] = vector{counts: counts, norm: math.Sqrt(float64(sq))}
	}
	return out
}

func cosine(a, b vector) float64 {
	if a.norm == 0 || b.norm == 0 {
		return 0
	}
	small, large := a.counts, b.counts
	if len(small) > len(large) {
		small, large = large, small
	}
	var dot int
	for id, c := range small {
		dot += c * large[id]
	}
	if dot == 0 {
		return 0
	}
	return float64(dot) / (a.norm * b.norm)
}
