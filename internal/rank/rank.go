// Package rank computes TextRank scores by damped power iteration over a
// column-normalized similarity matrix.
package rank

import (
	"errors"
	"fmt"
	"math"
)

const (
	DefaultDamping       = 0.85
	DefaultThreshold     = 0.001
	DefaultMaxIterations = 1000
)

var (
	// ErrEmptyInput is returned when there is nothing to rank.
	ErrEmptyInput = errors.New("empty input: no sentences to rank")
	// ErrNoConvergence is matched by *ConvergenceError.
	ErrNoConvergence = errors.New("rank did not converge")
)

// ConvergenceError reports a power iteration that hit its iteration cap.
type ConvergenceError struct {
	Iterations int
	Delta      float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("rank did not converge after %d iterations (last delta %g)", e.Iterations, e.Delta)
}

func (e *ConvergenceError) Unwrap() error { return ErrNoConvergence }

// Matrix is the read-only view of a square similarity matrix.
type Matrix interface {
	Size() int
	At(i, j int) float64
}

// Vector holds one score per sentence index.
type Vector []float64

// Sum returns the total mass of v.
func (v Vector) Sum() float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s
}

// Options configures the iteration.
type Options struct {
	Damping       float64
	Threshold     float64
	MaxIterations int
}

// DefaultOptions returns damping 0.85, threshold 0.001 and a cap of 1000
// iterations.
func DefaultOptions() Options {
	return Options{Damping: DefaultDamping, Threshold: DefaultThreshold, MaxIterations: DefaultMaxIterations}
}

// Validate checks that the options describe a convergent iteration.
func (o Options) Validate() error {
	if !(o.Damping > 0 && o.Damping < 1) {
		return fmt.Errorf("damping factor must be in (0,1), got %v", o.Damping)
	}
	if !(o.Threshold > 0) || math.IsInf(o.Threshold, 0) {
		return fmt.Errorf("convergence threshold must be positive, got %v", o.Threshold)
	}
	if o.MaxIterations <= 0 {
		return fmt.Errorf("max iterations must be positive, got %d", o.MaxIterations)
	}
	return nil
}

// Result is a converged rank vector and the number of steps it took.
type Result struct {
	Vector     Vector
	Iterations int
}

// Uniform returns the initial vector 1/n.
func Uniform(n int) Vector {
	v := make(Vector, n)
	for i := range v {
		v[i] = 1 / float64(n)
	}
	return v
}

// Iterate runs power iteration from the uniform vector until no component
// moves by more than opt.Threshold between two steps.
func Iterate(m Matrix, opt Options) (Result, error) {
	if err := opt.Validate(); err != nil {
		return Result{}, err
	}
	n := m.Size()
	if n == 0 {
		return Result{}, ErrEmptyInput
	}
	t := transition(m, opt.Damping)
	prev := Uniform(n)
	var delta float64
	for iter := 1; iter <= opt.MaxIterations; iter++ {
		next := t.apply(prev)
		delta = maxAbsDiff(next, prev)
		if delta <= opt.Threshold {
			return Result{Vector: next, Iterations: iter}, nil
		}
		prev = next
	}
	return Result{}, &ConvergenceError{Iterations: opt.MaxIterations, Delta: delta}
}

// Step applies one iteration of the damped transition to r and returns the
// new vector; r is left untouched.
func Step(m Matrix, r Vector, damping float64) Vector {
	return transition(m, damping).apply(r)
}

// dense is the n x n transition matrix M = d*S + (1-d)/n. A column of S that
// is entirely zero has no outgoing similarity; it is replaced by a uniform
// 1/n column so that every column of M sums to 1 and total mass is kept.
type dense struct {
	n    int
	data []float64
}

func transition(m Matrix, d float64) dense {
	n := m.Size()
	t := dense{n: n, data: make([]float64, n*n)}
	teleport := (1 - d) / float64(n)
	for j := 0; j < n; j++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += m.At(i, j)
		}
		for i := 0; i < n; i++ {
			s := m.At(i, j)
			if sum == 0 {
				s = 1 / float64(n)
			}
			t.data[i*n+j] = d*s + teleport
		}
	}
	return t
}

func (t dense) apply(r Vector) Vector {
	out := make(Vector, t.n)
	for i := 0; i < t.n; i++ {
		row := t.data[i*t.n : (i+1)*t.n]
		var acc float64
		for j, x := range row {
			acc += x * r[j]
		}
		out[i] = acc
	}
	return out
}

func maxAbsDiff(a, b Vector) float64 {
	var d float64
	for i := range a {
		if x := math.Abs(a[i] - b[i]); x > d {
			d = x
		}
	}
	return d
}
