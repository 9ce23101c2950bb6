package similarity

import (
	"context"
	"fmt"
	"testing"
)

// makeTokens builds n sentences of l tokens drawn from a vocabulary of v
// stems so that neighbouring sentences overlap.
func makeTokens(n, l, v int) [][]string {
	out := make([][]string, n)
	for i := range out {
		toks := make([]string, l)
		for k := range toks {
			toks[k] = fmt.Sprintf("w%d", (i*3+k*7)%v)
		}
		out[i] = toks
	}
	return out
}

func BenchmarkBuild(b *testing.B) {
	for _, size := range []int{20, 100, 300} {
		tokens := makeTokens(size, 15, 400)
		b.Run(fmt.Sprintf("n=%d/serial", size), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_, _ = Build(context.Background(), tokens, Options{Workers: 1})
			}
		})
		b.Run(fmt.Sprintf("n=%d/parallel", size), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_, _ = Build(context.Background(), tokens, Options{})
			}
		})
	}
}
