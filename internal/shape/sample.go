package shape

import (
	"math/rand/v2"
	"sort"

	"github.com/leapstack-labs/leapcharts/pkg/core"
)

// NewRand returns a generator for Sample. A zero seed draws a fresh seed,
// so runs are not reproducible.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Sample returns at most n rows chosen uniformly without replacement.
// Chosen rows keep their original relative order. Tables already within
// the bound are returned whole.
func Sample(t *core.Table, n int, rng *rand.Rand) *core.Table {
	if n < 0 {
		n = 0
	}
	if t.Len() <= n {
		return t.Select(seq(t.Len()))
	}
	if rng == nil {
		rng = NewRand(0)
	}
	picked := rng.Perm(t.Len())[:n]
	sort.Ints(picked)
	return t.Select(picked)
}

func seq(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}
