package shape

import (
	"sort"

	"github.com/leapstack-labs/leapcharts/pkg/core"
)

// Reorder keeps the rows whose category column holds a value listed in
// canonical and orders them by canonical position. Rows sharing a category
// keep their relative order. Reorder is idempotent.
func Reorder(t *core.Table, column string, canonical []string) (*core.Table, error) {
	if _, ok := t.Col(column); !ok {
		return nil, core.Errorf(core.KindShape, "reorder", "column %q not found", column)
	}

	rank := make(map[string]int, len(canonical))
	for i, c := range canonical {
		if _, dup := rank[c]; !dup {
			rank[c] = i
		}
	}

	positions := make([]int, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		if _, ok := rank[core.ToString(t.Value(i, column))]; ok {
			positions = append(positions, i)
		}
	}
	sort.SliceStable(positions, func(a, b int) bool {
		ra := rank[core.ToString(t.Value(positions[a], column))]
		rb := rank[core.ToString(t.Value(positions[b], column))]
		return ra < rb
	})
	return t.Select(positions), nil
}

// ReorderLabels returns the members of canonical that occur in present,
// in canonical order.
func ReorderLabels(present, canonical []string) []string {
	seen := make(map[string]bool, len(present))
	for _, p := range present {
		seen[p] = true
	}
	out := make([]string, 0, len(canonical))
	for _, c := range canonical {
		if seen[c] {
			out = append(out, c)
			seen[c] = false
		}
	}
	return out
}

// SortBy orders rows by a numeric column. The sort is stable, so ties keep
// their incoming order.
func SortBy(t *core.Table, column string, desc bool) (*core.Table, error) {
	vals, err := t.Floats(column)
	if err != nil {
		return nil, core.Wrap(core.KindShape, "sort", err)
	}
	positions := make([]int, len(vals))
	for i := range positions {
		positions[i] = i
	}
	sort.SliceStable(positions, func(a, b int) bool {
		if desc {
			return vals[positions[a]] > vals[positions[b]]
		}
		return vals[positions[a]] < vals[positions[b]]
	})
	return t.Select(positions), nil
}

// Head returns at most n leading rows.
func Head(t *core.Table, n int) *core.Table {
	if n >= t.Len() {
		n = t.Len()
	}
	positions := make([]int, n)
	for i := range positions {
		positions[i] = i
	}
	return t.Select(positions)
}
