package shape

import (
	"sort"

	"github.com/leapstack-labs/leapcharts/pkg/core"
)

// RatioSpec describes a per-group mean of numerator/denominator.
type RatioSpec struct {
	Group       string
	Numerator   string
	Denominator string
	// Scale multiplies every ratio (100 for percentages).
	Scale float64
	// MinRows drops groups with this many input rows or fewer. Rows with a
	// zero denominator still count toward the threshold.
	MinRows int
	// As names the output ratio column.
	As string
}

// RatioMean computes the mean of Numerator/Denominator*Scale per group.
// Rows whose denominator is zero or null are excluded from the mean and
// never divide. Groups left without a valid ratio are dropped. The result
// has columns (Group, As) ordered by ratio, highest first.
func RatioMean(t *core.Table, spec RatioSpec) (*core.Table, error) {
	for _, c := range []string{spec.Group, spec.Numerator, spec.Denominator} {
		if _, ok := t.Col(c); !ok {
			return nil, core.Errorf(core.KindShape, "ratio", "column %q not found", c)
		}
	}
	scale := spec.Scale
	if scale == 0 {
		scale = 1
	}
	as := spec.As
	if as == "" {
		as = "ratio"
	}

	type acc struct {
		rows  int
		sum   float64
		valid int
	}
	var order []string
	groups := make(map[string]*acc)

	for i := 0; i < t.Len(); i++ {
		g := core.ToString(t.Value(i, spec.Group))
		a, ok := groups[g]
		if !ok {
			a = &acc{}
			groups[g] = a
			order = append(order, g)
		}
		a.rows++

		den, ok := core.ToFloat(t.Value(i, spec.Denominator))
		if !ok || den == 0 {
			continue
		}
		num, ok := core.ToFloat(t.Value(i, spec.Numerator))
		if !ok {
			continue
		}
		a.sum += num / den * scale
		a.valid++
	}

	type result struct {
		group string
		ratio float64
	}
	var results []result
	for _, g := range order {
		a := groups[g]
		if a.rows <= spec.MinRows || a.valid == 0 {
			continue
		}
		results = append(results, result{g, a.sum / float64(a.valid)})
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].ratio != results[j].ratio {
			return results[i].ratio > results[j].ratio
		}
		return results[i].group < results[j].group
	})

	rows := make([][]any, len(results))
	for i, r := range results {
		rows[i] = []any{r.group, r.ratio}
	}
	return core.NewTable([]core.Field{
		{Name: spec.Group, Type: core.ValueString},
		{Name: as, Type: core.ValueFloat},
	}, rows)
}
