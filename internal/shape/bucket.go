package shape

import (
	"github.com/leapstack-labs/leapcharts/pkg/core"
)

// Rule labels a value when Match reports true.
type Rule struct {
	Label string
	Match func(v float64) bool
}

// Above matches values strictly greater than threshold.
func Above(threshold float64, label string) Rule {
	return Rule{Label: label, Match: func(v float64) bool { return v > threshold }}
}

// Below matches values strictly less than threshold.
func Below(threshold float64, label string) Rule {
	return Rule{Label: label, Match: func(v float64) bool { return v < threshold }}
}

// Bucket appends a string column named target holding the label of the
// first rule matching the numeric source column, or fallback when none
// match. Null or non-numeric source cells are an error.
func Bucket(t *core.Table, source, target string, rules []Rule, fallback string) (*core.Table, error) {
	if _, ok := t.Col(source); !ok {
		return nil, core.Errorf(core.KindShape, "bucket", "column %q not found", source)
	}

	labels := make([]any, t.Len())
	for i := 0; i < t.Len(); i++ {
		v, ok := core.ToFloat(t.Value(i, source))
		if !ok {
			return nil, core.Errorf(core.KindShape, "bucket", "row %d: %q is null or not numeric", i, source)
		}
		labels[i] = fallback
		for _, r := range rules {
			if r.Match(v) {
				labels[i] = r.Label
				break
			}
		}
	}

	out, err := t.WithColumn(core.Field{Name: target, Type: core.ValueString}, labels)
	if err != nil {
		return nil, core.Wrap(core.KindShape, "bucket", err)
	}
	return out, nil
}
