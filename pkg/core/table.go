package core

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// ValueType classifies the cells of a table column.
type ValueType string

// Value types produced by the query executor.
const (
	ValueUnknown ValueType = "unknown"
	ValueInt     ValueType = "int"
	ValueFloat   ValueType = "float"
	ValueString  ValueType = "string"
	ValueBool    ValueType = "bool"
	ValueTime    ValueType = "time"
)

// Field describes one column of a Table.
type Field struct {
	Name string    `json:"name"`
	Type ValueType `json:"type"`
}

// Table is an immutable, ordered result set. Cells hold int64, float64,
// string, bool, time.Time or nil. Every transformation returns a new Table.
type Table struct {
	fields []Field
	index  map[string]int
	rows   [][]any
}

// NewTable builds a table from fields and rows. Both slices are copied.
// Rows narrower or wider than the field list are rejected.
func NewTable(fields []Field, rows [][]any) (*Table, error) {
	t := &Table{
		fields: append([]Field(nil), fields...),
		index:  make(map[string]int, len(fields)),
		rows:   make([][]any, 0, len(rows)),
	}
	for i, f := range fields {
		if _, dup := t.index[f.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", f.Name)
		}
		t.index[f.Name] = i
	}
	for i, r := range rows {
		if len(r) != len(fields) {
			return nil, fmt.Errorf("row %d has %d cells, want %d", i, len(r), len(fields))
		}
		t.rows = append(t.rows, append([]any(nil), r...))
	}
	return t, nil
}

// MustTable is NewTable for literals known to be well formed.
func MustTable(fields []Field, rows [][]any) *Table {
	t, err := NewTable(fields, rows)
	if err != nil {
		panic(err)
	}
	return t
}

// Fields returns a copy of the column descriptors.
func (t *Table) Fields() []Field {
	return append([]Field(nil), t.fields...)
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.fields))
	for i, f := range t.fields {
		names[i] = f.Name
	}
	return names
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return t.Len() == 0
}

// Col returns the position of the named column.
func (t *Table) Col(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Value returns the cell at row i of the named column.
func (t *Table) Value(i int, name string) any {
	c, ok := t.index[name]
	if !ok {
		return nil
	}
	return t.rows[i][c]
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []any {
	return append([]any(nil), t.rows[i]...)
}

// Rows returns a deep copy of all rows.
func (t *Table) Rows() [][]any {
	out := make([][]any, len(t.rows))
	for i, r := range t.rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}

// Floats returns the named column as float64 values.
// Null cells fail; queries are expected to filter them.
func (t *Table) Floats(name string) ([]float64, error) {
	c, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("column %q not found", name)
	}
	out := make([]float64, len(t.rows))
	for i, r := range t.rows {
		f, ok := ToFloat(r[c])
		if !ok {
			return nil, fmt.Errorf("column %q row %d: %v is not numeric", name, i, r[c])
		}
		out[i] = f
	}
	return out, nil
}

// Strings returns the named column rendered as strings. Nulls become "".
func (t *Table) Strings(name string) ([]string, error) {
	c, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("column %q not found", name)
	}
	out := make([]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = ToString(r[c])
	}
	return out, nil
}

// Select returns a new table holding the rows at the given positions, in
// the order given.
func (t *Table) Select(positions []int) *Table {
	out := &Table{fields: t.fields, index: t.index, rows: make([][]any, 0, len(positions))}
	for _, p := range positions {
		out.rows = append(out.rows, append([]any(nil), t.rows[p]...))
	}
	return out
}

// WithColumn returns a new table with one column appended.
func (t *Table) WithColumn(f Field, values []any) (*Table, error) {
	if len(values) != len(t.rows) {
		return nil, fmt.Errorf("column %q has %d values, want %d", f.Name, len(values), len(t.rows))
	}
	rows := make([][]any, len(t.rows))
	for i, r := range t.rows {
		rows[i] = append(append(make([]any, 0, len(r)+1), r...), values[i])
	}
	return NewTable(append(t.Fields(), f), rows)
}

// ToFloat converts a numeric cell to float64. Nulls and non-numeric
// values report false.
func ToFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, !math.IsNaN(x)
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case float32:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// ToString renders a cell for use as a category label.
func ToString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.DateOnly)
	default:
		return fmt.Sprint(x)
	}
}
