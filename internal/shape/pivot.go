package shape

import (
	"math"

	"github.com/leapstack-labs/leapcharts/pkg/core"
)

// PivotOptions controls the axes of a pivot.
type PivotOptions struct {
	// Rows fixes the row axis. When empty, row keys appear in order of
	// first occurrence.
	Rows []string
	// Columns fixes the column axis (e.g. weekdays Sunday..Saturday).
	// Long-table values outside the axis are dropped.
	Columns []string
	// FillZero fills absent cells with 0. Otherwise they are NaN.
	FillZero bool
}

// Matrix is a wide table: one row per row key, one column per column key.
type Matrix struct {
	RowKeys []string
	ColKeys []string
	Cells   [][]float64
	present [][]bool
}

// Pivot reshapes a long table (rowKey, colKey, value) into a Matrix.
// A repeated (row, col) pair is an error.
func Pivot(t *core.Table, rowKey, colKey, value string, opts PivotOptions) (*Matrix, error) {
	for _, c := range []string{rowKey, colKey, value} {
		if _, ok := t.Col(c); !ok {
			return nil, core.Errorf(core.KindShape, "pivot", "column %q not found", c)
		}
	}

	rowIdx := make(map[string]int)
	m := &Matrix{}
	for _, r := range opts.Rows {
		if _, ok := rowIdx[r]; !ok {
			rowIdx[r] = len(m.RowKeys)
			m.RowKeys = append(m.RowKeys, r)
		}
	}
	fixedRows := len(opts.Rows) > 0

	colIdx := make(map[string]int)
	for _, c := range opts.Columns {
		if _, ok := colIdx[c]; !ok {
			colIdx[c] = len(m.ColKeys)
			m.ColKeys = append(m.ColKeys, c)
		}
	}
	fixedCols := len(opts.Columns) > 0

	type cell struct {
		r, c int
		v    float64
	}
	cells := make([]cell, 0, t.Len())
	seen := make(map[[2]int]bool, t.Len())

	for i := 0; i < t.Len(); i++ {
		rk := core.ToString(t.Value(i, rowKey))
		ck := core.ToString(t.Value(i, colKey))

		ri, ok := rowIdx[rk]
		if !ok {
			if fixedRows {
				continue
			}
			ri = len(m.RowKeys)
			rowIdx[rk] = ri
			m.RowKeys = append(m.RowKeys, rk)
		}
		ci, ok := colIdx[ck]
		if !ok {
			if fixedCols {
				continue
			}
			ci = len(m.ColKeys)
			colIdx[ck] = ci
			m.ColKeys = append(m.ColKeys, ck)
		}

		if seen[[2]int{ri, ci}] {
			return nil, core.Errorf(core.KindShape, "pivot", "duplicate entry for (%s, %s)", rk, ck)
		}
		seen[[2]int{ri, ci}] = true

		v, ok := core.ToFloat(t.Value(i, value))
		if !ok {
			return nil, core.Errorf(core.KindShape, "pivot", "row %d: %q is null or not numeric", i, value)
		}
		cells = append(cells, cell{ri, ci, v})
	}

	fill := math.NaN()
	if opts.FillZero {
		fill = 0
	}
	m.Cells = make([][]float64, len(m.RowKeys))
	m.present = make([][]bool, len(m.RowKeys))
	for r := range m.Cells {
		m.Cells[r] = make([]float64, len(m.ColKeys))
		m.present[r] = make([]bool, len(m.ColKeys))
		for c := range m.Cells[r] {
			m.Cells[r][c] = fill
		}
	}
	for _, c := range cells {
		m.Cells[c.r][c.c] = c.v
		m.present[c.r][c.c] = true
	}
	return m, nil
}

// Present reports whether cell (r, c) came from the long table rather than
// from filling.
func (m *Matrix) Present(r, c int) bool {
	return m.present[r][c]
}

// Max returns the largest finite cell, or 0 for an empty matrix.
func (m *Matrix) Max() float64 {
	maxV := math.Inf(-1)
	for _, row := range m.Cells {
		for _, v := range row {
			if !math.IsNaN(v) && v > maxV {
				maxV = v
			}
		}
	}
	if math.IsInf(maxV, -1) {
		return 0
	}
	return maxV
}

// Flatten turns the matrix back into a long table holding the cells that
// came from the source table, row-major.
func (m *Matrix) Flatten(rowKey, colKey, value string) *core.Table {
	var rows [][]any
	for r, rk := range m.RowKeys {
		for c, ck := range m.ColKeys {
			if m.present[r][c] {
				rows = append(rows, []any{rk, ck, m.Cells[r][c]})
			}
		}
	}
	return core.MustTable([]core.Field{
		{Name: rowKey, Type: core.ValueString},
		{Name: colKey, Type: core.ValueString},
		{Name: value, Type: core.ValueFloat},
	}, rows)
}
