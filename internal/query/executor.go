// Package query runs read-only SQL against the analytical store and
// materialises the result as a core.Table.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/leapstack-labs/leapcharts/pkg/core"
)

// Querier is the part of a store adapter the executor needs.
type Querier interface {
	Query(ctx context.Context, sql string) (*core.Rows, error)
}

// Executor runs queries over one shared connection.
type Executor struct {
	store  Querier
	logger *slog.Logger
}

// New creates an executor. If logger is nil, a discard logger is used.
func New(store Querier, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{store: store, logger: logger}
}

// Execute runs sqlStr and returns every row. Column names are taken from
// the query verbatim and row order is the store's. Failures are returned
// as core.KindQuery errors.
func (e *Executor) Execute(ctx context.Context, sqlStr string) (*core.Table, error) {
	start := time.Now()

	rows, err := e.store.Query(ctx, sqlStr)
	if err != nil {
		return nil, core.Wrap(core.KindQuery, "", err)
	}
	defer func() { _ = rows.Close() }()

	names, err := rows.Columns()
	if err != nil {
		return nil, core.Wrap(core.KindQuery, "", fmt.Errorf("failed to read columns: %w", err))
	}
	dbTypes := make([]string, len(names))
	if cts, err := rows.ColumnTypes(); err == nil {
		for i, ct := range cts {
			dbTypes[i] = ct.DatabaseTypeName()
		}
	}

	var data [][]any
	for rows.Next() {
		cells := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, core.Wrap(core.KindQuery, "", fmt.Errorf("failed to scan row: %w", err))
		}
		for i, v := range cells {
			cells[i] = Normalize(v)
		}
		data = append(data, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Wrap(core.KindQuery, "", fmt.Errorf("error iterating rows: %w", err))
	}

	fields := make([]core.Field, len(names))
	for i, name := range names {
		fields[i] = core.Field{Name: name, Type: columnType(dbTypes[i], data, i)}
	}

	tbl, err := core.NewTable(fields, data)
	if err != nil {
		return nil, core.Wrap(core.KindQuery, "", err)
	}

	e.logger.Debug("query executed",
		"rows", tbl.Len(),
		"columns", len(names),
		"duration_ms", time.Since(start).Milliseconds())
	return tbl, nil
}

// Normalize maps a driver value onto the cell types of core.Table:
// integers become int64, decimals and wide integers become float64,
// byte slices become strings.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil, int64, float64, string, bool, time.Time:
		return x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		if x > math.MaxInt64 {
			return float64(x)
		}
		return int64(x)
	case uint:
		return Normalize(uint64(x))
	case float32:
		return float64(x)
	case *big.Int:
		if x == nil {
			return nil
		}
		if x.IsInt64() {
			return x.Int64()
		}
		f, _ := new(big.Float).SetInt(x).Float64()
		return f
	case []byte:
		return string(x)
	case interface{ Float64() float64 }:
		// DECIMAL values
		return x.Float64()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// columnType infers a column's value type from its first non-null cell,
// falling back to the store's declared type name.
func columnType(dbType string, data [][]any, col int) core.ValueType {
	for _, row := range data {
		switch row[col].(type) {
		case nil:
			continue
		case int64:
			return core.ValueInt
		case float64:
			return core.ValueFloat
		case string:
			return core.ValueString
		case bool:
			return core.ValueBool
		case time.Time:
			return core.ValueTime
		}
	}

	t := strings.ToUpper(dbType)
	switch {
	case strings.Contains(t, "INT"):
		return core.ValueInt
	case strings.Contains(t, "DOUBLE"), strings.Contains(t, "FLOAT"),
		strings.Contains(t, "DECIMAL"), strings.Contains(t, "REAL"), strings.Contains(t, "NUMERIC"):
		return core.ValueFloat
	case strings.Contains(t, "CHAR"), strings.Contains(t, "TEXT"), strings.Contains(t, "STRING"):
		return core.ValueString
	case strings.Contains(t, "BOOL"):
		return core.ValueBool
	case strings.Contains(t, "DATE"), strings.Contains(t, "TIME"):
		return core.ValueTime
	}
	return core.ValueUnknown
}
