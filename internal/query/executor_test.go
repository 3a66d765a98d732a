package query

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leapcharts/internal/testutil"
	"github.com/leapstack-labs/leapcharts/pkg/adapter"
	"github.com/leapstack-labs/leapcharts/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockExecutor(t *testing.T) (*Executor, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(&adapter.BaseSQLAdapter{DB: db}, testutil.NewTestLogger(t)), mock
}

func TestExecutor_Execute(t *testing.T) {
	exec, mock := newMockExecutor(t)

	rows := sqlmock.NewRows([]string{"mes_ano", "receita"}).
		AddRow("2017-01", 138488.04).
		AddRow("2017-02", 291908.01)
	mock.ExpectQuery("SELECT strftime").WillReturnRows(rows)

	tbl, err := exec.Execute(context.Background(), "SELECT strftime(date_key, '%Y-%m') AS mes_ano, SUM(payment_value) AS receita FROM fact_sales GROUP BY 1 ORDER BY 1")
	require.NoError(t, err)

	assert.Equal(t, []string{"mes_ano", "receita"}, tbl.Names())
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, core.ValueString, tbl.Fields()[0].Type)
	assert.Equal(t, core.ValueFloat, tbl.Fields()[1].Type)

	months, err := tbl.Strings("mes_ano")
	require.NoError(t, err)
	assert.Equal(t, []string{"2017-01", "2017-02"}, months, "row order must be preserved")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutor_EmptyResult(t *testing.T) {
	exec, mock := newMockExecutor(t)
	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"status", "review_score"}))

	tbl, err := exec.Execute(context.Background(), "SELECT status, review_score FROM x")
	require.NoError(t, err)
	assert.True(t, tbl.Empty())
	assert.Equal(t, []string{"status", "review_score"}, tbl.Names(), "columns survive an empty result")
}

func TestExecutor_QueryError(t *testing.T) {
	exec, mock := newMockExecutor(t)
	mock.ExpectQuery("SELECT").WillReturnError(assert.AnError)

	_, err := exec.Execute(context.Background(), "SELECT * FROM missing_table")
	require.Error(t, err)
	assert.Equal(t, core.KindQuery, core.KindOf(err))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestExecutor_RowError(t *testing.T) {
	exec, mock := newMockExecutor(t)
	rows := sqlmock.NewRows([]string{"n"}).AddRow(1).AddRow(2).RowError(1, assert.AnError)
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	_, err := exec.Execute(context.Background(), "SELECT n FROM t")
	require.Error(t, err)
	assert.Equal(t, core.KindQuery, core.KindOf(err))
}

func TestExecutor_NotConnected(t *testing.T) {
	exec := New(&adapter.BaseSQLAdapter{}, nil)
	_, err := exec.Execute(context.Background(), "SELECT 1")
	require.Error(t, err)
	assert.Equal(t, core.KindQuery, core.KindOf(err))
}

type decimal struct{ v float64 }

func (d decimal) Float64() float64 { return d.v }

func TestNormalize(t *testing.T) {
	ts := time.Date(2018, 8, 1, 0, 0, 0, 0, time.UTC)
	huge := new(big.Int).Lsh(big.NewInt(1), 70)

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"int32", int32(7), int64(7)},
		{"uint8", uint8(5), int64(5)},
		{"small big int", big.NewInt(123), int64(123)},
		{"huge big int", huge, 1180591620717411303424.0},
		{"float32", float32(0.5), 0.5},
		{"decimal", decimal{12.75}, 12.75},
		{"bytes", []byte("SP"), "SP"},
		{"time", ts, ts},
		{"bool", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestColumnType_FallsBackToDeclaredType(t *testing.T) {
	data := [][]any{{nil}, {nil}}
	assert.Equal(t, core.ValueInt, columnType("BIGINT", data, 0))
	assert.Equal(t, core.ValueFloat, columnType("DECIMAL(18,3)", data, 0))
	assert.Equal(t, core.ValueString, columnType("VARCHAR", data, 0))
	assert.Equal(t, core.ValueUnknown, columnType("", data, 0))
}
