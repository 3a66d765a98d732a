package jobs

import (
	"errors"
	"testing"

	"github.com/leapstack-labs/leapcharts/internal/figure"
	"github.com/leapstack-labs/leapcharts/internal/shape"
	"github.com/leapstack-labs/leapcharts/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func table(names []string, rows ...[]any) *core.Table {
	fields := make([]core.Field, len(names))
	for i, n := range names {
		fields[i] = core.Field{Name: n}
	}
	return core.MustTable(fields, rows)
}

func build(t *testing.T, id string, in *Input) Result {
	t.Helper()
	j, ok := DefaultRegistry().Get(id)
	require.True(t, ok)
	res, err := j.Build(in)
	require.NoError(t, err)
	require.NotNil(t, res.Figure)
	return res
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	require.Equal(t, 8, r.Len())

	var ids, outputs []string
	for _, j := range r.Jobs() {
		ids = append(ids, j.ID)
		outputs = append(outputs, j.Outputs...)
	}
	assert.Equal(t, []string{
		DeliveryImpact, FreightRatio, RetentionRate, CreditLeverage,
		SalesEvolution, TopCategories, HeatmapGeo, Dashboard,
	}, ids)
	assert.Equal(t, []string{
		"01_delivery_impact.png",
		"02_freight_ratio.png",
		"03_retention_rate.png",
		"04_credit_leverage.png",
		"obrigatorio_1_evolucao_vendas.html", "obrigatorio_1_evolucao_vendas.png",
		"obrigatorio_2_top_categorias.html", "obrigatorio_2_top_categorias.png",
		"obrigatorio_3_heatmap.html", "obrigatorio_3_heatmap.png",
		"dashboard_completo.html", "obrigatorio_4_dashboard.png",
	}, outputs)

	assert.Equal(t, []string{SalesEvolution, TopCategories}, r.Graph().Parents(Dashboard))
}

func TestRegistry_Select(t *testing.T) {
	r := DefaultRegistry()

	sel, err := r.Select(Dashboard)
	require.NoError(t, err)
	var ids []string
	for _, j := range sel {
		ids = append(ids, j.ID)
	}
	assert.Equal(t, []string{SalesEvolution, TopCategories, Dashboard}, ids)

	all, err := r.Select()
	require.NoError(t, err)
	assert.Len(t, all, 8)

	_, err = r.Select("nope")
	require.Error(t, err)
}

func TestNewRegistry_Invalid(t *testing.T) {
	ok := func(in *Input) (Result, error) { return Result{}, nil }
	tests := []struct {
		name    string
		jobs    []*Job
		wantErr string
	}{
		{
			name:    "missing id",
			jobs:    []*Job{{Ordinal: 1, Build: ok, Outputs: []string{"a.png"}}},
			wantErr: "no id",
		},
		{
			name: "duplicate id",
			jobs: []*Job{
				{ID: "a", Ordinal: 1, Build: ok, Outputs: []string{"a.png"}},
				{ID: "a", Ordinal: 2, Build: ok, Outputs: []string{"b.png"}},
			},
			wantErr: "duplicate job id",
		},
		{
			name:    "bad ordinal",
			jobs:    []*Job{{ID: "a", Ordinal: 3, Build: ok, Outputs: []string{"a.png"}}},
			wantErr: "ordinal",
		},
		{
			name:    "no build",
			jobs:    []*Job{{ID: "a", Ordinal: 1, Outputs: []string{"a.png"}}},
			wantErr: "no build",
		},
		{
			name:    "unsupported output",
			jobs:    []*Job{{ID: "a", Ordinal: 1, Build: ok, Outputs: []string{"a.svg"}}},
			wantErr: "unsupported artifact format",
		},
		{
			name:    "nested output",
			jobs:    []*Job{{ID: "a", Ordinal: 1, Build: ok, Outputs: []string{"sub/a.png"}}},
			wantErr: "bare file name",
		},
		{
			name: "shared output",
			jobs: []*Job{
				{ID: "a", Ordinal: 1, Build: ok, Outputs: []string{"a.png"}},
				{ID: "b", Ordinal: 2, Build: ok, Outputs: []string{"a.png"}},
			},
			wantErr: "written by both",
		},
		{
			name: "prerequisite after dependent",
			jobs: []*Job{
				{ID: "a", Ordinal: 1, Build: ok, Outputs: []string{"a.png"}, Requires: []string{"b"}},
				{ID: "b", Ordinal: 2, Build: ok, Outputs: []string{"b.png"}},
			},
			wantErr: "not defined before it",
		},
		{
			name:    "self dependency",
			jobs:    []*Job{{ID: "a", Ordinal: 1, Build: ok, Outputs: []string{"a.png"}, Requires: []string{"a"}}},
			wantErr: "not defined before it",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.jobs)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDeliveryImpact(t *testing.T) {
	reviews := table([]string{"delay_days", "review_score"},
		[]any{int64(3), int64(1)},
		[]any{int64(0), int64(5)},
		[]any{int64(-5), int64(5)},
		[]any{int64(-2), int64(4)},
		[]any{int64(1), int64(2)},
	)
	res := build(t, DeliveryImpact, &Input{Tables: map[string]*core.Table{"reviews": reviews}})

	box, ok := res.Figure.(*figure.Box)
	require.True(t, ok)
	require.Len(t, box.Groups, 3)
	assert.Equal(t, StatusEarly, box.Groups[0].Label)
	assert.Equal(t, []float64{5}, box.Groups[0].Values)
	assert.Equal(t, StatusOnTime, box.Groups[1].Label)
	assert.Equal(t, []float64{5, 4}, box.Groups[1].Values)
	assert.Equal(t, StatusDelayed, box.Groups[2].Label)
	assert.Equal(t, []float64{1, 2}, box.Groups[2].Values)
}

func TestDeliveryImpact_EmptyIsSkipped(t *testing.T) {
	j, _ := DefaultRegistry().Get(DeliveryImpact)
	_, err := j.Build(&Input{Tables: map[string]*core.Table{"reviews": table([]string{"delay_days", "review_score"})}})
	require.ErrorIs(t, err, core.ErrEmptyResult)
}

func TestFreightRatio(t *testing.T) {
	var rows [][]any
	for i := 0; i < 51; i++ {
		rows = append(rows, []any{"RR", 30.0, 100.0}, []any{"SP", 10.0, 100.0})
	}
	rows = append(rows, []any{"SP", 5.0, 0.0}) // zero price never divides
	for i := 0; i < 50; i++ {
		rows = append(rows, []any{"AC", 90.0, 100.0}) // at the threshold, dropped
	}
	res := build(t, FreightRatio, &Input{Tables: map[string]*core.Table{
		"freight": table([]string{"customer_state", "freight_value", "price"}, rows...),
	}})

	bar := res.Figure.(*figure.Bar)
	assert.True(t, bar.Horizontal)
	assert.Equal(t, []string{"SP", "RR"}, bar.Categories)
	assert.InDeltaSlice(t, []float64{10, 30}, bar.Values, 1e-9)
	require.Len(t, bar.RefLines, 1)
	assert.Equal(t, 20.0, bar.RefLines[0].Value)
	assert.Equal(t, "Zona de Risco (>20%)", bar.RefLines[0].Label)

	// The published table keeps the descending order.
	states, _ := res.Table.Strings("customer_state")
	assert.Equal(t, []string{"RR", "SP"}, states)
}

func TestRetentionRate(t *testing.T) {
	res := build(t, RetentionRate, &Input{Tables: map[string]*core.Table{
		"retention": table([]string{"tipo", "total"}, []any{"Compra Única", int64(90)}, []any{"Recorrente", int64(10)}),
	}})

	pie := res.Figure.(*figure.Pie)
	assert.Greater(t, pie.Hole, 0.0)
	require.Len(t, pie.Slices, 2)
	assert.Equal(t, "#ff9999", pie.Slices[0].Color)
	assert.Equal(t, "#66b3ff", pie.Slices[1].Color)
	assert.Equal(t, 90.0, pie.Slices[0].Value)
}

func TestCreditLeverage(t *testing.T) {
	res := build(t, CreditLeverage, &Input{Tables: map[string]*core.Table{
		"installments": table([]string{"payment_installments", "ticket_medio"},
			[]any{int64(1), 100.0}, []any{int64(2), 150.5}),
	}})

	line := res.Figure.(*figure.Line)
	assert.Equal(t, []float64{1, 2}, line.X)
	assert.Equal(t, []float64{100, 150.5}, line.Y)
	assert.Len(t, line.Ticks, 12)
	assert.Equal(t, 0.1, line.Fill)
	assert.True(t, line.Markers)
}

func TestTopCategories(t *testing.T) {
	cats := table([]string{"categoria", "receita"},
		[]any{"beleza_saude", 1.3e6}, []any{"relogios_presentes", 1.2e6}, []any{"cama_mesa_banho", 1.1e6})
	res := build(t, TopCategories, &Input{Tables: map[string]*core.Table{"categories": cats}})

	bar := res.Figure.(*figure.Bar)
	assert.True(t, bar.Horizontal)
	assert.True(t, bar.ValueLabels)
	assert.Equal(t, []string{"cama_mesa_banho", "relogios_presentes", "beleza_saude"}, bar.Categories)
	assert.Same(t, cats, res.Table, "the query result is published unchanged")
}

func TestHeatmapGeo_ZeroFilledWeekdays(t *testing.T) {
	long := table([]string{"estado", "dia_semana", "qtd_vendas"},
		[]any{"MG", "Monday", int64(4)},
		[]any{"RJ", "Saturday", int64(2)},
		[]any{"SP", "Sunday", int64(9)},
		[]any{"SP", "Friday", int64(7)},
	)
	res := build(t, HeatmapGeo, &Input{Tables: map[string]*core.Table{"weekday_sales": long}})

	hm := res.Figure.(*figure.Heatmap)
	assert.Equal(t, []string{"MG", "RJ", "SP"}, hm.Rows)
	assert.Equal(t, Weekdays, hm.Cols)
	require.Len(t, hm.Cells, 3)
	assert.Equal(t, []float64{0, 4, 0, 0, 0, 0, 0}, hm.Cells[0])
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0, 2}, hm.Cells[1])
	assert.Equal(t, []float64{9, 0, 0, 0, 0, 7, 0}, hm.Cells[2])
}

func TestHeatmapGeo_DuplicateKeys(t *testing.T) {
	long := table([]string{"estado", "dia_semana", "qtd_vendas"},
		[]any{"SP", "Monday", int64(1)},
		[]any{"SP", "Monday", int64(2)},
	)
	j, _ := DefaultRegistry().Get(HeatmapGeo)
	_, err := j.Build(&Input{Tables: map[string]*core.Table{"weekday_sales": long}})
	require.Error(t, err)
	assert.Equal(t, core.KindShape, core.KindOf(err))
}

func dashboardInput(points int) *Input {
	var rows [][]any
	for i := 0; i < points; i++ {
		rows = append(rows, []any{float64(i), float64(i % 50)})
	}
	return &Input{
		Tables: map[string]*core.Table{
			"price_freight": table([]string{"price", "freight_value"}, rows...),
			"state_volume":  table([]string{"customer_state", "qtd"}, []any{"SP", int64(40)}, []any{"RJ", int64(12)}),
		},
		Prereqs: map[string]*core.Table{
			SalesEvolution: table([]string{"mes_ano", "receita"}, []any{"2017-01", 10.0}, []any{"2017-02", 20.0}),
			TopCategories:  table([]string{"categoria", "receita"}, []any{"a", 5.0}),
		},
		Rand:       shape.NewRand(7),
		SampleSize: 100,
	}
}

func TestDashboard(t *testing.T) {
	res := build(t, Dashboard, dashboardInput(250))

	c := res.Figure.(*figure.Composite)
	assert.Equal(t, "Dashboard Executivo Olist", c.Title)
	assert.Equal(t, 2, c.Rows)
	assert.Equal(t, 2, c.Cols)
	require.Len(t, c.Panels, 4)
	assert.False(t, c.ShowLegend)

	sc := c.Panels[2].Figure.(*figure.Scatter)
	assert.Len(t, sc.X, 100, "point cloud is bounded by the sample size")
	for i := 1; i < len(sc.X); i++ {
		assert.Less(t, sc.X[i-1], sc.X[i], "sampled rows keep their order")
	}

	line := c.Panels[0].Figure.(*figure.Line)
	assert.Equal(t, []string{"2017-01", "2017-02"}, line.XCategories)
	states := c.Panels[3].Figure.(*figure.Bar)
	assert.Equal(t, []string{"SP", "RJ"}, states.Categories)
}

func TestDashboard_MissingPrerequisite(t *testing.T) {
	in := dashboardInput(10)
	delete(in.Prereqs, TopCategories)

	j, _ := DefaultRegistry().Get(Dashboard)
	_, err := j.Build(in)
	require.Error(t, err)
	assert.Equal(t, core.KindMissingPrerequisite, core.KindOf(err))

	var ce *core.Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, TopCategories, ce.Op)
}

func TestSalesEvolution_NonNumericRevenue(t *testing.T) {
	j, _ := DefaultRegistry().Get(SalesEvolution)
	_, err := j.Build(&Input{Tables: map[string]*core.Table{
		"revenue": table([]string{"mes_ano", "receita"}, []any{"2017-01", nil}),
	}})
	require.Error(t, err)
	assert.Equal(t, core.KindShape, core.KindOf(err))
}
