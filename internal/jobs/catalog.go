package jobs

import (
	"github.com/leapstack-labs/leapcharts/internal/figure"
	"github.com/leapstack-labs/leapcharts/internal/shape"
	"github.com/leapstack-labs/leapcharts/pkg/core"
)

// Job ids.
const (
	DeliveryImpact = "delivery_impact"
	FreightRatio   = "freight_ratio"
	RetentionRate  = "retention_rate"
	CreditLeverage = "credit_leverage"
	SalesEvolution = "sales_evolution"
	TopCategories  = "top_categories"
	HeatmapGeo     = "heatmap_geo"
	Dashboard      = "dashboard"
)

// Weekdays is the canonical weekday axis.
var Weekdays = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// HeatmapStates are the states compared in the weekday heatmap.
var HeatmapStates = []string{"SP", "RJ", "MG", "RS", "PR", "SC", "BA"}

// Delivery status labels, in display order.
const (
	StatusEarly   = "Antecipado (>2 dias)"
	StatusOnTime  = "No Prazo"
	StatusDelayed = "Atrasado"
)

// Default returns the eight chart jobs in run order.
func Default() []*Job {
	return []*Job{
		deliveryImpact(),
		freightRatio(),
		retentionRate(),
		creditLeverage(),
		salesEvolution(),
		topCategories(),
		heatmapGeo(),
		dashboard(),
	}
}

// DefaultRegistry is NewRegistry(Default()).
func DefaultRegistry() *Registry {
	r, err := NewRegistry(Default())
	if err != nil {
		panic(err)
	}
	return r
}

func deliveryImpact() *Job {
	return &Job{
		ID:      DeliveryImpact,
		Ordinal: 1,
		Title:   "Boxplot: Delivery Gap",
		Queries: []Query{{Name: "reviews", SQL: `
SELECT
    (o.order_delivered_customer_date::DATE - o.order_estimated_delivery_date::DATE) AS delay_days,
    r.review_score
FROM fact_sales fs
JOIN oltp_orders o ON fs.order_id = o.order_id
JOIN stg_reviews r ON fs.order_id = r.order_id
WHERE o.order_status = 'delivered'
  AND o.order_delivered_customer_date IS NOT NULL
  AND o.order_estimated_delivery_date IS NOT NULL
  AND r.review_score IS NOT NULL`}},
		Outputs: []string{"01_delivery_impact.png"},
		Build: func(in *Input) (Result, error) {
			t, err := in.Table("reviews")
			if err != nil {
				return Result{}, err
			}
			if t.Empty() {
				return Result{}, core.ErrEmptyResult
			}

			t, err = shape.Bucket(t, "delay_days", "status_entrega", []shape.Rule{
				shape.Above(0, StatusDelayed),
				shape.Below(-2, StatusEarly),
			}, StatusOnTime)
			if err != nil {
				return Result{}, err
			}
			order := []string{StatusEarly, StatusOnTime, StatusDelayed}
			if t, err = shape.Reorder(t, "status_entrega", order); err != nil {
				return Result{}, err
			}

			status, err := t.Strings("status_entrega")
			if err != nil {
				return Result{}, core.Wrap(core.KindShape, "status_entrega", err)
			}
			scores, err := t.Floats("review_score")
			if err != nil {
				return Result{}, core.Wrap(core.KindShape, "review_score", err)
			}
			byStatus := make(map[string][]float64, len(order))
			for i, s := range status {
				byStatus[s] = append(byStatus[s], scores[i])
			}

			box := &figure.Box{
				Labels: figure.Labels{
					Title:  "Impacto do Cumprimento do Prazo no Review Score",
					XLabel: "Status da Entrega",
					YLabel: "Nota (1-5)",
				},
				Palette: "coolwarm",
			}
			for _, s := range order {
				box.Groups = append(box.Groups, figure.BoxGroup{Label: s, Values: byStatus[s]})
			}
			return Result{Figure: box, Table: t}, nil
		},
	}
}

func freightRatio() *Job {
	return &Job{
		ID:      FreightRatio,
		Ordinal: 2,
		Title:   "Barplot: Freight Ratio",
		Queries: []Query{{Name: "freight", SQL: `
SELECT
    dc.customer_state,
    fs.freight_value,
    fs.price
FROM fact_sales fs
JOIN dim_customer dc ON fs.sk_customer = dc.sk_customer`}},
		Outputs: []string{"02_freight_ratio.png"},
		Width:   1200,
		Height:  800,
		Build: func(in *Input) (Result, error) {
			t, err := in.Table("freight")
			if err != nil {
				return Result{}, err
			}
			ratios, err := shape.RatioMean(t, shape.RatioSpec{
				Group:       "customer_state",
				Numerator:   "freight_value",
				Denominator: "price",
				Scale:       100,
				MinRows:     50,
				As:          "ratio_frete",
			})
			if err != nil {
				return Result{}, core.Wrap(core.KindShape, "ratio", err)
			}

			// Horizontal bars stack upwards, so ascending puts the
			// heaviest freight on top.
			asc, err := shape.SortBy(ratios, "ratio_frete", false)
			if err != nil {
				return Result{}, err
			}
			bar, err := barFigure(asc, "customer_state", "ratio_frete", figure.Labels{
				Title:  "Peso do Frete no Custo Total por Estado",
				XLabel: "% do Frete sobre o Valor do Produto",
				YLabel: "Estado",
			})
			if err != nil {
				return Result{}, err
			}
			bar.Horizontal = true
			bar.Palette = "viridis"
			bar.RefLines = []figure.RefLine{{Value: 20, Label: "Zona de Risco (>20%)", Color: "#ff0000"}}
			return Result{Figure: bar, Table: ratios}, nil
		},
	}
}

func retentionRate() *Job {
	return &Job{
		ID:      RetentionRate,
		Ordinal: 3,
		Title:   "Donut: Retention",
		Queries: []Query{{Name: "retention", SQL: `
WITH freq AS (
    SELECT dc.customer_unique_id, COUNT(DISTINCT fs.order_id) AS qtd
    FROM fact_sales fs
    JOIN dim_customer dc ON fs.sk_customer = dc.sk_customer
    GROUP BY 1
)
SELECT
    CASE WHEN qtd = 1 THEN 'Compra Única' ELSE 'Recorrente' END AS tipo,
    COUNT(*) AS total
FROM freq
GROUP BY 1
ORDER BY 1`}},
		Outputs: []string{"03_retention_rate.png"},
		Build: func(in *Input) (Result, error) {
			t, err := in.Table("retention")
			if err != nil {
				return Result{}, err
			}
			kinds, err := t.Strings("tipo")
			if err != nil {
				return Result{}, core.Wrap(core.KindShape, "tipo", err)
			}
			totals, err := t.Floats("total")
			if err != nil {
				return Result{}, core.Wrap(core.KindShape, "total", err)
			}

			colors := []string{"#ff9999", "#66b3ff"}
			pie := &figure.Pie{
				Labels: figure.Labels{Title: "Share de Clientes: Únicos vs Recorrentes"},
				Hole:   0.7,
			}
			for i, k := range kinds {
				pie.Slices = append(pie.Slices, figure.Slice{Label: k, Value: totals[i], Color: colors[i%len(colors)]})
			}
			return Result{Figure: pie, Table: t}, nil
		},
	}
}

func creditLeverage() *Job {
	return &Job{
		ID:      CreditLeverage,
		Ordinal: 4,
		Title:   "Lineplot: Credit",
		Queries: []Query{{Name: "installments", SQL: `
SELECT
    payment_installments,
    AVG(payment_value) AS ticket_medio
FROM fact_sales
WHERE payment_installments BETWEEN 1 AND 12
GROUP BY 1
ORDER BY 1`}},
		Outputs: []string{"04_credit_leverage.png"},
		Build: func(in *Input) (Result, error) {
			t, err := in.Table("installments")
			if err != nil {
				return Result{}, err
			}
			x, err := t.Floats("payment_installments")
			if err != nil {
				return Result{}, core.Wrap(core.KindShape, "payment_installments", err)
			}
			y, err := t.Floats("ticket_medio")
			if err != nil {
				return Result{}, core.Wrap(core.KindShape, "ticket_medio", err)
			}

			ticks := make([]float64, 12)
			for i := range ticks {
				ticks[i] = float64(i + 1)
			}
			return Result{Table: t, Figure: &figure.Line{
				Labels: figure.Labels{
					Title:  "Ticket Médio por Número de Parcelas",
					XLabel: "Parcelas",
					YLabel: "Valor Médio do Pedido (R$)",
				},
				X:       x,
				Y:       y,
				Ticks:   ticks,
				Markers: true,
				Fill:    0.1,
			}}, nil
		},
	}
}

func salesEvolution() *Job {
	return &Job{
		ID:      SalesEvolution,
		Ordinal: 5,
		Title:   "Line: Sales Evolution",
		Queries: []Query{{Name: "revenue", SQL: `
SELECT
    strftime(date_key, '%Y-%m') AS mes_ano,
    SUM(payment_value) AS receita
FROM fact_sales
GROUP BY 1
ORDER BY 1`}},
		Outputs: []string{"obrigatorio_1_evolucao_vendas.html", "obrigatorio_1_evolucao_vendas.png"},
		Build: func(in *Input) (Result, error) {
			t, err := in.Table("revenue")
			if err != nil {
				return Result{}, err
			}
			line, err := revenueLine(t)
			if err != nil {
				return Result{}, err
			}
			line.Labels = figure.Labels{
				Title:  "Evolução da Receita Mensal (GMV)",
				XLabel: "Mês",
				YLabel: "Receita (R$)",
			}
			line.Markers = true
			return Result{Figure: line, Table: t}, nil
		},
	}
}

func topCategories() *Job {
	return &Job{
		ID:      TopCategories,
		Ordinal: 6,
		Title:   "Bar: Top Categories",
		Queries: []Query{{Name: "categories", SQL: `
SELECT
    dp.product_category_name AS categoria,
    SUM(fs.payment_value) AS receita
FROM fact_sales fs
JOIN dim_product dp ON fs.sk_product = dp.sk_product
WHERE dp.product_category_name IS NOT NULL
GROUP BY 1
ORDER BY 2 DESC
LIMIT 10`}},
		Outputs: []string{"obrigatorio_2_top_categorias.html", "obrigatorio_2_top_categorias.png"},
		Build: func(in *Input) (Result, error) {
			t, err := in.Table("categories")
			if err != nil {
				return Result{}, err
			}
			asc, err := shape.SortBy(t, "receita", false)
			if err != nil {
				return Result{}, err
			}
			bar, err := barFigure(asc, "categoria", "receita", figure.Labels{
				Title:  "Top 10 Categorias por Faturamento",
				XLabel: "receita",
				YLabel: "categoria",
			})
			if err != nil {
				return Result{}, err
			}
			bar.Horizontal = true
			bar.ValueLabels = true
			return Result{Figure: bar, Table: t}, nil
		},
	}
}

func heatmapGeo() *Job {
	return &Job{
		ID:      HeatmapGeo,
		Ordinal: 7,
		Title:   "Heatmap: State vs Weekday",
		Queries: []Query{{Name: "weekday_sales", SQL: `
SELECT
    dc.customer_state AS estado,
    dd.day_name AS dia_semana,
    COUNT(fs.order_id) AS qtd_vendas
FROM fact_sales fs
JOIN dim_customer dc ON fs.sk_customer = dc.sk_customer
JOIN dim_date dd ON fs.date_key = dd.date_key
WHERE dc.customer_state IN ('SP', 'RJ', 'MG', 'RS', 'PR', 'SC', 'BA')
GROUP BY 1, 2
ORDER BY 1, 2`}},
		Outputs: []string{"obrigatorio_3_heatmap.html", "obrigatorio_3_heatmap.png"},
		Build: func(in *Input) (Result, error) {
			t, err := in.Table("weekday_sales")
			if err != nil {
				return Result{}, err
			}
			m, err := shape.Pivot(t, "estado", "dia_semana", "qtd_vendas", shape.PivotOptions{
				Columns:  Weekdays,
				FillZero: true,
			})
			if err != nil {
				return Result{}, err
			}
			return Result{Table: t, Figure: &figure.Heatmap{
				Labels: figure.Labels{
					Title:  "Concentração de Vendas: Estado vs Dia da Semana",
					XLabel: "Dia",
					YLabel: "Estado",
				},
				ValueLabel: "Vendas",
				Rows:       m.RowKeys,
				Cols:       m.ColKeys,
				Cells:      m.Cells,
			}}, nil
		},
	}
}

func dashboard() *Job {
	return &Job{
		ID:       Dashboard,
		Ordinal:  8,
		Title:    "Dashboard",
		Requires: []string{SalesEvolution, TopCategories},
		Queries: []Query{
			{Name: "price_freight", SQL: `
SELECT price, freight_value
FROM fact_sales
WHERE price < 2000 AND freight_value < 200`},
			{Name: "state_volume", SQL: `
SELECT dc.customer_state, COUNT(*) AS qtd
FROM fact_sales fs
JOIN dim_customer dc ON fs.sk_customer = dc.sk_customer
GROUP BY 1
ORDER BY 2 DESC, 1
LIMIT 5`},
		},
		Outputs: []string{"dashboard_completo.html", "obrigatorio_4_dashboard.png"},
		Width:   1200,
		Height:  800,
		Build:   buildDashboard,
	}
}

func buildDashboard(in *Input) (Result, error) {
	revenue, err := in.Prereq(SalesEvolution)
	if err != nil {
		return Result{}, err
	}
	categories, err := in.Prereq(TopCategories)
	if err != nil {
		return Result{}, err
	}
	points, err := in.Table("price_freight")
	if err != nil {
		return Result{}, err
	}
	states, err := in.Table("state_volume")
	if err != nil {
		return Result{}, err
	}

	line, err := revenueLine(revenue)
	if err != nil {
		return Result{}, err
	}
	catBar, err := barFigure(categories, "categoria", "receita", figure.Labels{})
	if err != nil {
		return Result{}, err
	}
	stateBar, err := barFigure(states, "customer_state", "qtd", figure.Labels{})
	if err != nil {
		return Result{}, err
	}

	sample := shape.Sample(points, in.SampleSize, in.Rand)
	x, err := sample.Floats("price")
	if err != nil {
		return Result{}, core.Wrap(core.KindShape, "price", err)
	}
	y, err := sample.Floats("freight_value")
	if err != nil {
		return Result{}, core.Wrap(core.KindShape, "freight_value", err)
	}

	return Result{Figure: &figure.Composite{
		Title: "Dashboard Executivo Olist",
		Rows:  2,
		Cols:  2,
		Panels: []figure.Panel{
			{Title: "Evolução Receita", Figure: line},
			{Title: "Top Categorias", Figure: catBar},
			{Title: "Scatter: Frete vs Preço", Figure: &figure.Scatter{X: x, Y: y, MarkerSize: 4, Opacity: 0.5}},
			{Title: "Vol. por Estado", Figure: stateBar},
		},
	}}, nil
}

// revenueLine plots monthly revenue over a category axis of months.
func revenueLine(t *core.Table) (*figure.Line, error) {
	months, err := t.Strings("mes_ano")
	if err != nil {
		return nil, core.Wrap(core.KindShape, "mes_ano", err)
	}
	revenue, err := t.Floats("receita")
	if err != nil {
		return nil, core.Wrap(core.KindShape, "receita", err)
	}
	x := make([]float64, len(months))
	for i := range x {
		x[i] = float64(i)
	}
	return &figure.Line{X: x, Y: revenue, XCategories: months}, nil
}

// barFigure builds one bar per row, labelled by the category column.
func barFigure(t *core.Table, category, value string, labels figure.Labels) (*figure.Bar, error) {
	cats, err := t.Strings(category)
	if err != nil {
		return nil, core.Wrap(core.KindShape, category, err)
	}
	vals, err := t.Floats(value)
	if err != nil {
		return nil, core.Wrap(core.KindShape, value, err)
	}
	return &figure.Bar{Labels: labels, Categories: cats, Values: vals}, nil
}
