package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/marcboeker/go-duckdb" // register the duckdb driver
)

// FixtureOption adjusts the generated star schema.
type FixtureOption func(*fixture)

type fixture struct {
	deliveries bool
}

// WithoutDeliveries leaves oltp_orders without delivered orders, so the
// delivery-impact query returns no rows.
func WithoutDeliveries() FixtureOption {
	return func(f *fixture) { f.deliveries = false }
}

// NewFixtureStore writes a small olist-shaped star schema to a DuckDB
// file under t.TempDir() and returns its path.
//
// The data is deterministic: 600 order lines over 400 customers in SP, RJ
// and MG (half of them buying twice), six products (one uncategorised)
// and 181 days of 2017.
func NewFixtureStore(t testing.TB, opts ...FixtureOption) string {
	t.Helper()
	f := fixture{deliveries: true}
	for _, o := range opts {
		o(&f)
	}

	path := filepath.Join(t.TempDir(), "olist_dw.duckdb")
	db, err := sql.Open("duckdb", path)
	if err != nil {
		t.Fatalf("open fixture store: %v", err)
	}
	defer func() { _ = db.Close() }()

	status := "delivered"
	if !f.deliveries {
		status = "shipped"
	}

	stmts := []string{
		`CREATE TABLE dim_customer (sk_customer INTEGER, customer_unique_id VARCHAR, customer_state VARCHAR)`,
		`INSERT INTO dim_customer
		 SELECT i, 'u' || i, (['SP', 'RJ', 'MG'])[1 + i % 3] FROM range(400) t(i)`,

		`CREATE TABLE dim_product (sk_product INTEGER, product_category_name VARCHAR)`,
		`INSERT INTO dim_product VALUES
		 (0, 'beleza_saude'), (1, 'cama_mesa_banho'), (2, 'esporte_lazer'),
		 (3, 'informatica_acessorios'), (4, 'moveis_decoracao'), (5, NULL)`,

		`CREATE TABLE dim_date (date_key DATE, year INTEGER, month INTEGER, day_name VARCHAR)`,
		`INSERT INTO dim_date
		 SELECT d, year(d), month(d), dayname(d)
		 FROM (SELECT DATE '2017-01-01' + i AS d FROM range(181) t(i))`,

		`CREATE TABLE fact_sales (
			order_id VARCHAR, sk_customer INTEGER, sk_product INTEGER, date_key DATE,
			price DOUBLE, freight_value DOUBLE, payment_value DOUBLE, payment_installments INTEGER)`,
		`INSERT INTO fact_sales
		 SELECT 'o' || i, i % 400, i % 6, DATE '2017-01-01' + (i % 181),
		        10 + i % 100, 2 + i % 30, 12 + i % 100 + i % 30, 1 + i % 12
		 FROM range(600) t(i)`,

		`CREATE TABLE oltp_orders (
			order_id VARCHAR, order_status VARCHAR,
			order_delivered_customer_date DATE, order_estimated_delivery_date DATE)`,
		`INSERT INTO oltp_orders
		 SELECT 'o' || i, '` + status + `', DATE '2017-03-10' + (i % 9 - 5), DATE '2017-03-10'
		 FROM range(600) t(i)`,

		`CREATE TABLE stg_reviews (order_id VARCHAR, review_score INTEGER)`,
		`INSERT INTO stg_reviews SELECT 'o' || i, 1 + i % 5 FROM range(600) t(i)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("build fixture store: %v\n%s", err, s)
		}
	}
	return path
}
