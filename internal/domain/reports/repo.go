package reports

import (
	"context"
	"time"

	"github.com/Spok95/buildmat/internal/domain/materials"
	"github.com/Spok95/buildmat/internal/infra/db"
)

const dashboardTopItems = 5

// Repo: агрегирующие запросы только на чтение.
type Repo struct {
	pool      db.Querier
	materials *materials.Repo
	now       func() time.Time
}

func NewRepo(pool db.Querier, now func() time.Time) *Repo {
	if now == nil {
		now = time.Now
	}
	return &Repo{pool: pool, materials: materials.NewRepo(pool), now: now}
}

func (r *Repo) today() time.Time {
	y, m, d := r.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RevenueByDay: выручка по дням за последние days дней (включая сегодня), свежие сначала.
func (r *Repo) RevenueByDay(ctx context.Context, days int) ([]DayRevenue, error) {
	if days <= 0 {
		return nil, ErrInvalidDays
	}
	since := r.today().AddDate(0, 0, -(days - 1))
	rows, err := r.pool.Query(ctx, `
		SELECT sale_date AS day, COALESCE(SUM(total), 0) AS revenue
		FROM sales
		WHERE sale_date >= $1
		GROUP BY sale_date
		ORDER BY day DESC
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []DayRevenue{}
	for rows.Next() {
		var d DayRevenue
		if err := rows.Scan(&d.Day, &d.Revenue); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// RevenuePeriod: итоги за [start, end] включительно.
func (r *Repo) RevenuePeriod(ctx context.Context, start, end time.Time) (PeriodTotals, error) {
	var t PeriodTotals
	if start.After(end) {
		return t, ErrInvalidRange
	}
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total), 0),
		       COALESCE(SUM(amount_paid), 0),
		       COALESCE(SUM(amount_due), 0)
		FROM sales
		WHERE sale_date BETWEEN $1 AND $2
	`, start, end).Scan(&t.Revenue, &t.Paid, &t.Due)
	return t, err
}

func (r *Repo) TopCustomers(ctx context.Context, limit int) ([]CustomerRevenue, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	rows, err := r.pool.Query(ctx, `
		SELECT c.customer_name, COALESCE(SUM(s.total), 0) AS revenue
		FROM sales s
		JOIN customers c ON s.customer_id = c.customer_id
		GROUP BY c.customer_name
		ORDER BY revenue DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []CustomerRevenue{}
	for rows.Next() {
		var c CustomerRevenue
		if err := rows.Scan(&c.CustomerName, &c.Revenue); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// LowStock: материалы с остатком <= threshold.
func (r *Repo) LowStock(ctx context.Context, threshold int) ([]materials.LowStockItem, error) {
	return r.materials.ListLowStock(ctx, threshold)
}

// Dashboard собирает сводку. lastNDays > 0 ограничивает выручку, долг и топ
// продажами с даты today-lastNDays.
func (r *Repo) Dashboard(ctx context.Context, threshold, lastNDays int) (*Dashboard, error) {
	d := &Dashboard{LowStockThreshold: threshold}

	for _, c := range []struct {
		q   string
		dst *int64
	}{
		{`SELECT COUNT(*) FROM customers`, &d.Customers},
		{`SELECT COUNT(*) FROM suppliers`, &d.Suppliers},
		{`SELECT COUNT(*) FROM materials`, &d.Materials},
	} {
		if err := r.pool.QueryRow(ctx, c.q).Scan(c.dst); err != nil {
			return nil, err
		}
	}

	var since *time.Time
	if lastNDays > 0 {
		d.LastNDays = lastNDays
		s := r.today().AddDate(0, 0, -lastNDays)
		since = &s
	}

	if err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total), 0),
		       COALESCE(SUM(amount_due) FILTER (WHERE amount_due > 0), 0)
		FROM sales
		WHERE $1::date IS NULL OR sale_date >= $1
	`, since).Scan(&d.TotalRevenue, &d.TotalUnpaid); err != nil {
		return nil, err
	}

	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM materials WHERE quantity_in_stock <= $1`, threshold,
	).Scan(&d.LowStockCount); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT m.item_name, SUM(s.quantity) AS total_sold
		FROM sales s JOIN materials m ON s.item_id = m.id
		WHERE $1::date IS NULL OR s.sale_date >= $1
		GROUP BY m.item_name
		ORDER BY total_sold DESC
		LIMIT $2
	`, since, dashboardTopItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it ItemSold
		if err := rows.Scan(&it.ItemName, &it.TotalSold); err != nil {
			return nil, err
		}
		d.TopItems = append(d.TopItems, it)
	}
	return d, rows.Err()
}
