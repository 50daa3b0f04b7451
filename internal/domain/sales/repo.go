package sales

import (
	"context"
	"errors"

	"github.com/Spok95/buildmat/internal/infra/db"
)

var ErrInvalidLimit = errors.New("sales: limit must be a positive integer")

// Repo: чтение продаж; запись идёт только через Recorder.
type Repo struct{ pool db.Querier }

func NewRepo(pool db.Querier) *Repo { return &Repo{pool: pool} }

// List возвращает продажи с именами покупателя и материала по порядку номеров.
func (r *Repo) List(ctx context.Context) ([]Line, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.order_no, s.customer_id, s.item_id, c.customer_name, m.item_name,
		       s.quantity, s.sale_date, s.total, s.payment_method,
		       s.amount_paid, s.amount_due, s.payment_status
		FROM sales s
		JOIN customers c ON s.customer_id = c.customer_id
		JOIN materials m ON s.item_id = m.id
		ORDER BY s.order_no
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(
			&l.OrderNo, &l.CustomerID, &l.ItemID, &l.CustomerName, &l.ItemName,
			&l.Quantity, &l.SaleDate, &l.Total, &l.PaymentMethod,
			&l.AmountPaid, &l.AmountDue, &l.PaymentStatus,
		); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// PopularItems: самые продаваемые материалы по суммарному количеству.
func (r *Repo) PopularItems(ctx context.Context, limit int) ([]PopularItem, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	rows, err := r.pool.Query(ctx, `
		SELECT m.item_name, SUM(s.quantity) AS total_sold
		FROM sales s JOIN materials m ON s.item_id = m.id
		GROUP BY m.item_name
		ORDER BY total_sold DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PopularItem
	for rows.Next() {
		var p PopularItem
		if err := rows.Scan(&p.ItemName, &p.TotalSold); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
