package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Spok95/buildmat/internal/infra/db"
	"github.com/Spok95/buildmat/internal/infra/metrics"
)

// Recorder проводит продажу: проверка, блокировка остатка, вставка и списание
// в одной транзакции. Либо всё, либо ничего.
type Recorder struct {
	pool            db.Pool
	log             *slog.Logger
	requireCustomer bool
	now             func() time.Time
}

type Option func(*Recorder)

// WithCustomerCheck включает проверку существования покупателя перед вставкой.
func WithCustomerCheck(on bool) Option {
	return func(r *Recorder) { r.requireCustomer = on }
}

// WithClock задаёт источник текущего времени (дата продажи берётся из него).
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

func NewRecorder(pool db.Pool, log *slog.Logger, opts ...Option) *Recorder {
	r := &Recorder{pool: pool, log: log, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Recorder) Record(ctx context.Context, in NewSale) (*Sale, error) {
	r.log.Debug("add sale called",
		"customer_id", in.CustomerID, "item_id", in.ItemID, "quantity", in.Quantity)

	start := time.Now()
	s, err := r.record(ctx, in)
	metrics.SaleRecordSeconds.Observe(time.Since(start).Seconds())

	if err != nil {
		reason := rejectReason(err)
		metrics.SalesRejected.WithLabelValues(reason).Inc()
		if reason == metrics.ReasonStore {
			r.log.Error("sale transaction rolled back", "item_id", in.ItemID, "err", err)
		} else {
			r.log.Warn("sale rejected", "reason", reason, "item_id", in.ItemID, "err", err)
		}
		return nil, err
	}

	metrics.SalesRecorded.Inc()
	metrics.UnitsSold.Add(float64(s.Quantity))
	r.log.Info("sale recorded",
		"order_no", s.OrderNo, "customer_id", s.CustomerID, "item_id", s.ItemID,
		"quantity", s.Quantity, "total", s.Total.String())
	return s, nil
}

func (r *Recorder) record(ctx context.Context, in NewSale) (*Sale, error) {
	v, err := in.resolve()
	if err != nil {
		return nil, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("sales: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if r.requireCustomer {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM customers WHERE customer_id = $1)`, in.CustomerID,
		).Scan(&exists); err != nil {
			return nil, fmt.Errorf("sales: check customer: %w", err)
		}
		if !exists {
			return nil, ErrCustomerNotFound
		}
	}

	// FOR UPDATE держит строку материала до коммита: две параллельные продажи
	// не пройдут проверку остатка одновременно.
	var stock int
	err = tx.QueryRow(ctx,
		`SELECT quantity_in_stock FROM materials WHERE id = $1 FOR UPDATE`, in.ItemID,
	).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMaterialNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sales: read stock: %w", err)
	}
	r.log.Debug("stock before sale", "item_id", in.ItemID, "stock", stock)
	if stock < in.Quantity {
		return nil, &InsufficientStockError{ItemID: in.ItemID, Available: stock, Requested: in.Quantity}
	}

	y, m, d := r.now().Date()
	s := Sale{
		CustomerID:    in.CustomerID,
		ItemID:        in.ItemID,
		Quantity:      in.Quantity,
		SaleDate:      time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Total:         v.total,
		PaymentMethod: v.method,
		AmountPaid:    v.paid,
		AmountDue:     v.due,
		PaymentStatus: v.status,
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO sales (customer_id, item_id, quantity, sale_date, total,
		                   payment_method, amount_paid, amount_due, payment_status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING order_no
	`, s.CustomerID, s.ItemID, s.Quantity, s.SaleDate, s.Total,
		s.PaymentMethod, s.AmountPaid, s.AmountDue, s.PaymentStatus,
	).Scan(&s.OrderNo)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: %v", ErrCustomerNotFound, err)
		}
		return nil, fmt.Errorf("sales: insert sale: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE materials SET quantity_in_stock = quantity_in_stock - $1 WHERE id = $2`,
		s.Quantity, s.ItemID)
	if err != nil {
		return nil, fmt.Errorf("sales: decrement stock: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return nil, fmt.Errorf("sales: decrement stock: %d rows affected", tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("sales: commit: %w", err)
	}
	r.log.Debug("stock after sale", "item_id", s.ItemID, "stock", stock-s.Quantity)
	return &s, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return metrics.ReasonValidation
	case errors.Is(err, ErrMaterialNotFound):
		return metrics.ReasonMaterialNotFound
	case errors.Is(err, ErrCustomerNotFound):
		return metrics.ReasonCustomerNotFound
	case errors.Is(err, ErrInsufficientStock):
		return metrics.ReasonInsufficientStock
	default:
		return metrics.ReasonStore
	}
}
