package sales

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultPaymentMethod = "Cash"
	DefaultPaymentStatus = "Pending"
)

var (
	// ErrValidation оборачивает все ошибки входных данных.
	ErrValidation        = errors.New("sales: invalid input")
	ErrInvalidCustomerID = fmt.Errorf("%w: customer id must be a positive integer", ErrValidation)
	ErrInvalidItemID     = fmt.Errorf("%w: item id must be a positive integer", ErrValidation)
	ErrInvalidQuantity   = fmt.Errorf("%w: quantity must be a positive integer", ErrValidation)
	ErrInvalidTotal      = fmt.Errorf("%w: total must be present and non-negative", ErrValidation)
	ErrNegativeAmount    = fmt.Errorf("%w: amount paid and amount due must be non-negative", ErrValidation)

	ErrMaterialNotFound  = errors.New("sales: material not found")
	ErrCustomerNotFound  = errors.New("sales: customer not found")
	ErrInsufficientStock = errors.New("sales: insufficient stock")
)

// InsufficientStockError сообщает, сколько единиц было доступно.
type InsufficientStockError struct {
	ItemID    int64
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("sales: not enough stock for item %d: only %d units available, %d requested",
		e.ItemID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// NewSale: предлагаемая продажа. Nil-поля принимают значения по умолчанию.
type NewSale struct {
	CustomerID    int64
	ItemID        int64
	Quantity      int
	Total         *decimal.Decimal
	PaymentMethod string
	AmountPaid    *decimal.Decimal
	AmountDue     *decimal.Decimal
	PaymentStatus string
}

type Sale struct {
	OrderNo       int64
	CustomerID    int64
	ItemID        int64
	Quantity      int
	SaleDate      time.Time
	Total         decimal.Decimal
	PaymentMethod string
	AmountPaid    decimal.Decimal
	AmountDue     decimal.Decimal
	PaymentStatus string
}

// resolved: продажа после проверки и подстановки значений по умолчанию.
type resolved struct {
	total, paid, due decimal.Decimal
	method, status   string
}

// resolve проверяет поля в фиксированном порядке и подставляет значения по умолчанию:
// paid = total, если не задано; due = total - paid, если не задано.
// Если задано только одно из двух, второе выводится только по этим правилам,
// поэтому paid+due может не совпасть с total.
func (n NewSale) resolve() (resolved, error) {
	var r resolved
	if n.CustomerID <= 0 {
		return r, ErrInvalidCustomerID
	}
	if n.ItemID <= 0 {
		return r, ErrInvalidItemID
	}
	if n.Quantity <= 0 {
		return r, ErrInvalidQuantity
	}
	if n.Total == nil || n.Total.IsNegative() {
		return r, ErrInvalidTotal
	}
	r.total = *n.Total

	r.paid = r.total
	if n.AmountPaid != nil {
		r.paid = *n.AmountPaid
	}
	r.due = r.total.Sub(r.paid)
	if n.AmountDue != nil {
		r.due = *n.AmountDue
	}
	if r.paid.IsNegative() || r.due.IsNegative() {
		return r, ErrNegativeAmount
	}

	r.method = n.PaymentMethod
	if r.method == "" {
		r.method = DefaultPaymentMethod
	}
	r.status = n.PaymentStatus
	if r.status == "" {
		r.status = DefaultPaymentStatus
	}
	return r, nil
}

// Line: продажа с именами покупателя и материала для списков.
type Line struct {
	Sale
	CustomerName string
	ItemName     string
}

type PopularItem struct {
	ItemName  string
	TotalSold int64
}
