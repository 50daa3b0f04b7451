package materials

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("materials: not found")
	ErrNothingToUpdate = errors.New("materials: nothing to update")
	ErrReferenced      = errors.New("materials: material has sales")
	ErrUnknownSupplier = errors.New("materials: supplier does not exist")

	ErrEmptyName          = errors.New("materials: item name must not be empty")
	ErrNegativePrice      = errors.New("materials: price per unit must be >= 0")
	ErrNegativeQuantity   = errors.New("materials: quantity must be >= 0")
	ErrInvalidSupplierID  = errors.New("materials: supplier id must be positive")
	ErrNonPositiveRestock = errors.New("materials: restock quantity must be > 0")
)

type Material struct {
	ID              int64
	Name            string
	PricePerUnit    decimal.Decimal
	UnitType        string
	QuantityInStock int
	SupplierID      int64
}

type NewMaterial struct {
	Name         string
	PricePerUnit decimal.Decimal
	UnitType     string
	Quantity     int
	SupplierID   int64
}

func (m NewMaterial) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	if m.PricePerUnit.IsNegative() {
		return ErrNegativePrice
	}
	if m.Quantity < 0 {
		return ErrNegativeQuantity
	}
	if m.SupplierID <= 0 {
		return ErrInvalidSupplierID
	}
	return nil
}

// Update: частичное изменение материала, nil-поля остаются как есть.
type Update struct {
	Name         *string
	PricePerUnit *decimal.Decimal
	UnitType     *string
	Quantity     *int
	SupplierID   *int64
}

func (u Update) Empty() bool {
	return u.Name == nil && u.PricePerUnit == nil && u.UnitType == nil && u.Quantity == nil && u.SupplierID == nil
}

func (u Update) Validate() error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return ErrEmptyName
	}
	if u.PricePerUnit != nil && u.PricePerUnit.IsNegative() {
		return ErrNegativePrice
	}
	if u.Quantity != nil && *u.Quantity < 0 {
		return ErrNegativeQuantity
	}
	if u.SupplierID != nil && *u.SupplierID <= 0 {
		return ErrInvalidSupplierID
	}
	return nil
}

// LowStockItem: строка отчёта о заканчивающихся материалах.
type LowStockItem struct {
	ItemName        string
	QuantityInStock int
	UnitType        string
	SupplierID      int64
}
