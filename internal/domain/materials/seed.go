package materials

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// SampleCatalog: стартовый ассортимент склада стройматериалов для команды seed.
func SampleCatalog(supplierID int64) []NewMaterial {
	mk := func(name, price, unit string, qty int) NewMaterial {
		return NewMaterial{
			Name:         name,
			PricePerUnit: decimal.RequireFromString(price),
			UnitType:     unit,
			Quantity:     qty,
			SupplierID:   supplierID,
		}
	}
	return []NewMaterial{
		mk("Cement", "390.00", "quintal", 100),
		mk("Steel Rod", "4600.00", "quintal", 30),
		mk("Sand", "115.00", "quintal", 250),
		mk("Bricks", "9.00", "piece", 8000),
		mk("Concrete Blocks", "45.00", "piece", 2000),
		mk("Crushed Stone Chips", "70.00", "quintal", 180),
		mk("Plywood", "1200.00", "sheet", 250),
		mk("Marble Slab", "1500.00", "slab", 100),
		mk("Paint (20L)", "2100.00", "tin", 40),
		mk("Tiles (Box of 10)", "650.00", "box", 300),
	}
}

// Seed вставляет SampleCatalog и возвращает созданные материалы.
func (r *Repo) Seed(ctx context.Context, supplierID int64) ([]Material, error) {
	var out []Material
	for _, nm := range SampleCatalog(supplierID) {
		m, err := r.Create(ctx, nm)
		if err != nil {
			return out, fmt.Errorf("seed %q: %w", nm.Name, err)
		}
		out = append(out, *m)
	}
	return out, nil
}
