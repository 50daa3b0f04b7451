package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/Spok95/buildmat/internal/domain/materials"
)

var lowStockHeader = []string{"item_name", "quantity_in_stock", "unit_type", "supplier_id"}

// WriteLowStockCSV пишет отчёт о заканчивающихся материалах в CSV.
// Порядок строк сохраняется как есть (остаток, затем название).
func WriteLowStockCSV(w io.Writer, items []materials.LowStockItem) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(lowStockHeader); err != nil {
		return err
	}
	for _, it := range items {
		rec := []string{
			it.ItemName,
			strconv.Itoa(it.QuantityInStock),
			it.UnitType,
			strconv.FormatInt(it.SupplierID, 10),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
