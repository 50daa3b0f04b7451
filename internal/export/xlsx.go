package export

import (
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/buildmat/internal/domain/materials"
	"github.com/Spok95/buildmat/internal/domain/sales"
)

// materialsHeader: колонки выгрузки и загрузки материалов.
var materialsHeader = []interface{}{
	"item_name",
	"price_per_unit",
	"unit_type",
	"quantity_in_stock",
	"supplier_id",
}

func writeSheet(w io.Writer, header []interface{}, rows [][]interface{}) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return err
		}
	}
	_, err := f.WriteTo(w)
	return err
}

// WriteLowStockXLSX: тот же отчёт, что и CSV, но одним листом Excel.
func WriteLowStockXLSX(w io.Writer, items []materials.LowStockItem) error {
	header := make([]interface{}, len(lowStockHeader))
	for i, h := range lowStockHeader {
		header[i] = h
	}
	rows := make([][]interface{}, 0, len(items))
	for _, it := range items {
		rows = append(rows, []interface{}{it.ItemName, it.QuantityInStock, it.UnitType, it.SupplierID})
	}
	return writeSheet(w, header, rows)
}

// WriteMaterialsXLSX выгружает каталог в формате, который понимает ReadMaterialsXLSX.
func WriteMaterialsXLSX(w io.Writer, list []materials.Material) error {
	rows := make([][]interface{}, 0, len(list))
	for _, m := range list {
		rows = append(rows, []interface{}{
			m.Name,
			m.PricePerUnit.StringFixed(2),
			m.UnitType,
			m.QuantityInStock,
			m.SupplierID,
		})
	}
	return writeSheet(w, materialsHeader, rows)
}

// WriteSalesXLSX выгружает журнал продаж.
func WriteSalesXLSX(w io.Writer, lines []sales.Line) error {
	header := []interface{}{
		"order_no", "sale_date", "customer", "item", "quantity",
		"total", "payment_method", "amount_paid", "amount_due", "payment_status",
	}
	rows := make([][]interface{}, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, []interface{}{
			l.OrderNo,
			l.SaleDate.Format("2006-01-02"),
			l.CustomerName,
			l.ItemName,
			l.Quantity,
			l.Total.StringFixed(2),
			l.PaymentMethod,
			l.AmountPaid.StringFixed(2),
			l.AmountDue.StringFixed(2),
			l.PaymentStatus,
		})
	}
	return writeSheet(w, header, rows)
}
