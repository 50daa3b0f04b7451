package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/buildmat/internal/domain/materials"
)

var ErrEmptyWorkbook = errors.New("export: workbook has no data rows")

// RowError: строка файла, которую не удалось разобрать или применить.
type RowError struct {
	Row int // номер строки в Excel, начиная с 1
	Err error
}

func (e RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }

// ParsedRow: материал из файла вместе с номером строки.
type ParsedRow struct {
	Row      int
	Material materials.NewMaterial
}

// ReadMaterialsXLSX читает первый лист: item_name, price_per_unit,
// unit_type, quantity_in_stock, supplier_id. Пустые строки пропускаются,
// битые попадают в rowErrs, остальные возвращаются.
func ReadMaterialsXLSX(r io.Reader) (parsed []ParsedRow, rowErrs []RowError, err error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) < 2 {
		return nil, nil, ErrEmptyWorkbook
	}

	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}
		m, perr := parseMaterialRow(row)
		if perr != nil {
			rowErrs = append(rowErrs, RowError{Row: i + 1, Err: perr})
			continue
		}
		parsed = append(parsed, ParsedRow{Row: i + 1, Material: m})
	}
	return parsed, rowErrs, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseMaterialRow(row []string) (materials.NewMaterial, error) {
	var m materials.NewMaterial
	if len(row) < len(materialsHeader) {
		return m, fmt.Errorf("expected %d columns, got %d", len(materialsHeader), len(row))
	}
	m.Name = strings.TrimSpace(row[0])
	m.UnitType = strings.TrimSpace(row[2])

	price, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(row[1]), ",", "."))
	if err != nil {
		return m, fmt.Errorf("price_per_unit %q: not a number", row[1])
	}
	m.PricePerUnit = price

	qty, err := strconv.Atoi(strings.TrimSpace(row[3]))
	if err != nil {
		return m, fmt.Errorf("quantity_in_stock %q: not an integer", row[3])
	}
	m.Quantity = qty

	sid, err := strconv.ParseInt(strings.TrimSpace(row[4]), 10, 64)
	if err != nil {
		return m, fmt.Errorf("supplier_id %q: not an integer", row[4])
	}
	m.SupplierID = sid

	return m, m.Validate()
}

// MaterialStore: то, что нужно импорту от materials.Repo.
type MaterialStore interface {
	SearchByName(ctx context.Context, q string) ([]materials.Material, error)
	Create(ctx context.Context, in materials.NewMaterial) (*materials.Material, error)
	Update(ctx context.Context, id int64, u materials.Update) (*materials.Material, error)
}

type ImportResult struct {
	Created   int
	Updated   int
	Unchanged int
	Failed    []RowError
}

// ApplyImport заводит новые материалы, а существующие (совпадение названия
// без учёта регистра) приводит к значениям из файла: quantity_in_stock в файле
// это остаток, а не приход. Ошибка одной строки не останавливает остальные.
func ApplyImport(ctx context.Context, store MaterialStore, rows []ParsedRow) (ImportResult, error) {
	var res ImportResult
	for _, pr := range rows {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		existing, err := findExact(ctx, store, pr.Material.Name)
		if err != nil {
			res.Failed = append(res.Failed, RowError{Row: pr.Row, Err: err})
			continue
		}
		if existing == nil {
			if _, err := store.Create(ctx, pr.Material); err != nil {
				res.Failed = append(res.Failed, RowError{Row: pr.Row, Err: err})
				continue
			}
			res.Created++
			continue
		}
		u := diff(*existing, pr.Material)
		if u.Empty() {
			res.Unchanged++
			continue
		}
		if _, err := store.Update(ctx, existing.ID, u); err != nil {
			res.Failed = append(res.Failed, RowError{Row: pr.Row, Err: err})
			continue
		}
		res.Updated++
	}
	return res, nil
}

// diff собирает Update только из отличающихся полей. Название не трогаем.
func diff(cur materials.Material, in materials.NewMaterial) materials.Update {
	var u materials.Update
	if !cur.PricePerUnit.Equal(in.PricePerUnit) {
		price := in.PricePerUnit
		u.PricePerUnit = &price
	}
	if cur.UnitType != in.UnitType {
		unit := in.UnitType
		u.UnitType = &unit
	}
	if cur.QuantityInStock != in.Quantity {
		qty := in.Quantity
		u.Quantity = &qty
	}
	if cur.SupplierID != in.SupplierID {
		sid := in.SupplierID
		u.SupplierID = &sid
	}
	return u
}

func findExact(ctx context.Context, store MaterialStore, name string) (*materials.Material, error) {
	found, err := store.SearchByName(ctx, name)
	if err != nil {
		return nil, err
	}
	for i := range found {
		if strings.EqualFold(found[i].Name, name) {
			return &found[i], nil
		}
	}
	return nil, nil
}
