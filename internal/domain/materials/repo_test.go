package materials

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cols = []string{"id", "item_name", "price_per_unit", "unit_type", "quantity_in_stock", "supplier_id"}

// decimalArg сравнивает decimal-аргументы по значению, а не по внутреннему представлению.
type decimalArg struct{ want decimal.Decimal }

func (a decimalArg) Match(v any) bool {
	d, ok := v.(decimal.Decimal)
	return ok && d.Equal(a.want)
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestCreate(t *testing.T) {
	mock := newMock(t)
	price := decimal.RequireFromString("390.00")
	mock.ExpectQuery("INSERT INTO materials").
		WithArgs("Cement", decimalArg{price}, "quintal", 100, int64(1)).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(int64(1), "Cement", price, "quintal", 100, int64(1)))

	m, err := NewRepo(mock).Create(context.Background(), NewMaterial{
		Name: "Cement", PricePerUnit: price, UnitType: "quintal", Quantity: 100, SupplierID: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.ID)
	assert.True(t, m.PricePerUnit.Equal(decimal.NewFromInt(390)))
	assert.Equal(t, 100, m.QuantityInStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UnknownSupplier(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("INSERT INTO materials").
		WithArgs("Sand", pgxmock.AnyArg(), "quintal", 250, int64(77)).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	_, err := NewRepo(mock).Create(context.Background(), NewMaterial{
		Name: "Sand", PricePerUnit: decimal.NewFromInt(115), UnitType: "quintal", Quantity: 250, SupplierID: 77,
	})
	assert.ErrorIs(t, err, ErrUnknownSupplier)
}

func TestNewMaterial_Validate(t *testing.T) {
	base := NewMaterial{Name: "Bricks", PricePerUnit: decimal.NewFromInt(9), UnitType: "piece", Quantity: 8000, SupplierID: 1}
	tests := []struct {
		name   string
		mutate func(*NewMaterial)
		want   error
	}{
		{"valid", func(*NewMaterial) {}, nil},
		{"zero stock allowed", func(m *NewMaterial) { m.Quantity = 0 }, nil},
		{"empty name", func(m *NewMaterial) { m.Name = "  " }, ErrEmptyName},
		{"negative price", func(m *NewMaterial) { m.PricePerUnit = decimal.NewFromInt(-1) }, ErrNegativePrice},
		{"negative quantity", func(m *NewMaterial) { m.Quantity = -5 }, ErrNegativeQuantity},
		{"no supplier", func(m *NewMaterial) { m.SupplierID = 0 }, ErrInvalidSupplierID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := base
			tt.mutate(&m)
			err := m.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestUpdate_PriceOnly(t *testing.T) {
	mock := newMock(t)
	price := decimal.NewFromInt(400)
	mock.ExpectQuery(`UPDATE materials SET price_per_unit=\$1 WHERE id=\$2`).
		WithArgs(decimalArg{price}, int64(1)).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(int64(1), "Cement", price, "quintal", 90, int64(1)))

	m, err := NewRepo(mock).Update(context.Background(), 1, Update{PricePerUnit: &price})
	require.NoError(t, err)
	assert.Equal(t, 90, m.QuantityInStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_RejectsNegativeStock(t *testing.T) {
	mock := newMock(t)
	q := -1
	_, err := NewRepo(mock).Update(context.Background(), 1, Update{Quantity: &q})
	assert.ErrorIs(t, err, ErrNegativeQuantity)

	_, err = NewRepo(mock).Update(context.Background(), 1, Update{})
	assert.ErrorIs(t, err, ErrNothingToUpdate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListLowStock_InclusiveThreshold(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`WHERE quantity_in_stock <= \$1\s+ORDER BY quantity_in_stock, item_name`).
		WithArgs(30).
		WillReturnRows(pgxmock.NewRows([]string{"item_name", "quantity_in_stock", "unit_type", "supplier_id"}).
			AddRow("Steel Rod", 30, "quintal", int64(1)))

	items, err := NewRepo(mock).ListLowStock(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, []LowStockItem{{ItemName: "Steel Rod", QuantityInStock: 30, UnitType: "quintal", SupplierID: 1}}, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetStockAndRestock(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("SELECT quantity_in_stock FROM materials").
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"quantity_in_stock"}))
	mock.ExpectQuery("UPDATE materials SET quantity_in_stock = quantity_in_stock \\+ \\$2").
		WithArgs(int64(1), 10).
		WillReturnRows(pgxmock.NewRows([]string{"quantity_in_stock"}).AddRow(100))

	repo := NewRepo(mock)
	_, err := repo.GetStock(context.Background(), 5)
	assert.ErrorIs(t, err, ErrNotFound)

	stock, err := repo.Restock(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 100, stock)

	_, err = repo.Restock(context.Background(), 1, 0)
	assert.ErrorIs(t, err, ErrNonPositiveRestock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSampleCatalog(t *testing.T) {
	cat := SampleCatalog(3)
	require.Len(t, cat, 10)
	for _, m := range cat {
		assert.NoError(t, m.Validate(), m.Name)
		assert.Equal(t, int64(3), m.SupplierID)
	}
	assert.Equal(t, "Cement", cat[0].Name)
	assert.True(t, cat[0].PricePerUnit.Equal(decimal.NewFromInt(390)))
}

func TestSeed_StopsOnFirstError(t *testing.T) {
	mock := newMock(t)
	catalog := SampleCatalog(3)
	first := catalog[0]
	mock.ExpectQuery("INSERT INTO materials").
		WithArgs(first.Name, decimalArg{first.PricePerUnit}, first.UnitType, first.Quantity, int64(3)).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(int64(1), first.Name, first.PricePerUnit, first.UnitType, first.Quantity, int64(3)))
	mock.ExpectQuery("INSERT INTO materials").
		WithArgs(catalog[1].Name, pgxmock.AnyArg(), catalog[1].UnitType, catalog[1].Quantity, int64(3)).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	out, err := NewRepo(mock).Seed(context.Background(), 3)
	require.ErrorIs(t, err, ErrUnknownSupplier)
	assert.Contains(t, err.Error(), "Steel Rod")
	require.Len(t, out, 1)
	assert.Equal(t, "Cement", out[0].Name)
	assert.Len(t, catalog, 10)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchByName_EscapesWildcards(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("LOWER\\(item_name\\) LIKE").
		WithArgs(`%tiles 50\%%`).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(int64(4), "Tiles 50% off", decimal.NewFromInt(650), "box", 300, int64(1)))

	got, err := NewRepo(mock).SearchByName(context.Background(), "Tiles 50%")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Tiles 50% off", got[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
