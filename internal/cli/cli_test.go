package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/buildmat/internal/config"
	"github.com/Spok95/buildmat/internal/infra/db"
)

type harness struct {
	mock   pgxmock.PgxPoolIface
	out    *bytes.Buffer
	errOut *bytes.Buffer
	cli    *CLI
}

func newHarness(t *testing.T, stdin string) *harness {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	var cfg config.Config
	cfg.App.Env = "test"
	cfg.App.LogLevel = "error"
	cfg.Reports.LowStockThreshold = 20

	h := &harness{mock: mock, out: &bytes.Buffer{}, errOut: &bytes.Buffer{}}
	h.cli = New(
		WithIO(strings.NewReader(stdin), h.out, h.errOut),
		WithConfig(cfg),
		WithPool(mock),
		WithClock(func() time.Time { return time.Date(2025, 10, 18, 15, 0, 0, 0, time.Local) }),
	)
	return h
}

func (h *harness) run(args ...string) error {
	root := h.cli.Root()
	root.SetArgs(args)
	return h.cli.Execute(context.Background(), root)
}

func TestReportDaily_EmptyWindow(t *testing.T) {
	h := newHarness(t, "")
	h.mock.ExpectQuery("FROM sales").
		WithArgs(time.Date(2025, 10, 12, 0, 0, 0, 0, time.UTC)).
		WillReturnRows(pgxmock.NewRows([]string{"day", "revenue"}))

	require.NoError(t, h.run("report", "daily"))
	assert.Contains(t, h.out.String(), "No sales found in the selected period.")
	assert.NoError(t, h.mock.ExpectationsWereMet())
}

func TestReportPeriod_BadDateIsReportedNotFatal(t *testing.T) {
	h := newHarness(t, "")

	require.NoError(t, h.run("report", "period", "--start", "2025/10/01", "--end", "2025-10-31"))
	assert.Contains(t, h.errOut.String(), "YYYY-MM-DD")
	assert.Empty(t, h.out.String())
	assert.NoError(t, h.mock.ExpectationsWereMet())
}

func TestReportPeriod_StartAfterEnd(t *testing.T) {
	h := newHarness(t, "")
	require.NoError(t, h.run("report", "period", "--start", "2025-11-01", "--end", "2025-10-01"))
	assert.Contains(t, h.errOut.String(), "start date cannot be after end date")
}

func TestReportPeriod_Totals(t *testing.T) {
	h := newHarness(t, "")
	h.mock.ExpectQuery("BETWEEN").
		WillReturnRows(pgxmock.NewRows([]string{"revenue", "paid", "due"}).
			AddRow(decimal.NewFromInt(3900), decimal.NewFromInt(2000), decimal.NewFromInt(1900)))

	require.NoError(t, h.run("report", "period", "--start", "2025-10-01", "--end", "2025-10-31"))
	out := h.out.String()
	assert.Contains(t, out, "Revenue")
	assert.Contains(t, out, "3900.00")
	assert.Contains(t, out, "1900.00")
}

func TestReportTop_InvalidLimit(t *testing.T) {
	h := newHarness(t, "")
	require.NoError(t, h.run("report", "top", "--limit", "0"))
	assert.Contains(t, h.errOut.String(), "limit must be a positive integer")
}

func TestLowStock_WritesCSV(t *testing.T) {
	h := newHarness(t, "")
	h.mock.ExpectQuery(`quantity_in_stock <= \$1`).
		WithArgs(30).
		WillReturnRows(pgxmock.NewRows([]string{"item_name", "quantity_in_stock", "unit_type", "supplier_id"}).
			AddRow("Paint (20L)", 30, "tin", int64(1)))

	path := filepath.Join(t.TempDir(), "low.csv")
	require.NoError(t, h.run("lowstock", "--threshold", "30", "--csv", path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "item_name,quantity_in_stock,unit_type,supplier_id\nPaint (20L),30,tin,1\n", string(data))
	assert.Contains(t, h.out.String(), "Paint (20L)")
	assert.Contains(t, h.out.String(), "Saved CSV to")
}

func TestLowStock_DefaultsToConfiguredThreshold(t *testing.T) {
	h := newHarness(t, "")
	h.mock.ExpectQuery(`quantity_in_stock <= \$1`).
		WithArgs(20).
		WillReturnRows(pgxmock.NewRows([]string{"item_name", "quantity_in_stock", "unit_type", "supplier_id"}))

	require.NoError(t, h.run("lowstock"))
	assert.Contains(t, h.out.String(), "No materials at or below 20 units.")
}

func TestSale_Recorded(t *testing.T) {
	h := newHarness(t, "")
	h.mock.ExpectBegin()
	h.mock.ExpectQuery("FOR UPDATE").WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"quantity_in_stock"}).AddRow(100))
	h.mock.ExpectQuery("INSERT INTO sales").
		WillReturnRows(pgxmock.NewRows([]string{"order_no"}).AddRow(int64(42)))
	h.mock.ExpectExec("UPDATE materials").WithArgs(10, int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	h.mock.ExpectCommit()

	require.NoError(t, h.run("sale", "--customer", "1", "--item", "1", "--quantity", "10", "--total", "3900"))
	out := h.out.String()
	assert.Contains(t, out, "Sale #42 recorded")
	assert.Contains(t, out, "paid 3900.00, due 0.00, Cash/Pending")
	assert.NoError(t, h.mock.ExpectationsWereMet())
}

func TestSale_InsufficientStock(t *testing.T) {
	h := newHarness(t, "")
	h.mock.ExpectBegin()
	h.mock.ExpectQuery("FOR UPDATE").WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"quantity_in_stock"}).AddRow(5))
	h.mock.ExpectRollback()

	err := h.run("sale", "--customer", "1", "--item", "1", "--quantity", "10", "--total", "3900")
	require.Error(t, err)
	assert.Equal(t, "not enough stock: only 5 units available", err.Error())
	assert.NoError(t, h.mock.ExpectationsWereMet())
}

func TestSale_BadTotalFlag(t *testing.T) {
	h := newHarness(t, "")
	err := h.run("sale", "--customer", "1", "--item", "1", "--quantity", "1", "--total", "lots")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--total")
}

func TestCustomersUpdate_OnlyChangedFlags(t *testing.T) {
	h := newHarness(t, "")
	h.mock.ExpectQuery(`UPDATE customers SET phone=\$1 WHERE customer_id=\$2`).
		WithArgs("9876543210", int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"customer_id", "customer_name", "phone", "address"}).
			AddRow(int64(3), "Amit Kumar", "9876543210", "Delhi"))

	require.NoError(t, h.run("customers", "update", "3", "--phone", "9876543210"))
	assert.Contains(t, h.out.String(), "Updated customer #3")
	assert.NoError(t, h.mock.ExpectationsWereMet())
}

func TestCustomersAdd_InvalidPhone(t *testing.T) {
	h := newHarness(t, "")
	err := h.run("customers", "add", "--name", "Test", "--phone", "abc123")
	require.Error(t, err)
	assert.NoError(t, h.mock.ExpectationsWereMet())
}

func TestMaterialsDelete_BadID(t *testing.T) {
	h := newHarness(t, "")
	err := h.run("materials", "delete", "zero")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "positive integer")
}

func TestDashboard_UsesFlags(t *testing.T) {
	h := newHarness(t, "")
	for _, n := range []int64{3, 2, 10} {
		h.mock.ExpectQuery("SELECT COUNT").WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(n))
	}
	h.mock.ExpectQuery("FILTER").WillReturnRows(pgxmock.NewRows([]string{"revenue", "unpaid"}).
		AddRow(decimal.NewFromInt(27260), decimal.NewFromInt(1900)))
	h.mock.ExpectQuery(`quantity_in_stock <= \$1`).WithArgs(5).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	h.mock.ExpectQuery("GROUP BY m.item_name").
		WillReturnRows(pgxmock.NewRows([]string{"item_name", "total_sold"}))

	require.NoError(t, h.run("dashboard", "--threshold", "5", "--days", "7"))
	out := h.out.String()
	assert.Contains(t, out, "Business Dashboard Summary (last 7 days)")
	assert.Contains(t, out, "Low Stock Items (<=5)")
	assert.Contains(t, out, "27260.00")
	assert.Contains(t, out, "No sales data available.")
	assert.NoError(t, h.mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	h := newHarness(t, "")
	var gotDSN string
	h.cli.migrate = func(dsn string) error { gotDSN = dsn; return nil }

	require.NoError(t, h.run("migrate"))
	assert.NotEmpty(t, gotDSN)
	assert.Contains(t, h.out.String(), "Migrations applied.")

	h.cli.migrate = func(string) error { return errors.New("boom") }
	assert.ErrorContains(t, h.run("migrate"), "migrate: boom")
}

func TestShell_DailyThenExit(t *testing.T) {
	h := newHarness(t, "7\n3\nX\n")
	h.mock.ExpectQuery("FROM sales").
		WithArgs(time.Date(2025, 10, 16, 0, 0, 0, 0, time.UTC)).
		WillReturnRows(pgxmock.NewRows([]string{"day", "revenue"}).
			AddRow(time.Date(2025, 10, 18, 0, 0, 0, 0, time.UTC), decimal.NewFromInt(3900)))

	require.NoError(t, h.run("shell"))
	out := h.out.String()
	assert.Contains(t, out, "Enter choice:")
	assert.Contains(t, out, "2025-10-18")
	assert.Contains(t, out, "3900.00")
	assert.NoError(t, h.mock.ExpectationsWereMet())
}

func TestShell_ErrorsDoNotCloseMenu(t *testing.T) {
	h := newHarness(t, "4\nabc\n42\n")

	require.NoError(t, h.run("shell"))
	out := h.out.String()
	assert.Contains(t, out, `Error: "abc" is not a whole number`)
	assert.Contains(t, out, "Unknown choice.")
}

func TestExecute_ClosesPoolWhenCommandFails(t *testing.T) {
	h := newHarness(t, "")
	closed := 0
	h.cli.connect = func(context.Context, string) (db.Pool, func(), error) {
		return h.mock, func() { closed++ }, nil
	}
	h.mock.ExpectQuery("FROM sales").WillReturnError(errors.New("connection reset"))

	err := h.run("report", "daily")
	require.Error(t, err)
	assert.Equal(t, 1, closed)
	assert.Nil(t, h.cli.pool)
	assert.NoError(t, h.mock.ExpectationsWereMet())
}
