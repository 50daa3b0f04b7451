package reports

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

var (
	ErrInvalidDays  = errors.New("reports: days must be a positive integer")
	ErrInvalidLimit = errors.New("reports: limit must be a positive integer")
	ErrInvalidRange = errors.New("reports: start date cannot be after end date")
	ErrInvalidDate  = errors.New("reports: dates must be in YYYY-MM-DD format")
)

type DayRevenue struct {
	Day     time.Time
	Revenue decimal.Decimal
}

type PeriodTotals struct {
	Revenue decimal.Decimal
	Paid    decimal.Decimal
	Due     decimal.Decimal
}

type CustomerRevenue struct {
	CustomerName string
	Revenue      decimal.Decimal
}

type ItemSold struct {
	ItemName  string
	TotalSold int64
}

type Dashboard struct {
	Customers         int64
	Suppliers         int64
	Materials         int64
	TotalRevenue      decimal.Decimal
	TotalUnpaid       decimal.Decimal
	LowStockThreshold int
	LowStockCount     int64
	// При LastNDays > 0 суммы и топ посчитаны за последние N дней, иначе за всё время.
	LastNDays int
	TopItems  []ItemSold
}

// ParseDate разбирает дату вида YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}
