package dialog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Spok95/buildmat/internal/domain/sales"
)

var (
	ErrNotPositiveInt = errors.New("нужно целое число больше нуля")
	ErrBadAmount      = errors.New("нужна сумма, например 3900 или 3900.50")
	ErrNotConfirmed   = errors.New("ответьте «да» или «нет»")
	ErrUnexpected     = errors.New("форма продажи не начата")
	// ErrDeclined: пользователь ответил «нет» на подтверждение.
	ErrDeclined = errors.New("продажа отменена")
)

// Step принимает ответ пользователя на текущем шаге формы продажи,
// дописывает его в p и возвращает следующий шаг. При ошибке ввода
// шаг не меняется, p не трогается.
func Step(cur State, p Payload, text string) (State, error) {
	text = strings.TrimSpace(text)
	switch cur {
	case StateSaleCustomer:
		if _, err := positiveInt(text); err != nil {
			return cur, err
		}
		p[KeyCustomerID] = text
		return StateSaleItem, nil

	case StateSaleItem:
		if _, err := positiveInt(text); err != nil {
			return cur, err
		}
		p[KeyItemID] = text
		return StateSaleQuantity, nil

	case StateSaleQuantity:
		if _, err := positiveInt(text); err != nil {
			return cur, err
		}
		p[KeyQuantity] = text
		return StateSaleTotal, nil

	case StateSaleTotal:
		d, err := decimal.NewFromString(strings.ReplaceAll(text, ",", "."))
		if err != nil || d.IsNegative() {
			return cur, ErrBadAmount
		}
		p[KeyTotal] = d.String()
		return StateSaleConfirm, nil

	case StateSaleConfirm:
		switch strings.ToLower(text) {
		case "да", "yes", "y", "+":
			return StateSaleSubmit, nil
		case "нет", "no", "n", "-":
			return StateIdle, ErrDeclined
		}
		return cur, ErrNotConfirmed
	}
	return cur, ErrUnexpected
}

func positiveInt(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrNotPositiveInt
	}
	return n, nil
}

// Sale собирает продажу из заполненной формы. Оплата и статус берутся по
// умолчанию: оплачено = сумма, долг = 0.
func Sale(p Payload) (sales.NewSale, error) {
	var in sales.NewSale
	var err error
	get := func(key string) string {
		s, _ := GetString(p, key)
		return s
	}
	if in.CustomerID, err = positiveInt(get(KeyCustomerID)); err != nil {
		return in, fmt.Errorf("%s: %w", KeyCustomerID, err)
	}
	if in.ItemID, err = positiveInt(get(KeyItemID)); err != nil {
		return in, fmt.Errorf("%s: %w", KeyItemID, err)
	}
	q, err := positiveInt(get(KeyQuantity))
	if err != nil {
		return in, fmt.Errorf("%s: %w", KeyQuantity, err)
	}
	in.Quantity = int(q)
	total, err := decimal.NewFromString(get(KeyTotal))
	if err != nil {
		return in, fmt.Errorf("%s: %w", KeyTotal, ErrBadAmount)
	}
	in.Total = &total
	return in, nil
}
