package customers

import (
	"errors"
	"fmt"

	"github.com/Spok95/buildmat/internal/contact"
)

var (
	ErrNotFound        = errors.New("customers: not found")
	ErrNothingToUpdate = errors.New("customers: nothing to update")
	ErrReferenced      = errors.New("customers: customer has sales")
)

type Customer struct {
	ID      int64
	Name    string
	Phone   string
	Address string
}

// Update: частичное изменение: nil-поля не трогаем.
type Update struct {
	Name    *string
	Phone   *string
	Address *string
}

func (u Update) Empty() bool {
	return u.Name == nil && u.Phone == nil && u.Address == nil
}

func Validate(name, phone string) error {
	if err := contact.ValidateName(name); err != nil {
		return fmt.Errorf("customers: %w", err)
	}
	if err := contact.ValidatePhone(phone); err != nil {
		return fmt.Errorf("customers: %w", err)
	}
	return nil
}

func (u Update) Validate() error {
	if u.Name != nil {
		if err := contact.ValidateName(*u.Name); err != nil {
			return fmt.Errorf("customers: %w", err)
		}
	}
	if u.Phone != nil {
		if err := contact.ValidatePhone(*u.Phone); err != nil {
			return fmt.Errorf("customers: %w", err)
		}
	}
	return nil
}
