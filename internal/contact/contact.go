// Package contact holds the validation shared by customers and suppliers.
package contact

import (
	"errors"
	"strings"
)

var (
	ErrEmptyName    = errors.New("name must not be empty")
	ErrInvalidPhone = errors.New("phone must be exactly 10 digits")
)

func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	return nil
}

// ValidatePhone принимает только 10 ASCII-цифр без разделителей.
func ValidatePhone(phone string) error {
	if len(phone) != 10 {
		return ErrInvalidPhone
	}
	for i := 0; i < len(phone); i++ {
		if phone[i] < '0' || phone[i] > '9' {
			return ErrInvalidPhone
		}
	}
	return nil
}
