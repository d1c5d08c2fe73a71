// Package validation collects field-level input failures into a single
// list-valued validation error.
package validation

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/wolfeidau/multicloud/internal/apierr"
)

// Messages accumulates validation failures in the order they are found.
type Messages struct {
	list []string
}

// Add appends msgs.
func (m *Messages) Add(msgs ...string) {
	m.list = append(m.list, msgs...)
}

// Length checks value is between min and max characters.
func (m *Messages) Length(field, value string, min, max int) {
	n := utf8.RuneCountInString(value)
	switch {
	case n < min:
		m.Add(fmt.Sprintf("%s must be at least %d characters", field, min))
	case n > max:
		m.Add(fmt.Sprintf("%s must be at most %d characters", field, max))
	}
}

// Required checks value is not blank.
func (m *Messages) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		m.Add(fmt.Sprintf("%s is required", field))
	}
}

// Email checks value is a bare address, without display name.
func (m *Messages) Email(value string) {
	if !IsEmail(value) {
		m.Add("Invalid email format")
	}
}

// CPF checks value is a valid CPF.
func (m *Messages) CPF(value string) {
	m.Add(CPF(value)...)
}

// UUID checks value parses as a UUID.
func (m *Messages) UUID(field, value string) {
	if _, err := uuid.Parse(value); err != nil {
		m.Add(fmt.Sprintf("%s must be a valid UUID", field))
	}
}

// Err returns nil when nothing failed, otherwise a validation *apierr.Error.
func (m *Messages) Err() error {
	if len(m.list) == 0 {
		return nil
	}
	return apierr.Validation(m.list...)
}

// IsEmail reports whether value is a single bare email address.
func IsEmail(value string) bool {
	addr, err := mail.ParseAddress(value)
	if err != nil {
		return false
	}
	return addr.Address == value && strings.Contains(value[strings.LastIndexByte(value, '@'):], ".")
}

// CPF validates a Brazilian individual taxpayer number and returns the failing rules.
func CPF(value string) []string {
	var messages []string
	if len(value) != 11 {
		messages = append(messages, "CPF must contain exactly 11 digits")
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			messages = append(messages, "CPF must contain only numbers")
			break
		}
	}
	if len(messages) > 0 {
		return messages
	}
	if !cpfCheckDigits(value) {
		return []string{"Invalid CPF provided"}
	}
	return nil
}

func cpfCheckDigits(cpf string) bool {
	if strings.Count(cpf, cpf[:1]) == len(cpf) {
		return false
	}
	digit := func(n int) int {
		sum := 0
		for i := 0; i < n; i++ {
			sum += int(cpf[i]-'0') * (n + 1 - i)
		}
		if r := sum % 11; r >= 2 {
			return 11 - r
		}
		return 0
	}
	return digit(9) == int(cpf[9]-'0') && digit(10) == int(cpf[10]-'0')
}
