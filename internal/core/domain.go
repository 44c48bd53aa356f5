package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// DateLayout is the interchange encoding of a due date.
const DateLayout = "2006-01-02"

type (
	TransactionType string

	Date struct {
		time.Time
	}

	Transaction struct {
		ID          int64           `json:"id"`
		DueDate     Date            `json:"dueDate"`
		Value       decimal.Decimal `json:"value"` // signed, negative for expenses
		Description string          `json:"description"`
		Responsible string          `json:"responsible"`
		Category    string          `json:"category"`
		Type        TransactionType `json:"type"`
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrEmptyDescription = errors.New("empty description")
	ErrSignMismatch     = errors.New("value sign does not match transaction type")
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string as a UTC calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalText encodes the date as YYYY-MM-DD.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a YYYY-MM-DD date.
func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate checks the stored-record invariants, including that the sign of
// Value agrees with Type.
func (t Transaction) Validate() error {
	if err := t.DueDate.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if !t.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, t.Type)
	}
	switch t.Type {
	case Expense:
		if t.Value.IsPositive() {
			return ErrSignMismatch
		}
	case Income:
		if t.Value.IsNegative() {
			return ErrSignMismatch
		}
	}
	return nil
}

// Magnitude returns the absolute value of the transaction amount.
func (t Transaction) Magnitude() decimal.Decimal {
	return t.Value.Abs()
}

// Equal compares two transactions field by field, using numeric equality for Value.
func (t Transaction) Equal(o Transaction) bool {
	return t.ID == o.ID &&
		t.DueDate.Equal(o.DueDate.Time) &&
		t.Value.Equal(o.Value) &&
		t.Description == o.Description &&
		t.Responsible == o.Responsible &&
		t.Category == o.Category &&
		t.Type == o.Type
}
