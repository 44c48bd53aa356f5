package core

import (
	"errors"
	"fmt"
	"strings"
)

// Draft field names, as posted by the edit form.
const (
	FieldDueDate     = "dueDate"
	FieldValue       = "value"
	FieldDescription = "description"
	FieldResponsible = "responsible"
	FieldCategory    = "category"
	FieldType        = "type"
)

// Draft is the string-typed, in-progress state of the create/edit form.
// Value holds the raw magnitude text until submission.
type Draft struct {
	DueDate     string          `json:"dueDate"`
	Value       string          `json:"value"`
	Description string          `json:"description"`
	Responsible string          `json:"responsible"`
	Category    string          `json:"category"`
	Type        TransactionType `json:"type"`
}

var (
	ErrMissingDueDate = errors.New("missing due date")
	ErrMissingValue   = errors.New("missing value")
	ErrUnknownField   = errors.New("unknown draft field")
)

// NewDraft returns an empty draft defaulting to an expense.
func NewDraft() Draft {
	return Draft{Type: Expense}
}

// DraftFrom mirrors a stored transaction; the value is shown as a positive magnitude.
func DraftFrom(t Transaction) Draft {
	return Draft{
		DueDate:     t.DueDate.String(),
		Value:       t.Magnitude().String(),
		Description: t.Description,
		Responsible: t.Responsible,
		Category:    t.Category,
		Type:        t.Type,
	}
}

// Set assigns one named field.
func (d *Draft) Set(name, value string) error {
	switch name {
	case FieldDueDate:
		d.DueDate = value
	case FieldValue:
		d.Value = value
	case FieldDescription:
		d.Description = value
	case FieldResponsible:
		d.Responsible = value
	case FieldCategory:
		d.Category = value
	case FieldType:
		d.Type = TransactionType(value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return nil
}

// Build validates the draft and turns it into a transaction with the given id.
// An empty category is replaced by fallbackCategory.
func (d Draft) Build(id int64, fallbackCategory string) (Transaction, error) {
	if strings.TrimSpace(d.DueDate) == "" {
		return Transaction{}, ErrMissingDueDate
	}
	if strings.TrimSpace(d.Value) == "" {
		return Transaction{}, ErrMissingValue
	}
	if strings.TrimSpace(d.Description) == "" {
		return Transaction{}, ErrEmptyDescription
	}
	if !d.Type.Valid() {
		return Transaction{}, fmt.Errorf("%w: %q", ErrInvalidType, d.Type)
	}

	due, err := ParseDate(d.DueDate)
	if err != nil {
		return Transaction{}, err
	}
	magnitude, err := ParseAmount(d.Value)
	if err != nil {
		return Transaction{}, err
	}

	category := d.Category
	if category == "" {
		category = fallbackCategory
	}

	t := Transaction{
		ID:          id,
		DueDate:     due,
		Value:       Signed(magnitude, d.Type),
		Description: d.Description,
		Responsible: d.Responsible,
		Category:    category,
		Type:        d.Type,
	}
	return t, t.Validate()
}
