package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDateIsUTC(t *testing.T) {
	d, err := ParseDate("2025-09-15")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.Location() != time.UTC {
		t.Fatalf("expected UTC, got %v", d.Location())
	}
	if d.Year() != 2025 || d.Month() != 9 || d.Day() != 15 {
		t.Fatalf("unexpected parts: %v", d)
	}
	if d.String() != "2025-09-15" {
		t.Fatalf("round trip: %q", d.String())
	}

	for _, bad := range []string{"", "2025-13-01", "15/09/2025", "2025-9-1x"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q expected ErrInvalidDate, got %v", bad, err)
		}
	}
}

func TestDateText(t *testing.T) {
	var d Date
	if err := d.UnmarshalText([]byte("2025-08-20")); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	b, _ := d.MarshalText()
	if string(b) != "2025-08-20" {
		t.Fatalf("marshal got %q", b)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		ID:          1,
		DueDate:     NewDate(2025, 9, 1),
		Value:       decimal.RequireFromString("5000"),
		Description: "Salário",
		Type:        Income,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	zeroExpense := good
	zeroExpense.Type = Expense
	zeroExpense.Value = decimal.Zero
	if err := zeroExpense.Validate(); err != nil {
		t.Fatalf("zero expense should be valid, got %v", err)
	}

	cases := []struct {
		name string
		mod  func(*Transaction)
		want error
	}{
		{"zero date", func(tx *Transaction) { tx.DueDate = Date{} }, ErrInvalidDate},
		{"blank description", func(tx *Transaction) { tx.Description = "  " }, ErrEmptyDescription},
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidType},
		{"negative income", func(tx *Transaction) { tx.Value = decimal.RequireFromString("-1") }, ErrSignMismatch},
		{"positive expense", func(tx *Transaction) { tx.Type = Expense }, ErrSignMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := good
			tc.mod(&tx)
			if err := tx.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
