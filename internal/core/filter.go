package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	PeriodAll       Period = "all"
	PeriodMonth     Period = "month"
	PeriodFortnight Period = "fortnight"
)

// Fortnight selector values. An unset selector includes both halves.
const (
	FortnightBoth   = ""
	FortnightFirst  = "1"
	FortnightSecond = "2"
)

// Period is the active time-window rule.
type Period string

// Filter is the period filter state. Year and Month are kept as strings so an
// unset selector can be told apart from a chosen one.
type Filter struct {
	Period    Period `json:"period"`
	Year      string `json:"year"`
	Month     string `json:"month"` // zero-padded, "01".."12"
	Fortnight string `json:"fortnight"`
}

var ErrInvalidFilter = errors.New("invalid filter")

// Valid reports whether p is one of the known periods.
func (p Period) Valid() bool {
	switch p {
	case PeriodAll, PeriodMonth, PeriodFortnight:
		return true
	}
	return false
}

// DefaultFilter selects the month of now.
func DefaultFilter(now time.Time) Filter {
	return Filter{
		Period: PeriodMonth,
		Year:   strconv.Itoa(now.Year()),
		Month:  fmt.Sprintf("%02d", int(now.Month())),
	}
}

// NormalizeMonth validates a month selector and zero-pads it. An empty value
// stays empty (unset).
func NormalizeMonth(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	m, err := strconv.Atoi(s)
	if err != nil || m < 1 || m > 12 {
		return "", fmt.Errorf("%w: month %q", ErrInvalidFilter, s)
	}
	return fmt.Sprintf("%02d", m), nil
}

// NormalizeYear validates a year selector. An empty value stays empty (unset).
func NormalizeYear(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	y, err := strconv.Atoi(s)
	if err != nil || y < 1 || y > 9999 {
		return "", fmt.Errorf("%w: year %q", ErrInvalidFilter, s)
	}
	return strconv.Itoa(y), nil
}

// NormalizeFortnight validates a fortnight selector; "0" means both halves.
func NormalizeFortnight(s string) (string, error) {
	switch s = strings.TrimSpace(s); s {
	case FortnightBoth, "0":
		return FortnightBoth, nil
	case FortnightFirst, FortnightSecond:
		return s, nil
	}
	return "", fmt.Errorf("%w: fortnight %q", ErrInvalidFilter, s)
}

// Match applies the period decision table to a single transaction.
func (f Filter) Match(t Transaction) bool {
	if f.Period == PeriodAll {
		return true
	}

	year, errY := strconv.Atoi(f.Year)
	month, errM := strconv.Atoi(f.Month)
	if f.Year == "" || f.Month == "" || errY != nil || errM != nil {
		return false
	}
	if t.DueDate.Month() != month || t.DueDate.Year() != year {
		return false
	}

	if f.Period != PeriodFortnight {
		return true
	}
	switch f.Fortnight {
	case FortnightFirst:
		return t.DueDate.Day() <= 15
	case FortnightSecond:
		return t.DueDate.Day() > 15
	default:
		return true
	}
}

// Key identifies the filter state, e.g. "fortnight:2025-09:1".
func (f Filter) Key() string {
	return string(f.Period) + ":" + f.Year + "-" + f.Month + ":" + f.Fortnight
}
