package google

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"financas/internal/core"
)

// Column order of the transactions sheet.
const (
	colID = iota
	colDueDate
	colValue
	colDescription
	colResponsible
	colCategory
	colType
)

// RowError describes a skipped row; Row is 1-based as shown by Sheets.
type RowError struct {
	Row int
	Err error
}

var errShortRow = errors.New("row has too few columns")

// parseTransactions converts sheet rows into transactions. A leading header
// row is ignored. Rows without an id get max(id)+1 in sheet order.
func parseTransactions(values [][]interface{}) ([]core.Transaction, []RowError) {
	var (
		out     []core.Transaction
		skipped []RowError
		missing []int
		maxID   int64
	)
	for i, raw := range values {
		row := toStrings(raw)
		if isBlank(row) {
			continue
		}
		if i == 0 && isHeader(row) {
			continue
		}
		t, err := parseRow(row)
		if err != nil {
			skipped = append(skipped, RowError{Row: i + 1, Err: err})
			continue
		}
		if t.ID == 0 {
			missing = append(missing, len(out))
		} else if t.ID > maxID {
			maxID = t.ID
		}
		out = append(out, t)
	}
	for _, idx := range missing {
		maxID++
		out[idx].ID = maxID
	}
	return out, skipped
}

func parseRow(row []string) (core.Transaction, error) {
	if len(row) <= colValue {
		return core.Transaction{}, errShortRow
	}

	var id int64
	if s := strings.TrimSpace(safeGet(row, colID)); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n <= 0 {
			return core.Transaction{}, fmt.Errorf("invalid id %q", s)
		}
		id = n
	}

	due, err := parseSheetDate(safeGet(row, colDueDate))
	if err != nil {
		return core.Transaction{}, err
	}
	negative, magnitude, err := parseSignedAmount(safeGet(row, colValue))
	if err != nil {
		return core.Transaction{}, err
	}

	typ := core.TransactionType(strings.ToLower(strings.TrimSpace(safeGet(row, colType))))
	switch {
	case typ == "":
		typ = core.Income
		if negative {
			typ = core.Expense
		}
	case !typ.Valid():
		return core.Transaction{}, fmt.Errorf("%w: %q", core.ErrInvalidType, typ)
	}

	category := strings.TrimSpace(safeGet(row, colCategory))
	if category == "" {
		category = core.DefaultFallbackCategory
	}

	t := core.Transaction{
		ID:          id,
		DueDate:     due,
		Value:       core.Signed(magnitude, typ),
		Description: strings.TrimSpace(safeGet(row, colDescription)),
		Responsible: strings.TrimSpace(safeGet(row, colResponsible)),
		Category:    category,
		Type:        typ,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// parseSheetDate accepts ISO dates and the dd/mm/yyyy form Sheets shows for pt-BR locales.
func parseSheetDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	if d, err := core.ParseDate(s); err == nil {
		return d, nil
	}
	t, err := time.ParseInLocation("02/01/2006", s, time.UTC)
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, s)
	}
	return core.Date{Time: t}, nil
}

// parseSignedAmount reads values such as "-150,50", "R$ 1.234,56" or "5000".
// A dot followed by a comma is read as a thousands separator.
func parseSignedAmount(s string) (bool, decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "R$", "")
	s = strings.Join(strings.Fields(s), "")
	negative := false
	switch {
	case strings.HasPrefix(s, "-"):
		negative = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if strings.Contains(s, ",") && strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ".", "")
	}
	d, err := core.ParseAmount(s)
	if err != nil {
		return false, decimal.Zero, fmt.Errorf("%w: %q", err, s)
	}
	return negative, d, nil
}

func parseCategories(values [][]interface{}) core.CategorySet {
	names := make([]string, 0, len(values))
	for i, raw := range values {
		row := toStrings(raw)
		v := strings.TrimSpace(safeGet(row, 0))
		if v == "" || strings.HasPrefix(v, "#") {
			continue
		}
		if i == 0 && strings.EqualFold(v, "categoria") {
			continue
		}
		names = append(names, v)
	}
	return core.NewCategorySet(names)
}

func isHeader(row []string) bool {
	_, err := strconv.ParseInt(strings.TrimSpace(safeGet(row, colID)), 10, 64)
	return err != nil && strings.TrimSpace(safeGet(row, colID)) != ""
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = fmt.Sprint(v)
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
