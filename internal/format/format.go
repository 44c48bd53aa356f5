// Package format renders amounts and dates for the pt-BR interface.
package format

import (
	"fmt"
	"html/template"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultTimezone is the zone dates are displayed in.
const DefaultTimezone = "America/Sao_Paulo"

const (
	currencySymbol = "R$ "
	displayLayout  = "02/01/2006"
	inputLayout    = "2006-01-02"
)

// MonthNames are the pt-BR month labels, January first.
var MonthNames = [12]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// MonthOption is one entry of the month selector.
type MonthOption struct {
	Value string // "01".."12"
	Label string
}

// Formatter formats values for display. It is safe for concurrent use.
type Formatter struct {
	printer *message.Printer
	loc     *time.Location
}

// New returns a formatter rendering dates in the named IANA zone.
func New(timezone string) (*Formatter, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load display timezone %q: %w", timezone, err)
	}
	return &Formatter{
		printer: message.NewPrinter(language.BrazilianPortuguese),
		loc:     loc,
	}, nil
}

// Default returns a formatter for DefaultTimezone.
func Default() *Formatter {
	f, err := New(DefaultTimezone)
	if err != nil {
		// tzdata is embedded, so the default zone always resolves.
		panic(err)
	}
	return f
}

// Currency renders an amount as Brazilian reais, e.g. "R$ 1.234,56".
// Negative amounts are prefixed with a minus sign: "-R$ 150,50".
// Whole reais are exact up to the int64 range.
func (f *Formatter) Currency(d decimal.Decimal) string {
	d = d.Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	whole := d.Truncate(0)
	cents := d.Sub(whole).Shift(2).IntPart()
	return fmt.Sprintf("%s%s%s,%02d", sign, currencySymbol,
		f.printer.Sprint(number.Decimal(whole.IntPart())), cents)
}

// Date renders a YYYY-MM-DD date as dd/mm/yyyy. The stored date is read as
// UTC midnight and shifted by one day before conversion to the display zone,
// which lands back on the stored calendar day for zones west of UTC.
// Unparseable input is returned unchanged.
func (f *Formatter) Date(s string) string {
	t, err := time.ParseInLocation(inputLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return s
	}
	return t.AddDate(0, 0, 1).In(f.loc).Format(displayLayout)
}

// Location returns the display zone.
func (f *Formatter) Location() *time.Location { return f.loc }

// YearOptions lists the selectable years: the current one and the two before it.
func YearOptions(now time.Time) []string {
	y := now.Year()
	return []string{fmt.Sprint(y), fmt.Sprint(y - 1), fmt.Sprint(y - 2)}
}

// MonthOptions lists the month selector entries.
func MonthOptions() []MonthOption {
	out := make([]MonthOption, 0, len(MonthNames))
	for i, name := range MonthNames {
		out = append(out, MonthOption{Value: fmt.Sprintf("%02d", i+1), Label: name})
	}
	return out
}

// Percent renders part/total with one decimal place, "0,0%" when total is zero.
func (f *Formatter) Percent(part, total decimal.Decimal) string {
	if total.IsZero() {
		return f.printer.Sprint(number.Decimal(0.0, number.Scale(1))) + "%"
	}
	pct := part.Div(total).Mul(decimal.NewFromInt(100)).Round(1)
	return f.printer.Sprint(number.Decimal(pct.InexactFloat64(), number.Scale(1))) + "%"
}

// FuncMap exposes the formatter to html/template.
func (f *Formatter) FuncMap() template.FuncMap {
	return template.FuncMap{
		"currency": f.Currency,
		"date":     f.Date,
		"percent":  f.Percent,
	}
}
