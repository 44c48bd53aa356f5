package core

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultFilter(t *testing.T) {
	f := DefaultFilter(time.Date(2025, time.March, 9, 12, 0, 0, 0, time.UTC))
	if f.Period != PeriodMonth || f.Year != "2025" || f.Month != "03" || f.Fortnight != FortnightBoth {
		t.Fatalf("unexpected default filter: %+v", f)
	}
}

func TestNormalizers(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(string) (string, error)
		in      string
		want    string
		wantErr bool
	}{
		{"month pads", NormalizeMonth, "9", "09", false},
		{"month keeps", NormalizeMonth, "12", "12", false},
		{"month unset", NormalizeMonth, "", "", false},
		{"month zero", NormalizeMonth, "0", "", true},
		{"month thirteen", NormalizeMonth, "13", "", true},
		{"month text", NormalizeMonth, "set", "", true},
		{"year", NormalizeYear, " 2024 ", "2024", false},
		{"year unset", NormalizeYear, "", "", false},
		{"year bad", NormalizeYear, "20x4", "", true},
		{"fortnight zero means both", NormalizeFortnight, "0", FortnightBoth, false},
		{"fortnight first", NormalizeFortnight, "1", FortnightFirst, false},
		{"fortnight second", NormalizeFortnight, "2", FortnightSecond, false},
		{"fortnight third", NormalizeFortnight, "3", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFilter) {
					t.Fatalf("expected ErrInvalidFilter, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestPeriodValid(t *testing.T) {
	for _, p := range []Period{PeriodAll, PeriodMonth, PeriodFortnight} {
		if !p.Valid() {
			t.Errorf("%q should be valid", p)
		}
	}
	if Period("week").Valid() {
		t.Error("week should not be valid")
	}
}

func TestFilterKey(t *testing.T) {
	f := Filter{Period: PeriodFortnight, Year: "2025", Month: "09", Fortnight: "1"}
	if got := f.Key(); got != "fortnight:2025-09:1" {
		t.Fatalf("got %q", got)
	}
}
