package periods

import (
	"testing"
	"time"

	"statement_engine/pkg/models"
)

func TestParseTokenMonthYear(t *testing.T) {
	cases := []struct {
		in    string
		year  int
		month time.Month
		kind  models.PeriodKind
	}{
		{"Jan-24", 2024, time.January, models.PeriodMonth},
		{"January 2024", 2024, time.January, models.PeriodMonth},
		{"Ene-24", 2024, time.January, models.PeriodMonth},
		{"Enero de 2024", 2024, time.January, models.PeriodMonth},
		{"Dic/2023", 2023, time.December, models.PeriodMonth},
		{"Sept 2025", 2025, time.September, models.PeriodMonth},
		{"03-2024", 2024, time.March, models.PeriodMonth},
		{"2024-03", 2024, time.March, models.PeriodMonth},
		{"Q2 2024", 2024, time.April, models.PeriodQuarter},
		{"Q4-24", 2024, time.October, models.PeriodQuarter},
		{"T1 2024", 2024, time.January, models.PeriodQuarter},
		{"2024", 2024, time.January, models.PeriodYear},
	}

	for _, c := range cases {
		got, kind, ok := ParseToken(c.in)
		if !ok {
			t.Errorf("ParseToken(%q): expected parse, got failure", c.in)
			continue
		}
		if got.Year() != c.year || got.Month() != c.month {
			t.Errorf("ParseToken(%q): expected %d-%s, got %s", c.in, c.year, c.month, got)
		}
		if kind != c.kind {
			t.Errorf("ParseToken(%q): expected kind %s, got %s", c.in, c.kind, kind)
		}
	}
}

func TestParseTokenRejectsNonDates(t *testing.T) {
	for _, in := range []string{"Revenue", "Total", "", "13-2024", "1850", "Q5 2024"} {
		if _, _, ok := ParseToken(in); ok {
			t.Errorf("ParseToken(%q): expected failure, got success", in)
		}
	}
}

func TestParseTokenBareMonthName(t *testing.T) {
	// A month without a year cannot be ordered by calendar; it reports the
	// kind but does not resolve.
	_, kind, ok := ParseToken("Enero")
	if ok {
		t.Errorf("bare month name must not resolve to a date")
	}
	if kind != models.PeriodMonth {
		t.Errorf("Expected month kind for bare month name, got %q", kind)
	}
}

func TestFromSerial(t *testing.T) {
	// 45292 is 2024-01-01 in the 1900 date system.
	got := FromSerial(45292)
	want := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("FromSerial(45292): expected %s, got %s", want, got)
	}
}

func TestCoerceCellSerialRange(t *testing.T) {
	in := models.Cell{Type: models.CellNumber, Number: 45292, Text: "45292"}
	got, _, ok := CoerceCell(in)
	if !ok || got.Year() != 2024 {
		t.Errorf("serial 45292 should coerce to 2024, got %v ok=%v", got, ok)
	}

	// Plain amounts outside the serial window never coerce to dates.
	amount := models.Cell{Type: models.CellNumber, Number: 100000, Text: "100000"}
	if _, _, ok := CoerceCell(amount); ok {
		t.Errorf("100000 must not coerce to a date")
	}
}

func TestCoerceCellPrefersDisplayText(t *testing.T) {
	// Date serials usually display as month tokens; the display wins so
	// the bucket granularity comes from the label.
	in := models.Cell{Type: models.CellNumber, Number: 45292, Text: "Q1 2024"}
	_, kind, ok := CoerceCell(in)
	if !ok || kind != models.PeriodQuarter {
		t.Errorf("Expected quarter from display text, got kind=%q ok=%v", kind, ok)
	}
}

func TestIsDateLikeBareMonth(t *testing.T) {
	cell := models.Cell{Type: models.CellText, Text: "Febrero"}
	if !IsDateLike(cell) {
		t.Errorf("bare Spanish month name should be date-like")
	}
}
