// Package periods locates the time axis of a workbook and coerces header
// tokens into calendar dates (English and Spanish month vocab, Excel date
// serials, quarter labels).
package periods

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"statement_engine/pkg/models"
)

// Excel serial day range treated as date-like: 1970-01-01 .. 2099-12-31.
const (
	serialMin = 25569
	serialMax = 73050
)

var monthNames = map[string]time.Month{
	// English
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
	// Spanish
	"ene": time.January, "enero": time.January,
	"febrero": time.February,
	"marzo":   time.March,
	"abr":     time.April, "abril": time.April,
	"mayo": time.May,
	"junio": time.June,
	"julio": time.July,
	"ago":   time.August, "agosto": time.August,
	"set": time.September, "septiembre": time.September, "setiembre": time.September,
	"octubre":   time.October,
	"noviembre": time.November,
	"dic":       time.December, "diciembre": time.December,
}

var (
	// "Jan-24", "Ene/2024", "January 2024", "Enero de 2024"
	reMonthYear = regexp.MustCompile(`(?i)^([a-záéíóú]{3,10})\.?(?:\s+de)?[\s\-/]+(\d{2,4})$`)
	// "01-2024", "01/24"
	reNumericMonthYear = regexp.MustCompile(`^(\d{1,2})[\-/](\d{2,4})$`)
	// "2024-01", "2024/1"
	reYearMonth = regexp.MustCompile(`^(\d{4})[\-/](\d{1,2})$`)
	// "Q1-2024", "Q1 2024", "Q1-2024 Total", "T1 2024" (trimestre)
	reQuarter = regexp.MustCompile(`(?i)^[qt]([1-4])[\s\-/]+(\d{2,4})(\s+total)?$`)
)

// ParseToken attempts to read a period header token as a calendar date.
// Returns the first day of the bucket, its granularity, and whether the
// token parsed.
func ParseToken(s string) (time.Time, models.PeriodKind, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, "", false
	}

	if m := reQuarter.FindStringSubmatch(s); m != nil {
		q, _ := strconv.Atoi(m[1])
		year := normalizeYear(m[2])
		if year > 0 {
			return time.Date(year, time.Month((q-1)*3+1), 1, 0, 0, 0, 0, time.UTC), models.PeriodQuarter, true
		}
	}
	if m := reMonthYear.FindStringSubmatch(s); m != nil {
		if month, ok := monthNames[strings.ToLower(m[1])]; ok {
			year := normalizeYear(m[2])
			if year > 0 {
				return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), models.PeriodMonth, true
			}
		}
	}
	if m := reNumericMonthYear.FindStringSubmatch(s); m != nil {
		monthNum, _ := strconv.Atoi(m[1])
		year := normalizeYear(m[2])
		if monthNum >= 1 && monthNum <= 12 && year > 0 {
			return time.Date(year, time.Month(monthNum), 1, 0, 0, 0, 0, time.UTC), models.PeriodMonth, true
		}
	}
	if m := reYearMonth.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		monthNum, _ := strconv.Atoi(m[2])
		if monthNum >= 1 && monthNum <= 12 {
			return time.Date(year, time.Month(monthNum), 1, 0, 0, 0, 0, time.UTC), models.PeriodMonth, true
		}
	}
	// Bare year: "2024"
	if year, err := strconv.Atoi(s); err == nil && year >= 1970 && year <= 2099 {
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), models.PeriodYear, true
	}
	// Bare month name: "Enero" — month without year cannot be ordered by
	// calendar, callers fall back to the ordinal.
	if _, ok := monthNames[strings.ToLower(strings.TrimSuffix(s, "."))]; ok {
		return time.Time{}, models.PeriodMonth, false
	}
	return time.Time{}, "", false
}

func normalizeYear(s string) int {
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	if y < 100 {
		y += 2000
	}
	if y < 1970 || y > 2099 {
		return 0
	}
	return y
}

// FromSerial converts an Excel date serial number (1900 date system) to a
// calendar date.
func FromSerial(serial float64) time.Time {
	epoch := time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
	return epoch.AddDate(0, 0, int(serial))
}

// CoerceCell reads a cell as a period date: explicit date value, Excel
// serial in the supported range, or a parseable header token.
func CoerceCell(c models.Cell) (time.Time, models.PeriodKind, bool) {
	switch c.Type {
	case models.CellDate:
		return c.Date, models.PeriodMonth, true
	case models.CellNumber:
		// Header cells holding date serials display as month tokens; check
		// the display text first, then the serial range.
		if t, kind, ok := ParseToken(c.Text); ok {
			return t, kind, ok
		}
		if c.Number >= serialMin && c.Number <= serialMax && c.Number == float64(int64(c.Number)) {
			return FromSerial(c.Number), models.PeriodMonth, true
		}
	case models.CellText:
		return ParseToken(c.Text)
	}
	return time.Time{}, "", false
}

// IsDateLike reports whether a cell can serve as a period axis entry.
// Bare month names count even though they carry no year.
func IsDateLike(c models.Cell) bool {
	if _, _, ok := CoerceCell(c); ok {
		return true
	}
	if c.Type == models.CellText {
		_, ok := monthNames[strings.ToLower(strings.TrimSuffix(strings.TrimSpace(c.Text), "."))]
		return ok
	}
	return false
}
