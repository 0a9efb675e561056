// Package extract replays a finalized mapping against a workbook grid:
// validation checks that declared locations read plausible values, and
// execution produces the canonical per-period metrics. This is the single
// code path shared by first-time uploads and re-uploads of the same shape.
package extract

import (
	"strconv"
	"strings"

	"statement_engine/pkg/models"
)

// coerceNumber reads a cell as a numeric amount. Formula cells already
// carry their cached computed value. Text values go through currency
// cleanup: symbols, thousands separators, parenthesized negatives.
// Percent strings are display rows, not amounts, and do not coerce.
func coerceNumber(c models.Cell) (float64, bool) {
	switch c.Type {
	case models.CellNumber:
		if strings.HasSuffix(strings.TrimSpace(c.Text), "%") {
			return 0, false
		}
		return c.Number, true
	case models.CellText:
		return parseAmount(c.Text)
	default:
		return 0, false
	}
}

func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasSuffix(s, "%") {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}
	if strings.HasPrefix(s, "-") {
		negative = true
		s = strings.TrimPrefix(s, "-")
	}

	for _, sym := range []string{"$", "€", "£", "ARS", "USD", "MXN"} {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimSpace(s)

	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		n = -n
	}
	return n, true
}
