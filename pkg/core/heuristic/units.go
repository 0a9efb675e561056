package heuristic

import (
	"regexp"

	"statement_engine/pkg/core/grid"
	"statement_engine/pkg/models"
)

var (
	// The bare 000 form must not fire inside years or figures ("FY 2000",
	// "1,000"), so it requires a non-numeric left boundary.
	reThousands = regexp.MustCompile(`(?i)\(?\s*(in\s+)?thousands\s*\)?|\bmiles(\s+de\s+\w+)?\b|(?:^|[^0-9.,])['’]?000s?\b|\(000\)`)
	reMillions  = regexp.MustCompile(`(?i)\(?\s*(in\s+)?millions\s*\)?|\bmillones\b|\bmm\b`)
)

// DetectUnit scans the header region of a sheet for literal scale tokens
// ("(in thousands)", "miles", "millones") placed near the numeric body.
// Absent any token, values are taken at face value.
func DetectUnit(g *grid.Grid, sheet int) models.CurrencyUnit {
	rows, cols := g.Dimensions(sheet)
	if rows > 10 {
		rows = 10
	}
	if cols > 12 {
		cols = 12
	}
	for r := 1; r <= rows; r++ {
		for c := 1; c <= cols; c++ {
			cell := g.Cell(sheet, r, c)
			if cell.Type != models.CellText || cell.Text == "" {
				continue
			}
			if reMillions.MatchString(cell.Text) {
				return models.UnitMillions
			}
			if reThousands.MatchString(cell.Text) {
				return models.UnitThousands
			}
		}
	}
	return models.UnitOnes
}
