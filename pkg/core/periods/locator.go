package periods

import (
	"sort"

	"statement_engine/pkg/core/grid"
	"statement_engine/pkg/models"
)

// A row or column qualifies as the period axis once it holds this many
// date-like cells.
const axisThreshold = 3

// ScanWindow bounds how much of a sheet the locator inspects. Statement
// headers live near the top-left corner; scanning the full extent of
// large sheets buys nothing.
type ScanWindow struct {
	MaxRows int
	MaxCols int
}

// DefaultWindow is sized for the statement layouts seen in practice:
// period headers within the first 15 rows and 30 columns.
func DefaultWindow() ScanWindow {
	return ScanWindow{MaxRows: 15, MaxCols: 30}
}

// Locate scans the sheet for its period axis. Rows are scanned
// top-to-bottom first; when no row qualifies, columns are scanned
// left-to-right. The first qualifying row or column wins — ties are not
// re-scored. Fails with models.ErrPeriodAxisNotFound, which callers may
// treat as soft (manual mapping is still possible).
func Locate(g *grid.Grid, sheet int, win ScanWindow) (models.PeriodAxis, []models.Period, error) {
	rows, cols := g.Dimensions(sheet)
	maxRows := min(rows, win.MaxRows)
	maxCols := min(cols, win.MaxCols)

	for r := 1; r <= maxRows; r++ {
		var indices []int
		for c := 1; c <= maxCols; c++ {
			if IsDateLike(g.Cell(sheet, r, c)) {
				indices = append(indices, c)
			}
		}
		if len(indices) >= axisThreshold {
			axis := models.PeriodAxis{
				Orientation: models.AxisRow,
				Sheet:       sheet,
				AxisIndex:   r,
				Indices:     indices,
			}
			return axis, BuildPeriods(g, axis), nil
		}
	}

	for c := 1; c <= maxCols; c++ {
		var indices []int
		for r := 1; r <= min(rows, win.MaxRows*2); r++ {
			if IsDateLike(g.Cell(sheet, r, c)) {
				indices = append(indices, r)
			}
		}
		if len(indices) >= axisThreshold {
			axis := models.PeriodAxis{
				Orientation: models.AxisColumn,
				Sheet:       sheet,
				AxisIndex:   c,
				Indices:     indices,
			}
			return axis, BuildPeriods(g, axis), nil
		}
	}

	return models.PeriodAxis{}, nil, models.ErrPeriodAxisNotFound
}

// BuildPeriods materializes the ordered Period list for an axis, reading
// each bound coordinate from the grid. Quarter and year subtotal columns
// interleaved with a monthly axis are dropped. Periods are ordered by
// calendar date when every header resolved; otherwise sheet order is
// preserved so unparseable headers are never dropped or shuffled.
func BuildPeriods(g *grid.Grid, axis models.PeriodAxis) []models.Period {
	periods := make([]models.Period, 0, len(axis.Indices))

	for ordinal, idx := range axis.Indices {
		var cell models.Cell
		if axis.Orientation == models.AxisRow {
			cell = g.Cell(axis.Sheet, axis.AxisIndex, idx)
		} else {
			cell = g.Cell(axis.Sheet, idx, axis.AxisIndex)
		}

		p := models.Period{
			Kind:    models.PeriodMonth,
			Label:   cell.Text,
			Index:   idx,
			Ordinal: ordinal,
		}
		if t, kind, ok := CoerceCell(cell); ok {
			p.Date = t
			p.Kind = kind
			p.Resolved = true
		}
		periods = append(periods, p)
	}

	periods = dropSubtotalPeriods(periods)

	allResolved := true
	for _, p := range periods {
		if !p.Resolved {
			allResolved = false
			break
		}
	}
	if allResolved {
		sort.SliceStable(periods, func(i, j int) bool {
			return periods[i].Date.Before(periods[j].Date)
		})
	}
	return periods
}

// dropSubtotalPeriods removes quarter and year columns from an axis whose
// dominant kind is month. Layouts often interleave "Q1-2024 Total" or a
// full-year column with the months; keeping such a column would count
// each quarter's sum alongside its constituent months. A purely quarterly
// or yearly statement is untouched.
func dropSubtotalPeriods(periods []models.Period) []models.Period {
	months, coarser := 0, 0
	for _, p := range periods {
		if !p.Resolved {
			continue
		}
		switch p.Kind {
		case models.PeriodMonth:
			months++
		case models.PeriodQuarter, models.PeriodYear:
			coarser++
		}
	}
	if months == 0 || coarser == 0 || months <= coarser {
		return periods
	}
	kept := periods[:0]
	for _, p := range periods {
		if p.Resolved && p.Kind != models.PeriodMonth {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}
