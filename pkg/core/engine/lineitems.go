package engine

import (
	"strings"

	"statement_engine/pkg/core/grid"
	"statement_engine/pkg/core/taxonomy"
	"statement_engine/pkg/models"
)

// collectLineItems classifies every labeled row (or column) adjacent to
// the period axis and emits one LineItem per period coordinate holding a
// numeric value. This feeds the aggregation pipeline for layouts whose
// mapping lacks explicit total rows — decomposed statements where metrics
// only exist as sums of section lines.
func collectLineItems(g *grid.Grid, axis models.PeriodAxis, classifier *taxonomy.Classifier) []models.LineItem {
	var items []models.LineItem
	if len(axis.Indices) == 0 {
		return items
	}

	appendItems := func(label string, valueAt func(periodIndex int) models.Cell) {
		label = strings.TrimSpace(label)
		if label == "" {
			return
		}
		first := valueAt(axis.Indices[0])
		if isPercentText(first.Text) {
			return
		}
		res := classifier.Classify(label, first.IsCalculated())
		if res.Category == models.CategoryUnknown {
			return
		}
		for _, idx := range axis.Indices {
			cell := valueAt(idx)
			if cell.Type != models.CellNumber || isPercentText(cell.Text) {
				continue
			}
			items = append(items, models.LineItem{
				Label:        label,
				Row:          cell.Row,
				Col:          cell.Col,
				Category:     res.Category,
				Subcategory:  res.Subcategory,
				IsCalculated: cell.IsCalculated(),
				Value:        cell.Number,
				PeriodIndex:  idx,
			})
		}
	}

	if axis.Orientation == models.AxisRow {
		labelCol := 1
		if first := axis.Indices[0]; first > 1 {
			labelCol = first - 1
		}
		rows, _ := g.Dimensions(axis.Sheet)
		for r := axis.AxisIndex + 1; r <= rows; r++ {
			row := r
			appendItems(g.Cell(axis.Sheet, r, labelCol).Text, func(idx int) models.Cell {
				return g.Cell(axis.Sheet, row, idx)
			})
		}
		return items
	}

	labelRow := 1
	if first := axis.Indices[0]; first > 1 {
		labelRow = first - 1
	}
	_, cols := g.Dimensions(axis.Sheet)
	for c := axis.AxisIndex + 1; c <= cols; c++ {
		col := c
		appendItems(g.Cell(axis.Sheet, labelRow, c).Text, func(idx int) models.Cell {
			return g.Cell(axis.Sheet, idx, col)
		})
	}
	return items
}

func isPercentText(s string) bool {
	return strings.HasSuffix(strings.TrimSpace(s), "%")
}
