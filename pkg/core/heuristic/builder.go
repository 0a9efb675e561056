// Package heuristic is the generic pattern-matching fallback strategy: it
// combines the period locator and the taxonomy classifier over a bounded
// window and produces the same mapping shape as the AI-assisted path.
// Heuristic output is never assigned full confidence.
package heuristic

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"statement_engine/pkg/core/grid"
	"statement_engine/pkg/core/periods"
	"statement_engine/pkg/core/taxonomy"
	"statement_engine/pkg/models"
)

const (
	confidenceBase = 50
	confidenceSpan = 40
	confidenceCap  = 90

	// Rows (or columns) of line items inspected below/past the axis.
	scanDepth = 60
)

// Builder produces heuristic mappings.
type Builder struct {
	classifier *taxonomy.Classifier
}

// New returns a Builder over the given classifier.
func New(classifier *taxonomy.Classifier) *Builder {
	return &Builder{classifier: classifier}
}

// Build infers a mapping for the detected statement type. Fails softly
// with models.ErrPeriodAxisNotFound when the sheet has no locatable time
// axis; callers may still offer a manual mapping.
func (b *Builder) Build(g *grid.Grid, sheet int, t models.StatementType) (*models.Mapping, error) {
	axis, _, err := periods.Locate(g, sheet, periods.DefaultWindow())
	if err != nil {
		return nil, err
	}

	locations := b.locateMetrics(g, axis, t)

	expected := models.ExpectedMetrics(t)
	found := 0
	for _, key := range expected {
		if _, ok := locations[key]; ok {
			found++
		}
	}
	confidence := float64(confidenceBase) + float64(confidenceSpan)*float64(found)/float64(len(expected))
	if confidence > confidenceCap {
		confidence = confidenceCap
	}

	return &models.Mapping{
		ID:              uuid.NewString(),
		StatementType:   t,
		PeriodAxis:      axis,
		MetricLocations: locations,
		CurrencyUnit:    DetectUnit(g, sheet),
		Confidence:      confidence,
		Provenance:      models.ProvenanceHeuristic,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// candidate tracks the best row found so far for one metric. An explicit
// total anchor always beats an atomic line matched on broad vocab.
type candidate struct {
	index  int
	anchor bool
}

func (b *Builder) locateMetrics(g *grid.Grid, axis models.PeriodAxis, t models.StatementType) map[string]models.MetricLocation {
	found := make(map[string]candidate)

	propose := func(key string, index int, anchor bool) {
		cur, ok := found[key]
		if !ok || (anchor && !cur.anchor) {
			found[key] = candidate{index: index, anchor: anchor}
		}
	}

	forEachLabel(g, axis, func(index int, label string, calculated, percentRow bool) {
		if percentRow {
			// Margin display rows ("61.2%") must never be read as amounts.
			return
		}
		res := b.classifier.Classify(label, calculated)
		for _, hit := range metricKeysFor(t, res) {
			propose(hit.key, index, hit.anchor)
		}
	})

	locations := make(map[string]models.MetricLocation, len(found))
	for key, cand := range found {
		if axis.Orientation == models.AxisRow {
			locations[key] = models.MetricLocation{Row: cand.index}
		} else {
			locations[key] = models.MetricLocation{Col: cand.index}
		}
	}
	return locations
}

type metricHit struct {
	key    string
	anchor bool
}

// metricKeysFor translates a taxonomy result into mapping metric keys for
// the statement type being built.
func metricKeysFor(t models.StatementType, res taxonomy.Result) []metricHit {
	if t == models.StatementCashflow {
		switch res.Category {
		case models.CategoryTotal:
			switch res.Subcategory {
			case models.SubcategoryTotalInflow, models.SubcategoryTotalRevenue:
				return []metricHit{{models.MetricTotalInflow, true}}
			case models.SubcategoryTotalOutflow:
				return []metricHit{{models.MetricTotalOutflow, true}}
			case models.SubcategoryBeginningBalance:
				return []metricHit{{models.MetricBeginningBalance, true}}
			case models.SubcategoryEndingBalance:
				return []metricHit{{models.MetricEndingBalance, true}}
			case models.SubcategoryLowestBalance:
				return []metricHit{{models.MetricLowestBalance, true}}
			}
		case models.CategoryRevenue, models.CategoryCashInflow:
			return []metricHit{{models.MetricTotalInflow, false}}
		case models.CategoryExpense, models.CategoryCashOutflow:
			return []metricHit{{models.MetricTotalOutflow, false}}
		}
		return nil
	}

	switch res.Category {
	case models.CategoryTotal:
		switch res.Subcategory {
		case models.SubcategoryTotalRevenue:
			return []metricHit{{models.MetricRevenue, true}}
		case models.SubcategoryTotalCOGS:
			return []metricHit{{models.MetricCOGS, true}}
		case models.SubcategoryGrossProfit:
			return []metricHit{{models.MetricGrossProfit, true}}
		case models.SubcategoryTotalOpex:
			return []metricHit{{models.MetricOperatingExpenses, true}}
		case models.SubcategoryEBITDA:
			return []metricHit{{models.MetricEBITDA, true}}
		case models.SubcategoryOperatingIncome:
			return []metricHit{{models.MetricOperatingIncome, true}}
		case models.SubcategoryNetIncome:
			return []metricHit{{models.MetricNetIncome, true}}
		}
	case models.CategoryRevenue:
		return []metricHit{{models.MetricRevenue, false}}
	case models.CategoryExpense:
		if res.Subcategory == models.SubcategoryCOGS {
			return []metricHit{{models.MetricCOGS, false}}
		}
	}
	return nil
}

// forEachLabel walks the line-item labels adjacent to the period axis.
// For a row-oriented layout that is the label column cells below the
// header row; for a column-oriented layout, the header labels of each
// metric column. percentRow flags rows whose period values render as
// percentages.
func forEachLabel(g *grid.Grid, axis models.PeriodAxis, fn func(index int, label string, calculated, percentRow bool)) {
	if len(axis.Indices) == 0 {
		return
	}

	if axis.Orientation == models.AxisRow {
		labelCol := 1
		if first := axis.Indices[0]; first > 1 {
			labelCol = first - 1
		}
		rows, _ := g.Dimensions(axis.Sheet)
		last := min(rows, axis.AxisIndex+scanDepth)
		for r := axis.AxisIndex + 1; r <= last; r++ {
			label := g.Cell(axis.Sheet, r, labelCol).Text
			if strings.TrimSpace(label) == "" {
				continue
			}
			first := g.Cell(axis.Sheet, r, axis.Indices[0])
			fn(r, label, first.IsCalculated(), isPercentCell(first))
		}
		return
	}

	labelRow := 1
	if first := axis.Indices[0]; first > 1 {
		labelRow = first - 1
	}
	_, cols := g.Dimensions(axis.Sheet)
	last := min(cols, axis.AxisIndex+scanDepth)
	for c := axis.AxisIndex + 1; c <= last; c++ {
		label := g.Cell(axis.Sheet, labelRow, c).Text
		if strings.TrimSpace(label) == "" {
			continue
		}
		first := g.Cell(axis.Sheet, axis.Indices[0], c)
		fn(c, label, first.IsCalculated(), isPercentCell(first))
	}
}

func isPercentCell(c models.Cell) bool {
	return c.Type == models.CellText && strings.HasSuffix(strings.TrimSpace(c.Text), "%") ||
		c.Type == models.CellNumber && strings.HasSuffix(strings.TrimSpace(c.Text), "%")
}
