// Package aggregate folds classified line items into canonical per-period
// metrics. Derived fields are recomputed from primitives; an explicit
// pre-computed line (EBITDA, net income, section totals) wins over the
// derivation when the source supplies one.
package aggregate

import (
	"math"
	"sort"

	"statement_engine/pkg/models"
)

// Aggregator folds line items per period. Stateless and safe for
// concurrent use.
type Aggregator struct{}

// New returns an Aggregator.
func New() *Aggregator {
	return &Aggregator{}
}

// fold accumulates one period's classified values.
type fold struct {
	revenue      float64
	revenueSeen  bool
	cogs         float64
	cogsSeen     bool
	opex         float64
	opexSeen     bool
	inflow       float64
	inflowSeen   bool
	outflow      float64
	outflowSeen  bool
	explicit     map[string]float64
	explicitSeen map[string]bool
}

func newFold() *fold {
	return &fold{
		explicit:     make(map[string]float64),
		explicitSeen: make(map[string]bool),
	}
}

func (f *fold) setExplicit(key string, v float64) {
	// First explicit line wins; templates occasionally repeat totals in a
	// summary block lower down.
	if !f.explicitSeen[key] {
		f.explicit[key] = v
		f.explicitSeen[key] = true
	}
}

func (f *fold) explicitOr(key string, derived float64) float64 {
	if f.explicitSeen[key] {
		return f.explicit[key]
	}
	return derived
}

// Aggregate produces the canonical metrics series for a statement.
// Periods whose revenue (P&L) or cash movement (cashflow) is absent are
// dropped as not-yet-reported: templates routinely carry empty forward
// months.
func (a *Aggregator) Aggregate(t models.StatementType, periods []models.Period, items []models.LineItem) []models.PeriodMetrics {
	folds := make(map[int]*fold, len(periods))
	for _, p := range periods {
		folds[p.Index] = newFold()
	}

	for _, item := range items {
		f, ok := folds[item.PeriodIndex]
		if !ok {
			continue
		}
		a.foldItem(f, item)
	}

	out := make([]models.PeriodMetrics, 0, len(periods))
	for _, p := range periods {
		f := folds[p.Index]
		var pm models.PeriodMetrics
		var keep bool
		if t == models.StatementCashflow {
			pm, keep = a.cashflowMetrics(p, f)
		} else {
			pm, keep = a.pnlMetrics(p, f)
		}
		if keep {
			out = append(out, pm)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].Period, out[j].Period
		if pi.Resolved && pj.Resolved {
			return pi.Date.Before(pj.Date)
		}
		return pi.Ordinal < pj.Ordinal
	})
	return out
}

func (a *Aggregator) foldItem(f *fold, item models.LineItem) {
	v := item.Value
	switch item.Category {
	case models.CategoryRevenue:
		// Source sign is unreliable across templates; revenue folds as
		// absolute value.
		f.revenue += math.Abs(v)
		f.revenueSeen = true
	case models.CategoryExpense:
		if item.Subcategory == models.SubcategoryCOGS {
			f.cogs += math.Abs(v)
			f.cogsSeen = true
		} else {
			f.opex += math.Abs(v)
			f.opexSeen = true
		}
	case models.CategoryCashInflow:
		f.inflow += math.Abs(v)
		f.inflowSeen = true
	case models.CategoryCashOutflow:
		f.outflow += math.Abs(v)
		f.outflowSeen = true
	case models.CategoryTotal:
		if item.Subcategory != "" {
			f.setExplicit(item.Subcategory, v)
		}
	case models.CategorySubtotal, models.CategoryUnknown:
		// Subtotals would double-count their components; unknown rows are
		// non-financial noise.
	default:
		// asset/liability/equity passthrough categories retain sign but do
		// not feed P&L or cashflow folds.
	}
}

func (a *Aggregator) pnlMetrics(p models.Period, f *fold) (models.PeriodMetrics, bool) {
	revenue := f.revenue
	if !f.revenueSeen {
		revenue = f.explicitOr(models.SubcategoryTotalRevenue, 0)
	}
	cogs := f.cogs
	if !f.cogsSeen {
		cogs = math.Abs(f.explicitOr(models.SubcategoryTotalCOGS, 0))
	}
	opex := f.opex
	if !f.opexSeen {
		opex = math.Abs(f.explicitOr(models.SubcategoryTotalOpex, 0))
	}

	grossProfit := revenue - cogs
	if !f.revenueSeen && !f.cogsSeen && f.explicitSeen[models.SubcategoryGrossProfit] {
		grossProfit = f.explicit[models.SubcategoryGrossProfit]
	}
	operatingIncome := grossProfit - opex
	if f.explicitSeen[models.SubcategoryOperatingIncome] {
		operatingIncome = f.explicit[models.SubcategoryOperatingIncome]
	}
	ebitda := f.explicitOr(models.SubcategoryEBITDA, operatingIncome)
	netIncome := f.explicitOr(models.SubcategoryNetIncome, operatingIncome)

	if revenue <= 0 {
		return models.PeriodMetrics{}, false
	}

	pm := models.PeriodMetrics{
		Type:              models.StatementPnL,
		Period:            p,
		Revenue:           revenue,
		COGS:              cogs,
		GrossProfit:       grossProfit,
		GrossMargin:       margin(grossProfit, revenue),
		OperatingExpenses: opex,
		OperatingIncome:   operatingIncome,
		OperatingMargin:   margin(operatingIncome, revenue),
		EBITDA:            ebitda,
		EBITDAMargin:      margin(ebitda, revenue),
		NetIncome:         netIncome,
		NetMargin:         margin(netIncome, revenue),
	}
	return pm, true
}

func (a *Aggregator) cashflowMetrics(p models.Period, f *fold) (models.PeriodMetrics, bool) {
	inflow := f.inflow
	// "Total Income" anchors classify under the revenue-total key in mixed
	// templates; in a cashflow statement that is the inflow total.
	if f.explicitSeen[models.SubcategoryTotalInflow] {
		inflow = math.Abs(f.explicit[models.SubcategoryTotalInflow])
	} else if f.explicitSeen[models.SubcategoryTotalRevenue] {
		inflow = math.Abs(f.explicit[models.SubcategoryTotalRevenue])
	} else if !f.inflowSeen && f.revenueSeen {
		inflow = f.revenue
	}

	outflow := f.outflow
	if f.explicitSeen[models.SubcategoryTotalOutflow] {
		outflow = math.Abs(f.explicit[models.SubcategoryTotalOutflow])
	} else if !f.outflowSeen && (f.opexSeen || f.cogsSeen) {
		outflow = f.opex + f.cogs
	}

	netGeneration := f.explicitOr(models.SubcategoryNetGeneration, inflow-outflow)

	if inflow <= 0 && outflow <= 0 {
		return models.PeriodMetrics{}, false
	}

	pm := models.PeriodMetrics{
		Type:             models.StatementCashflow,
		Period:           p,
		TotalInflow:      inflow,
		TotalOutflow:     outflow,
		BeginningBalance: f.explicitOr(models.SubcategoryBeginningBalance, 0),
		EndingBalance:    f.explicitOr(models.SubcategoryEndingBalance, 0),
		LowestBalance:    f.explicitOr(models.SubcategoryLowestBalance, 0),
		NetGeneration:    netGeneration,
	}
	return pm, true
}

// margin returns value/base as a percentage, zero-guarded.
func margin(value, base float64) float64 {
	if base == 0 {
		return 0
	}
	return value / base * 100
}
