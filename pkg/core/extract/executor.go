package extract

import (
	"statement_engine/pkg/core/grid"
	"statement_engine/pkg/core/periods"
	"statement_engine/pkg/models"
)

// Executor walks a mapping's period coordinates and metric locations and
// produces the PeriodMetrics series. Stateless; one instance serves
// concurrent uploads.
type Executor struct{}

// NewExecutor returns an Executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Extract reads every declared metric at every period coordinate.
// Individual cells that fail numeric coercion degrade to zero; a period
// is only dropped when it carries no signal at all (unreported forward
// months), never because one cell was malformed.
func (e *Executor) Extract(g *grid.Grid, m *models.Mapping) []models.PeriodMetrics {
	ps := periods.BuildPeriods(g, m.PeriodAxis)
	scale := m.CurrencyUnit.Factor()

	out := make([]models.PeriodMetrics, 0, len(ps))
	for _, p := range ps {
		values := make(map[string]float64, len(m.MetricLocations))
		located := make(map[string]bool, len(m.MetricLocations))
		for key, loc := range m.MetricLocations {
			cell := e.cellFor(g, m.PeriodAxis, loc, p)
			if v, ok := coerceNumber(cell); ok {
				values[key] = v * scale
				located[key] = true
			}
		}

		var pm models.PeriodMetrics
		var keep bool
		if m.StatementType == models.StatementCashflow {
			pm, keep = cashflowRecord(p, values, located)
		} else {
			pm, keep = pnlRecord(p, values, located)
		}
		if keep {
			out = append(out, pm)
		}
	}
	return out
}

// cellFor resolves a metric location against one period coordinate: in a
// row-oriented layout the metric fixes the row and the period supplies
// the column, and symmetrically for column-oriented layouts. A location
// carrying both coordinates is an absolute cell (manual mappings may pin
// one-off values that way).
func (e *Executor) cellFor(g *grid.Grid, axis models.PeriodAxis, loc models.MetricLocation, p models.Period) models.Cell {
	if loc.Row > 0 && loc.Col > 0 {
		return g.Cell(axis.Sheet, loc.Row, loc.Col)
	}
	if axis.Orientation == models.AxisRow {
		return g.Cell(axis.Sheet, loc.Row, p.Index)
	}
	return g.Cell(axis.Sheet, p.Index, loc.Col)
}

func pnlRecord(p models.Period, v map[string]float64, has map[string]bool) (models.PeriodMetrics, bool) {
	revenue := v[models.MetricRevenue]
	cogs := v[models.MetricCOGS]
	opex := v[models.MetricOperatingExpenses]

	grossProfit := revenue - cogs
	if !has[models.MetricCOGS] && !has[models.MetricRevenue] && has[models.MetricGrossProfit] {
		grossProfit = v[models.MetricGrossProfit]
	}
	operatingIncome := grossProfit - opex
	if !has[models.MetricOperatingExpenses] && has[models.MetricOperatingIncome] {
		operatingIncome = v[models.MetricOperatingIncome]
	}
	ebitda := operatingIncome
	if has[models.MetricEBITDA] {
		ebitda = v[models.MetricEBITDA]
	}
	netIncome := operatingIncome
	if has[models.MetricNetIncome] {
		netIncome = v[models.MetricNetIncome]
	}

	if revenue <= 0 {
		return models.PeriodMetrics{}, false
	}

	return models.PeriodMetrics{
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
	}, true
}

func cashflowRecord(p models.Period, v map[string]float64, has map[string]bool) (models.PeriodMetrics, bool) {
	inflow := v[models.MetricTotalInflow]
	outflow := v[models.MetricTotalOutflow]

	netGeneration := inflow - outflow
	if has[models.MetricNetGeneration] {
		netGeneration = v[models.MetricNetGeneration]
	}

	if inflow <= 0 && outflow <= 0 && v[models.MetricEndingBalance] == 0 {
		return models.PeriodMetrics{}, false
	}

	return models.PeriodMetrics{
		Type:             models.StatementCashflow,
		Period:           p,
		TotalInflow:      inflow,
		TotalOutflow:     outflow,
		BeginningBalance: v[models.MetricBeginningBalance],
		EndingBalance:    v[models.MetricEndingBalance],
		LowestBalance:    v[models.MetricLowestBalance],
		NetGeneration:    netGeneration,
	}, true
}

func margin(value, base float64) float64 {
	if base == 0 {
		return 0
	}
	return value / base * 100
}
