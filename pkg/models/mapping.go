package models

import "time"

// Provenance records which strategy produced a mapping.
type Provenance string

const (
	ProvenanceTemplate  Provenance = "template"
	ProvenanceHeuristic Provenance = "heuristic"
	ProvenanceAI        Provenance = "ai"
	ProvenanceManual    Provenance = "manual"
)

// AxisOrientation says whether periods run along a row or down a column.
type AxisOrientation string

const (
	AxisRow    AxisOrientation = "row"
	AxisColumn AxisOrientation = "column"
)

// PeriodAxis locates the time axis of a workbook. For a row orientation,
// AxisIndex is the header row and Indices are the period columns; for a
// column orientation the roles swap. All indices are 1-based.
type PeriodAxis struct {
	Orientation AxisOrientation `json:"orientation"`
	Sheet       int             `json:"sheet"`
	AxisIndex   int             `json:"axis_index"`
	Indices     []int           `json:"indices"`
}

// MetricLocation pins one metric to a grid coordinate. For a row-oriented
// layout only Row is set and the column comes from each period; Col is
// used symmetrically for column-oriented layouts.
type MetricLocation struct {
	Row int `json:"row,omitempty"`
	Col int `json:"col,omitempty"`
}

// Canonical metric keys used in Mapping.MetricLocations.
const (
	MetricRevenue           = "revenue"
	MetricCOGS              = "cogs"
	MetricGrossProfit       = "gross_profit"
	MetricOperatingExpenses = "operating_expenses"
	MetricOperatingIncome   = "operating_income"
	MetricEBITDA            = "ebitda"
	MetricNetIncome         = "net_income"
	MetricTotalInflow       = "total_inflow"
	MetricTotalOutflow      = "total_outflow"
	MetricBeginningBalance  = "beginning_balance"
	MetricEndingBalance     = "ending_balance"
	MetricLowestBalance     = "lowest_balance"
	MetricNetGeneration     = "net_generation"
)

// CurrencyUnit is the scale the source workbook reports numbers in.
type CurrencyUnit string

const (
	UnitOnes      CurrencyUnit = "units"
	UnitThousands CurrencyUnit = "thousands"
	UnitMillions  CurrencyUnit = "millions"
)

// Factor returns the multiplier that converts a reported number into
// absolute currency units.
func (u CurrencyUnit) Factor() float64 {
	switch u {
	case UnitThousands:
		return 1_000
	case UnitMillions:
		return 1_000_000
	default:
		return 1
	}
}

// Mapping is the finalized, serializable description of where each
// required metric lives in one workbook layout. It is built once per
// layout and replayed against future uploads of the same shape; it holds
// no reference to the grid it was inferred from and must be re-validated
// on each use (no staleness detection).
type Mapping struct {
	ID              string                    `json:"id"`
	StatementType   StatementType             `json:"statement_type"`
	PeriodAxis      PeriodAxis                `json:"period_axis"`
	MetricLocations map[string]MetricLocation `json:"metric_locations"`
	CurrencyUnit    CurrencyUnit              `json:"currency_unit"`
	Confidence      float64                   `json:"confidence"`
	Provenance      Provenance                `json:"provenance"`
	Insights        []string                  `json:"insights,omitempty"`
	CreatedAt       time.Time                 `json:"created_at"`
}

// Location returns the declared location for a metric key.
func (m *Mapping) Location(key string) (MetricLocation, bool) {
	loc, ok := m.MetricLocations[key]
	return loc, ok
}

// PeriodMetrics is the canonical output record for one period. The P&L
// and cashflow field groups are mutually exclusive; Type says which one
// is populated.
type PeriodMetrics struct {
	Type   StatementType `json:"type"`
	Period Period        `json:"period"`

	// P&L
	Revenue           float64 `json:"revenue,omitempty"`
	COGS              float64 `json:"cogs,omitempty"`
	GrossProfit       float64 `json:"gross_profit,omitempty"`
	GrossMargin       float64 `json:"gross_margin,omitempty"`
	OperatingExpenses float64 `json:"operating_expenses,omitempty"`
	OperatingIncome   float64 `json:"operating_income,omitempty"`
	OperatingMargin   float64 `json:"operating_margin,omitempty"`
	EBITDA            float64 `json:"ebitda,omitempty"`
	EBITDAMargin      float64 `json:"ebitda_margin,omitempty"`
	NetIncome         float64 `json:"net_income,omitempty"`
	NetMargin         float64 `json:"net_margin,omitempty"`

	// Cashflow
	TotalInflow      float64 `json:"total_inflow,omitempty"`
	TotalOutflow     float64 `json:"total_outflow,omitempty"`
	BeginningBalance float64 `json:"beginning_balance,omitempty"`
	EndingBalance    float64 `json:"ending_balance,omitempty"`
	LowestBalance    float64 `json:"lowest_balance,omitempty"`
	NetGeneration    float64 `json:"net_generation,omitempty"`
}

// ExpectedMetrics lists the metric keys a complete mapping of the given
// statement type should locate. Used for heuristic confidence scoring and
// validation coverage.
func ExpectedMetrics(t StatementType) []string {
	if t == StatementCashflow {
		return []string{
			MetricTotalInflow, MetricTotalOutflow,
			MetricBeginningBalance, MetricEndingBalance, MetricLowestBalance,
		}
	}
	return []string{
		MetricRevenue, MetricCOGS, MetricOperatingExpenses,
		MetricEBITDA, MetricNetIncome,
	}
}
