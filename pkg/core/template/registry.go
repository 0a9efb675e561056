// Package template holds the deterministic fast path: a registry of known
// fixed workbook layouts that bypass inference entirely. Recurring
// enterprise templates must parse with 100% determinism — probabilistic
// inference is never allowed to regress a previously-working template.
package template

import (
	"regexp"

	"statement_engine/pkg/models"
)

// RowCheck is one fixed-row fingerprint expectation: the label cell at
// (Row, label column) must match Pattern.
type RowCheck struct {
	Row     int
	Pattern *regexp.Regexp
}

// Template declares one fixed layout: a structural fingerprint plus the
// exact rows each metric lives on. No inference runs on a match.
type Template struct {
	Name            string
	StatementType   models.StatementType
	SheetSubstrings []string // lower-cased; any one must appear in a sheet name
	LabelCol        int
	PeriodRow       int
	Checks          []RowCheck // 1-3 fixed-row label checks
	MetricRows      map[string]int
	CurrencyUnit    models.CurrencyUnit
}

// defaultRegistry declares the recurring layouts shipped with the engine:
// the standard monthly P&L and cashflow templates (labels in column A,
// period headers on row 1).
func defaultRegistry() []Template {
	return []Template{
		{
			Name:            "standard-pnl-v1",
			StatementType:   models.StatementPnL,
			SheetSubstrings: []string{"p&l", "pnl", "profit"},
			LabelCol:        1,
			PeriodRow:       1,
			Checks: []RowCheck{
				{Row: 2, Pattern: regexp.MustCompile(`(?i)^revenue$`)},
				{Row: 3, Pattern: regexp.MustCompile(`(?i)^cost of goods sold$`)},
				{Row: 11, Pattern: regexp.MustCompile(`(?i)^total operating expenses$`)},
			},
			MetricRows: map[string]int{
				models.MetricRevenue:           2,
				models.MetricCOGS:              3,
				models.MetricGrossProfit:       4,
				models.MetricOperatingExpenses: 11,
				models.MetricEBITDA:            13,
				models.MetricOperatingIncome:   16,
				models.MetricNetIncome:         19,
			},
			CurrencyUnit: models.UnitOnes,
		},
		{
			Name:            "standard-cashflow-v1",
			StatementType:   models.StatementCashflow,
			SheetSubstrings: []string{"cashflow", "cash flow", "flujo"},
			LabelCol:        1,
			PeriodRow:       1,
			Checks: []RowCheck{
				{Row: 2, Pattern: regexp.MustCompile(`(?i)^beginning balance$`)},
				{Row: 3, Pattern: regexp.MustCompile(`(?i)^total income$`)},
			},
			MetricRows: map[string]int{
				models.MetricBeginningBalance: 2,
				models.MetricTotalInflow:      3,
				models.MetricTotalOutflow:     4,
				models.MetricEndingBalance:    6,
				models.MetricLowestBalance:    7,
			},
			CurrencyUnit: models.UnitOnes,
		},
	}
}
