// Package detect scores a workbook grid against P&L and cashflow
// vocabularies and routes downstream extraction to the right metric set.
// It is a coarse classifier: good enough to pick a vocabulary, not a
// guarantee of statement semantics.
package detect

import (
	"regexp"

	"statement_engine/pkg/core/grid"
	"statement_engine/pkg/core/taxonomy"
	"statement_engine/pkg/models"
)

// Score weights, per classifier hit.
const (
	weightRevenue        = 2
	weightExpense        = 2
	weightPnLAnchor      = 3 // gross profit / net income style anchors
	weightCashActivity   = 2
	weightCashflowAnchor = 5 // explicit "cash flow" wording
	weightBalanceAnchor  = 3 // beginning/ending cash lines
)

var cashflowAnchor = regexp.MustCompile(`(?i)cash\s*flow|flujo\s+de\s+(caja|efectivo)`)

// Scores carries both side totals for diagnostics.
type Scores struct {
	PnL      int
	Cashflow int
}

// Detector classifies a grid as P&L or cashflow.
type Detector struct {
	classifier *taxonomy.Classifier
}

// New builds a detector over the given classifier.
func New(classifier *taxonomy.Classifier) *Detector {
	return &Detector{classifier: classifier}
}

// Detect scans label cells in the top-left window of the first sheet and
// returns whichever statement vocabulary scores higher. Ties resolve to
// P&L; that default is a documented constant, not derived from data.
func (d *Detector) Detect(g *grid.Grid, sheet int) (models.StatementType, Scores) {
	rows, cols := g.Dimensions(sheet)
	if rows > 60 {
		rows = 60
	}
	if cols > 6 {
		cols = 6
	}

	var s Scores
	sawCashflowAnchor := false

	for r := 1; r <= rows; r++ {
		for c := 1; c <= cols; c++ {
			cell := g.Cell(sheet, r, c)
			if cell.Type != models.CellText || cell.Text == "" {
				continue
			}
			if !sawCashflowAnchor && cashflowAnchor.MatchString(cell.Text) {
				s.Cashflow += weightCashflowAnchor
				sawCashflowAnchor = true
			}

			res := d.classifier.Classify(cell.Text, cell.IsCalculated())
			switch res.Category {
			case models.CategoryRevenue:
				s.PnL += weightRevenue
			case models.CategoryExpense:
				s.PnL += weightExpense
			case models.CategoryCashInflow, models.CategoryCashOutflow:
				s.Cashflow += weightCashActivity
			case models.CategoryTotal:
				switch res.Subcategory {
				case models.SubcategoryGrossProfit, models.SubcategoryNetIncome,
					models.SubcategoryEBITDA, models.SubcategoryOperatingIncome:
					s.PnL += weightPnLAnchor
				case models.SubcategoryBeginningBalance, models.SubcategoryEndingBalance:
					s.Cashflow += weightBalanceAnchor
				case models.SubcategoryLowestBalance, models.SubcategoryNetGeneration,
					models.SubcategoryTotalInflow, models.SubcategoryTotalOutflow:
					s.Cashflow += weightCashActivity
				case models.SubcategoryTotalRevenue, models.SubcategoryTotalCOGS,
					models.SubcategoryTotalOpex:
					s.PnL += weightRevenue
				}
			}
		}
	}

	if s.Cashflow > s.PnL {
		return models.StatementCashflow, s
	}
	return models.StatementPnL, s
}

// Sheet names are strong hints when labels are sparse; "Cash Flow" or
// "Flujo" in a sheet name adds the explicit anchor weight.
func (d *Detector) DetectWorkbook(g *grid.Grid) (models.StatementType, Scores) {
	_, s := d.Detect(g, 0)
	for _, name := range g.SheetNames() {
		if cashflowAnchor.MatchString(name) {
			s.Cashflow += weightCashflowAnchor
			break
		}
	}
	if s.Cashflow > s.PnL {
		return models.StatementCashflow, s
	}
	return models.StatementPnL, s
}
