// Package models defines the shared data types for the statement
// inference and extraction engine: grid cells, periods, line items,
// mappings and the canonical per-period metrics output.
package models

import "time"

// StatementType identifies which kind of financial statement a workbook holds.
type StatementType string

const (
	StatementPnL      StatementType = "pnl"
	StatementCashflow StatementType = "cashflow"
)

// CellType is the declared type of a grid cell.
type CellType string

const (
	CellEmpty  CellType = "empty"
	CellNumber CellType = "number"
	CellText   CellType = "text"
	CellDate   CellType = "date"
)

// Cell is one immutable (sheet, row, col) value read from a workbook.
// Number and Date are only meaningful for the matching Type; Text always
// carries the display string. Formula holds the formula source when the
// cell is computed (the Value fields hold the cached result, never the
// formula text).
type Cell struct {
	Sheet   int       `json:"sheet"`
	Row     int       `json:"row"`
	Col     int       `json:"col"`
	Type    CellType  `json:"type"`
	Text    string    `json:"text,omitempty"`
	Number  float64   `json:"number,omitempty"`
	Date    time.Time `json:"date,omitempty"`
	Formula string    `json:"formula,omitempty"`
	Format  string    `json:"format,omitempty"`
}

// IsEmpty reports whether the cell holds no value.
func (c Cell) IsEmpty() bool {
	return c.Type == CellEmpty || (c.Type == CellText && c.Text == "")
}

// IsCalculated reports whether the cell value comes from a formula.
func (c Cell) IsCalculated() bool {
	return c.Formula != ""
}

// PeriodKind is the granularity of a time bucket.
type PeriodKind string

const (
	PeriodMonth   PeriodKind = "month"
	PeriodQuarter PeriodKind = "quarter"
	PeriodYear    PeriodKind = "year"
)

// Period is one ordinal time bucket bound to a grid coordinate: a column
// index in a row-oriented layout, or a row index in a column-oriented one.
// Date is only trusted when Resolved is true; otherwise Ordinal preserves
// the sheet order so unparseable headers are never dropped.
type Period struct {
	Kind     PeriodKind `json:"kind"`
	Label    string     `json:"label"`
	Index    int        `json:"index"` // column (row layout) or row (column layout), 1-based
	Ordinal  int        `json:"ordinal"`
	Date     time.Time  `json:"date,omitempty"`
	Resolved bool       `json:"resolved"`
}

// Category is the financial taxonomy bucket assigned to a line item.
type Category string

const (
	CategoryRevenue     Category = "revenue"
	CategoryExpense     Category = "expense"
	CategoryAsset       Category = "asset"
	CategoryLiability   Category = "liability"
	CategoryEquity      Category = "equity"
	CategoryCashInflow  Category = "cash_inflow"
	CategoryCashOutflow Category = "cash_outflow"
	CategorySubtotal    Category = "subtotal"
	CategoryTotal       Category = "total"
	CategoryUnknown     Category = "unknown"
)

// Expense subcategories.
const (
	SubcategoryCOGS                 = "cogs"
	SubcategoryPersonnel            = "personnel"
	SubcategoryMarketing            = "marketing"
	SubcategoryFacilities           = "facilities"
	SubcategoryProfessionalServices = "professional_services"
)

// Cashflow activity subcategories.
const (
	SubcategoryOperating = "operating"
	SubcategoryInvesting = "investing"
	SubcategoryFinancing = "financing"
)

// Total/subtotal marker subcategories, used to recognize explicit
// pre-computed lines (e.g. "Total Revenue", "EBITDA", "Utilidad Neta").
const (
	SubcategoryTotalRevenue     = "total_revenue"
	SubcategoryTotalCOGS        = "total_cogs"
	SubcategoryGrossProfit      = "gross_profit"
	SubcategoryTotalOpex        = "total_opex"
	SubcategoryEBITDA           = "ebitda"
	SubcategoryOperatingIncome  = "operating_income"
	SubcategoryNetIncome        = "net_income"
	SubcategoryTotalInflow      = "total_inflow"
	SubcategoryTotalOutflow     = "total_outflow"
	SubcategoryBeginningBalance = "beginning_balance"
	SubcategoryEndingBalance    = "ending_balance"
	SubcategoryLowestBalance    = "lowest_balance"
	SubcategoryNetGeneration    = "net_generation"
)

// LineItem is one classified label/value pair bound to a single period
// coordinate. Value is always numeric: label-only rows never become
// line items.
type LineItem struct {
	Label        string   `json:"label"`
	Row          int      `json:"row"`
	Col          int      `json:"col"`
	Category     Category `json:"category"`
	Subcategory  string   `json:"subcategory,omitempty"`
	IsCalculated bool     `json:"is_calculated,omitempty"`
	Value        float64  `json:"value"`
	PeriodIndex  int      `json:"period_index"` // matches Period.Index
}
