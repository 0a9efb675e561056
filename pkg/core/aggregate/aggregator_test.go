package aggregate

import (
	"math"
	"testing"
	"time"

	"statement_engine/pkg/models"
)

func date(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

func monthPeriods(n int) []models.Period {
	ps := make([]models.Period, n)
	for i := range ps {
		ps[i] = models.Period{Kind: models.PeriodMonth, Index: i + 2, Ordinal: i}
	}
	return ps
}

func item(cat models.Category, sub string, periodIndex int, v float64) models.LineItem {
	return models.LineItem{Category: cat, Subcategory: sub, PeriodIndex: periodIndex, Value: v}
}

func TestAggregatePnLDerivation(t *testing.T) {
	// Revenue 100000, COGS 40000 => gross profit 60000, gross margin 60%.
	a := New()
	ps := monthPeriods(1)
	items := []models.LineItem{
		item(models.CategoryRevenue, "", 2, 100000),
		item(models.CategoryExpense, models.SubcategoryCOGS, 2, 40000),
		item(models.CategoryExpense, models.SubcategoryPersonnel, 2, 25000),
	}

	out := a.Aggregate(models.StatementPnL, ps, items)
	if len(out) != 1 {
		t.Fatalf("Expected 1 period, got %d", len(out))
	}
	m := out[0]
	if m.Revenue != 100000 {
		t.Errorf("Expected revenue 100000, got %f", m.Revenue)
	}
	if m.GrossProfit != 60000 {
		t.Errorf("Expected gross profit 60000, got %f", m.GrossProfit)
	}
	if math.Abs(m.GrossMargin-60.0) > 0.0001 {
		t.Errorf("Expected gross margin 60.0, got %f", m.GrossMargin)
	}
	// Opex 25000 => operating income 35000, which EBITDA and net income
	// default to absent explicit lines.
	if m.OperatingIncome != 35000 {
		t.Errorf("Expected operating income 35000, got %f", m.OperatingIncome)
	}
	if m.EBITDA != 35000 || m.NetIncome != 35000 {
		t.Errorf("Expected EBITDA/net income to default to operating income, got %f/%f", m.EBITDA, m.NetIncome)
	}
}

func TestAggregateExpenseSignsNormalized(t *testing.T) {
	// Sources that report costs as negatives must fold identically to
	// positive-cost sources.
	a := New()
	ps := monthPeriods(1)
	items := []models.LineItem{
		item(models.CategoryRevenue, "", 2, 100000),
		item(models.CategoryExpense, models.SubcategoryCOGS, 2, -40000),
	}

	out := a.Aggregate(models.StatementPnL, ps, items)
	if len(out) != 1 || out[0].COGS != 40000 {
		t.Fatalf("Expected COGS 40000 from negative source, got %+v", out)
	}
	if out[0].GrossProfit != 60000 {
		t.Errorf("Expected gross profit 60000, got %f", out[0].GrossProfit)
	}
}

func TestAggregateExplicitLinesWin(t *testing.T) {
	// The source carries its own EBITDA and net income lines; derivation
	// must not override them.
	a := New()
	ps := monthPeriods(1)
	items := []models.LineItem{
		item(models.CategoryRevenue, "", 2, 100000),
		item(models.CategoryExpense, models.SubcategoryCOGS, 2, 40000),
		item(models.CategoryTotal, models.SubcategoryEBITDA, 2, 31000),
		item(models.CategoryTotal, models.SubcategoryNetIncome, 2, 18500),
	}

	out := a.Aggregate(models.StatementPnL, ps, items)
	if len(out) != 1 {
		t.Fatalf("Expected 1 period, got %d", len(out))
	}
	if out[0].EBITDA != 31000 {
		t.Errorf("Expected explicit EBITDA 31000, got %f", out[0].EBITDA)
	}
	if out[0].NetIncome != 18500 {
		t.Errorf("Expected explicit net income 18500, got %f", out[0].NetIncome)
	}
	if math.Abs(out[0].NetMargin-18.5) > 0.0001 {
		t.Errorf("Expected net margin 18.5, got %f", out[0].NetMargin)
	}
}

func TestAggregateFirstExplicitWins(t *testing.T) {
	// Templates sometimes repeat totals in a summary block; only the first
	// explicit line counts.
	a := New()
	ps := monthPeriods(1)
	items := []models.LineItem{
		item(models.CategoryRevenue, "", 2, 100000),
		item(models.CategoryTotal, models.SubcategoryNetIncome, 2, 18500),
		item(models.CategoryTotal, models.SubcategoryNetIncome, 2, 99999),
	}

	out := a.Aggregate(models.StatementPnL, ps, items)
	if len(out) != 1 || out[0].NetIncome != 18500 {
		t.Errorf("Expected first explicit net income 18500 to win, got %+v", out)
	}
}

func TestAggregateDropsUnreportedPeriods(t *testing.T) {
	// Forward months carry no revenue; they are dropped, not zero-filled.
	a := New()
	ps := monthPeriods(3)
	items := []models.LineItem{
		item(models.CategoryRevenue, "", 2, 100000),
		item(models.CategoryRevenue, "", 3, 110000),
	}

	out := a.Aggregate(models.StatementPnL, ps, items)
	if len(out) != 2 {
		t.Errorf("Expected 2 reported periods, got %d", len(out))
	}
}

func TestAggregateZeroRevenueNoMarginDivide(t *testing.T) {
	a := New()
	ps := monthPeriods(1)
	items := []models.LineItem{
		item(models.CategoryExpense, models.SubcategoryCOGS, 2, 40000),
	}

	// No revenue at all: the period is dropped and no division occurs.
	out := a.Aggregate(models.StatementPnL, ps, items)
	if len(out) != 0 {
		t.Errorf("Expected no periods without revenue, got %d", len(out))
	}
}

func TestAggregateSubtotalsNeverDoubleCount(t *testing.T) {
	a := New()
	ps := monthPeriods(1)
	items := []models.LineItem{
		item(models.CategoryRevenue, "", 2, 60000),
		item(models.CategoryRevenue, "", 2, 40000),
		item(models.CategorySubtotal, "", 2, 100000), // subtotal of the two lines above
	}

	out := a.Aggregate(models.StatementPnL, ps, items)
	if len(out) != 1 || out[0].Revenue != 100000 {
		t.Errorf("Expected revenue 100000 without subtotal double count, got %+v", out)
	}
}

func TestAggregateCashflow(t *testing.T) {
	a := New()
	ps := monthPeriods(1)
	items := []models.LineItem{
		item(models.CategoryTotal, models.SubcategoryBeginningBalance, 2, 50000),
		item(models.CategoryCashInflow, models.SubcategoryOperating, 2, 100000),
		item(models.CategoryCashOutflow, models.SubcategoryOperating, 2, 90000),
		item(models.CategoryTotal, models.SubcategoryEndingBalance, 2, 60000),
		item(models.CategoryTotal, models.SubcategoryLowestBalance, 2, 45000),
	}

	out := a.Aggregate(models.StatementCashflow, ps, items)
	if len(out) != 1 {
		t.Fatalf("Expected 1 period, got %d", len(out))
	}
	m := out[0]
	if m.TotalInflow != 100000 || m.TotalOutflow != 90000 {
		t.Errorf("Expected inflow/outflow 100000/90000, got %f/%f", m.TotalInflow, m.TotalOutflow)
	}
	if m.NetGeneration != 10000 {
		t.Errorf("Expected net generation 10000, got %f", m.NetGeneration)
	}
	if m.BeginningBalance != 50000 || m.EndingBalance != 60000 || m.LowestBalance != 45000 {
		t.Errorf("Unexpected balances: %+v", m)
	}
}

func TestAggregateCashflowTotalIncomeAsInflow(t *testing.T) {
	// Mixed templates label the inflow total "Total Income", which the
	// taxonomy anchors under the revenue-total key. In a cashflow statement
	// that explicit line is the inflow total.
	a := New()
	ps := monthPeriods(1)
	items := []models.LineItem{
		item(models.CategoryTotal, models.SubcategoryTotalRevenue, 2, 100000),
		item(models.CategoryTotal, models.SubcategoryTotalOutflow, 2, 90000),
	}

	out := a.Aggregate(models.StatementCashflow, ps, items)
	if len(out) != 1 || out[0].TotalInflow != 100000 {
		t.Errorf("Expected Total Income to fold as inflow 100000, got %+v", out)
	}
}

func TestAggregateOrdersByDate(t *testing.T) {
	a := New()
	jan := models.Period{Index: 4, Ordinal: 2, Resolved: true, Date: date(2024, 1)}
	feb := models.Period{Index: 2, Ordinal: 0, Resolved: true, Date: date(2024, 2)}
	mar := models.Period{Index: 3, Ordinal: 1, Resolved: true, Date: date(2024, 3)}
	items := []models.LineItem{
		item(models.CategoryRevenue, "", 2, 100),
		item(models.CategoryRevenue, "", 3, 100),
		item(models.CategoryRevenue, "", 4, 100),
	}

	out := a.Aggregate(models.StatementPnL, []models.Period{feb, mar, jan}, items)
	if len(out) != 3 {
		t.Fatalf("Expected 3 periods, got %d", len(out))
	}
	if !out[0].Period.Date.Equal(jan.Date) || !out[2].Period.Date.Equal(mar.Date) {
		t.Errorf("Expected calendar order Jan..Mar, got %v, %v, %v",
			out[0].Period.Date, out[1].Period.Date, out[2].Period.Date)
	}
}
