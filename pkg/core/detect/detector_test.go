package detect

import (
	"testing"

	"statement_engine/pkg/core/grid"
	"statement_engine/pkg/core/taxonomy"
	"statement_engine/pkg/models"
)

func TestDetectPnL(t *testing.T) {
	g := grid.FromRows("Sheet1", [][]interface{}{
		{"Item", "Jan-24", "Feb-24", "Mar-24"},
		{"Revenue", 100, 110, 120},
		{"Cost of Goods Sold", 40, 42, 44},
		{"Gross Profit", 60, 68, 76},
		{"Net Income", 20, 25, 30},
	})

	d := New(taxonomy.NewClassifier())
	got, scores := d.Detect(g, 0)
	if got != models.StatementPnL {
		t.Errorf("Expected pnl, got %s (scores %+v)", got, scores)
	}
	if scores.PnL <= scores.Cashflow {
		t.Errorf("Expected PnL score above cashflow, got %+v", scores)
	}
}

func TestDetectCashflow(t *testing.T) {
	g := grid.FromRows("Sheet1", [][]interface{}{
		{"Monthly Cash Flow", "Jan-24", "Feb-24", "Mar-24"},
		{"Beginning Balance", 50, 60, 75},
		{"Total Income", 100, 110, 120},
		{"Total Expenses", 90, 95, 100},
		{"Ending Balance", 60, 75, 95},
	})

	d := New(taxonomy.NewClassifier())
	got, scores := d.Detect(g, 0)
	if got != models.StatementCashflow {
		t.Errorf("Expected cashflow, got %s (scores %+v)", got, scores)
	}
}

func TestDetectSpanishCashflow(t *testing.T) {
	g := grid.FromRows("Flujo", [][]interface{}{
		{"Flujo de Caja", "Ene-24", "Feb-24", "Mar-24"},
		{"Saldo Inicial", 50, 60, 75},
		{"INGRESOS"},
		{"Cobranzas", 100, 110, 120},
		{"EGRESOS"},
		{"Pagos proveedores", 90, 95, 100},
		{"Saldo Final", 60, 75, 95},
	})

	d := New(taxonomy.NewClassifier())
	got, _ := d.DetectWorkbook(g)
	if got != models.StatementCashflow {
		t.Errorf("Expected cashflow for Spanish fixture, got %s", got)
	}
}

func TestDetectTieFavorsPnL(t *testing.T) {
	// Nothing matches either vocabulary: both scores zero.
	g := grid.FromRows("Sheet1", [][]interface{}{
		{"Item", "Jan-24", "Feb-24", "Mar-24"},
		{"Line A", 1, 2, 3},
	})

	d := New(taxonomy.NewClassifier())
	got, scores := d.Detect(g, 0)
	if scores.PnL != 0 || scores.Cashflow != 0 {
		t.Fatalf("Expected zero scores, got %+v", scores)
	}
	if got != models.StatementPnL {
		t.Errorf("Tie must resolve to pnl, got %s", got)
	}
}

func TestDetectWorkbookSheetNameAnchor(t *testing.T) {
	// Sparse labels, but the sheet is named "Cash Flow".
	g := grid.FromRows("Cash Flow 2024", [][]interface{}{
		{"Item", "Jan-24", "Feb-24", "Mar-24"},
		{"Line A", 1, 2, 3},
	})

	d := New(taxonomy.NewClassifier())
	got, scores := d.DetectWorkbook(g)
	if got != models.StatementCashflow {
		t.Errorf("Expected sheet name anchor to flip detection, got %s (scores %+v)", got, scores)
	}
}
