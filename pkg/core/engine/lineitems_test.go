package engine

import (
	"testing"

	"statement_engine/pkg/core/aggregate"
	"statement_engine/pkg/core/grid"
	"statement_engine/pkg/core/periods"
	"statement_engine/pkg/core/taxonomy"
	"statement_engine/pkg/models"
)

func TestCollectLineItemsDecomposedPnL(t *testing.T) {
	// A decomposed layout: no total rows at all, only section lines. The
	// aggregation pipeline must still produce period metrics.
	g := grid.FromRows("Sheet1", [][]interface{}{
		{"Item", "Jan-24", "Feb-24", "Mar-24"},
		{"Ventas locales", 60000, 65000, 70000},
		{"Ventas exportación", 40000, 45000, 50000},
		{"Costo de Ventas", 40000, 42000, 44000},
		{"Sueldos", 25000, 25000, 26000},
		{"Notas del preparador"},
	})

	axis, ps, err := periods.Locate(g, 0, periods.DefaultWindow())
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}

	classifier := taxonomy.NewClassifier()
	items := collectLineItems(g, axis, classifier)

	// 4 classified rows x 3 periods; the notes row classifies unknown and
	// is skipped.
	if len(items) != 12 {
		t.Fatalf("Expected 12 line items, got %d", len(items))
	}

	out := aggregate.New().Aggregate(models.StatementPnL, ps, items)
	if len(out) != 3 {
		t.Fatalf("Expected 3 periods, got %d", len(out))
	}
	if out[0].Revenue != 100000 {
		t.Errorf("Expected summed revenue 100000, got %f", out[0].Revenue)
	}
	if out[0].GrossProfit != 60000 {
		t.Errorf("Expected gross profit 60000, got %f", out[0].GrossProfit)
	}
	if out[0].OperatingIncome != 35000 {
		t.Errorf("Expected operating income 35000, got %f", out[0].OperatingIncome)
	}
}

func TestCollectLineItemsSkipsPercentRows(t *testing.T) {
	g := grid.FromRows("Sheet1", [][]interface{}{
		{"Item", "Jan-24", "Feb-24", "Mar-24"},
		{"Revenue", 100000, 110000, 120000},
		{"Gross Margin %", "60.0%", "61.8%", "63.3%"},
	})

	axis, _, err := periods.Locate(g, 0, periods.DefaultWindow())
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}

	items := collectLineItems(g, axis, taxonomy.NewClassifier())
	for _, item := range items {
		if item.Label == "Gross Margin %" {
			t.Errorf("percent display row must not produce line items")
		}
	}
	if len(items) != 3 {
		t.Errorf("Expected 3 revenue items, got %d", len(items))
	}
}
