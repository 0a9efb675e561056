package taxonomy

import (
	"testing"

	"statement_engine/pkg/models"
)

func TestClassifyRevenueVocab(t *testing.T) {
	c := NewClassifier()
	for _, label := range []string{"Revenue", "Net Sales", "Ingresos", "Ventas", "Cobros clientes", "Otros Ingresos"} {
		res := c.Classify(label, false)
		if res.Category != models.CategoryRevenue {
			t.Errorf("Classify(%q): expected revenue, got %s", label, res.Category)
		}
	}
}

func TestClassifyExpenseSubcategories(t *testing.T) {
	c := NewClassifier()
	cases := map[string]string{
		"Cost of Goods Sold": models.SubcategoryCOGS,
		"Costo de Ventas":    models.SubcategoryCOGS,
		"Salaries":           models.SubcategoryPersonnel,
		"Sueldos y Cargas":   models.SubcategoryPersonnel,
		"Marketing":          models.SubcategoryMarketing,
		"Alquiler":           models.SubcategoryFacilities,
		"Consulting Fees":    models.SubcategoryProfessionalServices,
	}
	for label, want := range cases {
		res := c.Classify(label, false)
		if res.Category != models.CategoryExpense {
			t.Errorf("Classify(%q): expected expense, got %s", label, res.Category)
			continue
		}
		if res.Subcategory != want {
			t.Errorf("Classify(%q): expected subcategory %s, got %s", label, want, res.Subcategory)
		}
	}
}

func TestClassifyExplicitAnchors(t *testing.T) {
	c := NewClassifier()
	cases := map[string]string{
		"Total Revenue":            models.SubcategoryTotalRevenue,
		"TOTAL INGRESOS":           models.SubcategoryTotalRevenue, // shared label; statement type disambiguates downstream
		"Gross Profit":             models.SubcategoryGrossProfit,
		"Utilidad Bruta":           models.SubcategoryGrossProfit,
		"EBITDA":                   models.SubcategoryEBITDA,
		"Net Income":               models.SubcategoryNetIncome,
		"Utilidad Neta":            models.SubcategoryNetIncome,
		"Total Operating Expenses": models.SubcategoryTotalOpex,
		"Beginning Balance":        models.SubcategoryBeginningBalance,
		"Saldo Inicial":            models.SubcategoryBeginningBalance,
		"Saldo Mínimo":             models.SubcategoryLowestBalance,
		"Net Cash Flow":            models.SubcategoryNetGeneration,
	}
	for label, want := range cases {
		res := c.Classify(label, false)
		if res.Category != models.CategoryTotal {
			t.Errorf("Classify(%q): expected total, got %s/%s", label, res.Category, res.Subcategory)
			continue
		}
		if res.Subcategory != want {
			t.Errorf("Classify(%q): expected %s, got %s", label, want, res.Subcategory)
		}
	}
}

func TestClassifyAnchorsDoNotSwallowMarginRows(t *testing.T) {
	c := NewClassifier()
	res := c.Classify("EBITDA Margin %", false)
	if res.Subcategory == models.SubcategoryEBITDA {
		t.Errorf("\"EBITDA Margin %%\" must not classify as the EBITDA anchor")
	}
}

func TestClassifyGenericTotalGatedOnFormula(t *testing.T) {
	c := NewClassifier()

	// A plain "Total servicios" label with no formula is a section header.
	res := c.Classify("Total servicios", false)
	if res.Category == models.CategoryTotal {
		t.Errorf("non-calculated generic total must not classify as total, got %s", res.Category)
	}

	res = c.Classify("Total servicios", true)
	if res.Category != models.CategoryTotal {
		t.Errorf("calculated generic total should classify as total, got %s", res.Category)
	}
}

func TestClassifyNormalizesDecoration(t *testing.T) {
	c := NewClassifier()
	res := c.Classify("  Operating Expenses:  ", false)
	if res.Category != models.CategoryExpense {
		t.Errorf("Expected expense after trimming decoration, got %s", res.Category)
	}
}

func TestClassifyUnknown(t *testing.T) {
	c := NewClassifier()
	for _, label := range []string{"Notes", "Prepared by J. Smith", ""} {
		res := c.Classify(label, false)
		if res.Category != models.CategoryUnknown {
			t.Errorf("Classify(%q): expected unknown, got %s", label, res.Category)
		}
	}
}

func TestNewClassifierFromYAML(t *testing.T) {
	yamlDoc := `
tables:
  - category: revenue
    patterns:
      - '(?i)^top\s+line$'
`
	c, err := NewClassifierFromYAML([]byte(yamlDoc))
	if err != nil {
		t.Fatalf("NewClassifierFromYAML failed: %v", err)
	}
	if res := c.Classify("Top Line", false); res.Category != models.CategoryRevenue {
		t.Errorf("Expected custom pattern to classify as revenue, got %s", res.Category)
	}
	// The YAML replaces the builtin tables wholesale.
	if res := c.Classify("Revenue", false); res.Category != models.CategoryUnknown {
		t.Errorf("builtin vocab should be gone after YAML replacement, got %s", res.Category)
	}
}

func TestNewClassifierFromYAMLRejectsBadPattern(t *testing.T) {
	yamlDoc := `
tables:
  - category: revenue
    patterns:
      - '(?i)^unclosed['
`
	if _, err := NewClassifierFromYAML([]byte(yamlDoc)); err == nil {
		t.Errorf("Expected error for invalid regexp, got nil")
	}
}
