// Package taxonomy classifies statement line-item labels into the
// financial category taxonomy using ordered, locale-aware pattern tables.
// The tables are data, not control flow: the built-in English/Spanish set
// can be replaced wholesale from a YAML document.
package taxonomy

import (
	"fmt"
	"regexp"

	"gopkg.in/yaml.v2"

	"statement_engine/pkg/models"
)

// TableConfig is one pattern table in the YAML representation.
type TableConfig struct {
	Category       string   `yaml:"category"`
	Subcategory    string   `yaml:"subcategory,omitempty"`
	CalculatedOnly bool     `yaml:"calculated_only,omitempty"`
	Patterns       []string `yaml:"patterns"`
}

// TablesConfig is the root of the YAML pattern document.
type TablesConfig struct {
	Tables []TableConfig `yaml:"tables"`
}

type rule struct {
	category       models.Category
	subcategory    string
	calculatedOnly bool
	patterns       []*regexp.Regexp
}

// defaultTables is the built-in bilingual ruleset, scanned in order.
// Specific metric anchors come first, the generic total/subtotal markers
// (applied only to formula rows) next, then the broad category vocab.
// Keep anchors anchored (^...$) wherever a loose match would swallow
// sibling labels like "EBITDA Margin %".
var defaultTables = []TableConfig{
	// --- Explicit pre-computed metric anchors (P&L) ---
	{Category: "total", Subcategory: models.SubcategoryTotalRevenue, Patterns: []string{
		`(?i)^total\s+(revenue|sales|income)\b`,
		`(?i)^(ingresos|ventas)\s+totales$`,
		`(?i)^total\s+ingresos$`,
	}},
	{Category: "total", Subcategory: models.SubcategoryTotalCOGS, Patterns: []string{
		`(?i)^total\s+(cogs|cost of goods sold|cost of sales)$`,
		`(?i)^costo de ventas total$`,
		`(?i)^total\s+costos?$`,
	}},
	{Category: "total", Subcategory: models.SubcategoryGrossProfit, Patterns: []string{
		`(?i)^gross\s+profit$`,
		`(?i)^utilidad\s+bruta$`,
		`(?i)^margen\s+bruto\s+\$$`,
	}},
	{Category: "total", Subcategory: models.SubcategoryTotalOpex, Patterns: []string{
		`(?i)^total\s+operating\s+expenses$`,
		`(?i)^total\s+opex$`,
		`(?i)^total\s+gastos(\s+op\.?| operacionales| operativos)?$`,
	}},
	{Category: "total", Subcategory: models.SubcategoryEBITDA, Patterns: []string{
		`(?i)^ebitda$`,
	}},
	{Category: "total", Subcategory: models.SubcategoryOperatingIncome, Patterns: []string{
		`(?i)^operating\s+(income|profit)$`,
		`(?i)^(utilidad|resultado)\s+operacional$`,
		`(?i)^resultado\s+operativo$`,
	}},
	{Category: "total", Subcategory: models.SubcategoryNetIncome, Patterns: []string{
		`(?i)^net\s+(income|profit|earnings)$`,
		`(?i)^utilidad\s+neta$`,
		`(?i)^resultado\s+neto$`,
	}},

	// --- Explicit cashflow anchors ---
	{Category: "total", Subcategory: models.SubcategoryTotalInflow, Patterns: []string{
		`(?i)^total\s+(income|inflows?|receipts|cash in)$`,
		`(?i)^total\s+ingresos$`,
		`(?i)^ingresos\s+totales$`,
	}},
	{Category: "total", Subcategory: models.SubcategoryTotalOutflow, Patterns: []string{
		`(?i)^total\s+(expenses|outflows?|disbursements|cash out)$`,
		`(?i)^total\s+egresos$`,
		`(?i)^egresos\s+totales$`,
	}},
	{Category: "total", Subcategory: models.SubcategoryBeginningBalance, Patterns: []string{
		`(?i)^(beginning|opening|initial)\s+(cash\s+)?balance$`,
		`(?i)^saldo\s+inicial$`,
	}},
	{Category: "total", Subcategory: models.SubcategoryEndingBalance, Patterns: []string{
		`(?i)^(ending|closing|final)\s+(cash\s+)?balance$`,
		`(?i)^saldo\s+final$`,
	}},
	{Category: "total", Subcategory: models.SubcategoryLowestBalance, Patterns: []string{
		`(?i)^lowest\s+balance`,
		`(?i)^saldo\s+m[ií]nimo$`,
	}},
	{Category: "total", Subcategory: models.SubcategoryNetGeneration, Patterns: []string{
		`(?i)^net\s+cash\s*flow$`,
		`(?i)^net\s+change\s+in\s+cash$`,
		`(?i)^flujo\s+neto(\s+del\s+mes)?$`,
	}},

	// --- Generic total/subtotal markers: formula rows only. A plain
	// "Total" label with no formula is more often a section header than a
	// computed display row. ---
	{Category: "total", CalculatedOnly: true, Patterns: []string{
		`(?i)^total\b`,
		`(?i)^gran\s+total\b`,
	}},
	{Category: "subtotal", CalculatedOnly: true, Patterns: []string{
		`(?i)^sub\s*total\b`,
		`(?i)^suma\b`,
	}},

	// --- Revenue vocab ---
	{Category: "revenue", Patterns: []string{
		`(?i)^revenue`,
		`(?i)^(net\s+)?sales$`,
		`(?i)^ingresos?\b`,
		`(?i)^ventas?\b`,
		`(?i)servicios\s+prestados`,
		`(?i)^cobros\b`,
		`(?i)^otros\s+ingresos$`,
	}},

	// --- Expense vocab, most specific subcategory first ---
	{Category: "expense", Subcategory: models.SubcategoryCOGS, Patterns: []string{
		`(?i)cost\s+of\s+(goods\s+sold|sales|revenue)`,
		`(?i)^cogs$`,
		`(?i)costo\s+de\s+ventas?`,
		`(?i)materia\s+prima`,
		`(?i)mano\s+de\s+obra`,
	}},
	{Category: "expense", Subcategory: models.SubcategoryPersonnel, Patterns: []string{
		`(?i)salar(y|ies)`,
		`(?i)payroll|wages`,
		`(?i)sueldos?(\s+y\s+cargas)?`,
		`(?i)n[oó]mina`,
		`(?i)personnel|personal$`,
	}},
	{Category: "expense", Subcategory: models.SubcategoryMarketing, Patterns: []string{
		`(?i)marketing`,
		`(?i)advertising|publicidad`,
	}},
	{Category: "expense", Subcategory: models.SubcategoryFacilities, Patterns: []string{
		`(?i)^rent\b|alquiler`,
		`(?i)utilities|servicios\s+p[uú]blicos`,
		`(?i)facilities|oficina`,
	}},
	{Category: "expense", Subcategory: models.SubcategoryProfessionalServices, Patterns: []string{
		`(?i)professional\s+(fees|services)`,
		`(?i)consulting|consultor[ií]a`,
		`(?i)^legal\b|honorarios`,
	}},
	{Category: "expense", Patterns: []string{
		`(?i)expenses?$`,
		`(?i)^gastos?\b`,
		`(?i)general\s*&?\s*administrative`,
		`(?i)^administraci[oó]n$`,
		`(?i)research\s*&?\s*development`,
		`(?i)depreciation|amortizaci[oó]n|amortization`,
		`(?i)^interest\b|intereses`,
		`(?i)^tax(es)?\b|^impuestos?$`,
		`(?i)^egresos?\b`,
		`(?i)^proveedores$`,
	}},

	// --- Cashflow activities ---
	{Category: "cash_inflow", Subcategory: models.SubcategoryOperating, Patterns: []string{
		`(?i)collections?|cobranzas?`,
		`(?i)ventas\s+contado`,
		`(?i)customer\s+receipts`,
	}},
	{Category: "cash_outflow", Subcategory: models.SubcategoryOperating, Patterns: []string{
		`(?i)^(operating\s+)?payments?\b|^pagos\b`,
		`(?i)gastos\s+operativos`,
	}},
	{Category: "cash_outflow", Subcategory: models.SubcategoryInvesting, Patterns: []string{
		`(?i)capex|capital\s+expenditure`,
		`(?i)inversi[oó]n(es)?|invest(ing|ments?)`,
	}},
	{Category: "cash_inflow", Subcategory: models.SubcategoryFinancing, Patterns: []string{
		`(?i)loan\s+(proceeds|drawdown)|pr[eé]stamos?\s+recibidos?`,
		`(?i)capital\s+contribution|aportes?\s+de\s+capital`,
	}},
	{Category: "cash_outflow", Subcategory: models.SubcategoryFinancing, Patterns: []string{
		`(?i)dividends?\s+paid|dividendos`,
		`(?i)loan\s+(re)?payments?|amortizaci[oó]n\s+de\s+deuda`,
	}},
}

func compileTables(cfgs []TableConfig) ([]rule, error) {
	rules := make([]rule, 0, len(cfgs))
	for _, cfg := range cfgs {
		r := rule{
			category:       models.Category(cfg.Category),
			subcategory:    cfg.Subcategory,
			calculatedOnly: cfg.CalculatedOnly,
		}
		for _, p := range cfg.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("taxonomy table %s/%s: bad pattern %q: %w",
					cfg.Category, cfg.Subcategory, p, err)
			}
			r.patterns = append(r.patterns, re)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// ParseTables decodes a YAML pattern document into table configs.
func ParseTables(data []byte) ([]TableConfig, error) {
	var cfg TablesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse taxonomy tables: %w", err)
	}
	if len(cfg.Tables) == 0 {
		return nil, fmt.Errorf("parse taxonomy tables: no tables defined")
	}
	return cfg.Tables, nil
}
