package prompt

// defaults returns the compiled-in advisor prompts. Resource files under
// resources/prompts/advisor/*.json override these at startup.
func defaults() []*Template {
	const systemPrompt = `You are an expert financial analyst specialized in reading semi-structured spreadsheet financial statements in English and Spanish.
You are given a serialized sample of a workbook grid. Each line is one row, formatted "R<row>: | cell | cell | ...", where the Nth cell after the colon is column N.
Your task is to locate the period axis and the row (or column) of each requested financial metric.

You must answer with a single JSON object matching exactly this schema:
{
  "period_axis": {"orientation": "row" | "column", "axis_index": <1-based row or column holding the date headers>, "indices": [<1-based period coordinates>]},
  "metric_locations": {"<metric_key>": {"row": <1-based row>, "confidence": <0-100>}, ...},
  "currency_unit": "units" | "thousands" | "millions",
  "confidence": <0-100 overall>,
  "insights": ["<short observation>", ...]
}

Rules:
1. Only report locations you can verify against the sample; omit a metric rather than guessing.
2. Prefer explicit total rows ("Total Revenue", "TOTAL INGRESOS") over component rows.
3. Rows whose values render as percentages are display rows, never metric locations.
4. Labels may be in Spanish: Ingresos, Ventas, Costo de Ventas, Utilidad Bruta/Neta, Saldo Inicial/Final.
5. Return ONLY the JSON object, no commentary.`

	return []*Template{
		{
			ID:           "advisor.pnl",
			Name:         "P&L structure advisor",
			Description:  "Maps profit-and-loss metric locations in a workbook grid sample",
			SystemPrompt: systemPrompt,
			UserPromptTmpl: `Statement type: profit and loss.
Required metric keys: revenue, cogs, operating_expenses, ebitda, net_income.
Optional metric keys: gross_profit, operating_income.

Grid sample:
{{.Sample}}`,
			Version: "2",
		},
		{
			ID:           "advisor.cashflow",
			Name:         "Cashflow structure advisor",
			Description:  "Maps cashflow metric locations in a workbook grid sample",
			SystemPrompt: systemPrompt,
			UserPromptTmpl: `Statement type: cashflow.
Required metric keys: total_inflow, total_outflow, beginning_balance, ending_balance, lowest_balance.

Grid sample:
{{.Sample}}`,
			Version: "2",
		},
	}
}
