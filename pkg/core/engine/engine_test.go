package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"statement_engine/pkg/core/taxonomy"
	"statement_engine/pkg/models"
)

// stubProvider satisfies llm.Provider with a canned reply.
type stubProvider struct {
	response string
	err      error
	calls    int
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Generate(ctx context.Context, system, user string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func htmlWorkbook(rows ...string) []byte {
	var b strings.Builder
	b.WriteString("<html><body><table>")
	for _, r := range rows {
		b.WriteString("<tr>")
		for _, cell := range strings.Split(r, ";") {
			b.WriteString("<td>" + cell + "</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table></body></html>")
	return []byte(b.String())
}

func pnlWorkbook() []byte {
	return htmlWorkbook(
		"Item;Jan-24;Feb-24;Mar-24",
		"Revenue;100,000;110,000;120,000",
		"Cost of Goods Sold;40,000;42,000;44,000",
	)
}

func TestInferStatementHeuristicPath(t *testing.T) {
	eng := New(DefaultConfig(), nil)

	result, err := eng.InferStatement(context.Background(), pnlWorkbook())
	if err != nil {
		t.Fatalf("InferStatement failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("Expected success, got reason %q", result.Reason)
	}
	if result.StatementType != models.StatementPnL {
		t.Errorf("Expected pnl, got %s", result.StatementType)
	}
	if result.Mapping.Provenance != models.ProvenanceHeuristic {
		t.Errorf("Expected heuristic provenance, got %s", result.Mapping.Provenance)
	}
	if len(result.Metrics) != 3 {
		t.Fatalf("Expected 3 periods, got %d", len(result.Metrics))
	}

	wantGross := []float64{60000, 68000, 76000}
	for i, m := range result.Metrics {
		if m.GrossProfit != wantGross[i] {
			t.Errorf("Period %d: expected gross profit %f, got %f", i, wantGross[i], m.GrossProfit)
		}
	}
}

func TestInferStatementExcludesQuarterTotalColumn(t *testing.T) {
	eng := New(DefaultConfig(), nil)

	data := htmlWorkbook(
		"Cuenta;Jan-24;Feb-24;Mar-24;Q1-2024 Total",
		"Revenue;100,000;110,000;120,000;330,000",
		"Cost of Goods Sold;40,000;42,000;44,000;126,000",
	)
	result, err := eng.InferStatement(context.Background(), data)
	if err != nil {
		t.Fatalf("InferStatement failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("Expected success, got reason %q", result.Reason)
	}
	if len(result.Metrics) != 3 {
		t.Fatalf("Expected 3 monthly periods, got %d", len(result.Metrics))
	}
	for _, m := range result.Metrics {
		if m.Period.Kind != models.PeriodMonth {
			t.Errorf("Expected only month periods, got kind %s for %q", m.Period.Kind, m.Period.Label)
		}
		if m.Revenue == 330000 {
			t.Errorf("Quarter total leaked into the monthly series: %+v", m)
		}
	}
}

func TestInferStatementRejectsUnreadableBytes(t *testing.T) {
	eng := New(DefaultConfig(), nil)

	_, err := eng.InferStatement(context.Background(), []byte("not a workbook"))
	if !errors.Is(err, models.ErrUnreadableWorkbook) {
		t.Errorf("Expected ErrUnreadableWorkbook, got %v", err)
	}
}

func TestInferStatementNoAxisIsStructuredFailure(t *testing.T) {
	data := htmlWorkbook(
		"Notes;for;the;reader",
		"Nothing;dated;in;here",
	)
	eng := New(DefaultConfig(), nil)

	result, err := eng.InferStatement(context.Background(), data)
	if err != nil {
		t.Fatalf("Expected structured failure, got error: %v", err)
	}
	if result.Success {
		t.Fatalf("Expected failure result")
	}
	if !result.SuggestManualMapping {
		t.Errorf("Expected manual mapping suggestion")
	}
	if result.Reason == "" {
		t.Errorf("Expected a failure reason")
	}
}

func TestInferStatementEscalatesToAdvisor(t *testing.T) {
	// 2 of 5 metrics found heuristically => confidence 66, below the
	// default threshold, so the configured advisor is consulted.
	provider := &stubProvider{response: `{
  "period_axis": {"orientation": "row", "axis_index": 1, "indices": [2, 3, 4]},
  "metric_locations": {
    "revenue": {"row": 2, "confidence": 95},
    "cogs": {"row": 3, "confidence": 90}
  },
  "currency_unit": "units",
  "confidence": 88,
  "insights": []
}`}
	eng := New(DefaultConfig(), provider)

	result, err := eng.InferStatement(context.Background(), pnlWorkbook())
	if err != nil {
		t.Fatalf("InferStatement failed: %v", err)
	}
	if provider.calls == 0 {
		t.Fatalf("Expected the advisor to be consulted")
	}
	if result.Mapping.Provenance != models.ProvenanceAI {
		t.Errorf("Expected ai provenance, got %s", result.Mapping.Provenance)
	}
	if result.Mapping.Confidence != 88 {
		t.Errorf("Expected advisor confidence 88, got %f", result.Mapping.Confidence)
	}
}

func TestInferStatementKeepsHeuristicWhenAdvisorIsWorse(t *testing.T) {
	provider := &stubProvider{response: `{
  "period_axis": {"orientation": "row", "axis_index": 1, "indices": [2, 3, 4]},
  "metric_locations": {"revenue": {"row": 2}},
  "currency_unit": "units",
  "confidence": 40,
  "insights": []
}`}
	eng := New(DefaultConfig(), provider)

	result, err := eng.InferStatement(context.Background(), pnlWorkbook())
	if err != nil {
		t.Fatalf("InferStatement failed: %v", err)
	}
	if result.Mapping.Provenance != models.ProvenanceHeuristic {
		t.Errorf("Expected the higher-confidence heuristic mapping to win, got %s (%f)",
			result.Mapping.Provenance, result.Mapping.Confidence)
	}
}

func TestInferStatementAdvisorFailureNeverRegresses(t *testing.T) {
	provider := &stubProvider{err: &models.ServiceError{Op: "stub", Retryable: false, Err: errors.New("down")}}
	eng := New(DefaultConfig(), provider)

	result, err := eng.InferStatement(context.Background(), pnlWorkbook())
	if err != nil {
		t.Fatalf("InferStatement failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("Expected success from heuristic fallback, got reason %q", result.Reason)
	}
	if result.Mapping.Provenance != models.ProvenanceHeuristic {
		t.Errorf("Expected heuristic provenance after advisor failure, got %s", result.Mapping.Provenance)
	}
}

func TestWithClassifierGovernsAdvisorFallback(t *testing.T) {
	// Once a custom taxonomy is installed, every path must use it — the
	// advisor's internal heuristic fallback included. With a vocabulary
	// that knows nothing of "Revenue", a failing advisor must not rescue
	// the run through stale builtin tables.
	yamlDoc := `
tables:
  - category: revenue
    patterns:
      - '(?i)^top\s+line$'
`
	classifier, err := taxonomy.NewClassifierFromYAML([]byte(yamlDoc))
	if err != nil {
		t.Fatalf("NewClassifierFromYAML failed: %v", err)
	}

	provider := &stubProvider{err: &models.ServiceError{Op: "stub", Retryable: false, Err: errors.New("down")}}
	eng := New(DefaultConfig(), provider).WithClassifier(classifier)

	result, err := eng.InferStatement(context.Background(), pnlWorkbook())
	if err != nil {
		t.Fatalf("InferStatement failed: %v", err)
	}
	if result.Success {
		t.Fatalf("Expected failure under the custom vocabulary, got mapping %+v", result.Mapping)
	}
	if result.Mapping != nil {
		if _, ok := result.Mapping.MetricLocations[models.MetricRevenue]; ok {
			t.Errorf("Builtin vocabulary leaked through the advisor fallback: %+v", result.Mapping.MetricLocations)
		}
	}
}

func TestExtractWithMappingRoundTrip(t *testing.T) {
	// A re-upload of the same bytes replayed through the accepted mapping
	// must reproduce the inferred series exactly.
	eng := New(DefaultConfig(), nil)
	data := pnlWorkbook()

	result, err := eng.InferStatement(context.Background(), data)
	if err != nil || !result.Success {
		t.Fatalf("InferStatement failed: %v / %+v", err, result)
	}

	replayed, err := eng.ExtractWithMapping(context.Background(), data, result.Mapping)
	if err != nil {
		t.Fatalf("ExtractWithMapping failed: %v", err)
	}
	if len(replayed) != len(result.Metrics) {
		t.Fatalf("Expected %d periods, got %d", len(result.Metrics), len(replayed))
	}
	for i := range replayed {
		if replayed[i] != result.Metrics[i] {
			t.Errorf("Period %d differs on replay: %+v vs %+v", i, replayed[i], result.Metrics[i])
		}
	}
}

func TestExtractWithMappingNilMapping(t *testing.T) {
	eng := New(DefaultConfig(), nil)
	if _, err := eng.ExtractWithMapping(context.Background(), pnlWorkbook(), nil); err == nil {
		t.Errorf("Expected error for nil mapping")
	}
}

func TestValidateMapping(t *testing.T) {
	eng := New(DefaultConfig(), nil)
	data := pnlWorkbook()

	result, err := eng.InferStatement(context.Background(), data)
	if err != nil || !result.Success {
		t.Fatalf("InferStatement failed: %v / %+v", err, result)
	}

	report, err := eng.ValidateMapping(context.Background(), data, result.Mapping)
	if err != nil {
		t.Fatalf("ValidateMapping failed: %v", err)
	}
	if !report.IsValid {
		t.Errorf("Expected valid mapping, issues: %v", report.Issues)
	}
}

func TestInferStatementSpanishCashflow(t *testing.T) {
	data := htmlWorkbook(
		"Flujo de Caja;Ene-24;Feb-24;Mar-24",
		"Saldo Inicial;50,000;60,000;75,000",
		"Total Ingresos;100,000;110,000;120,000",
		"Total Egresos;90,000;95,000;100,000",
		"Saldo Final;60,000;75,000;95,000",
		"Saldo Mínimo;45,000;55,000;70,000",
	)
	eng := New(DefaultConfig(), nil)

	result, err := eng.InferStatement(context.Background(), data)
	if err != nil {
		t.Fatalf("InferStatement failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("Expected success, got reason %q", result.Reason)
	}
	if result.StatementType != models.StatementCashflow {
		t.Errorf("Expected cashflow, got %s (scores %+v)", result.StatementType, result.Scores)
	}
	if len(result.Metrics) != 3 {
		t.Fatalf("Expected 3 periods, got %d", len(result.Metrics))
	}
	if result.Metrics[0].NetGeneration != 10000 {
		t.Errorf("Expected net generation 10000, got %f", result.Metrics[0].NetGeneration)
	}
	if result.Metrics[0].LowestBalance != 45000 {
		t.Errorf("Expected lowest balance 45000, got %f", result.Metrics[0].LowestBalance)
	}
}
