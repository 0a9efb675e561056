package extract

import (
	"fmt"
	"sort"

	"statement_engine/pkg/core/grid"
	"statement_engine/pkg/core/periods"
	"statement_engine/pkg/models"
)

// Validation samples this many periods per metric; fewer when the axis is
// shorter.
const validationSamples = 3

// ValidationReport is the read-only result of replaying a mapping against
// its source grid. Validation never mutates the mapping; callers decide
// whether to accept it, request a manual correction, or retry another
// strategy.
type ValidationReport struct {
	IsValid bool                   `json:"is_valid"`
	Issues  []string               `json:"issues,omitempty"`
	Preview []models.PeriodMetrics `json:"preview,omitempty"`
}

// Validate re-reads the grid at each declared metric location across a
// sample of periods. A metric is flagged when none of the sampled values
// are non-zero; the mapping as a whole is valid when the period axis
// holds at least three genuine dates, the statement's primary metric is
// declared, and every metric has one clean sample.
func (e *Executor) Validate(g *grid.Grid, m *models.Mapping) *ValidationReport {
	report := &ValidationReport{}

	primaryOK := true
	if missing, ok := hasPrimaryLocation(m); !ok {
		primaryOK = false
		report.Issues = append(report.Issues,
			fmt.Sprintf("mapping declares no %s location", missing))
	}

	ps := periods.BuildPeriods(g, m.PeriodAxis)
	resolved := 0
	for _, p := range ps {
		if p.Resolved {
			resolved++
		}
	}
	axisOK := resolved >= validationSamples
	if !axisOK {
		report.Issues = append(report.Issues,
			fmt.Sprintf("period axis holds %d genuine dates, need at least %d", resolved, validationSamples))
	}

	sample := samplePeriods(ps, validationSamples)
	metricsOK := true
	for _, key := range sortedKeys(m.MetricLocations) {
		loc := m.MetricLocations[key]
		clean := false
		for _, p := range sample {
			cell := e.cellFor(g, m.PeriodAxis, loc, p)
			if v, ok := coerceNumber(cell); ok && v != 0 {
				clean = true
				break
			}
		}
		if !clean {
			metricsOK = false
			report.Issues = append(report.Issues,
				fmt.Sprintf("metric %q reads empty or zero at all sampled periods", key))
		}
	}

	report.IsValid = axisOK && metricsOK && primaryOK

	preview := e.Extract(g, m)
	if len(preview) > validationSamples {
		preview = preview[:validationSamples]
	}
	report.Preview = preview
	return report
}

// hasPrimaryLocation checks that the mapping pins down the metric the
// executor's dead-period rule pivots on: revenue for a P&L, total inflow
// or ending balance for a cashflow. Without one, every period extracts
// as dead and the series comes back empty.
func hasPrimaryLocation(m *models.Mapping) (missing string, ok bool) {
	if m.StatementType == models.StatementCashflow {
		if _, ok := m.Location(models.MetricTotalInflow); ok {
			return "", true
		}
		if _, ok := m.Location(models.MetricEndingBalance); ok {
			return "", true
		}
		return "total_inflow or ending_balance", false
	}
	if _, ok := m.Location(models.MetricRevenue); ok {
		return "", true
	}
	return "revenue", false
}

// samplePeriods spreads n picks across the axis: first, middle, last.
func samplePeriods(ps []models.Period, n int) []models.Period {
	if len(ps) <= n {
		return ps
	}
	picks := []models.Period{ps[0], ps[len(ps)/2], ps[len(ps)-1]}
	return picks[:n]
}

func sortedKeys(m map[string]models.MetricLocation) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
