package template

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"statement_engine/pkg/core/grid"
	"statement_engine/pkg/core/periods"
	"statement_engine/pkg/models"
)

// Matcher fingerprints a workbook against the template registry.
type Matcher struct {
	registry []Template
}

// NewMatcher returns a matcher over the built-in registry.
func NewMatcher() *Matcher {
	return &Matcher{registry: defaultRegistry()}
}

// Register appends a template to the registry. Templates are tried in
// registration order.
func (m *Matcher) Register(t Template) {
	m.registry = append(m.registry, t)
}

// Match returns a finalized template mapping when the workbook
// fingerprints to a known layout, or nil when no template applies.
// A partial match — sheet name fingerprint hit but a fixed-row label
// check violated — also returns nil, so the caller fails over to
// inference instead of trusting stale fixed rows.
func (m *Matcher) Match(g *grid.Grid) *models.Mapping {
	for _, tpl := range m.registry {
		sheet, ok := m.findSheet(g, tpl)
		if !ok {
			continue
		}
		if !m.checksPass(g, sheet, tpl) {
			fmt.Printf("[TEMPLATE] %s: sheet fingerprint matched but fixed-row checks failed, falling through\n", tpl.Name)
			continue
		}

		indices := m.periodIndices(g, sheet, tpl)
		if len(indices) < 3 {
			fmt.Printf("[TEMPLATE] %s: period row %d holds fewer than 3 date headers, falling through\n", tpl.Name, tpl.PeriodRow)
			continue
		}

		locations := make(map[string]models.MetricLocation, len(tpl.MetricRows))
		for key, row := range tpl.MetricRows {
			locations[key] = models.MetricLocation{Row: row}
		}
		return &models.Mapping{
			ID:            uuid.NewString(),
			StatementType: tpl.StatementType,
			PeriodAxis: models.PeriodAxis{
				Orientation: models.AxisRow,
				Sheet:       sheet,
				AxisIndex:   tpl.PeriodRow,
				Indices:     indices,
			},
			MetricLocations: locations,
			CurrencyUnit:    tpl.CurrencyUnit,
			Confidence:      100,
			Provenance:      models.ProvenanceTemplate,
			Insights:        []string{"matched fixed template " + tpl.Name},
			CreatedAt:       time.Now().UTC(),
		}
	}
	return nil
}

func (m *Matcher) findSheet(g *grid.Grid, tpl Template) (int, bool) {
	for idx, name := range g.SheetNames() {
		lower := strings.ToLower(name)
		for _, sub := range tpl.SheetSubstrings {
			if strings.Contains(lower, sub) {
				return idx, true
			}
		}
	}
	return 0, false
}

func (m *Matcher) checksPass(g *grid.Grid, sheet int, tpl Template) bool {
	for _, check := range tpl.Checks {
		label := g.Cell(sheet, check.Row, tpl.LabelCol).Text
		if !check.Pattern.MatchString(strings.TrimSpace(label)) {
			return false
		}
	}
	return true
}

func (m *Matcher) periodIndices(g *grid.Grid, sheet int, tpl Template) []int {
	_, cols := g.Dimensions(sheet)
	var indices []int
	for c := tpl.LabelCol + 1; c <= cols; c++ {
		if periods.IsDateLike(g.Cell(sheet, tpl.PeriodRow, c)) {
			indices = append(indices, c)
		}
	}
	return indices
}
