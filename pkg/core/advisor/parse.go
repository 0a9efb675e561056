package advisor

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"statement_engine/pkg/core/grid"
	"statement_engine/pkg/core/heuristic"
	"statement_engine/pkg/core/utils"
	"statement_engine/pkg/models"
)

// responsePayload mirrors the JSON schema named in the advisor prompts.
type responsePayload struct {
	PeriodAxis struct {
		Orientation string `json:"orientation"`
		AxisIndex   int    `json:"axis_index"`
		Indices     []int  `json:"indices"`
	} `json:"period_axis"`
	MetricLocations map[string]locationPayload `json:"metric_locations"`
	CurrencyUnit    string                     `json:"currency_unit"`
	Confidence      float64                    `json:"confidence"`
	Insights        []string                   `json:"insights"`
}

type locationPayload struct {
	Row        int     `json:"row"`
	Col        int     `json:"col"`
	Confidence float64 `json:"confidence"`
}

// perMetricFloor drops advisor locations it barely believes in; a low
// confidence row is worse than an omitted one because validation will
// read real values from it.
const perMetricFloor = 30

// parseResponse validates the model's answer at the trust boundary and
// converts it into a Mapping. A reply that fails schema validation is a
// terminal (non-retryable) error: the caller falls back to heuristics.
func (a *Advisor) parseResponse(g *grid.Grid, sheet int, t models.StatementType, raw string) (*models.Mapping, error) {
	var payload responsePayload
	if err := utils.UnmarshalLenient(raw, &payload); err != nil {
		return nil, &models.ServiceError{Op: "advisor.parse", Retryable: false, Err: err}
	}

	orientation := models.AxisOrientation(payload.PeriodAxis.Orientation)
	if orientation != models.AxisRow && orientation != models.AxisColumn {
		return nil, schemaErr("period_axis.orientation must be \"row\" or \"column\", got %q", payload.PeriodAxis.Orientation)
	}
	if payload.PeriodAxis.AxisIndex < 1 {
		return nil, schemaErr("period_axis.axis_index must be >= 1, got %d", payload.PeriodAxis.AxisIndex)
	}
	if len(payload.PeriodAxis.Indices) == 0 {
		return nil, schemaErr("period_axis.indices is empty")
	}
	for _, idx := range payload.PeriodAxis.Indices {
		if idx < 1 {
			return nil, schemaErr("period_axis.indices contains %d", idx)
		}
	}

	locations := make(map[string]models.MetricLocation)
	for key, loc := range payload.MetricLocations {
		if loc.Row < 1 && loc.Col < 1 {
			continue
		}
		if loc.Confidence > 0 && loc.Confidence < perMetricFloor {
			continue
		}
		locations[key] = models.MetricLocation{Row: loc.Row, Col: loc.Col}
	}
	if len(locations) == 0 {
		return nil, schemaErr("metric_locations is empty")
	}

	unit := models.CurrencyUnit(payload.CurrencyUnit)
	switch unit {
	case models.UnitOnes, models.UnitThousands, models.UnitMillions:
	case "":
		unit = heuristic.DetectUnit(g, sheet)
	default:
		return nil, schemaErr("unknown currency_unit %q", payload.CurrencyUnit)
	}

	confidence := payload.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	return &models.Mapping{
		ID:              uuid.NewString(),
		StatementType:   t,
		PeriodAxis: models.PeriodAxis{
			Orientation: orientation,
			Sheet:       sheet,
			AxisIndex:   payload.PeriodAxis.AxisIndex,
			Indices:     payload.PeriodAxis.Indices,
		},
		MetricLocations: locations,
		CurrencyUnit:    unit,
		Confidence:      confidence,
		Provenance:      models.ProvenanceAI,
		Insights:        payload.Insights,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

func schemaErr(format string, args ...interface{}) error {
	return &models.ServiceError{
		Op:        "advisor.schema",
		Retryable: false,
		Err:       fmt.Errorf(format, args...),
	}
}
