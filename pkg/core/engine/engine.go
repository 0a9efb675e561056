// Package engine orchestrates statement inference end to end: grid
// loading, statement type detection, the ordered mapping strategy chain
// (template fast path, heuristic inference, AI-assisted mapping),
// validation, and extraction. The engine holds no mutable state: every
// upload is processed within its caller's task and independent uploads
// may run concurrently on one Engine.
package engine

import (
	"context"
	"errors"
	"fmt"

	"statement_engine/pkg/core/advisor"
	"statement_engine/pkg/core/aggregate"
	"statement_engine/pkg/core/detect"
	"statement_engine/pkg/core/extract"
	"statement_engine/pkg/core/grid"
	"statement_engine/pkg/core/heuristic"
	"statement_engine/pkg/core/llm"
	"statement_engine/pkg/core/periods"
	"statement_engine/pkg/core/taxonomy"
	"statement_engine/pkg/core/template"
	"statement_engine/pkg/models"
)

// Config tunes strategy selection.
type Config struct {
	// ConfidenceThreshold is the heuristic score below which the engine
	// escalates to the external advisor (when a provider is configured).
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	// AlwaysUseAdvisor escalates every non-template inference to the
	// advisor regardless of heuristic confidence.
	AlwaysUseAdvisor bool `yaml:"always_use_advisor"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{ConfidenceThreshold: 75}
}

// InferenceResult is the structured outcome of a first-time upload.
// Failure is reported in-band (Success=false plus a reason), never as a
// panic; SuggestManualMapping tells the caller a human-edited mapping is
// the remaining option.
type InferenceResult struct {
	Success              bool                       `json:"success"`
	StatementType        models.StatementType       `json:"statement_type"`
	Mapping              *models.Mapping            `json:"mapping,omitempty"`
	Metrics              []models.PeriodMetrics     `json:"metrics,omitempty"`
	Validation           *extract.ValidationReport  `json:"validation,omitempty"`
	Scores               detect.Scores              `json:"scores"`
	Reason               string                     `json:"reason,omitempty"`
	SuggestManualMapping bool                       `json:"suggest_manual_mapping,omitempty"`
}

// Engine wires the inference components together.
type Engine struct {
	cfg        Config
	classifier *taxonomy.Classifier
	detector   *detect.Detector
	aggregator *aggregate.Aggregator
	executor   *extract.Executor
	strategies []Strategy
	provider   llm.Provider
	hasAdvisor bool
}

// New builds an engine. provider may be nil to disable the AI-assisted
// strategy entirely.
func New(cfg Config, provider llm.Provider) *Engine {
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = DefaultConfig().ConfidenceThreshold
	}
	classifier := taxonomy.NewClassifier()
	builder := heuristic.New(classifier)

	strategies := []Strategy{
		&templateStrategy{matcher: template.NewMatcher()},
		&heuristicStrategy{builder: builder},
	}
	hasAdvisor := provider != nil
	if hasAdvisor {
		strategies = append(strategies, &advisorStrategy{advisor: advisor.New(provider, builder)})
	}

	return &Engine{
		cfg:        cfg,
		classifier: classifier,
		detector:   detect.New(classifier),
		aggregator: aggregate.New(),
		executor:   extract.NewExecutor(),
		strategies: strategies,
		provider:   provider,
		hasAdvisor: hasAdvisor,
	}
}

// WithClassifier replaces the taxonomy tables, e.g. with a set loaded
// from an external YAML document. Must be called before processing.
func (e *Engine) WithClassifier(classifier *taxonomy.Classifier) *Engine {
	e.classifier = classifier
	e.detector = detect.New(classifier)
	builder := heuristic.New(classifier)
	for i, s := range e.strategies {
		switch s.(type) {
		case *heuristicStrategy:
			e.strategies[i] = &heuristicStrategy{builder: builder}
		case *advisorStrategy:
			// The advisor's internal fallback builder must see the same
			// taxonomy as the heuristic strategy.
			e.strategies[i] = &advisorStrategy{advisor: advisor.New(e.provider, builder)}
		}
	}
	return e
}

// InferStatement processes a first-time upload: detects the statement
// type, runs the strategy chain, validates the winning mapping and
// extracts the metrics series. Unreadable input returns an error; every
// downstream failure is reported in the structured result.
func (e *Engine) InferStatement(ctx context.Context, data []byte) (*InferenceResult, error) {
	g, err := grid.Load(data)
	if err != nil {
		return nil, err
	}

	statementType, scores := e.detector.DetectWorkbook(g)
	result := &InferenceResult{StatementType: statementType, Scores: scores}

	mapping, err := e.runChain(ctx, g, statementType)
	if err != nil {
		if errors.Is(err, models.ErrPeriodAxisNotFound) {
			result.Reason = "no period axis could be located in the workbook"
			result.SuggestManualMapping = true
			return result, nil
		}
		return nil, err
	}

	// The template fast path fixes the statement type; trust it over the
	// vocabulary detector.
	if mapping.Provenance == models.ProvenanceTemplate {
		statementType = mapping.StatementType
		result.StatementType = statementType
	}

	metrics := e.executor.Extract(g, mapping)
	if len(metrics) == 0 && mapping.Provenance != models.ProvenanceTemplate {
		// Decomposed layouts (section lines without totals) extract
		// nothing by location; fold classified line items instead.
		items := collectLineItems(g, mapping.PeriodAxis, e.classifier)
		ps := e.periodsFor(g, mapping)
		metrics = e.aggregator.Aggregate(statementType, ps, items)
	}
	if len(metrics) == 0 {
		result.Mapping = mapping
		result.Reason = models.ErrInsufficientMetrics.Error()
		result.SuggestManualMapping = true
		return result, nil
	}

	result.Success = true
	result.Mapping = mapping
	result.Metrics = metrics
	result.Validation = e.executor.Validate(g, mapping)
	return result, nil
}

// ExtractWithMapping replays an accepted mapping against a new upload of
// the same shape.
func (e *Engine) ExtractWithMapping(ctx context.Context, data []byte, mapping *models.Mapping) ([]models.PeriodMetrics, error) {
	if mapping == nil {
		return nil, fmt.Errorf("nil mapping")
	}
	g, err := grid.Load(data)
	if err != nil {
		return nil, err
	}
	metrics := e.executor.Extract(g, mapping)
	if len(metrics) == 0 {
		return nil, models.ErrInsufficientMetrics
	}
	return metrics, nil
}

// ValidateMapping replays a mapping read-only and reports per-metric
// issues without producing the full series.
func (e *Engine) ValidateMapping(ctx context.Context, data []byte, mapping *models.Mapping) (*extract.ValidationReport, error) {
	if mapping == nil {
		return nil, fmt.Errorf("nil mapping")
	}
	g, err := grid.Load(data)
	if err != nil {
		return nil, err
	}
	return e.executor.Validate(g, mapping), nil
}

// runChain walks the strategy list in priority order. A heuristic result
// below the confidence threshold escalates to the advisor when one is
// configured; the advisor internally falls back to heuristics again on
// service failure, so escalation can only improve or match the mapping.
func (e *Engine) runChain(ctx context.Context, g *grid.Grid, hint models.StatementType) (*models.Mapping, error) {
	var current *models.Mapping
	var firstErr error
	for _, s := range e.strategies {
		switch s.(type) {
		case *advisorStrategy:
			if current != nil && current.Confidence >= e.cfg.ConfidenceThreshold && !e.cfg.AlwaysUseAdvisor {
				continue
			}
		default:
			if current != nil {
				continue
			}
		}
		mapping, err := s.Attempt(ctx, g, hint)
		if err != nil {
			// A later strategy failing never discards an earlier win,
			// and an early failure still lets later strategies run.
			fmt.Printf("[ENGINE] strategy %s failed: %v\n", s.Name(), err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if mapping == nil {
			continue
		}
		if current == nil || mapping.Confidence > current.Confidence {
			current = mapping
		}
		if current.Provenance == models.ProvenanceTemplate {
			break
		}
	}
	if current == nil {
		if firstErr != nil {
			return nil, firstErr
		}
		return nil, models.ErrPeriodAxisNotFound
	}
	return current, nil
}

func (e *Engine) periodsFor(g *grid.Grid, mapping *models.Mapping) []models.Period {
	return periods.BuildPeriods(g, mapping.PeriodAxis)
}
