package engine

import (
	"context"

	"statement_engine/pkg/core/advisor"
	"statement_engine/pkg/core/grid"
	"statement_engine/pkg/core/heuristic"
	"statement_engine/pkg/core/template"
	"statement_engine/pkg/models"
)

// Strategy is one mapping-production approach. Attempt returns (nil, nil)
// when the strategy does not apply to this workbook, letting the engine
// move down the chain; an error is reserved for failures that block the
// strategy itself (e.g. no period axis for the heuristic builder).
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, g *grid.Grid, hint models.StatementType) (*models.Mapping, error)
}

// templateStrategy is the deterministic fast path; it derives the
// statement type from the matched template and ignores the hint.
type templateStrategy struct {
	matcher *template.Matcher
}

func (s *templateStrategy) Name() string { return "template" }

func (s *templateStrategy) Attempt(_ context.Context, g *grid.Grid, _ models.StatementType) (*models.Mapping, error) {
	return s.matcher.Match(g), nil
}

// heuristicStrategy wraps the generic pattern-matching builder.
type heuristicStrategy struct {
	builder *heuristic.Builder
}

func (s *heuristicStrategy) Name() string { return "heuristic" }

func (s *heuristicStrategy) Attempt(_ context.Context, g *grid.Grid, hint models.StatementType) (*models.Mapping, error) {
	return s.builder.Build(g, 0, hint)
}

// advisorStrategy consults the external language-model service. The
// advisor handles throttling retries and its own heuristic fallback, so
// an error here means even the fallback could not produce a mapping.
type advisorStrategy struct {
	advisor *advisor.Advisor
}

func (s *advisorStrategy) Name() string { return "advisor" }

func (s *advisorStrategy) Attempt(ctx context.Context, g *grid.Grid, hint models.StatementType) (*models.Mapping, error) {
	return s.advisor.Infer(ctx, g, 0, hint)
}
