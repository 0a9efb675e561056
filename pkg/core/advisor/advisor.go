// Package advisor implements the external structure advisor: it sends a
// bounded grid sample to a language-model provider and parses the answer
// into a mapping. Throttling retries with exponential backoff; every
// non-recoverable failure falls back to the heuristic builder and is
// reported as heuristic provenance — the advisor never claims AI
// provenance for a mapping it did not produce.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"statement_engine/pkg/core/grid"
	"statement_engine/pkg/core/heuristic"
	"statement_engine/pkg/core/llm"
	"statement_engine/pkg/core/prompt"
	"statement_engine/pkg/models"
)

const (
	// Sample bounds keep prompt cost flat regardless of workbook size.
	sampleRows = 40
	sampleCols = 16

	maxAttempts = 3
	backoffBase = time.Second

	// Mapping confidence floor applied after a fallback, so downstream
	// consumers see a usable-but-unverified score rather than zero.
	fallbackFloor = 50
)

// Advisor queries an LLM provider for a structure mapping.
type Advisor struct {
	provider llm.Provider
	fallback *heuristic.Builder
}

// New builds an advisor. provider may be nil, in which case every call
// goes straight to the heuristic fallback.
func New(provider llm.Provider, fallback *heuristic.Builder) *Advisor {
	return &Advisor{provider: provider, fallback: fallback}
}

// Infer asks the external service for a mapping, falling back to the
// heuristic builder on any non-recoverable failure. The returned error is
// only non-nil when the fallback itself cannot produce a mapping (e.g. no
// period axis).
func (a *Advisor) Infer(ctx context.Context, g *grid.Grid, sheet int, t models.StatementType) (*models.Mapping, error) {
	if a.provider == nil {
		return a.fallBack(g, sheet, t, "no advisor provider configured")
	}

	mapping, err := a.query(ctx, g, sheet, t)
	if err != nil {
		fmt.Printf("[ADVISOR] %v, falling back to heuristic mapping\n", err)
		return a.fallBack(g, sheet, t, err.Error())
	}
	return mapping, nil
}

func (a *Advisor) query(ctx context.Context, g *grid.Grid, sheet int, t models.StatementType) (*models.Mapping, error) {
	tmpl, err := prompt.ForStatement(string(t))
	if err != nil {
		return nil, err
	}
	userPrompt, err := tmpl.Render(map[string]interface{}{
		"Sample": g.Sample(sheet, sampleRows, sampleCols),
	})
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		response, err := a.provider.Generate(ctx, tmpl.SystemPrompt, userPrompt)
		if err == nil {
			return a.parseResponse(g, sheet, t, response)
		}
		lastErr = err
		if !models.IsRetryable(err) {
			return nil, err
		}
		if attempt == maxAttempts {
			break
		}
		// Exponential backoff between attempts. A caller can abandon the
		// call here; no partial mapping has been published.
		delay := backoffBase << (attempt - 1)
		fmt.Printf("[ADVISOR] %s throttled (attempt %d/%d), retrying in %s\n",
			a.provider.Name(), attempt, maxAttempts, delay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("advisor retries exhausted: %w", lastErr)
}

func (a *Advisor) fallBack(g *grid.Grid, sheet int, t models.StatementType, reason string) (*models.Mapping, error) {
	mapping, err := a.fallback.Build(g, sheet, t)
	if err != nil {
		if errors.Is(err, models.ErrPeriodAxisNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("heuristic fallback failed: %w", err)
	}
	if mapping.Confidence < fallbackFloor {
		mapping.Confidence = fallbackFloor
	}
	mapping.Provenance = models.ProvenanceHeuristic
	mapping.Insights = append(mapping.Insights, "advisor unavailable: "+reason)
	return mapping, nil
}
