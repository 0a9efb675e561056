// Package llm holds the language-model provider abstraction used by the
// external structure advisor. Providers return the raw model text; the
// advisor owns prompt assembly, response parsing and retry policy.
package llm

import (
	"context"

	"statement_engine/pkg/models"
)

// Provider is the interface for all LLM providers.
type Provider interface {
	// Generate sends one blocking completion request. Failures are
	// reported as *models.ServiceError so the caller can distinguish
	// throttling (retryable) from auth/config errors (terminal).
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
	// Name identifies the provider in logs and mapping insights.
	Name() string
}

func serviceErr(op string, retryable bool, err error) error {
	return &models.ServiceError{Op: op, Retryable: retryable, Err: err}
}
