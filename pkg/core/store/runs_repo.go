package store

import (
	"context"
	"encoding/json"
	"fmt"

	"statement_engine/pkg/core/engine"
)

// RunsRepo records inference run outcomes for audit. Each row keeps the
// full structured result as JSONB so failed runs (with their reasons and
// detector scores) can be inspected later.
type RunsRepo struct{}

// NewRunsRepo creates a new repository instance.
func NewRunsRepo() *RunsRepo {
	return &RunsRepo{}
}

// Save persists one inference run.
func (r *RunsRepo) Save(ctx context.Context, digest string, result *engine.InferenceResult) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal inference result: %w", err)
	}

	query := `
		INSERT INTO inference_runs (digest, statement_type, success, result)
		VALUES ($1, $2, $3, $4)
	`
	_, err = pool.Exec(ctx, query, digest, string(result.StatementType), result.Success, resultJSON)
	if err != nil {
		return fmt.Errorf("failed to save inference run: %w", err)
	}
	return nil
}

// History returns the most recent runs for a workbook digest, newest
// first.
func (r *RunsRepo) History(ctx context.Context, digest string, limit int) ([]engine.InferenceResult, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT result
		FROM inference_runs
		WHERE digest = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := pool.Query(ctx, query, digest, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load inference runs: %w", err)
	}
	defer rows.Close()

	var results []engine.InferenceResult
	for rows.Next() {
		var resultJSON []byte
		if err := rows.Scan(&resultJSON); err != nil {
			return nil, fmt.Errorf("failed to scan inference run: %w", err)
		}
		var res engine.InferenceResult
		if err := json.Unmarshal(resultJSON, &res); err != nil {
			return nil, fmt.Errorf("failed to unmarshal inference run: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
