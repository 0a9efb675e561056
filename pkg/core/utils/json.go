// Package utils provides JSON recovery helpers for language-model output.
// Model replies are structurally unreliable: code fences, single quotes,
// trailing commas, commentary. The parse chain here is strict JSON first,
// mechanical repair second, Hjson as the last resort.
package utils

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// StripCodeFences removes markdown code-block wrapping (```json ... ```)
// that models add despite JSON response mode.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// RepairJSON attempts to fix common JSON errors from LLM outputs:
// missing quotes around keys, single quotes, unclosed arrays/objects,
// trailing commas, embedded comments.
func RepairJSON(malformed string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformed)
	if err != nil {
		return "", fmt.Errorf("json repair failed: %w", err)
	}
	return repaired, nil
}

// UnmarshalLenient decodes model output into v, trying strict JSON,
// then repaired JSON, then Hjson. A failure here is terminal: the reply
// is not close enough to the requested schema to trust.
func UnmarshalLenient(raw string, v interface{}) error {
	cleaned := StripCodeFences(raw)

	if err := json.Unmarshal([]byte(cleaned), v); err == nil {
		return nil
	}
	if repaired, err := RepairJSON(cleaned); err == nil {
		if err := json.Unmarshal([]byte(repaired), v); err == nil {
			return nil
		}
	}
	// Hjson tolerates unquoted keys and missing commas; normalize to a
	// generic value and round-trip through encoding/json.
	var loose interface{}
	if err := hjson.Unmarshal([]byte(cleaned), &loose); err != nil {
		return fmt.Errorf("response is not parseable as JSON or Hjson: %w", err)
	}
	normalized, err := json.Marshal(loose)
	if err != nil {
		return fmt.Errorf("normalize hjson: %w", err)
	}
	if err := json.Unmarshal(normalized, v); err != nil {
		return fmt.Errorf("response does not match expected schema: %w", err)
	}
	return nil
}
