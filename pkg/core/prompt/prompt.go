// Package prompt provides a small prompt library for the structure
// advisor. Prompts live in JSON resource files and can be updated without
// code changes; compiled-in defaults keep the engine functional when no
// resource directory is shipped.
package prompt

import (
	"bytes"
	"fmt"
	"text/template"
)

// Template is one reusable prompt with metadata.
type Template struct {
	ID             string `json:"id"`                   // e.g. "advisor.pnl"
	Name           string `json:"name"`                 // Human-readable name
	Description    string `json:"description"`          // Purpose of the prompt
	SystemPrompt   string `json:"system_prompt"`        // System prompt content
	UserPromptTmpl string `json:"user_prompt_template"` // Go text/template for the user prompt
	Version        string `json:"version"`
}

// Render executes the user prompt template with the given variables.
func (t *Template) Render(vars map[string]interface{}) (string, error) {
	tmpl, err := template.New(t.ID).Parse(t.UserPromptTmpl)
	if err != nil {
		return "", fmt.Errorf("parse prompt template %s: %w", t.ID, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", t.ID, err)
	}
	return buf.String(), nil
}
