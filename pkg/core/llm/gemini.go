package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"
)

// GeminiProvider implements Provider for Google's Gemini models via the
// official GenAI SDK. JSON response mode is always requested: the advisor
// only ever asks for structured mappings.
type GeminiProvider struct {
	Model string // e.g. "gemini-2.0-flash-exp"
}

var _ Provider = (*GeminiProvider)(nil)

func (p *GeminiProvider) Name() string {
	return "gemini"
}

func (p *GeminiProvider) Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return "", serviceErr("gemini.auth", false, fmt.Errorf("GEMINI_API_KEY environment variable not set"))
	}

	model := p.Model
	if model == "" {
		model = "gemini-2.0-flash-exp"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", serviceErr("gemini.client", false, fmt.Errorf("failed to create GenAI client: %w", err))
	}

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(0.1)),
		ResponseMIMEType: "application/json",
	}
	if systemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		}
	}

	result, err := client.Models.GenerateContent(ctx, model, genai.Text(userPrompt), config)
	if err != nil {
		return "", serviceErr("gemini.generate", isThrottle(err), fmt.Errorf("gemini generation failed: %w", err))
	}

	text := result.Text()
	if text == "" {
		return "", serviceErr("gemini.generate", false, fmt.Errorf("gemini returned an empty candidate"))
	}
	return text, nil
}

// isThrottle sniffs the SDK error text for rate-limit signals. The genai
// SDK surfaces HTTP status in the message.
func isThrottle(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(msg, "503") ||
		strings.Contains(msg, "UNAVAILABLE")
}
