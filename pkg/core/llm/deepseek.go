package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// DeepSeekProvider implements Provider against the DeepSeek chat
// completions API over plain HTTP.
type DeepSeekProvider struct {
	Model string
}

var _ Provider = (*DeepSeekProvider)(nil)

type deepSeekMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type deepSeekRequest struct {
	Model          string            `json:"model"`
	Messages       []deepSeekMessage `json:"messages"`
	MaxTokens      int               `json:"max_tokens"`
	Temperature    float64           `json:"temperature"`
	Stream         bool              `json:"stream"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type deepSeekResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *DeepSeekProvider) Name() string {
	return "deepseek"
}

func (p *DeepSeekProvider) Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	apiKey := os.Getenv("DEEPSEEK_API_KEY")
	if apiKey == "" {
		return "", serviceErr("deepseek.auth", false, fmt.Errorf("DEEPSEEK_API_KEY environment variable not set"))
	}

	model := p.Model
	if model == "" {
		model = "deepseek-chat"
	}

	reqBody := deepSeekRequest{
		Model: model,
		Messages: []deepSeekMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:   4096,
		Temperature: 0.1,
	}
	reqBody.ResponseFormat.Type = "json_object"

	jsonBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", serviceErr("deepseek.marshal", false, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://api.deepseek.com/chat/completions", bytes.NewBuffer(jsonBytes))
	if err != nil {
		return "", serviceErr("deepseek.request", false, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	client := &http.Client{Timeout: 60 * time.Second}
	res, err := client.Do(req)
	if err != nil {
		return "", serviceErr("deepseek.call", false, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", serviceErr("deepseek.read", false, err)
	}

	if res.StatusCode == http.StatusTooManyRequests || res.StatusCode == http.StatusServiceUnavailable {
		return "", serviceErr("deepseek.call", true, fmt.Errorf("status=%d body=%s", res.StatusCode, string(body)))
	}
	if res.StatusCode != http.StatusOK {
		return "", serviceErr("deepseek.call", false, fmt.Errorf("status=%d body=%s", res.StatusCode, string(body)))
	}

	var response deepSeekResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", serviceErr("deepseek.unmarshal", false, err)
	}
	if len(response.Choices) == 0 {
		return "", serviceErr("deepseek.unmarshal", false, fmt.Errorf("no choices in response: %s", string(body)))
	}
	return response.Choices[0].Message.Content, nil
}
