package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	openrouterBaseURL      = "https://openrouter.ai/api/v1"
	DefaultOpenRouterModel = "openai/gpt-4o-mini"
)

// OpenRouterProvider implements the Provider interface for OpenRouter's API.
// OpenRouter speaks the OpenAI chat completions format.
type OpenRouterProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenRouterProvider creates a new OpenRouter provider instance.
func NewOpenRouterProvider(apiKey, model, baseURL string, client *http.Client) *OpenRouterProvider {
	if model == "" {
		model = DefaultOpenRouterModel
	}
	if baseURL == "" {
		baseURL = openrouterBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &OpenRouterProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (or *OpenRouterProvider) Name() string { return ProviderOpenRouter }

// Generate calls the chat completions endpoint. The "model" role is sent as
// "assistant".
func (or *OpenRouterProvider) Generate(ctx context.Context, turns []Turn) (string, error) {
	messages := make([]map[string]string, 0, len(turns))
	for _, t := range turns {
		role := t.Role
		if role == RoleModel {
			role = "assistant"
		}
		messages = append(messages, map[string]string{"role": role, "content": t.Text})
	}
	body, err := json.Marshal(map[string]any{
		"model":    or.model,
		"messages": messages,
	})
	if err != nil {
		return "", or.fail(0, fmt.Errorf("encode: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, or.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", or.fail(0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+or.apiKey)

	resp, err := or.client.Do(req)
	if err != nil {
		return "", or.fail(0, fmt.Errorf("request: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", or.fail(resp.StatusCode, fmt.Errorf("read body: %w", err))
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	decodeErr := json.Unmarshal(raw, &response)
	if decodeErr == nil && response.Error != nil {
		return "", or.fail(resp.StatusCode, errors.New(response.Error.Message))
	}
	if resp.StatusCode >= 300 {
		return "", or.fail(resp.StatusCode, errors.New(strings.TrimSpace(string(raw))))
	}
	if decodeErr != nil {
		return "", or.fail(resp.StatusCode, fmt.Errorf("decode: %w", decodeErr))
	}
	if len(response.Choices) == 0 {
		return "", or.fail(resp.StatusCode, ErrEmptyCompletion)
	}
	return response.Choices[0].Message.Content, nil
}

func (or *OpenRouterProvider) fail(status int, err error) error {
	return &ProviderError{Provider: ProviderOpenRouter, StatusCode: status, Err: err}
}
