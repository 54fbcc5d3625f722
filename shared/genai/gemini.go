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
	geminiBaseURL      = "https://generativelanguage.googleapis.com"
	DefaultGeminiModel = "gemini-2.5-flash"
)

// GeminiProvider implements the Provider interface for Google's Gemini
// generateContent REST API.
type GeminiProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewGeminiProvider creates a new Gemini provider instance. Empty model and
// baseURL fall back to the public defaults.
func NewGeminiProvider(apiKey, model, baseURL string, client *http.Client) *GeminiProvider {
	if model == "" {
		model = DefaultGeminiModel
	}
	if baseURL == "" {
		baseURL = geminiBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &GeminiProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (gp *GeminiProvider) Name() string { return ProviderGemini }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate calls models/{model}:generateContent and returns the text parts of
// the first candidate.
func (gp *GeminiProvider) Generate(ctx context.Context, turns []Turn) (string, error) {
	contents := make([]geminiContent, 0, len(turns))
	for _, t := range turns {
		contents = append(contents, geminiContent{
			Role:  t.Role,
			Parts: []geminiPart{{Text: t.Text}},
		})
	}
	body, err := json.Marshal(map[string]any{"contents": contents})
	if err != nil {
		return "", gp.fail(0, fmt.Errorf("encode: %w", err))
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", gp.baseURL, gp.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", gp.fail(0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", gp.apiKey)

	resp, err := gp.client.Do(req)
	if err != nil {
		return "", gp.fail(0, fmt.Errorf("request: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", gp.fail(resp.StatusCode, fmt.Errorf("read body: %w", err))
	}

	var gr geminiResponse
	decodeErr := json.Unmarshal(raw, &gr)
	if resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && gr.Error != nil {
			msg = gr.Error.Message
		}
		return "", gp.fail(resp.StatusCode, errors.New(msg))
	}
	if decodeErr != nil {
		return "", gp.fail(resp.StatusCode, fmt.Errorf("decode: %w", decodeErr))
	}
	if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
		return "", gp.fail(resp.StatusCode, fmt.Errorf("prompt blocked: %s", gr.PromptFeedback.BlockReason))
	}
	if len(gr.Candidates) == 0 {
		return "", gp.fail(resp.StatusCode, ErrEmptyCompletion)
	}

	var sb strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

func (gp *GeminiProvider) fail(status int, err error) error {
	return &ProviderError{Provider: ProviderGemini, StatusCode: status, Err: err}
}
