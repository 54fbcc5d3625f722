// Package genai holds the credential-bound client used to ask a generative
// text provider for completions.
package genai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Apology is returned by GenerateText in place of any provider failure.
const Apology = "I apologize, but I encountered an error processing your request."

// Client binds a Provider to the credential it was constructed with.
// It holds no per-request state and is safe for concurrent use.
type Client struct {
	provider Provider
	model    string
}

// New builds a Client from cfg. A missing credential or unknown provider is
// reported as *ConfigurationError and no Client is returned.
func New(cfg Config) (*Client, error) {
	if cfg.Provider == "" {
		cfg.Provider = ProviderGemini
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &ConfigurationError{
			Key:    CredentialKey(cfg.Provider),
			Reason: "not found in environment variables",
		}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := &http.Client{Timeout: timeout}

	var p Provider
	model := cfg.Model
	switch cfg.Provider {
	case ProviderGemini:
		if model == "" {
			model = DefaultGeminiModel
		}
		p = NewGeminiProvider(cfg.APIKey, model, cfg.BaseURL, httpClient)
	case ProviderOpenRouter:
		if model == "" {
			model = DefaultOpenRouterModel
		}
		p = NewOpenRouterProvider(cfg.APIKey, model, cfg.BaseURL, httpClient)
	default:
		return nil, &ConfigurationError{
			Key:    "LLM_PROVIDER",
			Reason: fmt.Sprintf("unknown provider %q", cfg.Provider),
		}
	}
	return &Client{provider: p, model: model}, nil
}

// NewWithProvider wraps an already configured Provider.
func NewWithProvider(p Provider, model string) *Client {
	return &Client{provider: p, model: model}
}

func (c *Client) Provider() string { return c.provider.Name() }

func (c *Client) Model() string { return c.model }

// Complete sends prompt as a single-turn request. Every failure, including an
// empty completion, is returned as *ProviderError.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, []Turn{{Role: RoleUser, Text: prompt}})
}

// Answer is Complete with failures logged and replaced by Apology. ok reports
// whether text came from the provider.
func (c *Client) Answer(ctx context.Context, prompt string) (text string, ok bool) {
	text, err := c.Complete(ctx, prompt)
	if err != nil {
		logger(ctx).Error().Err(err).Str("provider", c.provider.Name()).Msg("error generating response")
		return Apology, false
	}
	return text, true
}

// AnswerCode is Answer for the code review prompt built by AnalysisPrompt.
func (c *Client) AnswerCode(ctx context.Context, code string) (string, bool) {
	return c.Answer(ctx, AnalysisPrompt(code))
}

// GenerateText never fails: provider errors come back as Apology.
func (c *Client) GenerateText(ctx context.Context, prompt string) string {
	text, _ := c.Answer(ctx, prompt)
	return text
}

// AnalyzeCode asks for a quality, improvement and security review of code.
func (c *Client) AnalyzeCode(ctx context.Context, code string) string {
	text, _ := c.AnswerCode(ctx, code)
	return text
}

// AnalysisPrompt wraps code in the fixed three-point review request.
func AnalysisPrompt(code string) string {
	var sb strings.Builder
	sb.WriteString("Please analyze this code and provide insights about:\n")
	sb.WriteString("1. Code quality\n")
	sb.WriteString("2. Potential improvements\n")
	sb.WriteString("3. Security considerations\n\n")
	sb.WriteString("Code:\n")
	sb.WriteString(code)
	sb.WriteString("\n")
	return sb.String()
}

func (c *Client) generate(ctx context.Context, turns []Turn) (string, error) {
	text, err := c.provider.Generate(ctx, turns)
	if err != nil {
		var pe *ProviderError
		if errors.As(err, &pe) {
			return "", err
		}
		return "", &ProviderError{Provider: c.provider.Name(), Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return "", &ProviderError{Provider: c.provider.Name(), Err: ErrEmptyCompletion}
	}
	return text, nil
}

// logger prefers the request logger carried by ctx.
func logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
