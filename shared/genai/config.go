package genai

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

const defaultTimeout = 60 * time.Second

type Config struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// ConfigFromEnv reads the provider selection and its credential from the
// process environment. The credential variable depends on the provider,
// see CredentialKey.
func ConfigFromEnv() Config {
	provider := strings.ToLower(env("LLM_PROVIDER", ProviderGemini))
	return Config{
		Provider: provider,
		APIKey:   strings.TrimSpace(os.Getenv(CredentialKey(provider))),
		Model:    env("LLM_MODEL", ""),
		BaseURL:  env("LLM_BASE_URL", ""),
		Timeout:  time.Duration(envInt("LLM_TIMEOUT_SECONDS", int(defaultTimeout/time.Second))) * time.Second,
	}
}

// CredentialKey names the environment variable holding the API key for provider.
func CredentialKey(provider string) string {
	switch provider {
	case ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	default:
		return "GOOGLE_API_KEY"
	}
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		n, _ := strconv.Atoi(v)
		if n > 0 {
			return n
		}
	}
	return def
}
