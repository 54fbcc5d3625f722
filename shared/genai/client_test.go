package genai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/baalimago/go_away_boilerplate/pkg/testboil"
)

type stubProvider struct {
	reply string
	err   error
	got   [][]Turn
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Generate(_ context.Context, turns []Turn) (string, error) {
	s.got = append(s.got, turns)
	return s.reply, s.err
}

func TestNewMissingCredential(t *testing.T) {
	for i := 0; i < 2; i++ {
		c, err := New(Config{Provider: ProviderGemini})
		if c != nil {
			t.Fatalf("attempt %d: expected no client, got %+v", i, c)
		}
		var ce *ConfigurationError
		if !errors.As(err, &ce) {
			t.Fatalf("attempt %d: expected *ConfigurationError, got %T: %v", i, err, err)
		}
		testboil.FailTestIfDiff(t, ce.Key, "GOOGLE_API_KEY")
	}
}

func TestNewWhitespaceCredential(t *testing.T) {
	_, err := New(Config{Provider: ProviderOpenRouter, APIKey: "   "})
	var ce *ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConfigurationError, got %v", err)
	}
	testboil.FailTestIfDiff(t, ce.Key, "OPENROUTER_API_KEY")
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "nope", APIKey: "k"})
	var ce *ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConfigurationError, got %v", err)
	}
	testboil.FailTestIfDiff(t, ce.Key, "LLM_PROVIDER")
}

func TestNewDefaults(t *testing.T) {
	c, err := New(Config{APIKey: "k"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	testboil.FailTestIfDiff(t, c.Provider(), ProviderGemini)
	testboil.FailTestIfDiff(t, c.Model(), DefaultGeminiModel)

	c, err = New(Config{Provider: ProviderOpenRouter, APIKey: "k", Model: "some/model"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	testboil.FailTestIfDiff(t, c.Provider(), ProviderOpenRouter)
	testboil.FailTestIfDiff(t, c.Model(), "some/model")
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "OpenRouter")
	t.Setenv("OPENROUTER_API_KEY", " secret ")
	t.Setenv("GOOGLE_API_KEY", "google")
	t.Setenv("LLM_MODEL", "m")
	t.Setenv("LLM_TIMEOUT_SECONDS", "5")

	cfg := ConfigFromEnv()
	testboil.FailTestIfDiff(t, cfg.Provider, ProviderOpenRouter)
	testboil.FailTestIfDiff(t, cfg.APIKey, "secret")
	testboil.FailTestIfDiff(t, cfg.Model, "m")
	testboil.FailTestIfDiff(t, cfg.Timeout.Seconds(), 5.0)
}

func TestConfigFromEnvTimeoutFallback(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_TIMEOUT_SECONDS", "-3")
	cfg := ConfigFromEnv()
	testboil.FailTestIfDiff(t, cfg.Provider, ProviderGemini)
	testboil.FailTestIfDiff(t, cfg.Timeout, defaultTimeout)
}

func TestGenerateText(t *testing.T) {
	p := &stubProvider{reply: "**4**"}
	c := NewWithProvider(p, "m")

	got := c.GenerateText(context.Background(), "2+2?")
	testboil.FailTestIfDiff(t, got, "**4**")
	testboil.FailTestIfDiff(t, len(p.got), 1)
	testboil.FailTestIfDiff(t, len(p.got[0]), 1)
	testboil.FailTestIfDiff(t, p.got[0][0], Turn{Role: RoleUser, Text: "2+2?"})
}

func TestGenerateTextFallback(t *testing.T) {
	testCases := []struct {
		desc     string
		provider *stubProvider
	}{
		{desc: "provider error", provider: &stubProvider{err: errors.New("quota exceeded")}},
		{desc: "typed provider error", provider: &stubProvider{err: &ProviderError{Provider: "stub", StatusCode: 500, Err: errors.New("boom")}}},
		{desc: "empty completion", provider: &stubProvider{reply: "  \n"}},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			c := NewWithProvider(tc.provider, "m")
			for i := 0; i < 2; i++ {
				testboil.FailTestIfDiff(t, c.GenerateText(context.Background(), "q"), Apology)
			}
		})
	}
}

func TestAnswerReportsFallback(t *testing.T) {
	c := NewWithProvider(&stubProvider{reply: "**4**"}, "m")
	text, ok := c.Answer(context.Background(), "2+2?")
	testboil.FailTestIfDiff(t, text, "**4**")
	testboil.FailTestIfDiff(t, ok, true)

	c = NewWithProvider(&stubProvider{err: errors.New("quota exceeded")}, "m")
	text, ok = c.Answer(context.Background(), "2+2?")
	testboil.FailTestIfDiff(t, text, Apology)
	testboil.FailTestIfDiff(t, ok, false)

	p := &stubProvider{}
	c = NewWithProvider(p, "m")
	text, ok = c.AnswerCode(context.Background(), "x := 1")
	testboil.FailTestIfDiff(t, text, Apology)
	testboil.FailTestIfDiff(t, ok, false)
	testboil.FailTestIfDiff(t, p.got[0][0].Text, AnalysisPrompt("x := 1"))
}

func TestCompleteWrapsErrors(t *testing.T) {
	cause := errors.New("connection reset")
	c := NewWithProvider(&stubProvider{err: cause}, "m")

	_, err := c.Complete(context.Background(), "q")
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ProviderError, got %T", err)
	}
	testboil.FailTestIfDiff(t, pe.Provider, "stub")
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}

	c = NewWithProvider(&stubProvider{}, "m")
	_, err = c.Complete(context.Background(), "q")
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}

func TestAnalysisPrompt(t *testing.T) {
	code := "def f(): pass"
	got := AnalysisPrompt(code)

	headings := []string{"Code quality", "Potential improvements", "Security considerations"}
	last := -1
	for _, h := range headings {
		testboil.AssertStringContains(t, got, h)
		idx := strings.Index(got, h)
		if idx < last {
			t.Fatalf("%q out of order in %q", h, got)
		}
		last = idx
	}
	codeIdx := strings.Index(got, code)
	if codeIdx < last {
		t.Fatalf("expected code after headings, got %q", got)
	}
}

func TestAnalyzeCodeDelegates(t *testing.T) {
	p := &stubProvider{reply: "looks fine"}
	c := NewWithProvider(p, "m")

	testboil.FailTestIfDiff(t, c.AnalyzeCode(context.Background(), "x := 1"), "looks fine")
	testboil.FailTestIfDiff(t, p.got[0][0].Text, AnalysisPrompt("x := 1"))

	c = NewWithProvider(&stubProvider{err: errors.New("down")}, "m")
	testboil.FailTestIfDiff(t, c.AnalyzeCode(context.Background(), "x := 1"), Apology)
}
