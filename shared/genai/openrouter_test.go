package genai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/baalimago/go_away_boilerplate/pkg/testboil"
)

func TestOpenRouterGenerate(t *testing.T) {
	var gotBody struct {
		Model    string              `json:"model"`
		Messages []map[string]string `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		testboil.FailTestIfDiff(t, r.URL.Path, "/chat/completions")
		testboil.FailTestIfDiff(t, r.Header.Get("Authorization"), "Bearer secret")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`))
	}))
	defer srv.Close()

	p := NewOpenRouterProvider("secret", "", srv.URL, srv.Client())
	got, err := p.Generate(context.Background(), []Turn{
		{Role: RoleUser, Text: "hi"},
		{Role: RoleModel, Text: "hey"},
		{Role: RoleUser, Text: "again"},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	testboil.FailTestIfDiff(t, got, "hello")
	testboil.FailTestIfDiff(t, gotBody.Model, DefaultOpenRouterModel)
	testboil.FailTestIfDiff(t, len(gotBody.Messages), 3)
	testboil.FailTestIfDiff(t, gotBody.Messages[1]["role"], "assistant")
	testboil.FailTestIfDiff(t, gotBody.Messages[2]["content"], "again")
}

func TestOpenRouterGenerateError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid key"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenRouterProvider("bad", "", srv.URL, srv.Client()).Generate(context.Background(), []Turn{{Role: RoleUser, Text: "q"}})
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ProviderError, got %v", err)
	}
	testboil.FailTestIfDiff(t, pe.StatusCode, http.StatusUnauthorized)
	testboil.AssertStringContains(t, err.Error(), "invalid key")
}

func TestOpenRouterGenerateEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenRouterProvider("k", "", srv.URL, srv.Client()).Generate(context.Background(), []Turn{{Role: RoleUser, Text: "q"}})
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}
