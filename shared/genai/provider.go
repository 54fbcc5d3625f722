package genai

import "context"

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one message of a conversation sent to a provider.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Provider is an abstraction for different generative text APIs.
// Each implementation handles provider-specific HTTP details, authentication,
// request/response formatting, and error handling.
type Provider interface {
	// Name identifies the provider in logs and errors.
	Name() string
	// Generate sends the conversation and returns the model's reply text.
	// A single-turn completion is a conversation of one user turn.
	Generate(ctx context.Context, turns []Turn) (string, error)
}
