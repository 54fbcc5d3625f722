package genai

import (
	"context"
	"slices"
	"sync"
)

// ChatSession keeps the history of a multi-turn conversation and replays it
// on every Send.
type ChatSession struct {
	client *Client

	mu      sync.Mutex
	history []Turn
}

// ChatSession starts a conversation with empty history.
func (c *Client) ChatSession() *ChatSession {
	return &ChatSession{client: c, history: []Turn{}}
}

// Send appends text as a user turn, sends the whole conversation and records
// the reply. On failure the history is left as it was before the call.
// Concurrent sends are serialized.
func (s *ChatSession) Send(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := append(slices.Clone(s.history), Turn{Role: RoleUser, Text: text})
	reply, err := s.client.generate(ctx, turns)
	if err != nil {
		return "", err
	}
	s.history = append(turns, Turn{Role: RoleModel, Text: reply})
	return reply, nil
}

// History returns a copy of the conversation so far.
func (s *ChatSession) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}
