// Package events defines the messages emitted for every request the ask
// service terminates. The same envelope is published on RabbitMQ and relayed
// to WebSocket clients.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ── Routing keys (RabbitMQ topic exchange: askai.events) ─────────────────────
const (
	QuestionAnswered = "question.answered"
	QuestionRejected = "question.rejected"
	QuestionFailed   = "question.failed"
	AnalysisAnswered = "analysis.answered"
	AnalysisRejected = "analysis.rejected"
	AnalysisFailed   = "analysis.failed"
)

// Outcomes carried in AskPayload.Outcome.
const (
	OutcomeAnswered = "answered"
	OutcomeFallback = "fallback"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// ── Envelope wraps every message ─────────────────────────────────────────────

type Envelope struct {
	ID         string          `json:"id"`
	RoutingKey string          `json:"routing_key"`
	Timestamp  time.Time       `json:"ts"`
	Payload    json.RawMessage `json:"payload"`
}

func Wrap(routingKey string, payload any) ([]byte, error) {
	p, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{
		ID:         uuid.New().String(),
		RoutingKey: routingKey,
		Timestamp:  time.Now(),
		Payload:    p,
	})
}

func Unwrap[T any](raw []byte) (*T, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	var t T
	return &t, json.Unmarshal(env.Payload, &t)
}

// ── Payload types ─────────────────────────────────────────────────────────────

// AskPayload describes one terminated /ask or /analyze request. The prompt
// itself is never included, only its size.
type AskPayload struct {
	RequestID   string `json:"request_id"`
	Route       string `json:"route"`
	Provider    string `json:"provider"`
	Model       string `json:"model"`
	PromptChars int    `json:"prompt_chars"`
	Status      int    `json:"status"`
	Outcome     string `json:"outcome"`
	DurationMS  int64  `json:"duration_ms"`
	Error       string `json:"error,omitempty"`
}

// RoutingKey picks the topic for a payload from its route and outcome.
func (p AskPayload) RoutingKey() string {
	analysis := p.Route == "/analyze"
	switch p.Outcome {
	case OutcomeRejected:
		if analysis {
			return AnalysisRejected
		}
		return QuestionRejected
	case OutcomeFailed:
		if analysis {
			return AnalysisFailed
		}
		return QuestionFailed
	default:
		if analysis {
			return AnalysisAnswered
		}
		return QuestionAnswered
	}
}
