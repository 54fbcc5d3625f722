package internal

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/forge-ai/askai/shared/events"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

const (
	msgNoQuestion = "No question provided"
	msgNoCode     = "No code provided"
	msgTooLarge   = "Request body too large"
	msgInternal   = "Internal server error"
)

var errProviderFailed = errors.New("provider failed, apology served")

//go:embed static/index.html
var indexHTML []byte

// resultKind tags how a request ended. It is mapped onto an HTTP status only
// when the response is written.
type resultKind int

const (
	resultOK resultKind = iota
	resultFallback
	resultInvalid
	resultTooLarge
	resultInternal
)

func (k resultKind) status() int {
	switch k {
	case resultInvalid:
		return http.StatusBadRequest
	case resultTooLarge:
		return http.StatusRequestEntityTooLarge
	case resultInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

func (k resultKind) outcome() string {
	switch k {
	case resultFallback:
		return events.OutcomeFallback
	case resultInvalid, resultTooLarge:
		return events.OutcomeRejected
	case resultInternal:
		return events.OutcomeFailed
	default:
		return events.OutcomeAnswered
	}
}

type result struct {
	body string
	kind resultKind
	err  error
}

// answerFunc returns the completion for input, or genai.Apology with ok false.
type answerFunc func(ctx context.Context, input string) (text string, ok bool)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /ask", s.handleAsk)
	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("/ws", s.hub.ServeWS)

	accessLog := hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("took", d).
			Msg("request")
	})

	return hlog.NewHandler(log.Logger)(requestID(accessLog(recoverer(cors(mux)))))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	s.terminate(w, r, &req, func() string { return req.Question }, msgNoQuestion, s.client.Answer)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	s.terminate(w, r, &req, func() string { return req.Code }, msgNoCode, s.client.AnswerCode)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, map[string]any{
		"status":   "online",
		"provider": s.client.Provider(),
		"model":    s.client.Model(),
		"clients":  s.hub.ClientCount(),
		"version":  Version,
	}, http.StatusOK)
}

// terminate decodes req, validates the single input field and answers. Every
// path writes exactly one JSON response and emits one event.
func (s *Server) terminate(w http.ResponseWriter, r *http.Request, req any, input func() string, missing string, ask answerFunc) {
	start := time.Now()
	logger := hlog.FromRequest(r)

	var res result
	var prompt string
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(req)
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		logger.Warn().Int64("limit", tooLarge.Limit).Msg("request body too large")
		res = result{body: msgTooLarge, kind: resultTooLarge, err: err}
	case err != nil && !errors.Is(err, io.EOF):
		logger.Warn().Err(err).Msg("undecodable request body")
		res = result{body: missing, kind: resultInvalid, err: err}
	default:
		prompt = input()
		if prompt == "" {
			logger.Warn().Msg("received empty input")
			res = result{body: missing, kind: resultInvalid}
		} else {
			res = s.answer(r.Context(), prompt, ask)
		}
	}

	if res.kind == resultInternal {
		logger.Error().Err(res.err).Str("path", r.URL.Path).Msg("request failed")
	}
	jsonResponse(w, res.body, res.kind.status())

	p := events.AskPayload{
		RequestID:   requestIDFrom(r.Context()),
		Route:       r.URL.Path,
		Provider:    s.client.Provider(),
		Model:       s.client.Model(),
		PromptChars: len([]rune(prompt)),
		Status:      res.kind.status(),
		Outcome:     res.kind.outcome(),
		DurationMS:  time.Since(start).Milliseconds(),
	}
	if res.err != nil {
		p.Error = res.err.Error()
	}
	s.emit(p)
}

// answer asks the provider and renders the completion. The apology is served
// verbatim; a render failure is internal.
func (s *Server) answer(ctx context.Context, prompt string, ask answerFunc) result {
	text, ok := ask(ctx, prompt)
	if !ok {
		return result{body: text, kind: resultFallback, err: errProviderFailed}
	}
	html, err := s.renderer.Render(text)
	if err != nil {
		return result{body: msgInternal, kind: resultInternal, err: err}
	}
	return result{body: html, kind: resultOK}
}

// ── Middleware ────────────────────────────────────────────────────────────────

type requestIDKey struct{}

// requestID honours an incoming X-Request-ID or mints one, and tags the
// request logger with it.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("req_id", id)
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			hlog.FromRequest(r).Error().
				Interface("panic", v).
				Bytes("stack", debug.Stack()).
				Msg("panic in request")
			jsonResponse(w, msgInternal, http.StatusInternalServerError)
		}()
		next.ServeHTTP(w, r)
	})
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// jsonResponse writes {"response": msg}. HTML is not escaped so the fragment
// travels as produced.
func jsonResponse(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(map[string]string{"response": msg})
}

func jsonOK(w http.ResponseWriter, v any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
