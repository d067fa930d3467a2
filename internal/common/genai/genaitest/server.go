// Package genaitest runs a fake generateContent endpoint for handler tests.
package genaitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"muse-workers/internal/common/genai"
	"muse-workers/internal/common/logger"
	"muse-workers/internal/common/resilient"
)

// Responder returns the HTTP status and the model text for one request.
type Responder func(req genai.GenerateRequest) (int, string)

type Server struct {
	mu       sync.Mutex
	requests []genai.GenerateRequest
}

// Reply answers every request with 200 and text.
func Reply(text string) Responder {
	return func(genai.GenerateRequest) (int, string) { return http.StatusOK, text }
}

// Status answers every request with an empty body and the given status.
func Status(code int) Responder {
	return func(genai.GenerateRequest) (int, string) { return code, "" }
}

// NewClient starts the fake endpoint and returns a client with a single retry
// and a millisecond backoff.
func NewClient(t testing.TB, respond Responder) (*genai.Client, *Server) {
	t.Helper()
	s := &Server{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req genai.GenerateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		s.mu.Lock()
		s.requests = append(s.requests, req)
		s.mu.Unlock()

		status, text := respond(req)
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte(Body(text)))
		}
	}))
	t.Cleanup(srv.Close)

	log := logger.NewTestLogger(t)
	rc := resilient.NewClient(srv.Client(), log, nil)
	return genai.NewClient(genai.Config{
		BaseURL: srv.URL,
		Model:   "test-model",
		APIKey:  "test-key",
		Policy:  resilient.Policy{MaxRetries: 1, InitialBackoff: time.Millisecond},
	}, rc, nil, log), s
}

// Body wraps text in a generateContent response envelope.
func Body(text string) string {
	b, _ := json.Marshal(genai.GenerateResponse{
		Candidates: []genai.Candidate{{
			Content:      genai.Content{Role: "model", Parts: []genai.Part{{Text: text}}},
			FinishReason: "STOP",
		}},
	})
	return string(b)
}

func (s *Server) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// LastPrompt returns the concatenated text parts of the most recent request.
func (s *Server) LastPrompt() string {
	req, ok := s.Last()
	if !ok {
		return ""
	}
	var sb strings.Builder
	for _, c := range req.Contents {
		for _, p := range c.Parts {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

func (s *Server) Last() (genai.GenerateRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return genai.GenerateRequest{}, false
	}
	return s.requests[len(s.requests)-1], true
}
