package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Fixed identifiers for answer service fixtures
const (
	SessionID1 = "6f1c2a3b-4d5e-4f60-8a7b-9c0d1e2f3a4b"
	SessionID2 = "0b9e8d7c-6b5a-4c3d-9e2f-1a0b9c8d7e6f"
	ThreadID1  = "2d4c6e8f-1a3b-4c5d-8e7f-9a0b1c2d3e4f"
	ThreadID2  = "7a6b5c4d-3e2f-4a1b-b0c9-d8e7f6a5b4c3"
)

// AnswerServer is a fake answer service that records every request body
type AnswerServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []map[string]interface{}
	headers  []http.Header
	respond  http.HandlerFunc
}

// NewAnswerServer starts a fake service answering with respond. Requests are
// decoded and recorded before respond runs.
func NewAnswerServer(t *testing.T, respond http.HandlerFunc) *AnswerServer {
	t.Helper()
	s := &AnswerServer{respond: respond}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *AnswerServer) handle(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	var body map[string]interface{}
	_ = json.Unmarshal(data, &body)

	s.mu.Lock()
	s.requests = append(s.requests, body)
	s.headers = append(s.headers, r.Header.Clone())
	respond := s.respond
	s.mu.Unlock()

	respond(w, r)
}

// SetResponder swaps the handler used for subsequent requests
func (s *AnswerServer) SetResponder(respond http.HandlerFunc) {
	s.mu.Lock()
	s.respond = respond
	s.mu.Unlock()
}

// Requests returns the decoded request bodies received so far
func (s *AnswerServer) Requests() []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]interface{}, len(s.requests))
	copy(out, s.requests)
	return out
}

// Headers returns the request headers received so far
func (s *AnswerServer) Headers() []http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]http.Header, len(s.headers))
	copy(out, s.headers)
	return out
}

// JSONResponder replies with status and v encoded as JSON
func JSONResponder(status int, v interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
}

// RawResponder replies with status and a literal body
func RawResponder(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

// AnswerPayload builds a successful answer service reply
func AnswerPayload(sessionID, threadID, answer string, sources ...map[string]interface{}) map[string]interface{} {
	payload := map[string]interface{}{
		"ok":             true,
		"session_id":     sessionID,
		"thread_id":      threadID,
		"answer":         answer,
		"interaction_id": "interaction-1",
	}
	if len(sources) > 0 {
		list := make([]interface{}, len(sources))
		for i, src := range sources {
			list[i] = src
		}
		payload["sources"] = list
	}
	return payload
}
