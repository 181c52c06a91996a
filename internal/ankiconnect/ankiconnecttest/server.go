// Package ankiconnecttest provides an in-process AnkiConnect stub for tests.
package ankiconnecttest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Request is one decoded request received by the stub.
type Request struct {
	Action  string                     `json:"action"`
	Version int                        `json:"version"`
	Params  map[string]json.RawMessage `json:"params"`
}

// Param decodes the named param into out, failing the test on error.
func (r Request) Param(t *testing.T, name string, out any) {
	t.Helper()
	raw, ok := r.Params[name]
	if !ok {
		t.Fatalf("request %s has no param %q", r.Action, name)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("failed to decode param %q of %s: %v", name, r.Action, err)
	}
}

// HandlerFunc answers an action with a result value, or an error message
// that is put in the envelope's "error" field.
type HandlerFunc func(req Request) (result any, errMsg string)

// Server is an AnkiConnect stub backed by httptest.
type Server struct {
	*httptest.Server

	t        *testing.T
	mu       sync.Mutex
	handlers map[string]HandlerFunc
	requests []Request
	status   int
	rawBody  []byte
}

// NewServer starts a stub and registers its shutdown with t.Cleanup.
func NewServer(t *testing.T) *Server {
	t.Helper()

	s := &Server{
		t:        t,
		handlers: make(map[string]HandlerFunc),
		status:   http.StatusOK,
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serveHTTP))
	t.Cleanup(s.Close)
	return s
}

// Handle registers fn for action.
func (s *Server) Handle(action string, fn HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[action] = fn
}

// Result registers a fixed result for action.
func (s *Server) Result(action string, result any) {
	s.Handle(action, func(Request) (any, string) { return result, "" })
}

// FailWithStatus makes every request answer with the given HTTP status.
func (s *Server) FailWithStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// RespondRaw makes every request answer 200 with body verbatim.
func (s *Server) RespondRaw(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rawBody = []byte(body)
}

// Requests returns a copy of the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Actions returns the action names received so far, in order.
func (s *Server) Actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	actions := make([]string, len(s.requests))
	for i, r := range s.requests {
		actions[i] = r.Action
	}
	return actions
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	status := s.status
	rawBody := s.rawBody
	handler := s.handlers[req.Action]
	s.mu.Unlock()

	if status != http.StatusOK {
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if rawBody != nil {
		w.Write(rawBody)
		return
	}

	resp := map[string]any{"result": nil, "error": nil}
	if handler == nil {
		resp["error"] = "unsupported action"
	} else {
		result, errMsg := handler(req)
		resp["result"] = result
		if errMsg != "" {
			resp["error"] = errMsg
		}
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.t.Errorf("failed to encode stub response: %v", err)
	}
}
