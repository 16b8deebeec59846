// Package testutil provides helpers for SDK tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
)

// ScriptStep describes one canned response.
type ScriptStep struct {
	Status int
	Body   string
}

// ScriptServer is an httptest server that replays canned JSON responses in
// order. Once the script is exhausted the final step repeats, which makes it
// convenient for poller tests ("two OKs then 401 forever").
type ScriptServer struct {
	*httptest.Server

	mu    sync.Mutex
	steps []ScriptStep
	calls int
}

// NewScriptServer returns a server replaying steps. At least one step is
// required.
func NewScriptServer(steps []ScriptStep) *ScriptServer {
	s := &ScriptServer{steps: steps}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Calls returns how many requests the server has seen.
func (s *ScriptServer) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *ScriptServer) handle(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	idx := s.calls
	if idx >= len(s.steps) {
		idx = len(s.steps) - 1
	}
	step := s.steps[idx]
	s.calls++
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	status := step.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	//nolint:errcheck // test helper
	_, _ = w.Write([]byte(step.Body))
}
