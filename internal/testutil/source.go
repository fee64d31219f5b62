// A stand-in for the remote schedule API, shared by collector and API tests.

package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// MockSource serves /Channels and /Channel/{id}/{date}. Unconfigured
// channel/date pairs answer with an empty array.
type MockSource struct {
	server   *httptest.Server
	mu       sync.Mutex
	channels string
	programs map[string]string
	statuses map[string]int
	requests []string
}

// NewMockSource starts a mock source that is closed when the test ends.
func NewMockSource(t *testing.T) *MockSource {
	t.Helper()
	m := &MockSource{
		channels: "[]",
		programs: make(map[string]string),
		statuses: make(map[string]int),
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.serve))
	t.Cleanup(m.server.Close)
	return m
}

// URL is the base URL to hand to telkussa.New.
func (m *MockSource) URL() string {
	return m.server.URL
}

// SetChannels sets the JSON body returned by /Channels.
func (m *MockSource) SetChannels(body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels = body
}

// SetPrograms sets the JSON body returned for one channel and date.
func (m *MockSource) SetPrograms(channelID, date, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.programs[channelID+"/"+date] = body
}

// FailPrograms makes one channel and date answer with status.
func (m *MockSource) FailPrograms(channelID, date string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[channelID+"/"+date] = status
}

// FailChannels makes /Channels answer with status.
func (m *MockSource) FailChannels(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses["channels"] = status
}

// Requests returns the request paths served so far, in order.
func (m *MockSource) Requests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.requests...)
}

func (m *MockSource) serve(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, r.URL.Path)

	w.Header().Set("Content-Type", "application/json")
	if r.URL.Path == "/Channels" {
		if status, ok := m.statuses["channels"]; ok {
			w.WriteHeader(status)
			return
		}
		fmt.Fprint(w, m.channels)
		return
	}

	key, ok := strings.CutPrefix(r.URL.Path, "/Channel/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if status, ok := m.statuses[key]; ok {
		w.WriteHeader(status)
		return
	}
	if body, ok := m.programs[key]; ok {
		fmt.Fprint(w, body)
		return
	}
	fmt.Fprint(w, "[]")
}
