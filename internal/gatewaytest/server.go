// Package gatewaytest provides an in-memory fake of the platform's
// credit cap API for tests.
package gatewaytest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
)

// User is one entry in the fake analytics listing.
type User struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Server simulates the platform's GetUsageConfig, UsageConfig and
// UserPageAnalytics endpoints against in-memory state.
type Server struct {
	server *httptest.Server

	mu           sync.Mutex
	serviceKey   string
	orgCap       *int
	userCaps     map[string]int
	users        []User
	requestCount int
	failures     map[string]int
}

// New creates a fake platform accepting the given service key.
func New(serviceKey string) *Server {
	s := &Server{
		serviceKey: serviceKey,
		userCaps:   make(map[string]int),
		failures:   make(map[string]int),
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.handler))
	return s
}

// URL returns the fake platform's base URL.
func (s *Server) URL() string {
	return s.server.URL
}

// Close shuts the fake platform down.
func (s *Server) Close() {
	s.server.Close()
}

// SetUserCap seeds an individual cap.
func (s *Server) SetUserCap(email string, cap int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userCaps[email] = cap
}

// UserCap reports the cap currently stored for a user.
func (s *Server) UserCap(email string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cap, ok := s.userCaps[email]
	return cap, ok
}

// SetOrgCap seeds the organization-wide cap.
func (s *Server) SetOrgCap(cap int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orgCap = &cap
}

// AddUser adds a user to the analytics listing.
func (s *Server) AddUser(name, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, User{Name: name, Email: email})
}

// FailNext makes the next n requests to a path return HTTP 500.
func (s *Server) FailNext(path string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = n
}

// RequestCount returns the number of requests received.
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requestCount
}

type request struct {
	ServiceKey          string `json:"service_key"`
	TeamLevel           bool   `json:"team_level"`
	UserEmail           string `json:"user_email"`
	SetAddOnCreditCap   *int   `json:"set_add_on_credit_cap"`
	ClearAddOnCreditCap bool   `json:"clear_add_on_credit_cap"`
}

func (s *Server) handler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requestCount++
	if remaining := s.failures[r.URL.Path]; remaining > 0 {
		s.failures[r.URL.Path] = remaining - 1
		s.mu.Unlock()
		http.Error(w, "simulated outage", http.StatusInternalServerError)
		return
	}
	s.mu.Unlock()

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if req.ServiceKey != s.serviceKey {
		http.Error(w, "invalid service key", http.StatusUnauthorized)
		return
	}

	switch r.URL.Path {
	case "/api/v1/GetUsageConfig":
		s.handleGet(w, req)
	case "/api/v1/UsageConfig":
		s.handleSet(w, req)
	case "/api/v1/UserPageAnalytics":
		s.handleAnalytics(w)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleGet(w http.ResponseWriter, req request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := make(map[string]interface{})
	switch {
	case req.TeamLevel:
		if s.orgCap != nil {
			resp["addOnCreditCap"] = *s.orgCap
		}
	case req.UserEmail != "":
		if cap, ok := s.userCaps[req.UserEmail]; ok {
			resp["addOnCreditCap"] = cap
		}
	default:
		http.Error(w, "no target specified", http.StatusBadRequest)
		return
	}
	writeJSON(w, resp)
}

func (s *Server) handleSet(w http.ResponseWriter, req request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case req.TeamLevel && req.ClearAddOnCreditCap:
		s.orgCap = nil
	case req.TeamLevel && req.SetAddOnCreditCap != nil:
		cap := *req.SetAddOnCreditCap
		s.orgCap = &cap
	case req.UserEmail != "" && req.ClearAddOnCreditCap:
		delete(s.userCaps, req.UserEmail)
	case req.UserEmail != "" && req.SetAddOnCreditCap != nil:
		s.userCaps[req.UserEmail] = *req.SetAddOnCreditCap
	default:
		http.Error(w, "no action specified", http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]interface{}{})
}

func (s *Server) handleAnalytics(w http.ResponseWriter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, map[string]interface{}{"userTableStats": s.users})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
