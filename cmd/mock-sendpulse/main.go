package main

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"

	"formsync/internal/config"
	"formsync/internal/formmap"
	"formsync/internal/logging"
)

type tokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type emailsRequest struct {
	Emails []json.RawMessage `json:"emails"`
}

type addressBook struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AllEmailQty int    `json:"all_email_qty"`
}

type server struct {
	cfg config.MockConfig

	seq    uint64
	mu     sync.Mutex
	tokens map[string]time.Time
	counts map[string]int
}

func main() {
	cfg, err := config.LoadMock()
	logging.Init("mock-sendpulse", cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		slog.Error("mock sendpulse config load failed", "err", err)
		os.Exit(1)
	}

	s := newServer(cfg)
	slog.Info("mock sendpulse listening", "port", cfg.Port, "outcomes", cfg.Outcomes)
	if err := http.ListenAndServe(":"+cfg.Port, s.router()); err != nil {
		slog.Error("mock sendpulse server failed", "err", err)
		os.Exit(1)
	}
}

func newServer(cfg config.MockConfig) *server {
	return &server{
		cfg:    cfg,
		tokens: make(map[string]time.Time),
		counts: make(map[string]int),
	}
}

func (s *server) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(loggingMiddleware)
	r.HandleFunc("/oauth/access_token", s.handleToken).Methods(http.MethodPost)

	api := r.NewRoute().Subrouter()
	api.Use(s.requireBearer)
	api.HandleFunc("/addressbooks", s.handleAddressBooks).Methods(http.MethodGet)
	api.HandleFunc("/addressbooks/{id}/emails", s.handleEmails).Methods(http.MethodPost)
	api.HandleFunc("/addressbooks/{id}/emails/unsubscribe", s.handleEmails).Methods(http.MethodPost)
	return r
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		slog.Info("mock sendpulse request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GrantType != "client_credentials" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":             "unsupported_grant_type",
			"error_description": "The authorization grant type is not supported",
		})
		return
	}
	if !equal(req.ClientID, s.cfg.ClientID) || !equal(req.ClientSecret, s.cfg.ClientSecret) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error":             "invalid_client",
			"error_description": "Client authentication failed",
		})
		return
	}

	tok := fmt.Sprintf("mock_tok_%d", atomic.AddUint64(&s.seq, 1))
	s.mu.Lock()
	s.tokens[tok] = time.Now().Add(time.Duration(s.cfg.ExpiresIn) * time.Second)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": tok,
		"token_type":   "Bearer",
		"expires_in":   s.cfg.ExpiresIn,
	})
}

func (s *server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		exp, known := s.tokens[tok]
		s.mu.Unlock()
		if !ok || !known || time.Now().After(exp) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) handleAddressBooks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := map[string]bool{}
	books := []addressBook{}
	add := func(id, name string) {
		if seen[id] {
			return
		}
		seen[id] = true
		books = append(books, addressBook{ID: id, Name: name, AllEmailQty: s.counts[id]})
	}
	add(s.cfg.DefaultAddressBookID, formmap.DefaultTitle)
	for _, m := range formmap.FormAddressBooks {
		add(m.ID, m.Title)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })
	writeJSON(w, http.StatusOK, books)
}

// handleEmails serves both add and unsubscribe; the outcome is chosen by the
// address book id from MOCK_OUTCOMES.
func (s *server) handleEmails(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req emailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Emails) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error_code": 400, "message": "Emails are required"})
		return
	}

	switch outcome := s.outcomeFor(id); outcome {
	case "bad_request":
		writeJSON(w, http.StatusBadRequest, map[string]any{"error_code": 213, "message": "Book not found"})
	case "rate_limit":
		writeJSON(w, http.StatusTooManyRequests, map[string]any{"error_code": 429, "message": "Too many requests"})
	case "server_error":
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error_code": 500, "message": "Internal server error"})
	case "unauthorized":
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
	default:
		if !strings.HasSuffix(r.URL.Path, "/unsubscribe") {
			s.mu.Lock()
			s.counts[id] += len(req.Emails)
			s.mu.Unlock()
		}
		writeJSON(w, http.StatusOK, map[string]bool{"result": true})
	}
}

func (s *server) outcomeFor(id string) string {
	if o, ok := s.cfg.Outcomes[id]; ok {
		return strings.ToLower(strings.TrimSpace(o))
	}
	return "ok"
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
