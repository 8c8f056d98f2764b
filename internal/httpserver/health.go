package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

const readyTimeout = 2 * time.Second

// Pinger reports whether the vendor session is usable; sendpulse.Client
// satisfies it by obtaining an access token.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type healthStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func Healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthStatus{Status: "ok"})
	}
}

// Readyz answers 200 once the vendor hands out a token within timeout, 503
// otherwise.
func Readyz(vendor Pinger, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		if err := vendor.Ping(ctx); err != nil {
			slog.Warn("vendor not ready", "err", err, "request_id", RequestIDFrom(r.Context()))
			writeJSON(w, http.StatusServiceUnavailable, healthStatus{Status: "not ready", Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, healthStatus{Status: "ready"})
	}
}

func RegisterHealth(m *mux.Router, vendor Pinger) {
	m.HandleFunc("/healthz", Healthz()).Methods(http.MethodGet)
	m.HandleFunc("/readyz", Readyz(vendor, readyTimeout)).Methods(http.MethodGet)
}
