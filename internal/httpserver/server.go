package httpserver

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	Mux *mux.Router
}

// New builds the router shared by both binaries: request ids, access logs and
// per-route counters on every route, plus the /metrics endpoint.
func New(requests *prometheus.CounterVec) *Server {
	m := mux.NewRouter()
	m.Use(RequestID, Logging, Metrics(requests))
	m.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return &Server{Mux: m}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// detach lets vendor calls run to completion when the caller disconnects; the
// HTTP client timeout still bounds them.
func detach(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}
