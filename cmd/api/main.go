package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"formsync/internal/config"
	"formsync/internal/httpserver"
	"formsync/internal/logging"
	"formsync/internal/observability"
	"formsync/internal/providers/sendpulse"
	"formsync/internal/service"
)

func main() {
	cfg, err := config.LoadAPI()
	logging.Init("api", cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		slog.Error("api config load failed", "err", err)
		os.Exit(1)
	}

	client, err := sendpulse.New(sendpulse.Options{
		BaseURL:              cfg.SendPulseBaseURL,
		ClientID:             cfg.SendPulseClientID,
		ClientSecret:         cfg.SendPulseSecret,
		DefaultAddressBookID: cfg.DefaultAddressBookID,
		SafetyMargin:         cfg.SafetyMargin(),
		HTTP:                 &http.Client{Timeout: cfg.HTTPTimeout},
		Limiter:              rate.NewLimiter(rate.Limit(cfg.SendPulseRPS), cfg.SendPulseBurst),
		Breaker:              sendpulse.NewBreaker(cfg.BreakerFailures, cfg.BreakerTimeout),
	})
	if err != nil {
		slog.Error("api sendpulse client init failed", "err", err)
		os.Exit(1)
	}

	observability.Register(prometheus.DefaultRegisterer)

	s := httpserver.New(observability.APIRequests)
	api := &httpserver.API{
		Svc: &service.SubscriptionService{Client: client},
		Key: cfg.APIKey,
	}
	api.Register(s.Mux)
	httpserver.RegisterHealth(s.Mux, client)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.Mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("api shutdown", "signal", sig.String())
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("api listening", "port", cfg.Port, "default_address_book_id", client.DefaultAddressBookID())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("api server failed", "err", err)
		os.Exit(1)
	}
}
