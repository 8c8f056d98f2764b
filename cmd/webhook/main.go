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
	"formsync/internal/formmap"
	"formsync/internal/httpserver"
	"formsync/internal/logging"
	"formsync/internal/observability"
	"formsync/internal/providers/sendpulse"
	"formsync/internal/service"
	"formsync/internal/webflow"
)

func main() {
	cfg, err := config.LoadWebhook()
	logging.Init("webhook", cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		slog.Error("webhook config load failed", "err", err)
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
		slog.Error("webhook sendpulse client init failed", "err", err)
		os.Exit(1)
	}
	if cfg.WebhookSecret == "" {
		slog.Warn("webhook secret not configured, signatures are not verified")
	}

	observability.Register(prometheus.DefaultRegisterer)

	s := httpserver.New(observability.APIRequests)
	wh := &httpserver.Webhook{
		Forms: &service.FormService{
			Client: client,
			Books:  formmap.NewResolver(client.DefaultAddressBookID()),
		},
		Verifier: webflow.Verifier{Secret: cfg.WebhookSecret},
	}
	wh.Register(s.Mux)
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
		slog.Info("webhook shutdown", "signal", sig.String())
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("webhook listening", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("webhook server failed", "err", err)
		os.Exit(1)
	}
}
