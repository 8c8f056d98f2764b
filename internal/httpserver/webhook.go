package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"formsync/internal/domain"
	"formsync/internal/observability"
	"formsync/internal/service"
	"formsync/internal/webflow"
)

const maxWebhookBody = 1 << 20

// Webhook receives Webflow form submissions. Apart from a bad signature it
// always answers 200 so Webflow does not redeliver.
type Webhook struct {
	Forms    *service.FormService
	Verifier webflow.Verifier
}

func (wh *Webhook) Register(m *mux.Router) {
	m.HandleFunc("/v1/webhooks/form", wh.handleForm).Methods(http.MethodPost)
	m.HandleFunc("/v1/webhooks/subscription", wh.handleSubscription).Methods(http.MethodPost)
}

func (wh *Webhook) handleForm(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFrom(r.Context())
	body, err := readBody(w, r)
	if err != nil {
		slog.Error("webhook body unreadable", "err", err, "request_id", reqID)
		observability.WebhookEvents.WithLabelValues("bad_request").Inc()
		writeJSON(w, http.StatusOK, domain.APIResponse{Error: bodyError(err)})
		return
	}
	if !wh.Verifier.Verify(r.Header, body) {
		slog.Warn("webhook signature mismatch", "request_id", reqID)
		observability.WebhookEvents.WithLabelValues("forbidden").Inc()
		writeJSON(w, http.StatusForbidden, map[string]string{"error": ErrForbidden})
		return
	}

	sub, err := webflow.ParseSubmission(body)
	if err != nil {
		slog.Error("webhook payload is not a json object", "err", err, "request_id", reqID)
		observability.WebhookEvents.WithLabelValues("bad_request").Inc()
		writeJSON(w, http.StatusOK, domain.APIResponse{Error: err.Error()})
		return
	}
	slog.Info("form submission received", "form_id", sub.FormID, "fields", sub.Form.Names(), "request_id", reqID)

	res, err := wh.Forms.HandleSubmission(detach(r), sub.Form, sub.FormID)
	if err != nil {
		outcome := "error"
		switch {
		case errors.Is(err, domain.ErrPrivacyNotAccepted):
			outcome = "privacy_rejected"
		case errors.Is(err, domain.ErrValidation):
			outcome = "invalid"
		}
		slog.Error("form submission failed", "err", err, "form_id", sub.FormID, "outcome", outcome, "request_id", reqID)
		observability.WebhookEvents.WithLabelValues(outcome).Inc()
		writeJSON(w, http.StatusOK, domain.APIResponse{Error: formError(err)})
		return
	}

	observability.WebhookEvents.WithLabelValues(string(res.Outcome)).Inc()
	msg := "Contact subscribed successfully"
	if res.Outcome == service.OutcomeUnsubscribed {
		msg = "Contact unsubscribed from marketing communications"
	}
	writeJSON(w, http.StatusOK, domain.APIResponse{Success: true, Message: msg, Data: res.Data})
}

// formError keeps the sentence-case wording form editors see for the privacy rejection.
func formError(err error) string {
	if errors.Is(err, domain.ErrPrivacyNotAccepted) {
		return "Privacy policy must be accepted to process form submission"
	}
	return err.Error()
}

// handleSubscription acknowledges subscription events by echoing them back.
func (wh *Webhook) handleSubscription(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		slog.Error("subscription webhook body unreadable", "err", err, "request_id", RequestIDFrom(r.Context()))
		writeJSON(w, http.StatusOK, domain.APIResponse{Error: bodyError(err)})
		return
	}
	if !json.Valid(body) {
		slog.Error("subscription webhook payload is not json", "request_id", RequestIDFrom(r.Context()))
		writeJSON(w, http.StatusOK, map[string]string{"error": ErrWebhookProcessing})
		return
	}
	slog.Info("subscription webhook received", "bytes", len(body), "request_id", RequestIDFrom(r.Context()))
	writeJSON(w, http.StatusOK, json.RawMessage(body))
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
}

func bodyError(err error) string {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return ErrPayloadTooLarge
	}
	return ErrReadBody
}
