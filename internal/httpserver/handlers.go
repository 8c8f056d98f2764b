package httpserver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"formsync/internal/domain"
	"formsync/internal/service"
)

// API is the key-protected REST surface used by internal callers.
type API struct {
	Svc *service.SubscriptionService
	Key string
}

func (a *API) Register(m *mux.Router) {
	v1 := m.PathPrefix("/v1").Subrouter()
	v1.Use(APIKey(a.Key))
	v1.HandleFunc("/subscribe", a.handleSubscribe).Methods(http.MethodPost)
	v1.HandleFunc("/unsubscribe", a.handleUnsubscribe).Methods(http.MethodPost)
	v1.HandleFunc("/addressbooks", a.handleAddressBooks).Methods(http.MethodGet)
	v1.HandleFunc("/addressbooks/test", a.handleTestContact).Methods(http.MethodPost)
}

func (a *API) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req domain.EmailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, domain.APIResponse{Error: ErrInvalidJSON})
		return
	}
	out, err := a.Svc.Subscribe(detach(r), req)
	if err != nil {
		a.fail(w, r, "subscribe", err, "address_book_id", req.AddressBookID, "emails", len(req.Emails))
		return
	}
	writeJSON(w, http.StatusOK, domain.APIResponse{
		Success: true,
		Message: fmt.Sprintf("Successfully added %d email(s)", len(req.Emails)),
		Data:    out,
	})
}

func (a *API) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	var req domain.EmailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, domain.APIResponse{Error: ErrInvalidJSON})
		return
	}
	out, err := a.Svc.Unsubscribe(detach(r), req)
	if err != nil {
		a.fail(w, r, "unsubscribe", err, "address_book_id", req.AddressBookID, "emails", len(req.Emails))
		return
	}
	writeJSON(w, http.StatusOK, domain.APIResponse{
		Success: true,
		Message: fmt.Sprintf("Successfully unsubscribed %d email(s)", len(req.Emails)),
		Data:    out,
	})
}

func (a *API) handleAddressBooks(w http.ResponseWriter, r *http.Request) {
	out, err := a.Svc.AddressBooks(detach(r))
	if err != nil {
		a.fail(w, r, "list address books", err)
		return
	}
	writeJSON(w, http.StatusOK, domain.APIResponse{
		Success: true,
		Message: "Address books retrieved successfully",
		Data:    out,
	})
}

func (a *API) handleTestContact(w http.ResponseWriter, r *http.Request) {
	var req domain.TestContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, domain.APIResponse{Error: ErrInvalidJSON})
		return
	}
	out, err := a.Svc.AddTestContact(detach(r), req)
	if err != nil {
		a.fail(w, r, "test contact", err, "address_book_id", req.AddressBookID)
		return
	}
	writeJSON(w, http.StatusOK, domain.APIResponse{
		Success: true,
		Message: "Contact successfully added to address book " + req.AddressBookID,
		Data:    out,
	})
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, op string, err error, attrs ...any) {
	status := statusFor(err)
	attrs = append(attrs, "err", err, "status", status, "request_id", RequestIDFrom(r.Context()))
	slog.Error(op+" failed", attrs...)
	writeJSON(w, status, domain.APIResponse{Error: err.Error()})
}
