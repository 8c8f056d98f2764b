package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"formsync/internal/domain"
	"formsync/internal/fields"
)

type ContactClient interface {
	AddContact(ctx context.Context, contact domain.ContactData, addressBookID string) (json.RawMessage, error)
	UnsubscribeContact(ctx context.Context, contact domain.ContactData, addressBookID string) (json.RawMessage, error)
}

type AddressBookResolver interface {
	Resolve(formID string) domain.AddressBookMapping
}

type Outcome string

const (
	OutcomeSubscribed   Outcome = "subscribed"
	OutcomeUnsubscribed Outcome = "unsubscribed"
)

type FormResult struct {
	Outcome       Outcome
	AddressBookID string
	Contact       domain.ContactData
	Data          json.RawMessage
}

// FormService mirrors one form submission into the mailing list its form maps to.
type FormService struct {
	Client ContactClient
	Books  AddressBookResolver
}

// HandleSubmission rejects submissions without privacy consent before any
// vendor call, then subscribes the contact, or unsubscribes it when marketing
// consent was declined.
func (s *FormService) HandleSubmission(ctx context.Context, form fields.FormData, formID string) (FormResult, error) {
	if v, _ := form.Get(domain.KeyPrivacyPolicy); v.IsFalse() {
		slog.Info("privacy policy not accepted, contact not saved", "form_id", formID)
		return FormResult{}, domain.ErrPrivacyNotAccepted
	}

	contact, err := fields.ExtractContactData(form)
	if err != nil {
		return FormResult{}, err
	}
	first, _ := contact.Get(domain.KeyFirstName)
	last, _ := contact.Get(domain.KeyLastName)
	slog.Info("extracted contact data",
		"email", contact.Email,
		"first_name", first,
		"last_name", last,
		"total_fields", contact.Len(),
	)

	// no formId: let the client target its default book
	addressBookID := ""
	if formID != "" {
		addressBookID = s.Books.Resolve(formID).ID
	}

	if v, _ := form.Get(domain.KeyMarketing); v.IsFalse() {
		slog.Info("marketing consent declined, unsubscribing contact", "address_book_id", addressBookID)
		data, err := s.Client.UnsubscribeContact(ctx, contact, addressBookID)
		if err != nil {
			return FormResult{}, err
		}
		return FormResult{Outcome: OutcomeUnsubscribed, AddressBookID: addressBookID, Contact: contact, Data: data}, nil
	}

	data, err := s.Client.AddContact(ctx, contact, addressBookID)
	if err != nil {
		return FormResult{}, err
	}
	slog.Info("contact added to sendpulse", "address_book_id", addressBookID)
	return FormResult{Outcome: OutcomeSubscribed, AddressBookID: addressBookID, Contact: contact, Data: data}, nil
}
