package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"formsync/internal/domain"
)

type AddressBookClient interface {
	ContactClient
	GetAddressBooks(ctx context.Context) (json.RawMessage, error)
}

// SubscriptionService backs the REST API used by internal callers.
type SubscriptionService struct {
	Client AddressBookClient
}

// Subscribe adds every entry to the address book, one call per entry, and
// stops at the first failure.
func (s *SubscriptionService) Subscribe(ctx context.Context, req domain.EmailsRequest) ([]json.RawMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	results := make([]json.RawMessage, 0, len(req.Emails))
	for _, e := range req.Emails {
		out, err := s.Client.AddContact(ctx, contactFromEntry(e), req.AddressBookID)
		if err != nil {
			return results, fmt.Errorf("subscribe %s: %w", e.Email, err)
		}
		results = append(results, out)
	}
	return results, nil
}

// Unsubscribe first subscribes every entry, since the vendor only unsubscribes
// known contacts, then unsubscribes them. Nothing is rolled back on failure.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, req domain.EmailsRequest) ([]json.RawMessage, error) {
	if _, err := s.Subscribe(ctx, req); err != nil {
		return nil, err
	}
	results := make([]json.RawMessage, 0, len(req.Emails))
	for _, e := range req.Emails {
		out, err := s.Client.UnsubscribeContact(ctx, contactFromEntry(e), req.AddressBookID)
		if err != nil {
			return results, fmt.Errorf("unsubscribe %s: %w", e.Email, err)
		}
		results = append(results, out)
	}
	return results, nil
}

func (s *SubscriptionService) AddressBooks(ctx context.Context) (json.RawMessage, error) {
	return s.Client.GetAddressBooks(ctx)
}

// AddTestContact checks that an address book accepts contacts.
func (s *SubscriptionService) AddTestContact(ctx context.Context, req domain.TestContactRequest) (json.RawMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	contact := domain.NewContact(req.Email)
	contact.Set("name", "Test Contact")
	contact.Set("source", "api_test")
	return s.Client.AddContact(ctx, contact, req.AddressBookID)
}

func contactFromEntry(e domain.EmailEntry) domain.ContactData {
	c := domain.NewContact(e.Email)
	for k, v := range e.Variables {
		if s, ok := stringify(v); ok {
			c.Set(k, s)
		}
	}
	return c
}

// stringify renders a decoded JSON value as a variable; null is skipped.
func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		return t.String(), true
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t), true
		}
		return string(b), true
	}
}
