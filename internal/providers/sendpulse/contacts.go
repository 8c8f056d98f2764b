package sendpulse

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"formsync/internal/domain"
	"formsync/internal/observability"
)

const (
	opAddressBooks = "get_address_books"
	opAddContact   = "add_contact"
	opUnsubscribe  = "unsubscribe_contact"
)

type contactEntry struct {
	Email     string            `json:"email"`
	Variables map[string]string `json:"variables"`
}

type addContactsRequest struct {
	Emails []contactEntry `json:"emails"`
}

type unsubscribeEntry struct {
	Email string `json:"email"`
}

type unsubscribeRequest struct {
	Emails []unsubscribeEntry `json:"emails"`
}

// GetAddressBooks returns the vendor's address book listing as is.
func (c *Client) GetAddressBooks(ctx context.Context) (json.RawMessage, error) {
	return c.authorized(ctx, opAddressBooks, http.MethodGet, "/addressbooks", nil)
}

// AddContact adds one contact to addressBookID (the default book when empty).
// Every attribute except the email and the consent flags is sent as a variable.
func (c *Client) AddContact(ctx context.Context, contact domain.ContactData, addressBookID string) (json.RawMessage, error) {
	target := c.target(addressBookID)
	body := addContactsRequest{Emails: []contactEntry{{
		Email:     contact.Email,
		Variables: contact.Variables(),
	}}}
	slog.Info("adding contact to address book",
		"address_book_id", target,
		"variables", domain.SortedKeys(body.Emails[0].Variables),
	)
	return c.withFallback(ctx, opAddContact, target, func(ctx context.Context, book string) (json.RawMessage, error) {
		return c.authorized(ctx, opAddContact, http.MethodPost, "/addressbooks/"+url.PathEscape(book)+"/emails", body)
	})
}

// UnsubscribeContact unsubscribes the contact's email; no variables are sent.
func (c *Client) UnsubscribeContact(ctx context.Context, contact domain.ContactData, addressBookID string) (json.RawMessage, error) {
	target := c.target(addressBookID)
	body := unsubscribeRequest{Emails: []unsubscribeEntry{{Email: contact.Email}}}
	slog.Info("unsubscribing contact from address book", "address_book_id", target)
	return c.withFallback(ctx, opUnsubscribe, target, func(ctx context.Context, book string) (json.RawMessage, error) {
		return c.authorized(ctx, opUnsubscribe, http.MethodPost, "/addressbooks/"+url.PathEscape(book)+"/emails/unsubscribe", body)
	})
}

func (c *Client) target(addressBookID string) string {
	if addressBookID == "" {
		return c.defaultBook
	}
	return addressBookID
}

// withFallback retries a failed call once against the default address book.
// A failure on the default book, or on the fallback itself, is final.
func (c *Client) withFallback(ctx context.Context, op, target string, call func(ctx context.Context, book string) (json.RawMessage, error)) (json.RawMessage, error) {
	out, err := call(ctx, target)
	if err == nil {
		return out, nil
	}
	slog.Error("address book call failed", "operation", op, "address_book_id", target, "err", err)
	if target == c.defaultBook {
		return nil, err
	}

	slog.Warn("address book failed, using default",
		"operation", op,
		"address_book_id", target,
		"default_address_book_id", c.defaultBook,
	)
	observability.AddressBookFallbacks.WithLabelValues(op).Inc()
	out, fbErr := call(ctx, c.defaultBook)
	if fbErr != nil {
		return nil, fmt.Errorf("default address book %s: %w (after address book %s: %w)", c.defaultBook, fbErr, target, err)
	}
	return out, nil
}
