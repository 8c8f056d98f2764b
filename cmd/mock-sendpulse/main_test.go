package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"formsync/internal/config"
	"formsync/internal/domain"
	"formsync/internal/providers/sendpulse"
)

func startMock(t *testing.T, outcomes map[string]string) *httptest.Server {
	t.Helper()
	return startMockWithDefault(t, "961879", outcomes)
}

func startMockWithDefault(t *testing.T, defaultBook string, outcomes map[string]string) *httptest.Server {
	t.Helper()
	s := newServer(config.MockConfig{
		ClientID:             "id",
		ClientSecret:         "secret",
		ExpiresIn:            3600,
		DefaultAddressBookID: defaultBook,
		Outcomes:             outcomes,
	})
	ts := httptest.NewServer(s.router())
	t.Cleanup(ts.Close)
	return ts
}

func client(t *testing.T, baseURL, secret string) *sendpulse.Client {
	t.Helper()
	c, err := sendpulse.New(sendpulse.Options{
		BaseURL:              baseURL,
		ClientID:             "id",
		ClientSecret:         secret,
		DefaultAddressBookID: "961879",
		SafetyMargin:         300 * time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestClientAgainstMock(t *testing.T) {
	ts := startMock(t, nil)
	c := client(t, ts.URL, "secret")
	ctx := context.Background()

	contact := domain.NewContact("a@b.com")
	contact.Set("firstname", "A")
	if _, err := c.AddContact(ctx, contact, "963387"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := c.UnsubscribeContact(ctx, contact, "963387"); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}

	raw, err := c.GetAddressBooks(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var books []addressBook
	if err := json.Unmarshal(raw, &books); err != nil {
		t.Fatalf("decode: %v", err)
	}
	found := false
	for _, b := range books {
		if b.ID == "963387" {
			found = b.AllEmailQty == 1
		}
	}
	if !found {
		t.Fatalf("expected one contact in 963387, got %+v", books)
	}
}

func TestMockFallbackToDefault(t *testing.T) {
	ts := startMock(t, map[string]string{"963387": "bad_request"})
	c := client(t, ts.URL, "secret")

	if _, err := c.AddContact(context.Background(), domain.NewContact("a@b.com"), "963387"); err != nil {
		t.Fatalf("fallback should have succeeded: %v", err)
	}
}

func TestMockRejectsBadCredentials(t *testing.T) {
	ts := startMock(t, nil)
	c := client(t, ts.URL, "wrong")

	_, err := c.AddContact(context.Background(), domain.NewContact("a@b.com"), "")
	if !errors.Is(err, sendpulse.ErrAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
	if sendpulse.HTTPStatus(err) != 401 {
		t.Fatalf("status = %d", sendpulse.HTTPStatus(err))
	}
}

func TestMockRateLimitOnDefault(t *testing.T) {
	ts := startMock(t, map[string]string{"961879": "rate_limit"})
	c := client(t, ts.URL, "secret")

	_, err := c.AddContact(context.Background(), domain.NewContact("a@b.com"), "")
	if sendpulse.HTTPStatus(err) != 429 {
		t.Fatalf("expected 429, got %v", err)
	}
}

func TestMockListsConfiguredDefaultBook(t *testing.T) {
	ts := startMockWithDefault(t, "42", nil)
	c := client(t, ts.URL, "secret")

	raw, err := c.GetAddressBooks(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var books []addressBook
	if err := json.Unmarshal(raw, &books); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, b := range books {
		if b.ID == "961879" {
			t.Fatalf("hardcoded default listed: %+v", books)
		}
		if b.ID == "42" && b.Name == "My emails" {
			return
		}
	}
	t.Fatalf("configured default book missing: %+v", books)
}
