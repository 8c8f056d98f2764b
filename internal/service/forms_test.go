package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"formsync/internal/domain"
	"formsync/internal/fields"
	"formsync/internal/formmap"
	"formsync/internal/webflow"
)

type call struct {
	Op            string
	Contact       domain.ContactData
	AddressBookID string
}

type fakeClient struct {
	mu       sync.Mutex
	calls    []call
	addErr   error
	unsubErr error
}

func (f *fakeClient) record(op string, c domain.ContactData, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{Op: op, Contact: c, AddressBookID: id})
}

func (f *fakeClient) AddContact(ctx context.Context, c domain.ContactData, id string) (json.RawMessage, error) {
	f.record("add", c, id)
	if f.addErr != nil {
		return nil, f.addErr
	}
	return json.RawMessage(`{"result":true}`), nil
}

func (f *fakeClient) UnsubscribeContact(ctx context.Context, c domain.ContactData, id string) (json.RawMessage, error) {
	f.record("unsubscribe", c, id)
	if f.unsubErr != nil {
		return nil, f.unsubErr
	}
	return json.RawMessage(`{"result":true}`), nil
}

func (f *fakeClient) GetAddressBooks(ctx context.Context) (json.RawMessage, error) {
	f.record("list", domain.ContactData{}, "")
	return json.RawMessage(`[]`), nil
}

func submit(t *testing.T, svc *FormService, body string) (FormResult, error) {
	t.Helper()
	sub, err := webflow.ParseSubmission([]byte(body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return svc.HandleSubmission(context.Background(), sub.Form, sub.FormID)
}

func TestMarketingDeclinedUnsubscribesFromMappedBook(t *testing.T) {
	client := &fakeClient{}
	svc := &FormService{Client: client, Books: formmap.NewResolver("961879")}

	res, err := submit(t, svc, `{"payload":{"formId":"66d84d72633d424869c060b0","data":{"email":"a@b.com","firstname":"A","marketing":"false"}}}`)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Outcome != OutcomeUnsubscribed || res.AddressBookID != "963387" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(client.calls) != 1 || client.calls[0].Op != "unsubscribe" || client.calls[0].AddressBookID != "963387" {
		t.Fatalf("unexpected calls: %+v", client.calls)
	}
	if client.calls[0].Contact.Email != "a@b.com" {
		t.Fatalf("email = %q", client.calls[0].Contact.Email)
	}
}

func TestFlatSubmissionWithFormID(t *testing.T) {
	client := &fakeClient{}
	svc := &FormService{Client: client, Books: formmap.NewResolver("961879")}

	res, err := submit(t, svc, `{"email":"a@b.com","firstname":"A","marketing":"false","formId":"66d84d72633d424869c060b0"}`)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Outcome != OutcomeUnsubscribed || len(client.calls) != 1 || client.calls[0].AddressBookID != "963387" {
		t.Fatalf("unexpected result %+v calls %+v", res, client.calls)
	}
}

func TestMarketingDeclinedBooleanFalse(t *testing.T) {
	client := &fakeClient{}
	svc := &FormService{Client: client, Books: formmap.NewResolver("961879")}
	if _, err := submit(t, svc, `{"email":"a@b.com","marketing":false}`); err != nil {
		t.Fatal(err)
	}
	if client.calls[0].Op != "unsubscribe" || client.calls[0].AddressBookID != "" {
		t.Fatalf("unexpected calls: %+v", client.calls)
	}
}

func TestPrivacyDeclinedMakesNoVendorCall(t *testing.T) {
	for _, body := range []string{
		`{"email":"a@b.com","privacypolicy":"false"}`,
		`{"email":"a@b.com","privacypolicy":false}`,
		`{"privacypolicy":"false"}`,
	} {
		client := &fakeClient{}
		svc := &FormService{Client: client, Books: formmap.NewResolver("961879")}
		_, err := submit(t, svc, body)
		if !errors.Is(err, domain.ErrPrivacyNotAccepted) {
			t.Fatalf("%s: expected privacy error, got %v", body, err)
		}
		if len(client.calls) != 0 {
			t.Fatalf("%s: no vendor call expected, got %+v", body, client.calls)
		}
	}
}

func TestConsentingSubmissionIsAdded(t *testing.T) {
	client := &fakeClient{}
	svc := &FormService{Client: client, Books: formmap.NewResolver("961879")}

	res, err := submit(t, svc, `{"payload":{"formId":"66d84d72633d424869c060e9","data":{"email":"a@b.com","Company Name":"Acme","privacypolicy":"true","marketing":"true"}}}`)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeSubscribed || res.AddressBookID != "963390" {
		t.Fatalf("unexpected result: %+v", res)
	}
	got := client.calls[0]
	if got.Op != "add" {
		t.Fatalf("expected add, got %s", got.Op)
	}
	if v, _ := got.Contact.Get("company_name"); v != "Acme" {
		t.Fatalf("company_name = %q", v)
	}
}

func TestUnmappedFormUsesDefaultBook(t *testing.T) {
	client := &fakeClient{}
	svc := &FormService{Client: client, Books: formmap.NewResolver("961879")}

	if _, err := submit(t, svc, `{"payload":{"formId":"unknown","data":{"email":"a@b.com"}}}`); err != nil {
		t.Fatalf("unmapped form must not fail: %v", err)
	}
	if client.calls[0].AddressBookID != "961879" {
		t.Fatalf("expected default book, got %q", client.calls[0].AddressBookID)
	}
}

func TestMissingEmailIsValidationError(t *testing.T) {
	client := &fakeClient{}
	svc := &FormService{Client: client, Books: formmap.NewResolver("961879")}
	_, err := svc.HandleSubmission(context.Background(), fields.NewFormData(fields.Field{Name: "name", Value: fields.String("x")}), "")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(client.calls) != 0 {
		t.Fatalf("no vendor call expected")
	}
}

func TestVendorErrorPropagates(t *testing.T) {
	boom := errors.New("vendor down")
	client := &fakeClient{addErr: boom}
	svc := &FormService{Client: client, Books: formmap.NewResolver("961879")}
	if _, err := submit(t, svc, `{"email":"a@b.com"}`); !errors.Is(err, boom) {
		t.Fatalf("expected vendor error, got %v", err)
	}
}
