package webflow

import (
	"net/http"
	"strings"
	"testing"
)

func TestParseSubmissionEnvelope(t *testing.T) {
	body := `{"triggerType":"form_submission","payload":{"name":"Demo","formId":"66d84d72633d424869c060b0","data":{"email":"a@b.com","First Name":"A","marketing":"false"}}}`
	sub, err := ParseSubmission([]byte(body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sub.FormID != "66d84d72633d424869c060b0" {
		t.Fatalf("form id = %q", sub.FormID)
	}
	if got := strings.Join(sub.Form.Names(), ","); got != "email,First Name,marketing" {
		t.Fatalf("fields = %s", got)
	}
}

func TestParseSubmissionFlat(t *testing.T) {
	sub, err := ParseSubmission([]byte(`{"email":"a@b.com","privacypolicy":false}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sub.FormID != "" {
		t.Fatalf("flat payload has no form id, got %q", sub.FormID)
	}
	if v, _ := sub.Form.Get("privacypolicy"); !v.IsFalse() {
		t.Fatalf("privacypolicy should be false")
	}
}

func TestParseSubmissionFlatWithFormID(t *testing.T) {
	sub, err := ParseSubmission([]byte(`{"email":"a@b.com","firstname":"A","marketing":"false","formId":"66d84d72633d424869c060b0"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sub.FormID != "66d84d72633d424869c060b0" {
		t.Fatalf("form id = %q", sub.FormID)
	}
	if sub.Form.Len() != 4 {
		t.Fatalf("formId should remain a field, got %v", sub.Form.Names())
	}
}

func TestParseSubmissionPayloadWithoutDataIsFlat(t *testing.T) {
	sub, err := ParseSubmission([]byte(`{"email":"a@b.com","payload":{"formId":"x"}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sub.FormID != "" || sub.Form.Len() != 2 {
		t.Fatalf("unexpected submission: %+v", sub)
	}
}

func TestParseSubmissionInvalidJSON(t *testing.T) {
	if _, err := ParseSubmission([]byte(`{nope`)); err == nil {
		t.Fatalf("expected error")
	}
}

func TestVerifier(t *testing.T) {
	body := []byte(`{"email":"a@b.com"}`)
	v := Verifier{Secret: "s3cret"}

	h := http.Header{}
	h.Set(HeaderTimestamp, "1700000000")
	h.Set(HeaderSignature, Sign("s3cret", "1700000000", body))
	if !v.Verify(h, body) {
		t.Fatalf("valid timestamped signature rejected")
	}

	h = http.Header{}
	h.Set(HeaderSignature, Sign("s3cret", "", body))
	if !v.Verify(h, body) {
		t.Fatalf("valid body-only signature rejected")
	}

	h.Set(HeaderSignature, Sign("other", "", body))
	if v.Verify(h, body) {
		t.Fatalf("signature with wrong secret accepted")
	}

	if !v.Verify(http.Header{}, body) {
		t.Fatalf("missing signature should be accepted")
	}
	if !(Verifier{}).Verify(h, body) {
		t.Fatalf("no secret configured should accept")
	}
}
