package webflow

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"formsync/internal/fields"
)

const (
	HeaderSignature = "X-Webflow-Signature"
	HeaderTimestamp = "X-Webflow-Timestamp"
)

// Submission is a decoded form webhook. FormID is empty for flat payloads.
type Submission struct {
	Form   fields.FormData
	FormID string
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	FormID json.RawMessage `json:"formId"`
}

// ParseSubmission accepts either {"payload":{"data":{...},"formId":"..."}} or a
// flat field mapping. A flat mapping may carry its own "formId" string, which
// stays in the form as an ordinary field.
func ParseSubmission(body []byte) (Submission, error) {
	var top fields.FormData
	if err := json.Unmarshal(body, &top); err != nil {
		return Submission{}, err
	}

	if p, ok := top.Get("payload"); ok && p.IsObject() {
		var env envelope
		if err := json.Unmarshal([]byte(p.String()), &env); err == nil && len(env.Data) > 0 && env.Data[0] == '{' {
			var data fields.FormData
			if err := json.Unmarshal(env.Data, &data); err != nil {
				return Submission{}, err
			}
			var formID string
			_ = json.Unmarshal(env.FormID, &formID)
			return Submission{Form: data, FormID: formID}, nil
		}
	}
	formID, _ := top.Get("formId")
	id, _ := formID.Text()
	return Submission{Form: top, FormID: id}, nil
}

// Sign computes the hex HMAC-SHA256 Webflow sends: over "<timestamp>:<body>",
// or over the body alone when no timestamp is present.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	if timestamp != "" {
		mac.Write([]byte(timestamp + ":"))
	}
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verifier checks webhook signatures. With no secret configured, or when the
// producer sends no signature, requests are accepted.
type Verifier struct {
	Secret string
}

func (v Verifier) Verify(h http.Header, body []byte) bool {
	if v.Secret == "" {
		return true
	}
	provided := h.Get(HeaderSignature)
	if provided == "" {
		return true
	}
	expected := Sign(v.Secret, h.Get(HeaderTimestamp), body)
	return hmac.Equal([]byte(expected), []byte(provided))
}
