package sendpulse

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrAuthentication means no access token could be obtained with the configured credentials.
var ErrAuthentication = errors.New("failed to authenticate with sendpulse api")

// APIError is any failed exchange with the vendor. StatusCode is 0 when the
// request never produced an HTTP response.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
	Err        error
}

func (e *APIError) Error() string {
	return "sendpulse api error: " + e.Message
}

func (e *APIError) Unwrap() error { return e.Err }

type errorPayload struct {
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
}

func newAPIError(status int, body []byte) *APIError {
	var p errorPayload
	_ = json.Unmarshal(body, &p)
	msg := p.Message
	if msg == "" {
		msg = p.ErrorDescription
	}
	if msg == "" {
		msg = fmt.Sprintf("request failed with status code %d", status)
	}
	return &APIError{StatusCode: status, Message: msg, Body: body}
}

func transportError(err error) *APIError {
	return &APIError{Message: err.Error(), Err: err}
}

// isAuthFailure classifies errors that warrant a fresh token.
func isAuthFailure(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		return true
	}
	return strings.Contains(err.Error(), "Unauthorized")
}

// HTTPStatus returns the vendor status carried by err, or 500 when unknown.
func HTTPStatus(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 {
		return apiErr.StatusCode
	}
	return http.StatusInternalServerError
}
