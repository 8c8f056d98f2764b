package httpserver

import (
	"errors"

	"formsync/internal/domain"
	"formsync/internal/providers/sendpulse"
)

const (
	ErrInvalidJSON       = "invalid json"
	ErrUnauthorized      = "Unauthorized"
	ErrForbidden         = "Forbidden"
	ErrReadBody          = "could not read request body"
	ErrPayloadTooLarge   = "payload too large"
	ErrWebhookProcessing = "Webhook processing failed"
)

// statusFor maps a service error to the REST status: input problems are 400,
// vendor failures keep the vendor status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrMissingEmails),
		errors.Is(err, domain.ErrMissingTestFields),
		errors.Is(err, domain.ErrPrivacyNotAccepted):
		return 400
	default:
		return sendpulse.HTTPStatus(err)
	}
}
