package domain

import (
	"errors"
	"sort"
	"strings"
)

// Keys with a fixed meaning in a contact record.
const (
	KeyEmail             = "email"
	KeyFirstName         = "firstname"
	KeyLastName          = "lastname"
	KeyPhone             = "phone"
	KeyCompanyName       = "companyname"
	KeyMessage           = "message"
	KeyNumberOfEmployees = "numberofemployees"

	// consent sentinels; never forwarded to the vendor as variables
	KeyPrivacyPolicy = "privacypolicy"
	KeyMarketing     = "marketing"
)

// ContactData is a single recipient: a mandatory email plus string-valued attributes.
type ContactData struct {
	Email      string
	Attributes map[string]string
}

func NewContact(email string) ContactData {
	return ContactData{Email: email, Attributes: map[string]string{}}
}

// Set stores an attribute. The email key is owned by Email and is ignored here.
func (c *ContactData) Set(key, value string) {
	if key == "" || key == KeyEmail {
		return
	}
	if c.Attributes == nil {
		c.Attributes = map[string]string{}
	}
	c.Attributes[key] = value
}

func (c ContactData) Get(key string) (string, bool) {
	if key == KeyEmail {
		return c.Email, c.Email != ""
	}
	v, ok := c.Attributes[key]
	return v, ok
}

// Len counts the email plus every attribute.
func (c ContactData) Len() int {
	return 1 + len(c.Attributes)
}

// Variables returns the attributes forwarded to the vendor: everything except
// the email and the consent sentinels.
func (c ContactData) Variables() map[string]string {
	out := make(map[string]string, len(c.Attributes))
	for k, v := range c.Attributes {
		if k == KeyPrivacyPolicy || k == KeyMarketing {
			continue
		}
		out[k] = v
	}
	return out
}

type AddressBookMapping struct {
	Title string `json:"title"`
	ID    string `json:"id"`
}

// EmailEntry is one element of the REST API "emails" array.
type EmailEntry struct {
	Email     string         `json:"email"`
	Variables map[string]any `json:"variables,omitempty"`
}

type EmailsRequest struct {
	AddressBookID string       `json:"addressBookId"`
	Emails        []EmailEntry `json:"emails"`
}

func (r EmailsRequest) Validate() error {
	if len(r.Emails) == 0 {
		return ErrMissingEmails
	}
	for _, e := range r.Emails {
		if strings.TrimSpace(e.Email) == "" {
			return &ValidationError{Field: KeyEmail}
		}
	}
	return nil
}

type TestContactRequest struct {
	AddressBookID string `json:"addressBookId"`
	Email         string `json:"email"`
}

func (r TestContactRequest) Validate() error {
	if r.AddressBookID == "" || r.Email == "" {
		return ErrMissingTestFields
	}
	return nil
}

// APIResponse is the envelope returned by every endpoint.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

var (
	ErrConfiguration      = errors.New("configuration error")
	ErrValidation         = errors.New("validation error")
	ErrPrivacyNotAccepted = errors.New("privacy policy must be accepted to process form submission")
	ErrMissingEmails      = errors.New("addressBookId and emails are required")
	ErrMissingTestFields  = errors.New("addressBookId and email are required")
)

// ValidationError reports a required field missing from the input together
// with the field names that were present.
type ValidationError struct {
	Field     string
	Available []string
}

func (e *ValidationError) Error() string {
	if e.Available == nil {
		return e.Field + " is required"
	}
	return e.Field + " is required but not found in form data. Available fields: " + strings.Join(e.Available, ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// SortedKeys is used for stable log output.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
