package fields

import (
	"strings"
	"unicode"

	"formsync/internal/domain"
)

// Form field names producers are expected to use for the well-known attributes.
const (
	FieldEmail             = "email"
	FieldFirstName         = "firstname"
	FieldLastName          = "lastname"
	FieldPhone             = "phone"
	FieldCompanyName       = "companyname"
	FieldMessages          = "messages"
	FieldNumberOfEmployees = "numberofemployees"
)

type promotion struct {
	field string
	key   string
	// textOnly promotes string values only; otherwise any truthy value is stringified.
	textOnly bool
}

var promotions = []promotion{
	{FieldFirstName, domain.KeyFirstName, true},
	{FieldLastName, domain.KeyLastName, true},
	{FieldPhone, domain.KeyPhone, false},
	{FieldCompanyName, domain.KeyCompanyName, true},
	{FieldMessages, domain.KeyMessage, true},
	{FieldNumberOfEmployees, domain.KeyNumberOfEmployees, false},
}

// ExtractContactData turns a raw form submission into a contact. The email
// field is required; well-known fields are promoted to named attributes and
// every non-empty field is also copied under its normalized name.
func ExtractContactData(form FormData) (domain.ContactData, error) {
	v, _ := form.Get(FieldEmail)
	email, ok := v.Text()
	if !ok || email == "" {
		return domain.ContactData{}, &domain.ValidationError{Field: FieldEmail, Available: form.Names()}
	}

	contact := domain.NewContact(email)
	for _, p := range promotions {
		v, ok := form.Get(p.field)
		if !ok {
			continue
		}
		if p.textOnly {
			if s, ok := v.Text(); ok && s != "" {
				contact.Set(p.key, s)
			}
			continue
		}
		if v.Truthy() {
			contact.Set(p.key, v.String())
		}
	}

	for _, fd := range form.Fields() {
		if fd.Value.Empty() {
			continue
		}
		contact.Set(NormalizeFieldName(fd.Name), fd.Value.String())
	}
	return contact, nil
}

// NormalizeFieldName lower-cases name, collapses whitespace runs into a single
// underscore and drops everything outside [a-z0-9_]. It is idempotent.
func NormalizeFieldName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	inSpace := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('_')
			}
			inSpace = true
			continue
		}
		inSpace = false
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
