package formmap

import (
	"log/slog"

	"formsync/internal/domain"
)

// FormAddressBooks maps Webflow form ids to SendPulse address books.
var FormAddressBooks = map[string]domain.AddressBookMapping{
	"66d84d72633d424869c060b0": {Title: "Demo Request", ID: "963387"},
	"676402d3d986b33c56662f7d": {Title: "Ebook Page Sub", ID: "963397"},
	"66d84d72633d424869c060d0": {Title: "Ebook Sub", ID: "963398"},
	"66d84d72633d424869c060aa": {Title: "Event Sub", ID: "963395"},
	"66d84d72633d424869c060bc": {Title: "Blog Sub", ID: "963393"},
	"66d84d72633d424869c060e9": {Title: "Contact Us", ID: "963390"},
	"66d84d72633d424869c060df": {Title: "Demo Day", ID: "963388"},
	"66d84d72633d424869c060d2": {Title: "Pricing", ID: "963392"},
}

const DefaultTitle = "My emails"

type Resolver struct {
	Books   map[string]domain.AddressBookMapping
	Default domain.AddressBookMapping
}

// NewResolver uses the static form table with the given default address book id.
func NewResolver(defaultAddressBookID string) *Resolver {
	return &Resolver{
		Books:   FormAddressBooks,
		Default: domain.AddressBookMapping{Title: DefaultTitle, ID: defaultAddressBookID},
	}
}

// Resolve never fails: an unknown form id maps to the default address book.
func (r *Resolver) Resolve(formID string) domain.AddressBookMapping {
	m, ok := r.Books[formID]
	if !ok {
		slog.Warn("no address book mapping for form, using default",
			"form_id", formID,
			"address_book_id", r.Default.ID,
		)
		return r.Default
	}
	slog.Info("form mapped to address book", "form_id", formID, "title", m.Title, "address_book_id", m.ID)
	return m
}
