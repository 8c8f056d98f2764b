package formmap

import "testing"

func TestResolveKnownForm(t *testing.T) {
	r := NewResolver("961879")
	got := r.Resolve("66d84d72633d424869c060b0")
	if got.ID != "963387" || got.Title != "Demo Request" {
		t.Fatalf("unexpected mapping: %+v", got)
	}
}

func TestResolveUnknownFormFallsBackToDefault(t *testing.T) {
	r := NewResolver("961879")
	for _, id := range []string{"", "does-not-exist"} {
		got := r.Resolve(id)
		if got.ID != "961879" {
			t.Fatalf("form %q: expected default id, got %q", id, got.ID)
		}
		if got.Title != DefaultTitle {
			t.Fatalf("form %q: expected default title, got %q", id, got.Title)
		}
	}
}

func TestFormTableIDsAreUnique(t *testing.T) {
	seen := map[string]string{}
	for form, m := range FormAddressBooks {
		if other, ok := seen[m.ID]; ok {
			t.Fatalf("address book %s mapped by both %s and %s", m.ID, other, form)
		}
		seen[m.ID] = form
	}
}
