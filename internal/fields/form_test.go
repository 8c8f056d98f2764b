package fields

import (
	"encoding/json"
	"testing"
)

func TestValueSemantics(t *testing.T) {
	cases := []struct {
		raw                    string
		str                    string
		empty, truthy, isFalse bool
	}{
		{`null`, "", true, false, false},
		{`""`, "", true, false, false},
		{`"false"`, "false", false, true, true},
		{`false`, "false", false, false, true},
		{`true`, "true", false, true, false},
		{`0`, "0", false, false, false},
		{`12`, "12", false, true, false},
		{`{"a": [1, 2]}`, `{"a":[1,2]}`, false, true, false},
	}
	for _, tc := range cases {
		var v Value
		if err := json.Unmarshal([]byte(tc.raw), &v); err != nil {
			t.Fatalf("%s: %v", tc.raw, err)
		}
		if v.String() != tc.str || v.Empty() != tc.empty || v.Truthy() != tc.truthy || v.IsFalse() != tc.isFalse {
			t.Errorf("%s: got str=%q empty=%v truthy=%v false=%v", tc.raw, v.String(), v.Empty(), v.Truthy(), v.IsFalse())
		}
	}
}

func TestTextOnlyForStrings(t *testing.T) {
	if _, ok := Bool(true).Text(); ok {
		t.Fatalf("bool must not read as text")
	}
	if s, ok := String("x").Text(); !ok || s != "x" {
		t.Fatalf("text = %q %v", s, ok)
	}
	if !RawJSON(`{"a":1}`).IsObject() || RawJSON(`[1]`).IsObject() {
		t.Fatalf("IsObject misclassified")
	}
}
