package util

import (
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
)

func TestNewRequestID(t *testing.T) {
	a, b := NewRequestID(), NewRequestID()
	if a == b {
		t.Fatalf("ids must differ: %s", a)
	}
	if !strings.HasPrefix(a, "req_") {
		t.Fatalf("missing prefix: %s", a)
	}
	if _, err := ulid.Parse(strings.TrimPrefix(a, "req_")); err != nil {
		t.Fatalf("not a ulid: %v", err)
	}
}
