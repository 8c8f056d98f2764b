package util

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewRequestID returns a sortable id used to correlate log lines of one request.
func NewRequestID() string {
	return "req_" + ulid.MustNew(ulid.Timestamp(NowUTC()), rand.Reader).String()
}

func NowUTC() time.Time {
	return time.Now().UTC()
}
