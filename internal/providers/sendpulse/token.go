package sendpulse

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const tokenFlightKey = "access_token"

type fetchFunc func(ctx context.Context) (token string, ttl time.Duration, err error)

// tokenSource caches one bearer token and makes sure at most one fetch is in
// flight; concurrent callers share its result.
type tokenSource struct {
	fetch  fetchFunc
	margin time.Duration
	now    func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time

	flight singleflight.Group
}

func newTokenSource(fetch fetchFunc, margin time.Duration, now func() time.Time) *tokenSource {
	if now == nil {
		now = time.Now
	}
	return &tokenSource{fetch: fetch, margin: margin, now: now}
}

func (s *tokenSource) cached() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" || !s.now().Before(s.expiry.Add(-s.margin)) {
		return "", false
	}
	return s.token, true
}

// Token returns a usable token, fetching a new one when the cached token is
// missing or inside the safety margin. The fetch is detached from ctx so a
// caller giving up does not fail the others waiting on it.
func (s *tokenSource) Token(ctx context.Context) (string, error) {
	if tok, ok := s.cached(); ok {
		return tok, nil
	}
	ch := s.flight.DoChan(tokenFlightKey, func() (any, error) {
		if tok, ok := s.cached(); ok {
			return tok, nil
		}
		tok, ttl, err := s.fetch(context.WithoutCancel(ctx))
		if err != nil {
			return "", err
		}
		s.mu.Lock()
		s.token = tok
		s.expiry = s.now().Add(ttl)
		s.mu.Unlock()
		return tok, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Invalidate drops the cached token if it is still the one that failed.
func (s *tokenSource) Invalidate(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == token {
		s.token = ""
		s.expiry = time.Time{}
	}
}
