package sendpulse

import (
	"context"
	"encoding/json"
)

// maxAuthAttempts allows one re-authentication per operation.
const maxAuthAttempts = 2

type tokenSupplier interface {
	Token(ctx context.Context) (string, error)
	Invalidate(token string)
}

type authorizedCall func(ctx context.Context, token string) (json.RawMessage, error)

// attempt runs call with a token from tokens. On an authorization failure the
// token is dropped and the call is tried again with a fresh one, up to
// maxAttempts in total. Any other error is returned as is.
func attempt(ctx context.Context, tokens tokenSupplier, maxAttempts int, call authorizedCall) (json.RawMessage, error) {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		token, err := tokens.Token(ctx)
		if err != nil {
			return nil, err
		}
		out, err := call(ctx, token)
		if err == nil {
			return out, nil
		}
		if !isAuthFailure(err) {
			return nil, err
		}
		tokens.Invalidate(token)
		lastErr = err
	}
	return nil, lastErr
}
