package sendpulse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"formsync/internal/domain"
	"formsync/internal/observability"
)

const DefaultBaseURL = "https://api.sendpulse.com"

type Options struct {
	BaseURL              string
	ClientID             string
	ClientSecret         string
	DefaultAddressBookID string
	SafetyMargin         time.Duration

	HTTP    *http.Client
	Limiter *rate.Limiter
	Breaker *gobreaker.CircuitBreaker
	Now     func() time.Time
}

// Client owns the authenticated session with the SendPulse REST API. It is
// safe for concurrent use and meant to be shared process-wide.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	defaultBook  string

	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker

	tokens *tokenSource
}

func New(opts Options) (*Client, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: sendpulse client id and secret are required", domain.ErrConfiguration)
	}
	if opts.DefaultAddressBookID == "" {
		return nil, fmt.Errorf("%w: default address book id is required", domain.ErrConfiguration)
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := opts.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	c := &Client{
		baseURL:      baseURL,
		clientID:     opts.ClientID,
		clientSecret: opts.ClientSecret,
		defaultBook:  opts.DefaultAddressBookID,
		http:         httpClient,
		limiter:      opts.Limiter,
		breaker:      opts.Breaker,
	}
	c.tokens = newTokenSource(c.fetchToken, opts.SafetyMargin, opts.Now)
	return c, nil
}

func (c *Client) DefaultAddressBookID() string { return c.defaultBook }

// Ping succeeds when a usable access token is available.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.tokens.Token(ctx)
	return err
}

type tokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (c *Client) fetchToken(ctx context.Context) (string, time.Duration, error) {
	raw, err := c.do(ctx, "token", http.MethodPost, "/oauth/access_token", "", tokenRequest{
		GrantType:    "client_credentials",
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
	})
	if err != nil {
		observability.TokenFetches.WithLabelValues("error").Inc()
		slog.Error("sendpulse authentication failed", "err", err)
		return "", 0, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	var tr tokenResponse
	if err := json.Unmarshal(raw, &tr); err != nil || tr.AccessToken == "" {
		observability.TokenFetches.WithLabelValues("error").Inc()
		slog.Error("sendpulse token response unusable", "err", err)
		return "", 0, fmt.Errorf("%w: malformed token response", ErrAuthentication)
	}
	observability.TokenFetches.WithLabelValues("ok").Inc()
	slog.Info("sendpulse token obtained", "expires_in", tr.ExpiresIn)
	return tr.AccessToken, time.Duration(tr.ExpiresIn) * time.Second, nil
}

// authorized performs one bearer-authenticated call under the auth retry policy.
func (c *Client) authorized(ctx context.Context, op, method, path string, body any) (json.RawMessage, error) {
	return attempt(ctx, c.tokens, maxAuthAttempts, func(ctx context.Context, token string) (json.RawMessage, error) {
		return c.do(ctx, op, method, path, token, body)
	})
}

// do is a single HTTP exchange: rate limited, guarded by the circuit breaker,
// and with every non-2xx answer turned into an *APIError.
func (c *Client) do(ctx context.Context, op, method, path, token string, body any) (json.RawMessage, error) {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		payload = b
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, transportError(err)
		}
	}

	status := 0
	exchange := func() (any, error) {
		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return nil, transportError(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, transportError(err)
		}
		defer resp.Body.Close()
		status = resp.StatusCode

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, transportError(err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, newAPIError(resp.StatusCode, b)
		}
		if len(bytes.TrimSpace(b)) == 0 {
			return json.RawMessage(nil), nil
		}
		return json.RawMessage(b), nil
	}

	start := time.Now()
	var (
		out any
		err error
	)
	if c.breaker != nil {
		out, err = c.breaker.Execute(exchange)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			observability.SendPulseRequests.WithLabelValues(op, "cb_open", "0").Inc()
			return nil, &APIError{StatusCode: http.StatusServiceUnavailable, Message: "circuit breaker open", Err: err}
		}
	} else {
		out, err = exchange()
	}
	observability.SendPulseLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err != nil {
		observability.SendPulseRequests.WithLabelValues(op, "error", strconv.Itoa(status)).Inc()
		return nil, err
	}
	observability.SendPulseRequests.WithLabelValues(op, "ok", strconv.Itoa(status)).Inc()
	return out.(json.RawMessage), nil
}

// NewBreaker trips after maxFailures consecutive transport or 5xx failures.
// Client errors (4xx) do not count against the vendor.
func NewBreaker(maxFailures uint32, timeout time.Duration) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "sendpulse",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= maxFailures },
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.StatusCode != 0 && apiErr.StatusCode < 500
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})
}
