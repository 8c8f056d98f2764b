package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"formsync/internal/domain"
)

// SendPulseConfig is shared by every binary that talks to SendPulse.
type SendPulseConfig struct {
	SendPulseBaseURL     string `envconfig:"SENDPULSE_BASE_URL" default:"https://api.sendpulse.com"`
	SendPulseClientID    string `envconfig:"SENDPULSE_API_USER_ID" required:"true"`
	SendPulseSecret      string `envconfig:"SENDPULSE_API_SECRET" required:"true"`
	DefaultAddressBookID string `envconfig:"SENDPULSE_DEFAULT_ADDRESS_BOOK_ID" default:"961879"`

	// seconds before expiry at which a cached token stops being used
	TokenSafetyMargin int           `envconfig:"SENDPULSE_TOKEN_SAFETY_MARGIN" default:"300"`
	HTTPTimeout       time.Duration `envconfig:"SENDPULSE_HTTP_TIMEOUT" default:"15s"`

	SendPulseRPS   float64 `envconfig:"SENDPULSE_RPS" default:"10"`
	SendPulseBurst int     `envconfig:"SENDPULSE_BURST" default:"20"`

	BreakerFailures uint32        `envconfig:"SENDPULSE_BREAKER_FAILURES" default:"5"`
	BreakerTimeout  time.Duration `envconfig:"SENDPULSE_BREAKER_TIMEOUT" default:"30s"`
}

func (c SendPulseConfig) SafetyMargin() time.Duration {
	return time.Duration(c.TokenSafetyMargin) * time.Second
}

type APIConfig struct {
	Port      string `envconfig:"PORT" default:"8080"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	APIKey    string `envconfig:"API_AUTH_KEY" required:"true"`

	SendPulseConfig
}

type WebhookConfig struct {
	Port      string `envconfig:"PORT" default:"8080"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	// empty disables signature verification
	WebhookSecret string `envconfig:"WEBFLOW_WEBHOOK_SECRET"`

	SendPulseConfig
}

type MockConfig struct {
	Port      string `envconfig:"PORT" default:"8090"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	ClientID     string `envconfig:"SENDPULSE_API_USER_ID" default:"mock-id"`
	ClientSecret string `envconfig:"SENDPULSE_API_SECRET" default:"mock-secret"`
	ExpiresIn    int64  `envconfig:"MOCK_EXPIRES_IN" default:"3600"`

	DefaultAddressBookID string `envconfig:"SENDPULSE_DEFAULT_ADDRESS_BOOK_ID" default:"961879"`

	// address book id -> ok|bad_request|rate_limit|server_error|unauthorized
	Outcomes map[string]string `envconfig:"MOCK_OUTCOMES"`
}

func LoadAPI() (APIConfig, error) {
	var cfg APIConfig
	return cfg, load(&cfg)
}

func LoadWebhook() (WebhookConfig, error) {
	var cfg WebhookConfig
	return cfg, load(&cfg)
}

func LoadMock() (MockConfig, error) {
	var cfg MockConfig
	return cfg, load(&cfg)
}

// load reads an optional .env file, then the process environment.
// Variables already set in the environment win over the file.
func load(target any) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: read .env: %w", domain.ErrConfiguration, err)
	}
	if err := envconfig.Process("", target); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	return nil
}
