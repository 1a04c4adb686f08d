package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// GmailReadonlyScope is the only scope the backend ever requests.
const GmailReadonlyScope = "https://www.googleapis.com/auth/gmail.readonly"

// CacheDisabled as CACHE_TYPE turns the authorization-code ledger off.
// An empty CACHE_TYPE falls back to the redis default.
const CacheDisabled = "none"

// ServerConfig is the backend's process-wide configuration.
// Loaded once at startup and never mutated afterwards.
type ServerConfig struct {
	GoogleClientID     string        `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `env:"GOOGLE_CLIENT_SECRET"`
	BackendURL         string        `env:"BACKEND_URL"`
	NgrokURL           string        `env:"NGROK_URL"`
	Port               string        `env:"PORT" envDefault:"3000"`
	ExchangeTimeout    time.Duration `env:"EXCHANGE_TIMEOUT" envDefault:"10s"`
	GoogleAuthURL      string        `env:"GOOGLE_AUTH_URL"`
	GoogleTokenURL     string        `env:"GOOGLE_TOKEN_URL"`

	// Code ledger cache: redis or memory. CacheDisabled turns replay detection off.
	CacheType     string `env:"CACHE_TYPE" envDefault:"redis"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

// ClientConfig configures the command-line client that plays the app's role.
type ClientConfig struct {
	BackendURL      string        `env:"BACKEND_URL"`
	NgrokURL        string        `env:"NGROK_URL"`
	TokenDB         string        `env:"TOKEN_DB" envDefault:"./fetchit_client.db"`
	MigrationsDir   string        `env:"MIGRATIONS_DIR" envDefault:"./database/migrations"`
	StorePassphrase string        `env:"TOKEN_STORE_PASSPHRASE"`
	RelayAddr       string        `env:"DEEPLINK_RELAY_ADDR" envDefault:"127.0.0.1:47913"`
	LinkTimeout     time.Duration `env:"LINK_TIMEOUT" envDefault:"5m"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	GmailEndpoint   string        `env:"GMAIL_ENDPOINT"`
}

// RedirectURI must exactly match the URI registered with the provider.
func (c ServerConfig) RedirectURI() string {
	return c.BackendURL + "/auth/callback"
}

// LedgerEnabled reports whether replayed authorization codes are detected.
func (c ServerConfig) LedgerEnabled() bool {
	return c.CacheType != CacheDisabled
}

// AuthorizeURL is where the client sends the system browser.
func (c ClientConfig) AuthorizeURL() string {
	return c.BackendURL + "/auth/authorize"
}

// LoadServerConfig reads the backend configuration from the environment,
// after loading a .env file if one exists.
func LoadServerConfig() (ServerConfig, error) {
	loadDotEnv()

	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.BackendURL = baseURL(cfg.BackendURL, cfg.NgrokURL)

	if err := cfg.validate(); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

// LoadClientConfig reads the client configuration from the environment.
func LoadClientConfig() (ClientConfig, error) {
	loadDotEnv()

	var cfg ClientConfig
	if err := env.Parse(&cfg); err != nil {
		return ClientConfig{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.BackendURL = baseURL(cfg.BackendURL, cfg.NgrokURL)
	if cfg.BackendURL == "" {
		return ClientConfig{}, errors.New("BACKEND_URL is required")
	}
	return cfg, nil
}

func (c ServerConfig) validate() error {
	var missing []string
	if c.GoogleClientID == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}
	if c.GoogleClientSecret == "" {
		missing = append(missing, "GOOGLE_CLIENT_SECRET")
	}
	if c.BackendURL == "" {
		missing = append(missing, "BACKEND_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.ExchangeTimeout <= 0 {
		return errors.New("EXCHANGE_TIMEOUT must be positive")
	}
	return nil
}

// baseURL prefers BACKEND_URL and falls back to NGROK_URL (development tunnels).
func baseURL(backend, ngrok string) string {
	u := strings.TrimSpace(backend)
	if u == "" {
		u = strings.TrimSpace(ngrok)
	}
	return strings.TrimRight(u, "/")
}

func loadDotEnv() {
	// Missing .env is normal outside development.
	_ = godotenv.Load()
}
