package config

import "time"

// Default values for a stock installation. The API key identifies the client
// application build, not a user; it travels on every request.
const (
	DefaultBaseURL = "https://api.serviya.app"
	DefaultAPIKey  = "serviya-mobile-v1"
)

// Config holds runtime settings for the Serviya client.
//
// Durations are time.Duration values; in the JSON file they may be written
// as strings like "15s" or "12h".
type Config struct {
	// BaseURL is the backend root, without a trailing slash.
	BaseURL string
	// APIKey is sent as the X-API-Key header on every request.
	APIKey string

	// RequestTimeout bounds a single JSON request attempt.
	RequestTimeout time.Duration
	// UploadTimeoutFactor multiplies RequestTimeout for multipart uploads,
	// which are larger and slower than JSON calls.
	UploadTimeoutFactor int
	// MaxRetries caps retries for transient failures on JSON calls.
	MaxRetries uint64
	// RetryBase is the first backoff delay; it doubles per retry.
	RetryBase time.Duration

	// TokenLifetime is assumed when neither server nor token says otherwise.
	TokenLifetime time.Duration
	// RefreshMargin renews tokens this long before expiry.
	RefreshMargin time.Duration

	// MaxUploadSize caps a single uploaded file, in bytes.
	MaxUploadSize int64

	// DatabasePath and KeyfilePath locate the local credential storage.
	DatabasePath string
	KeyfilePath  string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BaseURL = DefaultBaseURL
	c.APIKey = DefaultAPIKey
	c.RequestTimeout = 15 * time.Second
	c.UploadTimeoutFactor = 3
	c.MaxRetries = 3
	c.RetryBase = 2 * time.Second
	c.TokenLifetime = 12 * time.Hour
	c.RefreshMargin = 5 * time.Minute
	c.MaxUploadSize = 10 << 20
	c.DatabasePath = "serviya.db"
	c.KeyfilePath = "serviya.key"
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if a config file was given) and command-line flags. Later
// sources take precedence.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
