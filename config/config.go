package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

/* Config holds every setting of the gateway
 * Values come from an optional .env file (toml) and are overridden by environment variables
 */

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"

	EncodingJSON    = "json"
	EncodingMsgPack = "msgpack"

	// ResponseMargin is the time kept between the end of the forward call and the request deadline
	ResponseMargin = 5 * time.Second
)

type Config struct {
	Port      string `mapstructure:"PORT"`
	APIKey    string `mapstructure:"API_KEY"`
	TargetURL string `mapstructure:"WEBHOOK_TARGET_URL"`

	RateLimitWindow       time.Duration `mapstructure:"RATE_LIMIT_WINDOW"`
	RateLimitMax          int           `mapstructure:"RATE_LIMIT_MAX"`
	RateLimitBackend      string        `mapstructure:"RATE_LIMIT_BACKEND"`
	RateLimitKeyHeader    string        `mapstructure:"RATE_LIMIT_KEY_HEADER"`
	RateLimitCleanupEvery time.Duration `mapstructure:"RATE_LIMIT_CLEANUP_EVERY"`
	TrustForwardedFor     bool          `mapstructure:"TRUST_X_FORWARDED_FOR"`

	HistoryCapacity int `mapstructure:"HISTORY_CAPACITY"`

	ForwardTimeout       time.Duration `mapstructure:"FORWARD_TIMEOUT"`
	ForwardEncoding      string        `mapstructure:"FORWARD_ENCODING"`
	ForwardRPS           float64       `mapstructure:"FORWARD_RPS"`
	ForwardOnDisconnect  string        `mapstructure:"FORWARD_ON_DISCONNECT"`
	ForwardSigningSecret string        `mapstructure:"FORWARD_SIGNING_SECRET"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	RedisPrefix   string `mapstructure:"REDIS_PREFIX"`

	RequestTimeout     time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	MaxBodyBytes       int64         `mapstructure:"MAX_BODY_BYTES"`
	CORSAllowedOrigins string        `mapstructure:"CORS_ALLOWED_ORIGINS"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogJSON  bool   `mapstructure:"LOG_JSON"`
}

var defaults = map[string]any{
	"PORT":                     "3000",
	"API_KEY":                  "",
	"WEBHOOK_TARGET_URL":       "",
	"RATE_LIMIT_WINDOW":        "60s",
	"RATE_LIMIT_MAX":           10,
	"RATE_LIMIT_BACKEND":       BackendMemory,
	"RATE_LIMIT_KEY_HEADER":    "",
	"RATE_LIMIT_CLEANUP_EVERY": "5m",
	"TRUST_X_FORWARDED_FOR":    false,
	"HISTORY_CAPACITY":         100,
	"FORWARD_TIMEOUT":          "10s",
	"FORWARD_ENCODING":         EncodingJSON,
	"FORWARD_RPS":              0.0,
	"FORWARD_ON_DISCONNECT":    "detach",
	"FORWARD_SIGNING_SECRET":   "",
	"REDIS_ADDR":               "localhost:6379",
	"REDIS_PASSWORD":           "",
	"REDIS_DB":                 0,
	"REDIS_PREFIX":             "ratelimit",
	"REQUEST_TIMEOUT":          "30s",
	"MAX_BODY_BYTES":           1 << 20,
	"CORS_ALLOWED_ORIGINS":     "*",
	"LOG_LEVEL":                "info",
	"LOG_JSON":                 true,
}

// GetConfig reads .env from the working directory when present and applies the environment on top
func GetConfig() (*Config, error) {
	return Load(viper.New(), ".")
}

// Load resolves the configuration using v, looking for .env inside dir
func Load(v *viper.Viper, dir string) (*Config, error) {
	v.SetConfigName(".env")
	v.SetConfigType("toml")
	v.AddConfigPath(dir)
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	var config Config
	err = v.Unmarshal(&config)
	if err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &config, nil
}

// Validate checks every setting and reports all problems at once
func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.APIKey == "" {
		errs = append(errs, errors.New("API_KEY is required"))
	}
	if err := validateTargetURL(c.TargetURL); err != nil {
		errs = append(errs, err)
	}
	if c.RateLimitWindow <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimitWindow))
	}
	if c.RateLimitMax <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_MAX must be positive, got %d", c.RateLimitMax))
	}
	switch c.RateLimitBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required when RATE_LIMIT_BACKEND=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BACKEND must be %q or %q, got %q", BackendMemory, BackendRedis, c.RateLimitBackend))
	}
	if c.RateLimitCleanupEvery < 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_CLEANUP_EVERY must not be negative, got %s", c.RateLimitCleanupEvery))
	}
	if c.HistoryCapacity <= 0 {
		errs = append(errs, fmt.Errorf("HISTORY_CAPACITY must be positive, got %d", c.HistoryCapacity))
	}
	if c.ForwardTimeout <= 0 {
		errs = append(errs, fmt.Errorf("FORWARD_TIMEOUT must be positive, got %s", c.ForwardTimeout))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout))
	} else if c.ForwardTimeout > 0 && c.ForwardTimeout+ResponseMargin > c.RequestTimeout {
		errs = append(errs, fmt.Errorf("FORWARD_TIMEOUT (%s) must be at least %s below REQUEST_TIMEOUT (%s)",
			c.ForwardTimeout, ResponseMargin, c.RequestTimeout))
	}
	if c.ForwardEncoding != EncodingJSON && c.ForwardEncoding != EncodingMsgPack {
		errs = append(errs, fmt.Errorf("FORWARD_ENCODING must be %q or %q, got %q", EncodingJSON, EncodingMsgPack, c.ForwardEncoding))
	}
	if c.ForwardRPS < 0 {
		errs = append(errs, fmt.Errorf("FORWARD_RPS must not be negative, got %v", c.ForwardRPS))
	}
	if c.ForwardOnDisconnect != "detach" && c.ForwardOnDisconnect != "cancel" {
		errs = append(errs, fmt.Errorf("FORWARD_ON_DISCONNECT must be \"detach\" or \"cancel\", got %q", c.ForwardOnDisconnect))
	}
	if c.ForwardSigningSecret != "" && !strings.HasPrefix(c.ForwardSigningSecret, "whsec_") {
		errs = append(errs, errors.New("FORWARD_SIGNING_SECRET must start with whsec_"))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes))
	}
	return errors.Join(errs...)
}

// WriteTimeout bounds a server connection from the end of the request headers to the end of the reply.
// It covers reading the body for up to RequestTimeout and then a full forward call, so a stored webhook always gets its reply
func (c *Config) WriteTimeout() time.Duration {
	return c.RequestTimeout + c.ForwardTimeout + ResponseMargin
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Masked returns a copy safe to print, with secrets hidden
func (c *Config) Masked() Config {
	m := *c
	m.APIKey = mask(m.APIKey)
	m.ForwardSigningSecret = mask(m.ForwardSigningSecret)
	m.RedisPassword = mask(m.RedisPassword)
	return m
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}

func validateTargetURL(raw string) error {
	if raw == "" {
		return errors.New("WEBHOOK_TARGET_URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("WEBHOOK_TARGET_URL is invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("WEBHOOK_TARGET_URL must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("WEBHOOK_TARGET_URL must include a host")
	}
	return nil
}
