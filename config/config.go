package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

/* Config is built once at process start and passed by reference to the
 * components that need it. Nothing below reads the environment directly.
 */

const EnvProduction = "production"

type Config struct {
	Port        string `mapstructure:"PORT"`
	Environment string `mapstructure:"ENVIRONMENT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	ProvidersFile string `mapstructure:"PROVIDERS_FILE"`

	StoreDriver         string `mapstructure:"STORE_DRIVER"`
	StoreTimeoutSeconds int    `mapstructure:"STORE_TIMEOUT_SECONDS"`
	RedisAddr           string `mapstructure:"REDIS_ADDR"`
	RedisPassword       string `mapstructure:"REDIS_PASSWORD"`
	RedisDB             int    `mapstructure:"REDIS_DB"`
	PostgresURL         string `mapstructure:"POSTGRES_URL"`

	IdempotencyTTLHours       int `mapstructure:"IDEMPOTENCY_TTL_HOURS"`
	IdempotencyPendingSeconds int `mapstructure:"IDEMPOTENCY_PENDING_SECONDS"`

	IdentityWebhookSecret  string `mapstructure:"IDENTITY_WEBHOOK_SECRET"`
	PaymentWebhookSecret   string `mapstructure:"PAYMENT_WEBHOOK_SECRET"`
	ReplayToleranceSeconds int    `mapstructure:"REPLAY_TOLERANCE_SECONDS"`
	ReplaySkewSeconds      int    `mapstructure:"REPLAY_SKEW_SECONDS"`
	MaxBodyBytes           int64  `mapstructure:"MAX_BODY_BYTES"`

	lookup func(key string) string
}

// GetConfig loads the configuration from an optional .env file and the environment.
func GetConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigName(".env")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}
	// catalogs may reference secrets stored under any variable name
	config.lookup = v.GetString
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", EnvProduction)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PROVIDERS_FILE", "")
	v.SetDefault("STORE_DRIVER", "memory")
	v.SetDefault("STORE_TIMEOUT_SECONDS", 3)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("IDEMPOTENCY_TTL_HOURS", 72)
	v.SetDefault("IDEMPOTENCY_PENDING_SECONDS", 60)
	v.SetDefault("IDENTITY_WEBHOOK_SECRET", "")
	v.SetDefault("PAYMENT_WEBHOOK_SECRET", "")
	v.SetDefault("REPLAY_TOLERANCE_SECONDS", 300)
	v.SetDefault("REPLAY_SKEW_SECONDS", 60)
	v.SetDefault("MAX_BODY_BYTES", 1<<20)
}

// Validate checks the values that cannot be repaired with a default.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case "memory", "redis":
	case "postgres":
		if c.PostgresURL == "" {
			return fmt.Errorf("POSTGRES_URL is required when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (expected memory, redis or postgres)", c.StoreDriver)
	}
	if c.StoreTimeoutSeconds <= 0 {
		return fmt.Errorf("STORE_TIMEOUT_SECONDS must be positive")
	}
	if c.ReplayToleranceSeconds <= 0 {
		return fmt.Errorf("REPLAY_TOLERANCE_SECONDS must be positive")
	}
	if c.ReplaySkewSeconds < 0 {
		return fmt.Errorf("REPLAY_SKEW_SECONDS cannot be negative")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	return nil
}

// IsProduction reports whether verbose diagnostics must be withheld from responses.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Secret resolves a secret reference by environment variable name.
func (c *Config) Secret(name string) string {
	if c == nil || name == "" {
		return ""
	}
	switch name {
	case "IDENTITY_WEBHOOK_SECRET":
		return c.IdentityWebhookSecret
	case "PAYMENT_WEBHOOK_SECRET":
		return c.PaymentWebhookSecret
	}
	if c.lookup == nil {
		return ""
	}
	return c.lookup(name)
}

// StoreTimeout bounds every store round trip made while applying an event.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutSeconds) * time.Second
}

// IdempotencyTTL is how long an applied delivery id is remembered.
func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempotencyTTLHours) * time.Hour
}

// IdempotencyPendingTTL bounds how long an in-flight claim blocks redeliveries.
func (c *Config) IdempotencyPendingTTL() time.Duration {
	return time.Duration(c.IdempotencyPendingSeconds) * time.Second
}
