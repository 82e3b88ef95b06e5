package config

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
)

var (
	// ErrAuthConfig is returned when an identity-provider setting is missing.
	ErrAuthConfig = errors.New("unable to initialise auth")
	// ErrInvalidConfig is returned for any other invalid setting.
	ErrInvalidConfig = errors.New("invalid configuration")
)

type Config struct {
	Port       string `env:"PORT,         default=8080"`
	Env        string `env:"ENV,          default=development"`
	LogLevel   string `env:"LOG_LEVEL,    default=info"`
	APIBaseURL string `env:"API_BASE_URL, default=http://localhost:7000" validate:"required,url"`
	AppBaseURL string `env:"APP_BASE_URL, default=http://localhost:8080" validate:"required,url"`

	Auth         AuthConfig
	Session      SessionConfig
	Mongo        MongoConfig
	Redis        RedisConfig
	Provisioning ProvisioningConfig
}

// AuthConfig holds the identity-provider settings. All but ClientSecret are
// mandatory; the secret is optional because the code flow uses PKCE.
type AuthConfig struct {
	Domain       string `env:"AUTH0_DOMAIN"        validate:"required"`
	ClientID     string `env:"AUTH0_CLIENT_ID"     validate:"required"`
	ClientSecret string `env:"AUTH0_CLIENT_SECRET"`
	CallbackURL  string `env:"AUTH0_CALLBACK_URL"  validate:"required"`
	Audience     string `env:"AUTH0_AUDIENCE"      validate:"required"`
}

type SessionConfig struct {
	Secret       string        `env:"SESSION_SECRET"                validate:"required,min=32"`
	TTL          time.Duration `env:"SESSION_TTL,    default=24h"   validate:"gt=0"`
	CookieName   string        `env:"SESSION_COOKIE, default=my_user_session"`
	CookieSecure bool          `env:"COOKIE_SECURE,  default=true"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=my_user_gateway"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type ProvisioningConfig struct {
	Workers int           `env:"PROVISIONING_WORKERS, default=4"   validate:"gt=0"`
	Timeout time.Duration `env:"PROVISIONING_TIMEOUT, default=30s" validate:"gt=0"`
}

// Development reports whether the process runs in the development environment.
func (c *Config) Development() bool {
	return strings.EqualFold(c.Env, "development")
}

// Load reads configuration from the process environment and validates it.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration from l and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the loaded values. Missing identity-provider settings are
// reported together as ErrAuthConfig.
func (c *Config) Validate() error {
	v := validator.New()
	v.RegisterTagNameFunc(envName)

	if err := v.Struct(c.Auth); err != nil {
		return fmt.Errorf("%w: missing %s", ErrAuthConfig, strings.Join(fieldNames(err), ", "))
	}
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(fieldNames(err), ", "))
	}
	return nil
}

// envName reports struct fields by their environment variable name.
func envName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("env"), ",")
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return f.Name
}

func fieldNames(err error) []string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []string{err.Error()}
	}
	names := make([]string, 0, len(ve))
	for _, fe := range ve {
		names = append(names, fe.Field())
	}
	return names
}
