package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const envDevelopment = "development"

// cascadeDeadlines is the number of step deadlines one cascade may spend
// while holding its lock: the descendant read plus at most three writes.
const cascadeDeadlines = 4

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// MigrateOnStart runs the index migration before the server accepts
	// traffic.
	MigrateOnStart bool `env:"MIGRATE_ON_START, default=true"`

	Auth    AuthConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	Cascade CascadeConfig
}

type AuthConfig struct {
	JWTSecret         string        `env:"JWT_SECRET"`
	AccessExpiration  time.Duration `env:"JWT_EXPIRATION,         default=24h"`
	RefreshExpiration time.Duration `env:"JWT_REFRESH_EXPIRATION, default=168h"`
	SaltRounds        int           `env:"SALT_ROUNDS,            default=8"`
}

type MongoConfig struct {
	URI      string        `env:"MONGO_URI,     default=mongodb://localhost:27017"`
	Database string        `env:"MONGO_DB,      default=catalog"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT, default=10s"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type CascadeConfig struct {
	StepTimeout  time.Duration `env:"CASCADE_STEP_TIMEOUT, default=10s"`
	LockTTL      time.Duration `env:"CASCADE_LOCK_TTL,     default=60s"`
	AuditWorkers int           `env:"AUDIT_WORKERS,        default=4"`
}

// IsDevelopment reports whether the service runs with ENV=development.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, envDevelopment)
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Auth.AccessExpiration <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION must be positive"))
	}
	if c.Auth.RefreshExpiration <= 0 {
		errs = append(errs, errors.New("JWT_REFRESH_EXPIRATION must be positive"))
	}
	if c.Auth.SaltRounds < 4 || c.Auth.SaltRounds > 31 {
		errs = append(errs, fmt.Errorf("SALT_ROUNDS must be between 4 and 31, got %d", c.Auth.SaltRounds))
	}
	if c.Cascade.StepTimeout <= 0 {
		errs = append(errs, errors.New("CASCADE_STEP_TIMEOUT must be positive"))
	} else if budget := cascadeDeadlines * c.Cascade.StepTimeout; c.Cascade.LockTTL <= budget {
		errs = append(errs, fmt.Errorf("CASCADE_LOCK_TTL must exceed %s (%d x CASCADE_STEP_TIMEOUT), got %s",
			budget, cascadeDeadlines, c.Cascade.LockTTL))
	}
	return errors.Join(errs...)
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration through the given lookuper and validates it.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
