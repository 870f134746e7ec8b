package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.True(t, cfg.MigrateOnStart)
	assert.Equal(t, 24*time.Hour, cfg.Auth.AccessExpiration)
	assert.Equal(t, 168*time.Hour, cfg.Auth.RefreshExpiration)
	assert.Equal(t, 8, cfg.Auth.SaltRounds)
	assert.Equal(t, "catalog", cfg.Mongo.Database)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 10*time.Second, cfg.Cascade.StepTimeout)
	assert.Equal(t, 60*time.Second, cfg.Cascade.LockTTL)
	assert.Equal(t, 4, cfg.Cascade.AuditWorkers)
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":           "s3cret",
		"ENV":                  "production",
		"SALT_ROUNDS":          "12",
		"CASCADE_STEP_TIMEOUT": "2s",
		"MIGRATE_ON_START":     "false",
		"REDIS_PASSWORD":       "pw",
	}))
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.False(t, cfg.MigrateOnStart)
	assert.Equal(t, 12, cfg.Auth.SaltRounds)
	assert.Equal(t, 2*time.Second, cfg.Cascade.StepTimeout)
	assert.Equal(t, "pw", cfg.Redis.Password)
}

func TestLoadWith_MissingSecret(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadWith_InvalidSaltRounds(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":  "s3cret",
		"SALT_ROUNDS": "2",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SALT_ROUNDS")
}

func TestLoadWith_MalformedDuration(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":     "s3cret",
		"JWT_EXPIRATION": "tomorrow",
	}))
	assert.Error(t, err)
}

func TestLoadWith_LockMustOutliveCascade(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":           "s3cret",
		"CASCADE_STEP_TIMEOUT": "10s",
		"CASCADE_LOCK_TTL":     "30s",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CASCADE_LOCK_TTL")

	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":           "s3cret",
		"CASCADE_STEP_TIMEOUT": "5s",
		"CASCADE_LOCK_TTL":     "21s",
	}))
	require.NoError(t, err)
	assert.Equal(t, 21*time.Second, cfg.Cascade.LockTTL)
}
