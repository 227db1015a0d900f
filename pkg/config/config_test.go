package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("EMAIL_PROVIDER", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.True(t, cfg.IsLocalMode())
	assert.Equal(t, "log", cfg.EmailProvider)
	assert.Equal(t, "SIP Portal", cfg.EmailFromName)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 14*24*time.Hour, cfg.OutboxRetention())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://mentora@localhost/mentora")
	t.Setenv("OUTBOX_BATCH_SIZE", "25")
	t.Setenv("OUTBOX_PROCESSOR_ENABLED", "false")
	t.Setenv("DIRECTORY_CACHE_TTL", "90s")
	t.Setenv("EMAIL_PROVIDER", "LOG")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.IsLocalMode())
	assert.Equal(t, 25, cfg.OutboxBatchSize)
	assert.False(t, cfg.OutboxProcessorEnabled)
	assert.Equal(t, 90*time.Second, cfg.DirectoryCacheTTL)
	assert.Equal(t, "log", cfg.EmailProvider)
}

func TestLoad_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("OUTBOX_MAX_RETRIES", "many")
	t.Setenv("JWT_TTL", "forever")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.OutboxMaxRetries)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "production without secret", mutate: func(c *Config) { c.AppEnv = "production" }, wantErr: "JWT_SECRET"},
		{name: "gmail without credentials", mutate: func(c *Config) { c.EmailProvider = "gmail" }, wantErr: "GMAIL_CLIENT_ID"},
		{name: "unknown provider", mutate: func(c *Config) { c.EmailProvider = "pigeon" }, wantErr: "pigeon"},
		{name: "valid", mutate: func(c *Config) {}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{AppEnv: "development", EmailProvider: "log", OutboxBatchSize: 10}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
