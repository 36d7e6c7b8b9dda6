package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CFBD_API_KEY", "key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.collegefootballdata.com", cfg.CFBDBaseURL)
	assert.Equal(t, time.Second, cfg.CFBDMinDelay)
	assert.Equal(t, BackendFile, cfg.CacheBackend)
	assert.Equal(t, BackendFile, cfg.LedgerBackend)
	assert.Equal(t, "0 */6 * * *", cfg.FeedCron)
	assert.Equal(t, 3, cfg.MoverThreshold)
	assert.False(t, cfg.UsesRedis())
}

func TestLoad_RequiresAPIKey(t *testing.T) {
	t.Setenv("CFBD_API_KEY", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			CFBDAPIKey:     "key",
			CacheBackend:   BackendFile,
			LedgerBackend:  BackendFile,
			QueueBackend:   BackendFile,
			Probe:          "rankings",
			MoverThreshold: 3,
			GameLimit:      3,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "redis cache", mutate: func(c *Config) { c.CacheBackend = BackendRedis }},
		{name: "unknown cache", mutate: func(c *Config) { c.CacheBackend = "s3" }, wantErr: true},
		{name: "postgres ledger without password", mutate: func(c *Config) { c.LedgerBackend = BackendPostgres }, wantErr: true},
		{name: "postgres ledger", mutate: func(c *Config) {
			c.LedgerBackend = BackendPostgres
			c.DatabasePassword = "secret"
		}},
		{name: "redis ledger", mutate: func(c *Config) { c.LedgerBackend = BackendRedis }, wantErr: true},
		{name: "unknown probe", mutate: func(c *Config) { c.Probe = "records" }, wantErr: true},
		{name: "zero threshold", mutate: func(c *Config) { c.MoverThreshold = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSeasonFor(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, 2024, cfg.SeasonFor(time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2024, cfg.SeasonFor(time.Date(2025, time.January, 9, 0, 0, 0, 0, time.UTC)))

	cfg.Season = 2019
	assert.Equal(t, 2019, cfg.SeasonFor(time.Now()))
}

func TestConnectionHelpers(t *testing.T) {
	cfg := &Config{RedisHost: "cache.internal", RedisPort: 6380, DatabasePort: 5433, AppEnv: "development"}

	assert.Equal(t, "cache.internal:6380", cfg.RedisAddr())
	assert.Equal(t, "5433", cfg.DatabasePortString())
	assert.True(t, cfg.IsDevelopment())

	cfg.AppEnv = "production"
	assert.False(t, cfg.IsDevelopment())
}
