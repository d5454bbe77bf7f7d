package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("TSUNDOKU_CONFIG", "")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("TSUNDOKU_CONFIG", "")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("APP_ADDR", ":9090")
	t.Setenv("DB_TIMEOUT", "3s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,192.0.2.1")
	t.Setenv("RATE_LIMIT_BURST", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Database.Timeout.Duration)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.1"}, cfg.Server.TrustedProxies)
	assert.Equal(t, 7, cfg.Server.RateLimitBurst)
	assert.Equal(t, "ja", cfg.GoogleBooks.LangRestrict)
}

func TestLoad_TOMLFileThenEnv(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tsundoku.toml")
	content := `
[server]
addr = ":7070"
timezone = "UTC"

[database]
dsn = "postgres://u:p@db:5432/tsundoku"
timeout = "2s"

[auth]
jwt_secret = "from-file"

[redis]
cache_ttl = "1h"
`
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))

	t.Setenv("TSUNDOKU_CONFIG", p)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("APP_ADDR", ":6060")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":6060", cfg.Server.Addr, "env must win over the file")
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, 2*time.Second, cfg.Database.Timeout.Duration)
	assert.Equal(t, time.Hour, cfg.Redis.CacheTTL.Duration)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("TSUNDOKU_CONFIG", "")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestRedactDSN(t *testing.T) {
	assert.Equal(t, "postgres://***@localhost:5432/db", RedactDSN("postgres://user:pw@localhost:5432/db"))
	assert.Equal(t, "not-a-dsn", RedactDSN("not-a-dsn"))
}

func TestLocation_Fallback(t *testing.T) {
	cfg := Default()
	cfg.Server.Timezone = "Nowhere/Invalid"
	assert.Equal(t, time.UTC, cfg.Location())
}
