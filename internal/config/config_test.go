package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8090", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Auth.AccessExpiry)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.NotEmpty(t, cfg.CORS.AllowedOrigins)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("FLEETDESK_SERVER_PORT", "9100")
	t.Setenv("FLEETDESK_JWT_ACCESS_EXPIRY_HOURS", "2")
	t.Setenv("FLEETDESK_CORS_ALLOWED_ORIGINS", "https://console.fleet.io, https://staging.fleet.io")
	t.Setenv("FLEETDESK_CORS_ALLOW_CREDENTIALS", "false")

	cfg := Load()
	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, 2*time.Hour, cfg.Auth.AccessExpiry)
	assert.Equal(t, []string{"https://console.fleet.io", "https://staging.fleet.io"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.CORS.AllowCredentials)
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "db", Port: "5433", User: "u", Password: "p", Name: "fleet", SSLMode: "require",
	}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=fleet sslmode=require", d.DSN())
}

func TestMalformedIntFallsBack(t *testing.T) {
	t.Setenv("FLEETDESK_SERVER_READ_TIMEOUT", "not-a-number")
	cfg := Load()
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
}
