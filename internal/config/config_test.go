package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreMongo, cfg.StoreDriver)
	assert.Equal(t, "neocare", cfg.MongoDatabase)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, time.Hour, cfg.ResetTokenTTL)
	assert.Equal(t, "@every 15m", cfg.ResetCleanup)
	assert.Equal(t, 5*time.Minute, cfg.HospitalCacheTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("JWT_TTL", "90m")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, 90*time.Minute, cfg.JWTTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Env:           "production",
			StoreDriver:   StoreMemory,
			JWTSecret:     "0123456789abcdef0123",
			JWTTTL:        time.Hour,
			ResetTokenTTL: time.Hour,
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing secret", func(c *Config) { c.JWTSecret = "" }},
		{"short secret outside development", func(c *Config) { c.JWTSecret = "short" }},
		{"unknown store", func(c *Config) { c.StoreDriver = "postgres" }},
		{"mongo without uri", func(c *Config) { c.StoreDriver = StoreMongo }},
		{"zero ttl", func(c *Config) { c.JWTTTL = 0 }},
		{"smtp without port", func(c *Config) { c.SMTPHost = "smtp.example" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}

	dev := valid()
	dev.Env = "development"
	dev.JWTSecret = "short"
	assert.NoError(t, dev.Validate())
}

func TestSeedsSuperadmin(t *testing.T) {
	c := &Config{SuperadminEmail: "root@neocare.local"}
	assert.False(t, c.SeedsSuperadmin())
	c.SuperadminPass = "changeme-now"
	assert.True(t, c.SeedsSuperadmin())
}
