package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	Port             string        `mapstructure:"PORT"`
	Env              string        `mapstructure:"ENV"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	StoreDriver      string        `mapstructure:"STORE_DRIVER"`
	MongoURI         string        `mapstructure:"MONGO_URI"`
	MongoDatabase    string        `mapstructure:"MONGO_DATABASE"`
	MongoTimeout     time.Duration `mapstructure:"MONGO_TIMEOUT"`
	JWTSecret        string        `mapstructure:"JWT_SECRET"`
	JWTTTL           time.Duration `mapstructure:"JWT_TTL"`
	BcryptCost       int           `mapstructure:"BCRYPT_COST"`
	RedisURL         string        `mapstructure:"REDIS_URL"`
	HospitalCacheTTL time.Duration `mapstructure:"HOSPITAL_CACHE_TTL"`
	CORSOrigins      []string      `mapstructure:"CORS_ORIGINS"`
	SMTPHost         string        `mapstructure:"SMTP_HOST"`
	SMTPPort         int           `mapstructure:"SMTP_PORT"`
	SMTPUsername     string        `mapstructure:"SMTP_USERNAME"`
	SMTPPassword     string        `mapstructure:"SMTP_PASSWORD"`
	MailFrom         string        `mapstructure:"MAIL_FROM"`
	AppBaseURL       string        `mapstructure:"APP_BASE_URL"`
	ResetTokenTTL    time.Duration `mapstructure:"RESET_TOKEN_TTL"`
	ResetCleanup     string        `mapstructure:"RESET_CLEANUP_SCHEDULE"`
	SuperadminName   string        `mapstructure:"SUPERADMIN_NAME"`
	SuperadminEmail  string        `mapstructure:"SUPERADMIN_EMAIL"`
	SuperadminPass   string        `mapstructure:"SUPERADMIN_PASSWORD"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL", "STORE_DRIVER",
	"MONGO_URI", "MONGO_DATABASE", "MONGO_TIMEOUT",
	"JWT_SECRET", "JWT_TTL", "BCRYPT_COST",
	"REDIS_URL", "HOSPITAL_CACHE_TTL", "CORS_ORIGINS",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "MAIL_FROM",
	"APP_BASE_URL", "RESET_TOKEN_TTL", "RESET_CLEANUP_SCHEDULE",
	"SUPERADMIN_NAME", "SUPERADMIN_EMAIL", "SUPERADMIN_PASSWORD",
}

// Load reads configuration from the environment, falling back to a .env file in the
// working directory when present.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", StoreMongo)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "neocare")
	v.SetDefault("MONGO_TIMEOUT", "10s")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("HOSPITAL_CACHE_TTL", "5m")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("MAIL_FROM", "no-reply@neocare.local")
	v.SetDefault("APP_BASE_URL", "http://localhost:3000")
	v.SetDefault("RESET_TOKEN_TTL", "1h")
	v.SetDefault("RESET_CLEANUP_SCHEDULE", "@every 15m")
	v.SetDefault("SUPERADMIN_NAME", "Platform Admin")

	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	// A missing .env is fine.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMongo:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			return fmt.Errorf("MONGO_URI and MONGO_DATABASE are required when STORE_DRIVER is %q", StoreMongo)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreMongo, StoreMemory, c.StoreDriver)
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if !c.IsDev() && len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 bytes outside development, got %d", len(c.JWTSecret))
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.ResetTokenTTL <= 0 {
		return fmt.Errorf("RESET_TOKEN_TTL must be positive")
	}
	if c.SMTPHost != "" && c.SMTPPort <= 0 {
		return fmt.Errorf("SMTP_PORT is required when SMTP_HOST is set")
	}
	return nil
}

// SeedsSuperadmin reports whether serve should ensure a superadmin account at startup.
func (c *Config) SeedsSuperadmin() bool {
	return c.SuperadminEmail != "" && c.SuperadminPass != ""
}
