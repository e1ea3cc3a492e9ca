package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix is stripped from environment variable names. A double
	// underscore separates sections, e.g. COSMOBLOG_DATABASE__URL.
	EnvPrefix = "COSMOBLOG_"

	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Primary       Primary             `koanf:"primary"`
	Server        ServerConfig        `koanf:"server"`
	Database      DatabaseConfig      `koanf:"database"`
	Auth          AuthConfig          `koanf:"auth"`
	Webhook       WebhookConfig       `koanf:"webhook"`
	Observability ObservabilityConfig `koanf:"observability"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required,oneof=development production"`
}

type ServerConfig struct {
	Port         string `koanf:"port" validate:"required"`
	ReadTimeout  int    `koanf:"read_timeout" validate:"gte=0"`
	WriteTimeout int    `koanf:"write_timeout" validate:"gte=0"`
	IdleTimeout  int    `koanf:"idle_timeout" validate:"gte=0"`

	// CORSAllowedOrigins is a comma-separated allow-list. When empty the
	// per-environment default from Origins() applies.
	CORSAllowedOrigins string `koanf:"cors_allowed_origins"`
}

type DatabaseConfig struct {
	URL string `koanf:"url" validate:"required"`

	// ConnectTimeout bounds the whole connection bootstrap, in seconds.
	ConnectTimeout  int `koanf:"connect_timeout" validate:"gt=0"`
	ConnectAttempts int `koanf:"connect_attempts" validate:"gt=0"`
	MaxConns        int `koanf:"max_conns" validate:"gt=0"`
}

type AuthConfig struct {
	// SessionSecret signs and verifies session tokens.
	SessionSecret string `koanf:"session_secret" validate:"required"`
}

type WebhookConfig struct {
	// Secret is the shared secret the sender signs delivery bodies with.
	Secret string `koanf:"secret" validate:"required"`
}

type ObservabilityConfig struct {
	// LicenseKey enables the New Relic agent when set.
	LicenseKey string `koanf:"license_key"`
	AppName    string `koanf:"app_name"`
}

// LoadConfig reads configuration from COSMOBLOG_-prefixed environment
// variables, applies defaults and validates the result.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.applyDefaults()

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Primary.Env == "" {
		c.Primary.Env = EnvDevelopment
	}
	if c.Server.Port == "" {
		c.Server.Port = "3000"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60
	}
	if c.Database.ConnectTimeout == 0 {
		if c.IsProduction() {
			c.Database.ConnectTimeout = 40
		} else {
			c.Database.ConnectTimeout = 10
		}
	}
	if c.Database.ConnectAttempts == 0 {
		c.Database.ConnectAttempts = 3
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = 10
	}
	if c.Observability.AppName == "" {
		c.Observability.AppName = "cosmoblog"
	}
}

func (c *Config) IsProduction() bool {
	return c.Primary.Env == EnvProduction
}

// Origins returns the CORS allow-list. Without explicit configuration the
// production deployment allows only the deployed frontend and development
// allows the local Vite server.
func (c *Config) Origins() []string {
	if raw := strings.TrimSpace(c.Server.CORSAllowedOrigins); raw != "" {
		parts := strings.Split(raw, ",")
		origins := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				origins = append(origins, p)
			}
		}
		return origins
	}
	if c.IsProduction() {
		return []string{"https://cosmoblog-frontend1.onrender.com"}
	}
	return []string{"http://localhost:5173"}
}
