// Package config provides configuration loading and validation for the server
// and CLI. Values come from the environment; main loads a .env file first.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
)

// Server holds the process-level settings.
type Server struct {
	Port            int           `env:"PORT,default=8080"`
	DatabaseURL     string        `env:"DATABASE_URL,required"`
	CORSOrigins     string        `env:"CORS_ORIGINS,default=*"`
	LogLevel        string        `env:"LOG_LEVEL,default=info"`
	LogFormat       string        `env:"LOG_FORMAT,default=text"`
	NotifyLocale    string        `env:"NOTIFY_LOCALE,default=ar"`
	AMQPURL         string        `env:"AMQP_URL"`
	AMQPExchange    string        `env:"AMQP_EXCHANGE,default=jobni.events"`
	MigrateOnStart  bool          `env:"MIGRATE_ON_START,default=true"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=30s"`
}

// Load decodes the server configuration from the environment and validates it.
func Load() (*Server, error) {
	var cfg Server
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration has usable values.
func (c *Server) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config error: PORT out of range: %d", c.Port)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config error: LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	switch c.NotifyLocale {
	case "ar", "en":
	default:
		return fmt.Errorf("config error: NOTIFY_LOCALE must be ar or en, got %q", c.NotifyLocale)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("config error: SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

// Origins returns the allowed CORS origins.
func (c *Server) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Addr returns the listen address.
func (c *Server) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
