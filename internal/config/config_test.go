package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearServerEnv blanks every variable Load reads so tests start from defaults.
func clearServerEnv(t *testing.T) {
	for _, key := range []string{
		"PORT", "DATABASE_URL", "CORS_ORIGINS", "LOG_LEVEL", "LOG_FORMAT",
		"NOTIFY_LOCALE", "AMQP_URL", "AMQP_EXCHANGE", "MIGRATE_ON_START", "SHUTDOWN_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearServerEnv(t)
	t.Setenv("DATABASE_URL", "memory://")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "memory://", cfg.DatabaseURL)
	assert.Equal(t, []string{"*"}, cfg.Origins())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "ar", cfg.NotifyLocale)
	assert.Empty(t, cfg.AMQPURL)
	assert.Equal(t, "jobni.events", cfg.AMQPExchange)
	assert.True(t, cfg.MigrateOnStart)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoad_Overrides(t *testing.T) {
	clearServerEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/jobni")
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("NOTIFY_LOCALE", "en")
	t.Setenv("MIGRATE_ON_START", "false")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Origins())
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "en", cfg.NotifyLocale)
	assert.False(t, cfg.MigrateOnStart)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	clearServerEnv(t)

	cfg, err := Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestValidate(t *testing.T) {
	valid := Server{Port: 8080, LogFormat: "text", NotifyLocale: "ar", ShutdownTimeout: time.Second}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Server)
		want   string
	}{
		{"port", func(s *Server) { s.Port = 70000 }, "PORT"},
		{"log format", func(s *Server) { s.LogFormat = "xml" }, "LOG_FORMAT"},
		{"locale", func(s *Server) { s.NotifyLocale = "fr" }, "NOTIFY_LOCALE"},
		{"shutdown", func(s *Server) { s.ShutdownTimeout = 0 }, "SHUTDOWN_TIMEOUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
