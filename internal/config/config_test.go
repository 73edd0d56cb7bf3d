// Copyright 2025 The Contacts API Authors
// Licensed under the EUPL-1.2

package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli/v3"
)

func TestBuildBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *Config
		expected string
	}{
		{
			name:     "localhost default port hidden",
			cfg:      &Config{Server: ServerConfig{Host: "localhost", Port: 80}},
			expected: "http://localhost",
		},
		{
			name:     "localhost custom port",
			cfg:      &Config{Server: ServerConfig{Host: "localhost", Port: 8080}},
			expected: "http://localhost:8080",
		},
		{
			name:     "bind-all address becomes localhost",
			cfg:      &Config{Server: ServerConfig{Host: "0.0.0.0", Port: 8080}},
			expected: "http://localhost:8080",
		},
		{
			name:     "empty host becomes localhost",
			cfg:      &Config{Server: ServerConfig{Port: 8080}},
			expected: "http://localhost:8080",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildBaseURL(tt.cfg))
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.Validate())

	cfg.Auth.JWTSecret = "secret"
	assert.NoError(t, cfg.Validate())
}

func TestFlags(t *testing.T) {
	flags := Flags()
	assert.NotEmpty(t, flags)

	flagNames := make(map[string]bool)
	for _, f := range flags {
		for _, name := range f.Names() {
			flagNames[name] = true
		}
	}

	assert.True(t, flagNames["host"], "should have host flag")
	assert.True(t, flagNames["port"], "should have port flag")
	assert.True(t, flagNames["jwt-secret"], "should have jwt-secret flag")
	assert.True(t, flagNames["database"], "should have database flag")
	assert.True(t, flagNames["redis-addr"], "should have redis-addr flag")
	assert.True(t, flagNames["smtp-host"], "should have smtp-host flag")
	assert.True(t, flagNames["s3-bucket"], "should have s3-bucket flag")
	assert.True(t, flagNames["log-level"], "should have log-level flag")
}

func TestNewFromCLI(t *testing.T) {
	app := &cli.Command{
		Name:  "test",
		Flags: Flags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg := NewFromCLI(cmd)

			assert.NotNil(t, cfg)
			assert.Equal(t, "localhost", cfg.Server.Host)
			assert.Equal(t, 8080, cfg.Server.Port)
			assert.Equal(t, "./data/contacts.db", cfg.Database.DSN)
			assert.Equal(t, 30*time.Minute, cfg.Auth.AccessTTL)
			assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTTL)
			assert.Equal(t, 24*time.Hour, cfg.Auth.ActionTTL)
			assert.Equal(t, 587, cfg.SMTP.Port)
			assert.True(t, cfg.SMTP.TLS)
			assert.Equal(t, "us-east-1", cfg.S3.Region)
			assert.Equal(t, "info", cfg.Log.Level)
			assert.Equal(t, "text", cfg.Log.Format)

			// BaseURL is derived when not given
			assert.Equal(t, "http://localhost:8080", cfg.Server.BaseURL)

			return nil
		},
	}

	err := app.Run(context.Background(), []string{"test"})
	assert.NoError(t, err)
}

func TestNewFromCLI_WithCustomValues(t *testing.T) {
	app := &cli.Command{
		Name:  "test",
		Flags: Flags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg := NewFromCLI(cmd)

			assert.Equal(t, "0.0.0.0", cfg.Server.Host)
			assert.Equal(t, 9000, cfg.Server.Port)
			assert.Equal(t, "https://api.example.com", cfg.Server.BaseURL)
			assert.Equal(t, "top-secret", cfg.Auth.JWTSecret)
			assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL)
			assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
			assert.Equal(t, "debug", cfg.Log.Level)

			return nil
		},
	}

	args := []string{
		"test",
		"--host", "0.0.0.0",
		"--port", "9000",
		"--base-url", "https://api.example.com",
		"--jwt-secret", "top-secret",
		"--access-ttl-minutes", "15",
		"--redis-addr", "localhost:6379",
		"--log-level", "debug",
	}
	err := app.Run(context.Background(), args)
	assert.NoError(t, err)
}
