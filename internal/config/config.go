// Copyright 2025 The Contacts API Authors
// Licensed under the EUPL-1.2

// Package config holds process configuration, built once at startup and
// injected into every service.
package config

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
)

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Redis    RedisConfig
	SMTP     SMTPConfig
	S3       S3Config
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host        string
	Port        int
	BaseURL     string
	MaxBodySize int // in MB
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct {
	DSN string
}

type AuthConfig struct { //nolint:govet // fieldalignment not critical
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ActionTTL  time.Duration
}

type RedisConfig struct { //nolint:govet // fieldalignment not critical
	Addr     string // empty means in-process cache
	Password string
	DB       int
}

type SMTPConfig struct { //nolint:govet // fieldalignment not critical
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
}

type S3Config struct { //nolint:govet // fieldalignment not critical
	Endpoint      string // empty means AWS
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

func NewFromCLI(cmd *cli.Command) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:        cmd.String("host"),
			Port:        int(cmd.Int("port")),
			BaseURL:     cmd.String("base-url"),
			MaxBodySize: int(cmd.Int("max-body-size")),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			DSN: cmd.String("database"),
		},
		Auth: AuthConfig{
			JWTSecret:  cmd.String("jwt-secret"),
			AccessTTL:  time.Duration(cmd.Int("access-ttl-minutes")) * time.Minute,
			RefreshTTL: time.Duration(cmd.Int("refresh-ttl-days")) * 24 * time.Hour,
			ActionTTL:  time.Duration(cmd.Int("action-ttl-hours")) * time.Hour,
		},
		Redis: RedisConfig{
			Addr:     cmd.String("redis-addr"),
			Password: cmd.String("redis-password"),
			DB:       int(cmd.Int("redis-db")),
		},
		SMTP: SMTPConfig{
			Host:     cmd.String("smtp-host"),
			Port:     int(cmd.Int("smtp-port")),
			Username: cmd.String("smtp-username"),
			Password: cmd.String("smtp-password"),
			From:     cmd.String("smtp-from"),
			FromName: cmd.String("smtp-from-name"),
			TLS:      cmd.Bool("smtp-tls"),
		},
		S3: S3Config{
			Endpoint:      cmd.String("s3-endpoint"),
			Region:        cmd.String("s3-region"),
			Bucket:        cmd.String("s3-bucket"),
			AccessKey:     cmd.String("s3-access-key"),
			SecretKey:     cmd.String("s3-secret-key"),
			PublicBaseURL: cmd.String("s3-public-base-url"),
		},
	}

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = buildBaseURL(cfg)
	}

	return cfg
}

// buildBaseURL derives the base URL from host and port.
func buildBaseURL(cfg *Config) string {
	host := cfg.Server.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	if cfg.Server.Port == 80 {
		return fmt.Sprintf("http://%s", host)
	}
	return fmt.Sprintf("http://%s:%d", host, cfg.Server.Port)
}

// Validate checks the parts of the configuration without usable
// defaults.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt-secret is required")
	}
	return nil
}
