// Copyright 2025 The Contacts API Authors
// Licensed under the EUPL-1.2

package config

import (
	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

var configFile = altsrc.StringSourcer("config.toml")

// Flags declares every configuration flag. Values resolve CLI first,
// then environment, then the TOML config file.
func Flags() []cli.Flag {
	return []cli.Flag{
		// Server settings
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Server host",
			Sources: cli.NewValueSourceChain(cli.EnvVar("HOST"), toml.TOML("server.host", configFile)),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "Server port",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PORT"), toml.TOML("server.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Base URL used in emailed links",
			Sources: cli.NewValueSourceChain(cli.EnvVar("BASE_URL"), toml.TOML("server.base_url", configFile)),
		},
		&cli.IntFlag{
			Name:    "max-body-size",
			Value:   8,
			Usage:   "Maximum request body size in MB",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MAX_BODY_SIZE"), toml.TOML("server.max_body_size", configFile)),
		},

		// Database
		&cli.StringFlag{
			Name:    "database",
			Value:   "./data/contacts.db",
			Usage:   "SQLite database path",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DATABASE"), toml.TOML("database.path", configFile)),
		},

		// Authentication
		&cli.StringFlag{
			Name:    "jwt-secret",
			Usage:   "Secret key for signing tokens",
			Sources: cli.NewValueSourceChain(cli.EnvVar("JWT_SECRET"), toml.TOML("auth.jwt_secret", configFile)),
		},
		&cli.IntFlag{
			Name:    "access-ttl-minutes",
			Value:   30,
			Usage:   "Access token lifetime in minutes",
			Sources: cli.NewValueSourceChain(cli.EnvVar("ACCESS_TTL_MINUTES"), toml.TOML("auth.access_ttl_minutes", configFile)),
		},
		&cli.IntFlag{
			Name:    "refresh-ttl-days",
			Value:   7,
			Usage:   "Refresh token lifetime in days",
			Sources: cli.NewValueSourceChain(cli.EnvVar("REFRESH_TTL_DAYS"), toml.TOML("auth.refresh_ttl_days", configFile)),
		},
		&cli.IntFlag{
			Name:    "action-ttl-hours",
			Value:   24,
			Usage:   "Email action token lifetime in hours",
			Sources: cli.NewValueSourceChain(cli.EnvVar("ACTION_TTL_HOURS"), toml.TOML("auth.action_ttl_hours", configFile)),
		},

		// Identity cache
		&cli.StringFlag{
			Name:    "redis-addr",
			Usage:   "Redis address (host:port); empty uses an in-process cache",
			Sources: cli.NewValueSourceChain(cli.EnvVar("REDIS_ADDR"), toml.TOML("redis.addr", configFile)),
		},
		&cli.StringFlag{
			Name:    "redis-password",
			Usage:   "Redis password",
			Sources: cli.NewValueSourceChain(cli.EnvVar("REDIS_PASSWORD"), toml.TOML("redis.password", configFile)),
		},
		&cli.IntFlag{
			Name:    "redis-db",
			Usage:   "Redis database index",
			Sources: cli.NewValueSourceChain(cli.EnvVar("REDIS_DB"), toml.TOML("redis.db", configFile)),
		},

		// SMTP
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP server host",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_HOST"), toml.TOML("smtp.host", configFile)),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Value:   587,
			Usage:   "SMTP server port",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_PORT"), toml.TOML("smtp.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			Usage:   "SMTP username",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_USERNAME"), toml.TOML("smtp.username", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "SMTP password",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_PASSWORD"), toml.TOML("smtp.password", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-from",
			Usage:   "From address for outgoing mail",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_FROM"), toml.TOML("smtp.from", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-from-name",
			Usage:   "Display name for outgoing mail",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_FROM_NAME"), toml.TOML("smtp.from_name", configFile)),
		},
		&cli.BoolFlag{
			Name:    "smtp-tls",
			Value:   true,
			Usage:   "Require TLS for SMTP",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_TLS"), toml.TOML("smtp.tls", configFile)),
		},

		// Avatar storage
		&cli.StringFlag{
			Name:    "s3-endpoint",
			Usage:   "S3-compatible endpoint; empty uses AWS",
			Sources: cli.NewValueSourceChain(cli.EnvVar("S3_ENDPOINT"), toml.TOML("s3.endpoint", configFile)),
		},
		&cli.StringFlag{
			Name:    "s3-region",
			Value:   "us-east-1",
			Usage:   "S3 region",
			Sources: cli.NewValueSourceChain(cli.EnvVar("S3_REGION"), toml.TOML("s3.region", configFile)),
		},
		&cli.StringFlag{
			Name:    "s3-bucket",
			Usage:   "S3 bucket for avatar images",
			Sources: cli.NewValueSourceChain(cli.EnvVar("S3_BUCKET"), toml.TOML("s3.bucket", configFile)),
		},
		&cli.StringFlag{
			Name:    "s3-access-key",
			Usage:   "S3 access key",
			Sources: cli.NewValueSourceChain(cli.EnvVar("S3_ACCESS_KEY"), toml.TOML("s3.access_key", configFile)),
		},
		&cli.StringFlag{
			Name:    "s3-secret-key",
			Usage:   "S3 secret key",
			Sources: cli.NewValueSourceChain(cli.EnvVar("S3_SECRET_KEY"), toml.TOML("s3.secret_key", configFile)),
		},
		&cli.StringFlag{
			Name:    "s3-public-base-url",
			Usage:   "Public base URL serving the bucket",
			Sources: cli.NewValueSourceChain(cli.EnvVar("S3_PUBLIC_BASE_URL"), toml.TOML("s3.public_base_url", configFile)),
		},

		// Logging
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level: debug, info, warn, error",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_LEVEL"), toml.TOML("log.level", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format: text, json",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_FORMAT"), toml.TOML("log.format", configFile)),
		},
	}
}
