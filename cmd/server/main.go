// Copyright 2025 The Contacts API Authors
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/contactshq/contacts-api/internal/config"
	"github.com/contactshq/contacts-api/internal/database"
	"github.com/contactshq/contacts-api/internal/server"
	"github.com/urfave/cli/v3"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	cmd := &cli.Command{
		Name:     "contacts-api",
		Usage:    "Contacts management API server",
		Version:  fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Flags:    config.Flags(),
		Action:   server.Run,
		Commands: []*cli.Command{migrateCommand()},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// migrateCommand exposes the goose rollback helpers. Migrating up is
// implicit: the server applies pending migrations on startup.
func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema",
		Commands: []*cli.Command{
			{
				Name:   "down",
				Usage:  "Roll back the most recent migration",
				Flags:  config.Flags(),
				Action: migrateAction(database.MigrateDown),
			},
			{
				Name:   "reset",
				Usage:  "Roll back all migrations",
				Flags:  config.Flags(),
				Action: migrateAction(database.MigrateReset),
			},
		},
	}
}

func migrateAction(step func(*sql.DB) error) cli.ActionFunc {
	return func(_ context.Context, cmd *cli.Command) error {
		cfg := config.NewFromCLI(cmd)
		db, err := database.Connect(cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer func() {
			_ = db.Close()
		}()
		return step(db.DB)
	}
}
