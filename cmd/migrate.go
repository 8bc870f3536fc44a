// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/canonical/provider-sync-service/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down [version]|status|check]",
	Short: "Run database migrations",
	Long: `Apply or inspect the schema of tenants, connections, sync jobs and synced records.
The DSN defaults to the DSN environment variable.`,
	Args: migrateArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runMigrate(cmd, args); err != nil {
			cmd.PrintErrln(err)
			os.Exit(1)
		}
	},
}

func init() {
	migrateCmd.Flags().String("dsn", "", "PostgreSQL DSN connection string, defaults to $DSN")
	migrateCmd.Flags().StringP("format", "f", "text", "Output format (text or json)")

	rootCmd.AddCommand(migrateCmd)
}

func migrateArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.RangeArgs(0, 2)(cmd, args); err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}

	switch args[0] {
	case "up", "status", "check":
		if len(args) == 2 {
			return fmt.Errorf("%s takes no version", args[0])
		}
	case "down":
		if len(args) == 2 {
			if v, err := strconv.ParseInt(args[1], 10, 64); err != nil || v < 0 {
				return fmt.Errorf("invalid version number: %q", args[1])
			}
		}
	default:
		return fmt.Errorf("unknown migrate command: %q", args[0])
	}

	return nil
}

// migrator runs goose against the embedded migrations and reports either as
// text or as a single JSON document.
type migrator struct {
	provider *goose.Provider
	json     bool
	out      io.Writer
}

func runMigrate(cmd *cobra.Command, args []string) error {
	command := "up"
	if len(args) > 0 {
		command = args[0]
	}

	dsn, _ := cmd.Flags().GetString("dsn")
	if dsn == "" {
		dsn = os.Getenv("DSN")
	}
	switch dsn {
	case "":
		return fmt.Errorf("a DSN is required, pass --dsn or set DSN")
	case memoryDSN:
		return fmt.Errorf("the in-memory store has no schema to migrate")
	}

	format, _ := cmd.Flags().GetString("format")
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown output format: %q", format)
	}

	m, closeDB, err := newMigrator(cmd.Context(), dsn, format == "json", cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeDB()

	ctx := cmd.Context()

	switch command {
	case "down":
		target := int64(-1)
		if len(args) == 2 {
			target, _ = strconv.ParseInt(args[1], 10, 64)
		}
		return m.down(ctx, target)
	case "status":
		return m.status(ctx)
	case "check":
		return m.check(ctx)
	default:
		return m.up(ctx)
	}
}

func newMigrator(ctx context.Context, dsn string, asJSON bool, out io.Writer) (*migrator, func(), error) {
	config, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid DSN: %v", err)
	}

	db := stdlib.OpenDB(*config)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("database is unreachable: %v", err)
	}

	var opts []goose.ProviderOption
	if asJSON {
		opts = append(opts, goose.WithLogger(goose.NopLogger()))
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.EmbedMigrations, opts...)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to create goose provider: %w", err)
	}

	return &migrator{provider: provider, json: asJSON, out: out}, func() { _ = db.Close() }, nil
}

func (m *migrator) up(ctx context.Context) error {
	results, err := m.provider.Up(ctx)
	if err != nil {
		return err
	}

	return m.applied(results)
}

// down rolls back one migration, or every migration above target when target
// is not negative.
func (m *migrator) down(ctx context.Context, target int64) error {
	if target < 0 {
		result, err := m.provider.Down(ctx)
		if err != nil {
			return err
		}
		return m.applied([]*goose.MigrationResult{result})
	}

	results, err := m.provider.DownTo(ctx, target)
	if err != nil {
		return err
	}

	return m.applied(results)
}

func (m *migrator) status(ctx context.Context) error {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return err
	}

	if m.json {
		return json.NewEncoder(m.out).Encode(statuses)
	}

	fmt.Fprintf(m.out, "%-25s %s\n", "APPLIED AT", "MIGRATION")
	for _, s := range statuses {
		appliedAt := "pending"
		if s.State == goose.StateApplied {
			appliedAt = s.AppliedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(m.out, "%-25s %s\n", appliedAt, s.Source.Path)
	}

	return nil
}

// check fails while migrations are pending, the serve and worker commands
// expect an up to date schema.
func (m *migrator) check(ctx context.Context) error {
	pending, err := m.provider.HasPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to check pending migrations: %w", err)
	}

	current, err := m.provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read the schema version: %w", err)
	}

	state := "ok"
	if pending {
		state = "pending"
	}

	if m.json {
		if err := json.NewEncoder(m.out).Encode(map[string]any{"status": state, "version": current}); err != nil {
			return err
		}
	} else if !pending {
		fmt.Fprintf(m.out, "schema is up to date (version %d)\n", current)
	}

	if pending {
		return fmt.Errorf("migrations are pending, schema is at version %d", current)
	}
	return nil
}

func (m *migrator) applied(results []*goose.MigrationResult) error {
	if results == nil {
		results = []*goose.MigrationResult{}
	}

	if m.json {
		return json.NewEncoder(m.out).Encode(map[string]any{"applied": results})
	}

	for _, r := range results {
		fmt.Fprintf(m.out, "%-5s %s (%s)\n", r.Direction, r.Source.Path, r.Duration.Round(time.Millisecond))
	}
	return nil
}
