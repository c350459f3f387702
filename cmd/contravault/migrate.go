package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/contravault/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the SQLite schema",
		Long: `Apply, roll back or list SQLite schema migrations.

The MongoDB store needs no migrations; its indexes are created on connect.`,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSQLite(func(db *sql.DB) error {
				if err := storage.MigrateUp(db); err != nil {
					return err
				}
				return printApplied(cmd, db)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSQLite(func(db *sql.DB) error {
				if err := storage.MigrateDown(db); err != nil {
					return err
				}
				return printApplied(cmd, db)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List applied migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSQLite(func(db *sql.DB) error {
				return printApplied(cmd, db)
			})
		},
	})
	return cmd
}

func withSQLite(fn func(*sql.DB) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Storage.Driver != storage.DriverSQLite {
		return fmt.Errorf("migrate only applies to the sqlite driver, config uses %q", cfg.Storage.Driver)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.SQLitePath), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	db, err := storage.OpenSQLiteDB(cfg.Storage.SQLitePath)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

func printApplied(cmd *cobra.Command, db *sql.DB) error {
	applied, err := storage.AppliedMigrations(db)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(applied) == 0 {
		fmt.Fprintln(out, "no migrations applied")
		return nil
	}
	for _, name := range applied {
		fmt.Fprintln(out, name)
	}
	return nil
}
