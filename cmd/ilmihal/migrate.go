package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Strob0t/ilmihal/internal/adapter/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrator(cmd, func(ctx context.Context, m *postgres.Migrator) error {
			n, err := m.Up(ctx)
			if err != nil {
				return err
			}
			slog.Info("migrations applied", "count", n)
			return nil
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		steps, _ := cmd.Flags().GetInt("steps")
		if steps < 1 {
			return fmt.Errorf("--steps must be >= 1")
		}
		return withMigrator(cmd, func(ctx context.Context, m *postgres.Migrator) error {
			if err := m.Down(ctx, steps); err != nil {
				return err
			}
			v, err := m.Version(ctx)
			if err != nil {
				return err
			}
			slog.Info("migrations rolled back", "steps", steps, "version", v)
			return nil
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List migrations and whether they are applied",
	Long: `List every embedded migration. A table is printed when stdout is a
terminal, JSON otherwise.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrator(cmd, func(ctx context.Context, m *postgres.Migrator) error {
			st, err := m.Status(ctx)
			if err != nil {
				return err
			}
			if term.IsTerminal(int(os.Stdout.Fd())) { //nolint:gosec // fd fits in int
				return printStatusTable(os.Stdout, st)
			}
			return printStatusJSON(os.Stdout, st)
		})
	},
}

func init() {
	migrateDownCmd.Flags().Int("steps", 1, "number of migrations to roll back")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

func withMigrator(cmd *cobra.Command, fn func(context.Context, *postgres.Migrator) error) error {
	cfg, logCloser, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	m, err := postgres.NewMigrator(cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	return fn(cmd.Context(), m)
}

func printStatusTable(out io.Writer, st []postgres.MigrationStatus) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "VERSION\tAPPLIED\tFILE")
	for _, s := range st {
		_, _ = fmt.Fprintf(w, "%d\t%t\t%s\n", s.Version, s.Applied, s.Path)
	}
	return w.Flush()
}

type migrationJSON struct {
	Version int64  `json:"version"`
	File    string `json:"file"`
	Applied bool   `json:"applied"`
}

func printStatusJSON(out io.Writer, st []postgres.MigrationStatus) error {
	rows := make([]migrationJSON, 0, len(st))
	for _, s := range st {
		rows = append(rows, migrationJSON{Version: s.Version, File: s.Path, Applied: s.Applied})
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
