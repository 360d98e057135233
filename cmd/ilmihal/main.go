// Command ilmihal serves the catechism content API, the contact inbox and
// the chatbot gateway, and manages schema migrations and PDF imports.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Strob0t/ilmihal/internal/config"
	"github.com/Strob0t/ilmihal/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "ilmihal",
	Short: "ilmihal content service",
	Long: `ilmihal serves catechism content as a chapter → section → subsection tree.

Content rows live in PostgreSQL and are cached in-process (ristretto) and
across instances (NATS KV). Readers can send contact messages and ask the
chatbot a limited number of free questions.`,
	SilenceUsage: true,
}

func init() {
	config.AddFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(importCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves defaults < YAML < ENV < the command's flags and
// installs the configured logger as the slog default.
func loadConfig(cmd *cobra.Command) (*config.Config, logger.Closer, error) {
	cfg, path, err := config.LoadWithCLI(config.FlagsFrom(cmd.Flags()))
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}

	log, closer := logger.New(cfg.Logging)
	slog.SetDefault(log)

	slog.Info("config loaded",
		"file", path,
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
		"counter_backend", cfg.Chat.CounterBackend,
	)
	return cfg, closer, nil
}
