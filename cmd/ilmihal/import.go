package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	cfnats "github.com/Strob0t/ilmihal/internal/adapter/nats"
	"github.com/Strob0t/ilmihal/internal/adapter/postgres"
	"github.com/Strob0t/ilmihal/internal/port/messagequeue"
	"github.com/Strob0t/ilmihal/internal/service"
)

var importFlags service.ImportRequest

var importCmd = &cobra.Command{
	Use:   "import <file.pdf>",
	Short: "Import a PDF as content rows",
	Long: `Extract the text of a PDF, split it into chunks and store one content
row per chunk in a single transaction. Running instances are told to switch
their row cache generation over NATS; when NATS is unreachable the rows are
still stored and caches catch up when their entries expire.`,
	Example: `  ilmihal import ilmihal-1.pdf --book "Büyük İslam İlmihali" --chapter Ibadet
  ilmihal import oruc.pdf --book "İlmihal" --chapter Ibadet --section Oruc --tags oruc,ramazan`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	f := importCmd.Flags()
	f.StringVar(&importFlags.BookName, "book", "", "book name (required)")
	f.StringVar(&importFlags.AuthorName, "author", "", "author name")
	f.StringVar(&importFlags.Chapter, "chapter", "", "chapter id (required)")
	f.StringVar(&importFlags.Section, "section", "", "section id (default: one section per page)")
	f.StringVar(&importFlags.Tags, "tags", "", "comma-separated tags")
	_ = importCmd.MarkFlagRequired("book")
	_ = importCmd.MarkFlagRequired("chapter")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, logCloser, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx := cmd.Context()

	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open pdf: %w", err)
	}
	defer func() { _ = file.Close() }()
	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat pdf: %w", err)
	}

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	store := postgres.NewStore(pool)

	var queue messagequeue.Queue
	if q, err := cfnats.Connect(ctx, cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, serving instances will not be notified", "error", err)
	} else {
		defer func() { _ = q.Close() }()
		queue = q
	}

	importer := service.NewImportService(store, service.NewCatechismService(store), queue, cfg.Import.MaxChunkChars)
	res, err := importer.Import(ctx, file, info.Size(), importFlags)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Imported %d rows from %d pages into %s (generation %s)\n",
		res.Rows, res.Pages, res.Chapter, res.Generation)
	return nil
}
