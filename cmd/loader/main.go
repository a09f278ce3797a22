// Command loader ingests a list of extract files from the command line:
//
//	loader calls.csv contacts.csv sms.csv
//
// Each file is classified, validated, and inserted independently; a rejected
// file never stops the rest of the batch. The exit code is non-zero when any
// file failed.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"extractdb/internal/config"
	"extractdb/internal/core"
	_ "extractdb/internal/core/schemas" // register all record schemas
	"extractdb/internal/logging"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		slog.Error("no input files; usage: loader <file.csv> [file.csv ...]")
		os.Exit(2)
	}

	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	referenceYear := cfg.Ingest.ReferenceYear
	if referenceYear == 0 {
		referenceYear = time.Now().Year()
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := core.NewStore(pool)
	if err := core.EnsureTables(ctx, store); err != nil {
		slog.Error("failed to create tables", "error", err)
		os.Exit(1)
	}

	pipeline := core.NewPipeline(store, core.Normalizer{ReferenceYear: referenceYear})
	pipeline.SetMaxFileSize(cfg.Ingest.MaxFileSize)
	runner := core.NewRunner(pipeline)

	sources := make([]core.Source, flag.NArg())
	for i, path := range flag.Args() {
		sources[i] = core.FileSource(path)
	}

	results := runner.IngestAll(ctx, sources)

	failed := 0
	for _, result := range results {
		if result.Failed() {
			failed++
			slog.Warn("file rejected",
				"source", result.Source,
				"schema", result.Schema,
				"error", result.Err,
			)
			continue
		}
		slog.Info("file ingested",
			"source", result.Source,
			"schema", result.Schema,
			"rows", result.Inserted,
			"field_errors", len(result.FieldErrors),
			"duration", result.Duration,
		)
	}
	slog.Info("batch complete",
		"files", len(results),
		"failed", failed,
	)
	if failed > 0 {
		os.Exit(1)
	}
}
