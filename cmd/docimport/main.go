// docimport ingests one PDF or a whole directory from the command line
// and prints the per-file results as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/bkoehler/brokerdocs/internal/archive"
	"github.com/bkoehler/brokerdocs/internal/common"
	"github.com/bkoehler/brokerdocs/internal/entity"
	"github.com/bkoehler/brokerdocs/internal/pdftext"
	"github.com/bkoehler/brokerdocs/internal/pipeline"
	"github.com/bkoehler/brokerdocs/internal/repository"
	"github.com/bkoehler/brokerdocs/internal/resolve"
	"github.com/bkoehler/brokerdocs/internal/service"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		inmem      = flag.Bool("inmem", false, "use an in-memory SQLite database")
		broker     = flag.String("broker", "", "broker slug (created if missing with -inmem)")
		file       = flag.String("file", "", "single PDF to ingest")
		dir        = flag.String("dir", "", "directory to ingest recursively")
		skipHidden = flag.Bool("skip-hidden", true, "skip dot-files and dot-directories")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *broker == "" {
		printError("Error: --broker is required\n")
		os.Exit(1)
	}
	if (*file == "") == (*dir == "") {
		printError("Error: exactly one of --file or --dir is required\n")
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx := common.WithRequestID(context.Background(), uuid.NewString())

	cfg := common.LoadConfig()
	if *inmem {
		cfg.Database.DSN = ":memory:"
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	store, err := repository.Open(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		printError("Error: opening DB: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	brokerID, err := ensureBroker(ctx, store, *broker, *inmem)
	if err != nil {
		printError("Error: broker %q: %v\n", *broker, err)
		os.Exit(1)
	}
	ctx = common.WithBrokerID(ctx, brokerID.String())

	extractor := pdftext.NewExtractor(pdftext.Config{
		Pdftotext: cfg.PDF.Pdftotext,
		Timeout:   cfg.PDF.Timeout,
		MaxPages:  cfg.PDF.MaxPages,
	}, logger)
	resolver := resolve.NewResolver(store.Customers(), logger)
	arch := archive.New(cfg.Archive.Root, cfg.Archive.UnassignedRoot, logger)
	processor := pipeline.NewProcessor(extractor, resolver, arch, store.Documents(), store.Brokers(), logger)
	svc := service.NewIngestService(processor, store.Brokers(), logger)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if *file != "" {
		r, err := svc.IngestFile(ctx, service.FileIngestRequest{Path: *file})
		if err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		_ = enc.Encode(r)
		return
	}

	res, err := svc.IngestDirectory(ctx, service.DirectoryIngestRequest{
		RootPath:   *dir,
		SkipHidden: *skipHidden,
	})
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	_ = enc.Encode(res)
	if res.Statistics.Failed > 0 {
		os.Exit(1)
	}
}

// ensureBroker looks the slug up; with -inmem a fresh database has no
// brokers, so it creates one on the fly.
func ensureBroker(ctx context.Context, store *repository.Store, slug string, createMissing bool) (uuid.UUID, error) {
	b, err := store.Brokers().GetBySlug(ctx, slug)
	if err == nil {
		return b.ID, nil
	}
	if !createMissing {
		return uuid.Nil, err
	}
	nb := &entity.Broker{Name: slug, Slug: slug}
	if cerr := store.Brokers().Create(ctx, nb); cerr != nil {
		return uuid.Nil, cerr
	}
	return nb.ID, nil
}
