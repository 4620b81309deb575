// brokerdocsd watches an intake directory and files every incoming PDF
// into the customer archive of one broker.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bkoehler/brokerdocs/internal/archive"
	"github.com/bkoehler/brokerdocs/internal/common"
	"github.com/bkoehler/brokerdocs/internal/pdftext"
	"github.com/bkoehler/brokerdocs/internal/pipeline"
	"github.com/bkoehler/brokerdocs/internal/repository"
	"github.com/bkoehler/brokerdocs/internal/resolve"
)

func main() {
	// Logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	log := logger.Sugar()

	// Env
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Watch.Root == "" {
		log.Fatal("WATCH_ROOT env var is required")
	}
	brokerSlug := os.Getenv("BROKER_SLUG")
	if brokerSlug == "" {
		log.Fatal("BROKER_SLUG env var is required")
	}

	// Context with signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The pipeline logs through slog; keep that surface on stdout JSON.
	slogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(slogger)

	store, err := repository.Open(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, slogger)
	if err != nil {
		log.Fatalf("opening DB: %v", err)
	}
	defer store.Close()

	broker, err := resolveBroker(ctx, store, brokerSlug)
	if err != nil {
		log.Fatalf("broker %q: %v", brokerSlug, err)
	}
	log.Infow("watching intake", "broker", brokerSlug, "root", cfg.Watch.Root)

	extractor := pdftext.NewExtractor(pdftext.Config{
		Pdftotext: cfg.PDF.Pdftotext,
		Timeout:   cfg.PDF.Timeout,
		MaxPages:  cfg.PDF.MaxPages,
	}, slogger)
	resolver := resolve.NewResolver(store.Customers(), slogger)
	arch := archive.New(cfg.Archive.Root, cfg.Archive.UnassignedRoot, slogger)
	processor := pipeline.NewProcessor(extractor, resolver, arch, store.Documents(), store.Brokers(), slogger)

	ctx = common.WithBrokerID(ctx, broker.String())
	err = processor.Watch(ctx, broker, pipeline.WatchConfig{
		Root:        cfg.Watch.Root,
		InitialScan: cfg.Watch.InitialScan,
		Debounce:    cfg.Watch.Debounce,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("watcher: %v", err)
	}
	fmt.Println("stopped.")
}

func resolveBroker(ctx context.Context, store *repository.Store, slug string) (uuid.UUID, error) {
	broker, err := store.Brokers().GetBySlug(ctx, slug)
	if err != nil {
		return uuid.Nil, err
	}
	return broker.ID, nil
}
