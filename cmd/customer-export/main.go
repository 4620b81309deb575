// customer-export writes a broker's customer base to an XLSX file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/bkoehler/brokerdocs/internal/common"
	"github.com/bkoehler/brokerdocs/internal/repository"
	"github.com/bkoehler/brokerdocs/internal/service"
)

func main() {
	var (
		broker = flag.String("broker", "", "broker slug (required)")
		out    = flag.String("out", "customers.xlsx", "output XLSX path")
		query  = flag.String("q", "", "token filter, same semantics as customer search")
	)
	flag.Parse()

	if *broker == "" {
		fmt.Fprintln(os.Stderr, "Error: --broker is required")
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx := context.Background()
	cfg := common.LoadConfig()
	if cfg.Database.DSN == "" {
		fmt.Fprintln(os.Stderr, "Error: DB_URL env var is required")
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
		fmt.Fprintf(os.Stderr, "Error: opening DB: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	b, err := store.Brokers().GetBySlug(ctx, *broker)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: broker %q: %v\n", *broker, err)
		os.Exit(1)
	}

	svc := service.NewExportService(store.Customers(), logger)
	data, err := svc.ExportCustomersXLSX(ctx, b.ID, *query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: export: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*out, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: writing %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s (%d bytes)\n", *out, len(data))
}
