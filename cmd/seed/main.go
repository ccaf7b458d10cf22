package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/kiwari-pos/tiffin/internal/app"
	"github.com/kiwari-pos/tiffin/internal/config"
	"github.com/kiwari-pos/tiffin/internal/kvstore"
	"github.com/kiwari-pos/tiffin/internal/logging"
)

func main() {
	logging.Setup()

	// Defaults come from the same environment the server reads
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// CLI flags
	driver := flag.String("driver", cfg.Store.Driver, "Store backend: sqlite, postgres or memory")
	sqlitePath := flag.String("sqlite", cfg.Store.SQLitePath, "SQLite database file")
	dbURL := flag.String("database-url", cfg.Store.DatabaseURL, "Postgres connection URL")
	paymentLink := flag.String("payment-link", os.Getenv("SEED_PAYMENT_LINK"), "Payment link template to store, {amount} is replaced at checkout")
	flag.Parse()

	ctx := context.Background()
	store, err := kvstore.Open(ctx, kvstore.Options{
		Driver:      *driver,
		SQLitePath:  *sqlitePath,
		DatabaseURL: *dbURL,
	})
	if err != nil {
		slog.Error("Unable to open store", "driver", *driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Connected to store", "driver", *driver)

	// Existing documents are left alone, so seeding twice is harmless
	svc := app.New(store, cfg.Location)
	if err := svc.Init(ctx); err != nil {
		slog.Error("Failed to seed", "error", err)
		os.Exit(1)
	}

	if *paymentLink != "" {
		saved, err := svc.Payments.SetPaymentLink(ctx, *paymentLink)
		if err != nil {
			slog.Error("Failed to store payment link", "error", err)
			os.Exit(1)
		}
		slog.Info("Stored payment link", "link", saved)
	}

	items, err := svc.Catalog.List(ctx)
	if err != nil {
		slog.Error("Failed to read menu", "error", err)
		os.Exit(1)
	}
	slog.Info("Seed completed successfully", "menuItems", len(items))
}
