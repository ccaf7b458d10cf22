package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kiwari-pos/tiffin/internal/app"
	"github.com/kiwari-pos/tiffin/internal/config"
	"github.com/kiwari-pos/tiffin/internal/enum"
	"github.com/kiwari-pos/tiffin/internal/kvstore"
	"github.com/kiwari-pos/tiffin/internal/logging"
	"github.com/kiwari-pos/tiffin/internal/metrics"
	"github.com/kiwari-pos/tiffin/internal/money"
	"github.com/kiwari-pos/tiffin/internal/notify"
	"github.com/kiwari-pos/tiffin/internal/printer"
	"github.com/kiwari-pos/tiffin/internal/router"
	"github.com/kiwari-pos/tiffin/internal/service"
	"github.com/kiwari-pos/tiffin/internal/session"
	"github.com/kiwari-pos/tiffin/internal/view"
	"github.com/kiwari-pos/tiffin/internal/ws"
)

func main() {
	logging.Setup()

	if err := run(); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := kvstore.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()
	slog.Info("Store initialized", "driver", cfg.Store.Driver)

	formatter, err := money.NewFormatter(cfg.Currency)
	if err != nil {
		return err
	}

	hub := ws.NewHub()
	go hub.Run(ctx)

	m := metrics.New()
	observers := []service.OrderObserver{m}
	var telegram *notify.Telegram
	if cfg.Telegram.Enabled() {
		bot, err := notify.NewTelegramBot(cfg.Telegram.Token)
		if err != nil {
			slog.Warn("Sale notifications disabled", "error", err)
		} else {
			telegram = notify.NewTelegram(bot, cfg.Telegram.ChatID, formatter)
			observers = append(observers, telegram)
			slog.Info("Sale notifications enabled", "chatId", cfg.Telegram.ChatID)
		}
	}

	svc := app.New(store, cfg.Location,
		service.WithClearDelay(cfg.ClearDelay),
		service.WithObservers(observers...),
		service.WithAfterClear(func() { hub.Publish(enum.EventCartUpdated, nil) }),
	)
	if err := svc.Init(ctx); err != nil {
		return err
	}

	renderer, err := view.NewRenderer(formatter, cfg.Location)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}

	r := router.New(cfg, router.Deps{
		Services: svc,
		Hub:      hub,
		Metrics:  m,
		Renderer: renderer,
		PDF:      printer.NewChromium(cfg.ChromeBin),
		Sessions: session.NewRegistry(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "port", cfg.Port, "currency", cfg.Currency, "location", cfg.Location.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		slog.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
	if telegram != nil {
		telegram.Wait()
	}
	return nil
}
