package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/walletcore/internal/api"
	"github.com/example/walletcore/internal/config"
	"github.com/example/walletcore/internal/dialog"
	"github.com/example/walletcore/internal/mirror"
	"github.com/example/walletcore/internal/relay"
	"github.com/example/walletcore/internal/resolve"
	"github.com/example/walletcore/internal/store"
	"github.com/example/walletcore/internal/wallet"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	st, cleanup, err := openStore(cfg)
	if err != nil {
		logger.Error("failed to open state store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer cleanup()

	mirrorClient := mirror.NewHTTPClient(cfg.MirrorURL)
	factory := relay.NewFactory(cfg.RelayURL)
	dlg := &dialog.Headless{ApproveAll: cfg.AutoApprove}
	resolver := resolve.New(st, mirrorClient, factory, dlg, cfg.Seed())

	service := wallet.NewService(resolver, mirrorClient, st, dlg, logger, wallet.Config{
		FeeCollector: cfg.FeeCollector,
		ServiceFees:  cfg.ServiceFees,
	})

	router := api.NewRouter(api.Dependencies{
		Logger:       logger,
		Wallet:       service,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	logger.Info("wallet daemon listening",
		"addr", cfg.ListenAddr,
		"network", cfg.Network,
		"store", cfg.StoreBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func openStore(cfg *config.Config) (store.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreSQLite:
		s, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case config.StorePostgres:
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		pg := store.NewPostgres(pool)
		if err := pg.Init(context.Background()); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return pg, pool.Close, nil
	default:
		return store.NewMemory(), func() {}, nil
	}
}
