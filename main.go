package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"stayfinder/api"
	"stayfinder/config"
	"stayfinder/scraper/airbnb"
	"stayfinder/services"
	"stayfinder/source"
	"stayfinder/storage"
	"stayfinder/utils"
)

const metricsNamespace = "stayfinder"

func main() {
	cfg := config.Load()
	logger := utils.NewLoggerWithLevel(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("=== StayFinder starting ===")
	logger.Info("Config: source=%s | favorites=%s | page size=%d | refresh=%q",
		cfg.ListingsSource, cfg.FavoritesBackend, cfg.PageSize, cfg.RefreshSchedule)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		listingSource  services.ListingSource
		publisher      services.ListingPublisher
		refreshTimeout = 3 * cfg.RequestTimeout
	)
	switch cfg.ListingsSource {
	case config.SourceAirbnb:
		listingSource = airbnb.New(cfg, logger)
		refreshTimeout = 15 * time.Minute
	case config.SourceREST:
		client := source.NewClient(cfg.ListingsURL, cfg.RequestTimeout, cfg.MaxRetries, logger)
		listingSource = client
		publisher = client
	default:
		logger.Error("Unknown LISTINGS_SOURCE %q (want %q or %q)", cfg.ListingsSource, config.SourceREST, config.SourceAirbnb)
		os.Exit(1)
	}

	var pg *storage.PostgresStore
	if cfg.NeedsPostgres() {
		var err error
		pg, err = storage.NewPostgresStore(ctx, cfg.DSN(), logger)
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
			logger.Error("Make sure Docker is running: docker compose up -d")
			os.Exit(1)
		}
		defer pg.Close()
	}

	cleaner := services.NewCleaner(logger)
	catalog := services.NewCatalog(listingSource, cleaner, logger)
	if cfg.SnapshotEnabled && pg != nil {
		catalog.SetSnapshot(pg)
	}

	favoriteStore, closeStore, err := newFavoriteStore(cfg, pg, logger)
	if err != nil {
		logger.Error("Failed to open favorites store: %v", err)
		os.Exit(1)
	}
	defer closeStore()

	hosting, err := services.NewHostService(cleaner, catalog, publisher, logger)
	if err != nil {
		logger.Error("Failed to set up hosting: %v", err)
		os.Exit(1)
	}

	metrics := api.NewMetrics(metricsNamespace)
	metrics.RegisterGauge(metricsNamespace, "catalog_listings", "Listings currently in the catalog.",
		func() float64 { return float64(catalog.Size()) })

	refresh := func() {
		rctx, cancel := context.WithTimeout(ctx, refreshTimeout)
		defer cancel()
		err := catalog.Refresh(rctx)
		metrics.ObserveRefresh(err)
		if err != nil {
			logger.Warn("[main] Catalog refresh failed: %v", err)
		}
	}

	// the server starts even when the first load fails; requests retry it
	refresh()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.RefreshSchedule, refresh); err != nil {
		logger.Error("Invalid REFRESH_SCHEDULE %q: %v", cfg.RefreshSchedule, err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	server := api.NewServer(api.Deps{
		Catalog:        catalog,
		Favorites:      services.NewFavoriteService(favoriteStore, logger),
		Hosting:        hosting,
		Insights:       services.NewInsightService(logger),
		Metrics:        metrics,
		Logger:         logger,
		PageSize:       cfg.PageSize,
		CORSOrigins:    cfg.CORSOrigins,
		RefreshTimeout: refreshTimeout,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("[main] Listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("[main] Shutting down...")
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server failed: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
	logger.Info("=== StayFinder stopped ===")
}

// newFavoriteStore opens the configured favorites backend. The returned func
// releases it.
func newFavoriteStore(cfg *config.Config, pg *storage.PostgresStore, logger *utils.Logger) (services.FavoriteStore, func(), error) {
	noop := func() {}

	switch cfg.FavoritesBackend {
	case config.BackendRedis:
		client, err := storage.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, noop, err
		}
		store := storage.NewRedisFavoriteStore(client, logger)
		return store, func() { store.Close() }, nil
	case config.BackendPostgres:
		// pg is closed by main
		return pg, noop, nil
	default:
		store, err := storage.NewFileFavoriteStore(cfg.FavoritesDir, logger)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	}
}
