// Package main is the entry point for the finboard valuation service.
// It tracks positions across currencies, converts them through cached
// exchange rates and serves portfolio summaries over HTTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/akistler/finboard/internal/clientdata"
	"github.com/akistler/finboard/internal/clients/frankfurter"
	"github.com/akistler/finboard/internal/clients/quotes"
	"github.com/akistler/finboard/internal/config"
	"github.com/akistler/finboard/internal/database"
	"github.com/akistler/finboard/internal/jobs"
	"github.com/akistler/finboard/internal/modules/conversion"
	"github.com/akistler/finboard/internal/modules/positions"
	positionshandlers "github.com/akistler/finboard/internal/modules/positions/handlers"
	"github.com/akistler/finboard/internal/modules/rates"
	rateshandlers "github.com/akistler/finboard/internal/modules/rates/handlers"
	"github.com/akistler/finboard/internal/modules/valuation"
	valuationhandlers "github.com/akistler/finboard/internal/modules/valuation/handlers"
	"github.com/akistler/finboard/internal/server"
	"github.com/akistler/finboard/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting finboard")

	// Two databases: durable portfolio state, ephemeral API response cache.
	portfolioDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "portfolio.db"),
		Profile: database.ProfileStandard,
		Name:    "portfolio",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open portfolio database")
	}
	defer portfolioDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "client_data.db"),
		Profile: database.ProfileCache,
		Name:    "client_data",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open client data database")
	}
	defer cacheDB.Close()

	for _, db := range []*database.DB{portfolioDB, cacheDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", db.Name()).Msg("Failed to apply schema")
		}
	}

	// External clients and caches.
	cacheRepo := clientdata.NewRepository(cacheDB.Conn())
	rateClient := frankfurter.NewClient(cfg.RateAPIURL, log)
	quoteClient := quotes.NewClient(cfg.QuoteAPIURL, cacheRepo, log)

	// Services.
	rateProvider := rates.NewProvider(rateClient, rates.NewMemoryCache(), log)
	converter := conversion.NewService(rateProvider, log)
	positionRepo := positions.NewRepository(portfolioDB.Conn())
	positionService := positions.NewService(positionRepo, quoteClient, log)
	valuationService := valuation.NewService(positionService, converter, log)

	// HTTP surface.
	srv := server.New(server.Config{
		Log:               log,
		Cfg:               cfg,
		PortfolioDB:       portfolioDB,
		CacheDB:           cacheDB,
		RatesHandlers:     rateshandlers.NewHandler(rateProvider, converter, log),
		PositionsHandlers: positionshandlers.NewHandler(positionService, log),
		ValuationHandlers: valuationhandlers.NewHandler(valuationService, cfg.DisplayCurrency, log),
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Background jobs: rate cache warming and expired cache cleanup.
	scheduler := jobs.New(log)
	rateSync := jobs.NewRateSyncJob(rateProvider, cfg.DisplayCurrency, cfg.SyncCurrencies, log)
	if err := scheduler.AddJob(cfg.RateSyncSchedule, rateSync); err != nil {
		log.Fatal().Err(err).Msg("Failed to register rate sync job")
	}
	cleanup := clientdata.NewCleanupJob(cacheRepo, log)
	if err := scheduler.AddJob("@every 6h", cleanup); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cache cleanup job")
	}
	scheduler.Start()

	// Warm the cache once at startup so the first summary request does not
	// pay for live fetches.
	if err := scheduler.RunNow(rateSync); err != nil {
		log.Warn().Err(err).Msg("Initial rate warm-up failed, continuing with fallback table")
	}

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")
	scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
