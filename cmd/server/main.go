package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mbelardi/finanzas/internal/clients/yahoo"
	"github.com/mbelardi/finanzas/internal/config"
	"github.com/mbelardi/finanzas/internal/database"
	"github.com/mbelardi/finanzas/internal/database/repositories"
	"github.com/mbelardi/finanzas/internal/domain"
	"github.com/mbelardi/finanzas/internal/modules/advisor"
	"github.com/mbelardi/finanzas/internal/modules/funds"
	"github.com/mbelardi/finanzas/internal/modules/goals"
	"github.com/mbelardi/finanzas/internal/modules/indicators"
	"github.com/mbelardi/finanzas/internal/modules/ledger"
	"github.com/mbelardi/finanzas/internal/modules/prices"
	"github.com/mbelardi/finanzas/internal/modules/users"
	"github.com/mbelardi/finanzas/internal/modules/valuation"
	"github.com/mbelardi/finanzas/internal/scheduler"
	"github.com/mbelardi/finanzas/internal/server"
	"github.com/mbelardi/finanzas/internal/storage"
	"github.com/mbelardi/finanzas/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting finanzas server")

	// Application database (bond universe, fund cache mirror)
	appDB, err := database.New(cfg.AppDBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application database")
	}
	defer appDB.Close()

	if err := appDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Price history database
	priceStore, err := prices.NewStore(cfg.HistoryDBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize price store")
	}
	defer priceStore.Close()

	// JSON file stores
	accounts, err := storage.NewAccountStore(cfg.UsersDir())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize account store")
	}
	history, err := storage.NewHistoryStore(cfg.HistoryDir())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize history store")
	}

	// Repositories
	bondRepo := repositories.NewBondRepository(appDB.Conn(), log)
	fundRepo := repositories.NewFundRepository(appDB.Conn(), log)

	// Seed the bond universe from the data directory when present
	if n, err := bondRepo.ImportFile(filepath.Join(cfg.DataDir, "bonds.json")); err != nil {
		log.Warn().Err(err).Msg("Failed to import bond universe")
	} else if n > 0 {
		log.Info().Int("bonds", n).Msg("Imported bond universe")
	}

	// Seed the price store from exported per-symbol snapshot files
	if n, err := priceStore.ImportDir(filepath.Join(cfg.DataDir, "stocks")); err != nil {
		log.Warn().Err(err).Msg("Failed to import price snapshots")
	} else if n > 0 {
		log.Info().Int("symbols", n).Msg("Imported price snapshots")
	}

	// Services
	yahooClient := yahoo.NewClient(log)
	priceService := prices.NewService(priceStore, yahooClient, accounts)

	quotes := &quoteResolver{store: priceStore, bonds: bondRepo}
	ledgerService := ledger.NewService(accounts, quotes)

	engine := valuation.NewEngine(quotes)
	valuationService := valuation.NewService(accounts, history, engine)

	advisorService := advisor.NewService(accounts, bondRepo)

	fundCache := funds.NewCache(
		cfg.PythonBin,
		cfg.FundScriptPath,
		cfg.FundCachePath,
		time.Duration(cfg.FundCacheTTLHours)*time.Hour,
	)
	fundService := funds.NewService(fundCache, fundRepo)

	indicatorService := indicators.NewService(priceService)
	goalService := goals.NewService(accounts, bondRepo, engine)
	userService := users.NewService(accounts)

	// Scheduler and background jobs
	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.PriceSyncSchedule, prices.NewSyncJob(priceService)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register price sync job")
	}
	if err := sched.AddJob(cfg.FundSyncSchedule, funds.NewRefreshJob(fundService)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register fund refresh job")
	}
	healthJob := scheduler.NewHealthCheckJob(log, cfg.DataDir, map[string]*sql.DB{
		"app":     appDB.Conn(),
		"history": priceStore.DB(),
	})
	if err := sched.AddJob("0 0 * * * *", healthJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register health check job")
	}
	sched.Start()
	defer sched.Stop()

	// Warm the fund cache so the first recommendation request does not
	// block on the CAFCI scrape.
	go func() {
		if err := sched.RunNow(funds.NewRefreshJob(fundService)); err != nil {
			log.Warn().Err(err).Msg("Initial fund refresh failed")
		}
	}()

	// HTTP server
	srv := server.New(cfg, log,
		users.NewHandler(userService),
		ledger.NewHandler(ledgerService),
		valuation.NewHandler(valuationService),
		prices.NewHandler(priceService),
		advisor.NewHandler(advisorService),
		funds.NewHandler(fundService),
		indicators.NewHandler(indicatorService, accounts),
		goals.NewHandler(goalService),
	)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// quoteResolver resolves closes from the price history store, falling
// back to the imported bond universe for instruments Yahoo never covers.
type quoteResolver struct {
	store *prices.Store
	bonds *repositories.BondRepository
}

func (q *quoteResolver) LatestClose(symbol string) (float64, error) {
	price, err := q.store.LatestClose(symbol)
	if errors.Is(err, domain.ErrNoPriceData) {
		return q.bonds.LatestPrice(symbol)
	}
	return price, err
}

func (q *quoteResolver) LatestCloseOnOrBefore(symbol, day string) (float64, error) {
	price, err := q.store.LatestCloseOnOrBefore(symbol, day)
	if errors.Is(err, domain.ErrNoPriceData) {
		return q.bonds.LatestPrice(symbol)
	}
	return price, err
}

func (q *quoteResolver) LatestCloseBefore(symbol, day string) (float64, error) {
	price, err := q.store.LatestCloseBefore(symbol, day)
	if errors.Is(err, domain.ErrNoPriceData) {
		return q.bonds.LatestPrice(symbol)
	}
	return price, err
}
