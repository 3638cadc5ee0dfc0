package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sourcegraph/conc"

	"github.com/fantadynasty/transfer-market/internal/config"
	"github.com/fantadynasty/transfer-market/internal/domain/event"
	"github.com/fantadynasty/transfer-market/internal/infrastructure/account/tribuna"
	"github.com/fantadynasty/transfer-market/internal/infrastructure/events"
	"github.com/fantadynasty/transfer-market/internal/interfaces/httpapi"
	basecache "github.com/fantadynasty/transfer-market/internal/platform/cache"
	idgen "github.com/fantadynasty/transfer-market/internal/platform/id"
	"github.com/fantadynasty/transfer-market/internal/platform/resilience"
	"github.com/fantadynasty/transfer-market/internal/usecase"
)

// App owns the HTTP server, the auction expiry dispatcher and, when a
// database is configured, the connection pool.
type App struct {
	cfg        config.Config
	logger     *slog.Logger
	server     *http.Server
	dispatcher *usecase.ExpiryDispatcher
	db         *sqlx.DB
}

func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	var db *sqlx.DB
	var err error
	if cfg.DBURL != "" {
		db, err = openDB(cfg)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		logger.Info("database connected", "db_name", dbNameFromURL(cfg.DBURL))
	} else {
		logger.Info("no DB_URL configured, using seeded in-memory repositories")
	}

	repos := buildRepositories(cfg, db)

	sink := buildSink(cfg, logger)
	gen := idgen.NewRandomGenerator()

	treasurySvc := usecase.NewTreasuryService(
		repos.members, repos.reservations, repos.rosters, repos.contracts, repos.leagues, gen, logger)
	auctionSvc := usecase.NewAuctionService(
		repos.tx, repos.auctions, repos.sessions, repos.players, repos.rosters, repos.contracts,
		repos.movements, repos.members, treasurySvc, sink, gen,
		usecase.AuctionPolicy{
			Timer:              cfg.AuctionTimer,
			AntiSnipeThreshold: cfg.AuctionAntiSnipeThreshold,
			AntiSnipeExtension: cfg.AuctionAntiSnipeExtension,
		}, logger)
	rubataSvc := usecase.NewRubataService(
		repos.tx, repos.queues, repos.sessions, repos.members, repos.leagues, repos.rosters,
		repos.contracts, repos.players, auctionSvc, treasurySvc, sink, gen, logger)
	indemnitySvc := usecase.NewIndemnityService(
		repos.tx, repos.settlements, repos.sessions, repos.players, repos.rosters, repos.contracts,
		repos.movements, repos.members, repos.leagues, treasurySvc, sink, gen, logger)
	contractSvc := usecase.NewContractService(
		repos.tx, repos.contracts, repos.rosters, repos.sessions, repos.members, repos.movements,
		treasurySvc, gen, logger)
	phaseSvc := usecase.NewPhaseService(
		repos.sessions, repos.queues, repos.members, contractSvc, indemnitySvc, sink, gen, logger)
	movementSvc := usecase.NewMovementService(repos.movements)

	dispatcher, err := usecase.NewExpiryDispatcher(
		repos.auctions, repos.sessions, auctionSvc, rubataSvc,
		cfg.ExpiryPoolSize, cfg.ExpirySweepInterval, logger)
	if err != nil {
		return nil, fmt.Errorf("build expiry dispatcher: %w", err)
	}

	verifier := tribuna.NewClient(
		&http.Client{Timeout: cfg.TribunaTimeout},
		tribuna.ClientConfig{
			BaseURL:        cfg.TribunaBaseURL,
			IntrospectPath: cfg.TribunaIntrospectPath,
			CacheTTL:       cfg.TribunaCacheTTL,
			Breaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.TribunaCircuitEnabled,
				FailureThreshold: cfg.TribunaCircuitFailureCount,
				OpenTimeout:      cfg.TribunaCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.TribunaCircuitHalfOpenMax,
			},
		}, logger)

	handler := httpapi.NewHandler(
		auctionSvc, rubataSvc, indemnitySvc, contractSvc, phaseSvc, movementSvc, logger)
	router := httpapi.NewRouter(handler, verifier, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		server:     server,
		dispatcher: dispatcher,
		db:         db,
	}, nil
}

// Run serves HTTP and sweeps expired auctions until ctx ends, then shuts
// both down gracefully.
func (a *App) Run(ctx context.Context) error {
	var wg conc.WaitGroup
	serverErr := make(chan error, 1)

	wg.Go(func() {
		a.logger.Info("http server starting", "addr", a.cfg.HTTPAddr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	})

	a.dispatcher.Start(ctx)

	select {
	case err := <-serverErr:
		a.dispatcher.Stop()
		wg.Wait()
		a.closeDB()
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	a.dispatcher.Stop()
	wg.Wait()
	a.closeDB()
	if err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	a.logger.Info("http server stopped")
	return nil
}

func (a *App) closeDB() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("close database", "error", err)
	}
}

func buildSink(cfg config.Config, logger *slog.Logger) event.Sink {
	if !cfg.WebhookEnabled {
		return event.NopSink{}
	}
	return events.NewWebhookPublisher(events.WebhookPublisherConfig{
		BaseURL: cfg.WebhookBaseURL,
		Token:   cfg.WebhookToken,
		Retries: cfg.WebhookRetries,
		Timeout: cfg.WebhookTimeout,
		Breaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.WebhookCircuitEnabled,
			FailureThreshold: cfg.WebhookCircuitFailureCount,
			OpenTimeout:      cfg.WebhookCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.WebhookCircuitHalfOpenMax,
		},
	}, logger)
}

func newCacheStore(cfg config.Config) *basecache.Store {
	if !cfg.CacheEnabled {
		return nil
	}
	return basecache.NewStore(cfg.CacheTTL)
}
