package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chargefleet/internal/auth"
	"chargefleet/internal/cache"
	"chargefleet/internal/config"
	"chargefleet/internal/engine"
	httpserver "chargefleet/internal/http"
	"chargefleet/internal/http/handlers"
	"chargefleet/internal/http/middleware"
	"chargefleet/internal/models"
	"chargefleet/internal/password"
	"chargefleet/internal/repository"
	"chargefleet/internal/service"
	"chargefleet/libs/db"
	libredis "chargefleet/libs/redis"
)

// App wires the engine, storage and HTTP layers together.
type App struct {
	server *httpserver.Server
	db     *sql.DB
	redis  *goredis.Client
	logger *zap.Logger
}

// New builds the application: connects Postgres and Redis, restores the
// ledger and pile registry from persisted state, and assembles the router.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	pool, err := db.NewPostgresDB(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	var redisClient *goredis.Client
	var statusCache *cache.PileStatusStore
	if cfg.Redis.Addr != "" {
		redisClient, err = libredis.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		statusCache = cache.NewPileStatusStore(redisClient, cfg.Redis.PileStatusTTL)
	} else {
		logger.Warn("redis addr not configured, pile status cache disabled")
	}

	stationRepo := repository.NewStationRepository(pool)
	pileRepo := repository.NewPileRepository(pool)
	pricingRepo := repository.NewPricingRepository(pool)
	recordRepo := repository.NewRecordRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	registry := engine.NewPileRegistry(statusObserver(statusCache, cfg.Redis.NotifyTimeout, logger))
	if err := seedRegistry(ctx, registry, pileRepo); err != nil {
		closeAll(pool, redisClient)
		return nil, fmt.Errorf("seed pile registry: %w", err)
	}

	ledger := engine.NewLedger(recordRepo, logger)
	if err := restoreLedger(ctx, ledger, recordRepo); err != nil {
		closeAll(pool, redisClient)
		return nil, fmt.Errorf("restore ledger: %w", err)
	}

	orchestrator := engine.NewOrchestrator(registry, ledger, pileRepo, pricingRepo, nil, logger)

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	hasher := password.NewBcryptHasher(cfg.Auth.BcryptCost)
	accounts := service.NewAccountsService(userRepo, hasher, tokens, logger)
	stations := service.NewStationsService(stationRepo, pileRepo, pricingRepo, registry, logger)

	authHandlers := handlers.NewAuthHandlers(accounts, logger)
	sessionsHandler := handlers.NewSessionsHandler(orchestrator, logger)
	walletHandler := handlers.NewWalletHandler(orchestrator, recordRepo, logger)
	stationsHandlers := handlers.NewStationsHandlers(stations, logger)

	router := httpserver.NewRouter(httpserver.Routes{
		Signup:       authHandlers.HandleSignup,
		Login:        authHandlers.HandleLogin,
		BecomeMember: authHandlers.HandleBecomeMember,

		SessionStart:  sessionsHandler.HandleStart,
		SessionSettle: sessionsHandler.HandleSettle,
		SessionCancel: sessionsHandler.HandleCancel,

		Recharge: walletHandler.HandleRecharge,
		Refund:   walletHandler.HandleRefund,
		Balance:  walletHandler.HandleBalance,
		Records:  walletHandler.HandleRecords,

		RegisterStation:  stationsHandlers.HandleRegisterStation,
		StationStatus:    stationsHandlers.HandleStationStatus,
		ListStations:     stationsHandlers.HandleListStations,
		StationPiles:     stationsHandlers.HandleStationPiles,
		RegisterPile:     stationsHandlers.HandleRegisterPile,
		PileMaintenance:  stationsHandlers.HandlePileMaintenance(),
		PileReturn:       stationsHandlers.HandlePileReturn(),
		PileAbandon:      stationsHandlers.HandlePileAbandon(),
		PileForceRelease: stationsHandlers.HandlePileForceRelease(),
		CreatePricing:    stationsHandlers.HandleCreatePricing,
		GetPricing:       stationsHandlers.HandleGetPricing,

		Health: handlers.NewHealthHandler(),
	}, middleware.AuthMiddleware(tokens))

	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server: server,
		db:     pool,
		redis:  redisClient,
		logger: logger,
	}, nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases database and cache connections.
func (a *App) Close() {
	closeAll(a.db, a.redis)
}

// statusObserver mirrors committed pile transitions into Redis. The write
// happens on its own goroutine with a short timeout so a slow or absent cache
// never blocks a transition. Returns nil when the cache is disabled.
func statusObserver(store *cache.PileStatusStore, timeout time.Duration, logger *zap.Logger) engine.StatusObserver {
	if store == nil {
		return nil
	}
	return func(pileID string, status models.PileStatus) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := store.Save(ctx, pileID, status); err != nil {
				logger.Warn("failed to mirror pile status",
					zap.String("pile_id", pileID),
					zap.String("status", string(status)),
					zap.Error(err),
				)
			}
		}()
	}
}

func seedRegistry(ctx context.Context, registry *engine.PileRegistry, piles *repository.PileRepository) error {
	all, err := piles.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, pile := range all {
		if err := registry.Register(pile.PileID, pile.Status); err != nil {
			return fmt.Errorf("pile %s: %w", pile.PileID, err)
		}
	}
	return nil
}

func restoreLedger(ctx context.Context, ledger *engine.Ledger, records *repository.RecordRepository) error {
	charges, err := records.ListAllCharging(ctx)
	if err != nil {
		return err
	}
	recharges, err := records.ListAllRecharges(ctx)
	if err != nil {
		return err
	}
	ledger.Restore(charges, recharges)
	return nil
}

func closeAll(pool *sql.DB, redisClient *goredis.Client) {
	if pool != nil {
		pool.Close()
	}
	if redisClient != nil {
		redisClient.Close()
	}
}
