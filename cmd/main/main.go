package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"geoclaim/internal/api"
	routes "geoclaim/internal/api/handlers"
	"geoclaim/internal/config"
	"geoclaim/internal/logger"
	"geoclaim/internal/postgres"
	"geoclaim/internal/redis"
	"geoclaim/internal/service/catalog"
	"geoclaim/internal/service/claim"
	"geoclaim/internal/service/collection"
	"geoclaim/internal/service/proximity"
	"geoclaim/internal/worker"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("geoclaim stopped", zap.Error(err))
	}
}

func run(cfg config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, rdb, err := initializeDatabaseAndCache(cfg, zl)
	if err != nil {
		return err
	}
	defer closeConnections(zl)

	svc, err := initializeServices(ctx, cfg, db, rdb, zl)
	if err != nil {
		return err
	}

	stopWorkers, err := worker.StartAllWorkers(ctx, worker.Workers{
		Sessions:    svc.Claims,
		Catalog:     svc.Catalog,
		Simulator:   svc.Simulator,
		RefreshCron: cfg.CatalogRefreshCron,
	}, zl)
	if err != nil {
		return err
	}
	defer stopWorkers()

	reportMemoryStats(ctx, zl)

	err = runAPIServer(ctx, cfg, svc, zl)
	svc.Claims.Wait()
	return err
}

func initializeDatabaseAndCache(cfg config.Config, zl *zap.Logger) (*gorm.DB, *goredis.Client, error) {
	var db *gorm.DB
	if cfg.DBUrl != "" {
		var err error
		if db, err = postgres.Init(cfg.DBUrl, zl); err != nil {
			return nil, nil, err
		}
	} else {
		zl.Warn("DB_URL is empty, claims are kept in memory")
	}

	rdb, err := redis.Init(cfg.RedisUrl, zl)
	if err != nil {
		return nil, nil, err
	}
	return db, rdb, nil
}

func initializeServices(ctx context.Context, cfg config.Config, db *gorm.DB, rdb *goredis.Client, zl *zap.Logger) (api.Services, error) {
	source, err := catalogSource(ctx, cfg, db, zl)
	if err != nil {
		return api.Services{}, err
	}

	items := catalog.NewService(source, zl.Named("catalog"))
	items.SetDefaultRadius(cfg.ClaimRadiusKm)
	if err := items.InitService(ctx); err != nil {
		return api.Services{}, fmt.Errorf("init catalog: %w", err)
	}

	tracker := proximity.NewTracker(zl.Named("tracker"))
	engine := proximity.NewEngine(items, tracker, proximity.Options{AccuracyAware: cfg.AccuracyAware})

	var repo collection.Repository = collection.NewMemoryRepository()
	if db != nil {
		repo = postgres.NewClaimRepo(db)
	}
	coll := collection.NewService(repo, collection.NewLeaderboard(rdb), tracker, zl.Named("collection"))

	var verifier claim.Verifier = claim.NewRedisVerifier(rdb)
	if cfg.Verifier == "local" {
		verifier = claim.NewLocalVerifier(config.LocalVerifyLatency)
	}
	claims := claim.NewManager(engine, verifier, coll, claim.Config{
		SessionTTL:    cfg.SessionTTL,
		VerifyTimeout: cfg.VerifyTimeout,
	}, zl.Named("claim"))

	var sim *worker.RouteSimulator
	if cfg.SimulateRoute != "" {
		sim, err = worker.NewPolylineSimulator(cfg.SimulateUser, cfg.SimulateRoute,
			config.SimulationSpeedKmh, config.SimulationInterval, tracker, zl.Named("simulator"))
		if err != nil {
			return api.Services{}, fmt.Errorf("route simulator: %w", err)
		}
	}

	return api.Services{
		Catalog:    items,
		Tracker:    tracker,
		Engine:     engine,
		Claims:     claims,
		Collection: coll,
		Simulator:  sim,
		Info: routes.Info{
			Verifier:      cfg.Verifier,
			ClaimRadiusKm: cfg.ClaimRadiusKm,
			AccuracyAware: cfg.AccuracyAware,
		},
	}, nil
}

// catalogSource picks where items come from. With Postgres, the seed file
// (or the demo fixtures when the table is empty) is imported first.
func catalogSource(ctx context.Context, cfg config.Config, db *gorm.DB, zl *zap.Logger) (catalog.Source, error) {
	var seed catalog.Source
	if cfg.CatalogSeedFile != "" {
		seed = catalog.FileSource{Path: cfg.CatalogSeedFile}
	}

	if db == nil {
		if seed != nil {
			return seed, nil
		}
		return catalog.FixtureSource, nil
	}

	repo := postgres.NewItemRepo(db)
	if seed == nil {
		existing, err := repo.LoadItems(ctx)
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			return repo, nil
		}
		seed = catalog.FixtureSource
	}

	items, err := seed.LoadItems(ctx)
	if err != nil {
		return nil, err
	}
	if err := repo.Upsert(ctx, items); err != nil {
		return nil, err
	}
	zl.Info("catalog seeded", zap.Int("items", len(items)))
	return repo, nil
}

func runAPIServer(ctx context.Context, cfg config.Config, svc api.Services, zl *zap.Logger) error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	api.SetupRouter(r, svc, zl.Named("http"))

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("listening", zap.String("addr", cfg.Port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	zl.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func reportMemoryStats(ctx context.Context, zl *zap.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				var m runtime.MemStats
				runtime.ReadMemStats(&m)
				zl.Debug("memory",
					zap.Uint64("alloc_mib", m.Alloc/1024/1024),
					zap.Uint64("sys_mib", m.Sys/1024/1024),
					zap.Uint32("num_gc", m.NumGC),
				)
			}
		}
	}()
}

func closeConnections(zl *zap.Logger) {
	if err := postgres.Close(); err != nil {
		zl.Error("closing postgres", zap.Error(err))
	}
	if err := redis.Close(); err != nil {
		zl.Error("closing redis", zap.Error(err))
	}
	zl.Info("connections closed")
}
