package worker

import (
	"context"
	"fmt"
	"time"

	"geoclaim/internal/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const refreshTimeout = time.Minute

// Refresher reloads a dataset. catalog.Service implements it.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// CatalogRefresher reloads the catalog on a cron schedule.
type CatalogRefresher struct {
	c       *cron.Cron
	spec    string
	catalog Refresher
	log     *zap.Logger
}

// NewCatalogRefresher validates spec, a standard 5-field cron expression.
func NewCatalogRefresher(spec string, catalog Refresher, log *zap.Logger) (*CatalogRefresher, error) {
	r := &CatalogRefresher{
		c:       cron.New(),
		spec:    spec,
		catalog: catalog,
		log:     log,
	}
	if _, err := r.c.AddFunc(spec, r.RunOnce); err != nil {
		return nil, fmt.Errorf("catalog refresh schedule %q: %w", spec, err)
	}
	return r, nil
}

// RunOnce performs a single refresh.
func (r *CatalogRefresher) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if err := r.catalog.Refresh(ctx); err != nil {
		r.log.Error("catalog refresh failed", zap.Error(err))
	}
}

func (r *CatalogRefresher) Start() {
	r.log.Info("catalog refresher started", zap.String("cron", r.spec))
	r.c.Start()
}

// Stop halts the schedule and waits for a running refresh.
func (r *CatalogRefresher) Stop() {
	<-r.c.Stop().Done()
}

// Workers groups the background jobs started with the server.
type Workers struct {
	Sessions  Sweeper
	Catalog   Refresher
	Simulator *RouteSimulator

	RefreshCron string
}

// StartAllWorkers initializes and starts all background workers. The
// returned function stops the ones that need an explicit stop.
func StartAllWorkers(ctx context.Context, w Workers, log *zap.Logger) (func(), error) {
	log.Info("starting workers")

	StartSessionSweeper(ctx, w.Sessions, config.SessionSweepInterval, config.SessionRetention, log)

	stop := func() {}
	if w.RefreshCron != "" && w.Catalog != nil {
		refresher, err := NewCatalogRefresher(w.RefreshCron, w.Catalog, log)
		if err != nil {
			return nil, err
		}
		refresher.Start()
		stop = refresher.Stop
	}

	if w.Simulator != nil {
		go w.Simulator.Run(ctx, config.SimulationInterval)
		w.Simulator.Start()
	}

	log.Info("all workers started")
	return stop, nil
}
