package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"geoclaim/internal/model"
	"geoclaim/internal/util"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

type countingSweeper struct {
	calls atomic.Int32
}

func (s *countingSweeper) Sweep(time.Duration) int {
	s.calls.Add(1)
	return 1
}

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (r *countingRefresher) Refresh(context.Context) error {
	r.calls.Add(1)
	return r.err
}

type recordingSink struct {
	mu    sync.Mutex
	fixes []model.UserPosition
}

func (r *recordingSink) Update(_ string, pos model.UserPosition) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fixes = append(r.fixes, pos)
	return true, nil
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fixes)
}

func TestSessionSweeper(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &countingSweeper{}
	StartSessionSweeper(ctx, s, 5*time.Millisecond, time.Minute, zap.NewNop())

	require.Eventually(t, func() bool { return s.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestCatalogRefresher(t *testing.T) {
	_, err := NewCatalogRefresher("every now and then", &countingRefresher{}, zap.NewNop())
	require.Error(t, err)

	r := &countingRefresher{err: errors.New("db down")}
	refresher, err := NewCatalogRefresher("*/15 * * * *", r, zaptest.NewLogger(t))
	require.NoError(t, err)

	refresher.RunOnce()
	require.EqualValues(t, 1, r.calls.Load())

	refresher.Start()
	refresher.Stop()
}

func TestStartAllWorkers_BadCron(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := StartAllWorkers(ctx, Workers{
		Sessions:    &countingSweeper{},
		Catalog:     &countingRefresher{},
		RefreshCron: "nope",
	}, zap.NewNop())
	require.Error(t, err)
}

// a straight 1 km walk due north
var (
	south = model.GeoPoint{Latitude: 37.7749, Longitude: -122.4194}
	north = model.GeoPoint{Latitude: 37.7749 + 1/(util.EarthRadiusKm*3.141592653589793/180), Longitude: -122.4194}
)

func TestRouteSimulator_WalksAndTurnsAround(t *testing.T) {
	sim, err := NewRouteSimulator("walker", []model.GeoPoint{south, north}, 0.4, &recordingSink{}, zap.NewNop())
	require.NoError(t, err)

	require.InDelta(t, 0.4, util.DistanceKm(south, sim.Step()), 1e-6)
	require.InDelta(t, 0.8, util.DistanceKm(south, sim.Step()), 1e-6)
	// 1.2 km walked: 0.2 km back from the far end
	require.InDelta(t, 0.8, util.DistanceKm(south, sim.Step()), 1e-6)
	require.InDelta(t, 0.4, util.DistanceKm(south, sim.Step()), 1e-6)
}

func TestRouteSimulator_Controls(t *testing.T) {
	sink := &recordingSink{}
	sim, err := NewRouteSimulator("walker", []model.GeoPoint{south, north}, 0.1, sink, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, SimStopped, sim.State())

	sim.Tick()
	require.Zero(t, sink.count())

	sim.Start()
	sim.Tick()
	sim.Tick()
	require.Equal(t, 2, sink.count())

	sim.Pause()
	require.Equal(t, SimPaused, sim.State())
	sim.Tick()
	require.Equal(t, 2, sink.count())

	sim.Stop()
	require.Equal(t, SimStopped, sim.State())
	require.Equal(t, south, sim.Position())
}

func TestRouteSimulator_Run(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &recordingSink{}
	sim, err := NewRouteSimulator("walker", []model.GeoPoint{south, north}, 0.01, sink, zap.NewNop())
	require.NoError(t, err)
	sim.Start()
	go sim.Run(ctx, 5*time.Millisecond)

	require.Eventually(t, func() bool { return sink.count() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestNewRouteSimulator_Rejects(t *testing.T) {
	_, err := NewRouteSimulator("w", []model.GeoPoint{south}, 0.1, &recordingSink{}, zap.NewNop())
	require.Error(t, err)

	_, err = NewRouteSimulator("w", []model.GeoPoint{south, south}, 0.1, &recordingSink{}, zap.NewNop())
	require.Error(t, err)

	_, err = NewRouteSimulator("w", []model.GeoPoint{south, {Latitude: 100}}, 0.1, &recordingSink{}, zap.NewNop())
	require.Error(t, err)

	_, err = NewRouteSimulator("w", []model.GeoPoint{south, north}, 0, &recordingSink{}, zap.NewNop())
	require.Error(t, err)
}

func TestNewPolylineSimulator(t *testing.T) {
	// Google's reference polyline, three points
	sim, err := NewPolylineSimulator("w", "_p~iF~ps|U_ulLnnqC_mqNvxq`@", 5, 3*time.Second, &recordingSink{}, zap.NewNop())
	require.NoError(t, err)
	require.InDelta(t, 38.5, sim.Position().Latitude, 1e-9)
	require.InDelta(t, -120.2, sim.Position().Longitude, 1e-9)
	require.InDelta(t, 5*3.0/3600, sim.stepKm, 1e-12)
}
