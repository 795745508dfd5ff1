package worker

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"geoclaim/internal/model"
	"geoclaim/internal/util"

	"go.uber.org/zap"
)

// PositionSink receives simulated fixes. proximity.Tracker implements it.
type PositionSink interface {
	Update(userID string, pos model.UserPosition) (bool, error)
}

type SimState string

const (
	SimStopped SimState = "stopped"
	SimRunning SimState = "running"
	SimPaused  SimState = "paused"
)

// RouteSimulator walks one user back and forth along a route at a fixed
// speed, acting as the location provider for demos.
type RouteSimulator struct {
	userID string
	sink   PositionSink
	stepKm float64
	log    *zap.Logger
	now    func() time.Time

	mu    sync.Mutex
	state SimState
	start []model.GeoPoint
	route []model.GeoPoint
	next  int
	pos   model.GeoPoint
}

// NewRouteSimulator builds a simulator advancing stepKm per tick. The route
// needs at least two points and a non-zero length.
func NewRouteSimulator(userID string, route []model.GeoPoint, stepKm float64, sink PositionSink, log *zap.Logger) (*RouteSimulator, error) {
	if len(route) < 2 {
		return nil, errors.New("route needs at least two points")
	}
	for _, p := range route {
		if err := util.ValidatePoint(p); err != nil {
			return nil, err
		}
	}
	var length float64
	for i := 1; i < len(route); i++ {
		length += util.DistanceKm(route[i-1], route[i])
	}
	if length == 0 {
		return nil, errors.New("route has zero length")
	}
	if stepKm <= 0 {
		return nil, errors.New("step must be positive")
	}

	s := &RouteSimulator{
		userID: userID,
		sink:   sink,
		stepKm: stepKm,
		log:    log,
		now:    time.Now,
		state:  SimStopped,
		start:  slices.Clone(route),
	}
	s.reset()
	return s, nil
}

// NewPolylineSimulator decodes an encoded polyline route.
func NewPolylineSimulator(userID, polyline string, speedKmh float64, interval time.Duration, sink PositionSink, log *zap.Logger) (*RouteSimulator, error) {
	return NewRouteSimulator(userID, util.DecodePolyline(polyline), speedKmh*interval.Hours(), sink, log)
}

// reset must be called with s.mu held or before s is shared.
func (s *RouteSimulator) reset() {
	s.route = slices.Clone(s.start)
	s.next = 1
	s.pos = s.route[0]
}

func (s *RouteSimulator) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = SimRunning
}

func (s *RouteSimulator) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SimRunning {
		s.state = SimPaused
	}
}

// Stop halts the walk and rewinds to the first point.
func (s *RouteSimulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = SimStopped
	s.reset()
}

func (s *RouteSimulator) State() SimState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *RouteSimulator) Position() model.GeoPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

// Step advances one tick along the route, turning around at either end.
func (s *RouteSimulator) Step() model.GeoPoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := s.stepKm
	for remaining > 0 {
		target := s.route[s.next]
		d := util.DistanceKm(s.pos, target)
		if d > remaining {
			s.pos = util.MoveToward(s.pos, target, remaining)
			break
		}
		s.pos = target
		remaining -= d
		s.next++
		if s.next == len(s.route) {
			slices.Reverse(s.route)
			s.next = 1
		}
	}
	return s.pos
}

// Tick steps and publishes a fix when the simulator is running.
func (s *RouteSimulator) Tick() {
	if s.State() != SimRunning {
		return
	}
	p := s.Step()
	if _, err := s.sink.Update(s.userID, model.UserPosition{Point: p, AccuracyM: 5, Timestamp: s.now()}); err != nil {
		s.log.Warn("simulated fix rejected", zap.Error(err))
	}
}

// Run ticks every interval until ctx is done.
func (s *RouteSimulator) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("route simulator ready",
		zap.String("user", s.userID),
		zap.Int("points", len(s.start)),
		zap.Float64("step_km", s.stepKm),
	)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}
