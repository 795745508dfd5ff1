package claim

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"geoclaim/internal/errs"
	"geoclaim/internal/model"
	"geoclaim/internal/service/proximity"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEligibility struct {
	mu    sync.Mutex
	items map[string]model.CollectibleItem
	dist  map[string]float64
}

func newFakeEligibility(items ...model.CollectibleItem) *fakeEligibility {
	f := &fakeEligibility{items: map[string]model.CollectibleItem{}, dist: map[string]float64{}}
	for _, it := range items {
		f.items[it.ID] = it
	}
	return f
}

// walk sets the user's distance from itemID.
func (f *fakeEligibility) walk(itemID string, km float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dist[itemID] = km
}

func (f *fakeEligibility) CheckEligible(_ context.Context, _ string, itemID string) (proximity.NearbyItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[itemID]
	if !ok {
		return proximity.NearbyItem{}, errs.ErrNotFound
	}
	n := proximity.NearbyItem{Item: it, DistanceKm: f.dist[itemID]}
	if n.DistanceKm >= it.RadiusKm() {
		return n, fmt.Errorf("%w: %.2f km", errs.ErrOutOfRange, n.DistanceKm)
	}
	return n, nil
}

// gatedVerifier blocks every Verify until a result is pushed.
type gatedVerifier struct {
	results chan error
}

func newGatedVerifier() *gatedVerifier { return &gatedVerifier{results: make(chan error, 4)} }

func (g *gatedVerifier) Verify(ctx context.Context, _ Request) error {
	select {
	case err := <-g.results:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []model.ClaimEvent
	err    error
}

func (r *recordingSink) RecordClaim(_ context.Context, ev model.ClaimEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

var sunset = model.CollectibleItem{ID: "1", Name: "Golden Gate Sunset", Rarity: model.RarityLegendary, ClaimRadiusKm: 0.1}

type harness struct {
	m        *Manager
	elig     *fakeEligibility
	verifier *gatedVerifier
	sink     *recordingSink
	clock    time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		elig:     newFakeEligibility(sunset),
		verifier: newGatedVerifier(),
		sink:     &recordingSink{},
		clock:    t0,
	}
	h.m = NewManager(h.elig, h.verifier, h.sink, Config{SessionTTL: time.Minute, VerifyTimeout: time.Second}, zap.NewNop())
	h.m.now = func() time.Time { return h.clock }
	n := 0
	h.m.newID = func() string { n++; return fmt.Sprintf("s%d", n) }
	return h
}

func waitOutcome(t *testing.T, ch <-chan Outcome) Outcome {
	t.Helper()
	select {
	case o, ok := <-ch:
		require.True(t, ok)
		return o
	case <-time.After(2 * time.Second):
		t.Fatal("verification did not resolve")
		return Outcome{}
	}
}

// scanning drives a new session into Scanning.
func (h *harness) scanning(t *testing.T) Session {
	t.Helper()
	ctx := context.Background()
	s, err := h.m.Create(ctx, "u1", "1")
	require.NoError(t, err)
	s, err = h.m.BeginScan(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, StateScanning, s.State)
	return s
}

func TestManager_HappyPathEmitsEvent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.scanning(t)

	ch, err := h.m.CodeDetected(ctx, s.ID, "geoclaim://item/1")
	require.NoError(t, err)

	v, err := h.m.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, StateVerifying, v.State)
	require.False(t, v.Cancellable)

	h.verifier.results <- nil
	o := waitOutcome(t, ch)
	require.NoError(t, o.Err)
	require.Equal(t, StateSucceeded, o.Session.State)

	require.Equal(t, 1, h.sink.count())
	require.Equal(t, "u1", h.sink.events[0].UserID)
	require.Equal(t, "1", h.sink.events[0].Item.ID)
}

func TestManager_CreateRequiresNearby(t *testing.T) {
	h := newHarness(t)
	h.elig.walk("1", 6.4)

	_, err := h.m.Create(context.Background(), "u1", "1")
	require.ErrorIs(t, err, errs.ErrOutOfRange)
	require.Zero(t, h.m.Count())

	_, err = h.m.Create(context.Background(), "u1", "missing")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestManager_WalkingAwayBlocksScan(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	s, err := h.m.Create(ctx, "u1", "1")
	require.NoError(t, err)

	v, err := h.m.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, StateEligible, v.State)

	h.elig.walk("1", 7.2)

	v, err = h.m.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, StateIdle, v.State)
	require.NotEmpty(t, v.Ineligible)
	require.NotNil(t, v.DistanceKm)

	got, err := h.m.BeginScan(ctx, s.ID)
	require.ErrorIs(t, err, errs.ErrOutOfRange)
	require.Equal(t, StateIdle, got.State)

	h.elig.walk("1", 0.01)
	got, err = h.m.BeginScan(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, StateScanning, got.State)
}

func TestManager_ExpiredSessionCannotScan(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s, err := h.m.Create(ctx, "u1", "1")
	require.NoError(t, err)

	h.clock = h.clock.Add(2 * time.Minute)
	_, err = h.m.BeginScan(ctx, s.ID)
	require.ErrorIs(t, err, errs.ErrSessionExpired)

	v, err := h.m.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, StateIdle, v.State)
}

func TestManager_EmptyPayloadStaysScanning(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.scanning(t)

	ch, err := h.m.CodeDetected(ctx, s.ID, "")
	require.ErrorIs(t, err, errs.ErrInvalidPayload)
	require.Nil(t, ch)

	v, err := h.m.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, StateScanning, v.State)
}

func TestManager_FailedIsTerminal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.scanning(t)

	ch, err := h.m.CodeDetected(ctx, s.ID, "1")
	require.NoError(t, err)

	require.ErrorIs(t, h.m.Cancel(ctx, s.ID), errs.ErrInvalidTransition)

	h.verifier.results <- errs.Verification(errs.ReasonAlreadyClaimed)
	o := waitOutcome(t, ch)
	require.NoError(t, o.Err)
	require.Equal(t, StateFailed, o.Session.State)
	require.Equal(t, errs.ReasonAlreadyClaimed, o.Session.Reason)

	require.ErrorIs(t, h.m.Cancel(ctx, s.ID), errs.ErrInvalidTransition)
	_, err = h.m.BeginScan(ctx, s.ID)
	require.ErrorIs(t, err, errs.ErrInvalidTransition)
	_, err = h.m.CodeDetected(ctx, s.ID, "1")
	require.ErrorIs(t, err, errs.ErrInvalidTransition)
	_, err = h.m.Resolve(ctx, s.ID, true, errs.ReasonNone)
	require.ErrorIs(t, err, errs.ErrInvalidTransition)
	require.Zero(t, h.sink.count())
}

func TestManager_SecondSessionBlockedWhileVerifying(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	first := h.scanning(t)

	ch, err := h.m.CodeDetected(ctx, first.ID, "1")
	require.NoError(t, err)

	second, err := h.m.Create(ctx, "u1", "1")
	require.NoError(t, err)
	_, err = h.m.BeginScan(ctx, second.ID)
	require.ErrorIs(t, err, errs.ErrClaimInProgress)

	h.verifier.results <- nil
	require.Equal(t, StateSucceeded, waitOutcome(t, ch).Session.State)

	_, err = h.m.BeginScan(ctx, second.ID)
	require.ErrorIs(t, err, errs.ErrClaimInProgress)

	// the claim is remembered after the succeeded session is swept
	h.clock = h.clock.Add(10 * time.Minute)
	h.m.Sweep(time.Minute)
	third, err := h.m.Create(ctx, "u1", "1")
	require.NoError(t, err)
	_, err = h.m.BeginScan(ctx, third.ID)
	require.ErrorIs(t, err, errs.ErrClaimInProgress)

	// other users are unaffected
	other, err := h.m.Create(ctx, "u2", "1")
	require.NoError(t, err)
	_, err = h.m.BeginScan(ctx, other.ID)
	require.NoError(t, err)
}

func TestManager_CancelDestroysSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	idle, err := h.m.Create(ctx, "u1", "1")
	require.NoError(t, err)
	require.NoError(t, h.m.Cancel(ctx, idle.ID))
	_, err = h.m.Get(ctx, idle.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)

	scanning := h.scanning(t)
	require.NoError(t, h.m.Cancel(ctx, scanning.ID))
	require.ErrorIs(t, h.m.Cancel(ctx, scanning.ID), errs.ErrNotFound)
}

func TestManager_VerifyTimeoutIsNetworkError(t *testing.T) {
	h := newHarness(t)
	h.m.cfg.VerifyTimeout = 20 * time.Millisecond
	s := h.scanning(t)

	ch, err := h.m.CodeDetected(context.Background(), s.ID, "1")
	require.NoError(t, err)

	o := waitOutcome(t, ch)
	require.Equal(t, StateFailed, o.Session.State)
	require.Equal(t, errs.ReasonNetworkError, o.Session.Reason)
}

func TestManager_SinkErrorDoesNotUndoClaim(t *testing.T) {
	h := newHarness(t)
	h.sink.err = fmt.Errorf("db down")
	s := h.scanning(t)

	ch, err := h.m.CodeDetected(context.Background(), s.ID, "1")
	require.NoError(t, err)
	h.verifier.results <- nil

	o := waitOutcome(t, ch)
	require.NoError(t, o.Err)
	require.Equal(t, StateSucceeded, o.Session.State)
	require.Equal(t, 1, h.sink.count())
}

func TestManager_SweepKeepsVerifying(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	verifying := h.scanning(t)
	_, err := h.m.CodeDetected(ctx, verifying.ID, "1")
	require.NoError(t, err)

	_, err = h.m.Create(ctx, "u2", "1")
	require.NoError(t, err)

	h.clock = h.clock.Add(time.Hour)
	require.Equal(t, 1, h.m.Sweep(time.Minute))
	require.Equal(t, 1, h.m.Count())

	h.verifier.results <- nil
	h.m.Wait()
}

func TestManager_ListByUser(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.m.Create(ctx, "u1", "1")
	require.NoError(t, err)
	h.clock = h.clock.Add(time.Second)
	_, err = h.m.Create(ctx, "u1", "1")
	require.NoError(t, err)
	_, err = h.m.Create(ctx, "u2", "1")
	require.NoError(t, err)

	views := h.m.ListByUser(ctx, "u1")
	require.Len(t, views, 2)
	require.Equal(t, "s1", views[0].ID)
	require.Equal(t, "s2", views[1].ID)
	require.Empty(t, h.m.ListByUser(ctx, "nobody"))
}
