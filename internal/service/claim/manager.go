package claim

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"geoclaim/internal/errs"
	"geoclaim/internal/model"
	"geoclaim/internal/service/proximity"
	"geoclaim/internal/service/storage"
	"geoclaim/internal/util"

	"go.uber.org/zap"
)

// Eligibility answers whether a user may claim an item right now.
type Eligibility interface {
	CheckEligible(ctx context.Context, userID, itemID string) (proximity.NearbyItem, error)
}

// EventSink consumes succeeded claims, e.g. the collection store.
type EventSink interface {
	RecordClaim(ctx context.Context, ev model.ClaimEvent) error
}

// Outcome is the terminal result of a verification, delivered once.
type Outcome struct {
	Session Session
	Err     error
}

// View is a session as reported to callers, with eligibility derived from
// the current position.
type View struct {
	Session
	DistanceKm  *float64 `json:"distance_km,omitempty"`
	Ineligible  string   `json:"ineligible,omitempty"`
	Cancellable bool     `json:"cancellable"`
}

type Config struct {
	SessionTTL    time.Duration
	VerifyTimeout time.Duration
}

// Manager owns every claim session and serialises their transitions.
type Manager struct {
	mu       sync.Mutex
	sessions *storage.ShardedMemoryStorage[string, *Session]
	claimed  map[string]struct{}

	eligibility Eligibility
	verifier    Verifier
	sink        EventSink
	cfg         Config
	log         *zap.Logger

	now   func() time.Time
	newID func() string
	wg    sync.WaitGroup
}

func NewManager(eligibility Eligibility, verifier Verifier, sink EventSink, cfg Config, log *zap.Logger) *Manager {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 5 * time.Minute
	}
	if cfg.VerifyTimeout <= 0 {
		cfg.VerifyTimeout = 10 * time.Second
	}
	return &Manager{
		sessions:    storage.NewShardedMemoryStorage[string, *Session](16, nil),
		claimed:     make(map[string]struct{}),
		eligibility: eligibility,
		verifier:    verifier,
		sink:        sink,
		cfg:         cfg,
		log:         log,
		now:         time.Now,
		newID:       util.ShortUUID,
	}
}

func (m *Manager) lookup(id string) (*Session, error) {
	s, ok := m.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, errs.ErrNotFound)
	}
	return s, nil
}

// Create opens an Idle session. The item must be claimable for the user right now.
func (m *Manager) Create(ctx context.Context, userID, itemID string) (Session, error) {
	n, err := m.eligibility.CheckEligible(ctx, userID, itemID)
	if err != nil {
		return Session{}, err
	}

	s := newSession(m.newID(), userID, n.Item, m.now(), m.cfg.SessionTTL)
	m.sessions.Set(s.ID, s)

	m.log.Info("claim session created",
		zap.String("session", s.ID),
		zap.String("user", userID),
		zap.String("item", itemID),
		zap.Float64("distance_km", n.DistanceKm),
	)
	return *s, nil
}

// BeginScan moves an Idle session to Scanning after re-checking range
// against the latest position and rejecting a second active claim.
func (m *Manager) BeginScan(ctx context.Context, id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.lookup(id)
	if err != nil {
		return Session{}, err
	}
	now := m.now()
	if err := s.canBeginScan(now); err != nil {
		return *s, err
	}
	if err := m.checkConflict(s); err != nil {
		return *s, err
	}
	if _, err := m.eligibility.CheckEligible(ctx, s.UserID, s.ItemID); err != nil {
		m.log.Info("scan blocked",
			zap.String("session", s.ID),
			zap.Error(err),
		)
		return *s, err
	}
	if err := s.beginScan(now); err != nil {
		return *s, err
	}
	return *s, nil
}

// checkConflict must be called with m.mu held.
func (m *Manager) checkConflict(s *Session) error {
	if _, done := m.claimed[claimKey(s.ItemID, s.UserID)]; done {
		return fmt.Errorf("%w: item %s already claimed", errs.ErrClaimInProgress, s.ItemID)
	}

	var conflict error
	m.sessions.ForEach(func(_ string, other *Session) bool {
		if other.ID == s.ID || other.UserID != s.UserID || other.ItemID != s.ItemID {
			return true
		}
		switch other.State {
		case StateScanning, StateVerifying, StateSucceeded:
			conflict = fmt.Errorf("%w: session %s is %s", errs.ErrClaimInProgress, other.ID, other.State)
			return false
		}
		return true
	})
	return conflict
}

// CodeDetected feeds a scanned payload to a Scanning session and starts
// verification. The returned channel yields the terminal Outcome once.
func (m *Manager) CodeDetected(ctx context.Context, id, payload string) (<-chan Outcome, error) {
	m.mu.Lock()
	s, err := m.lookup(id)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	if err := s.codeDetected(payload, m.now()); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	req := Request{SessionID: s.ID, UserID: s.UserID, Item: s.Item}
	m.mu.Unlock()

	out := make(chan Outcome, 1)
	m.wg.Add(1)
	go m.verify(context.WithoutCancel(ctx), req, out)
	return out, nil
}

func (m *Manager) verify(ctx context.Context, req Request, out chan<- Outcome) {
	defer m.wg.Done()
	defer close(out)

	vctx, cancel := context.WithTimeout(ctx, m.cfg.VerifyTimeout)
	err := m.verifier.Verify(vctx, req)
	timedOut := errors.Is(vctx.Err(), context.DeadlineExceeded)
	cancel()

	reason := errs.ReasonOf(err)
	if err != nil && timedOut {
		reason = errs.ReasonNetworkError
	}
	if err != nil {
		m.log.Warn("claim verification failed",
			zap.String("session", req.SessionID),
			zap.String("reason", string(reason)),
			zap.Error(err),
		)
	}

	s, rerr := m.Resolve(ctx, req.SessionID, err == nil, reason)
	out <- Outcome{Session: s, Err: rerr}
}

// Resolve settles a Verifying session. Verifiers that report out of band
// call it directly; success emits a ClaimEvent to the sink.
func (m *Manager) Resolve(ctx context.Context, id string, success bool, reason errs.FailureReason) (Session, error) {
	m.mu.Lock()
	s, err := m.lookup(id)
	if err != nil {
		m.mu.Unlock()
		return Session{}, err
	}
	now := m.now()
	if err := s.verified(success, reason, now); err != nil {
		snapshot := *s
		m.mu.Unlock()
		return snapshot, err
	}
	if success {
		m.claimed[claimKey(s.ItemID, s.UserID)] = struct{}{}
	}
	snapshot := *s
	m.mu.Unlock()

	m.log.Info("claim session resolved",
		zap.String("session", snapshot.ID),
		zap.Stringer("state", snapshot.State),
		zap.String("reason", string(snapshot.Reason)),
	)

	if success && m.sink != nil {
		ev := model.ClaimEvent{
			SessionID: snapshot.ID,
			UserID:    snapshot.UserID,
			Item:      snapshot.Item,
			ClaimedAt: now,
		}
		if err := m.sink.RecordClaim(ctx, ev); err != nil {
			m.log.Error("record claim",
				zap.String("session", snapshot.ID),
				zap.Error(err),
			)
		}
	}
	return snapshot, nil
}

// Cancel discards an Idle or Scanning session.
func (m *Manager) Cancel(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	if err := s.cancel(); err != nil {
		return err
	}
	m.sessions.Delete(id)
	m.log.Info("claim session cancelled", zap.String("session", id))
	return nil
}

// Get returns the session with eligibility recomputed from the current position.
func (m *Manager) Get(ctx context.Context, id string) (View, error) {
	m.mu.Lock()
	s, err := m.lookup(id)
	if err != nil {
		m.mu.Unlock()
		return View{}, err
	}
	snapshot := *s
	m.mu.Unlock()

	return m.view(ctx, snapshot), nil
}

// ListByUser returns the user's sessions, oldest first.
func (m *Manager) ListByUser(ctx context.Context, userID string) []View {
	m.mu.Lock()
	var snapshots []Session
	m.sessions.ForEach(func(_ string, s *Session) bool {
		if s.UserID == userID {
			snapshots = append(snapshots, *s)
		}
		return true
	})
	m.mu.Unlock()

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].CreatedAt.Before(snapshots[j].CreatedAt)
	})

	views := make([]View, 0, len(snapshots))
	for _, s := range snapshots {
		views = append(views, m.view(ctx, s))
	}
	return views
}

func (m *Manager) view(ctx context.Context, s Session) View {
	v := View{Session: s, Cancellable: s.State == StateIdle || s.State == StateScanning}
	if s.State != StateIdle {
		return v
	}
	if m.now().After(s.ExpiresAt) {
		v.Ineligible = errs.ErrSessionExpired.Error()
		return v
	}

	n, err := m.eligibility.CheckEligible(ctx, s.UserID, s.ItemID)
	if n.Item.ID != "" {
		d := n.DistanceKm
		v.DistanceKm = &d
	}
	if err != nil {
		v.Ineligible = err.Error()
		return v
	}
	v.State = StateEligible
	return v
}

// Sweep purges terminal sessions older than retention and idle or scanning
// sessions whose TTL lapsed more than retention ago. Verifying sessions are kept.
func (m *Manager) Sweep(retention time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	return m.sessions.DeleteIf(func(_ string, s *Session) bool {
		switch {
		case s.State.Terminal():
			return now.Sub(s.UpdatedAt) > retention
		case s.State == StateVerifying:
			return false
		default:
			return now.Sub(s.ExpiresAt) > retention
		}
	})
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	return m.sessions.Count()
}

// Wait blocks until in-flight verifications finish.
func (m *Manager) Wait() {
	m.wg.Wait()
}
