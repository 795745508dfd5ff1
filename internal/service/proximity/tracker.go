package proximity

import (
	"time"

	"geoclaim/internal/model"
	"geoclaim/internal/service/storage"
	"geoclaim/internal/util"

	"go.uber.org/zap"
)

type trackState struct {
	position    model.UserPosition
	travelledKm float64
}

// Tracker holds the latest position of every user. Each fix replaces the
// previous one atomically; fixes older than the stored one are dropped.
// Timestamps ahead of the server clock are clamped to it, so a skewed
// client cannot pin a position in place.
type Tracker struct {
	states *storage.ShardedMemoryStorage[string, trackState]
	now    func() time.Time
	log    *zap.Logger
}

func NewTracker(log *zap.Logger) *Tracker {
	return &Tracker{
		states: storage.NewShardedMemoryStorage[string, trackState](16, nil),
		now:    time.Now,
		log:    log,
	}
}

// Update stores pos as the latest fix for userID. It returns false when pos
// is older than the fix already held.
func (t *Tracker) Update(userID string, pos model.UserPosition) (bool, error) {
	if err := util.ValidatePoint(pos.Point); err != nil {
		return false, err
	}
	if now := t.now(); pos.Timestamp.After(now) {
		t.log.Debug("future position clamped",
			zap.String("user", userID),
			zap.Time("ts", pos.Timestamp),
		)
		pos.Timestamp = now
	}

	_, accepted := t.states.Update(userID, func(cur trackState, exists bool) (trackState, bool) {
		if !exists {
			return trackState{position: pos}, true
		}
		if pos.Timestamp.Before(cur.position.Timestamp) {
			return cur, false
		}
		return trackState{
			position:    pos,
			travelledKm: cur.travelledKm + util.DistanceKm(cur.position.Point, pos.Point),
		}, true
	})

	if !accepted {
		t.log.Debug("stale position dropped",
			zap.String("user", userID),
			zap.Time("ts", pos.Timestamp),
		)
	}
	return accepted, nil
}

// Latest returns the most recent fix for userID.
func (t *Tracker) Latest(userID string) (model.UserPosition, bool) {
	st, ok := t.states.Get(userID)
	return st.position, ok
}

// TravelledKm is the summed distance between the fixes received for userID.
func (t *Tracker) TravelledKm(userID string) float64 {
	st, _ := t.states.Get(userID)
	return st.travelledKm
}

// Forget drops everything known about userID, so eligibility can no longer
// be computed until a new fix arrives.
func (t *Tracker) Forget(userID string) {
	t.states.Delete(userID)
}
