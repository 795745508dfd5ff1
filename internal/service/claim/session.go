// Package claim implements the claim session state machine and its manager.
package claim

import (
	"fmt"
	"time"

	"geoclaim/internal/errs"
	"geoclaim/internal/model"
)

// State of a claim session.
type State int

const (
	StateIdle State = iota
	StateEligible
	StateScanning
	StateVerifying
	StateSucceeded
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:      "idle",
	StateEligible:  "eligible",
	StateScanning:  "scanning",
	StateVerifying: "verifying",
	StateSucceeded: "succeeded",
	StateFailed:    "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Session is one claim attempt of a user on an item. Eligible is never
// stored; it is derived from the current position when a session is read.
type Session struct {
	ID        string                `json:"id"`
	UserID    string                `json:"user_id"`
	ItemID    string                `json:"item_id"`
	Item      model.CollectibleItem `json:"-"`
	State     State                 `json:"state"`
	Reason    errs.FailureReason    `json:"reason,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
	ExpiresAt time.Time             `json:"expires_at"`
}

func newSession(id, userID string, item model.CollectibleItem, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:        id,
		UserID:    userID,
		ItemID:    item.ID,
		Item:      item,
		State:     StateIdle,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func invalid(s *Session, event string) error {
	return fmt.Errorf("%w: %s in state %s", errs.ErrInvalidTransition, event, s.State)
}

// canBeginScan checks the guards that depend on the session alone.
func (s *Session) canBeginScan(now time.Time) error {
	if s.State != StateIdle {
		return invalid(s, "begin scan")
	}
	if now.After(s.ExpiresAt) {
		return fmt.Errorf("%w: session %s expired at %s", errs.ErrSessionExpired, s.ID, s.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}

// beginScan moves Idle to Scanning. Range and conflict guards are checked by the manager.
func (s *Session) beginScan(now time.Time) error {
	if err := s.canBeginScan(now); err != nil {
		return err
	}
	s.State = StateScanning
	s.UpdatedAt = now
	return nil
}

// codeDetected moves Scanning to Verifying. An invalid payload leaves the state unchanged.
func (s *Session) codeDetected(payload string, now time.Time) error {
	if s.State != StateScanning {
		return invalid(s, "code detected")
	}
	itemID, err := ParsePayload(payload)
	if err != nil {
		return err
	}
	if itemID != s.ItemID {
		return fmt.Errorf("%w: code is for item %q, session targets %q", errs.ErrInvalidPayload, itemID, s.ItemID)
	}
	s.State = StateVerifying
	s.UpdatedAt = now
	return nil
}

// verified resolves Verifying into Succeeded or Failed.
func (s *Session) verified(success bool, reason errs.FailureReason, now time.Time) error {
	if s.State != StateVerifying {
		return invalid(s, "verified")
	}
	if success {
		s.State = StateSucceeded
		s.Reason = errs.ReasonNone
	} else {
		if reason == errs.ReasonNone {
			reason = errs.ReasonUnknown
		}
		s.State = StateFailed
		s.Reason = reason
	}
	s.UpdatedAt = now
	return nil
}

// cancel is allowed from Idle and Scanning only.
func (s *Session) cancel() error {
	if s.State != StateIdle && s.State != StateScanning {
		return invalid(s, "cancel")
	}
	return nil
}
