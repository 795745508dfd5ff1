package proximity

import (
	"context"
	"fmt"
	"time"

	"geoclaim/internal/errs"
	"geoclaim/internal/model"
)

// CatalogProvider supplies the collectibles the engine reasons about.
type CatalogProvider interface {
	List(ctx context.Context) ([]model.CollectibleItem, error)
}

// Engine answers proximity questions against the latest tracked position.
// It never caches eligibility: every call reads the current fix.
type Engine struct {
	catalog CatalogProvider
	tracker *Tracker
	opts    Options
	now     func() time.Time
}

func NewEngine(catalog CatalogProvider, tracker *Tracker, opts Options) *Engine {
	return &Engine{catalog: catalog, tracker: tracker, opts: opts, now: time.Now}
}

// Nearby returns the claimable items for userID.
func (e *Engine) Nearby(ctx context.Context, userID string) ([]NearbyItem, error) {
	pos, ok := e.tracker.Latest(userID)
	if !ok {
		return nil, errs.ErrNoPosition
	}
	items, err := e.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	return e.opts.FindNearby(pos, items, e.now()), nil
}

// Distances returns every catalog item with its distance from userID.
func (e *Engine) Distances(ctx context.Context, userID string) (model.UserPosition, []NearbyItem, error) {
	pos, ok := e.tracker.Latest(userID)
	if !ok {
		return model.UserPosition{}, nil, errs.ErrNoPosition
	}
	items, err := e.catalog.List(ctx)
	if err != nil {
		return pos, nil, fmt.Errorf("list catalog: %w", err)
	}
	return pos, Distances(pos.Point, items), nil
}

// CheckEligible reports whether itemID is claimable by userID right now.
// It fails with ErrNoPosition, ErrNotFound or ErrOutOfRange.
func (e *Engine) CheckEligible(ctx context.Context, userID, itemID string) (NearbyItem, error) {
	pos, ok := e.tracker.Latest(userID)
	if !ok {
		return NearbyItem{}, errs.ErrNoPosition
	}
	items, err := e.catalog.List(ctx)
	if err != nil {
		return NearbyItem{}, fmt.Errorf("list catalog: %w", err)
	}

	for _, item := range items {
		if item.ID != itemID {
			continue
		}
		d, eligible := e.opts.Eligible(pos, item, e.now())
		found := NearbyItem{Item: item, DistanceKm: d}
		if !eligible {
			if item.ExpiredAt(e.now()) {
				return found, fmt.Errorf("%w: item %s expired", errs.ErrOutOfRange, itemID)
			}
			return found, fmt.Errorf("%w: item %s is %.3f km away (radius %.3f km)",
				errs.ErrOutOfRange, itemID, d, item.RadiusKm())
		}
		return found, nil
	}
	return NearbyItem{}, fmt.Errorf("item %s: %w", itemID, errs.ErrNotFound)
}
