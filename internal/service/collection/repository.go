package collection

import (
	"context"
	"sort"

	"geoclaim/internal/model"
	"geoclaim/internal/service/storage"
)

// Repository persists succeeded claims. postgres.ClaimRepo is the production one.
type Repository interface {
	// Save reports false when the user already owns the item.
	Save(ctx context.Context, claim *model.ClaimPG) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]model.ClaimPG, error)
}

// MemoryRepository keeps claims in process, for runs without Postgres.
type MemoryRepository struct {
	claims *storage.ShardedMemoryStorage[string, model.ClaimPG]
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{claims: storage.NewShardedMemoryStorage[string, model.ClaimPG](8, nil)}
}

func (r *MemoryRepository) Save(_ context.Context, claim *model.ClaimPG) (bool, error) {
	_, inserted := r.claims.Update(claim.UserID+"|"+claim.ItemID, func(cur model.ClaimPG, exists bool) (model.ClaimPG, bool) {
		if exists {
			return cur, false
		}
		return *claim, true
	})
	return inserted, nil
}

func (r *MemoryRepository) ListByUser(_ context.Context, userID string) ([]model.ClaimPG, error) {
	var out []model.ClaimPG
	r.claims.ForEach(func(_ string, c model.ClaimPG) bool {
		if c.UserID == userID {
			out = append(out, c)
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ClaimedAt.Before(out[j].ClaimedAt) })
	return out, nil
}
