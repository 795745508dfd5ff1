package postgres

import (
	"context"
	"fmt"

	"geoclaim/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClaimRepo stores succeeded claims.
type ClaimRepo struct {
	db *gorm.DB
}

func NewClaimRepo(db *gorm.DB) *ClaimRepo {
	return &ClaimRepo{db: db}
}

// Save inserts the claim. It reports false when the user already owns the item.
func (r *ClaimRepo) Save(ctx context.Context, claim *model.ClaimPG) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "item_id"}},
			DoNothing: true,
		}).
		Create(claim)
	if res.Error != nil {
		return false, fmt.Errorf("save claim: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListByUser returns the user's claims, oldest first.
func (r *ClaimRepo) ListByUser(ctx context.Context, userID string) ([]model.ClaimPG, error) {
	var claims []model.ClaimPG
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("claimed_at").
		Find(&claims).Error
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	return claims, nil
}
