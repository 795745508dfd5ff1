package postgres

import (
	"context"
	"fmt"

	"geoclaim/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const upsertBatchSize = 500

// ItemRepo persists the collectible catalog.
type ItemRepo struct {
	db *gorm.DB
}

func NewItemRepo(db *gorm.DB) *ItemRepo {
	return &ItemRepo{db: db}
}

// LoadItems returns every live item, oldest first.
func (r *ItemRepo) LoadItems(ctx context.Context) ([]model.CollectibleItem, error) {
	var rows []*model.ItemPG
	if err := r.db.WithContext(ctx).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}

	items := make([]model.CollectibleItem, len(rows))
	for i, row := range rows {
		items[i] = model.ItemFromPG(row)
	}
	return items, nil
}

// Upsert inserts items or overwrites the existing rows with the same ID.
func (r *ItemRepo) Upsert(ctx context.Context, items []model.CollectibleItem) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]*model.ItemPG, len(items))
	for i := range items {
		rows[i] = items[i].ToPG()
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(rows, upsertBatchSize).Error
	if err != nil {
		return fmt.Errorf("upsert items: %w", err)
	}
	return nil
}
