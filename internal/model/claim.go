package model

import (
	"time"

	"gorm.io/gorm"
)

// ClaimPG is a succeeded claim recorded against a user's collection.
type ClaimPG struct {
	ID        string `gorm:"primaryKey" json:"id"`
	SessionID string `gorm:"size:64;not null" json:"session_id"`
	UserID    string `gorm:"size:64;not null;uniqueIndex:idx_claims_user_item" json:"user_id"`
	ItemID    string `gorm:"size:64;not null;uniqueIndex:idx_claims_user_item" json:"item_id"`
	ItemName  string `gorm:"size:255" json:"item_name"`
	Location  string `gorm:"size:255" json:"location"`
	Rarity    Rarity `gorm:"size:20;not null" json:"rarity"`
	Points    int64  `gorm:"not null" json:"points"`

	ClaimedAt time.Time      `gorm:"column:claimed_at;index" json:"claimed_at"`
	CreatedAt time.Time      `gorm:"column:created_at" json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

// TableName overrides the table name
func (ClaimPG) TableName() string {
	return "claims"
}

// ClaimEvent is emitted once per session that reaches Succeeded.
type ClaimEvent struct {
	SessionID string
	UserID    string
	Item      CollectibleItem
	ClaimedAt time.Time
}
