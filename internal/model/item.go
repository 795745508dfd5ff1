package model

import (
	"time"

	"gorm.io/gorm"
)

// DefaultClaimRadiusKm is used for items that carry no radius of their own (100 m).
const DefaultClaimRadiusKm = 0.1

// Rarity is the display tier of a collectible. It never affects claim logic.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Rarities lists the tiers in ascending order.
var Rarities = []Rarity{RarityCommon, RarityRare, RarityEpic, RarityLegendary}

// Ordinal returns the position of r in Rarities, or -1 for an unknown tier.
func (r Rarity) Ordinal() int {
	for i, v := range Rarities {
		if v == r {
			return i
		}
	}
	return -1
}

// Points is the leaderboard score awarded for claiming an item of this tier.
func (r Rarity) Points() int64 {
	switch r {
	case RarityRare:
		return 25
	case RarityEpic:
		return 50
	case RarityLegendary:
		return 100
	default:
		return 10
	}
}

// ItemPG model for PostgreSQL storage
type ItemPG struct {
	ID            string     `gorm:"primaryKey"`
	Name          string     `gorm:"size:255;not null"`
	ShopName      string     `gorm:"size:255"`
	Address       string     `gorm:"size:255"`
	ImageURL      string     `gorm:"type:text"`
	Rarity        Rarity     `gorm:"size:20;not null"`
	RarityScore   int        `gorm:"not null;default:0"`
	Latitude      float64    `gorm:"not null"`
	Longitude     float64    `gorm:"not null"`
	ClaimRadiusKm float64    `gorm:"not null;default:0.1"`
	ExpiresAt     *time.Time `gorm:"index"`

	UpdatedAt time.Time      `gorm:"column:updated_at"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

// TableName overrides the table name
func (ItemPG) TableName() string {
	return "items"
}

// CollectibleItem is the in-memory, read-only view of a location-bound collectible.
type CollectibleItem struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	ShopName      string     `json:"shop_name,omitempty"`
	Address       string     `json:"address,omitempty"`
	ImageURL      string     `json:"image_url,omitempty"`
	Rarity        Rarity     `json:"rarity"`
	RarityScore   int        `json:"rarity_score"`
	Location      GeoPoint   `json:"location"`
	ClaimRadiusKm float64    `json:"claim_radius_km"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// RadiusKm returns the claim radius, falling back to DefaultClaimRadiusKm.
func (i *CollectibleItem) RadiusKm() float64 {
	if i.ClaimRadiusKm <= 0 {
		return DefaultClaimRadiusKm
	}
	return i.ClaimRadiusKm
}

// ExpiredAt reports whether the item can no longer be claimed at now.
func (i *CollectibleItem) ExpiredAt(now time.Time) bool {
	return i.ExpiresAt != nil && !i.ExpiresAt.After(now)
}

// ItemFromPG creates a CollectibleItem from ItemPG
func ItemFromPG(pg *ItemPG) CollectibleItem {
	return CollectibleItem{
		ID:            pg.ID,
		Name:          pg.Name,
		ShopName:      pg.ShopName,
		Address:       pg.Address,
		ImageURL:      pg.ImageURL,
		Rarity:        pg.Rarity,
		RarityScore:   pg.RarityScore,
		Location:      GeoPoint{Latitude: pg.Latitude, Longitude: pg.Longitude},
		ClaimRadiusKm: pg.ClaimRadiusKm,
		ExpiresAt:     pg.ExpiresAt,
	}
}

// ToPG converts the item to its PostgreSQL row.
func (i *CollectibleItem) ToPG() *ItemPG {
	return &ItemPG{
		ID:            i.ID,
		Name:          i.Name,
		ShopName:      i.ShopName,
		Address:       i.Address,
		ImageURL:      i.ImageURL,
		Rarity:        i.Rarity,
		RarityScore:   i.RarityScore,
		Latitude:      i.Location.Latitude,
		Longitude:     i.Location.Longitude,
		ClaimRadiusKm: i.RadiusKm(),
		ExpiresAt:     i.ExpiresAt,
	}
}
