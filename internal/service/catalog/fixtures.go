package catalog

import (
	"context"

	"geoclaim/internal/model"
)

// Fixtures returns the San Francisco demo catalog.
func Fixtures() []model.CollectibleItem {
	return []model.CollectibleItem{
		{
			ID:            "1",
			Name:          "Golden Gate Sunset",
			ShopName:      "Golden Gate Cafe",
			Address:       "Golden Gate Bridge, San Francisco, CA",
			ImageURL:      "https://images.pexels.com/photos/1006965/pexels-photo-1006965.jpeg?auto=compress&cs=tinysrgb&w=400",
			Rarity:        model.RarityLegendary,
			RarityScore:   95,
			Location:      model.GeoPoint{Latitude: 37.8199, Longitude: -122.4783},
			ClaimRadiusKm: model.DefaultClaimRadiusKm,
		},
		{
			ID:            "2",
			Name:          "Urban Street Art",
			ShopName:      "Art Corner Gallery",
			Address:       "Mission District, San Francisco, CA",
			ImageURL:      "https://images.pexels.com/photos/1646953/pexels-photo-1646953.jpeg?auto=compress&cs=tinysrgb&w=400",
			Rarity:        model.RarityRare,
			RarityScore:   78,
			Location:      model.GeoPoint{Latitude: 37.7749, Longitude: -122.4194},
			ClaimRadiusKm: model.DefaultClaimRadiusKm,
		},
		{
			ID:            "3",
			Name:          "Coffee Shop Vibes",
			ShopName:      "Blue Bottle Coffee",
			Address:       "Union Square, San Francisco, CA",
			ImageURL:      "https://images.pexels.com/photos/302899/pexels-photo-302899.jpeg?auto=compress&cs=tinysrgb&w=400",
			Rarity:        model.RarityCommon,
			RarityScore:   45,
			Location:      model.GeoPoint{Latitude: 37.7849, Longitude: -122.4094},
			ClaimRadiusKm: model.DefaultClaimRadiusKm,
		},
		{
			ID:            "4",
			Name:          "Ocean Waves",
			ShopName:      "Seaside Bistro",
			Address:       "Ocean Beach, San Francisco, CA",
			ImageURL:      "https://images.pexels.com/photos/1001682/pexels-photo-1001682.jpeg?auto=compress&cs=tinysrgb&w=400",
			Rarity:        model.RarityEpic,
			RarityScore:   87,
			Location:      model.GeoPoint{Latitude: 37.8044, Longitude: -122.4679},
			ClaimRadiusKm: model.DefaultClaimRadiusKm,
		},
	}
}

// FixtureSource serves Fixtures.
var FixtureSource = SourceFunc(func(context.Context) ([]model.CollectibleItem, error) {
	return Fixtures(), nil
})
