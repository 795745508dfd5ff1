package catalog

import (
	"context"
	"fmt"
	"os"
	"time"

	"geoclaim/internal/model"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ParseGeoJSON reads a FeatureCollection of Point features into items.
// Non-point features are ignored. The item ID comes from the "id" property,
// falling back to the feature id.
func ParseGeoJSON(data []byte) ([]model.CollectibleItem, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}

	items := make([]model.CollectibleItem, 0, len(fc.Features))
	for i, f := range fc.Features {
		point, ok := f.Geometry.(orb.Point)
		if !ok {
			continue
		}

		props := f.Properties
		item := model.CollectibleItem{
			ID:            props.MustString("id", ""),
			Name:          props.MustString("name", ""),
			ShopName:      props.MustString("shop_name", ""),
			Address:       props.MustString("address", ""),
			ImageURL:      props.MustString("image_url", ""),
			Rarity:        model.Rarity(props.MustString("rarity", string(model.RarityCommon))),
			RarityScore:   int(props.MustFloat64("rarity_score", 0)),
			Location:      model.GeoPoint{Latitude: point.Lat(), Longitude: point.Lon()},
			ClaimRadiusKm: props.MustFloat64("claim_radius_km", model.DefaultClaimRadiusKm),
		}
		if item.ID == "" && f.ID != nil {
			item.ID = fmt.Sprint(f.ID)
		}
		if item.Rarity.Ordinal() < 0 {
			return nil, fmt.Errorf("feature %d: unknown rarity %q", i, item.Rarity)
		}
		if raw := props.MustString("expires_at", ""); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return nil, fmt.Errorf("feature %d: expires_at: %w", i, err)
			}
			item.ExpiresAt = &t
		}
		items = append(items, item)
	}
	return items, nil
}

// ExportGeoJSON writes items as a FeatureCollection of Point features.
func ExportGeoJSON(items []model.CollectibleItem) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, item := range items {
		feature := geojson.NewFeature(orb.Point{item.Location.Longitude, item.Location.Latitude})
		feature.ID = item.ID
		feature.Properties["id"] = item.ID
		feature.Properties["name"] = item.Name
		feature.Properties["shop_name"] = item.ShopName
		feature.Properties["address"] = item.Address
		feature.Properties["image_url"] = item.ImageURL
		feature.Properties["rarity"] = string(item.Rarity)
		feature.Properties["rarity_score"] = item.RarityScore
		feature.Properties["claim_radius_km"] = item.RadiusKm()
		if item.ExpiresAt != nil {
			feature.Properties["expires_at"] = item.ExpiresAt.UTC().Format(time.RFC3339)
		}
		fc.Append(feature)
	}
	return fc.MarshalJSON()
}

// FileSource loads a GeoJSON seed from disk on every call.
type FileSource struct {
	Path string
}

func (s FileSource) LoadItems(_ context.Context) ([]model.CollectibleItem, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", s.Path, err)
	}
	return ParseGeoJSON(data)
}
