package main

import (
	"fmt"
	"strconv"
	"strings"

	"geoclaim/internal/model"

	"github.com/paulmach/orb"
)

// poiKeys are the OSM tag keys that make a node a claimable place, in lookup order.
var poiKeys = []string{"tourism", "historic", "shop", "amenity"}

var amenityKinds = map[string]bool{
	"cafe":        true,
	"restaurant":  true,
	"bar":         true,
	"pub":         true,
	"ice_cream":   true,
	"library":     true,
	"theatre":     true,
	"arts_centre": true,
}

// rarityFor ranks a place by how special it tends to be.
func rarityFor(key, value string) model.Rarity {
	switch {
	case key == "tourism" && (value == "attraction" || value == "viewpoint"):
		return model.RarityLegendary
	case key == "historic", key == "tourism" && value == "museum":
		return model.RarityEpic
	case key == "tourism" && value == "artwork", key == "shop" && value == "art", key == "amenity" && value == "arts_centre":
		return model.RarityRare
	default:
		return model.RarityCommon
	}
}

// poiFromNode turns a tagged node into a catalog item. Unnamed nodes and
// nodes without a supported tag are rejected.
func poiFromNode(id int64, lat, lon float64, tags map[string]string, radiusKm float64) (model.CollectibleItem, bool) {
	name := strings.TrimSpace(tags["name"])
	if name == "" {
		return model.CollectibleItem{}, false
	}

	for _, key := range poiKeys {
		value, ok := tags[key]
		if !ok {
			continue
		}
		if key == "amenity" && !amenityKinds[value] {
			continue
		}
		return model.CollectibleItem{
			ID:            "osm-" + strconv.FormatInt(id, 10),
			Name:          name,
			ShopName:      name,
			Address:       address(tags),
			Rarity:        rarityFor(key, value),
			Location:      model.GeoPoint{Latitude: lat, Longitude: lon},
			ClaimRadiusKm: radiusKm,
		}, true
	}
	return model.CollectibleItem{}, false
}

func address(tags map[string]string) string {
	street := strings.TrimSpace(tags["addr:housenumber"] + " " + tags["addr:street"])
	parts := make([]string, 0, 2)
	if street != "" {
		parts = append(parts, street)
	}
	if city := tags["addr:city"]; city != "" {
		parts = append(parts, city)
	}
	return strings.Join(parts, ", ")
}

// parseBBox reads "minLat,minLng,maxLat,maxLng".
func parseBBox(s string) (orb.Bound, error) {
	fields := strings.Split(s, ",")
	if len(fields) != 4 {
		return orb.Bound{}, fmt.Errorf("bbox needs 4 comma-separated numbers, got %q", s)
	}
	v := make([]float64, 4)
	for i, f := range fields {
		n, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("bbox value %q: %w", f, err)
		}
		v[i] = n
	}
	if v[2] < v[0] || v[3] < v[1] {
		return orb.Bound{}, fmt.Errorf("bbox %q is empty", s)
	}
	return orb.Bound{Min: orb.Point{v[1], v[0]}, Max: orb.Point{v[3], v[2]}}, nil
}
