// Package proximity decides which collectibles a user can currently claim.
package proximity

import (
	"sort"
	"time"

	"geoclaim/internal/model"
	"geoclaim/internal/util"
)

// NearbyItem pairs an item with its distance from the user.
type NearbyItem struct {
	Item       model.CollectibleItem `json:"item"`
	DistanceKm float64               `json:"distance_km"`
}

// Options tunes the eligibility predicate.
type Options struct {
	// AccuracyAware subtracts the fix accuracy from the distance before
	// comparing it with the radius. Off by default: raw coordinates decide.
	AccuracyAware bool
}

// FindNearby returns the claimable items of catalog for position at now,
// nearest first. Ties keep catalog order.
func FindNearby(position model.UserPosition, catalog []model.CollectibleItem, now time.Time) []NearbyItem {
	return Options{}.FindNearby(position, catalog, now)
}

// FindNearby is the package-level FindNearby with o applied.
func (o Options) FindNearby(position model.UserPosition, catalog []model.CollectibleItem, now time.Time) []NearbyItem {
	result := make([]NearbyItem, 0)
	for _, item := range catalog {
		if d, ok := o.Eligible(position, item, now); ok {
			result = append(result, NearbyItem{Item: item, DistanceKm: d})
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].DistanceKm < result[j].DistanceKm
	})
	return result
}

// Eligible reports the distance to item and whether it is claimable from position at now.
func (o Options) Eligible(position model.UserPosition, item model.CollectibleItem, now time.Time) (float64, bool) {
	d := util.DistanceKm(position.Point, item.Location)
	if item.ExpiredAt(now) {
		return d, false
	}

	effective := d
	if o.AccuracyAware && position.AccuracyM > 0 {
		effective -= position.AccuracyM / 1000
	}
	return d, effective < item.RadiusKm()
}

// Distances returns every item with its distance from point, in catalog order.
func Distances(point model.GeoPoint, catalog []model.CollectibleItem) []NearbyItem {
	result := make([]NearbyItem, len(catalog))
	for i, item := range catalog {
		result[i] = NearbyItem{Item: item, DistanceKm: util.DistanceKm(point, item.Location)}
	}
	return result
}
