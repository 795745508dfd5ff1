// Package search holds the pure filter, search and sort helpers used by the
// catalog and collection endpoints. None of them modify their input.
package search

import (
	"slices"
	"sort"
	"strings"

	"geoclaim/internal/model"
	"geoclaim/internal/service/proximity"
)

// All is the wildcard filter value.
const All = "all"

// IsWildcard reports whether value selects everything.
func IsWildcard(value string) bool {
	v := strings.TrimSpace(value)
	return v == "" || strings.EqualFold(v, All)
}

// FilterBy keeps the elements whose key equals value exactly, in their
// original order. A wildcard value returns items unchanged.
func FilterBy[T any](items []T, value string, key func(T) string) []T {
	if IsWildcard(value) {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if key(item) == value {
			out = append(out, item)
		}
	}
	return out
}

// FilterByCategory filters collectibles by rarity tier.
func FilterByCategory(items []model.CollectibleItem, category string) []model.CollectibleItem {
	return FilterBy(items, category, func(i model.CollectibleItem) string { return string(i.Rarity) })
}

// Match keeps the elements where any field contains query, ignoring case.
// An empty query returns items unchanged.
func Match[T any](items []T, query string, fields func(T) []string) []T {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if slices.ContainsFunc(fields(item), func(f string) bool {
			return strings.Contains(strings.ToLower(f), q)
		}) {
			out = append(out, item)
		}
	}
	return out
}

// Search matches collectibles on name, shop name and address.
func Search(items []model.CollectibleItem, query string) []model.CollectibleItem {
	return Match(items, query, func(i model.CollectibleItem) []string {
		return []string{i.Name, i.ShopName, i.Address}
	})
}

// SelectTab returns value if it is one of allowed, fallback otherwise.
func SelectTab(value string, allowed []string, fallback string) string {
	if slices.Contains(allowed, value) {
		return value
	}
	return fallback
}

// SortKey orders nearby results.
type SortKey string

const (
	SortDistance SortKey = "distance"
	SortRarity   SortKey = "rarity"
	SortName     SortKey = "name"
)

var sortKeys = []string{string(SortDistance), string(SortRarity), string(SortName)}

// ParseSortKey maps a query value to a SortKey, defaulting to SortDistance.
func ParseSortKey(value string) SortKey {
	return SortKey(SelectTab(strings.ToLower(value), sortKeys, string(SortDistance)))
}

// Sort returns a sorted copy of items. Ties keep their original order.
// Rarity sorts the rarest tier first.
func Sort(items []proximity.NearbyItem, by SortKey) []proximity.NearbyItem {
	out := slices.Clone(items)

	var less func(a, b proximity.NearbyItem) bool
	switch by {
	case SortRarity:
		less = func(a, b proximity.NearbyItem) bool {
			if ra, rb := a.Item.Rarity.Ordinal(), b.Item.Rarity.Ordinal(); ra != rb {
				return ra > rb
			}
			return a.Item.RarityScore > b.Item.RarityScore
		}
	case SortName:
		less = func(a, b proximity.NearbyItem) bool {
			return strings.ToLower(a.Item.Name) < strings.ToLower(b.Item.Name)
		}
	default:
		less = func(a, b proximity.NearbyItem) bool { return a.DistanceKm < b.DistanceKm }
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
