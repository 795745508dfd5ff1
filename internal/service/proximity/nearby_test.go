package proximity

import (
	"testing"
	"time"

	"geoclaim/internal/model"

	"github.com/stretchr/testify/require"
)

var (
	goldenGate   = model.GeoPoint{Latitude: 37.8199, Longitude: -122.4783}
	missionDist  = model.GeoPoint{Latitude: 37.7749, Longitude: -122.4194}
	unionSquare  = model.GeoPoint{Latitude: 37.7849, Longitude: -122.4094}
	testNow      = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	goldenSunset = model.CollectibleItem{ID: "1", Name: "Golden Gate Sunset", Rarity: model.RarityLegendary, Location: goldenGate, ClaimRadiusKm: 0.1}
)

func at(p model.GeoPoint) model.UserPosition {
	return model.UserPosition{Point: p, AccuracyM: 5, Timestamp: testNow}
}

func TestFindNearby_SamePointIsEligible(t *testing.T) {
	got := FindNearby(at(goldenGate), []model.CollectibleItem{goldenSunset}, testNow)
	require.Len(t, got, 1)
	require.Equal(t, "1", got[0].Item.ID)
	require.Zero(t, got[0].DistanceKm)
}

func TestFindNearby_FarAwayIsNotEligible(t *testing.T) {
	got := FindNearby(at(missionDist), []model.CollectibleItem{goldenSunset}, testNow)
	require.Empty(t, got)
}

func TestFindNearby_EmptyCatalog(t *testing.T) {
	got := FindNearby(at(goldenGate), nil, testNow)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestFindNearby_ExcludesExpired(t *testing.T) {
	past := testNow.Add(-time.Minute)
	exact := testNow
	future := testNow.Add(time.Minute)

	items := []model.CollectibleItem{
		{ID: "past", Location: goldenGate, ExpiresAt: &past},
		{ID: "exact", Location: goldenGate, ExpiresAt: &exact},
		{ID: "future", Location: goldenGate, ExpiresAt: &future},
		{ID: "forever", Location: goldenGate},
	}

	got := FindNearby(at(goldenGate), items, testNow)
	ids := make([]string, 0, len(got))
	for _, n := range got {
		require.False(t, n.Item.ExpiredAt(testNow))
		ids = append(ids, n.Item.ID)
	}
	require.Equal(t, []string{"future", "forever"}, ids)
}

func TestFindNearby_SortedAndStable(t *testing.T) {
	near := goldenGate
	near.Latitude += 0.0003 // ~33 m
	nearer := goldenGate
	nearer.Latitude += 0.0001 // ~11 m

	items := []model.CollectibleItem{
		{ID: "a", Location: near},
		{ID: "b", Location: goldenGate},
		{ID: "c", Location: nearer},
		{ID: "d", Location: goldenGate},
		{ID: "far", Location: unionSquare},
	}

	got := FindNearby(at(goldenGate), items, testNow)
	ids := make([]string, 0, len(got))
	for i, n := range got {
		if i > 0 {
			require.GreaterOrEqual(t, n.DistanceKm, got[i-1].DistanceKm)
		}
		ids = append(ids, n.Item.ID)
	}
	require.Equal(t, []string{"b", "d", "c", "a"}, ids)
}

func TestFindNearby_DefaultRadius(t *testing.T) {
	p := goldenGate
	p.Latitude += 0.0008 // ~89 m, inside default 100 m
	q := goldenGate
	q.Latitude += 0.001 // ~111 m

	items := []model.CollectibleItem{{ID: "in", Location: p}, {ID: "out", Location: q}}
	got := FindNearby(at(goldenGate), items, testNow)
	require.Len(t, got, 1)
	require.Equal(t, "in", got[0].Item.ID)
}

func TestFindNearby_AccuracyIgnoredByDefault(t *testing.T) {
	q := goldenGate
	q.Latitude += 0.001 // ~111 m
	items := []model.CollectibleItem{{ID: "edge", Location: q}}

	pos := at(goldenGate)
	pos.AccuracyM = 50

	require.Empty(t, FindNearby(pos, items, testNow))
	require.Len(t, Options{AccuracyAware: true}.FindNearby(pos, items, testNow), 1)
}

func TestDistances_KeepsCatalogOrder(t *testing.T) {
	items := []model.CollectibleItem{
		{ID: "far", Location: goldenGate},
		{ID: "here", Location: missionDist},
	}
	got := Distances(missionDist, items)
	require.Len(t, got, 2)
	require.Equal(t, "far", got[0].Item.ID)
	require.InDelta(t, 7.2, got[0].DistanceKm, 0.1)
	require.Zero(t, got[1].DistanceKm)
}
