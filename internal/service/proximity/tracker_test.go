package proximity

import (
	"testing"
	"time"

	"geoclaim/internal/errs"
	"geoclaim/internal/model"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTracker_KeepsLatestAndDropsStale(t *testing.T) {
	tr := NewTracker(zap.NewNop())

	_, ok := tr.Latest("u1")
	require.False(t, ok)

	first := at(missionDist)
	accepted, err := tr.Update("u1", first)
	require.NoError(t, err)
	require.True(t, accepted)

	second := at(unionSquare)
	second.Timestamp = testNow.Add(10 * time.Second)
	accepted, err = tr.Update("u1", second)
	require.NoError(t, err)
	require.True(t, accepted)

	stale := at(goldenGate)
	stale.Timestamp = testNow.Add(5 * time.Second)
	accepted, err = tr.Update("u1", stale)
	require.NoError(t, err)
	require.False(t, accepted)

	got, ok := tr.Latest("u1")
	require.True(t, ok)
	require.Equal(t, second, got)
	require.InDelta(t, 1.417, tr.TravelledKm("u1"), 0.01)

	tr.Forget("u1")
	_, ok = tr.Latest("u1")
	require.False(t, ok)
}

func TestTracker_RejectsInvalidCoordinates(t *testing.T) {
	tr := NewTracker(zap.NewNop())
	_, err := tr.Update("u1", model.UserPosition{Point: model.GeoPoint{Latitude: 91}})
	require.ErrorIs(t, err, errs.ErrInvalidCoordinates)
}

func TestTracker_ClampsFutureTimestamps(t *testing.T) {
	clock := testNow
	tr := NewTracker(zap.NewNop())
	tr.now = func() time.Time { return clock }

	ahead := at(goldenGate)
	ahead.Timestamp = testNow.Add(24 * time.Hour)
	accepted, err := tr.Update("u1", ahead)
	require.NoError(t, err)
	require.True(t, accepted)

	got, _ := tr.Latest("u1")
	require.Equal(t, testNow, got.Timestamp)

	clock = testNow.Add(time.Second)
	next := at(unionSquare)
	next.Timestamp = clock
	accepted, err = tr.Update("u1", next)
	require.NoError(t, err)
	require.True(t, accepted)

	got, _ = tr.Latest("u1")
	require.Equal(t, unionSquare, got.Point)
}
