package claim

import (
	"context"
	"testing"
	"time"

	"geoclaim/internal/errs"
	"geoclaim/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestLocalVerifier(t *testing.T) {
	v := NewLocalVerifier(0)
	v.now = func() time.Time { return t0 }
	ctx := context.Background()
	req := Request{SessionID: "s1", UserID: "u1", Item: model.CollectibleItem{ID: "1"}}

	require.NoError(t, v.Verify(ctx, req))

	err := v.Verify(ctx, req)
	require.ErrorIs(t, err, errs.ErrVerificationFailed)
	require.Equal(t, errs.ReasonAlreadyClaimed, errs.ReasonOf(err))

	req.UserID = "u2"
	require.NoError(t, v.Verify(ctx, req))
}

func TestLocalVerifier_Expired(t *testing.T) {
	v := NewLocalVerifier(0)
	v.now = func() time.Time { return t0 }
	expires := t0

	err := v.Verify(context.Background(), Request{UserID: "u1", Item: model.CollectibleItem{ID: "1", ExpiresAt: &expires}})
	require.Equal(t, errs.ReasonExpired, errs.ReasonOf(err))
}

func TestLocalVerifier_CancelledWhileWaiting(t *testing.T) {
	v := NewLocalVerifier(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := v.Verify(ctx, Request{UserID: "u1", Item: model.CollectibleItem{ID: "1"}})
	require.Equal(t, errs.ReasonNetworkError, errs.ReasonOf(err))
}

func TestRedisVerifier(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	v := NewRedisVerifier(client)
	v.now = func() time.Time { return t0 }
	ctx := context.Background()
	req := Request{SessionID: "s1", UserID: "u1", Item: model.CollectibleItem{ID: "1"}}

	require.NoError(t, v.Verify(ctx, req))
	got, err := mr.Get("claimed:1:u1")
	require.NoError(t, err)
	require.Equal(t, "s1", got)

	req.SessionID = "s2"
	err = v.Verify(ctx, req)
	require.Equal(t, errs.ReasonAlreadyClaimed, errs.ReasonOf(err))
}

func TestRedisVerifier_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	v := NewRedisVerifier(client)
	err := v.Verify(context.Background(), Request{UserID: "u1", Item: model.CollectibleItem{ID: "1"}})
	require.ErrorIs(t, err, errs.ErrVerificationFailed)
	require.Equal(t, errs.ReasonNetworkError, errs.ReasonOf(err))
}

func TestManager_WithRedisVerifier(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := newHarness(t)
	h.m.verifier = NewRedisVerifier(client)
	require.NoError(t, mr.Set("claimed:1:u1", "earlier"))

	s := h.scanning(t)
	ch, err := h.m.CodeDetected(context.Background(), s.ID, "1")
	require.NoError(t, err)

	o := waitOutcome(t, ch)
	require.Equal(t, StateFailed, o.Session.State)
	require.Equal(t, errs.ReasonAlreadyClaimed, o.Session.Reason)
}
