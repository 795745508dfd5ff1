package claim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"geoclaim/internal/errs"
	"geoclaim/internal/model"

	"github.com/redis/go-redis/v9"
)

// Request is what a verifier needs to settle one claim.
type Request struct {
	SessionID string
	UserID    string
	Item      model.CollectibleItem
}

// Verifier settles a claim outside the engine (backend, ledger, ...).
// It returns nil on success or an error carrying a FailureReason.
type Verifier interface {
	Verify(ctx context.Context, req Request) error
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, req Request) error

func (f VerifierFunc) Verify(ctx context.Context, req Request) error { return f(ctx, req) }

func claimKey(itemID, userID string) string {
	return itemID + "|" + userID
}

// LocalVerifier keeps claims in memory and answers after a fixed latency.
type LocalVerifier struct {
	latency time.Duration
	now     func() time.Time

	mu      sync.Mutex
	claimed map[string]string
}

func NewLocalVerifier(latency time.Duration) *LocalVerifier {
	return &LocalVerifier{
		latency: latency,
		now:     time.Now,
		claimed: make(map[string]string),
	}
}

func (v *LocalVerifier) Verify(ctx context.Context, req Request) error {
	if v.latency > 0 {
		t := time.NewTimer(v.latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return errs.Verification(errs.ReasonNetworkError)
		case <-t.C:
		}
	}

	if req.Item.ExpiredAt(v.now()) {
		return errs.Verification(errs.ReasonExpired)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	key := claimKey(req.Item.ID, req.UserID)
	if _, dup := v.claimed[key]; dup {
		return errs.Verification(errs.ReasonAlreadyClaimed)
	}
	v.claimed[key] = req.SessionID
	return nil
}

// ClaimedKeyPrefix namespaces the Redis keys marking a user's claimed items.
const ClaimedKeyPrefix = "claimed"

// RedisVerifier records claims with SET NX so a user can claim an item once,
// across every API instance sharing the Redis.
type RedisVerifier struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisVerifier(client *redis.Client) *RedisVerifier {
	return &RedisVerifier{client: client, now: time.Now}
}

func (v *RedisVerifier) Verify(ctx context.Context, req Request) error {
	if req.Item.ExpiredAt(v.now()) {
		return errs.Verification(errs.ReasonExpired)
	}

	key := fmt.Sprintf("%s:%s:%s", ClaimedKeyPrefix, req.Item.ID, req.UserID)
	ok, err := v.client.SetNX(ctx, key, req.SessionID, 0).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", errs.Verification(errs.ReasonNetworkError), err)
	}
	if !ok {
		return errs.Verification(errs.ReasonAlreadyClaimed)
	}
	return nil
}
