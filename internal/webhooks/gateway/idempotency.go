package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/rentiva/rentiva-backend/pkg/logger"
	"github.com/rentiva/rentiva-backend/pkg/redis"
)

const dedupScope = "webhook"

// dedupGuard is the redis fast path in front of the DB conditional update.
// It only short-circuits obviously repeated deliveries; the conditional
// update remains the arbiter of exactly-once side effects, so a lost redis
// marker is harmless.
type dedupGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	logg  *logger.Logger
}

func newDedupGuard(store redis.IdempotencyStore, ttl time.Duration, logg *logger.Logger) *dedupGuard {
	if store == nil {
		return nil
	}
	return &dedupGuard{store: store, ttl: ttl, logg: logg}
}

// acquire claims the delivery marker. false means another delivery with the
// same provider event id already claimed it.
func (g *dedupGuard) acquire(ctx context.Context, provider, eventID string) bool {
	if g == nil || eventID == "" {
		return true
	}
	key := g.store.IdempotencyKey(dedupScope, fmt.Sprintf("%s:%s", provider, eventID))
	claimed, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		// Redis being down must not block webhook processing.
		g.logg.Error(ctx, "webhook dedup marker unavailable", err)
		return true
	}
	return claimed
}

// release drops the marker after a processing failure so the provider's
// retry is not treated as a duplicate.
func (g *dedupGuard) release(ctx context.Context, provider, eventID string) {
	if g == nil || eventID == "" {
		return
	}
	key := g.store.IdempotencyKey(dedupScope, fmt.Sprintf("%s:%s", provider, eventID))
	if err := g.store.Del(ctx, key); err != nil {
		g.logg.Error(ctx, "releasing webhook dedup marker", err)
	}
}
