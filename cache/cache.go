package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Store is an advisory TTL key-value cache. Implementations must never let a
// storage failure reach the caller: a failed read is a miss, a failed write
// is a no-op. Expired entries are invisible to Get but are only physically
// removed by SweepExpired.
type Store interface {
	// Get returns the raw value for key, or ok=false on miss, expiry, or
	// any storage failure.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set upserts key with the given TTL. Last write wins and resets expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
	// SweepExpired physically deletes expired entries and reports how many
	// were removed. Cooperative housekeeping only; reads are correct
	// without it.
	SweepExpired(ctx context.Context) int
	// Ready reports whether the backing store opened successfully. When
	// false every operation is a no-op returning a miss.
	Ready() bool
	Close() error
}

// GetJSON reads key and unmarshals it into v. Any decode failure counts as
// a miss.
func GetJSON(ctx context.Context, s Store, key string, v any) bool {
	raw, ok := s.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false
	}
	return true
}

// SetJSON marshals v and stores it under key. Marshal failures are dropped;
// the cache is advisory.
func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.Set(ctx, key, raw, ttl)
}

// Key derives a stable cache key from a prefix and an arbitrary
// JSON-serializable parameter tuple.
func Key(prefix string, params any) string {
	raw, _ := json.Marshal(params)
	sum := sha256.Sum256(raw)
	return prefix + ":" + hex.EncodeToString(sum[:])
}

// StartSweeper runs SweepExpired on the given interval until ctx is
// cancelled. Launched once from main.
func StartSweeper(ctx context.Context, s Store, interval time.Duration, logf func(format string, v ...any)) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.SweepExpired(ctx); n > 0 && logf != nil {
					logf("🧹 cache sweep removed %d expired entries", n)
				}
			}
		}
	}()
}
