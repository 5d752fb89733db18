package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedProvider decorates a Provider with a Redis cache keyed by the text
// hash. Repeat queries (the common case for fast-path documentation
// questions) skip the embedding HTTP round trip entirely. Cache failures are
// treated as misses; the decorated provider stays the source of truth.
type CachedProvider struct {
	inner Provider
	rdb   *redis.Client
	ttl   time.Duration
}

func NewCachedProvider(inner Provider, rdb *redis.Client, ttl time.Duration) Provider {
	if rdb == nil || ttl <= 0 {
		return inner
	}
	return &CachedProvider{
		inner: inner,
		rdb:   rdb,
		ttl:   ttl,
	}
}

func (p *CachedProvider) Generate(ctx context.Context, text string, taskType string) ([]float32, error) {
	key := cacheKey(text, taskType)

	if raw, err := p.rdb.Get(ctx, key).Bytes(); err == nil {
		var cached []float32
		if err := json.Unmarshal(raw, &cached); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	values, err := p.inner.Generate(ctx, text, taskType)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(values); err == nil {
		// Best effort; a failed SET only costs the next call a recompute.
		p.rdb.Set(ctx, key, raw, p.ttl)
	}

	return values, nil
}

func cacheKey(text string, taskType string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("embed:%s:%x", taskType, sum)
}
