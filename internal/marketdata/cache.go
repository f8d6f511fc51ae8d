package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/quantpilot/advisor/internal/models"
)

// CachedFeed wraps a Feed with a Redis cache of the latest bar per
// ticker. Re-runs inside the TTL (manual triggers, scheduler retries) hit
// the cache instead of the upstream feed; cache failures degrade to a
// plain fetch.
type CachedFeed struct {
	feed   Feed
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewCachedFeed wraps feed with a Redis-backed latest-bar cache.
func NewCachedFeed(feed Feed, client *redis.Client, ttl time.Duration, log zerolog.Logger) *CachedFeed {
	return &CachedFeed{
		feed:   feed,
		client: client,
		ttl:    ttl,
		log:    log.With().Str("component", "quote_cache").Logger(),
	}
}

// LatestDaily returns the cached bar when fresh, otherwise fetches and
// caches it.
func (c *CachedFeed) LatestDaily(ctx context.Context, ticker string) (*models.Candle, error) {
	key := cacheKey(ticker)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var candle models.Candle
		if err := json.Unmarshal(data, &candle); err == nil {
			return &candle, nil
		}
		c.log.Warn().Str("ticker", ticker).Msg("Dropping undecodable cache entry")
		c.client.Del(ctx, key)
	} else if err != redis.Nil {
		c.log.Warn().Err(err).Str("ticker", ticker).Msg("Cache read failed, fetching directly")
	}

	candle, err := c.feed.LatestDaily(ctx, ticker)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(candle); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.log.Warn().Err(err).Str("ticker", ticker).Msg("Cache write failed")
		}
	}
	return candle, nil
}

func cacheKey(ticker string) string {
	return fmt.Sprintf("candle:latest:%s", ticker)
}
