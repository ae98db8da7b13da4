package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/quickshow/quickshow/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	movieDetailsTTL = 24 * time.Hour
	nowPlayingTTL   = 10 * time.Minute

	nowPlayingKey = "catalog:now_playing"
)

// CachedGateway is a read-through Redis cache in front of another gateway.
// Cache failures degrade to the upstream call; they never fail the request.
type CachedGateway struct {
	next   domain.CatalogGateway
	redis  redis.UniversalClient
	logger *slog.Logger
}

func NewCachedGateway(next domain.CatalogGateway, redisClient redis.UniversalClient, logger *slog.Logger) *CachedGateway {
	return &CachedGateway{
		next:   next,
		redis:  redisClient,
		logger: logger,
	}
}

func (c *CachedGateway) GetMovieDetails(ctx context.Context, id string) (*domain.Movie, error) {
	key := movieDetailsKey(id)

	var movie domain.Movie
	if c.lookup(ctx, key, &movie) {
		return &movie, nil
	}

	fresh, err := c.next.GetMovieDetails(ctx, id)
	if err != nil {
		return nil, err
	}

	c.store(ctx, key, fresh, movieDetailsTTL)

	return fresh, nil
}

func (c *CachedGateway) ListNowPlaying(ctx context.Context) ([]*domain.Movie, error) {
	var movies []*domain.Movie
	if c.lookup(ctx, nowPlayingKey, &movies) {
		return movies, nil
	}

	fresh, err := c.next.ListNowPlaying(ctx)
	if err != nil {
		return nil, err
	}

	c.store(ctx, nowPlayingKey, fresh, nowPlayingTTL)

	return fresh, nil
}

func (c *CachedGateway) lookup(ctx context.Context, key string, dst any) bool {
	payload, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("catalog cache read failed", "key", key, "error", err)
		}

		return false
	}

	err = json.Unmarshal(payload, dst)
	if err != nil {
		c.logger.Warn("catalog cache entry is corrupt", "key", key, "error", err)
		c.redis.Del(ctx, key)

		return false
	}

	return true
}

func (c *CachedGateway) store(ctx context.Context, key string, value any, ttl time.Duration) {
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}

	err = c.redis.Set(ctx, key, payload, ttl).Err()
	if err != nil {
		c.logger.Warn("catalog cache write failed", "key", key, "error", err)
	}
}

func movieDetailsKey(id string) string {
	return fmt.Sprintf("catalog:movie:%s", id)
}
