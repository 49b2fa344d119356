// README: Last-known-location cache backed by Redis hashes.
package location

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"wander/internal/types"
)

const lastKnownKeyPrefix = "loc:last:%s"

// RedisCache stores one hash per user: lat, lng, ts (unix seconds).
type RedisCache struct {
	redis *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{redis: client}
}

func (c *RedisCache) SetLastKnown(ctx context.Context, user types.ID, pos types.Point, at time.Time) error {
	key := lastKnownKey(user)
	return c.redis.HSet(ctx, key, map[string]interface{}{
		"lat": strconv.FormatFloat(pos.Lat, 'f', 6, 64),
		"lng": strconv.FormatFloat(pos.Lng, 'f', 6, 64),
		"ts":  strconv.FormatInt(at.Unix(), 10),
	}).Err()
}

func (c *RedisCache) LastKnown(ctx context.Context, user types.ID) (types.Point, time.Time, bool, error) {
	vals, err := c.redis.HGetAll(ctx, lastKnownKey(user)).Result()
	if err != nil {
		return types.Point{}, time.Time{}, false, err
	}
	if len(vals) == 0 {
		return types.Point{}, time.Time{}, false, nil
	}

	lat, err := strconv.ParseFloat(vals["lat"], 64)
	if err != nil {
		return types.Point{}, time.Time{}, false, fmt.Errorf("parsing cached lat: %w", err)
	}
	lng, err := strconv.ParseFloat(vals["lng"], 64)
	if err != nil {
		return types.Point{}, time.Time{}, false, fmt.Errorf("parsing cached lng: %w", err)
	}
	ts, err := strconv.ParseInt(vals["ts"], 10, 64)
	if err != nil {
		return types.Point{}, time.Time{}, false, fmt.Errorf("parsing cached ts: %w", err)
	}

	return types.Point{Lat: lat, Lng: lng}, time.Unix(ts, 0), true, nil
}

func lastKnownKey(user types.ID) string {
	return fmt.Sprintf(lastKnownKeyPrefix, string(user))
}
