package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zenith-events/zenith/internal/domain"
)

const (
	statusTTL = 10 * time.Minute
	dedupeTTL = 24 * time.Hour
)

type Cache struct {
	Client *redis.Client
}

func New(addr, pass string, db int) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr, Password: pass, DB: db,
	})
	return &Cache{Client: rdb}
}

func (c *Cache) GetEventStatus(ctx context.Context, eventID string) (domain.EventStatus, error) {
	val, err := c.Client.Get(ctx, "event:status:"+eventID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrCacheMiss
		}
		return "", err
	}
	status := domain.EventStatus(val)
	if !status.Valid() {
		return "", domain.ErrCacheMiss
	}
	return status, nil
}

func (c *Cache) SetEventStatus(ctx context.Context, eventID string, status domain.EventStatus) error {
	return c.Client.Set(ctx, "event:status:"+eventID, string(status), statusTTL).Err()
}

// AllowRequest: simple fixed window rate limit
func (c *Cache) AllowRequest(ctx context.Context, ip string, limit int, window time.Duration) (bool, error) {
	key := "ratelimit:" + ip
	count, err := c.Client.Incr(ctx, key).Result()
	if err != nil {
		return true, nil // fail open
	}
	if count == 1 {
		_ = c.Client.Expire(ctx, key, window).Err()
	}
	return count <= int64(limit), nil
}

// CheckAndMark is the notification consumer's dedupe primitive: SETNX marks
// the message id and tells us in one round trip whether it was already there.
func (c *Cache) CheckAndMark(ctx context.Context, messageID string) (bool, error) {
	ok, err := c.Client.SetNX(ctx, "notify:seen:"+messageID, 1, dedupeTTL).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}
