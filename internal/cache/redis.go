package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oggyb/run-together/internal/config"
	"github.com/redis/go-redis/v9"
)

// PartnerSnapshot is the cached result of a partner-count aggregation.
type PartnerSnapshot struct {
	Count      int      `json:"count"`
	PartnerIDs []uint64 `json:"partner_ids"`
}

type RedisCache struct {
	Client *redis.Client
	ttl    time.Duration
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}

	ttl := cfg.Cache.PartnerCountTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisCache{Client: redis.NewClient(opts), ttl: ttl}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

// KeyForPartners generates the Redis key for a user's partner snapshot.
func (c *RedisCache) KeyForPartners(userID uint64) string {
	return fmt.Sprintf("partners:count:%d", userID)
}

// KeyForPartnersGen generates the Redis key for a user's snapshot generation.
// Every invalidation bumps it; it never expires.
func (c *RedisCache) KeyForPartnersGen(userID uint64) string {
	return fmt.Sprintf("partners:gen:%d", userID)
}

// GetPartners returns the cached snapshot. A miss yields (nil, nil).
// Hits leave the TTL alone, so any entry is at most one TTL old.
func (c *RedisCache) GetPartners(ctx context.Context, userID uint64) (*PartnerSnapshot, error) {
	key := c.KeyForPartners(userID)
	val, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	var snap PartnerSnapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		// corrupt entry: drop it and treat as a miss
		_ = c.Client.Del(ctx, key).Err()
		return nil, nil
	}
	return &snap, nil
}

// PartnersGeneration returns the current generation of userID's snapshot.
// Read it before loading the snapshot from the database and pass it to
// SetPartners.
func (c *RedisCache) PartnersGeneration(ctx context.Context, userID uint64) (int64, error) {
	gen, err := c.Client.Get(ctx, c.KeyForPartnersGen(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// SetPartners stores a snapshot with the configured TTL, but only while the
// generation is still gen. It reports false when an invalidation happened
// after gen was read, in which case snap is outdated and nothing is stored.
func (c *RedisCache) SetPartners(ctx context.Context, userID uint64, gen int64, snap PartnerSnapshot) (bool, error) {
	b, err := json.Marshal(snap)
	if err != nil {
		return false, fmt.Errorf("failed to marshal partner snapshot: %w", err)
	}

	genKey := c.KeyForPartnersGen(userID)
	stored := false
	err = c.Client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if errors.Is(err, redis.Nil) {
			current = 0
		} else if err != nil {
			return err
		}
		if current != gen {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.KeyForPartners(userID), b, c.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		stored = true
		return nil
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		// generation moved between WATCH and EXEC
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return stored, nil
}

// InvalidatePartners removes the snapshots of every given user and bumps
// their generations, so snapshots loaded before this call are never stored.
func (c *RedisCache) InvalidatePartners(ctx context.Context, userIDs ...uint64) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := c.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range userIDs {
			pipe.Del(ctx, c.KeyForPartners(id))
			pipe.Incr(ctx, c.KeyForPartnersGen(id))
		}
		return nil
	})
	return err
}
