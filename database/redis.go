package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kblog/models"

	"github.com/redis/go-redis/v9"
)

func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return rdb, nil
}

// RedisPostCache stores each owner's post list as a JSON blob next to a
// generation counter that Invalidate increments.
type RedisPostCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisPostCache(rdb *redis.Client, ttl time.Duration) *RedisPostCache {
	return &RedisPostCache{rdb: rdb, ttl: ttl}
}

func postListKey(ownerID uint) string {
	return fmt.Sprintf("posts:owner:%d", ownerID)
}

func postGenerationKey(ownerID uint) string {
	return fmt.Sprintf("posts:owner:%d:gen", ownerID)
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readGeneration(ctx context.Context, c stringGetter, ownerID uint) (int64, error) {
	gen, err := c.Get(ctx, postGenerationKey(ownerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *RedisPostCache) Generation(ctx context.Context, ownerID uint) (int64, error) {
	return readGeneration(ctx, c.rdb, ownerID)
}

func (c *RedisPostCache) GetList(ctx context.Context, ownerID uint) ([]models.Post, bool, error) {
	raw, err := c.rdb.Get(ctx, postListKey(ownerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var posts []models.Post
	if err := json.Unmarshal(raw, &posts); err != nil {
		return nil, false, err
	}
	return posts, true, nil
}

// SetList stores posts only while the owner's generation still equals
// generation. A lost race is not an error.
func (c *RedisPostCache) SetList(ctx context.Context, ownerID uint, generation int64, posts []models.Post) error {
	raw, err := json.Marshal(posts)
	if err != nil {
		return err
	}

	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		if current != generation {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, postListKey(ownerID), raw, c.ttl)
			return nil
		})
		return err
	}, postGenerationKey(ownerID))
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

func (c *RedisPostCache) Invalidate(ctx context.Context, ownerID uint) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, postGenerationKey(ownerID))
		pipe.Del(ctx, postListKey(ownerID))
		return nil
	})
	return err
}
