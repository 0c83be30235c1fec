// Package cache 基于 Redis 的看板查询缓存
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrMiss 缓存未命中
var ErrMiss = errors.New("cache: miss")

type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func New(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	return &Cache{client: client, prefix: prefix, ttl: ttl}
}

func (c *Cache) key(parts ...interface{}) string {
	k := c.prefix
	for _, p := range parts {
		k += ":" + fmt.Sprint(p)
	}
	return k
}

// WeekKey 某周下的缓存键
func (c *Cache) WeekKey(week, year int, name string) string {
	return c.key("week", year, week, name)
}

// GlobalKey 不属于某一周的缓存键（如走势）
func (c *Cache) GlobalKey(name string) string {
	return c.key("global", name)
}

// GetJSON 读取并反序列化，未命中返回 ErrMiss
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// InvalidateWeek 清除某周及全局缓存，周报写入后调用
func (c *Cache) InvalidateWeek(ctx context.Context, week, year int) error {
	for _, pattern := range []string{c.key("week", year, week, "*"), c.key("global", "*")} {
		iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
	}
	return nil
}
