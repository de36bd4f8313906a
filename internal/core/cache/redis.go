package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

type Cache struct {
	RDB *redis.Client
	sf  singleflight.Group
}

func New(addr, pass string, db int) *Cache {
	return &Cache{
		RDB: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
	}
}

func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	// 先读缓存
	if b, err := c.RDB.Get(ctx, key).Bytes(); err == nil {
		return b, nil
	}
	// single flight 合并回源
	v, err, _ := c.sf.Do(key, func() (any, error) {
		b, e := load(ctx)
		if e != nil {
			return nil, e
		}
		_ = c.RDB.Set(ctx, key, b, ttl).Err()
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Del 失效指定键；缓存只是投影，删除失败不上抛
func (c *Cache) Del(ctx context.Context, keys ...string) {
	if len(keys) > 0 {
		_ = c.RDB.Del(ctx, keys...).Err()
	}
}

// DelPrefix SCAN 删除前缀键（只用于低频的管理面失效）
func (c *Cache) DelPrefix(ctx context.Context, prefix string) {
	iter := c.RDB.Scan(ctx, 0, prefix+"*", 200).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	c.Del(ctx, keys...)
}

// Bump 版本计数自增，整组缓存靠版本号间接失效
func (c *Cache) Bump(ctx context.Context, key string) {
	_ = c.RDB.Incr(ctx, key).Err()
}

// Version 当前版本号，键不存在视为 "0"
func (c *Cache) Version(ctx context.Context, key string) string {
	v, err := c.RDB.Get(ctx, key).Result()
	if err != nil {
		return "0"
	}
	return v
}
