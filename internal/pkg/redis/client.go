// internal/pkg/redis/client.go
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client 封装了 go-redis 客户端，提供本项目需要的少量原语：
// 带 TTL 的读写、原子的 set-if-absent、以及按前缀批量删除。
type Client struct {
	rdb *redis.Client
}

// NewClient 创建并验证一个 Redis 连接。
func NewClient(ctx context.Context, addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &Client{rdb: rdb}, nil
}

// Get 读取一个 key。key 不存在时返回 (nil, false, nil)。
func (c *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set 带 TTL 写入一个 key。
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// SetNX 原子地执行 set-if-absent。
// 返回 true 表示本次调用成功占有了 key；false 表示 key 已存在。
// 这是一次单独的原子往返，不是先读后写。
func (c *Client) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, key, value, ttl).Result()
}

// Del 删除指定的 key。
func (c *Client) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// DeleteByPattern 使用 SCAN 遍历并删除所有匹配 pattern 的 key。
// 使用 SCAN 而不是 KEYS，避免在大实例上阻塞 Redis。
func (c *Client) DeleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return fmt.Errorf("scan %q failed: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("del under %q failed: %w", pattern, err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Close 关闭底层连接。
func (c *Client) Close() error {
	return c.rdb.Close()
}
