package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/blues/ims/internal/config"
	"github.com/blues/ims/internal/logger"
	"github.com/redis/go-redis/v9"
)

// Client redis缓存封装，作为只读投影的旁路缓存
// nil指针安全：未配置redis时所有方法直接走穿透路径
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// New 创建缓存客户端，addr为空返回nil（禁用缓存）
func New(cfg config.RedisConfig) *Client {
	if cfg.Addr == "" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ttl := time.Duration(cfg.TTL) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &Client{rdb: rdb, ttl: ttl}
}

// ValidationCountKey 背书数量缓存键
func ValidationCountKey(campaignID uint) string {
	return fmt.Sprintf("ims:validation:count:%d", campaignID)
}

// GetInt64 读取整数缓存，未命中或缓存不可用时返回false
func (c *Client) GetInt64(ctx context.Context, key string) (int64, bool) {
	if c == nil {
		return 0, false
	}

	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("cache get %s failed: %v", key, err)
		}
		return 0, false
	}

	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SetInt64 写入整数缓存，尽力而为
func (c *Client) SetInt64(ctx context.Context, key string, value int64) {
	if c == nil {
		return
	}
	if err := c.rdb.Set(ctx, key, strconv.FormatInt(value, 10), c.ttl).Err(); err != nil {
		logger.Warn("cache set %s failed: %v", key, err)
	}
}

// Delete 删除缓存键，尽力而为
func (c *Client) Delete(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		logger.Warn("cache delete failed: %v", err)
	}
}

// Close 关闭底层连接
func (c *Client) Close() {
	if c == nil {
		return
	}
	if err := c.rdb.Close(); err != nil {
		logger.Warn("cache close failed: %v", err)
	}
}
