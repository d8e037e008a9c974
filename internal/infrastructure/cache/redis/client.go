// Package redis 提供 Redis 客户端、素材缓存与限流实现
package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"promo-script-ai-api/internal/config"
	"promo-script-ai-api/pkg/tracer"
)

const pingTimeout = 5 * time.Second

// Client 对 go-redis 的薄封装：统一 key 前缀并为每次读写生成 Span
type Client struct {
	rdb    *redis.Client
	prefix string
}

// NewClient 建立连接池并 Ping 一次，失败时释放连接
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(options(cfg))

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", rdb.Options().Addr, err)
	}
	return &Client{rdb: rdb, prefix: cfg.KeyPrefix}, nil
}

func options(cfg *config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// key 补上命名空间前缀，多个环境可共用一个 Redis 实例
func (c *Client) key(k string) string {
	return c.prefix + k
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}

// HealthCheck 就绪探针使用
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "redis.HealthCheck")
	defer span.End()

	if err := c.rdb.Ping(ctx).Err(); err != nil {
		tracer.Fail(span, err)
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Get 读取原始字节；key 不存在时返回 redis.Nil，可用 IsNil 判断
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, span := c.start(ctx, "redis.Get", key)
	defer span.End()

	b, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if err != nil && !IsNil(err) {
		tracer.Fail(span, err)
	}
	return b, err
}

// Set 写入并设置过期时间，ttl<=0 表示不过期
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	ctx, span := c.start(ctx, "redis.Set", key, attribute.Int64("redis.ttl_ms", ttl.Milliseconds()))
	defer span.End()

	err := c.rdb.Set(ctx, c.key(key), value, max(ttl, 0)).Err()
	tracer.Fail(span, err)
	return err
}

func (c *Client) start(ctx context.Context, op, key string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("redis.key", key))
	return tracer.Start(ctx, op, trace.WithAttributes(attrs...))
}

// IsNil 检查是否为 redis.Nil 错误
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
