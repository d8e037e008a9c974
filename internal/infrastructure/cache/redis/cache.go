package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"promo-script-ai-api/pkg/logger"
	"promo-script-ai-api/pkg/metrics"
	"promo-script-ai-api/pkg/tracer"
)

// defaultLoadTimeout 合并加载的上限，与单个调用方的 ctx 解耦
const defaultLoadTimeout = 30 * time.Second

// store 缓存读写接口，由 *Client 实现
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Cache 素材结果缓存（Read-Through + singleflight）
type Cache struct {
	store       store
	loadTimeout time.Duration
	group       singleflight.Group
}

// NewCache 创建缓存服务
func NewCache(client *Client) *Cache {
	return newCache(client)
}

func newCache(s store) *Cache {
	return &Cache{store: s, loadTimeout: defaultLoadTimeout}
}

// GetOrLoad 命中则返回缓存的 JSON；未命中时合并并发加载并回填。
// Redis 不可用时直接调用 loader，缓存故障不影响业务结果；loader 的错误原样返回且不缓存。
// 合并加载运行在脱离调用方取消的 ctx 上，单个调用方取消只影响它自己的等待。
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader func(ctx context.Context) (any, error)) ([]byte, error) {
	kind := cacheKind(key)
	ctx, span := tracer.Start(ctx, "cache.GetOrLoad",
		trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	val, err := c.store.Get(ctx, key)
	if err == nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		metrics.AssetCacheTotal.WithLabelValues(kind, "hit").Inc()
		return val, nil
	}
	if !IsNil(err) {
		tracer.Fail(span, err)
		metrics.AssetCacheTotal.WithLabelValues(kind, "error").Inc()
		logger.Warn(ctx, "asset cache unavailable, loading directly", "key", key, "error", err.Error())
		return loadJSON(ctx, loader)
	}

	span.SetAttributes(attribute.Bool("cache.hit", false))
	metrics.AssetCacheTotal.WithLabelValues(kind, "miss").Inc()

	ch := c.group.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()

		// 再次检查缓存（可能已被其他请求填充）
		if val, err := c.store.Get(loadCtx, key); err == nil {
			return val, nil
		}

		b, err := loadJSON(loadCtx, loader)
		if err != nil {
			return nil, err
		}
		if err := c.store.Set(loadCtx, key, b, ttl); err != nil {
			// 缓存写入失败不影响返回结果
			logger.Warn(loadCtx, "asset cache write failed", "key", key, "error", err.Error())
		}
		return b, nil
	})

	select {
	case <-ctx.Done():
		tracer.Fail(span, ctx.Err())
		return nil, ctx.Err()
	case res := <-ch:
		span.SetAttributes(attribute.Bool("cache.shared", res.Shared))
		if res.Err != nil {
			tracer.Fail(span, res.Err)
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func loadJSON(ctx context.Context, loader func(ctx context.Context) (any, error)) ([]byte, error) {
	data, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal data: %w", err)
	}
	return b, nil
}

// cacheKind 取 key 的第一段作为指标标签，如 "footage:..." -> "footage"
func cacheKind(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return "other"
}
