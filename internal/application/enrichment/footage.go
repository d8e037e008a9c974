// Package enrichment 为选定的脚本版本补全素材：镜头视频、旁白音频与背景音乐
package enrichment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"promo-script-ai-api/internal/domain/entity"
	"promo-script-ai-api/internal/workflow/port"
	apperrors "promo-script-ai-api/pkg/errors"
	"promo-script-ai-api/pkg/logger"
	"promo-script-ai-api/pkg/metrics"
)

const (
	placeholderFootageID    = "demo"
	placeholderFootageTitle = "Demo Footage"
	footageNotConfigured    = "Getty Images API key not configured"
)

// FootageConfig 镜头素材检索配置
type FootageConfig struct {
	PlaceholderURL string
	CacheTTL       time.Duration
}

// FootageResolver 按检索词顺序查找镜头素材，第一个有结果的检索词胜出
type FootageResolver struct {
	search port.StockSearch
	cache  port.AssetCache
	cfg    FootageConfig
}

// NewFootageResolver search 为 nil 表示未配置凭证，返回演示素材；cache 可为 nil
func NewFootageResolver(search port.StockSearch, cache port.AssetCache, cfg FootageConfig) *FootageResolver {
	return &FootageResolver{search: search, cache: cache, cfg: cfg}
}

// Resolve 依次尝试 queries。
// 所有检索词均无结果时返回 (nil, nil)；提供商错误返回 CodeAssetProvider，不视为"无结果"。
func (r *FootageResolver) Resolve(ctx context.Context, queries []string) (*entity.FootageAsset, error) {
	if r.search == nil {
		metrics.FootageLookupTotal.WithLabelValues("placeholder").Inc()
		return &entity.FootageAsset{
			ID:          placeholderFootageID,
			Title:       placeholderFootageTitle,
			PreviewURL:  r.cfg.PlaceholderURL,
			DownloadURL: r.cfg.PlaceholderURL,
			Note:        footageNotConfigured,
		}, nil
	}

	queries = entity.NormalizeQueries(queries)
	if len(queries) == 0 {
		return nil, apperrors.ErrInvalidParam.WithDetail("search_queries is empty")
	}

	for i, q := range queries {
		hits, err := r.lookup(ctx, q)
		if err != nil {
			metrics.FootageLookupTotal.WithLabelValues("error").Inc()
			return nil, apperrors.Wrap(err, apperrors.CodeAssetProvider, "stock footage search failed").
				WithDetail("query: " + q)
		}
		if len(hits) > 0 {
			metrics.FootageLookupTotal.WithLabelValues("hit").Inc()
			metrics.FootageQueriesTried.Observe(float64(i + 1))
			hit := hits[0]
			return &hit, nil
		}
		logger.Debug(ctx, "no footage for query", "query", q)
	}

	metrics.FootageLookupTotal.WithLabelValues("miss").Inc()
	metrics.FootageQueriesTried.Observe(float64(len(queries)))
	return nil, nil
}

func (r *FootageResolver) lookup(ctx context.Context, query string) ([]entity.FootageAsset, error) {
	if r.cache == nil {
		return r.search.Search(ctx, query)
	}

	b, err := r.cache.GetOrLoad(ctx, footageCacheKey(query), r.cfg.CacheTTL, func(ctx context.Context) (any, error) {
		return r.search.Search(ctx, query)
	})
	if err != nil {
		return nil, err
	}
	var hits []entity.FootageAsset
	if err := json.Unmarshal(b, &hits); err != nil {
		// 缓存内容损坏时直接回源
		logger.Warn(ctx, "invalid cached footage, searching directly", "query", query, "error", err.Error())
		return r.search.Search(ctx, query)
	}
	return hits, nil
}

func footageCacheKey(query string) string {
	return "footage:" + shortHash(query)
}

func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:16]
}
