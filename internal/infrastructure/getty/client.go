// Package getty 提供 Getty Images 素材检索客户端
package getty

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"promo-script-ai-api/internal/config"
	"promo-script-ai-api/internal/domain/entity"
	"promo-script-ai-api/pkg/tracer"
)

// maxErrorBody 错误响应体最多保留的字节数
const maxErrorBody = 512

// Client Getty Images 检索客户端
type Client struct {
	apiKey     string
	baseURL    string
	pageSize   int
	httpClient *http.Client
	// limiter 为 nil 时不限速
	limiter *rate.Limiter
}

type searchResponse struct {
	Images []struct {
		ID           string `json:"id"`
		Title        string `json:"title"`
		DisplaySizes []struct {
			Name string `json:"name"`
			URI  string `json:"uri"`
		} `json:"display_sizes"`
	} `json:"images"`
}

// NewClient 未配置 api_key 时返回 nil
func NewClient(cfg *config.GettyConfig) *Client {
	if cfg.APIKey == "" {
		return nil
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := &Client{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		pageSize:   pageSize,
		httpClient: &http.Client{Timeout: timeout},
	}
	if cfg.RequestsPerSecond > 0 {
		burst := max(1, int(cfg.RequestsPerSecond))
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return c
}

// Search 按相关度检索图片素材；无结果时返回空切片
func (c *Client) Search(ctx context.Context, query string) ([]entity.FootageAsset, error) {
	ctx, span := tracer.Start(ctx, "getty.Search",
		trace.WithAttributes(attribute.String("getty.phrase", query)))
	defer span.End()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			tracer.Fail(span, err)
			return nil, fmt.Errorf("getty rate limit wait: %w", err)
		}
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid getty base url: %w", err)
	}
	q := u.Query()
	q.Set("phrase", query)
	q.Set("fields", "id,title,display_sizes,preview")
	q.Set("sort_order", "best_match")
	q.Set("page_size", strconv.Itoa(c.pageSize))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		tracer.Fail(span, err)
		return nil, fmt.Errorf("getty request failed: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		err := fmt.Errorf("getty returned status %d: %s", resp.StatusCode, string(body))
		tracer.Fail(span, err)
		return nil, err
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode getty response: %w", err)
	}

	out := make([]entity.FootageAsset, 0, len(sr.Images))
	for _, img := range sr.Images {
		if len(img.DisplaySizes) == 0 {
			continue
		}
		out = append(out, entity.FootageAsset{
			ID:          img.ID,
			Title:       img.Title,
			PreviewURL:  img.DisplaySizes[0].URI,
			DownloadURL: img.DisplaySizes[len(img.DisplaySizes)-1].URI,
		})
	}
	span.SetAttributes(attribute.Int("getty.hits", len(out)))
	return out, nil
}
