// Package embedding 提供基于 Eino 的 Embedder 构造
package embedding

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino/components/embedding"

	"promo-script-ai-api/internal/config"
)

// ErrDisabled 未配置 embedding.provider
var ErrDisabled = fmt.Errorf("embedding is disabled")

// NewEinoEmbedder 复用 llm.providers 中对应条目的凭证创建 Embedder
func NewEinoEmbedder(ctx context.Context, cfg *config.Config) (embedding.Embedder, error) {
	ec := cfg.Embedding
	if ec.Provider == "" {
		return nil, ErrDisabled
	}
	provider, ok := cfg.LLM.Providers[ec.Provider]
	if !ok {
		return nil, fmt.Errorf("embedding provider %s not found in LLM config", ec.Provider)
	}
	if provider.APIKey == "" {
		return nil, fmt.Errorf("embedding provider %s has no api_key", ec.Provider)
	}

	timeout := ec.Timeout
	if timeout <= 0 {
		timeout = provider.Timeout
	}

	embedder, err := openai.NewEmbedder(ctx, &openai.EmbeddingConfig{
		APIKey:  provider.APIKey,
		BaseURL: provider.BaseURL,
		Model:   ec.Model,
		Timeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create eino embedder: %w", err)
	}
	return embedder, nil
}
