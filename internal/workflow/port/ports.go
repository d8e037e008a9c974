// Package port 定义工作流层对外部能力的最小依赖
package port

import (
	"context"
	"time"

	"github.com/cloudwego/eino/components/model"

	"promo-script-ai-api/internal/domain/entity"
)

// ChatModelFactory 按提供商名取 ChatModel，空名取默认提供商
type ChatModelFactory interface {
	Get(ctx context.Context, name string) (model.BaseChatModel, error)
}

// StockSearch 素材库检索：按相关度返回命中结果，无结果时返回空切片
type StockSearch interface {
	Search(ctx context.Context, query string) ([]entity.FootageAsset, error)
}

// SpeechSynthesizer 文本转语音，返回音频字节
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// AssetCache 素材结果的读穿缓存；返回 loader 结果的 JSON 编码
type AssetCache interface {
	GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader func(ctx context.Context) (any, error)) ([]byte, error)
}
