//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"promo-script-ai-api/internal/application/assistant"
	"promo-script-ai-api/internal/application/enrichment"
	"promo-script-ai-api/internal/application/script"
	"promo-script-ai-api/internal/config"
	"promo-script-ai-api/internal/infrastructure/llm"
	"promo-script-ai-api/internal/interfaces/http/handler"
	"promo-script-ai-api/internal/interfaces/http/router"
	"promo-script-ai-api/internal/workflow/chain"
	workflowport "promo-script-ai-api/internal/workflow/port"
)

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		CacheSet,
		PersistenceSet,
		AssetSet,
		LLMSet,
		ApplicationSet,
		RouterSet,
	)
	return nil, nil, nil
}

// CacheSet Redis 提供者集合（未启用时各提供者返回 nil）
var CacheSet = wire.NewSet(
	ProvideRedisClient,
	ProvideAssetCache,
	ProvideRateLimiter,
)

// PersistenceSet 生成历史存储（未启用时返回 nil）
var PersistenceSet = wire.NewSet(
	ProvidePostgresClient,
	ProvideGenerationRepository,
)

// AssetSet 外部素材服务
var AssetSet = wire.NewSet(
	ProvideStockSearch,
	ProvideSpeechSynthesizer,
)

// LLMSet 模型调用
var LLMSet = wire.NewSet(
	llm.NewEinoFactory,
	wire.Bind(new(workflowport.ChatModelFactory), new(*llm.EinoFactory)),
	chain.NewLLMCallChain,
	ProvideEmbedderOptional,
)

// ApplicationSet 应用服务
var ApplicationSet = wire.NewSet(
	ProvidePromptBuilder,
	ProvideVariationGenerator,
	ProvideFootageResolver,
	ProvideVoiceoverSynthesizer,
	ProvideEnricher,
	ProvideAssistant,
	wire.Bind(new(handler.ScriptGenerator), new(*script.VariationGenerator)),
	wire.Bind(new(handler.ScriptEnricher), new(*enrichment.Enricher)),
	wire.Bind(new(handler.Assistant), new(*assistant.Service)),
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideHealthHandler,
	ProvideScriptHandler,
	handler.NewAIHandler,
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)
