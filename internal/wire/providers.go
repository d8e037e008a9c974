package wire

import (
	"context"
	"errors"

	einoembedding "github.com/cloudwego/eino/components/embedding"

	"promo-script-ai-api/internal/application/assistant"
	"promo-script-ai-api/internal/application/enrichment"
	"promo-script-ai-api/internal/application/script"
	"promo-script-ai-api/internal/config"
	"promo-script-ai-api/internal/domain/repository"
	"promo-script-ai-api/internal/infrastructure/cache/redis"
	"promo-script-ai-api/internal/infrastructure/elevenlabs"
	infraembedding "promo-script-ai-api/internal/infrastructure/embedding"
	"promo-script-ai-api/internal/infrastructure/getty"
	"promo-script-ai-api/internal/infrastructure/llm"
	"promo-script-ai-api/internal/infrastructure/persistence/postgres"
	"promo-script-ai-api/internal/interfaces/http/handler"
	"promo-script-ai-api/internal/interfaces/http/middleware"
	"promo-script-ai-api/internal/workflow/chain"
	workflowport "promo-script-ai-api/internal/workflow/port"
	"promo-script-ai-api/pkg/logger"
)

// 以下可选依赖在未配置时返回 nil 接口值（而不是包着 nil 指针的接口），
// 下游据此切换到直连或演示素材。

// ProvideRedisClient 提供 Redis 客户端；未启用或不可达时返回 nil
func ProvideRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, func(), error) {
	if !cfg.Cache.Redis.Enabled {
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(ctx, &cfg.Cache.Redis)
	if err != nil {
		logger.Warn(ctx, "redis not available, asset cache and rate limit disabled", "error", err.Error())
		return nil, func() {}, nil
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

func ProvideAssetCache(client *redis.Client) workflowport.AssetCache {
	if client == nil {
		return nil
	}
	return redis.NewCache(client)
}

func ProvideRateLimiter(client *redis.Client) middleware.RateLimiter {
	if client == nil {
		return nil
	}
	return redis.NewRateLimiter(client)
}

// ProvidePostgresClient 提供 PostgreSQL 客户端；未启用、不可达或迁移失败时返回 nil
func ProvidePostgresClient(ctx context.Context, cfg *config.Config) (*postgres.Client, func(), error) {
	pgCfg := cfg.Database.Postgres
	if !pgCfg.Enabled {
		return nil, func() {}, nil
	}
	client, err := postgres.NewClient(&pgCfg)
	if err != nil {
		logger.Warn(ctx, "postgres not available, generation history disabled", "error", err.Error())
		return nil, func() {}, nil
	}
	if pgCfg.AutoMigrate {
		if err := client.AutoMigrate(ctx); err != nil {
			logger.Warn(ctx, "postgres migration failed, generation history disabled", "error", err.Error())
			_ = client.Close()
			return nil, func() {}, nil
		}
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

func ProvideGenerationRepository(client *postgres.Client) repository.GenerationRepository {
	if client == nil {
		return nil
	}
	return postgres.NewGenerationRepository(client)
}

// ProvideStockSearch 未配置 Getty 凭证时返回 nil
func ProvideStockSearch(cfg *config.Config) workflowport.StockSearch {
	c := getty.NewClient(&cfg.Assets.Getty)
	if c == nil {
		return nil
	}
	return c
}

// ProvideSpeechSynthesizer 未配置 ElevenLabs 凭证时返回 nil
func ProvideSpeechSynthesizer(cfg *config.Config) workflowport.SpeechSynthesizer {
	c := elevenlabs.NewClient(&cfg.Assets.ElevenLabs)
	if c == nil {
		return nil
	}
	return c
}

func ProvideEmbedderOptional(ctx context.Context, cfg *config.Config) einoembedding.Embedder {
	embedder, err := infraembedding.NewEinoEmbedder(ctx, cfg)
	if err != nil {
		if !errors.Is(err, infraembedding.ErrDisabled) {
			logger.Warn(ctx, "embedding not available, /v1/ai/embeddings disabled", "error", err.Error())
		}
		return nil
	}
	return embedder
}

func ProvidePromptBuilder(cfg *config.Config) *script.PromptBuilder {
	g := cfg.Generation
	return script.NewPromptBuilder(script.PromptConfig{
		BaseTemperature:    g.BaseTemperature,
		TemperatureStep:    g.TemperatureStep,
		KeywordTemperature: g.KeywordTemperature,
		MaxTemperature:     g.MaxTemperature,
	})
}

func ProvideVariationGenerator(cfg *config.Config, builder *script.PromptBuilder, llmChain *chain.LLMCallChain) *script.VariationGenerator {
	return script.NewVariationGenerator(builder, llmChain, cfg.Generation.MaxVariations)
}

func ProvideFootageResolver(cfg *config.Config, search workflowport.StockSearch, cache workflowport.AssetCache) *enrichment.FootageResolver {
	return enrichment.NewFootageResolver(search, cache, enrichment.FootageConfig{
		PlaceholderURL: cfg.Assets.Placeholders.FootageURL,
		CacheTTL:       cfg.Enrichment.FootageCacheTTL,
	})
}

func ProvideVoiceoverSynthesizer(cfg *config.Config, synth workflowport.SpeechSynthesizer, cache workflowport.AssetCache) *enrichment.VoiceoverSynthesizer {
	return enrichment.NewVoiceoverSynthesizer(synth, cache, enrichment.VoiceoverConfig{
		DefaultVoice:   cfg.Assets.ElevenLabs.DefaultVoice,
		PlaceholderURL: cfg.Assets.Placeholders.VoiceoverURL,
		CacheTTL:       cfg.Enrichment.VoiceoverCacheTTL,
	})
}

func ProvideEnricher(cfg *config.Config, footage *enrichment.FootageResolver, voice *enrichment.VoiceoverSynthesizer) *enrichment.Enricher {
	return enrichment.NewEnricher(footage, voice, enrichment.EnricherConfig{
		MaxConcurrency:     cfg.Enrichment.MaxConcurrency,
		BackgroundMusicURL: cfg.Assets.Placeholders.BackgroundMusicURL,
	})
}

func ProvideAssistant(factory *llm.EinoFactory, llmChain *chain.LLMCallChain, embedder einoembedding.Embedder) *assistant.Service {
	return assistant.NewService(llmChain, embedder, factory.DefaultModel(""))
}

func ProvideHealthHandler(cfg *config.Config, redisClient *redis.Client, pgClient *postgres.Client) *handler.HealthHandler {
	deps := map[string]handler.HealthChecker{"redis": nil, "postgres": nil}
	if redisClient != nil {
		deps["redis"] = redisClient
	}
	if pgClient != nil {
		deps["postgres"] = pgClient
	}
	return handler.NewHealthHandler(cfg.App.Version, deps, map[string]bool{
		"getty":      cfg.Assets.Getty.APIKey != "",
		"elevenlabs": cfg.Assets.ElevenLabs.APIKey != "",
	})
}

func ProvideScriptHandler(cfg *config.Config, gen handler.ScriptGenerator, enr handler.ScriptEnricher, history repository.GenerationRepository) *handler.ScriptHandler {
	return handler.NewScriptHandler(gen, enr, history, cfg.Generation.Timeout, cfg.Enrichment.Timeout)
}
