// Package script 负责营销视频脚本的多版本生成
package script

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"promo-script-ai-api/internal/domain/entity"
	wfmodel "promo-script-ai-api/internal/workflow/model"
	"promo-script-ai-api/internal/workflow/node"
	apperrors "promo-script-ai-api/pkg/errors"
	"promo-script-ai-api/pkg/logger"
	"promo-script-ai-api/pkg/metrics"
	"promo-script-ai-api/pkg/tracer"
)

// minKeywords 关键词数量低于该值只告警不失败
const minKeywords = 4

// LLMInvoker 执行一次模型调用（由 chain.LLMCallChain 实现）
type LLMInvoker interface {
	Invoke(ctx context.Context, in *wfmodel.LLMCallInput) (*wfmodel.LLMCallOutput, error)
}

// VariationGenerator 并发生成 N 个脚本版本与一份共享关键词
type VariationGenerator struct {
	builder       *PromptBuilder
	llm           LLMInvoker
	maxVariations int
}

func NewVariationGenerator(builder *PromptBuilder, llm LLMInvoker, maxVariations int) *VariationGenerator {
	return &VariationGenerator{
		builder:       builder,
		llm:           llm,
		maxVariations: maxVariations,
	}
}

// Generate 返回 req.Variations 个版本，第 i 个位置对应第 i 个版本。
// 任一脚本或关键词调用失败（传输错误或输出无法解析）即整体失败，不返回部分结果。
func (g *VariationGenerator) Generate(ctx context.Context, req entity.ScriptRequest) ([]entity.ScriptVariation, error) {
	req = req.WithDefaults()
	if err := req.Validate(g.maxVariations); err != nil {
		return nil, apperrors.ErrInvalidParam.WithDetail(err.Error())
	}

	ctx = logger.WithContext(ctx, logger.ProductKey, req.ProductName)
	ctx, span := tracer.Start(ctx, "script.generate_variations")
	defer span.End()
	span.SetAttributes(attribute.Int("script.variations", req.Variations))

	start := time.Now()
	n := req.Variations
	metrics.ScriptVariations.Observe(float64(n))
	logger.Info(ctx, "script generation started", "variations", n, "language", req.Language)

	keywordCall, err := g.builder.KeywordCall(ctx, req)
	if err != nil {
		return nil, g.fail(ctx, span, start, fmt.Errorf("build keyword prompt: %w", err))
	}
	scriptCalls := make([]*wfmodel.LLMCallInput, n)
	for i := range n {
		if scriptCalls[i], err = g.builder.ScriptCall(ctx, req, i, n); err != nil {
			return nil, g.fail(ctx, span, start, fmt.Errorf("build script prompt %d: %w", i+1, err))
		}
	}

	var keywords []string
	variations := make([]entity.ScriptVariation, n)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		out, err := g.llm.Invoke(egCtx, keywordCall)
		if err != nil {
			return fmt.Errorf("keywords: %w", err)
		}
		kw, err := parseKeywords(out.Content)
		if err != nil {
			return fmt.Errorf("keywords: %w", err)
		}
		if len(kw) < minKeywords {
			logger.Warn(egCtx, "fewer keywords than requested", "count", len(kw), "want", minKeywords)
		}
		keywords = kw
		return nil
	})
	for i := range n {
		eg.Go(func() error {
			vctx := logger.WithContext(egCtx, logger.VariationKey, i+1)
			out, err := g.llm.Invoke(vctx, scriptCalls[i])
			if err != nil {
				return fmt.Errorf("variation %d: %w", i+1, err)
			}
			sections, err := parseSections(out.Content)
			if err != nil {
				logger.Warn(vctx, "variation output rejected", "error", err.Error())
				return fmt.Errorf("variation %d: %w", i+1, err)
			}
			variations[i] = entity.ScriptVariation{VoiceoverSections: sections}
			logger.Debug(vctx, "variation generated",
				"sections", len(sections),
				"scenes", variations[i].SceneCount(),
				"completion_tokens", out.Meta.CompletionTokens,
			)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, g.fail(ctx, span, start, err)
	}

	for i := range variations {
		variations[i].Keywords = slices.Clone(keywords)
	}

	elapsed := time.Since(start)
	metrics.ScriptGenerationTotal.WithLabelValues("success").Inc()
	metrics.ScriptGenerationDuration.WithLabelValues("success").Observe(elapsed.Seconds())
	logger.Info(ctx, "script generation completed",
		"variations", n,
		"keywords", len(keywords),
		"duration_ms", elapsed.Milliseconds(),
	)
	return variations, nil
}

func (g *VariationGenerator) fail(ctx context.Context, span trace.Span, start time.Time, cause error) error {
	metrics.ScriptGenerationTotal.WithLabelValues("error").Inc()
	metrics.ScriptGenerationDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
	tracer.Fail(span, cause)
	logger.Error(ctx, "script generation failed", cause)
	return apperrors.Wrap(cause, apperrors.CodeGenerationFailed, "script generation failed")
}

type scriptPayload struct {
	VoiceoverSections []entity.VoiceoverSection `json:"voiceover_sections"`
}

// parseSections 解析并校验单个脚本版本，结构不合法时返回 CodeMalformedOutput
func parseSections(raw string) ([]entity.VoiceoverSection, error) {
	var p scriptPayload
	if err := node.DecodeStructured(raw, &p); err != nil {
		return nil, err
	}
	for i := range p.VoiceoverSections {
		for j := range p.VoiceoverSections[i].Scenes {
			sc := &p.VoiceoverSections[i].Scenes[j]
			sc.SearchQueries = entity.NormalizeQueries(sc.SearchQueries)
		}
	}
	v := entity.ScriptVariation{VoiceoverSections: p.VoiceoverSections}
	if err := v.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeMalformedOutput, "malformed generation output")
	}
	return p.VoiceoverSections, nil
}

// parseKeywords 期望 JSON 字符串数组；兼容 {"keywords": [...]} 形式
func parseKeywords(raw string) ([]string, error) {
	var v any
	if err := node.DecodeStructured(raw, &v); err != nil {
		return nil, err
	}
	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case map[string]any:
		items, _ = t["keywords"].([]any)
	}

	out := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			return nil, apperrors.New(apperrors.CodeMalformedOutput, "malformed generation output").
				WithDetail(fmt.Sprintf("keyword is not a string: %v", it))
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, apperrors.New(apperrors.CodeMalformedOutput, "malformed generation output").
			WithDetail("keyword list is empty")
	}
	return out, nil
}
