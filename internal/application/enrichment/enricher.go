package enrichment

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"promo-script-ai-api/internal/domain/entity"
	apperrors "promo-script-ai-api/pkg/errors"
	"promo-script-ai-api/pkg/logger"
	"promo-script-ai-api/pkg/metrics"
	"promo-script-ai-api/pkg/tracer"
)

const backgroundMusicText = "Background Music"

// EnricherConfig 补全编排配置
type EnricherConfig struct {
	// MaxConcurrency 同时进行的外部调用上限，0 表示不限制
	MaxConcurrency     int
	BackgroundMusicURL string
}

// EnrichOptions 单次补全的可选参数
type EnrichOptions struct {
	// Voice 旁白音色，为空时使用默认音色
	Voice string
}

// Enricher 并发补全各段旁白音频与各镜头素材
type Enricher struct {
	footage *FootageResolver
	voice   *VoiceoverSynthesizer
	cfg     EnricherConfig
}

func NewEnricher(footage *FootageResolver, voice *VoiceoverSynthesizer, cfg EnricherConfig) *Enricher {
	return &Enricher{footage: footage, voice: voice, cfg: cfg}
}

// Enrich 返回与输入顺序一致的补全脚本，不修改输入。
// 任一段落或镜头的外部调用失败即整体失败（CodeEnrichmentFailed），不返回部分结果。
func (e *Enricher) Enrich(ctx context.Context, v entity.ScriptVariation, opts EnrichOptions) (*entity.EnrichedScript, error) {
	if err := v.Validate(); err != nil {
		return nil, apperrors.ErrInvalidParam.WithDetail(err.Error())
	}

	ctx, span := tracer.Start(ctx, "enrichment.enrich")
	defer span.End()
	span.SetAttributes(
		attribute.Int("enrichment.sections", len(v.VoiceoverSections)),
		attribute.Int("enrichment.scenes", v.SceneCount()),
	)

	start := time.Now()
	logger.Info(ctx, "enrichment started",
		"sections", len(v.VoiceoverSections),
		"scenes", v.SceneCount(),
	)

	sections := make([]entity.EnrichedSection, len(v.VoiceoverSections))
	for i, sec := range v.VoiceoverSections {
		scenes := make([]entity.EnrichedScene, len(sec.Scenes))
		for j, sc := range sec.Scenes {
			sc.SearchQueries = slices.Clone(sc.SearchQueries)
			scenes[j] = entity.EnrichedScene{Scene: sc}
		}
		sections[i] = entity.EnrichedSection{
			Voiceover: sec.Voiceover,
			Scenes:    scenes,
			BackgroundMusic: &entity.MusicAsset{
				URL:  e.cfg.BackgroundMusicURL,
				Text: backgroundMusicText,
			},
		}
	}

	eg, egCtx := errgroup.WithContext(ctx)
	if e.cfg.MaxConcurrency > 0 {
		eg.SetLimit(e.cfg.MaxConcurrency)
	}
	for i := range sections {
		sec := &sections[i]
		eg.Go(func() error {
			audio, err := e.voice.Synthesize(egCtx, sec.Voiceover, opts.Voice)
			if err != nil {
				return fmt.Errorf("section %d voiceover: %w", i+1, err)
			}
			sec.VoiceoverAudio = audio
			return nil
		})
		for j := range sec.Scenes {
			scene := &sec.Scenes[j]
			eg.Go(func() error {
				asset, err := e.footage.Resolve(egCtx, scene.SearchQueries)
				if err != nil {
					return fmt.Errorf("scene %d footage: %w", scene.SceneNumber, err)
				}
				scene.Footage = asset
				return nil
			})
		}
	}
	if err := eg.Wait(); err != nil {
		return nil, e.fail(ctx, span, start, err)
	}

	elapsed := time.Since(start)
	metrics.EnrichmentTotal.WithLabelValues("success").Inc()
	metrics.EnrichmentDuration.WithLabelValues("success").Observe(elapsed.Seconds())
	logger.Info(ctx, "enrichment completed",
		"sections", len(sections),
		"duration_ms", elapsed.Milliseconds(),
	)
	return &entity.EnrichedScript{
		VoiceoverSections: sections,
		Keywords:          slices.Clone(v.Keywords),
	}, nil
}

func (e *Enricher) fail(ctx context.Context, span trace.Span, start time.Time, cause error) error {
	metrics.EnrichmentTotal.WithLabelValues("error").Inc()
	metrics.EnrichmentDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
	tracer.Fail(span, cause)
	logger.Error(ctx, "enrichment failed", cause)
	return apperrors.Wrap(cause, apperrors.CodeEnrichmentFailed, "script enrichment failed")
}
