package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"promo-script-ai-api/internal/domain/entity"
	"promo-script-ai-api/internal/workflow/port"
	apperrors "promo-script-ai-api/pkg/errors"
	"promo-script-ai-api/pkg/logger"
	"promo-script-ai-api/pkg/metrics"
)

const voiceoverNotConfigured = "Eleven Labs API key not configured"

// VoiceoverConfig 旁白合成配置
type VoiceoverConfig struct {
	DefaultVoice   string
	PlaceholderURL string
	CacheTTL       time.Duration
}

// VoiceoverSynthesizer 将段落旁白合成为音频
type VoiceoverSynthesizer struct {
	synth port.SpeechSynthesizer
	cache port.AssetCache
	cfg   VoiceoverConfig
}

// NewVoiceoverSynthesizer synth 为 nil 表示未配置凭证，返回演示音频；cache 可为 nil
func NewVoiceoverSynthesizer(synth port.SpeechSynthesizer, cache port.AssetCache, cfg VoiceoverConfig) *VoiceoverSynthesizer {
	return &VoiceoverSynthesizer{synth: synth, cache: cache, cfg: cfg}
}

// AudioRef 音频引用，仅由 (voice, text) 决定
func AudioRef(voice, text string) string {
	return fmt.Sprintf("/audio/%s_%s.mp3", voice, shortHash(voice+"\x00"+text))
}

// Synthesize voice 为空时使用默认音色。未配置凭证时返回演示音频且不会失败。
func (s *VoiceoverSynthesizer) Synthesize(ctx context.Context, text, voice string) (entity.VoiceoverAsset, error) {
	if strings.TrimSpace(voice) == "" {
		voice = s.cfg.DefaultVoice
	}

	if s.synth == nil {
		metrics.VoiceoverSynthesisTotal.WithLabelValues("placeholder").Inc()
		return entity.VoiceoverAsset{
			URL:  s.cfg.PlaceholderURL,
			Text: text,
			Note: voiceoverNotConfigured,
		}, nil
	}
	if strings.TrimSpace(text) == "" {
		return entity.VoiceoverAsset{}, apperrors.ErrInvalidParam.WithDetail("voiceover text is empty")
	}

	asset, err := s.synthesize(ctx, text, voice)
	if err != nil {
		metrics.VoiceoverSynthesisTotal.WithLabelValues("error").Inc()
		return entity.VoiceoverAsset{}, apperrors.Wrap(err, apperrors.CodeAssetProvider, "voiceover synthesis failed").
			WithDetail("voice: " + voice)
	}
	metrics.VoiceoverSynthesisTotal.WithLabelValues("ok").Inc()
	return asset, nil
}

func (s *VoiceoverSynthesizer) synthesize(ctx context.Context, text, voice string) (entity.VoiceoverAsset, error) {
	load := func(ctx context.Context) (any, error) {
		audio, err := s.synth.Synthesize(ctx, text, voice)
		if err != nil {
			return nil, err
		}
		logger.Debug(ctx, "voiceover synthesized", "voice", voice, "bytes", len(audio))
		return entity.VoiceoverAsset{URL: AudioRef(voice, text), Text: text}, nil
	}

	if s.cache == nil {
		v, err := load(ctx)
		if err != nil {
			return entity.VoiceoverAsset{}, err
		}
		return v.(entity.VoiceoverAsset), nil
	}

	key := fmt.Sprintf("voiceover:%s:%s", voice, shortHash(voice+"\x00"+text))
	b, err := s.cache.GetOrLoad(ctx, key, s.cfg.CacheTTL, load)
	if err != nil {
		return entity.VoiceoverAsset{}, err
	}
	var asset entity.VoiceoverAsset
	if err := json.Unmarshal(b, &asset); err != nil {
		return entity.VoiceoverAsset{}, fmt.Errorf("decode cached voiceover: %w", err)
	}
	return asset, nil
}
