// Package elevenlabs 提供 ElevenLabs 文本转语音客户端
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"promo-script-ai-api/internal/config"
	"promo-script-ai-api/pkg/tracer"
)

const maxErrorBody = 512

// Client ElevenLabs TTS 客户端
type Client struct {
	apiKey          string
	baseURL         string
	modelID         string
	stability       float64
	similarityBoost float64
	httpClient      *http.Client
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// NewClient 未配置 api_key 时返回 nil
func NewClient(cfg *config.ElevenLabsConfig) *Client {
	if cfg.APIKey == "" {
		return nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiKey:          cfg.APIKey,
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		modelID:         cfg.ModelID,
		stability:       cfg.Stability,
		similarityBoost: cfg.SimilarityBoost,
		httpClient:      &http.Client{Timeout: timeout},
	}
}

// Synthesize 合成语音，返回音频字节
func (c *Client) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "elevenlabs.Synthesize",
		trace.WithAttributes(
			attribute.String("elevenlabs.voice", voice),
			attribute.Int("elevenlabs.text_len", len(text)),
		))
	defer span.End()

	body, err := json.Marshal(ttsRequest{
		Text:    text,
		ModelID: c.modelID,
		VoiceSettings: voiceSettings{
			Stability:       c.stability,
			SimilarityBoost: c.similarityBoost,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.baseURL + "/" + url.PathEscape(voice)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		tracer.Fail(span, err)
		return nil, fmt.Errorf("elevenlabs request failed: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		err := fmt.Errorf("elevenlabs returned status %d: %s", resp.StatusCode, string(respBody))
		tracer.Fail(span, err)
		return nil, err
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	span.SetAttributes(attribute.Int("elevenlabs.audio_bytes", len(audio)))
	return audio, nil
}
