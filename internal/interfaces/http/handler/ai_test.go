package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"promo-script-ai-api/internal/application/assistant"
	"promo-script-ai-api/internal/interfaces/http/dto"
	apperrors "promo-script-ai-api/pkg/errors"
)

type fakeAssistant struct {
	got assistant.CompletionRequest
	vec []float64
	err error
}

func (f *fakeAssistant) Complete(_ context.Context, req assistant.CompletionRequest) (*assistant.CompletionResult, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &assistant.CompletionResult{Content: "ok", Model: "m", PromptTokens: 3, CompletionTokens: 1, TotalTokens: 4}, nil
}

func (f *fakeAssistant) Embed(_ context.Context, _, _ string) ([]float64, error) {
	return f.vec, f.err
}

func TestCompletion(t *testing.T) {
	a := &fakeAssistant{}
	h := NewAIHandler(a)

	w := serve(h.Completion, `{"prompt":"hi","system_prompt":"sys","temperature":0.2,"max_tokens":50}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp dto.Response[dto.CompletionResponse]
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Content != "ok" || resp.Data.Usage.TotalTokens != 4 {
		t.Fatalf("resp=%+v", resp.Data)
	}
	if a.got.SystemPrompt != "sys" || a.got.Temperature == nil || *a.got.MaxTokens != 50 {
		t.Fatalf("request=%+v", a.got)
	}

	if w := serve(h.Completion, `{"prompt":"hi","temperature":3}`); w.Code != http.StatusBadRequest {
		t.Fatalf("temperature out of range: status=%d", w.Code)
	}
}

func TestEmbeddings(t *testing.T) {
	h := NewAIHandler(&fakeAssistant{vec: []float64{1, 2, 3}})
	w := serve(h.Embeddings, `{"text":"hello"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var resp dto.Response[dto.EmbeddingResponse]
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Data.Dimension != 3 {
		t.Fatalf("resp=%+v err=%v", resp, err)
	}

	h = NewAIHandler(&fakeAssistant{err: apperrors.ErrServiceUnavailable.WithDetail("embedding provider not configured")})
	if w := serve(h.Embeddings, `{"text":"hello"}`); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", w.Code)
	}
}
