// Package assistant 提供通用补全与向量化能力
package assistant

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/schema"

	wfmodel "promo-script-ai-api/internal/workflow/model"
	apperrors "promo-script-ai-api/pkg/errors"
	"promo-script-ai-api/pkg/logger"
)

const workflowCompletion = "completion"

// LLMInvoker 执行一次模型调用（由 chain.LLMCallChain 实现）
type LLMInvoker interface {
	Invoke(ctx context.Context, in *wfmodel.LLMCallInput) (*wfmodel.LLMCallOutput, error)
}

// CompletionRequest 通用补全请求
type CompletionRequest struct {
	Prompt       string
	SystemPrompt string
	Temperature  *float32
	MaxTokens    *int
	Model        string
	Provider     string
}

// CompletionResult 补全结果
type CompletionResult struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Service 通用补全与 embedding 服务
type Service struct {
	llm          LLMInvoker
	embedder     embedding.Embedder
	defaultModel string
}

// NewService embedder 为 nil 时 Embed 返回 ErrServiceUnavailable
func NewService(llm LLMInvoker, embedder embedding.Embedder, defaultModel string) *Service {
	return &Service{llm: llm, embedder: embedder, defaultModel: defaultModel}
}

// Complete 单轮补全
func (s *Service) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, apperrors.ErrInvalidParam.WithDetail("prompt is required")
	}

	msgs := make([]*schema.Message, 0, 2)
	if sp := strings.TrimSpace(req.SystemPrompt); sp != "" {
		msgs = append(msgs, schema.SystemMessage(sp))
	}
	msgs = append(msgs, schema.UserMessage(req.Prompt))

	out, err := s.llm.Invoke(ctx, &wfmodel.LLMCallInput{
		Workflow:    workflowCompletion,
		Provider:    req.Provider,
		Model:       req.Model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		logger.Error(ctx, "completion failed", err)
		return nil, apperrors.Wrap(err, apperrors.CodeLLMCallFailed, "completion failed")
	}

	model := out.Meta.Model
	if model == "" {
		model = s.defaultModel
	}
	return &CompletionResult{
		Content:          out.Content,
		Model:            model,
		PromptTokens:     out.Meta.PromptTokens,
		CompletionTokens: out.Meta.CompletionTokens,
		TotalTokens:      out.Meta.TotalTokens,
	}, nil
}

// Embed 返回单条文本的向量
func (s *Service) Embed(ctx context.Context, text, model string) ([]float64, error) {
	if s.embedder == nil {
		return nil, apperrors.ErrServiceUnavailable.WithDetail("embedding provider not configured")
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.ErrInvalidParam.WithDetail("text is required")
	}

	var opts []embedding.Option
	if m := strings.TrimSpace(model); m != "" {
		opts = append(opts, embedding.WithModel(m))
	}
	vectors, err := s.embedder.EmbedStrings(ctx, []string{text}, opts...)
	if err != nil {
		logger.Error(ctx, "embedding failed", err)
		return nil, apperrors.Wrap(err, apperrors.CodeEmbeddingFailed, "embedding failed")
	}
	if len(vectors) == 0 {
		return nil, apperrors.New(apperrors.CodeEmbeddingFailed, "embedding failed").WithDetail("empty embedding response")
	}
	return vectors[0], nil
}
