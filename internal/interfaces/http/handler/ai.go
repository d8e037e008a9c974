package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"promo-script-ai-api/internal/application/assistant"
	"promo-script-ai-api/internal/interfaces/http/dto"
)

// Assistant 通用补全与向量化
type Assistant interface {
	Complete(ctx context.Context, req assistant.CompletionRequest) (*assistant.CompletionResult, error)
	Embed(ctx context.Context, text, model string) ([]float64, error)
}

// AIHandler 通用 AI 接口处理器
type AIHandler struct {
	assistant Assistant
}

// NewAIHandler 创建 AI 处理器
func NewAIHandler(a Assistant) *AIHandler {
	return &AIHandler{assistant: a}
}

// Completion 通用补全
// @Summary 通用补全
// @Tags AI
// @Accept json
// @Produce json
// @Param body body dto.CompletionRequest true "补全请求"
// @Success 200 {object} dto.Response[dto.CompletionResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/ai/completion [post]
func (h *AIHandler) Completion(c *gin.Context) {
	var req dto.CompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	res, err := h.assistant.Complete(c.Request.Context(), assistant.CompletionRequest{
		Prompt:       req.Prompt,
		SystemPrompt: req.SystemPrompt,
		Temperature:  req.Temperature,
		MaxTokens:    req.MaxTokens,
		Model:        req.Model,
		Provider:     req.Provider,
	})
	if err != nil {
		dto.AppError(c, err)
		return
	}
	dto.Success(c, dto.CompletionResponse{
		Content: res.Content,
		Model:   res.Model,
		Usage: dto.UsageResponse{
			PromptTokens:     res.PromptTokens,
			CompletionTokens: res.CompletionTokens,
			TotalTokens:      res.TotalTokens,
		},
	})
}

// Embeddings 文本向量化
// @Summary 文本向量化
// @Tags AI
// @Accept json
// @Produce json
// @Param body body dto.EmbeddingRequest true "向量化请求"
// @Success 200 {object} dto.Response[dto.EmbeddingResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/ai/embeddings [post]
func (h *AIHandler) Embeddings(c *gin.Context) {
	var req dto.EmbeddingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	vec, err := h.assistant.Embed(c.Request.Context(), req.Text, req.Model)
	if err != nil {
		dto.AppError(c, err)
		return
	}
	dto.Success(c, dto.EmbeddingResponse{Embedding: vec, Dimension: len(vec)})
}
