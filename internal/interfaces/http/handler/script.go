// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"promo-script-ai-api/internal/application/enrichment"
	"promo-script-ai-api/internal/domain/entity"
	"promo-script-ai-api/internal/domain/repository"
	"promo-script-ai-api/internal/interfaces/http/dto"
	apperrors "promo-script-ai-api/pkg/errors"
	"promo-script-ai-api/pkg/logger"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// ScriptGenerator 多版本脚本生成
type ScriptGenerator interface {
	Generate(ctx context.Context, req entity.ScriptRequest) ([]entity.ScriptVariation, error)
}

// ScriptEnricher 脚本素材补全
type ScriptEnricher interface {
	Enrich(ctx context.Context, v entity.ScriptVariation, opts enrichment.EnrichOptions) (*entity.EnrichedScript, error)
}

// ScriptHandler 脚本处理器
type ScriptHandler struct {
	generator     ScriptGenerator
	enricher      ScriptEnricher
	history       repository.GenerationRepository
	genTimeout    time.Duration
	enrichTimeout time.Duration
}

// NewScriptHandler 创建脚本处理器
// history 为 nil 时不保存生成历史；超时为 0 时不额外设置截止时间
func NewScriptHandler(generator ScriptGenerator, enricher ScriptEnricher, history repository.GenerationRepository, genTimeout, enrichTimeout time.Duration) *ScriptHandler {
	return &ScriptHandler{
		generator:     generator,
		enricher:      enricher,
		history:       history,
		genTimeout:    genTimeout,
		enrichTimeout: enrichTimeout,
	}
}

// GenerateVariations 生成脚本版本
// @Summary 生成营销视频脚本
// @Description 并发生成 N 个脚本版本，所有版本共享一组素材关键词
// @Tags Scripts
// @Accept json
// @Produce json
// @Param body body dto.GenerateScriptRequest true "产品信息"
// @Success 200 {object} dto.Response[dto.GenerateScriptResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/scripts/variations [post]
func (h *ScriptHandler) GenerateVariations(c *gin.Context) {
	var req dto.GenerateScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	ctx, cancel := withTimeout(c.Request.Context(), h.genTimeout)
	defer cancel()

	scriptReq := req.ToEntity()
	variations, err := h.generator.Generate(ctx, scriptReq)
	if err != nil {
		dto.AppError(c, err)
		return
	}
	dto.Success(c, dto.GenerateScriptResponse{
		GenerationID: h.record(c.Request.Context(), scriptReq, variations),
		Variations:   variations,
	})
}

// record 保存生成历史，失败只记录告警，不影响本次响应
func (h *ScriptHandler) record(ctx context.Context, req entity.ScriptRequest, variations []entity.ScriptVariation) string {
	if h.history == nil {
		return ""
	}
	rec := entity.NewGenerationRecord(uuid.NewString(), req.WithDefaults(), variations)
	if err := h.history.Create(ctx, rec); err != nil {
		logger.Warn(ctx, "failed to save generation history", "error", err.Error())
		return ""
	}
	return rec.ID
}

// GetGeneration 获取一次生成记录
// @Summary 获取生成记录
// @Tags Scripts
// @Produce json
// @Param id path string true "生成记录 ID"
// @Success 200 {object} dto.Response[entity.GenerationRecord]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/scripts/generations/{id} [get]
func (h *ScriptHandler) GetGeneration(c *gin.Context) {
	if h.history == nil {
		dto.AppError(c, apperrors.ErrServiceUnavailable.WithDetail("generation history is disabled"))
		return
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		dto.BadRequest(c, "invalid generation id")
		return
	}

	rec, err := h.history.GetByID(c.Request.Context(), id)
	if err != nil {
		dto.AppError(c, apperrors.Wrap(err, apperrors.CodeInternalError, "failed to load generation"))
		return
	}
	if rec == nil {
		dto.AppError(c, apperrors.ErrNotFound.WithDetail("generation "+id))
		return
	}
	dto.Success(c, rec)
}

// ListGenerations 列出最近的生成记录
// @Summary 列出生成记录
// @Tags Scripts
// @Produce json
// @Param limit query int false "返回条数（默认 20，最大 100）"
// @Success 200 {object} dto.Response[dto.GenerationListResponse]
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/scripts/generations [get]
func (h *ScriptHandler) ListGenerations(c *gin.Context) {
	if h.history == nil {
		dto.AppError(c, apperrors.ErrServiceUnavailable.WithDetail("generation history is disabled"))
		return
	}
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			dto.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := h.history.ListRecent(c.Request.Context(), limit)
	if err != nil {
		dto.AppError(c, apperrors.Wrap(err, apperrors.CodeInternalError, "failed to list generations"))
		return
	}
	dto.Success(c, dto.GenerationListResponse{Generations: records})
}

// Enrich 补全脚本素材
// @Summary 补全脚本素材
// @Description 为选定的脚本版本检索镜头素材并合成旁白音频
// @Tags Scripts
// @Accept json
// @Produce json
// @Param body body dto.EnrichScriptRequest true "脚本"
// @Success 200 {object} dto.Response[dto.EnrichScriptResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 424 {object} dto.ErrorResponse
// @Router /v1/scripts/enrich [post]
func (h *ScriptHandler) Enrich(c *gin.Context) {
	var req dto.EnrichScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	ctx, cancel := withTimeout(c.Request.Context(), h.enrichTimeout)
	defer cancel()

	enriched, err := h.enricher.Enrich(ctx, *req.Script, enrichment.EnrichOptions{Voice: req.VoiceID})
	if err != nil {
		dto.AppError(c, err)
		return
	}
	dto.Success(c, dto.EnrichScriptResponse{EnhancedScript: enriched})
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
