package dto

import (
	"promo-script-ai-api/internal/domain/entity"
)

// GenerateScriptRequest 脚本生成请求
type GenerateScriptRequest struct {
	ProductName        string `json:"product_name" binding:"required,max=200"`
	ProductDescription string `json:"product_description" binding:"required,max=4000"`
	Duration           string `json:"duration" binding:"max=50"`
	TargetAudience     string `json:"target_audience" binding:"max=500"`
	Language           string `json:"language" binding:"max=50"`
	BrandName          string `json:"brand_name" binding:"max=200"`
	Tone               string `json:"tone" binding:"max=200"`
	AdType             string `json:"ad_type" binding:"max=100"`
	Variations         int    `json:"variations" binding:"omitempty,min=1"`
	Model              string `json:"model" binding:"max=64"`
	Provider           string `json:"provider" binding:"max=32"`
}

// ToEntity 转换为领域请求
func (r *GenerateScriptRequest) ToEntity() entity.ScriptRequest {
	return entity.ScriptRequest{
		ProductName:    r.ProductName,
		Description:    r.ProductDescription,
		Duration:       r.Duration,
		TargetAudience: r.TargetAudience,
		Language:       r.Language,
		BrandName:      r.BrandName,
		Tone:           r.Tone,
		AdType:         r.AdType,
		Variations:     r.Variations,
		Model:          r.Model,
		Provider:       r.Provider,
	}
}

// GenerateScriptResponse 脚本生成响应，variations 顺序即版本序号
// GenerationID 仅在启用生成历史且保存成功时返回
type GenerateScriptResponse struct {
	GenerationID string                   `json:"generation_id,omitempty"`
	Variations   []entity.ScriptVariation `json:"variations"`
}

// GenerationListResponse 生成历史列表
type GenerationListResponse struct {
	Generations []*entity.GenerationRecord `json:"generations"`
}

// EnrichScriptRequest 素材补全请求
type EnrichScriptRequest struct {
	Script  *entity.ScriptVariation `json:"script" binding:"required"`
	VoiceID string                  `json:"voice_id" binding:"max=64"`
}

// EnrichScriptResponse 素材补全响应
type EnrichScriptResponse struct {
	EnhancedScript *entity.EnrichedScript `json:"enhanced_script"`
}
