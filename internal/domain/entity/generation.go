package entity

import "time"

// GenerationRecord 一次成功的脚本生成记录（只保存脚本，不保存素材）
type GenerationRecord struct {
	ID          string            `json:"id"`
	ProductName string            `json:"product_name"`
	Provider    string            `json:"provider,omitempty"`
	Model       string            `json:"model,omitempty"`
	Request     ScriptRequest     `json:"request"`
	Variations  []ScriptVariation `json:"variations"`
	Keywords    []string          `json:"stock_footage_keywords"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NewGenerationRecord 由请求与生成结果构造记录；关键词取自首个版本（所有版本共享）
func NewGenerationRecord(id string, req ScriptRequest, variations []ScriptVariation) *GenerationRecord {
	var keywords []string
	if len(variations) > 0 {
		keywords = append([]string(nil), variations[0].Keywords...)
	}
	return &GenerationRecord{
		ID:          id,
		ProductName: req.ProductName,
		Provider:    req.Provider,
		Model:       req.Model,
		Request:     req,
		Variations:  variations,
		Keywords:    keywords,
		CreatedAt:   time.Now(),
	}
}
