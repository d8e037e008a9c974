package script

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"

	"promo-script-ai-api/internal/domain/entity"
	wfmodel "promo-script-ai-api/internal/workflow/model"
	"promo-script-ai-api/internal/workflow/node"
	workflowprompt "promo-script-ai-api/internal/workflow/prompt"
)

const (
	workflowScript  = "script_generate"
	workflowKeyword = "keyword_generate"
)

// PromptConfig 采样温度策略
type PromptConfig struct {
	BaseTemperature    float64
	TemperatureStep    float64
	KeywordTemperature float64
	MaxTemperature     float64
}

// PromptBuilder 由请求字段渲染脚本与关键词两类调用，不做任何 I/O
type PromptBuilder struct {
	registry *workflowprompt.Registry
	cfg      PromptConfig
}

func NewPromptBuilder(cfg PromptConfig) *PromptBuilder {
	if cfg.MaxTemperature <= 0 {
		cfg.MaxTemperature = 2.0
	}
	return &PromptBuilder{
		registry: workflowprompt.NewRegistry(),
		cfg:      cfg,
	}
}

// VariationTemperature 第 index 个版本（从 0 开始）的温度：base + index*step，上限 MaxTemperature
func (b *PromptBuilder) VariationTemperature(index int) float32 {
	t := b.cfg.BaseTemperature + float64(index)*b.cfg.TemperatureStep
	t = math.Min(t, b.cfg.MaxTemperature)
	// 避免 0.7+0.1*2 之类的浮点尾差
	return float32(math.Round(t*1000) / 1000)
}

// ScriptCall 构建第 index 个版本的脚本生成调用（index 从 0 开始，total 为版本总数）
func (b *PromptBuilder) ScriptCall(ctx context.Context, req entity.ScriptRequest, index, total int) (*wfmodel.LLMCallInput, error) {
	tpl, err := b.registry.ChatTemplate(workflowprompt.PromptScriptGenV1)
	if err != nil {
		return nil, err
	}
	vars := requestVars(req)
	vars["duration"] = strings.TrimSpace(req.Duration)
	vars["ad_type"] = strings.TrimSpace(req.AdType)
	vars["brand_block"] = node.BuildBrandBlock(req.BrandName)
	vars["variation_block"] = node.BuildVariationBlock(index, total)

	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return nil, err
	}
	temp := b.VariationTemperature(index)
	return &wfmodel.LLMCallInput{
		Workflow:           workflowScript,
		Provider:           req.Provider,
		Model:              req.Model,
		Messages:           msgs,
		Temperature:        &temp,
		ResponseSchemaName: "video_script",
		ResponseSchema:     scriptJSONSchema(),
	}, nil
}

// KeywordCall 构建关键词生成调用；每个请求只构建一次，由所有版本共享
func (b *PromptBuilder) KeywordCall(ctx context.Context, req entity.ScriptRequest) (*wfmodel.LLMCallInput, error) {
	tpl, err := b.registry.ChatTemplate(workflowprompt.PromptKeywordsV1)
	if err != nil {
		return nil, err
	}
	msgs, err := tpl.Format(ctx, requestVars(req))
	if err != nil {
		return nil, err
	}
	temp := float32(b.cfg.KeywordTemperature)
	return &wfmodel.LLMCallInput{
		Workflow:    workflowKeyword,
		Provider:    req.Provider,
		Model:       req.Model,
		Messages:    msgs,
		Temperature: &temp,
	}, nil
}

func requestVars(req entity.ScriptRequest) map[string]any {
	return map[string]any{
		"product_name":    strings.TrimSpace(req.ProductName),
		"description":     strings.TrimSpace(req.Description),
		"target_audience": strings.TrimSpace(req.TargetAudience),
		"language":        strings.TrimSpace(req.Language),
		"tone":            strings.TrimSpace(req.Tone),
	}
}

// scriptJSONSchema 由 scriptPayload 反射出 response_format 使用的 JSON Schema，进程内只生成一次
var scriptJSONSchema = sync.OnceValue(func() map[string]any {
	return reflectSchema(&scriptPayload{})
})

// reflectSchema 生成内联（无 $ref）且禁止额外字段的 schema；无 omitempty 的字段均为必填
func reflectSchema(v any) map[string]any {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		ExpandedStruct:            true,
		Anonymous:                 true,
	}
	b, err := json.Marshal(r.Reflect(v))
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	delete(out, "$schema")
	return out
}
