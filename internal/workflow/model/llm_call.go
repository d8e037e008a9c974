package model

import (
	"time"

	"github.com/cloudwego/eino/schema"
)

// LLMCallInput 一次模型调用：已渲染的消息与采样参数
type LLMCallInput struct {
	// Workflow 用于 callbacks 的指标/追踪标签
	Workflow string
	Provider string
	Model    string

	Messages []*schema.Message

	Temperature *float32
	MaxTokens   *int

	// ResponseSchema 非空时优先以 response_format=json_schema 约束输出，
	// 提供商不支持时降级为仅靠 Prompt 约束
	ResponseSchemaName string
	ResponseSchema     map[string]any
}

// LLMCallOutput 模型原始输出与用量
type LLMCallOutput struct {
	Content string
	Meta    LLMUsageMeta
}

// LLMUsageMeta 单次模型调用的用量信息
type LLMUsageMeta struct {
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Temperature      float64
	GeneratedAt      time.Time
}
