package dto

// CompletionRequest 通用补全请求
type CompletionRequest struct {
	Prompt       string   `json:"prompt" binding:"required"`
	SystemPrompt string   `json:"system_prompt"`
	Temperature  *float32 `json:"temperature" binding:"omitempty,min=0,max=2"`
	MaxTokens    *int     `json:"max_tokens" binding:"omitempty,min=1"`
	Model        string   `json:"model" binding:"max=64"`
	Provider     string   `json:"provider" binding:"max=32"`
}

// UsageResponse token 用量
type UsageResponse struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionResponse 通用补全响应
type CompletionResponse struct {
	Content string        `json:"content"`
	Model   string        `json:"model"`
	Usage   UsageResponse `json:"usage"`
}

// EmbeddingRequest 向量化请求
type EmbeddingRequest struct {
	Text  string `json:"text" binding:"required"`
	Model string `json:"model" binding:"max=64"`
}

// EmbeddingResponse 向量化响应
type EmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
	Dimension int       `json:"dimension"`
}
