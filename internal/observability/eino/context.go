package eino

import (
	"context"
	"strings"
)

type llmScopeKey struct{}

type llmScope struct {
	workflow string
	provider string
}

const unknownLabel = "unknown"

// WithWorkflowProvider 标记本次模型调用所属的工作流与提供商，供 callbacks 打点使用
func WithWorkflowProvider(ctx context.Context, workflow, provider string) context.Context {
	if ctx == nil {
		return nil
	}
	sc := scopeFrom(ctx)
	if w := strings.TrimSpace(workflow); w != "" {
		sc.workflow = w
	}
	if p := strings.TrimSpace(provider); p != "" {
		sc.provider = p
	}
	return context.WithValue(ctx, llmScopeKey{}, sc)
}

// WorkflowFromContext 未标记时返回 "unknown"
func WorkflowFromContext(ctx context.Context) string {
	if w := scopeFrom(ctx).workflow; w != "" {
		return w
	}
	return unknownLabel
}

// ProviderFromContext 未标记时返回 "unknown"
func ProviderFromContext(ctx context.Context) string {
	if p := scopeFrom(ctx).provider; p != "" {
		return p
	}
	return unknownLabel
}

func scopeFrom(ctx context.Context) llmScope {
	if ctx == nil {
		return llmScope{}
	}
	sc, _ := ctx.Value(llmScopeKey{}).(llmScope)
	return sc
}
