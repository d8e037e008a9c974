package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	openaiopts "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	einoobs "promo-script-ai-api/internal/observability/eino"
	wfmodel "promo-script-ai-api/internal/workflow/model"
	workflowport "promo-script-ai-api/internal/workflow/port"
	"promo-script-ai-api/pkg/logger"
)

// LLMCallChain 编排一次模型调用：校验 → 生成（含 json_schema 降级）→ 汇总用量
type LLMCallChain struct {
	factory workflowport.ChatModelFactory

	once     sync.Once
	runnable compose.Runnable[*wfmodel.LLMCallInput, *wfmodel.LLMCallOutput]
	buildErr error
}

func NewLLMCallChain(factory workflowport.ChatModelFactory) *LLMCallChain {
	return &LLMCallChain{factory: factory}
}

func (c *LLMCallChain) Invoke(ctx context.Context, in *wfmodel.LLMCallInput) (*wfmodel.LLMCallOutput, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}

	c.once.Do(func() {
		c.runnable, c.buildErr = c.build(context.Background())
	})
	if c.buildErr != nil {
		return nil, c.buildErr
	}
	return c.runnable.Invoke(ctx, in)
}

type llmCallState struct {
	In     *wfmodel.LLMCallInput
	OutMsg *schema.Message
}

func (c *LLMCallChain) build(ctx context.Context) (compose.Runnable[*wfmodel.LLMCallInput, *wfmodel.LLMCallOutput], error) {
	ch := compose.NewChain[*wfmodel.LLMCallInput, *wfmodel.LLMCallOutput]()

	ch.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, in *wfmodel.LLMCallInput) (*llmCallState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			if len(in.Messages) == 0 {
				return nil, fmt.Errorf("messages are required")
			}
			return &llmCallState{In: in}, nil
		}),
		compose.WithNodeName("llm.init"),
	)

	ch.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *llmCallState) (*llmCallState, error) {
			outMsg, err := c.generate(ctx, st.In)
			if err != nil {
				return nil, err
			}
			st.OutMsg = outMsg
			return st, nil
		}),
		compose.WithNodeName("llm.generate"),
	)

	ch.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *llmCallState) (*wfmodel.LLMCallOutput, error) {
			return &wfmodel.LLMCallOutput{
				Content: st.OutMsg.Content,
				Meta:    usageMeta(st.In, st.OutMsg),
			}, nil
		}),
		compose.WithNodeName("llm.finalize"),
	)

	return ch.Compile(ctx, compose.WithGraphName("llm_call_chain"))
}

func (c *LLMCallChain) generate(ctx context.Context, in *wfmodel.LLMCallInput) (*schema.Message, error) {
	provider := strings.TrimSpace(in.Provider)
	ctx = einoobs.WithWorkflowProvider(ctx, in.Workflow, provider)

	chatModel, err := c.factory.Get(ctx, provider)
	if err != nil {
		return nil, err
	}

	withSchema := len(in.ResponseSchema) > 0
	outMsg, err := chatModel.Generate(ctx, in.Messages, buildModelOptions(in, withSchema)...)
	if err != nil && withSchema && schemaUnsupported(err) {
		logger.Warn(ctx, "llm json_schema not supported, fallback to prompt-only",
			"workflow", in.Workflow,
			"provider", provider,
			"model", in.Model,
			"error", err.Error(),
		)
		outMsg, err = chatModel.Generate(ctx, in.Messages, buildModelOptions(in, false)...)
	}
	if err != nil {
		return nil, err
	}
	if outMsg == nil {
		return nil, fmt.Errorf("empty llm response")
	}
	return outMsg, nil
}

func buildModelOptions(in *wfmodel.LLMCallInput, withSchema bool) []model.Option {
	opts := make([]model.Option, 0, 4)
	if in.Temperature != nil {
		opts = append(opts, model.WithTemperature(*in.Temperature))
	}
	if in.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*in.MaxTokens))
	}
	if m := strings.TrimSpace(in.Model); m != "" {
		opts = append(opts, model.WithModel(m))
	}
	if withSchema {
		name := in.ResponseSchemaName
		if name == "" {
			name = "structured_output"
		}
		opts = append(opts, openaiopts.WithExtraFields(map[string]any{
			"response_format": map[string]any{
				"type": "json_schema",
				"json_schema": map[string]any{
					"name":   name,
					"strict": false,
					"schema": in.ResponseSchema,
				},
			},
		}))
	}
	return opts
}

func usageMeta(in *wfmodel.LLMCallInput, out *schema.Message) wfmodel.LLMUsageMeta {
	meta := wfmodel.LLMUsageMeta{
		Provider:    strings.TrimSpace(in.Provider),
		Model:       strings.TrimSpace(in.Model),
		GeneratedAt: time.Now().UTC(),
	}
	if in.Temperature != nil {
		meta.Temperature = float64(*in.Temperature)
	}
	if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		meta.PromptTokens = out.ResponseMeta.Usage.PromptTokens
		meta.CompletionTokens = out.ResponseMeta.Usage.CompletionTokens
		meta.TotalTokens = out.ResponseMeta.Usage.TotalTokens
	}
	return meta
}

// schemaUnsupported 判断提供商是否拒绝了 response_format / json_schema 参数
func schemaUnsupported(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, kw := range []string{"response_format", "json_schema", "response_schema"} {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return strings.Contains(msg, "response") &&
		(strings.Contains(msg, "unknown parameter") || strings.Contains(msg, "invalid"))
}
