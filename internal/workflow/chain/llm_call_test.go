package chain

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	wfmodel "promo-script-ai-api/internal/workflow/model"
)

type fakeChatModel struct {
	calls    atomic.Int32
	generate func(call int32, opts *model.Options) (*schema.Message, error)
}

func (f *fakeChatModel) Generate(_ context.Context, _ []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	n := f.calls.Add(1)
	return f.generate(n, model.GetCommonOptions(&model.Options{}, opts...))
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

type fakeFactory struct {
	model    model.BaseChatModel
	err      error
	lastName string
}

func (f *fakeFactory) Get(_ context.Context, name string) (model.BaseChatModel, error) {
	f.lastName = name
	if f.err != nil {
		return nil, f.err
	}
	return f.model, nil
}

func ptr[T any](v T) *T { return &v }

func TestLLMCallChain_InvokePassesOptionsAndUsage(t *testing.T) {
	fm := &fakeChatModel{generate: func(_ int32, o *model.Options) (*schema.Message, error) {
		if o.Temperature == nil || *o.Temperature != float32(0.8) {
			t.Errorf("temperature=%v", o.Temperature)
		}
		if o.Model == nil || *o.Model != "gpt-4.1-nano" {
			t.Errorf("model=%v", o.Model)
		}
		return &schema.Message{
			Role:    schema.Assistant,
			Content: `["a"]`,
			ResponseMeta: &schema.ResponseMeta{
				Usage: &schema.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
			},
		}, nil
	}}
	factory := &fakeFactory{model: fm}
	c := NewLLMCallChain(factory)

	out, err := c.Invoke(context.Background(), &wfmodel.LLMCallInput{
		Workflow:    "keyword_generate",
		Provider:    " openai ",
		Model:       "gpt-4.1-nano",
		Messages:    []*schema.Message{schema.UserMessage("hi")},
		Temperature: ptr(float32(0.8)),
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out.Content != `["a"]` || out.Meta.TotalTokens != 15 || out.Meta.Provider != "openai" {
		t.Fatalf("unexpected output: %+v", out)
	}
	if factory.lastName != "openai" {
		t.Fatalf("factory got %q", factory.lastName)
	}
}

func TestLLMCallChain_FallsBackWhenSchemaUnsupported(t *testing.T) {
	fm := &fakeChatModel{generate: func(call int32, _ *model.Options) (*schema.Message, error) {
		if call == 1 {
			return nil, errors.New("400: unknown parameter response_format")
		}
		return schema.AssistantMessage("{}", nil), nil
	}}
	c := NewLLMCallChain(&fakeFactory{model: fm})

	out, err := c.Invoke(context.Background(), &wfmodel.LLMCallInput{
		Messages:       []*schema.Message{schema.UserMessage("hi")},
		ResponseSchema: map[string]any{"type": "object"},
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out.Content != "{}" || fm.calls.Load() != 2 {
		t.Fatalf("content=%q calls=%d", out.Content, fm.calls.Load())
	}
}

func TestLLMCallChain_NoFallbackWithoutSchema(t *testing.T) {
	fm := &fakeChatModel{generate: func(int32, *model.Options) (*schema.Message, error) {
		return nil, errors.New("invalid response_format")
	}}
	c := NewLLMCallChain(&fakeFactory{model: fm})

	_, err := c.Invoke(context.Background(), &wfmodel.LLMCallInput{
		Messages: []*schema.Message{schema.UserMessage("hi")},
	})
	if err == nil || !strings.Contains(err.Error(), "response_format") {
		t.Fatalf("err=%v", err)
	}
	if fm.calls.Load() != 1 {
		t.Fatalf("calls=%d, want 1", fm.calls.Load())
	}
}

func TestLLMCallChain_Errors(t *testing.T) {
	if _, err := NewLLMCallChain(nil).Invoke(context.Background(), &wfmodel.LLMCallInput{}); err == nil {
		t.Fatal("expected error for nil factory")
	}

	c := NewLLMCallChain(&fakeFactory{err: errors.New("provider x not found")})
	if _, err := c.Invoke(context.Background(), &wfmodel.LLMCallInput{}); err == nil {
		t.Fatal("expected error for empty messages")
	}
	_, err := c.Invoke(context.Background(), &wfmodel.LLMCallInput{Messages: []*schema.Message{schema.UserMessage("x")}})
	if err == nil || !strings.Contains(err.Error(), "provider x not found") {
		t.Fatalf("err=%v", err)
	}
}

func TestSchemaUnsupported(t *testing.T) {
	cases := map[string]bool{
		"400: Unknown parameter: 'response_format'":  true,
		"json_schema is not supported by this model": true,
		"Invalid value for response: strict":         true,
		"unknown parameter in response body":         true,
		"context deadline exceeded":                  false,
		"429 too many requests":                      false,
	}
	for msg, want := range cases {
		if got := schemaUnsupported(errors.New(msg)); got != want {
			t.Errorf("schemaUnsupported(%q)=%v, want %v", msg, got, want)
		}
	}
	if schemaUnsupported(nil) {
		t.Error("nil error must not trigger fallback")
	}
}
