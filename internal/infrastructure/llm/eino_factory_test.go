package llm

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"promo-script-ai-api/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		LLM: config.LLMConfig{
			DefaultProvider: "openai",
			Providers: map[string]config.ProviderConfig{
				"openai":   {APIKey: "sk-test", BaseURL: "http://127.0.0.1:1/v1", Model: "gpt-4.1-nano", MaxTokens: 1024, Temperature: 0.7, Timeout: time.Second},
				"deepseek": {APIKey: "", BaseURL: "http://127.0.0.1:1/v1", Model: "deepseek-chat"},
			},
		},
	}
}

func TestEinoFactory_GetCachesPerProvider(t *testing.T) {
	f := NewEinoFactory(testConfig())
	ctx := context.Background()

	a, err := f.Get(ctx, "")
	if err != nil {
		t.Fatalf("Get default: %v", err)
	}
	b, err := f.Get(ctx, "openai")
	if err != nil {
		t.Fatalf("Get openai: %v", err)
	}
	if a != b {
		t.Fatal("expected cached instance for default provider")
	}
}

func TestEinoFactory_GetErrors(t *testing.T) {
	f := NewEinoFactory(testConfig())
	ctx := context.Background()

	if _, err := f.Get(ctx, "missing"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("err=%v, want not found", err)
	}
	if _, err := f.Get(ctx, "deepseek"); err == nil || !strings.Contains(err.Error(), "no api_key") {
		t.Fatalf("err=%v, want no api_key", err)
	}
}

func TestEinoFactory_ProvidersAndDefaultModel(t *testing.T) {
	f := NewEinoFactory(testConfig())
	if got := f.Providers(); !reflect.DeepEqual(got, []string{"deepseek", "openai"}) {
		t.Fatalf("Providers=%v", got)
	}
	if got := f.DefaultModel(""); got != "gpt-4.1-nano" {
		t.Fatalf("DefaultModel=%q", got)
	}
}
