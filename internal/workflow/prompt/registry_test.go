package prompt

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/cloudwego/eino/schema"
)

func TestRegistry_ScriptTemplateRendersEscapedJSON(t *testing.T) {
	reg := NewRegistry()
	tpl, err := reg.ChatTemplate(PromptScriptGenV1)
	if err != nil {
		t.Fatalf("ChatTemplate: %v", err)
	}
	msgs, err := tpl.Format(context.Background(), map[string]any{
		"product_name":    "AquaFlask",
		"description":     "insulated bottle",
		"duration":        "30 seconds",
		"ad_type":         "product showcase",
		"target_audience": "hikers",
		"language":        "German",
		"brand_block":     "Brand Name: Aqua",
		"tone":            "upbeat",
		"variation_block": "This is variation 2 of 3.",
	})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Role != schema.System || msgs[1].Role != schema.User {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
	user := msgs[1].Content
	for _, want := range []string{"30 seconds product showcase", "AquaFlask", "written in German", `"voiceover_sections": [`, "This is variation 2 of 3."} {
		if !strings.Contains(user, want) {
			t.Errorf("user prompt missing %q", want)
		}
	}
	if strings.Contains(user, "{{") {
		t.Errorf("escaped braces leaked into prompt")
	}
}

func TestRegistry_CachesAndRejectsUnknown(t *testing.T) {
	reg := NewRegistry()
	a, err := reg.ChatTemplate(PromptKeywordsV1)
	if err != nil {
		t.Fatalf("ChatTemplate: %v", err)
	}
	b, _ := reg.ChatTemplate(PromptKeywordsV1)
	if a != b {
		t.Fatalf("expected cached template instance")
	}
	if _, err := reg.ChatTemplate(PromptID("nope")); err == nil {
		t.Fatal("expected error for unknown prompt id")
	}
}

func TestLoadTemplates_RequiresUserFile(t *testing.T) {
	fsys := fstest.MapFS{
		"templates/ok.system.txt":     {Data: []byte("sys")},
		"templates/ok.user.txt":       {Data: []byte("user {name}")},
		"templates/orphan.system.txt": {Data: []byte("sys")},
	}
	if _, err := loadTemplates(fsys); err == nil || !strings.Contains(err.Error(), "orphan") {
		t.Fatalf("err=%v, want missing user file for orphan", err)
	}

	delete(fsys, "templates/orphan.system.txt")
	tpls, err := loadTemplates(fsys)
	if err != nil {
		t.Fatalf("loadTemplates: %v", err)
	}
	msgs, err := tpls["ok"].Format(context.Background(), map[string]any{"name": "x"})
	if err != nil || len(msgs) != 2 || msgs[1].Content != "user x" {
		t.Fatalf("msgs=%+v err=%v", msgs, err)
	}
}
