package script

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"promo-script-ai-api/internal/domain/entity"
	"promo-script-ai-api/internal/workflow/chain"
	apperrors "promo-script-ai-api/pkg/errors"
)

var variationPattern = regexp.MustCompile(`This is variation (\d+) of (\d+)\.`)

// scriptedModel 根据 Prompt 内容返回关键词或脚本，可对指定版本注入故障
type scriptedModel struct {
	calls atomic.Int32

	failVariation      int // 1-based；0 表示不注入
	malformedVariation int
	keywordErr         error
	keywordRaw         string

	mu    sync.Mutex
	temps map[string]float32
}

func (m *scriptedModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.calls.Add(1)
	o := model.GetCommonOptions(&model.Options{}, opts...)
	user := in[len(in)-1].Content

	if strings.Contains(user, "stock footage keywords") {
		m.record("keywords", o)
		if m.keywordErr != nil {
			return nil, m.keywordErr
		}
		raw := m.keywordRaw
		if raw == "" {
			raw = "```json\n[\"fitness\", \"hydration\", \"outdoor\", \"adventure\"]\n```"
		}
		return schema.AssistantMessage(raw, nil), nil
	}

	v := 1
	if mm := variationPattern.FindStringSubmatch(user); mm != nil {
		v, _ = strconv.Atoi(mm[1])
	}
	m.record(fmt.Sprintf("v%d", v), o)

	// 让靠前的版本更晚完成，验证结果顺序不受完成顺序影响
	delay := time.Duration(10*(4-v)+rand.IntN(5)) * time.Millisecond
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if v == m.failVariation {
		return nil, errors.New("upstream 503")
	}
	if v == m.malformedVariation {
		return schema.AssistantMessage("Sorry, I cannot help with that.", nil), nil
	}
	return schema.AssistantMessage(scriptJSON(v), nil), nil
}

func (m *scriptedModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

func (m *scriptedModel) record(key string, o *model.Options) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.temps == nil {
		m.temps = make(map[string]float32)
	}
	if o.Temperature != nil {
		m.temps[key] = *o.Temperature
	}
}

func scriptJSON(v int) string {
	return fmt.Sprintf("```json\n"+`{"voiceover_sections":[
  {"voiceover":"v%[1]d intro","scenes":[
    {"scene_number":1,"visual":"sunrise trail","caption":"Go further","music_sfx":"ambient","search_queries":["hiker sunrise mountain","trail running"]},
    {"scene_number":2,"visual":"bottle close-up","caption":"Stay cold","music_sfx":"ambient","search_queries":["water bottle close up", ""]}
  ]},
  {"voiceover":"v%[1]d outro","scenes":[
    {"scene_number":3,"visual":"logo","caption":"AquaFlask","music_sfx":"swell","search_queries":["product logo reveal"]}
  ]}
]}`+"\n```", v)
}

type fakeFactory struct{ m model.BaseChatModel }

func (f fakeFactory) Get(context.Context, string) (model.BaseChatModel, error) { return f.m, nil }

func newTestGenerator(m *scriptedModel) *VariationGenerator {
	builder := NewPromptBuilder(PromptConfig{BaseTemperature: 0.7, TemperatureStep: 0.1, KeywordTemperature: 0.7})
	return NewVariationGenerator(builder, chain.NewLLMCallChain(fakeFactory{m: m}), 5)
}

func testRequest(n int) entity.ScriptRequest {
	return entity.ScriptRequest{
		ProductName: "AquaFlask",
		Description: "Insulated steel bottle that keeps drinks cold for 24 hours",
		Variations:  n,
	}
}

func TestGenerate_ThreeVariationsShareKeywords(t *testing.T) {
	m := &scriptedModel{}
	got, err := newTestGenerator(m).Generate(context.Background(), testRequest(3))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len=%d, want 3", len(got))
	}
	if n := m.calls.Load(); n != 4 {
		t.Fatalf("model calls=%d, want 3 scripts + 1 keywords", n)
	}

	wantKeywords := []string{"fitness", "hydration", "outdoor", "adventure"}
	for i, v := range got {
		if strings.Join(v.Keywords, "|") != strings.Join(wantKeywords, "|") {
			t.Fatalf("variation %d keywords=%q", i, v.Keywords)
		}
		if want := fmt.Sprintf("v%d intro", i+1); v.VoiceoverSections[0].Voiceover != want {
			t.Fatalf("slot %d holds %q, want %q", i, v.VoiceoverSections[0].Voiceover, want)
		}
		last := 0
		for _, sec := range v.VoiceoverSections {
			for _, sc := range sec.Scenes {
				if sc.SceneNumber != last+1 {
					t.Fatalf("variation %d scene numbers not increasing from 1: got %d after %d", i, sc.SceneNumber, last)
				}
				last = sc.SceneNumber
				if len(sc.SearchQueries) == 0 {
					t.Fatalf("scene %d has no queries", sc.SceneNumber)
				}
			}
		}
		// 空白检索词已被剔除
		if q := v.VoiceoverSections[0].Scenes[1].SearchQueries; len(q) != 1 {
			t.Fatalf("blank query not dropped: %q", q)
		}
	}
}

func TestGenerate_TemperatureIncreasesWithVariationIndex(t *testing.T) {
	m := &scriptedModel{}
	if _, err := newTestGenerator(m).Generate(context.Background(), testRequest(3)); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := map[string]float32{"keywords": 0.7, "v1": 0.7, "v2": 0.8, "v3": 0.9}
	for k, w := range want {
		if got := m.temps[k]; got != w {
			t.Errorf("%s temperature=%v, want %v", k, got, w)
		}
	}
}

func TestGenerate_OneTransportFailureFailsWholeBatch(t *testing.T) {
	m := &scriptedModel{failVariation: 2}
	got, err := newTestGenerator(m).Generate(context.Background(), testRequest(3))
	if got != nil {
		t.Fatalf("expected no variations, got %d", len(got))
	}
	if !errors.Is(err, apperrors.ErrGenerationFailed) {
		t.Fatalf("err=%v, want GenerationFailed", err)
	}
	if !strings.Contains(err.Error(), "upstream 503") {
		t.Fatalf("cause not retained: %v", err)
	}
}

func TestGenerate_MalformedVariationFailsWithCause(t *testing.T) {
	m := &scriptedModel{malformedVariation: 3}
	_, err := newTestGenerator(m).Generate(context.Background(), testRequest(3))
	if !errors.Is(err, apperrors.ErrGenerationFailed) {
		t.Fatalf("err=%v, want GenerationFailed", err)
	}
	if !errors.Is(err, apperrors.ErrMalformedOutput) {
		t.Fatalf("err=%v, want MalformedGenerationOutput as cause", err)
	}
	if got := apperrors.AsAppError(err); got.Code != apperrors.CodeGenerationFailed {
		t.Fatalf("outermost code=%s", got.Code)
	}
}

func TestGenerate_KeywordFailures(t *testing.T) {
	cases := map[string]*scriptedModel{
		"transport":  {keywordErr: errors.New("timeout")},
		"malformed":  {keywordRaw: "keywords: fitness, hydration"},
		"empty":      {keywordRaw: "[]"},
		"non-string": {keywordRaw: `[1, 2, 3]`},
	}
	for name, m := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := newTestGenerator(m).Generate(context.Background(), testRequest(2))
			if !errors.Is(err, apperrors.ErrGenerationFailed) {
				t.Fatalf("err=%v, want GenerationFailed", err)
			}
		})
	}
}

func TestGenerate_SingleVariationHasNoVariationInstruction(t *testing.T) {
	m := &scriptedModel{}
	got, err := newTestGenerator(m).Generate(context.Background(), testRequest(1))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(got) != 1 || m.temps["v1"] != 0.7 {
		t.Fatalf("len=%d temp=%v", len(got), m.temps["v1"])
	}
}

func TestGenerate_InvalidRequest(t *testing.T) {
	m := &scriptedModel{}
	g := newTestGenerator(m)

	_, err := g.Generate(context.Background(), entity.ScriptRequest{Description: "x"})
	if !errors.Is(err, apperrors.ErrInvalidParam) {
		t.Fatalf("err=%v, want InvalidParam", err)
	}
	_, err = g.Generate(context.Background(), testRequest(6))
	if !errors.Is(err, apperrors.ErrInvalidParam) {
		t.Fatalf("err=%v, want InvalidParam for too many variations", err)
	}
	if m.calls.Load() != 0 {
		t.Fatalf("model should not be called for invalid requests")
	}
}

func TestParseKeywords_AcceptsWrappedObject(t *testing.T) {
	got, err := parseKeywords(`{"keywords": ["a", " b ", ""]}`)
	if err != nil {
		t.Fatalf("parseKeywords: %v", err)
	}
	if strings.Join(got, ",") != "a,b" {
		t.Fatalf("got %q", got)
	}
}

func TestParseSections_RejectsStructuralProblems(t *testing.T) {
	cases := map[string]string{
		"no sections":       `{"voiceover_sections": []}`,
		"decreasing scenes": `{"voiceover_sections":[{"voiceover":"a","scenes":[{"scene_number":2,"search_queries":["x"]},{"scene_number":1,"search_queries":["y"]}]}]}`,
		"no queries":        `{"voiceover_sections":[{"voiceover":"a","scenes":[{"scene_number":1,"search_queries":[]}]}]}`,
		"wrong type":        `{"voiceover_sections":"nope"}`,
		"starts at 3":       `{"voiceover_sections":[{"voiceover":"a","scenes":[{"scene_number":3,"search_queries":["x"]},{"scene_number":7,"search_queries":["y"]}]}]}`,
	}
	for name, raw := range cases {
		if _, err := parseSections(raw); !errors.Is(err, apperrors.ErrMalformedOutput) {
			t.Errorf("%s: err=%v, want MalformedGenerationOutput", name, err)
		}
	}
}
