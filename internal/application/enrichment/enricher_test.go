package enrichment

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"promo-script-ai-api/internal/domain/entity"
	apperrors "promo-script-ai-api/pkg/errors"
)

const testMusicURL = "https://cdn.example.com/music.mp3"

func sampleVariation() entity.ScriptVariation {
	return entity.ScriptVariation{
		VoiceoverSections: []entity.VoiceoverSection{
			{
				Voiceover: "Meet AquaFlask.",
				Scenes: []entity.Scene{
					{SceneNumber: 1, Visual: "runner", SearchQueries: []string{"s1-a", "s1-b"}},
					{SceneNumber: 2, Visual: "bottle", SearchQueries: []string{"s2"}},
					{SceneNumber: 3, Visual: "ice", SearchQueries: []string{"s3"}},
				},
			},
			{
				Voiceover: "Cold for 24 hours.",
				Scenes: []entity.Scene{
					{SceneNumber: 4, Visual: "mountain", SearchQueries: []string{"s4"}},
					{SceneNumber: 5, Visual: "office", SearchQueries: []string{"s5"}},
					{SceneNumber: 6, Visual: "logo", SearchQueries: []string{"s6-a", "s6-b"}},
				},
			},
		},
		Keywords: []string{"fitness", "hydration", "outdoor", "travel"},
	}
}

func allHits() map[string][]entity.FootageAsset {
	hits := map[string][]entity.FootageAsset{}
	for _, q := range []string{"s1-b", "s2", "s3", "s4", "s5", "s6-a"} {
		hits[q] = []entity.FootageAsset{{ID: "id-" + q, Title: q}}
	}
	return hits
}

// newTestEnricher search/synth 为 nil 时对应组件走演示素材
func newTestEnricher(search *fakeSearch, synth *fakeSynth, limit int) *Enricher {
	footage := NewFootageResolver(nil, nil, FootageConfig{PlaceholderURL: testFootageURL})
	if search != nil {
		footage = NewFootageResolver(search, nil, FootageConfig{})
	}
	voice := NewVoiceoverSynthesizer(nil, nil, voiceCfg())
	if synth != nil {
		voice = NewVoiceoverSynthesizer(synth, nil, voiceCfg())
	}
	return NewEnricher(footage, voice, EnricherConfig{MaxConcurrency: limit, BackgroundMusicURL: testMusicURL})
}

func TestEnricher_PreservesOrderUnderRandomLatency(t *testing.T) {
	for _, limit := range []int{0, 1, 3} {
		t.Run(fmt.Sprintf("limit=%d", limit), func(t *testing.T) {
			search := &fakeSearch{results: allHits(), maxDelay: 5 * time.Millisecond}
			synth := &fakeSynth{maxDelay: 5 * time.Millisecond}
			e := newTestEnricher(search, synth, limit)

			in := sampleVariation()
			got, err := e.Enrich(context.Background(), in, EnrichOptions{Voice: "narrator"})
			if err != nil {
				t.Fatalf("Enrich: %v", err)
			}
			if len(got.VoiceoverSections) != 2 {
				t.Fatalf("sections=%d", len(got.VoiceoverSections))
			}
			wantFootage := []string{"id-s1-b", "id-s2", "id-s3", "id-s4", "id-s5", "id-s6-a"}
			k := 0
			for i, sec := range got.VoiceoverSections {
				if sec.Voiceover != in.VoiceoverSections[i].Voiceover {
					t.Fatalf("section %d voiceover=%q", i, sec.Voiceover)
				}
				if sec.VoiceoverAudio.URL != AudioRef("narrator", sec.Voiceover) {
					t.Fatalf("section %d audio=%+v", i, sec.VoiceoverAudio)
				}
				if sec.BackgroundMusic == nil || sec.BackgroundMusic.URL != testMusicURL || sec.BackgroundMusic.Text != "Background Music" {
					t.Fatalf("section %d music=%+v", i, sec.BackgroundMusic)
				}
				for j, sc := range sec.Scenes {
					if sc.SceneNumber != in.VoiceoverSections[i].Scenes[j].SceneNumber {
						t.Fatalf("scene order changed at %d/%d", i, j)
					}
					if sc.Footage == nil || sc.Footage.ID != wantFootage[k] {
						t.Fatalf("scene %d footage=%+v, want %s", sc.SceneNumber, sc.Footage, wantFootage[k])
					}
					k++
				}
			}
			if len(got.Keywords) != 4 || got.Keywords[0] != "fitness" {
				t.Fatalf("keywords=%v", got.Keywords)
			}
		})
	}
}

func TestEnricher_DoesNotMutateInput(t *testing.T) {
	e := newTestEnricher(&fakeSearch{results: allHits()}, &fakeSynth{}, 0)
	in := sampleVariation()
	got, err := e.Enrich(context.Background(), in, EnrichOptions{})
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	got.Keywords[0] = "changed"
	got.VoiceoverSections[0].Scenes[0].SearchQueries[0] = "changed"
	if in.Keywords[0] != "fitness" || in.VoiceoverSections[0].Scenes[0].SearchQueries[0] != "s1-a" {
		t.Fatal("enriched script must not alias the input")
	}
}

func TestEnricher_MissingFootageIsNil(t *testing.T) {
	hits := allHits()
	delete(hits, "s5")
	e := newTestEnricher(&fakeSearch{results: hits}, &fakeSynth{}, 0)

	got, err := e.Enrich(context.Background(), sampleVariation(), EnrichOptions{})
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if f := got.VoiceoverSections[1].Scenes[1].Footage; f != nil {
		t.Fatalf("scene 5 footage=%+v, want nil", f)
	}
}

func TestEnricher_SingleFailureFailsWhole(t *testing.T) {
	boom := errors.New("getty 503")
	search := &fakeSearch{results: allHits(), errs: map[string]error{"s4": boom}, maxDelay: 2 * time.Millisecond}
	e := newTestEnricher(search, &fakeSynth{}, 2)

	got, err := e.Enrich(context.Background(), sampleVariation(), EnrichOptions{})
	if got != nil {
		t.Fatalf("expected no partial result, got %+v", got)
	}
	if !errors.Is(err, apperrors.ErrEnrichmentFailed) {
		t.Fatalf("err=%v, want EnrichmentFailed", err)
	}
	if !errors.Is(err, apperrors.ErrAssetProvider) || !errors.Is(err, boom) {
		t.Fatalf("err=%v, cause must be retained", err)
	}
	if app := apperrors.AsAppError(err); app == nil || app.Code != apperrors.CodeEnrichmentFailed {
		t.Fatalf("outermost error=%v, want EnrichmentFailed", app)
	}
}

func TestEnricher_VoiceoverFailureFailsWhole(t *testing.T) {
	e := newTestEnricher(&fakeSearch{results: allHits()}, &fakeSynth{err: errors.New("401")}, 0)
	_, err := e.Enrich(context.Background(), sampleVariation(), EnrichOptions{})
	if !errors.Is(err, apperrors.ErrEnrichmentFailed) || !errors.Is(err, apperrors.ErrAssetProvider) {
		t.Fatalf("err=%v", err)
	}
}

func TestEnricher_PlaceholdersWithoutCredentials(t *testing.T) {
	e := newTestEnricher(nil, nil, 0)
	got, err := e.Enrich(context.Background(), sampleVariation(), EnrichOptions{})
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	for _, sec := range got.VoiceoverSections {
		if sec.VoiceoverAudio.URL != testVoiceURL || sec.VoiceoverAudio.Note == "" {
			t.Fatalf("audio=%+v", sec.VoiceoverAudio)
		}
		for _, sc := range sec.Scenes {
			if !sc.Footage.IsPlaceholder() || sc.Footage.ID != "demo" {
				t.Fatalf("footage=%+v", sc.Footage)
			}
		}
	}
}

func TestEnricher_InvalidInput(t *testing.T) {
	e := newTestEnricher(&fakeSearch{}, &fakeSynth{}, 0)
	v := sampleVariation()
	v.VoiceoverSections[0].Scenes = nil

	_, err := e.Enrich(context.Background(), v, EnrichOptions{})
	if !errors.Is(err, apperrors.ErrInvalidParam) {
		t.Fatalf("err=%v, want InvalidParam", err)
	}
	if errors.Is(err, apperrors.ErrEnrichmentFailed) {
		t.Fatal("invalid input must not be reported as EnrichmentFailed")
	}
}
