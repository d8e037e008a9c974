package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"promo-script-ai-api/internal/config"
)

func testConfig(baseURL string) *config.ElevenLabsConfig {
	return &config.ElevenLabsConfig{
		APIKey:          "xi",
		BaseURL:         baseURL,
		ModelID:         "eleven_monolingual_v1",
		Stability:       0.5,
		SimilarityBoost: 0.75,
	}
}

func TestNewClient_NilWithoutKey(t *testing.T) {
	if c := NewClient(&config.ElevenLabsConfig{}); c != nil {
		t.Fatal("expected nil client without api key")
	}
}

func TestClient_Synthesize(t *testing.T) {
	audio := []byte("ID3\x04fake-mp3")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/text-to-speech/voice-1" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("xi-api-key") != "xi" {
			t.Errorf("xi-api-key=%q", r.Header.Get("xi-api-key"))
		}
		var body ttsRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Text != "Hello there" || body.ModelID != "eleven_monolingual_v1" {
			t.Errorf("body=%+v", body)
		}
		if body.VoiceSettings.Stability != 0.5 || body.VoiceSettings.SimilarityBoost != 0.75 {
			t.Errorf("voice_settings=%+v", body.VoiceSettings)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(audio)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL + "/v1/text-to-speech/"))
	got, err := c.Synthesize(context.Background(), "Hello there", "voice-1")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !bytes.Equal(got, audio) {
		t.Fatalf("audio=%q", got)
	}
}

func TestClient_SynthesizeStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"quota_exceeded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	_, err := c.Synthesize(context.Background(), "x", "v")
	if err == nil || !strings.Contains(err.Error(), "status 429") || !strings.Contains(err.Error(), "quota_exceeded") {
		t.Fatalf("err=%v", err)
	}
}
