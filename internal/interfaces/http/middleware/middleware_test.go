package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (f *fakeLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (bool, int, time.Duration, error) {
	f.keys = append(f.keys, key)
	if f.allow {
		return true, limit - len(f.keys), 0, f.err
	}
	return false, 0, 1500 * time.Millisecond, f.err
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/v1/items/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func do(r *gin.Engine, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func testKey(client, endpoint string) string { return client + "|" + endpoint }

func TestRateLimit(t *testing.T) {
	limiter := &fakeLimiter{allow: false}
	r := newEngine(RateLimit(RateLimitConfig{Enabled: true, RequestsPerMinute: 10}, limiter, testKey))

	w := do(r, http.MethodGet, "/v1/items/42", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "2" {
		t.Fatalf("Retry-After=%q", got)
	}
	if len(limiter.keys) != 1 || limiter.keys[0] != "192.0.2.1|/v1/items/:id" {
		t.Fatalf("keys=%v", limiter.keys)
	}

	limiter.allow = true
	w = do(r, http.MethodGet, "/v1/items/42", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if w.Header().Get("X-RateLimit-Limit") != "10" || w.Header().Get("X-RateLimit-Remaining") != "8" {
		t.Fatalf("headers=%v", w.Header())
	}

	// 限流器故障时放行
	limiter.allow, limiter.err = false, errors.New("redis down")
	if w := do(r, http.MethodGet, "/v1/items/42", nil); w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	limiter := &fakeLimiter{}
	r := newEngine(RateLimit(RateLimitConfig{Enabled: false}, limiter, testKey))
	if w := do(r, http.MethodGet, "/v1/items/1", nil); w.Code != http.StatusOK || len(limiter.keys) != 0 {
		t.Fatalf("status=%d keys=%v", w.Code, limiter.keys)
	}
}

func TestRequestID(t *testing.T) {
	r := newEngine(RequestID())

	w := do(r, http.MethodGet, "/v1/items/1", map[string]string{RequestIDHeader: "abc"})
	if got := w.Header().Get(RequestIDHeader); got != "abc" {
		t.Fatalf("request id=%q", got)
	}
	w = do(r, http.MethodGet, "/v1/items/1", nil)
	if got := w.Header().Get(RequestIDHeader); len(got) != 36 {
		t.Fatalf("generated request id=%q", got)
	}
	w = do(r, http.MethodGet, "/v1/items/1", map[string]string{RequestIDHeader: "bad id\twith spaces"})
	if got := w.Header().Get(RequestIDHeader); len(got) != 36 {
		t.Fatalf("unsafe request id must be replaced, got %q", got)
	}
}

func TestValidRequestID(t *testing.T) {
	long := make([]byte, maxRequestIDLen+1)
	for i := range long {
		long[i] = 'a'
	}
	cases := map[string]bool{
		"abc-123_XYZ":    true,
		"":               false,
		"has space":      false,
		"tab\there":      false,
		"ünicode":        false,
		string(long):     false,
		string(long[1:]): true,
	}
	for in, want := range cases {
		if got := validRequestID(in); got != want {
			t.Errorf("validRequestID(%q)=%v, want %v", in, got, want)
		}
	}
}

func TestRecovery(t *testing.T) {
	r := newEngine(Recovery())
	w := do(r, http.MethodGet, "/panic", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"error_code":"1007"`) {
		t.Fatalf("body=%s", w.Body.String())
	}
}

func TestCORS(t *testing.T) {
	r := newEngine(CORS(CORSConfig{AllowedOrigins: []string{"*"}}))
	w := do(r, http.MethodGet, "/v1/items/1", map[string]string{"Origin": "https://app.example.com"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow origin=%q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Fatalf("credentials must not be allowed with wildcard origin, got %q", got)
	}

	r = newEngine(CORS(CORSConfig{AllowedOrigins: []string{"https://app.example.com"}}))
	w = do(r, http.MethodGet, "/v1/items/1", map[string]string{"Origin": "https://app.example.com"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("allow origin=%q", got)
	}
	w = do(r, http.MethodGet, "/v1/items/1", map[string]string{"Origin": "https://evil.example.com"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("disallowed origin status=%d", w.Code)
	}
}
