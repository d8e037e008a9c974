package enrichment

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"sync"
	"time"

	"promo-script-ai-api/internal/domain/entity"
)

type fakeSearch struct {
	mu       sync.Mutex
	results  map[string][]entity.FootageAsset
	errs     map[string]error
	calls    []string
	maxDelay time.Duration
}

func (f *fakeSearch) Search(ctx context.Context, query string) ([]entity.FootageAsset, error) {
	f.mu.Lock()
	f.calls = append(f.calls, query)
	f.mu.Unlock()

	if f.maxDelay > 0 {
		select {
		case <-time.After(time.Duration(rand.Int64N(int64(f.maxDelay)))):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.errs[query]; err != nil {
		return nil, err
	}
	return f.results[query], nil
}

func (f *fakeSearch) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeSynth struct {
	mu       sync.Mutex
	err      error
	calls    int
	voices   []string
	maxDelay time.Duration
}

func (f *fakeSynth) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.voices = append(f.voices, voice)
	f.mu.Unlock()

	if f.maxDelay > 0 {
		select {
		case <-time.After(time.Duration(rand.Int64N(int64(f.maxDelay)))):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return []byte("ID3" + text), nil
}

func (f *fakeSynth) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// memCache 进程内 AssetCache，行为与 Redis 实现一致：命中返回 JSON，loader 错误原样返回
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	keys []string
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) GetOrLoad(ctx context.Context, key string, _ time.Duration, loader func(ctx context.Context) (any, error)) ([]byte, error) {
	c.mu.Lock()
	if b, ok := c.data[key]; ok {
		c.mu.Unlock()
		return b, nil
	}
	c.mu.Unlock()

	v, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.data[key] = b
	c.keys = append(c.keys, key)
	c.mu.Unlock()
	return b, nil
}
