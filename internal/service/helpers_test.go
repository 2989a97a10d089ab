package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"course_studio_backend/internal/config"
)

// fakeLLM 进程内的 chat/completions 假服务
type fakeLLM struct {
	mu          sync.Mutex
	srv         *httptest.Server
	hits        int
	content     string
	totalTokens int
	status      int
	requests    []ChatCompletionRequest
}

func newFakeLLM(t *testing.T, content string, totalTokens int) *fakeLLM {
	t.Helper()
	f := &fakeLLM{content: content, totalTokens: totalTokens, status: http.StatusOK}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.hits++

		var req ChatCompletionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.requests = append(f.requests, req)

		if f.status != http.StatusOK {
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream exploded"}}`))
			return
		}

		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": f.content}},
			},
		}
		if f.totalTokens > 0 {
			resp["usage"] = map[string]int{"total_tokens": f.totalTokens}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeLLM) Hits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits
}

func (f *fakeLLM) LastRequest() ChatCompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func aiConfig(baseURL, key string) config.AIConfig {
	return config.AIConfig{
		BaseURL:        baseURL,
		APIKey:         key,
		Model:          "gpt-4o",
		Temperature:    0.7,
		TimeoutSeconds: 5,
	}
}

// stubStore 可控的用量存储
type stubStore struct {
	mu        sync.Mutex
	used      int
	sumErr    error
	recordErr error
	recorded  []int
	endpoints []string
}

func (s *stubStore) SumSince(ctx context.Context, caller string, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.used, s.sumErr
}

func (s *stubStore) Record(ctx context.Context, caller, endpoint string, tokens int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordErr != nil {
		return s.recordErr
	}
	s.recorded = append(s.recorded, tokens)
	s.endpoints = append(s.endpoints, endpoint)
	s.used += tokens
	return nil
}

func defaultSettings() BudgetSettings {
	return BudgetSettings{Budget: 10000, Window: time.Minute, CharsPerToken: 4}
}
