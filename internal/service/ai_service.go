package service

import (
	"bytes"
	"context"
	"course_studio_backend/internal/config"
	"course_studio_backend/internal/util"
	"course_studio_backend/pkg/monitoring"
	"course_studio_backend/pkg/tracing"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// AIService OpenAI 兼容的 chat/completions 客户端
type AIService struct {
	mu     sync.RWMutex
	config config.AIConfig
	client *http.Client
}

func NewAIService(cfg config.AIConfig) *AIService {
	return &AIService{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout()},
	}
}

// UpdateConfig 配置热更新时替换 key、模型等参数
func (s *AIService) UpdateConfig(cfg config.AIConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
	s.client = &http.Client{Timeout: cfg.Timeout()}
}

func (s *AIService) currentConfig() config.AIConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Configured 是否配置了 API Key
func (s *AIService) Configured() bool {
	return strings.TrimSpace(s.currentConfig().APIKey) != ""
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model       string          `json:"model"`
	Messages    []AIChatMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Completion 一次单轮对话请求
type Completion struct {
	Endpoint    string
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Prompt 用于令牌估算的完整提示词
func (c Completion) Prompt() string {
	return c.System + c.User
}

type CompletionResult struct {
	Content string
	// TotalTokens 上游未返回 usage 时为 0
	TotalTokens int
}

func (s *AIService) Complete(ctx context.Context, req Completion) (*CompletionResult, error) {
	cfg := s.currentConfig()
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, util.ErrAIUnconfigured
	}

	ctx, span := tracing.Tracer.Start(ctx, "llm.chat_completion", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", cfg.Model),
		attribute.String("llm.endpoint", req.Endpoint),
	)

	start := time.Now()
	result, err := s.doComplete(ctx, cfg, req)

	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("llm.total_tokens", result.TotalTokens))
	}
	monitoring.LLMDuration.WithLabelValues(req.Endpoint, outcome).Observe(time.Since(start).Seconds())

	return result, err
}

func (s *AIService) doComplete(ctx context.Context, cfg config.AIConfig, req Completion) (*CompletionResult, error) {
	temperature := req.Temperature
	if temperature == 0 {
		temperature = cfg.Temperature
	}

	reqBody := ChatCompletionRequest{
		Model: cfg.Model,
		Messages: []AIChatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature: temperature,
		MaxTokens:   req.MaxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(cfg.BaseURL, "/")+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	s.mu.RLock()
	client := s.client
	s.mu.RUnlock()

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAI API error: %d %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var chatResp ChatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("decode chat completion: %w", err)
	}

	if chatResp.Error != nil {
		return nil, fmt.Errorf("OpenAI API error: %s", chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("no response from AI")
	}

	result := &CompletionResult{Content: chatResp.Choices[0].Message.Content}
	if chatResp.Usage != nil {
		result.TotalTokens = chatResp.Usage.TotalTokens
	}
	return result, nil
}

// ExtractJSON 解析模型返回的 JSON，兼容 ```json 代码块包裹
func ExtractJSON(text string, v interface{}) error {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimSuffix(strings.TrimSpace(strings.TrimPrefix(cleaned, "```")), "```")
		// 语言标记后须跟空白，单行的 ```json {...}``` 同样适用
		if i := strings.IndexAny(cleaned, " \t\r\n"); i > 0 && isFenceTag(cleaned[:i]) {
			cleaned = cleaned[i+1:]
		}
	}

	if err := json.Unmarshal([]byte(strings.TrimSpace(cleaned)), v); err != nil {
		return fmt.Errorf("%w: %v", util.ErrInvalidAIResponse, err)
	}
	return nil
}

func isFenceTag(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return s != ""
}
