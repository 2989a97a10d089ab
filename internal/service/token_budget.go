package service

import (
	"context"
	"course_studio_backend/internal/config"
	"course_studio_backend/internal/util"
	"course_studio_backend/pkg/logger"
	"course_studio_backend/pkg/monitoring"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// UsageStore 令牌用量存储
type UsageStore interface {
	// SumSince 返回调用方自 since 起已记录的令牌总数
	SumSince(ctx context.Context, caller string, since time.Time) (int, error)
	Record(ctx context.Context, caller, endpoint string, tokens int, at time.Time) error
}

// BudgetSettings 可热更新的预算参数
type BudgetSettings struct {
	Budget        int
	Window        time.Duration
	CharsPerToken int
}

func BudgetSettingsFromConfig(cfg config.AIConfig) BudgetSettings {
	return BudgetSettings{
		Budget:        cfg.TokenBudget,
		Window:        cfg.BudgetWindow(),
		CharsPerToken: cfg.CharsPerToken,
	}
}

// TokenBudget 按调用方在滑动窗口内限制大模型令牌消耗
type TokenBudget struct {
	mu       sync.RWMutex
	settings BudgetSettings
	store    UsageStore
	now      func() time.Time
}

func NewTokenBudget(store UsageStore, settings BudgetSettings) *TokenBudget {
	return &TokenBudget{
		settings: settings,
		store:    store,
		now:      time.Now,
	}
}

func (b *TokenBudget) Settings() BudgetSettings {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.settings
}

// Update 配置热更新
func (b *TokenBudget) Update(settings BudgetSettings) {
	b.mu.Lock()
	b.settings = settings
	b.mu.Unlock()

	logger.Log.Info("Token budget updated",
		zap.Int("budget", settings.Budget),
		zap.Duration("window", settings.Window),
		zap.Int("chars_per_token", settings.CharsPerToken),
	)
}

// Estimate 按字符数估算令牌，向上取整
func (b *TokenBudget) Estimate(prompt string) int {
	perToken := b.Settings().CharsPerToken
	if perToken <= 0 {
		perToken = 4
	}
	chars := utf8.RuneCountInString(prompt)
	return (chars + perToken - 1) / perToken
}

// Check 在调用大模型之前执行；超出预算返回 util.ErrRateLimited
func (b *TokenBudget) Check(ctx context.Context, caller, endpoint, prompt string) (int, error) {
	settings := b.Settings()
	estimate := b.Estimate(prompt)

	used, err := b.store.SumSince(ctx, caller, b.now().Add(-settings.Window))
	if err != nil {
		// 查询失败按 0 处理，不阻断请求
		logger.Log.Warn("Token usage lookup failed",
			zap.String("caller", caller),
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		used = 0
	}

	if used+estimate > settings.Budget {
		monitoring.LLMBudgetRejections.WithLabelValues(endpoint).Inc()
		logger.Log.Info("Token budget exceeded",
			zap.String("caller", caller),
			zap.String("endpoint", endpoint),
			zap.Int("used", used),
			zap.Int("estimate", estimate),
			zap.Int("budget", settings.Budget),
		)
		return estimate, util.ErrRateLimited
	}

	return estimate, nil
}

// Record 记录实际消耗；上游未返回 usage 时按估算值记账，写入失败只记日志
func (b *TokenBudget) Record(ctx context.Context, caller, endpoint string, actual, estimate int) {
	tokens := actual
	if tokens <= 0 {
		tokens = estimate
	}

	if err := b.store.Record(ctx, caller, endpoint, tokens, b.now()); err != nil {
		logger.Log.Error("Failed to record token usage",
			zap.String("caller", caller),
			zap.String("endpoint", endpoint),
			zap.Int("tokens", tokens),
			zap.Error(err),
		)
		return
	}
	monitoring.LLMTokens.WithLabelValues(endpoint).Add(float64(tokens))
}

// completeWithinBudget 预算检查、调用模型、记录用量
func completeWithinBudget(ctx context.Context, ai *AIService, budget *TokenBudget, caller string, req Completion) (*CompletionResult, error) {
	estimate, err := budget.Check(ctx, caller, req.Endpoint, req.Prompt())
	if err != nil {
		return nil, err
	}

	result, err := ai.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	// 请求被取消时仍要记账
	budget.Record(context.WithoutCancel(ctx), caller, req.Endpoint, result.TotalTokens, estimate)
	return result, nil
}
