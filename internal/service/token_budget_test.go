package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"course_studio_backend/internal/repository"
	"course_studio_backend/internal/testutil"
	"course_studio_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimate(t *testing.T) {
	b := NewTokenBudget(&stubStore{}, defaultSettings())

	assert.Equal(t, 1000, b.Estimate(strings.Repeat("a", 4000)))
	assert.Equal(t, 1, b.Estimate("abc"))
	assert.Equal(t, 2, b.Estimate("abcde"))
	assert.Equal(t, 0, b.Estimate(""))
	// 按字符而不是字节计数
	assert.Equal(t, 1, b.Estimate("机器学习"))
}

func TestCheckBudgetDecision(t *testing.T) {
	prompt := strings.Repeat("x", 4000)

	t.Run("over budget is rejected", func(t *testing.T) {
		b := NewTokenBudget(&stubStore{used: 9500}, defaultSettings())
		est, err := b.Check(context.Background(), "u1", "generate-lesson", prompt)
		assert.ErrorIs(t, err, util.ErrRateLimited)
		assert.Equal(t, 1000, est)
	})

	t.Run("within budget proceeds", func(t *testing.T) {
		b := NewTokenBudget(&stubStore{used: 8000}, defaultSettings())
		_, err := b.Check(context.Background(), "u1", "generate-lesson", prompt)
		assert.NoError(t, err)
	})

	t.Run("exactly at budget proceeds", func(t *testing.T) {
		b := NewTokenBudget(&stubStore{used: 9000}, defaultSettings())
		_, err := b.Check(context.Background(), "u1", "generate-lesson", prompt)
		assert.NoError(t, err)
	})

	t.Run("lookup failure counts as zero usage", func(t *testing.T) {
		b := NewTokenBudget(&stubStore{used: 99999, sumErr: errors.New("db down")}, defaultSettings())
		_, err := b.Check(context.Background(), "u1", "generate-lesson", prompt)
		assert.NoError(t, err)
	})
}

func TestUpdateSettings(t *testing.T) {
	b := NewTokenBudget(&stubStore{used: 500}, defaultSettings())
	prompt := strings.Repeat("x", 400)

	_, err := b.Check(context.Background(), "u1", "generate-quiz", prompt)
	require.NoError(t, err)

	b.Update(BudgetSettings{Budget: 550, Window: 30 * time.Second, CharsPerToken: 4})
	_, err = b.Check(context.Background(), "u1", "generate-quiz", prompt)
	assert.ErrorIs(t, err, util.ErrRateLimited)
	assert.Equal(t, 30*time.Second, b.Settings().Window)
}

func TestCompleteWithinBudgetRejectsWithoutCallingLLM(t *testing.T) {
	llm := newFakeLLM(t, "hello", 42)
	ai := NewAIService(aiConfig(llm.srv.URL, "test-key"))
	store := &stubStore{used: 9999}
	b := NewTokenBudget(store, defaultSettings())

	_, err := completeWithinBudget(context.Background(), ai, b, "u1", Completion{
		Endpoint: "generate-lesson",
		System:   "sys",
		User:     strings.Repeat("y", 400),
	})

	assert.ErrorIs(t, err, util.ErrRateLimited)
	assert.Equal(t, 0, llm.Hits())
	assert.Empty(t, store.recorded)
}

func TestCompleteWithinBudgetRecordsActualUsage(t *testing.T) {
	llm := newFakeLLM(t, "hello", 321)
	ai := NewAIService(aiConfig(llm.srv.URL, "test-key"))
	store := &stubStore{used: 100}
	b := NewTokenBudget(store, defaultSettings())

	res, err := completeWithinBudget(context.Background(), ai, b, "u1", Completion{
		Endpoint: "generate-quiz",
		System:   "sys",
		User:     "user prompt",
	})

	require.NoError(t, err)
	assert.Equal(t, "hello", res.Content)
	assert.Equal(t, []int{321}, store.recorded)
	assert.Equal(t, []string{"generate-quiz"}, store.endpoints)
	assert.Equal(t, 421, store.used)
	assert.Equal(t, 1, llm.Hits())
}

func TestCompleteWithinBudgetFallsBackToEstimate(t *testing.T) {
	llm := newFakeLLM(t, "hello", 0)
	ai := NewAIService(aiConfig(llm.srv.URL, "test-key"))
	store := &stubStore{}
	b := NewTokenBudget(store, defaultSettings())

	req := Completion{Endpoint: "generate-lesson", System: strings.Repeat("s", 40), User: strings.Repeat("u", 60)}
	_, err := completeWithinBudget(context.Background(), ai, b, "u1", req)

	require.NoError(t, err)
	assert.Equal(t, []int{25}, store.recorded)
}

func TestCompleteWithinBudgetIgnoresRecordFailure(t *testing.T) {
	llm := newFakeLLM(t, "hello", 10)
	ai := NewAIService(aiConfig(llm.srv.URL, "test-key"))
	b := NewTokenBudget(&stubStore{recordErr: errors.New("insert failed")}, defaultSettings())

	res, err := completeWithinBudget(context.Background(), ai, b, "u1", Completion{Endpoint: "x", User: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Content)
}

func TestGormUsageStoreWindow(t *testing.T) {
	db := testutil.NewDB(t)
	store := NewGormUsageStore(repository.NewUsageRepository(db))
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Record(ctx, "ip:1.2.3.4", "generate-lesson", 700, now.Add(-90*time.Second)))
	require.NoError(t, store.Record(ctx, "ip:1.2.3.4", "generate-lesson", 300, now.Add(-5*time.Second)))

	b := NewTokenBudget(store, BudgetSettings{Budget: 1000, Window: time.Minute, CharsPerToken: 4})
	_, err := b.Check(ctx, "ip:1.2.3.4", "generate-lesson", strings.Repeat("z", 2800))
	assert.NoError(t, err)

	_, err = b.Check(ctx, "ip:1.2.3.4", "generate-lesson", strings.Repeat("z", 2804))
	assert.ErrorIs(t, err, util.ErrRateLimited)
}

func TestParseUsageMember(t *testing.T) {
	n, err := parseUsageMember(usageMember(1234))
	require.NoError(t, err)
	assert.Equal(t, 1234, n)

	_, err = parseUsageMember("garbage")
	assert.Error(t, err)
	assert.Equal(t, "llm_usage:u1", usageKey("u1"))
}
