package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"course_studio_backend/internal/util"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisUsageStore(t *testing.T, window *time.Duration) (*RedisUsageStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisUsageStore(rdb, func() time.Duration { return *window }), mr
}

func TestRedisUsageStoreWindow(t *testing.T) {
	window := time.Minute
	store, mr := newRedisUsageStore(t, &window)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Record(ctx, "ip:1.2.3.4", "generate-lesson", 700, now.Add(-90*time.Second)))
	require.NoError(t, store.Record(ctx, "ip:1.2.3.4", "generate-lesson", 300, now.Add(-5*time.Second)))

	b := NewTokenBudget(store, BudgetSettings{Budget: 1000, Window: time.Minute, CharsPerToken: 4})
	_, err := b.Check(ctx, "ip:1.2.3.4", "generate-lesson", strings.Repeat("z", 2800))
	assert.NoError(t, err)

	_, err = b.Check(ctx, "ip:1.2.3.4", "generate-lesson", strings.Repeat("z", 2804))
	assert.ErrorIs(t, err, util.ErrRateLimited)

	// 窗口外的记录在读取时被清理
	members, err := mr.ZMembers(usageKey("ip:1.2.3.4"))
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.True(t, strings.HasPrefix(members[0], "300:"))

	// 调用方之间互不影响
	used, err := store.SumSince(ctx, "ip:5.6.7.8", now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Zero(t, used)
}

func TestRedisUsageStoreBoundary(t *testing.T) {
	window := time.Minute
	store, mr := newRedisUsageStore(t, &window)
	ctx := context.Background()
	since := time.UnixMilli(1760000000000)

	require.NoError(t, store.Record(ctx, "u1", "generate-quiz", 100, since.Add(-time.Millisecond)))
	require.NoError(t, store.Record(ctx, "u1", "generate-quiz", 400, since))
	require.NoError(t, store.Record(ctx, "u1", "generate-quiz", 50, since.Add(time.Millisecond)))

	// 恰好落在窗口起点的记录仍然计入
	used, err := store.SumSince(ctx, "u1", since)
	require.NoError(t, err)
	assert.Equal(t, 450, used)

	members, err := mr.ZMembers(usageKey("u1"))
	require.NoError(t, err)
	assert.Len(t, members, 2)

	// 无法解析的成员被跳过
	_, err = mr.ZAdd(usageKey("u1"), float64(since.UnixMilli()), "garbage")
	require.NoError(t, err)
	used, err = store.SumSince(ctx, "u1", since)
	require.NoError(t, err)
	assert.Equal(t, 450, used)
}

func TestRedisUsageStoreExpiry(t *testing.T) {
	window := 2 * time.Minute
	store, mr := newRedisUsageStore(t, &window)
	ctx := context.Background()
	key := usageKey("u1")

	require.NoError(t, store.Record(ctx, "u1", "generate-lesson", 10, time.Now()))
	assert.Equal(t, 3*time.Minute, mr.TTL(key))

	// 窗口热更新后按新值续期
	window = 5 * time.Minute
	require.NoError(t, store.Record(ctx, "u1", "generate-lesson", 10, time.Now()))
	assert.Equal(t, 6*time.Minute, mr.TTL(key))

	mr.FastForward(6*time.Minute + time.Second)
	assert.False(t, mr.Exists(key))

	used, err := store.SumSince(ctx, "u1", time.Now().Add(-window))
	require.NoError(t, err)
	assert.Zero(t, used)
}

func TestRedisUsageStoreErrors(t *testing.T) {
	window := time.Minute
	store, mr := newRedisUsageStore(t, &window)
	ctx := context.Background()

	mr.SetError("ERR usage store unavailable")
	assert.Error(t, store.Record(ctx, "u1", "generate-lesson", 10, time.Now()))

	_, err := store.SumSince(ctx, "u1", time.Now().Add(-time.Minute))
	assert.Error(t, err)

	mr.SetError("")
	require.NoError(t, store.Record(ctx, "u1", "generate-lesson", 10, time.Now()))
	assert.False(t, mr.Exists(usageKey("u2")))
}
