package service

import (
	"context"
	"course_studio_backend/internal/model"
	"course_studio_backend/internal/repository"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// GormUsageStore 基于 openai_usage 表
type GormUsageStore struct {
	repo *repository.UsageRepository
}

func NewGormUsageStore(repo *repository.UsageRepository) *GormUsageStore {
	return &GormUsageStore{repo: repo}
}

func (s *GormUsageStore) SumSince(ctx context.Context, caller string, since time.Time) (int, error) {
	return s.repo.SumSince(ctx, caller, since)
}

func (s *GormUsageStore) Record(ctx context.Context, caller, endpoint string, tokens int, at time.Time) error {
	return s.repo.Record(ctx, &model.OpenAIUsage{
		UserID:    caller,
		Endpoint:  endpoint,
		Tokens:    tokens,
		CreatedAt: at,
	})
}

const usageKeyPrefix = "llm_usage:"

// RedisUsageStore 每个调用方一个有序集合，score 为毫秒时间戳，成员为 "tokens:uuid"
type RedisUsageStore struct {
	rdb    *redis.Client
	window func() time.Duration
}

// NewRedisUsageStore window 用于设置 key 过期时间，随预算配置热更新
func NewRedisUsageStore(rdb *redis.Client, window func() time.Duration) *RedisUsageStore {
	return &RedisUsageStore{rdb: rdb, window: window}
}

func usageKey(caller string) string {
	return usageKeyPrefix + caller
}

func usageMember(tokens int) string {
	return fmt.Sprintf("%d:%s", tokens, uuid.New().String())
}

func parseUsageMember(member string) (int, error) {
	head, _, ok := strings.Cut(member, ":")
	if !ok {
		return 0, fmt.Errorf("malformed usage member %q", member)
	}
	return strconv.Atoi(head)
}

func (s *RedisUsageStore) SumSince(ctx context.Context, caller string, since time.Time) (int, error) {
	key := usageKey(caller)
	sinceMs := strconv.FormatInt(since.UnixMilli(), 10)

	// 顺带清理窗口外的成员
	if err := s.rdb.ZRemRangeByScore(ctx, key, "-inf", "("+sinceMs).Err(); err != nil {
		return 0, err
	}

	members, err := s.rdb.ZRangeByScore(ctx, key, &redis.ZRangeBy{Min: sinceMs, Max: "+inf"}).Result()
	if err != nil {
		return 0, err
	}

	total := 0
	for _, m := range members {
		tokens, err := parseUsageMember(m)
		if err != nil {
			continue
		}
		total += tokens
	}
	return total, nil
}

func (s *RedisUsageStore) Record(ctx context.Context, caller, endpoint string, tokens int, at time.Time) error {
	key := usageKey(caller)

	pipe := s.rdb.TxPipeline()
	pipe.ZAdd(ctx, key, &redis.Z{Score: float64(at.UnixMilli()), Member: usageMember(tokens)})
	pipe.Expire(ctx, key, s.window()+time.Minute)
	_, err := pipe.Exec(ctx)
	return err
}
