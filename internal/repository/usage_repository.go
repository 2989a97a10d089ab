package repository

import (
	"context"
	"course_studio_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

// UsageRepository openai_usage 表的读写
type UsageRepository struct {
	DB *gorm.DB
}

func NewUsageRepository(db *gorm.DB) *UsageRepository {
	return &UsageRepository{DB: db}
}

// SumSince 统计调用方自 since 起累计的令牌数
func (r *UsageRepository) SumSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var total int64
	err := r.DB.WithContext(ctx).
		Model(&model.OpenAIUsage{}).
		Select("COALESCE(SUM(tokens), 0)").
		Where("user_id = ? AND created_at >= ?", userID, since).
		Scan(&total).Error
	return int(total), err
}

func (r *UsageRepository) Record(ctx context.Context, usage *model.OpenAIUsage) error {
	if usage.CreatedAt.IsZero() {
		usage.CreatedAt = time.Now()
	}
	return r.DB.WithContext(ctx).Create(usage).Error
}
