package model

import "time"

// OpenAIUsage 每次大模型调用消耗的令牌数
type OpenAIUsage struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string    `gorm:"size:64;not null;index:idx_usage_user_time,priority:1" json:"user_id"`
	Endpoint  string    `gorm:"size:64" json:"endpoint"`
	Tokens    int       `gorm:"not null" json:"tokens"`
	CreatedAt time.Time `gorm:"index:idx_usage_user_time,priority:2" json:"created_at"`
}

func (OpenAIUsage) TableName() string {
	return "openai_usage"
}
