package util

import "errors"

var (
	ErrUserNotFound     = errors.New("用户不存在")
	ErrEmailRegistered  = errors.New("该邮箱已被注册")
	ErrInvalidPassword  = errors.New("invalid email or password")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("record not found")
	ErrInvalidCourseID  = errors.New("Invalid course ID format")
	ErrInvalidUUID      = errors.New("invalid id format")
	ErrTitleRequired    = errors.New("title is required")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrUnauthorized     = errors.New("authentication required")
)

// 大模型相关
var (
	// ErrRateLimited 令牌预算耗尽，消息文本即前端识别的错误码
	ErrRateLimited = errors.New("rate_limit")
	// ErrAIUnconfigured 未配置大模型 API Key
	ErrAIUnconfigured = errors.New("OpenAI API key not configured")

	ErrInvalidAIResponse  = errors.New("Invalid AI response format")
	ErrInvalidSessionPlan = errors.New("Invalid session plan format")
)
