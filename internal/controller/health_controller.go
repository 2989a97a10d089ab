package controller

import (
	"context"
	"course_studio_backend/internal/util"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type HealthController struct {
	DB    *gorm.DB
	Redis *redis.Client
	// AIConfigured 是否配置了大模型 key
	AIConfigured func() bool
}

func NewHealthController(db *gorm.DB, rdb *redis.Client, aiConfigured func() bool) *HealthController {
	return &HealthController{DB: db, Redis: rdb, AIConfigured: aiConfigured}
}

// @Summary 健康检查
// @Description 检查数据库、Redis、ffprobe 与大模型配置
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response "数据库不可用"
// @Router /api/health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	// 检查数据库连接
	sqlDB, err := c.DB.DB()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	if err := sqlDB.PingContext(pingCtx); err != nil {
		util.Error(ctx, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	redisStatus := "disabled"
	if c.Redis != nil {
		redisStatus = "up"
		if err := c.Redis.Ping(pingCtx).Err(); err != nil {
			redisStatus = "down"
		}
	}

	ffprobeStatus := "missing"
	if util.FFprobeAvailable() {
		ffprobeStatus = "available"
	}

	aiStatus := "unconfigured"
	if c.AIConfigured != nil && c.AIConfigured() {
		aiStatus = "configured"
	}

	util.Success(ctx, gin.H{
		"status": "ok",
		"components": gin.H{
			"database": "up",
			"redis":    redisStatus,
			"ffprobe":  ffprobeStatus,
			"ai":       aiStatus,
		},
	})
}
