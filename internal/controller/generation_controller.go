package controller

import (
	"course_studio_backend/internal/service"
	"course_studio_backend/internal/util"
	"course_studio_backend/pkg/logger"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GenerationController /functions/v1 下的生成接口，成功时直接返回 JSON 对象，失败返回 {error}
type GenerationController struct {
	Generation *service.GenerationService
	Voice      *service.VoiceService
}

func NewGenerationController(generation *service.GenerationService, voice *service.VoiceService) *GenerationController {
	return &GenerationController{Generation: generation, Voice: voice}
}

var errInvalidBody = errors.New("Invalid request body")

func (c *GenerationController) fail(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, util.ErrInvalidRequest),
		errors.Is(err, util.ErrInvalidCourseID),
		errors.Is(err, util.ErrInvalidUUID):
		status = http.StatusBadRequest
	case errors.Is(err, util.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, util.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, util.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, util.ErrRateLimited):
		logger.Log.Info("Generation rejected by token budget", zap.String("path", ctx.FullPath()), zap.String("caller", util.CallerIdentity(ctx)))
	default:
		logger.Log.Error("Generation failed", zap.String("path", ctx.FullPath()), zap.Error(err))
	}
	util.FunctionError(ctx, status, err)
}

// GenerateLesson godoc
// @Summary AI 生成课时
// @Description 生成课时方案并写入课时、资源和活动；未配置 key 时匿名返回示例课时，否则需要课程的管理权限
// @Tags 生成
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.LessonRequest true "生成参数"
// @Success 200 {object} service.LessonPlan
// @Failure 400 {object} util.FunctionErrorBody
// @Failure 401 {object} util.FunctionErrorBody
// @Failure 403 {object} util.FunctionErrorBody
// @Failure 404 {object} util.FunctionErrorBody
// @Failure 429 {object} util.FunctionErrorBody "rate_limit"
// @Failure 500 {object} util.FunctionErrorBody
// @Router /functions/v1/generate-lesson [post]
func (c *GenerationController) GenerateLesson(ctx *gin.Context) {
	var req service.LessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.FunctionError(ctx, http.StatusBadRequest, errInvalidBody)
		return
	}

	plan, err := c.Generation.GenerateLesson(ctx.Request.Context(), util.GetUserFromContext(ctx), util.CallerIdentity(ctx), &req)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, plan)
}

// GenerateQuiz godoc
// @Summary AI 生成测验
// @Description 每题 5 分，写入测验和题目；需要课时所属课程的管理权限
// @Tags 生成
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.QuizRequest true "生成参数"
// @Success 200 {object} service.Quiz
// @Failure 401 {object} util.FunctionErrorBody
// @Failure 403 {object} util.FunctionErrorBody
// @Failure 429 {object} util.FunctionErrorBody "rate_limit"
// @Router /functions/v1/generate-quiz [post]
func (c *GenerationController) GenerateQuiz(ctx *gin.Context) {
	var req service.QuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.FunctionError(ctx, http.StatusBadRequest, errInvalidBody)
		return
	}

	quiz, err := c.Generation.GenerateQuiz(ctx.Request.Context(), util.GetUserFromContext(ctx), util.CallerIdentity(ctx), &req)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, quiz)
}

// GenerateSessionPlan godoc
// @Summary AI 生成 session 规划
// @Tags 生成
// @Accept json
// @Produce json
// @Param body body service.SessionPlanRequest true "生成参数"
// @Success 200 {object} service.SessionPlan
// @Failure 429 {object} util.FunctionErrorBody "rate_limit"
// @Router /functions/v1/generate-session-plan [post]
func (c *GenerationController) GenerateSessionPlan(ctx *gin.Context) {
	var req service.SessionPlanRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.FunctionError(ctx, http.StatusBadRequest, errInvalidBody)
		return
	}

	plan, err := c.Generation.GenerateSessionPlan(ctx.Request.Context(), util.CallerIdentity(ctx), &req)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, plan)
}

// GenerateCourseTopics godoc
// @Summary AI 生成课程主题大纲
// @Tags 生成
// @Accept json
// @Produce json
// @Param body body service.TopicsRequest true "生成参数"
// @Success 200 {object} service.TopicsResult
// @Failure 429 {object} util.FunctionErrorBody "rate_limit"
// @Router /functions/v1/generate-course-topics [post]
func (c *GenerationController) GenerateCourseTopics(ctx *gin.Context) {
	var req service.TopicsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.FunctionError(ctx, http.StatusBadRequest, errInvalidBody)
		return
	}

	topics, err := c.Generation.GenerateCourseTopics(ctx.Request.Context(), util.CallerIdentity(ctx), &req)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, topics)
}

// VoiceAssistant godoc
// @Summary AI 语音助教
// @Description 单轮问答；assessmentMode 为 true 时附带学习状态评估
// @Tags 生成
// @Accept json
// @Produce json
// @Param body body service.VoiceRequest true "学生发言"
// @Success 200 {object} service.VoiceResponse
// @Failure 400 {object} util.FunctionErrorBody "未配置 key"
// @Failure 500 {object} util.FunctionErrorBody
// @Router /functions/v1/ai-voice-assistant [post]
func (c *GenerationController) VoiceAssistant(ctx *gin.Context) {
	var req service.VoiceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.FunctionError(ctx, http.StatusBadRequest, errInvalidBody)
		return
	}

	resp, err := c.Voice.Respond(ctx.Request.Context(), util.CallerIdentity(ctx), &req)
	if err != nil && !errors.Is(err, util.ErrAIUnconfigured) && !errors.Is(err, util.ErrInvalidRequest) && !errors.Is(err, util.ErrRateLimited) {
		logger.Log.Error("Voice assistant error", zap.Error(err))
	}
	status, body := service.VoiceResult(resp, err)
	ctx.JSON(status, body)
}
