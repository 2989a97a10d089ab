package controller

import (
	"course_studio_backend/internal/service"
	"course_studio_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type VoiceController struct {
	Voice *service.VoiceService
}

func NewVoiceController(voice *service.VoiceService) *VoiceController {
	return &VoiceController{Voice: voice}
}

// Settings godoc
// @Summary 语音参数
// @Description 浏览器语音识别与合成使用的参数
// @Tags 语音
// @Produce json
// @Success 200 {object} util.Response{data=service.VoiceSettings}
// @Router /api/voice/settings [get]
func (c *VoiceController) Settings(ctx *gin.Context) {
	util.Success(ctx, c.Voice.Settings())
}

// HandleWS godoc
// @Summary 语音助教 WebSocket
// @Description 每个文本帧是一次语音助教请求，回复帧与 HTTP 接口的响应体一致；可通过 ?token= 传 JWT
// @Tags 语音
// @Router /api/voice/ws [get]
func (c *VoiceController) HandleWS(ctx *gin.Context) {
	service.ServeVoiceWs(ctx.Request.Context(), c.Voice, ctx.Writer, ctx.Request, util.CallerIdentity(ctx))
}
