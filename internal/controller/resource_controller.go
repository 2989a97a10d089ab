package controller

import (
	"course_studio_backend/internal/service"
	"course_studio_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

type ResourceController struct {
	ResourceService *service.ResourceService
}

func NewResourceController(resourceService *service.ResourceService) *ResourceController {
	return &ResourceController{ResourceService: resourceService}
}

// ListResources godoc
// @Summary 课时资源列表
// @Tags 资源
// @Produce json
// @Security BearerAuth
// @Param id path string true "课时ID"
// @Success 200 {object} util.Response{data=[]model.Resource}
// @Router /api/lessons/{id}/resources [get]
func (c *ResourceController) ListResources(ctx *gin.Context) {
	resources, err := c.ResourceService.ListByLesson(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, resources)
}

// CreateResource godoc
// @Summary 添加链接类资源
// @Tags 资源
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "课时ID"
// @Param body body service.ResourceInput true "资源"
// @Success 201 {object} util.Response{data=model.Resource}
// @Router /api/lessons/{id}/resources [post]
func (c *ResourceController) CreateResource(ctx *gin.Context) {
	var req service.ResourceInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	resource, err := c.ResourceService.Create(ctx.Request.Context(), util.GetUserFromContext(ctx), ctx.Param("id"), &req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, resource)
}

// UploadResource godoc
// @Summary 上传资源文件
// @Description 支持 pdf/视频/图片/文本，视频会用 ffprobe 读取时长
// @Tags 资源
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "课时ID"
// @Param file formData file true "文件"
// @Param title formData string false "标题，默认文件名"
// @Param description formData string false "描述"
// @Success 201 {object} util.Response{data=model.Resource}
// @Failure 400 {object} util.Response "文件类型不支持或过大"
// @Router /api/lessons/{id}/resources/upload [post]
func (c *ResourceController) UploadResource(ctx *gin.Context) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, util.MaxUploadSize+(1<<20))

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	var description *string
	if d, ok := ctx.GetPostForm("description"); ok {
		description = &d
	}

	resource, err := c.ResourceService.Upload(ctx.Request.Context(), util.GetUserFromContext(ctx), ctx.Param("id"), &service.UploadInput{
		Filename:    fileHeader.Filename,
		Title:       ctx.PostForm("title"),
		Description: description,
		Body:        file,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, resource)
}

// DeleteResource godoc
// @Summary 删除资源
// @Tags 资源
// @Produce json
// @Security BearerAuth
// @Param id path string true "资源ID"
// @Success 200 {object} util.Response
// @Router /api/resources/{id} [delete]
func (c *ResourceController) DeleteResource(ctx *gin.Context) {
	if err := c.ResourceService.Delete(ctx.Request.Context(), util.GetUserFromContext(ctx), ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// CreateActivity godoc
// @Summary 添加学习活动
// @Tags 资源
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "课时ID"
// @Param body body service.ActivityInput true "活动"
// @Success 201 {object} util.Response{data=model.Activity}
// @Router /api/lessons/{id}/activities [post]
func (c *ResourceController) CreateActivity(ctx *gin.Context) {
	var req service.ActivityInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	activity, err := c.ResourceService.CreateActivity(ctx.Request.Context(), util.GetUserFromContext(ctx), ctx.Param("id"), &req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, activity)
}
