package controller

import (
	"context"
	"course_studio_backend/internal/board"
	"course_studio_backend/internal/service"
	"course_studio_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService *service.CourseService
	LessonService *service.LessonService
}

func NewCourseController(courseService *service.CourseService, lessonService *service.LessonService) *CourseController {
	return &CourseController{CourseService: courseService, LessonService: lessonService}
}

// CreateCourse godoc
// @Summary 创建课程
// @Description 课程向导第一步，标题必填，描述为空时存 NULL
// @Tags 课程
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.CourseInput true "课程信息"
// @Success 201 {object} util.Response{data=model.Course}
// @Failure 400 {object} util.Response "标题为空"
// @Router /api/courses [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	var req service.CourseInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.CourseService.Create(ctx.Request.Context(), util.GetUserFromContext(ctx), &req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, course)
}

// ListCourses godoc
// @Summary 课程列表
// @Tags 课程
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Course}
// @Router /api/courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	courses, err := c.CourseService.List(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// ListMyCourses godoc
// @Summary 我讲授的课程
// @Tags 课程
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Course}
// @Router /api/courses/mine [get]
func (c *CourseController) ListMyCourses(ctx *gin.Context) {
	courses, err := c.CourseService.ListMine(ctx.Request.Context(), util.GetUserFromContext(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// GetCourse godoc
// @Summary 课程详情
// @Description 包含按顺序排列的 CLO
// @Tags 课程
// @Produce json
// @Security BearerAuth
// @Param id path string true "课程ID"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 400 {object} util.Response "Invalid course ID format"
// @Failure 404 {object} util.Response
// @Router /api/courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	course, err := c.CourseService.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// UpdateCourse godoc
// @Summary 更新课程
// @Tags 课程
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "课程ID"
// @Param body body service.CourseInput true "课程信息"
// @Success 200 {object} util.Response{data=model.Course}
// @Router /api/courses/{id} [put]
func (c *CourseController) UpdateCourse(ctx *gin.Context) {
	var req service.CourseInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.CourseService.Update(ctx.Request.Context(), util.GetUserFromContext(ctx), ctx.Param("id"), &req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// DeleteCourse godoc
// @Summary 删除课程
// @Description 同时删除课程下的课时和 CLO
// @Tags 课程
// @Produce json
// @Security BearerAuth
// @Param id path string true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/courses/{id} [delete]
func (c *CourseController) DeleteCourse(ctx *gin.Context) {
	if err := c.CourseService.Delete(ctx.Request.Context(), util.GetUserFromContext(ctx), ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// CreateCLO godoc
// @Summary 添加课程学习目标
// @Tags 课程
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "课程ID"
// @Param body body service.CLOInput true "CLO"
// @Success 201 {object} util.Response{data=model.CLO}
// @Router /api/courses/{id}/clos [post]
func (c *CourseController) CreateCLO(ctx *gin.Context) {
	var req service.CLOInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	clo, err := c.CourseService.CreateCLO(ctx.Request.Context(), util.GetUserFromContext(ctx), ctx.Param("id"), &req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, clo)
}

// ListCLOs godoc
// @Summary 课程学习目标列表
// @Tags 课程
// @Produce json
// @Security BearerAuth
// @Param id path string true "课程ID"
// @Success 200 {object} util.Response{data=[]model.CLO}
// @Router /api/courses/{id}/clos [get]
func (c *CourseController) ListCLOs(ctx *gin.Context) {
	clos, err := c.CourseService.ListCLOs(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, clos)
}

// BoardMoveRequest 看板拖拽
type BoardMoveRequest struct {
	LessonID  string `json:"lesson_id" binding:"required"`
	SessionNo int    `json:"session_no" binding:"required"`
}

// lessonMover 以当前用户身份持久化看板移动
type lessonMover struct {
	lessons *service.LessonService
	claims  *util.Claims
}

func (m lessonMover) UpdateSessionNo(ctx context.Context, lessonID string, sessionNo int) error {
	_, err := m.lessons.MoveSession(ctx, m.claims, lessonID, sessionNo)
	return err
}

// GetBoard godoc
// @Summary 课程看板
// @Description 按 session 分列的课时卡片，至少 12 列
// @Tags 课程
// @Produce json
// @Security BearerAuth
// @Param id path string true "课程ID"
// @Success 200 {object} util.Response{data=[]board.Column}
// @Router /api/courses/{id}/board [get]
func (c *CourseController) GetBoard(ctx *gin.Context) {
	lessons, err := c.LessonService.ListByCourse(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, board.New(board.FromLessons(lessons), nil).View())
}

// MoveOnBoard godoc
// @Summary 看板拖拽移动课时
// @Description 移动成功返回新的看板；同列移动或未知课时不做任何修改
// @Tags 课程
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "课程ID"
// @Param body body BoardMoveRequest true "移动"
// @Success 200 {object} util.Response{data=[]board.Column}
// @Router /api/courses/{id}/board/move [post]
func (c *CourseController) MoveOnBoard(ctx *gin.Context) {
	var req BoardMoveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	lessons, err := c.LessonService.ListByCourse(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	b := board.New(board.FromLessons(lessons), lessonMover{lessons: c.LessonService, claims: util.GetUserFromContext(ctx)})
	if err := b.Move(ctx.Request.Context(), req.LessonID, req.SessionNo); err != nil {
		if errors.Is(err, board.ErrInvalidSession) {
			util.BadRequest(ctx, err.Error())
			return
		}
		respondError(ctx, err)
		return
	}
	util.Success(ctx, b.View())
}
