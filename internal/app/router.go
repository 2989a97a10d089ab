package app

import (
	"course_studio_backend/docs"
	"course_studio_backend/internal/config"
	"course_studio_backend/internal/middleware"
	"course_studio_backend/internal/model"
	"course_studio_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c, cfg)

	// 2. 生成接口，允许匿名调用，按用户或 IP 计算令牌预算
	a.registerFunctionRoutes(router, c, cfg)

	// 3. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		a.registerReadRoutes(authGroup, c)
		a.registerStudentRoutes(authGroup, c)
		a.registerTeacherRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)

		public.GET("/voice/settings", c.voice.Settings)
		public.GET("/voice/ws", middleware.OptionalAuth(cfg.JWT.Secret), c.voice.HandleWS)
	}
}

func (a *App) registerFunctionRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	functions := router.Group("/functions/v1")
	functions.Use(middleware.OptionalAuth(cfg.JWT.Secret))
	{
		functions.POST("/generate-lesson", c.generation.GenerateLesson)
		functions.POST("/generate-quiz", c.generation.GenerateQuiz)
		functions.POST("/generate-session-plan", c.generation.GenerateSessionPlan)
		functions.POST("/generate-course-topics", c.generation.GenerateCourseTopics)
		functions.POST("/ai-voice-assistant", c.generation.VoiceAssistant)
	}
}

func (a *App) registerReadRoutes(group *gin.RouterGroup, c *controllers) {
	group.GET("/profile", c.auth.Me)

	group.GET("/courses", c.course.ListCourses)
	group.GET("/courses/:id", c.course.GetCourse)
	group.GET("/courses/:id/clos", c.course.ListCLOs)
	group.GET("/courses/:id/lessons", c.lesson.ListByCourse)
	group.GET("/courses/:id/board", c.course.GetBoard)

	group.GET("/lessons/:id", c.lesson.GetLesson)
	group.GET("/lessons/:id/resources", c.resource.ListResources)
	group.GET("/lessons/:id/assessments", c.assessment.ListByLesson)

	group.GET("/assessments/:id", c.assessment.GetAssessment)
}

func (a *App) registerStudentRoutes(group *gin.RouterGroup, c *controllers) {
	student := group.Group("/assessments")
	{
		student.POST("/:id/attempts", c.assessment.SubmitAttempt)
		student.GET("/:id/attempts", c.assessment.ListAttempts)
	}
}

func (a *App) registerTeacherRoutes(group *gin.RouterGroup, c *controllers) {
	teacher := group.Group("")
	teacher.Use(middleware.RoleMiddleware(model.Teacher))
	{
		teacher.GET("/courses/mine", c.course.ListMyCourses)
		teacher.POST("/courses", c.course.CreateCourse)
		teacher.PUT("/courses/:id", c.course.UpdateCourse)
		teacher.DELETE("/courses/:id", c.course.DeleteCourse)
		teacher.POST("/courses/:id/clos", c.course.CreateCLO)
		teacher.POST("/courses/:id/board/move", c.course.MoveOnBoard)

		teacher.POST("/lessons", c.lesson.CreateLesson)
		teacher.PUT("/lessons/:id", c.lesson.UpdateLesson)
		teacher.PATCH("/lessons/:id/session", c.lesson.MoveSession)
		teacher.DELETE("/lessons/:id", c.lesson.DeleteLesson)

		teacher.POST("/lessons/:id/resources", c.resource.CreateResource)
		teacher.POST("/lessons/:id/resources/upload", c.resource.UploadResource)
		teacher.POST("/lessons/:id/activities", c.resource.CreateActivity)
		teacher.DELETE("/resources/:id", c.resource.DeleteResource)
	}
}
