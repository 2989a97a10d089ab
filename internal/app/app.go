package app

import (
	"context"
	"course_studio_backend/internal/config"
	"course_studio_backend/internal/controller"
	"course_studio_backend/internal/repository"
	"course_studio_backend/internal/seed"
	"course_studio_backend/internal/service"
	"course_studio_backend/internal/util"
	"course_studio_backend/pkg/configwatcher"
	"course_studio_backend/pkg/database"
	"course_studio_backend/pkg/logger"
	"course_studio_backend/pkg/monitoring"
	"course_studio_backend/pkg/security"
	"course_studio_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	// ConfigDir 配置文件所在目录，热更新时监听其中的 config.yaml
	ConfigDir       string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	profile    *repository.ProfileRepository
	course     *repository.CourseRepository
	clo        *repository.CLORepository
	lesson     *repository.LessonRepository
	resource   *repository.ResourceRepository
	activity   *repository.ActivityRepository
	assessment *repository.AssessmentRepository
	attempt    *repository.AttemptRepository
	usage      *repository.UsageRepository
}

type services struct {
	ai         *service.AIService
	budget     *service.TokenBudget
	storage    *service.StorageService
	auth       *service.AuthService
	course     *service.CourseService
	lesson     *service.LessonService
	resource   *service.ResourceService
	assessment *service.AssessmentService
	generation *service.GenerationService
	voice      *service.VoiceService
}

type controllers struct {
	auth       *controller.AuthController
	course     *controller.CourseController
	lesson     *controller.LessonController
	resource   *controller.ResourceController
	assessment *controller.AssessmentController
	generation *controller.GenerationController
	voice      *controller.VoiceController
	health     *controller.HealthController
}

// RegisterConfigCallback 配置热更新后依次回调
func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) applyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		profile:    repository.NewProfileRepository(db),
		course:     repository.NewCourseRepository(db),
		clo:        repository.NewCLORepository(db),
		lesson:     repository.NewLessonRepository(db),
		resource:   repository.NewResourceRepository(db),
		activity:   repository.NewActivityRepository(db),
		assessment: repository.NewAssessmentRepository(db),
		attempt:    repository.NewAttemptRepository(db),
		usage:      repository.NewUsageRepository(db),
	}
}

// newUsageStore 按配置选择令牌用量存储，redis 不可用时回退到数据库
func newUsageStore(cfg *config.Config, repos *repositories, rdb *redis.Client, window func() time.Duration) service.UsageStore {
	if cfg.AI.UsageStore == "redis" {
		if rdb != nil {
			return service.NewRedisUsageStore(rdb, window)
		}
		logger.Log.Warn("ai.usage_store=redis but redis is not connected, using database")
	}
	return service.NewGormUsageStore(repos.usage)
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.ai = service.NewAIService(cfg.AI)

	var budget *service.TokenBudget
	store := newUsageStore(cfg, repos, rdb, func() time.Duration { return budget.Settings().Window })
	budget = service.NewTokenBudget(store, service.BudgetSettingsFromConfig(cfg.AI))
	s.budget = budget

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.profile, cfg)
	s.course = service.NewCourseService(repos.course, repos.clo)
	s.lesson = service.NewLessonService(repos.lesson, s.course)
	s.resource = service.NewResourceService(repos.resource, repos.activity, s.lesson, s.storage)
	s.assessment = service.NewAssessmentService(repos.assessment, repos.attempt)
	s.generation = service.NewGenerationService(s.ai, s.budget, s.course, s.lesson, repos.lesson, repos.assessment)
	s.voice = service.NewVoiceService(s.ai, s.budget)

	// 热更新只影响大模型接口与令牌预算
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.ai.UpdateConfig(newCfg.AI)
		s.budget.Update(service.BudgetSettingsFromConfig(newCfg.AI))
	})

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth),
		course:     controller.NewCourseController(s.course, s.lesson),
		lesson:     controller.NewLessonController(s.lesson),
		resource:   controller.NewResourceController(s.resource),
		assessment: controller.NewAssessmentController(s.assessment),
		generation: controller.NewGenerationController(s.generation, s.voice),
		voice:      controller.NewVoiceController(s.voice),
		health:     controller.NewHealthController(db, rdb, s.ai.Configured),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	limiter := security.NewIPLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window())
	router.Use(limiter.Middleware())
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		limiter.Update(newCfg.RateLimit.MaxRequests, newCfg.RateLimit.Window())
	})

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// New 基于已初始化的数据库和 redis 组装应用，rdb 可以为 nil
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	app := &App{
		Config:    cfg,
		ConfigDir: "configs",
		DB:        db,
		Redis:     rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.RegisterConfigCallback(func(newCfg *config.Config) {
		if err := logger.Reload(newCfg); err != nil {
			logger.Log.Warn("Log level not updated", zap.Error(err))
		}
	})
	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode, cfg.ForceMigrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	if cfg.Seed {
		course, err := seed.Run(context.Background(), db)
		if err != nil {
			logger.Log.Fatal("Failed to seed sample course", zap.Error(err))
		}
		logger.Log.Info("Sample course ready", zap.String("course_id", course.ID))
	}

	app := New(cfg, db, rdb)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("course-studio", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go func() {
		path := filepath.Join(a.ConfigDir, "config.yaml")
		if err := configwatcher.WatchConfig(watchCtx, path, a.applyConfig); err != nil {
			logger.Log.Warn("Config watcher disabled", zap.Error(err))
		}
	}()

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")
	stopWatch()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}

	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
