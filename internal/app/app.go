package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studybuddy_backend/internal/config"
	"studybuddy_backend/internal/controller"
	"studybuddy_backend/internal/repository"
	"studybuddy_backend/internal/service"
	"studybuddy_backend/pkg/configwatcher"
	"studybuddy_backend/pkg/database"
	"studybuddy_backend/pkg/logger"
	"studybuddy_backend/pkg/monitoring"
	"studybuddy_backend/pkg/security"
	"studybuddy_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config         *config.Config
	Router         *gin.Engine
	DB             *gorm.DB
	Redis          *redis.Client
	repos          *repositories
	services       *services
	tracerShutdown func()
}

type repositories struct {
	parent   *repository.ParentRepository
	child    *repository.ChildRepository
	question *repository.QuestionRepository
	attempt  *repository.AttemptRepository
	subtopic *repository.SubtopicRepository
	quiz     *repository.QuizRepository
}

type services struct {
	auth      *service.AuthService
	child     *service.ChildService
	subtopic  *service.SubtopicService
	generator *service.GeneratorService
	picker    *service.PickerService
	attempt   *service.AttemptService
	quiz      *service.QuizService
	restock   *service.RestockWorker
}

type controllers struct {
	auth     *controller.AuthController
	child    *controller.ChildController
	question *controller.QuestionController
	attempt  *controller.AttemptController
	quiz     *controller.QuizController
	admin    *controller.AdminController
	health   *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		parent:   repository.NewParentRepository(db),
		child:    repository.NewChildRepository(db),
		question: repository.NewQuestionRepository(db),
		attempt:  repository.NewAttemptRepository(db),
		subtopic: repository.NewSubtopicRepository(db),
		quiz:     repository.NewQuizRepository(db, rdb),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.auth = service.NewAuthService(repos.parent, cfg.JWT)
	s.child = service.NewChildService(repos.child)
	s.subtopic = service.NewSubtopicService(repos.subtopic, repos.question, repos.attempt)
	s.generator = service.NewGeneratorService(cfg.AI, cfg.Engine)
	s.picker = service.NewPickerService(repos.question, repos.attempt, repos.child, s.subtopic, s.generator, cfg.Engine)
	s.attempt = service.NewAttemptService(repos.attempt, repos.question, repos.child)
	s.quiz = service.NewQuizService(repos.question, repos.attempt, repos.child, repos.quiz, s.generator, cfg.Engine)

	s.restock = service.NewRestockWorker(s.picker, cfg.Engine.RestockQueueSize)
	s.restock.Run()

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:     controller.NewAuthController(s.auth),
		child:    controller.NewChildController(s.child),
		question: controller.NewQuestionController(s.picker, s.subtopic, s.child, s.restock),
		attempt:  controller.NewAttemptController(s.attempt, s.child),
		quiz:     controller.NewQuizController(s.quiz, s.child),
		admin:    controller.NewAdminController(s.generator, a.repos.question),
		health:   controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(600, time.Minute))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg.Server.Mode)

	logger.Log.Info("Logger initialized successfully")

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, rdb)
	app.repos = repos
	services := app.initServices(repos, cfg)
	app.services = services
	controllers := app.initControllers(services, db)

	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("studybuddy-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracerShutdown = func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		}
	}

	app.registerRoutes(router, controllers, cfg)

	go configwatcher.WatchConfig("configs/config.yaml", func(newCfg *config.Config) {
		services.generator.UpdateAI(newCfg.AI)
	})

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Drain the restock queue before the process exits.
	if a.services != nil && a.services.restock != nil {
		a.services.restock.Stop()
	}

	if a.tracerShutdown != nil {
		a.tracerShutdown()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
