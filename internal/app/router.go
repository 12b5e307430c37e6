package app

import (
	"studybuddy_backend/docs"
	"studybuddy_backend/internal/config"
	"studybuddy_backend/internal/middleware"
	"studybuddy_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)
	}

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.POST("/children", c.child.Create)
		authGroup.GET("/children", c.child.List)
		authGroup.GET("/children/:id", c.child.Get)
		authGroup.PUT("/children/:id", c.child.Update)
		authGroup.DELETE("/children/:id", c.child.Delete)
		authGroup.GET("/children/:id/progress", c.attempt.Progress)

		authGroup.GET("/topics", c.question.Topics)
		authGroup.GET("/subtopics", c.question.Subtopics)
		authGroup.GET("/questions", c.question.Fetch)

		authGroup.POST("/attempts", c.attempt.Log)

		authGroup.POST("/quizzes", c.quiz.Create)
		authGroup.GET("/quizzes", c.quiz.List)
		authGroup.GET("/quizzes/:id", c.quiz.Get)
		authGroup.POST("/quizzes/:id/submit", c.quiz.Submit)
		authGroup.POST("/quizzes/:id/expire", c.quiz.Expire)
	}

	adminGroup := router.Group("/api/admin")
	adminGroup.Use(middleware.AdminMiddleware(cfg))
	{
		adminGroup.POST("/questions/generate", c.admin.Generate)
	}
}
