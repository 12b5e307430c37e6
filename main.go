// @title StudyBuddy Backend API
// @version 1.0
// @description Adaptive practice and quiz backend for the StudyBuddy tutoring app.

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"log"

	"studybuddy_backend/internal/app"
	"studybuddy_backend/internal/config"
	"studybuddy_backend/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	application.Run()
}
