package main

import (
	"log"

	"github.com/sirupsen/logrus"

	"Travel_Companion/backend/go/internal/config"
	"Travel_Companion/backend/go/internal/database/mysql"
	"Travel_Companion/backend/go/internal/database/redis"
	"Travel_Companion/backend/go/internal/persona"
	"Travel_Companion/backend/go/internal/user_service/api"
	"Travel_Companion/backend/go/internal/user_service/service"
	"Travel_Companion/backend/go/internal/user_service/store"
	"Travel_Companion/backend/go/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	level, err := logrus.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.Init(level)
	appLogger := logger.New("user_service", "", "")

	// Initialize database connection
	db, err := mysql.GetDB(&cfg.Databases.MySQL)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer mysql.Close()

	// Redis backs the persona profile cache. The service still works
	// without it, so a missing Redis is not fatal here.
	redisClient, err := redis.GetClient(&cfg.Databases.Redis)
	if err != nil {
		appLogger.Warn("Redis unavailable, persona cache disabled: " + err.Error())
		redisClient = nil
	} else {
		defer redis.Close()
	}

	// Initialize dependencies (Store -> Service -> Handler)
	userStore, err := store.NewStore(db)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	profiles := persona.NewProfileStore(db, redisClient)
	userService := service.NewService(userStore, profiles, cfg.Auth.JwtSecret, cfg.Auth.TokenTTL)
	apiHandler := api.NewHandler(userService)

	// Setup and start the Gin router
	router := api.SetupRouter(apiHandler, cfg.Auth.JwtSecret)
	appLogger.Info("Starting user service on " + cfg.Server.User)
	if err := router.Run(cfg.Server.User); err != nil {
		appLogger.Fatal(err.Error())
	}
}
