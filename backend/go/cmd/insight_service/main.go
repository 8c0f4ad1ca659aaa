package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"Travel_Companion/backend/go/internal/config"
	"Travel_Companion/backend/go/internal/database/mongo"
	"Travel_Companion/backend/go/internal/insight_service/api"
	"Travel_Companion/backend/go/internal/insight_service/consumer"
	"Travel_Companion/backend/go/internal/insight_service/publisher"
	"Travel_Companion/backend/go/internal/insight_service/service"
	"Travel_Companion/backend/go/internal/insight_service/store"
	"Travel_Companion/backend/go/internal/llm"
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
	appLogger := logger.New("insight_service", "", "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize MongoDB
	mongoClient, err := mongo.GetClient(&cfg.Databases.MongoDB)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer mongo.Close(ctx)
	insightStore := store.NewMongoInsightStore(mongoClient.Database(cfg.Databases.MongoDB.Database))

	// The LLM is optional; recommendations fall back to the static list.
	llmClient, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		appLogger.Warn("LLM unavailable, recommendations will use the fallback: " + err.Error())
		llmClient = nil
	}

	brokers := cfg.Databases.Kafka.Brokers
	topics := cfg.Databases.Kafka.Topics

	// Job dispatch pipeline: the API publishes to the jobs topic, the
	// in-process worker consumes it and reports to the results topic.
	jobPublisher := publisher.NewJobPublisher(brokers, topics.Jobs, appLogger)
	defer jobPublisher.Close()
	resultPublisher := publisher.NewJobPublisher(brokers, topics.JobResults, appLogger)
	defer resultPublisher.Close()

	insightService := service.NewService(insightStore, service.NewConnectionManager(), jobPublisher, llmClient, appLogger)
	worker := service.NewWorker(insightStore, resultPublisher, appLogger)

	jobConsumer := consumer.NewJobConsumer(brokers, topics.Jobs, cfg.Databases.Kafka.GroupID+"-worker", appLogger)
	defer jobConsumer.Close()
	jobConsumer.Start(ctx, worker.HandleJob)

	resultConsumer := consumer.NewJobConsumer(brokers, topics.JobResults, cfg.Databases.Kafka.GroupID, appLogger)
	defer resultConsumer.Close()
	resultConsumer.Start(ctx, insightService.HandleJobUpdate)

	// Setup and start the Gin router
	router := gin.Default()
	api.RegisterRoutes(router, api.NewAPI(insightService, appLogger), cfg.Auth.JwtSecret)
	go func() {
		appLogger.Info("Starting insight service on " + cfg.Server.Insight)
		if err := router.Run(cfg.Server.Insight); err != nil {
			appLogger.Fatal(err.Error())
		}
	}()

	// Wait for termination signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	appLogger.Info("Insight service stopped")
}
