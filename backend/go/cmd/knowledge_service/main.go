package main

import (
	"context"
	"log"
	"time"

	"github.com/sirupsen/logrus"

	"Travel_Companion/backend/go/internal/config"
	"Travel_Companion/backend/go/internal/database/milvus"
	"Travel_Companion/backend/go/internal/database/minio"
	"Travel_Companion/backend/go/internal/database/mysql"
	"Travel_Companion/backend/go/internal/embedding"
	"Travel_Companion/backend/go/internal/knowledge_service/api"
	"Travel_Companion/backend/go/internal/knowledge_service/service"
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
	appLogger := logger.New("knowledge_service", "", "")

	ctx := context.Background()

	// Initialize database clients
	db, err := mysql.GetDB(&cfg.Databases.MySQL)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer mysql.Close()

	milvusClient, err := milvus.GetClient(ctx, &cfg.Databases.Milvus)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer milvusClient.Close()

	if err := milvusClient.EnsureCollection(ctx); err != nil {
		appLogger.Fatal(err.Error())
	}
	milvusClient.StartAutoFlush(30 * time.Second)
	defer milvusClient.StopAutoFlush(ctx)

	minioClient, err := minio.GetClient(&cfg.Databases.MinIO)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer minio.Close()

	// Initialize the embedding client
	embedder, err := embedding.NewFromConfig(cfg.Embedding)
	if err != nil {
		appLogger.Fatal(err.Error())
	}

	// Initialize dependencies (Service -> Ingestor -> Handler)
	poiService, err := service.New(db, milvusClient, embedder)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	ingestor := service.NewIngestor(minioClient, cfg.Databases.MinIO.Bucket, poiService)

	// Setup and start the Gin router
	router := api.SetupRouter(api.NewHandler(poiService, ingestor), cfg.Auth.JwtSecret)
	appLogger.Info("Starting knowledge service on " + cfg.Server.Knowledge)
	if err := router.Run(cfg.Server.Knowledge); err != nil {
		appLogger.Fatal(err.Error())
	}
}
