package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"Travel_Companion/backend/go/internal/chat_service/api"
	chatservice "Travel_Companion/backend/go/internal/chat_service/service"
	"Travel_Companion/backend/go/internal/config"
	"Travel_Companion/backend/go/internal/database/kafka"
	"Travel_Companion/backend/go/internal/database/mysql"
	"Travel_Companion/backend/go/internal/database/neo4j"
	"Travel_Companion/backend/go/internal/database/redis"
	"Travel_Companion/backend/go/internal/discovery/etcd"
	"Travel_Companion/backend/go/internal/embedding"
	"Travel_Companion/backend/go/internal/llm"
	"Travel_Companion/backend/go/internal/memory/consumer"
	memoryservice "Travel_Companion/backend/go/internal/memory/service"
	"Travel_Companion/backend/go/internal/memory/store"
	"Travel_Companion/backend/go/internal/persona"
	pkggrpc "Travel_Companion/backend/go/pkg/grpc"
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
	appLogger := logger.New("chat_service", "", "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database clients
	db, err := mysql.GetDB(&cfg.Databases.MySQL)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer mysql.Close()

	redisClient, err := redis.GetClient(&cfg.Databases.Redis)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer redis.Close()

	kafkaClient, err := kafka.GetClient(&cfg.Databases.Kafka)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer kafkaClient.Close()

	neo4jClient, err := neo4j.GetClient(ctx, &cfg.Databases.Neo4j)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer neo4jClient.Close(ctx)

	// Ship structured logs to Kafka when enabled
	if cfg.Logger.KafkaExport {
		logger.EnableKafkaExport(kafka.NewLogPublisher(kafkaClient))
	}

	// Initialize embedding and LLM clients
	embedder, err := embedding.NewFromConfig(cfg.Embedding)
	if err != nil {
		appLogger.Fatal(err.Error())
	}

	llmClient, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		appLogger.Fatal(err.Error())
	}

	// Initialize the memory subsystem
	turnStore, err := store.NewGormStore(db)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	turnPublisher := memoryservice.NewTurnPublisher(kafkaClient)
	memorySvc := memoryservice.New(turnStore, turnStore, embedder, turnPublisher, cfg.Memory)
	memorySvc.StartSweeper()
	defer memorySvc.StopSweeper()

	// Project turn events into the fact graph
	projector := consumer.NewGraphProjector(kafkaClient, store.NewGraphStore(neo4jClient))
	go projector.Run(ctx)

	// Initialize the chat orchestration
	profiles := persona.NewProfileStore(db, redisClient)
	weather, err := chatservice.NewWeatherClient(cfg.Weather, cfg.Middleware.CircuitBreaker)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	chatSvc := chatservice.New(memorySvc, profiles, llmClient, weather, cfg.Memory)

	// gRPC health endpoint for the service mesh
	grpcSrv, err := pkggrpc.NewServer(cfg, pkggrpc.WithAddress(cfg.Server.ChatGRPC))
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	grpc_health_v1.RegisterHealthServer(grpcSrv.GetGRPCServer(), health.NewServer())
	go func() {
		if err := grpcSrv.ListenAndServe(); err != nil {
			appLogger.Error(err.Error())
		}
	}()
	defer grpcSrv.GracefulStop()

	// Register with service discovery when configured
	if len(cfg.Databases.Etcd.Endpoints) > 0 {
		discovery, err := etcd.NewServiceDiscovery(cfg.Databases.Etcd.Endpoints)
		if err != nil {
			appLogger.Fatal(err.Error())
		}
		defer discovery.Close()
		stop, err := discovery.Register("chat_service", cfg.Server.Chat, 10)
		if err != nil {
			appLogger.Fatal(err.Error())
		}
		defer close(stop)
	}

	// Setup and start the Gin router
	router := api.SetupRouter(api.NewHandler(chatSvc), cfg.Auth.JwtSecret)
	go func() {
		appLogger.Info("Starting chat service on " + cfg.Server.Chat)
		if err := router.Run(cfg.Server.Chat); err != nil {
			appLogger.Fatal(err.Error())
		}
	}()

	// Wait for termination signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	appLogger.Info("Chat service stopped")
}
