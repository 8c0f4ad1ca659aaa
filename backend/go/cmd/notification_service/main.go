package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"Travel_Companion/backend/go/internal/config"
	"Travel_Companion/backend/go/internal/database/mysql"
	"Travel_Companion/backend/go/internal/notification_service/api"
	"Travel_Companion/backend/go/internal/notification_service/consumer"
	"Travel_Companion/backend/go/internal/notification_service/fcm"
	"Travel_Companion/backend/go/internal/notification_service/service"
	"Travel_Companion/backend/go/internal/persona"
	userservice "Travel_Companion/backend/go/internal/user_service/service"
	userstore "Travel_Companion/backend/go/internal/user_service/store"
	pkghttp "Travel_Companion/backend/go/pkg/http"
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
	appLogger := logger.New("notification_service", "", "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// FCM client
	fcmClient, err := fcm.NewClient(ctx, cfg.Firebase)
	if err != nil {
		appLogger.Fatal(err.Error())
	}

	// Duplicate suppression with on-disk persistence
	dedupe, err := service.NewDeduper(cfg.Firebase.DedupeState)
	if err != nil {
		appLogger.Fatal(err.Error())
	}

	// Device tokens are resolved through the user service's store.
	db, err := mysql.GetDB(&cfg.Databases.MySQL)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer mysql.Close()
	users, err := userstore.NewStore(db)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	resolver := userservice.NewService(users, persona.NewProfileStore(db, nil), cfg.Auth.JwtSecret, cfg.Auth.TokenTTL)

	pushService := service.NewService(fcmClient, dedupe, resolver, appLogger)
	pushService.StartPersistLoop()
	defer pushService.Close()

	// Consume async notification events published by the other services
	eventConsumer := consumer.NewEventConsumer(
		cfg.Databases.Kafka.Brokers,
		cfg.Databases.Kafka.Topics.Notifications,
		cfg.Databases.Kafka.GroupID,
		appLogger,
	)
	defer eventConsumer.Close()
	eventConsumer.Start(ctx, pushService.HandleEvent)

	// HTTP surface on the shared middleware-wrapped server
	srv, err := pkghttp.NewServer(cfg, pkghttp.WithAddress(cfg.Server.Notification))
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	api.NewHandler(pushService, appLogger).Register(srv)

	go func() {
		appLogger.Info("Starting notification service on " + cfg.Server.Notification)
		if err := srv.ListenAndServe(); err != nil {
			appLogger.Error(err.Error())
		}
	}()

	// Wait for termination signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error(err.Error())
	}
	appLogger.Info("Notification service stopped")
}
