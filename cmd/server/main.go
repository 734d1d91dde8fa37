package main

import (
	"log"

	"github.com/formlab/form-service/internal/cache"
	"github.com/formlab/form-service/internal/config"
	"github.com/formlab/form-service/internal/events"
	"github.com/formlab/form-service/internal/handlers"
	"github.com/formlab/form-service/internal/repositories/postgres"
	"github.com/formlab/form-service/internal/services"
	"github.com/formlab/form-service/internal/storage"
	"github.com/formlab/form-service/internal/utils"
	"github.com/formlab/form-service/internal/validator"
	"github.com/formlab/form-service/pkg"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		logger = utils.NewDefaultLogger()
		gin.SetMode(gin.ReleaseMode)
	} else {
		logger = utils.NewDevelopmentLogger()
	}
	slogger := utils.Slog(logger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	cacheService := cache.NewRedisCache(redisClient, slogger)

	publisher, err := events.NewKafkaEventPublisher(events.PublisherConfig{
		KafkaBrokers: cfg.KafkaBrokers,
		TopicName:    cfg.KafkaTopic,
		Logger:       slogger,
	})
	if err != nil {
		log.Fatalf("failed to create event publisher: %v", err)
	}
	defer publisher.Close()

	storageProvider, err := storage.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("failed to initialize storage: %v", err)
	}

	repo := postgres.NewRepository(db)
	v := validator.New()
	newID := uuid.NewString

	formService := services.NewFormService(repo, cacheService, publisher, v, slogger, newID)
	responseService := services.NewResponseService(repo, publisher, slogger, newID)
	sessionService := services.NewSessionService(formService, responseService, slogger, newID)
	exportService := services.NewExportService(repo, slogger)

	router := gin.Default()
	if cfg.StorageDriver == "local" {
		router.Static("/uploads", cfg.UploadDir)
	}

	handlerManager := handlers.NewHandlerManager(
		formService,
		responseService,
		sessionService,
		exportService,
		storageProvider,
		cfg.MaxUploadSize,
		logger,
	)
	handlerManager.SetupRoutes(router)

	logger.Info("Server starting", "port", cfg.Port, "environment", cfg.Environment)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
