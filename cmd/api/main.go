package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/grouplab-go-api/internal/config"
	"github.com/noah-isme/grouplab-go-api/internal/database"
	"github.com/noah-isme/grouplab-go-api/internal/eligibility"
	"github.com/noah-isme/grouplab-go-api/internal/handler"
	"github.com/noah-isme/grouplab-go-api/internal/lifecycle"
	"github.com/noah-isme/grouplab-go-api/internal/middleware"
	"github.com/noah-isme/grouplab-go-api/internal/models"
	"github.com/noah-isme/grouplab-go-api/internal/repository"
	"github.com/noah-isme/grouplab-go-api/internal/router"
	"github.com/noah-isme/grouplab-go-api/internal/rules"
	"github.com/noah-isme/grouplab-go-api/internal/service"
	"github.com/noah-isme/grouplab-go-api/pkg/similarity"
	"github.com/noah-isme/grouplab-go-api/pkg/upload"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Project{},
		&models.Group{},
		&models.GroupMember{},
		&models.Student{},
		&models.Deliverable{},
		&models.ValidationRule{},
		&models.Submission{},
		&models.SimilarityReport{},
		&models.SimilarityPair{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL, nats.Name(cfg.AppName))
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	uploader, err := upload.New(upload.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	comparator, err := similarity.NewClient(similarity.Config{
		BaseURL: cfg.SimilarityBaseURL,
		APIKey:  cfg.SimilarityAPIKey,
		Logger:  logger,
	})
	if err != nil {
		log.Fatalf("failed to create similarity client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	projectRepo := repository.NewProjectRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	deliverableRepo := repository.NewDeliverableRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	similarityRepo := repository.NewSimilarityReportRepository(db)

	facade := eligibility.NewFacade(
		repository.NewMembershipLookup(groupRepo),
		lifecycle.NewEngine(rules.NewEvaluator(nil)),
	)

	baseCtx, stopConsumers := context.WithCancel(context.Background())
	defer stopConsumers()

	realtimeService := service.NewRealtimeService(redisClient, cfg.RealtimeChannel, natsConn, logger)
	realtimeService.Start(baseCtx)

	projectService := service.NewProjectService(projectRepo, validate, logger)
	groupService := service.NewGroupService(groupRepo, projectRepo, facade, realtimeService, validate, logger)
	deliverableService, err := service.NewDeliverableService(deliverableRepo, projectRepo, validate, logger)
	if err != nil {
		log.Fatalf("failed to create deliverable service: %v", err)
	}
	submissionService := service.NewSubmissionService(submissionRepo, deliverableRepo, facade, uploader, realtimeService, validate, logger)
	similarityService := service.NewSimilarityService(similarityRepo, comparator, redisClient, cfg.SimilarityCacheTTL, cfg.SimilarityThreshold, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ProjectHandler:     handler.NewProjectHandler(projectService, logger),
		GroupHandler:       handler.NewGroupHandler(groupService, logger),
		DeliverableHandler: handler.NewDeliverableHandler(deliverableService, logger),
		SubmissionHandler:  handler.NewSubmissionHandler(submissionService, logger),
		SimilarityHandler:  handler.NewSimilarityHandler(similarityService, logger),
		RealtimeHandler:    handler.NewRealtimeHandler(realtimeService, logger),
		JWTMiddleware:      middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
