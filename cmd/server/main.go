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
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/boothworks/pipeline/internal/config"
	"github.com/boothworks/pipeline/internal/handler"
	"github.com/boothworks/pipeline/internal/middleware"
	"github.com/boothworks/pipeline/internal/pipeline"
	"github.com/boothworks/pipeline/internal/resolver"
	"github.com/boothworks/pipeline/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize Redis client (optional - backs the job record store and
	// the rate limiter; the pipeline itself has no hard Redis dependency).
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
	}

	validate := validator.New()

	res, err := resolver.New(
		cfg.Cache.Root,
		time.Duration(cfg.Download.ConnectTimeoutSeconds)*time.Second,
		time.Duration(cfg.Download.ReadTimeoutSeconds)*time.Second,
	)
	if err != nil {
		log.Fatalf("Failed to initialize template resolver: %v", err)
	}

	var storageClient storage.Client
	var localClient *storage.LocalClient
	if cfg.Storage.Configured() {
		storageClient, err = storage.NewS3Client(ctx, storage.S3Config{
			AccountID:       cfg.Storage.AccountID,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			BucketName:      cfg.Storage.BucketName,
			PublicURL:       cfg.Storage.PublicURL,
		})
		if err != nil {
			log.Fatalf("Failed to initialize S3 storage client: %v", err)
		}
		log.Println("Info: using S3-compatible storage backend")
	} else {
		log.Println("Info: storage backend not configured, using local-disk mock storage")
		localClient, err = storage.NewLocalClient(cfg.Server.DataDir, cfg.Server.PublicBaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize local storage client: %v", err)
		}
		storageClient = localClient
	}

	records := pipeline.NewRecordStore(redisClient)
	orchestrator := pipeline.New(res, storageClient, records)

	pipelineHandler := handler.NewPipelineHandler(orchestrator, records, validate)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    50 * 1024 * 1024, // raw photographs and template zips can be large
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))
	app.Use(middleware.RequestID())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"redis":   redisClient.Ping(c.Context()).Err() == nil,
				"storage": cfg.Storage.Configured(),
			},
		})
	})

	pv2 := app.Group("/pipeline/v2")
	pv2.Post("/process", rateLimiter.ProcessLimit(cfg.RateLimit.ProcessPerMin), pipelineHandler.Process)
	pv2.Get("/jobs/:jobId", pipelineHandler.GetJob)

	// The local-disk storage fallback needs a static route to actually
	// serve what it wrote; an S3-compatible backend serves its own files.
	if localClient != nil {
		app.Static("/files", cfg.Server.DataDir+"/files")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
