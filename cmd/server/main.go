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
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/genstudio/api/internal/auth"
	"github.com/genstudio/api/internal/client"
	"github.com/genstudio/api/internal/config"
	"github.com/genstudio/api/internal/executor"
	"github.com/genstudio/api/internal/handler"
	"github.com/genstudio/api/internal/middleware"
	"github.com/genstudio/api/internal/service"
	"github.com/genstudio/api/internal/store"
	"github.com/genstudio/api/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
	}

	// Initialize Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	// Initialize validator
	validate := validator.New()

	// External clients
	geminiClient := client.NewGeminiClient(&cfg.Gemini) // no API key → prompts pass through unchanged

	var videoGen client.VideoGenerator
	veoClient := client.NewVeoClient(&cfg.Veo)
	if veoClient.IsConfigured() {
		videoGen = veoClient
	} else {
		log.Println("Warning: Veo API key not configured, using placeholder generation results")
	}

	var storageClient client.StorageClient
	if r2Client, err := client.NewR2Client(&cfg.R2); err != nil {
		log.Printf("Warning: R2 storage not configured: %v", err)
	} else {
		storageClient = r2Client
	}

	// Job record store and the shared generation routine
	mediaStore := store.NewRedisMediaStore(redisClient)
	generator := service.NewGenerator(mediaStore, videoGen)

	// Execution backend. The worker pool exists only for the local path;
	// an unknown executor type aborts startup.
	var pool *executor.WorkerPool
	if cfg.Executor.Type == executor.TypeLocal {
		pool = executor.NewWorkerPool(cfg.Executor.Workers, cfg.Executor.QueueDepth)
	}

	backend, err := executor.Select(&cfg.Executor, pool, generator.Run, asynqClient)
	if err != nil {
		log.Fatalf("Failed to select execution backend: %v", err)
	}
	log.Printf("Using %s execution backend", cfg.Executor.Type)

	// Services
	videoService := service.NewVideoService(mediaStore, geminiClient, storageClient, backend)

	// Handlers
	videoHandler := handler.NewVideoHandler(videoService, validate)

	// Auth middleware: JWKS when an issuer is configured, legacy HMAC fallback
	var authMiddleware *middleware.AuthMiddleware
	if cfg.Zitadel.Issuer != "" {
		verifier, err := auth.NewJWKSVerifier(&cfg.Zitadel)
		if err != nil {
			log.Fatalf("Failed to initialize JWKS verifier: %v", err)
		}
		defer verifier.Close()
		authMiddleware = middleware.NewAuthMiddlewareWithFallback(verifier, cfg.JWT.Secret)
	} else {
		authMiddleware = middleware.NewLegacyAuthMiddleware(cfg.JWT.Secret)
	}
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/api/version", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"version": "v0.1.0"})
	})

	// API routes
	api := app.Group("/api", authMiddleware.Authenticate())

	videos := api.Group("/videos")
	videos.Post("/generate", rateLimiter.GenerateLimit(cfg.RateLimit.GeneratePerHour), videoHandler.Generate)
	videos.Post("/generate-batch", rateLimiter.GenerateLimit(cfg.RateLimit.GeneratePerHour), videoHandler.GenerateBatch)
	videos.Get("/:mediaId", videoHandler.Get)

	// Remote path: run the queue consumer in this process. In production the
	// consumer typically runs as a separate worker deployment with the same
	// binary and EXECUTOR_TYPE=remote.
	var workerSrv *asynq.Server
	if cfg.Executor.Type == executor.TypeRemote {
		workerSrv = newWorkerServer(cfg)
		receiver := worker.NewVideoJobReceiver(generator, validate)

		mux := asynq.NewServeMux()
		mux.HandleFunc(executor.TaskTypeVideoGenerate, receiver.ProcessTask)

		go func() {
			if err := workerSrv.Run(mux); err != nil {
				log.Printf("Asynq worker error: %v", err)
			}
		}()
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		if workerSrv != nil {
			workerSrv.Shutdown()
		}
		if pool != nil {
			// Drain in-flight generations before exiting; jobs lost here
			// would be stuck in pending forever.
			drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if err := pool.Shutdown(drainCtx); err != nil {
				log.Printf("Worker pool drain error: %v", err)
			}
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func newWorkerServer(cfg *config.Config) *asynq.Server {
	return asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: cfg.Executor.Workers,
			Queues: map[string]int{
				cfg.Executor.Queue: 1,
			},
		},
	)
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
