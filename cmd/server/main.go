package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/postlane/postlane/configs"
	"github.com/postlane/postlane/internal/adapters"
	"github.com/postlane/postlane/internal/api/handlers"
	"github.com/postlane/postlane/internal/api/middleware"
	job "github.com/postlane/postlane/internal/jobs"
	"github.com/postlane/postlane/internal/queue"
	"github.com/postlane/postlane/internal/repository"
	"github.com/postlane/postlane/internal/service"
	"github.com/robfig/cron"
	"golang.org/x/time/rate"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	cipherKey, err := cfg.CipherKey()
	if err != nil {
		log.Fatalf("Invalid encryption key: %v", err)
	}

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	scheduler := queue.NewScheduler(redisConn)
	defer scheduler.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Api-Key",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	postChannelRepo := repository.NewPostChannelRepository(db)
	channelRepo := repository.NewChannelRepository(db)
	mediaAssetRepo := repository.NewMediaAssetRepository(db)
	postMediaRepo := repository.NewPostMediaRepository(db)
	eventRepo := repository.NewEventRepository(db)
	apiKeyRepository := repository.NewApiKeyRepository(db)

	// Provider rate limits are coarse client-side throttles, well under the
	// published per-app quotas.
	metaAdapter := adapters.NewMetaAdapter(*cfg, rate.NewLimiter(rate.Every(time.Second), 5))
	linkedInAdapter := adapters.NewLinkedInAdapter(*cfg, rate.NewLimiter(rate.Every(time.Second), 2))

	eventService := service.NewEventService(eventRepo)
	tokenService := service.NewTokenService(*cfg, channelRepo, cipherKey)
	userService := service.NewUserService(userRepo)
	r2Service := service.NewR2Service(*cfg)
	channelService := service.NewChannelService(channelRepo, userRepo, eventService, cipherKey)
	postService := service.NewPostService(db, postRepo, postChannelRepo, channelRepo, userRepo, mediaAssetRepo, postMediaRepo, r2Service, scheduler, eventService)
	apiKeyService := service.NewApiKeyService(apiKeyRepository)

	authMiddleware := middleware.NewAuthMiddleware(*cfg, apiKeyService)

	health := handlers.NewHealthHandler(db)
	app.Get("/health", health.Health)

	auth := handlers.NewAuthHandler(*cfg, apiKeyService)
	app.Post("/auth/session", auth.CreateSession)
	app.Post("/auth/logout", auth.Logout)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	user := handlers.NewUserHandler(userService)
	api.Get("/user/info", user.GetUserInfo)

	apiKeys := handlers.NewApiKeyHandler(apiKeyService)
	api.Post("/api_key/new", apiKeys.CreateApiKey)
	api.Get("/api_key/list", apiKeys.ListKeys)
	api.Post("/api_key/remove", apiKeys.RemoveAPIKey)

	channel := handlers.NewChannelHandler(channelService)
	api.Post("/channels/connect", channel.ConnectChannel)
	api.Get("/channels", channel.ListChannels)
	api.Post("/channels/disconnect", channel.DisconnectChannel)

	post := handlers.NewPostHandler(postService)
	api.Post("/posts/create", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts/:id/schedule", post.SchedulePost)
	api.Post("/posts/cancel", post.CancelPost)

	event := handlers.NewEventHandler(eventService, userService)
	api.Get("/events", event.ListEvents)

	// cron jobs
	refreshTokenJob := job.NewTokenRefreshJob(channelRepo, tokenService)

	// queue worker
	queueW := queue.NewQueue(postRepo, postChannelRepo, channelRepo, postMediaRepo, metaAdapter, linkedInAdapter, tokenService, eventService, cipherKey)

	c := cron.New()
	c.AddFunc("@every 00h10m00s", refreshTokenJob.RefreshTokens)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: queue.WorkerConcurrency,
			Queues: map[string]int{
				queue.QueueName: 1,
			},
			RetryDelayFunc: queue.RetryDelay,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublish, queueW.HandlePublishTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on %s", cfg.ListenAddr)

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
