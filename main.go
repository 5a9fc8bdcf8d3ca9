package main

import (
	"log"

	"lms/config"
	"lms/middleware"
	"lms/routes"
	"lms/seed"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize database (InitDB runs migrations)
	db, err := utils.InitDB(cfg)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}

	// Initialize logger
	logger := utils.InitLogger()

	if cfg.SeedDB {
		if err := seed.Run(db, logger); err != nil {
			log.Fatalf("Error seeding database: %v", err)
		}
	}

	// Optional redis leaderboard mirror
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}

	// Optional AI client for practice generation
	var aiClient *openai.Client
	if cfg.OpenAIKey != "" {
		aiClient = openai.NewClient(cfg.OpenAIKey)
	}

	// Create Fiber app
	app := fiber.New()

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger))

	// Setup routes
	routes.SetupRoutes(app, db, cfg, routes.Dependencies{
		RDB:      rdb,
		AIClient: aiClient,
		Logger:   logger,
	})

	// Start server
	log.Fatal(app.Listen(":" + cfg.ServerPort))
}
