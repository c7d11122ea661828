package main

import (
	"log"

	"codestreak/backend/challenge"
	"codestreak/backend/config"
	"codestreak/backend/middleware"
	"codestreak/backend/routes"
	"codestreak/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize database
	db, err := utils.InitDB(cfg)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}

	// Initialize logger
	logger := utils.InitLogger()

	// Load the challenge catalog once; it is immutable from here on
	catalog := challenge.LoadCatalog(cfg.ChallengeDataPath, logger)
	service := challenge.NewService(catalog)

	// Create Fiber app
	app := fiber.New()

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger))

	// Setup routes
	routes.SetupRoutes(app, db, cfg, service)

	// Start server
	log.Fatal(app.Listen(":" + cfg.ServerPort))
}
