package main

import (
	"log"
	"os"

	v1 "github.com/craftsite-simple/api/v1"
	"github.com/craftsite-simple/config"
	"github.com/craftsite-simple/database"
	"github.com/craftsite-simple/middleware"
	"github.com/craftsite-simple/repositories"
	"github.com/craftsite-simple/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	// Load and validate environment
	config.LoadEnv()
	config.ValidateEnv()

	// Connect to the platform database
	database.Initialize()

	// Seed chatbot intents on first start
	if err := services.SeedIntents(repositories.NewIntentRepository()); err != nil {
		log.Fatalf("Failed to seed chatbot intents: %v", err)
	}

	// Initialize router
	router := gin.Default()

	// CORS configuration
	router.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	}))

	// Request metrics
	router.Use(middleware.MetricsMiddleware())
	router.GET("/metrics", middleware.MetricsHandler())

	// API v1 routes
	v1.RegisterRoutes(router.Group("/api/v1"))

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start server
	log.Printf("🚀 Craftsite API starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
