package v1

import (
	"context"
	"log"

	"github.com/craftsite-simple/config"
	"github.com/craftsite-simple/repositories"
	"github.com/craftsite-simple/services"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all v1 API routes
func RegisterRoutes(router *gin.RouterGroup) {
	// Health check endpoint
	router.GET("/health", HealthCheck)

	// Repositories over the shared platform database
	userRepo := repositories.NewUserRepository()
	siteRepo := repositories.NewTenantSiteRepository()
	intentRepo := repositories.NewIntentRepository()

	// Shared infrastructure backends, selected by environment
	otpStore := services.NewOTPStoreFromEnv()
	emailService := services.NewEmailService()
	provisioner := services.NewDatabaseProvisionerFromEnv()
	publisher := services.NewSitePublisherFromEnv()
	notifier := services.NewNotificationRelayFromEnv()

	// Auth endpoints
	authService := services.NewAuthService(userRepo, otpStore, emailService)
	NewAuthController(authService).RegisterRoutes(router)

	// Tenant site lifecycle endpoints - protected by AuthMiddleware
	tenantService := services.NewTenantService(siteRepo, provisioner, publisher, notifier)
	NewTenantController(tenantService).RegisterRoutes(router)

	// Per-tenant shop endpoints, consumed by the deployed sites
	shopService := services.NewShopService(siteRepo, notifier)
	NewShopController(shopService).RegisterRoutes(router)

	// Support chatbot endpoint
	chatService := services.NewChatService(
		intentRepo,
		services.NewAnswerCacheFromEnv(),
		services.NewEmbeddingClient(),
		services.NewLLMClient(),
	)
	loadKnowledgeBase(chatService)
	NewChatController(chatService).RegisterRoutes(router)
}

// loadKnowledgeBase embeds the support PDF when one is configured. A load
// failure is logged, not fatal: the chatbot keeps its keyword fallback.
func loadKnowledgeBase(chatService *services.ChatService) {
	path := config.GetEnv("KNOWLEDGE_PDF_PATH", "")
	if path == "" {
		log.Println("💬 No knowledge base PDF configured, chatbot uses intents only")
		return
	}
	if err := chatService.LoadKnowledgeBase(context.Background(), path); err != nil {
		log.Printf("Warning: knowledge base load failed: %v", err)
	}
}
