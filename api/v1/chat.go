package v1

import (
	"net/http"

	"github.com/craftsite-simple/dto"
	"github.com/craftsite-simple/services"
	"github.com/gin-gonic/gin"
)

// ChatController handles the support chatbot endpoint
type ChatController struct {
	chatService *services.ChatService
}

// NewChatController creates a new chat controller
func NewChatController(chatService *services.ChatService) *ChatController {
	return &ChatController{chatService: chatService}
}

// RegisterRoutes registers chat routes
func (c *ChatController) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/chat/predict", c.Predict)
}

// Predict answers a support question
func (c *ChatController) Predict(ctx *gin.Context) {
	var req dto.ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Message is required",
		})
		return
	}

	response, err := c.chatService.Predict(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   response,
	})
}
