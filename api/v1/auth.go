package v1

import (
	"net/http"
	"time"

	"github.com/craftsite-simple/dto"
	"github.com/craftsite-simple/services"
	"github.com/gin-gonic/gin"
)

// AuthController handles platform account endpoints
type AuthController struct {
	authService *services.AuthService
}

// NewAuthController creates a new auth controller
func NewAuthController(authService *services.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// RegisterRoutes registers auth routes
func (c *AuthController) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/signup/initiate", c.InitiateSignup)
		auth.POST("/signup/verify", c.VerifySignup)
		auth.POST("/login", c.Login)
		auth.POST("/password-reset/initiate", c.InitiatePasswordReset)
		auth.POST("/password-reset/verify", c.VerifyPasswordReset)
	}
}

// InitiateSignup emails a verification code to a new address
func (c *AuthController) InitiateSignup(ctx *gin.Context) {
	var req dto.SignupInitiateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request body",
		})
		return
	}

	if err := c.authService.InitiateSignup(ctx.Request.Context(), req); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Verification code sent",
	})
}

// VerifySignup completes signup and returns a session token
func (c *AuthController) VerifySignup(ctx *gin.Context) {
	var req dto.SignupVerifyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request body",
		})
		return
	}

	authResponse, err := c.authService.VerifySignup(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"data":   authResponse,
	})
}

// Login handles platform authentication
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request body",
		})
		return
	}

	authResponse, err := c.authService.Login(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	// Set token as HttpOnly cookie alongside the body for Bearer clients
	ctx.SetCookie(
		"access_token",
		authResponse.Token,
		int(time.Until(authResponse.ExpiresAt).Seconds()),
		"/",
		"",
		true,
		true,
	)

	ctx.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   authResponse,
	})
}

// InitiatePasswordReset emails a reset code to an existing account
func (c *AuthController) InitiatePasswordReset(ctx *gin.Context) {
	var req dto.PasswordResetInitiateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request body",
		})
		return
	}

	if err := c.authService.InitiatePasswordReset(ctx.Request.Context(), req); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Verification code sent",
	})
}

// VerifyPasswordReset completes the password reset flow
func (c *AuthController) VerifyPasswordReset(ctx *gin.Context) {
	var req dto.PasswordResetVerifyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request body",
		})
		return
	}

	if err := c.authService.VerifyPasswordReset(ctx.Request.Context(), req); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Password updated successfully",
	})
}
