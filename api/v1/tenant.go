package v1

import (
	"net/http"

	"github.com/craftsite-simple/dto"
	"github.com/craftsite-simple/middleware"
	"github.com/craftsite-simple/services"
	"github.com/gin-gonic/gin"
)

// TenantController handles tenant site lifecycle endpoints
type TenantController struct {
	tenantService *services.TenantService
}

// NewTenantController creates a new tenant controller
func NewTenantController(tenantService *services.TenantService) *TenantController {
	return &TenantController{tenantService: tenantService}
}

// RegisterRoutes registers tenant routes
func (c *TenantController) RegisterRoutes(router *gin.RouterGroup) {
	tenants := router.Group("/tenants")
	tenants.Use(middleware.AuthMiddleware())
	{
		tenants.GET("", c.ListTenants)
		tenants.POST("", c.CreateTenant)
		tenants.GET("/:id", c.GetTenant)
		tenants.PUT("/:id", c.UpdateTenant)
		tenants.DELETE("/:id", c.DeleteTenant)
	}
}

// CreateTenant runs the full creation workflow
func (c *TenantController) CreateTenant(ctx *gin.Context) {
	var req dto.CreateTenantRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request body",
		})
		return
	}

	userID := ctx.GetString("userId")
	response, err := c.tenantService.Create(ctx.Request.Context(), userID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"data":   response,
	})
}

// ListTenants returns the caller's sites
func (c *TenantController) ListTenants(ctx *gin.Context) {
	userID := ctx.GetString("userId")
	sites, err := c.tenantService.List(userID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   sites,
	})
}

// GetTenant returns one site owned by the caller
func (c *TenantController) GetTenant(ctx *gin.Context) {
	userID := ctx.GetString("userId")
	site, err := c.tenantService.Get(userID, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   site,
	})
}

// UpdateTenant redeploys a site against its existing publish target
func (c *TenantController) UpdateTenant(ctx *gin.Context) {
	var req dto.UpdateTenantRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request body",
		})
		return
	}

	userID := ctx.GetString("userId")
	site, err := c.tenantService.Update(ctx.Request.Context(), userID, ctx.Param("id"), req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   site,
	})
}

// DeleteTenant tears down a site and removes its record
func (c *TenantController) DeleteTenant(ctx *gin.Context) {
	userID := ctx.GetString("userId")
	if err := c.tenantService.Delete(ctx.Request.Context(), userID, ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Site and all associated resources deleted successfully",
	})
}
