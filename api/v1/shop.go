package v1

import (
	"net/http"

	"github.com/craftsite-simple/dto"
	"github.com/craftsite-simple/middleware"
	"github.com/craftsite-simple/services"
	"github.com/gin-gonic/gin"
)

// ShopController handles the public sub-API that deployed sites call back
// into, scoped per tenant under /tenants/:id.
type ShopController struct {
	shopService *services.ShopService
}

// NewShopController creates a new shop controller
func NewShopController(shopService *services.ShopService) *ShopController {
	return &ShopController{shopService: shopService}
}

// RegisterRoutes registers tenant-scoped shop routes
func (c *ShopController) RegisterRoutes(router *gin.RouterGroup) {
	shop := router.Group("/tenants/:id")
	{
		// Public: the deployed markup needs these before any login.
		shop.GET("/components", c.GetComponents)
		shop.POST("/login", c.Login)
		shop.POST("/signup", c.Signup)

		authed := shop.Group("")
		authed.Use(middleware.ShopAuthMiddleware())
		{
			authed.GET("/user", c.GetUser)
			authed.PUT("/address", c.UpdateAddress)
			authed.GET("/cart", c.GetCart)
			authed.POST("/cart", c.AddCartItem)
			authed.PUT("/cart", c.UpdateCartItem)
			authed.DELETE("/cart/:productId", c.RemoveCartItem)
			authed.POST("/order", c.PlaceOrder)
			authed.GET("/orders", c.ListOrders)
			authed.POST("/add-product", c.AddProduct)
			authed.DELETE("/product/:productId", c.DeleteProduct)
		}
	}
}

// GetComponents returns the raw components data for rendering
func (c *ShopController) GetComponents(ctx *gin.Context) {
	components, err := c.shopService.Components(ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"components": components})
}

// Login authenticates a shop customer
func (c *ShopController) Login(ctx *gin.Context) {
	var req dto.ShopLoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Email and password are required",
		})
		return
	}

	response, err := c.shopService.Login(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response)
}

// Signup registers a shop customer
func (c *ShopController) Signup(ctx *gin.Context) {
	var req dto.ShopSignupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "All fields are required",
		})
		return
	}

	response, err := c.shopService.Signup(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, response)
}

// GetUser returns the authenticated customer's profile
func (c *ShopController) GetUser(ctx *gin.Context) {
	user, err := c.shopService.GetUser(ctx.Param("id"), ctx.GetString("shopUserId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateAddress sets the customer's shipping address
func (c *ShopController) UpdateAddress(ctx *gin.Context) {
	var req dto.UpdateAddressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "All address fields are required",
		})
		return
	}

	address, err := c.shopService.UpdateAddress(ctx.Param("id"), ctx.GetString("shopUserId"), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message": "Address updated successfully",
		"address": address,
	})
}

// GetCart returns the customer's cart
func (c *ShopController) GetCart(ctx *gin.Context) {
	cart, err := c.shopService.GetCart(ctx.Param("id"), ctx.GetString("shopUserId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, cart)
}

// AddCartItem adds a product to the cart
func (c *ShopController) AddCartItem(ctx *gin.Context) {
	var req dto.AddCartItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Product ID and quantity are required",
		})
		return
	}

	cart, err := c.shopService.AddCartItem(ctx.Param("id"), ctx.GetString("shopUserId"), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, cart)
}

// UpdateCartItem applies a quantity change to a cart line
func (c *ShopController) UpdateCartItem(ctx *gin.Context) {
	var req dto.UpdateCartItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Product ID and quantity change are required",
		})
		return
	}

	cart, err := c.shopService.UpdateCartItem(ctx.Param("id"), ctx.GetString("shopUserId"), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, cart)
}

// RemoveCartItem drops a product from the cart
func (c *ShopController) RemoveCartItem(ctx *gin.Context) {
	cart, err := c.shopService.RemoveCartItem(ctx.Param("id"), ctx.GetString("shopUserId"), ctx.Param("productId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, cart)
}

// PlaceOrder turns the cart into an order
func (c *ShopController) PlaceOrder(ctx *gin.Context) {
	order, err := c.shopService.PlaceOrder(ctx.Request.Context(), ctx.Param("id"), ctx.GetString("shopUserId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"order":   order,
	})
}

// ListOrders returns all orders for the shop admin
func (c *ShopController) ListOrders(ctx *gin.Context) {
	orders, err := c.shopService.ListOrders(ctx.Param("id"), ctx.GetString("shopUserId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, orders)
}

// AddProduct appends a product to the site's catalog
func (c *ShopController) AddProduct(ctx *gin.Context) {
	var req dto.AddProductRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "All product fields are required",
		})
		return
	}

	product, err := c.shopService.AddProduct(ctx.Param("id"), ctx.GetString("shopUserId"), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message": "Product added successfully",
		"product": product,
	})
}

// DeleteProduct removes a product from the site's catalog
func (c *ShopController) DeleteProduct(ctx *gin.Context) {
	if err := c.shopService.DeleteProduct(ctx.Param("id"), ctx.GetString("shopUserId"), ctx.Param("productId")); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}
