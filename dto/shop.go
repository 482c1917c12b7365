package dto

import (
	"github.com/craftsite-simple/models"
	"github.com/golang-jwt/jwt/v5"
)

// ShopTokenClaims represents the JWT claims for a tenant shop customer
type ShopTokenClaims struct {
	UserID   string `json:"userId"`
	TenantID string `json:"tenantId"`
	IsAdmin  bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

// ShopLoginRequest authenticates a customer against one tenant database
type ShopLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ShopSignupRequest registers a customer in one tenant database
type ShopSignupRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	Whatsapp    string `json:"whatsapp" binding:"required"`
}

// ShopUserResponse is the customer shape returned to the deployed site
type ShopUserResponse struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Email   string          `json:"email"`
	IsAdmin bool            `json:"isAdmin"`
	Address *models.Address `json:"address"`
}

// ShopAuthResponse is returned on shop login/signup
type ShopAuthResponse struct {
	Token string           `json:"token"`
	User  ShopUserResponse `json:"user"`
}

// UpdateAddressRequest sets the customer's shipping address
type UpdateAddressRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Address  string `json:"address" binding:"required"`
	City     string `json:"city" binding:"required"`
	Zip      string `json:"zip" binding:"required"`
	Country  string `json:"country" binding:"required"`
}

// AddCartItemRequest adds a product to the cart
type AddCartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// UpdateCartItemRequest changes an item quantity; negative values decrement
type UpdateCartItemRequest struct {
	ProductID      string `json:"productId" binding:"required"`
	QuantityChange int    `json:"quantityChange" binding:"required"`
}

// AddProductRequest adds a product to the site's components data
type AddProductRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description" binding:"required"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Image       string  `json:"image" binding:"required"`
}

// Product is the shape stored inside components data
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
}
