package dto

import (
	"time"

	"github.com/craftsite-simple/models"
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims represents the JWT claims for a platform user
type TokenClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// SignupInitiateRequest starts the OTP signup flow
type SignupInitiateRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// SignupVerifyRequest completes signup with the emailed passcode
type SignupVerifyRequest struct {
	Email    string `json:"email" binding:"required,email"`
	OTP      string `json:"otp" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name"`
}

// LoginRequest authenticates with email and password
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// PasswordResetInitiateRequest starts the OTP password reset flow
type PasswordResetInitiateRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// PasswordResetVerifyRequest completes the reset with the emailed passcode
type PasswordResetVerifyRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

// AuthResponse is returned on successful authentication
type AuthResponse struct {
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expiresAt"`
}
