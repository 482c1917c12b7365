package services

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/craftsite-simple/dto"
	"github.com/craftsite-simple/models"
	"github.com/craftsite-simple/utils"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const tokenLifetime = 3 * time.Hour

// UserStore is the persistence contract for platform accounts.
type UserStore interface {
	FindByID(id string) (models.User, error)
	FindByEmail(email string) (models.User, error)
	ExistsByEmail(email string) (bool, error)
	Create(user models.User) (models.User, error)
	Update(user models.User) error
}

// AuthService implements platform signup, login and password reset. Signup
// and reset are gated behind emailed one-time passcodes.
type AuthService struct {
	users UserStore
	otps  OTPStore
	email *EmailService
}

// NewAuthService creates an auth service with the given collaborators.
func NewAuthService(users UserStore, otps OTPStore, email *EmailService) *AuthService {
	return &AuthService{
		users: users,
		otps:  otps,
		email: email,
	}
}

// InitiateSignup sends a signup passcode to the address unless an account
// already exists.
func (s *AuthService) InitiateSignup(ctx context.Context, req dto.SignupInitiateRequest) error {
	email := normalizeAccountEmail(req.Email)

	exists, err := s.users.ExistsByEmail(email)
	if err != nil {
		return utils.WrapError(utils.ErrInternal, "failed to check existing account", err)
	}
	if exists {
		return utils.NewError(utils.ErrConflict, "email already registered")
	}

	code, err := utils.GenerateOTPCode(6)
	if err != nil {
		return utils.WrapError(utils.ErrInternal, "failed to generate verification code", err)
	}
	if err := s.otps.Save(ctx, email, OTPPurposeSignup, code); err != nil {
		return utils.WrapError(utils.ErrInternal, "failed to store verification code", err)
	}

	return s.email.SendOTP(ctx, email, code)
}

// VerifySignup consumes the passcode and creates the account.
func (s *AuthService) VerifySignup(ctx context.Context, req dto.SignupVerifyRequest) (*dto.AuthResponse, error) {
	email := normalizeAccountEmail(req.Email)

	if err := s.otps.Verify(ctx, email, OTPPurposeSignup, req.OTP); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, utils.WrapError(utils.ErrInternal, "failed to hash password", err)
	}

	user := models.User{
		Email:    email,
		Password: string(hashed),
	}
	if req.Name != "" {
		user.Name = &req.Name
	}

	user, err = s.users.Create(user)
	if err != nil {
		return nil, utils.WrapError(utils.ErrInternal, "failed to create account", err)
	}

	return s.buildAuthResponse(user)
}

// Login authenticates a user and returns a token.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	email := normalizeAccountEmail(req.Email)

	user, err := s.users.FindByEmail(email)
	if err != nil {
		// Same message for unknown address and wrong password.
		return nil, utils.NewError(utils.ErrAuth, "invalid email or password")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return nil, utils.NewError(utils.ErrAuth, "invalid email or password")
	}

	return s.buildAuthResponse(user)
}

// InitiatePasswordReset sends a reset passcode to an existing account.
func (s *AuthService) InitiatePasswordReset(ctx context.Context, req dto.PasswordResetInitiateRequest) error {
	email := normalizeAccountEmail(req.Email)

	if _, err := s.users.FindByEmail(email); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NewError(utils.ErrNotFound, "no account found for this email")
		}
		return utils.WrapError(utils.ErrInternal, "failed to look up account", err)
	}

	code, err := utils.GenerateOTPCode(6)
	if err != nil {
		return utils.WrapError(utils.ErrInternal, "failed to generate verification code", err)
	}
	if err := s.otps.Save(ctx, email, OTPPurposePasswordReset, code); err != nil {
		return utils.WrapError(utils.ErrInternal, "failed to store verification code", err)
	}

	return s.email.SendOTP(ctx, email, code)
}

// VerifyPasswordReset consumes the passcode and stores the new password.
func (s *AuthService) VerifyPasswordReset(ctx context.Context, req dto.PasswordResetVerifyRequest) error {
	email := normalizeAccountEmail(req.Email)

	if err := s.otps.Verify(ctx, email, OTPPurposePasswordReset, req.OTP); err != nil {
		return err
	}

	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NewError(utils.ErrNotFound, "no account found for this email")
		}
		return utils.WrapError(utils.ErrInternal, "failed to look up account", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return utils.WrapError(utils.ErrInternal, "failed to hash password", err)
	}

	user.Password = string(hashed)
	if err := s.users.Update(user); err != nil {
		return utils.WrapError(utils.ErrInternal, "failed to update password", err)
	}
	return nil
}

func (s *AuthService) buildAuthResponse(user models.User) (*dto.AuthResponse, error) {
	token, expiresAt, err := GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, utils.WrapError(utils.ErrInternal, "failed to issue token", err)
	}

	user.Password = ""
	return &dto.AuthResponse{
		Token:     token,
		User:      user,
		ExpiresAt: expiresAt,
	}, nil
}

// GenerateToken generates a new JWT token for a user
func GenerateToken(userID, email string) (string, time.Time, error) {
	secretKey := os.Getenv("JWT_SECRET")
	if secretKey == "" {
		return "", time.Time{}, errors.New("JWT_SECRET not set in environment")
	}

	expiresAt := time.Now().Add(tokenLifetime)

	claims := dto.TokenClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// ValidateToken validates a JWT token and returns claims if valid
func ValidateToken(tokenString string) (*dto.TokenClaims, error) {
	secretKey := os.Getenv("JWT_SECRET")
	if secretKey == "" {
		return nil, errors.New("JWT_SECRET not set in environment")
	}

	token, err := jwt.ParseWithClaims(tokenString, &dto.TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*dto.TokenClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

func normalizeAccountEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
