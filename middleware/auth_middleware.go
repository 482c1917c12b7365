package middleware

import (
	"net/http"
	"strings"

	"github.com/craftsite-simple/services"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware authenticates platform requests with a bearer token and
// stores the caller's identity in the request context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": "Authorization token is required",
			})
			c.Abort()
			return
		}

		claims, err := services.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set("userId", claims.UserID)
		c.Set("email", claims.Email)
		c.Next()
	}
}

// ShopAuthMiddleware authenticates tenant shop customers. The token must be
// scoped to the tenant in the route, so a token issued by one shop cannot be
// replayed against another.
func ShopAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": "Authorization token is required",
			})
			c.Abort()
			return
		}

		claims, err := services.ValidateShopToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		if claims.TenantID != c.Param("id") {
			c.JSON(http.StatusForbidden, gin.H{
				"status":  "error",
				"message": "Token is not valid for this site",
			})
			c.Abort()
			return
		}

		c.Set("shopUserId", claims.UserID)
		c.Set("shopIsAdmin", claims.IsAdmin)
		c.Next()
	}
}

func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	// Browser clients authenticate with the cookie set at login.
	if cookie, err := c.Cookie("access_token"); err == nil {
		return cookie
	}
	return ""
}
