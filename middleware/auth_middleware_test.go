package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/craftsite-simple/services"
	"github.com/gin-gonic/gin"
)

func newAuthTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", AuthMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": c.GetString("userId")})
	})
	router.GET("/tenants/:id/user", ShopAuthMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"shopUserId": c.GetString("shopUserId")})
	})
	return router
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	router := newAuthTestRouter()

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
}

func TestAuthMiddlewareRejectsGarbageToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	router := newAuthTestRouter()

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/protected", nil)
	request.Header.Set("Authorization", "Bearer not-a-token")
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
}

func TestAuthMiddlewareAcceptsBearerToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	router := newAuthTestRouter()

	token, _, err := services.GenerateToken("user-1", "owner@example.com")
	if err != nil {
		t.Fatalf("token generation failed: %v", err)
	}

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/protected", nil)
	request.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestAuthMiddlewareAcceptsCookie(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	router := newAuthTestRouter()

	token, _, err := services.GenerateToken("user-1", "owner@example.com")
	if err != nil {
		t.Fatalf("token generation failed: %v", err)
	}

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/protected", nil)
	request.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestShopAuthMiddlewareScopesTokenToTenant(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	router := newAuthTestRouter()

	token, err := services.GenerateShopToken("customer-1", "tenant-a", false)
	if err != nil {
		t.Fatalf("token generation failed: %v", err)
	}

	// Token matches the tenant in the route.
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/tenants/tenant-a/user", nil)
	request.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 for matching tenant, got %d", recorder.Code)
	}

	// The same token replayed against another tenant is forbidden.
	recorder = httptest.NewRecorder()
	request = httptest.NewRequest(http.MethodGet, "/tenants/tenant-b/user", nil)
	request.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign tenant, got %d", recorder.Code)
	}
}

func TestShopAuthMiddlewareRejectsPlatformToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	router := newAuthTestRouter()

	token, _, err := services.GenerateToken("user-1", "owner@example.com")
	if err != nil {
		t.Fatalf("token generation failed: %v", err)
	}

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/tenants/tenant-a/user", nil)
	request.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(recorder, request)

	// Platform tokens carry no tenant id, so they never match the route.
	if recorder.Code == http.StatusOK {
		t.Fatal("platform token must not authenticate shop routes")
	}
}
