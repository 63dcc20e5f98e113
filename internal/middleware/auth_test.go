package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"place-swipe-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddlewarePutsViewerOnContext(t *testing.T) {
	userService := services.NewUserService(nil, "test-secret")
	token, err := userService.GenerateJWT("viewer-1")
	require.NoError(t, err)

	var got string
	handler := AuthMiddleware(userService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetViewerID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "viewer-1", got)
}

func TestAuthMiddlewareRejects(t *testing.T) {
	userService := services.NewUserService(nil, "test-secret")
	handler := AuthMiddleware(userService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run")
	}))

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"malformed header", "Token abc"},
		{"invalid token", "Bearer not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/feed", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestValidateWebSocketToken(t *testing.T) {
	userService := services.NewUserService(nil, "test-secret")
	token, err := userService.GenerateJWT("viewer-1")
	require.NoError(t, err)

	viewerID, err := ValidateWebSocketToken(token, userService)
	require.NoError(t, err)
	assert.Equal(t, "viewer-1", viewerID)

	_, err = ValidateWebSocketToken("", userService)
	assert.Error(t, err)
}

func TestGetViewerIDMissing(t *testing.T) {
	assert.Empty(t, GetViewerID(context.Background()))
}
