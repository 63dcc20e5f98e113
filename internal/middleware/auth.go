package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"place-swipe-backend/internal/services"
)

type contextKey string

const viewerIDKey contextKey = "viewer_id"

// AuthMiddleware authenticates the viewer from the JWT bearer token and puts
// the viewer id on the request context.
func AuthMiddleware(userService *services.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			viewerID, err := userService.ValidateJWT(parts[1])
			if err != nil {
				respondError(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), viewerIDKey, viewerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetViewerID extracts the authenticated viewer id from the context.
func GetViewerID(ctx context.Context) string {
	viewerID, ok := ctx.Value(viewerIDKey).(string)
	if !ok {
		return ""
	}
	return viewerID
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write([]byte(`{"error":"` + message + `"}`))
}

// ValidateWebSocketToken authenticates the swipe-session token passed as a
// query parameter, since browsers cannot set headers on WebSocket dials.
func ValidateWebSocketToken(token string, userService *services.UserService) (string, error) {
	if token == "" {
		return "", fmt.Errorf("token required")
	}
	return userService.ValidateJWT(token)
}
