package handlers

import (
	"encoding/json"
	"net/http"

	"place-swipe-backend/internal/graph"
	"place-swipe-backend/internal/middleware"
	"place-swipe-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// FollowHandler manages follow edges in the social graph.
type FollowHandler struct {
	graph       graph.Client
	userService *services.UserService
}

// NewFollowHandler creates a new follow handler
func NewFollowHandler(graphClient graph.Client, userService *services.UserService) *FollowHandler {
	return &FollowHandler{graph: graphClient, userService: userService}
}

// FollowRequest is the body of POST /follows
type FollowRequest struct {
	UserID string `json:"user_id"`
}

// CreateFollow handles POST /follows
func (h *FollowHandler) CreateFollow(w http.ResponseWriter, r *http.Request) {
	viewerID := middleware.GetViewerID(r.Context())

	var req FollowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		respondError(w, "user_id is required", http.StatusBadRequest)
		return
	}
	if req.UserID == viewerID {
		respondError(w, "cannot follow yourself", http.StatusBadRequest)
		return
	}

	target, err := h.userService.GetUser(r.Context(), req.UserID)
	if err != nil {
		respondError(w, "user not found", http.StatusNotFound)
		return
	}

	member := graph.Member{
		UserID:    target.ID,
		Username:  target.Username,
		AvatarURL: target.AvatarURL,
	}
	if err := h.graph.Follow(r.Context(), viewerID, member); err != nil {
		log.Error().Err(err).Str("viewer_id", viewerID).Str("target_id", req.UserID).Msg("Failed to create follow")
		respondError(w, "Failed to follow user", http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]bool{"ok": true}, http.StatusCreated)
}

// DeleteFollow handles DELETE /follows/{user_id}
func (h *FollowHandler) DeleteFollow(w http.ResponseWriter, r *http.Request) {
	viewerID := middleware.GetViewerID(r.Context())
	targetID := chi.URLParam(r, "user_id")
	if targetID == "" {
		respondError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	if err := h.graph.Unfollow(r.Context(), viewerID, targetID); err != nil {
		log.Error().Err(err).Str("viewer_id", viewerID).Str("target_id", targetID).Msg("Failed to delete follow")
		respondError(w, "Failed to unfollow user", http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]bool{"ok": true}, http.StatusOK)
}

// ListFollowing handles GET /follows
func (h *FollowHandler) ListFollowing(w http.ResponseWriter, r *http.Request) {
	viewerID := middleware.GetViewerID(r.Context())

	members, err := h.graph.Following(r.Context(), viewerID)
	if err != nil {
		log.Error().Err(err).Str("viewer_id", viewerID).Msg("Failed to list following")
		respondError(w, "Failed to load follow list", http.StatusInternalServerError)
		return
	}

	type followed struct {
		UserID    string `json:"user_id"`
		Username  string `json:"username"`
		AvatarURL string `json:"avatar_url,omitempty"`
	}
	out := make([]followed, 0, len(members))
	for _, m := range members {
		out = append(out, followed{UserID: m.UserID, Username: m.Username, AvatarURL: m.AvatarURL})
	}
	respondJSON(w, out, http.StatusOK)
}
