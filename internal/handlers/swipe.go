package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"place-swipe-backend/internal/middleware"
	"place-swipe-backend/internal/models"
	"place-swipe-backend/internal/services"
)

// SwipeHandler handles direct swipe commits for non-gesture clients.
type SwipeHandler struct {
	commits *services.CommitService
}

// NewSwipeHandler creates a new swipe handler
func NewSwipeHandler(commits *services.CommitService) *SwipeHandler {
	return &SwipeHandler{commits: commits}
}

// SwipeRequest is the body of POST /swipes
type SwipeRequest struct {
	LocationID   string           `json:"location_id"`
	LocationName string           `json:"location_name"`
	Direction    models.Direction `json:"direction"`
}

// CreateSwipe handles POST /swipes
func (h *SwipeHandler) CreateSwipe(w http.ResponseWriter, r *http.Request) {
	viewerID := middleware.GetViewerID(r.Context())

	var req SwipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.LocationID == "" {
		respondError(w, "location_id is required", http.StatusBadRequest)
		return
	}
	if !req.Direction.Valid() {
		respondError(w, "direction must be pass or save", http.StatusBadRequest)
		return
	}

	candidate := models.Candidate{ID: req.LocationID, Name: req.LocationName}
	err := h.commits.Commit(r.Context(), viewerID, candidate, req.Direction)
	if errors.Is(err, services.ErrLedgerWrite) {
		respondError(w, "Could not process swipe, try again", http.StatusServiceUnavailable)
		return
	}
	if errors.Is(err, services.ErrSaveWrite) {
		respondError(w, "Could not save this place; it will not be suggested again", http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]bool{"ok": true}, http.StatusCreated)
}
