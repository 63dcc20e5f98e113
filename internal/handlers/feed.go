package handlers

import (
	"net/http"

	"place-swipe-backend/internal/middleware"
	"place-swipe-backend/internal/models"
	"place-swipe-backend/internal/services"
)

// FeedHandler serves discovery feed pages over plain HTTP for clients that do
// not hold a gesture session.
type FeedHandler struct {
	pipeline services.PageBuilder
}

// NewFeedHandler creates a new feed handler
func NewFeedHandler(pipeline services.PageBuilder) *FeedHandler {
	return &FeedHandler{pipeline: pipeline}
}

// FeedResponse is the body of GET /feed
type FeedResponse struct {
	State      services.PageState      `json:"state"`
	Notice     string                  `json:"notice,omitempty"`
	Candidates []models.Candidate      `json:"candidates"`
	Categories []models.CategoryCount  `json:"categories"`
	Digests    []models.FollowerDigest `json:"digests"`
}

// GetFeed handles GET /feed?category=&follower=
func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	viewerID := middleware.GetViewerID(r.Context())

	filter := models.Filter{
		Category:   models.Category(r.URL.Query().Get("category")),
		FollowerID: r.URL.Query().Get("follower"),
	}
	if filter.Category != "" && !filter.Category.Valid() {
		respondError(w, "unknown category", http.StatusBadRequest)
		return
	}

	page := h.pipeline.BuildPage(r.Context(), viewerID, filter)

	respondJSON(w, FeedResponse{
		State:      page.State,
		Notice:     page.Notice,
		Candidates: page.Candidates,
		Categories: services.CategoryCounts(page.Candidates),
		Digests:    services.FollowerDigests(page.Candidates),
	}, http.StatusOK)
}

// DigestsResponse is the body of GET /digests
type DigestsResponse struct {
	State   services.PageState      `json:"state"`
	Digests []models.FollowerDigest `json:"digests"`
}

// GetDigests handles GET /digests
func (h *FeedHandler) GetDigests(w http.ResponseWriter, r *http.Request) {
	viewerID := middleware.GetViewerID(r.Context())

	page := h.pipeline.BuildPage(r.Context(), viewerID, models.Filter{})

	respondJSON(w, DigestsResponse{
		State:   page.State,
		Digests: services.FollowerDigests(page.Candidates),
	}, http.StatusOK)
}
