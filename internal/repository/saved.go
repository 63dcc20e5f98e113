package repository

import (
	"context"
	"fmt"
	"time"

	"place-swipe-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SavedLocationRepository handles database operations for saved locations
type SavedLocationRepository struct {
	db *pgxpool.Pool
}

// NewSavedLocationRepository creates a new saved-location repository
func NewSavedLocationRepository(db *pgxpool.Pool) *SavedLocationRepository {
	return &SavedLocationRepository{db: db}
}

// SaveLocation records that a user saved a location
func (r *SavedLocationRepository) SaveLocation(ctx context.Context, userID, locationID string) error {
	query := `
		INSERT INTO saved_locations (user_id, location_id, saved_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, location_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, userID, locationID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save location: %w", err)
	}
	return nil
}

// GetSavedByUsers retrieves the most recent saved-location facts for a set of
// users, most recent first, capped at limit
func (r *SavedLocationRepository) GetSavedByUsers(ctx context.Context, userIDs []string, limit int) ([]models.SavedLocation, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT user_id, location_id, saved_at
		FROM saved_locations
		WHERE user_id = ANY($1)
		ORDER BY saved_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get saved locations: %w", err)
	}
	defer rows.Close()

	var saves []models.SavedLocation
	for rows.Next() {
		var save models.SavedLocation
		if err := rows.Scan(&save.UserID, &save.LocationID, &save.SavedAt); err != nil {
			return nil, fmt.Errorf("failed to scan saved location: %w", err)
		}
		saves = append(saves, save)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating saved locations: %w", err)
	}

	return saves, nil
}

// GetSavedByViewer retrieves the set of location ids a viewer has saved
func (r *SavedLocationRepository) GetSavedByViewer(ctx context.Context, viewerID string) (map[string]struct{}, error) {
	query := `SELECT location_id FROM saved_locations WHERE user_id = $1`
	rows, err := r.db.Query(ctx, query, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get viewer saves: %w", err)
	}
	defer rows.Close()

	saved := make(map[string]struct{})
	for rows.Next() {
		var locationID string
		if err := rows.Scan(&locationID); err != nil {
			return nil, fmt.Errorf("failed to scan viewer save: %w", err)
		}
		saved[locationID] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating viewer saves: %w", err)
	}

	return saved, nil
}
