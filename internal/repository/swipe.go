package repository

import (
	"context"
	"fmt"

	"place-swipe-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SwipeRepository handles database operations for the append-only swipe ledger
type SwipeRepository struct {
	db *pgxpool.Pool
}

// NewSwipeRepository creates a new swipe repository
func NewSwipeRepository(db *pgxpool.Pool) *SwipeRepository {
	return &SwipeRepository{db: db}
}

// RecordSwipe appends a swipe decision. Decisions are never updated or deleted.
func (r *SwipeRepository) RecordSwipe(ctx context.Context, decision *models.SwipeDecision) error {
	query := `
		INSERT INTO swipes (id, viewer_id, location_id, direction, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query,
		decision.ID, decision.ViewerID, decision.LocationID, decision.Direction, decision.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record swipe: %w", err)
	}
	return nil
}

// GetSwiped retrieves the set of location ids the viewer has already swiped
func (r *SwipeRepository) GetSwiped(ctx context.Context, viewerID string) (map[string]struct{}, error) {
	query := `SELECT location_id FROM swipes WHERE viewer_id = $1`
	rows, err := r.db.Query(ctx, query, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get swiped locations: %w", err)
	}
	defer rows.Close()

	swiped := make(map[string]struct{})
	for rows.Next() {
		var locationID string
		if err := rows.Scan(&locationID); err != nil {
			return nil, fmt.Errorf("failed to scan swiped location: %w", err)
		}
		swiped[locationID] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating swiped locations: %w", err)
	}

	return swiped, nil
}
