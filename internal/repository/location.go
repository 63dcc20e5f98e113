package repository

import (
	"context"
	"fmt"

	"place-swipe-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LocationRepository handles database operations for location metadata
type LocationRepository struct {
	db *pgxpool.Pool
}

// NewLocationRepository creates a new location repository
func NewLocationRepository(db *pgxpool.Pool) *LocationRepository {
	return &LocationRepository{db: db}
}

// Resolve retrieves metadata for a set of location ids. Ids with no stored
// metadata are absent from the returned map.
func (r *LocationRepository) Resolve(ctx context.Context, ids []string) (map[string]models.LocationInfo, error) {
	if len(ids) == 0 {
		return map[string]models.LocationInfo{}, nil
	}
	query := `
		SELECT id, name, category, city, lat, lng, photos, fallback_image
		FROM locations
		WHERE id = ANY($1)
	`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve locations: %w", err)
	}
	defer rows.Close()

	resolved := make(map[string]models.LocationInfo, len(ids))
	for rows.Next() {
		var info models.LocationInfo
		err := rows.Scan(
			&info.ID, &info.Name, &info.Category, &info.City,
			&info.Coordinates.Lat, &info.Coordinates.Lng,
			&info.Photos, &info.FallbackImage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		resolved[info.ID] = info
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locations: %w", err)
	}

	return resolved, nil
}
