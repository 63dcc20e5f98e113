package models

import "time"

// Direction is the committed outcome of a swipe.
type Direction string

const (
	DirectionPass Direction = "pass"
	DirectionSave Direction = "save"
)

// Valid reports whether d is a known swipe direction.
func (d Direction) Valid() bool {
	return d == DirectionPass || d == DirectionSave
}

// Category is the fixed set of location categories.
type Category string

const (
	CategoryRestaurant Category = "restaurant"
	CategoryCafe       Category = "cafe"
	CategoryBar        Category = "bar"
	CategoryPark       Category = "park"
	CategoryMuseum     Category = "museum"
	CategoryShopping   Category = "shopping"
	CategoryHotel      Category = "hotel"
	CategoryOther      Category = "other"
)

// Categories lists every allowed category.
func Categories() []Category {
	return []Category{
		CategoryRestaurant, CategoryCafe, CategoryBar, CategoryPark,
		CategoryMuseum, CategoryShopping, CategoryHotel, CategoryOther,
	}
}

// Valid reports whether c is in the allowed set.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Coordinates is a geographic point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Saver is a followed user who saved a location.
type Saver struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Candidate is a location surfaced for swiping. It exists only because at
// least one followed user saved it, so Savers is non-empty by construction.
type Candidate struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Category      Category    `json:"category"`
	City          string      `json:"city"`
	Coordinates   Coordinates `json:"coordinates"`
	Photos        []string    `json:"photos"`
	FallbackImage string      `json:"fallback_image,omitempty"`
	Savers        []Saver     `json:"savers"`
}

// SwipeDecision is one append-only row in the swipe ledger.
type SwipeDecision struct {
	ID         string    `json:"id"`
	ViewerID   string    `json:"viewer_id"`
	LocationID string    `json:"location_id"`
	Direction  Direction `json:"direction"`
	CreatedAt  time.Time `json:"created_at"`
}

// SavedLocation is one saved-location fact.
type SavedLocation struct {
	UserID     string    `json:"user_id"`
	LocationID string    `json:"location_id"`
	SavedAt    time.Time `json:"saved_at"`
}

// LocationInfo is resolved metadata for a location.
type LocationInfo struct {
	ID            string
	Name          string
	Category      Category
	City          string
	Coordinates   Coordinates
	Photos        []string
	FallbackImage string
}

// FollowerDigest is the live per-follower remaining count over the current
// candidate set.
type FollowerDigest struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Remaining int    `json:"remaining"`
}

// CategoryCount is one entry of the category facet.
type CategoryCount struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
}

// Filter narrows the candidate set to one category, one follower, or both.
// The zero value means no filtering.
type Filter struct {
	Category   Category `json:"category,omitempty"`
	FollowerID string   `json:"follower_id,omitempty"`
}

// Key returns a stable identity for the filter, used to serialize
// replenishment requests per filter state.
func (f Filter) Key() string {
	return "category=" + string(f.Category) + "&follower=" + f.FollowerID
}

// Matches reports whether a candidate survives the filter.
func (f Filter) Matches(c Candidate) bool {
	if f.Category != "" && c.Category != f.Category {
		return false
	}
	if f.FollowerID != "" {
		for _, s := range c.Savers {
			if s.UserID == f.FollowerID {
				return true
			}
		}
		return false
	}
	return true
}

// User represents a user account.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Token     string    `json:"token"`
	PushToken *string   `json:"push_token,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
