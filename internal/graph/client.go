package graph

import (
	"context"
	"errors"
)

// Client defines the contract the feed core requires from the social graph.
type Client interface {
	// Following returns every user the viewer follows.
	Following(ctx context.Context, viewerID string) ([]Member, error)
	// Followers returns the ids of every user following userID.
	Followers(ctx context.Context, userID string) ([]string, error)
	Follow(ctx context.Context, viewerID string, target Member) error
	Unfollow(ctx context.Context, viewerID, targetID string) error
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Member is a user node as stored in the graph.
type Member struct {
	UserID    string
	Username  string
	AvatarURL string
}

// Options configures a graph client implementation.
type Options struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

// ErrMissingURI indicates the graph URI is not provided.
var ErrMissingURI = errors.New("graph URI is required")
