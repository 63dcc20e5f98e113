package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryClientFollowAndFollowing(t *testing.T) {
	client := NewMemoryClient()
	ctx := context.Background()

	require.NoError(t, client.Follow(ctx, "viewer-1", Member{UserID: "user-a", Username: "alice"}))
	require.NoError(t, client.Follow(ctx, "viewer-1", Member{UserID: "user-b", Username: "bob"}))
	// Re-following is a no-op, not a duplicate edge.
	require.NoError(t, client.Follow(ctx, "viewer-1", Member{UserID: "user-a", Username: "alice"}))

	following, err := client.Following(ctx, "viewer-1")
	require.NoError(t, err)
	require.Len(t, following, 2)
	assert.Equal(t, "alice", following[0].Username)
	assert.Equal(t, "bob", following[1].Username)
}

func TestMemoryClientFollowers(t *testing.T) {
	client := NewMemoryClient()
	ctx := context.Background()

	require.NoError(t, client.Follow(ctx, "viewer-1", Member{UserID: "user-a"}))
	require.NoError(t, client.Follow(ctx, "viewer-2", Member{UserID: "user-a"}))
	require.NoError(t, client.Follow(ctx, "viewer-2", Member{UserID: "user-b"}))

	followers, err := client.Followers(ctx, "user-a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"viewer-1", "viewer-2"}, followers)

	followers, err = client.Followers(ctx, "user-b")
	require.NoError(t, err)
	assert.Equal(t, []string{"viewer-2"}, followers)
}

func TestMemoryClientUnfollow(t *testing.T) {
	client := NewMemoryClient()
	ctx := context.Background()

	require.NoError(t, client.Follow(ctx, "viewer-1", Member{UserID: "user-a"}))
	require.NoError(t, client.Unfollow(ctx, "viewer-1", "user-a"))
	// Unfollowing an absent edge is a no-op.
	require.NoError(t, client.Unfollow(ctx, "viewer-1", "user-a"))

	following, err := client.Following(ctx, "viewer-1")
	require.NoError(t, err)
	assert.Empty(t, following)
}

func TestMemoryClientWithError(t *testing.T) {
	boom := errors.New("graph down")
	client := NewMemoryClient().WithError(boom)
	ctx := context.Background()

	_, err := client.Following(ctx, "viewer-1")
	assert.ErrorIs(t, err, boom)
	_, err = client.Followers(ctx, "user-a")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, client.Follow(ctx, "viewer-1", Member{UserID: "user-a"}), boom)
	assert.ErrorIs(t, client.VerifyConnectivity(ctx), boom)
}
