package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// NewNeo4jClient establishes a Bolt connection using the official Neo4j driver.
func NewNeo4jClient(ctx context.Context, opts Options) (Client, error) {
	if opts.URI == "" {
		return nil, ErrMissingURI
	}

	auth := neo4j.NoAuth()
	if opts.Username != "" {
		auth = neo4j.BasicAuth(opts.Username, opts.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(opts.URI, auth, func(c *neo4j.Config) {
		if opts.MaxConnections > 0 {
			c.MaxConnectionPoolSize = opts.MaxConnections
		}
	})
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify graph connectivity: %w", err)
	}

	return &neo4jClient{
		driver:   driver,
		database: opts.Database,
	}, nil
}

type neo4jClient struct {
	driver   neo4j.DriverWithContext
	database string
}

func (c *neo4jClient) Following(ctx context.Context, viewerID string) ([]Member, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	res, err := session.Run(ctx, `
		MATCH (:User {id: $viewer_id})-[:FOLLOWS]->(u:User)
		RETURN u.id AS user_id, u.username AS username, u.avatar_url AS avatar_url
	`, map[string]any{"viewer_id": viewerID})
	if err != nil {
		return nil, fmt.Errorf("query following: %w", err)
	}

	var members []Member
	for res.Next(ctx) {
		rec := res.Record()
		members = append(members, Member{
			UserID:    stringValue(rec, "user_id"),
			Username:  stringValue(rec, "username"),
			AvatarURL: stringValue(rec, "avatar_url"),
		})
	}
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("iterate following: %w", err)
	}
	return members, nil
}

func (c *neo4jClient) Followers(ctx context.Context, userID string) ([]string, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	res, err := session.Run(ctx, `
		MATCH (u:User)-[:FOLLOWS]->(:User {id: $user_id})
		RETURN u.id AS user_id
	`, map[string]any{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("query followers: %w", err)
	}

	var ids []string
	for res.Next(ctx) {
		ids = append(ids, stringValue(res.Record(), "user_id"))
	}
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("iterate followers: %w", err)
	}
	return ids, nil
}

func (c *neo4jClient) Follow(ctx context.Context, viewerID string, target Member) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer session.Close(ctx)

	_, err := session.Run(ctx, `
		MERGE (v:User {id: $viewer_id})
		MERGE (t:User {id: $target_id})
		SET t.username = $username, t.avatar_url = $avatar_url
		MERGE (v)-[:FOLLOWS]->(t)
	`, map[string]any{
		"viewer_id":  viewerID,
		"target_id":  target.UserID,
		"username":   target.Username,
		"avatar_url": target.AvatarURL,
	})
	if err != nil {
		return fmt.Errorf("create follow edge: %w", err)
	}
	return nil
}

func (c *neo4jClient) Unfollow(ctx context.Context, viewerID, targetID string) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer session.Close(ctx)

	_, err := session.Run(ctx, `
		MATCH (:User {id: $viewer_id})-[f:FOLLOWS]->(:User {id: $target_id})
		DELETE f
	`, map[string]any{"viewer_id": viewerID, "target_id": targetID})
	if err != nil {
		return fmt.Errorf("delete follow edge: %w", err)
	}
	return nil
}

func (c *neo4jClient) VerifyConnectivity(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

func (c *neo4jClient) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

func stringValue(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
