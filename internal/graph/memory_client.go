package graph

import (
	"context"
	"sync"
)

// MemoryClient is a simple in-memory implementation of the Client interface
// used for unit testing feed logic without requiring a running graph database.
type MemoryClient struct {
	mu        sync.Mutex
	following map[string][]Member
	err       error
}

// NewMemoryClient instantiates the in-memory client.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{following: make(map[string][]Member)}
}

// WithError configures the client to return the provided error for subsequent
// calls.
func (m *MemoryClient) WithError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

func (m *MemoryClient) Following(_ context.Context, viewerID string) ([]Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]Member(nil), m.following[viewerID]...), nil
}

func (m *MemoryClient) Followers(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var ids []string
	for viewer, members := range m.following {
		for _, member := range members {
			if member.UserID == userID {
				ids = append(ids, viewer)
				break
			}
		}
	}
	return ids, nil
}

func (m *MemoryClient) Follow(_ context.Context, viewerID string, target Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, member := range m.following[viewerID] {
		if member.UserID == target.UserID {
			return nil
		}
	}
	m.following[viewerID] = append(m.following[viewerID], target)
	return nil
}

func (m *MemoryClient) Unfollow(_ context.Context, viewerID, targetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	members := m.following[viewerID]
	for i, member := range members {
		if member.UserID == targetID {
			m.following[viewerID] = append(members[:i:i], members[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *MemoryClient) VerifyConnectivity(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *MemoryClient) Close(context.Context) error {
	return nil
}
