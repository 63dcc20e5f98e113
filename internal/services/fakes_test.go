package services

import (
	"context"
	"errors"
	"sync"

	"place-swipe-backend/internal/models"
)

var errNotFound = errors.New("not found")

// fakeLedger is an in-memory SwipeLedger that records call order into an
// optional shared log.
type fakeLedger struct {
	mu        sync.Mutex
	decisions []models.SwipeDecision
	recordErr error
	swipedErr error
	callLog   *callLog
}

func (f *fakeLedger) RecordSwipe(_ context.Context, decision *models.SwipeDecision) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return f.recordErr
	}
	if f.callLog != nil {
		f.callLog.append("record_swipe")
	}
	f.decisions = append(f.decisions, *decision)
	return nil
}

func (f *fakeLedger) GetSwiped(_ context.Context, viewerID string) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.swipedErr != nil {
		return nil, f.swipedErr
	}
	swiped := make(map[string]struct{})
	for _, d := range f.decisions {
		if d.ViewerID == viewerID {
			swiped[d.LocationID] = struct{}{}
		}
	}
	return swiped, nil
}

// fakeSaved is an in-memory SavedStore.
type fakeSaved struct {
	mu          sync.Mutex
	saves       []models.SavedLocation
	saveErr     error
	byUsersErr  error
	byViewerErr error
	callLog     *callLog
}

func (f *fakeSaved) SaveLocation(_ context.Context, userID, locationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.callLog != nil {
		f.callLog.append("save_location")
	}
	f.saves = append(f.saves, models.SavedLocation{UserID: userID, LocationID: locationID})
	return nil
}

func (f *fakeSaved) GetSavedByUsers(_ context.Context, userIDs []string, limit int) ([]models.SavedLocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.byUsersErr != nil {
		return nil, f.byUsersErr
	}
	members := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		members[id] = struct{}{}
	}
	var out []models.SavedLocation
	for _, save := range f.saves {
		if _, ok := members[save.UserID]; !ok {
			continue
		}
		out = append(out, save)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeSaved) GetSavedByViewer(_ context.Context, viewerID string) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.byViewerErr != nil {
		return nil, f.byViewerErr
	}
	saved := make(map[string]struct{})
	for _, save := range f.saves {
		if save.UserID == viewerID {
			saved[save.LocationID] = struct{}{}
		}
	}
	return saved, nil
}

// fakeResolver is an in-memory LocationResolver.
type fakeResolver struct {
	infos map[string]models.LocationInfo
	err   error
}

func (f *fakeResolver) Resolve(_ context.Context, ids []string) (map[string]models.LocationInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	resolved := make(map[string]models.LocationInfo)
	for _, id := range ids {
		if info, ok := f.infos[id]; ok {
			resolved[id] = info
		}
	}
	return resolved, nil
}

// fakeUsers is a static UserDirectory.
type fakeUsers struct {
	users map[string]models.User
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	if user, ok := f.users[id]; ok {
		return &user, nil
	}
	return nil, errNotFound
}

// callLog records the order of store writes across fakes.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) append(op string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, op)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}
