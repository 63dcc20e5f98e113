package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"place-swipe-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBuilder serves scripted pages per filter key.
type stubBuilder struct {
	mu      sync.Mutex
	pages   map[string][]Page // filter key -> successive pages
	served  map[string]int
	calls   int
	barrier chan struct{} // when set, BuildPage blocks here for the "" key
}

func newStubBuilder() *stubBuilder {
	return &stubBuilder{
		pages:  make(map[string][]Page),
		served: make(map[string]int),
	}
}

func (s *stubBuilder) push(filter models.Filter, page Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[filter.Key()] = append(s.pages[filter.Key()], page)
}

func (s *stubBuilder) BuildPage(_ context.Context, _ string, filter models.Filter) Page {
	s.mu.Lock()
	s.calls++
	barrier := s.barrier
	s.mu.Unlock()

	if barrier != nil && filter.Key() == (models.Filter{}).Key() {
		<-barrier
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := filter.Key()
	queued := s.pages[key]
	if s.served[key] >= len(queued) {
		return Page{State: PageExhausted}
	}
	page := queued[s.served[key]]
	s.served[key]++
	return page
}

func candidate(id string, category models.Category, saverIDs ...string) models.Candidate {
	savers := make([]models.Saver, 0, len(saverIDs))
	for _, saverID := range saverIDs {
		savers = append(savers, models.Saver{UserID: saverID, Username: saverID})
	}
	return models.Candidate{
		ID:       id,
		Name:     "Place " + id,
		Category: category,
		Photos:   []string{"a.jpg", "b.jpg", "c.jpg"},
		Savers:   savers,
	}
}

func okPage(candidates ...models.Candidate) Page {
	return Page{Candidates: candidates, State: PageOK}
}

func TestDeckRetireShrinksByExactlyOne(t *testing.T) {
	builder := newStubBuilder()
	builder.push(models.Filter{}, okPage(
		candidate("a", models.CategoryCafe, "u1"),
		candidate("b", models.CategoryCafe, "u1"),
		candidate("c", models.CategoryBar, "u2"),
	))
	deck := NewDeck(viewer, builder, 0)
	deck.Load(context.Background())

	require.Len(t, deck.Snapshot().Candidates, 3)

	retired, ok := deck.RetireCurrent()
	require.True(t, ok)
	assert.Equal(t, "a", retired.ID)
	assert.Len(t, deck.Snapshot().Candidates, 2)

	current, ok := deck.Current()
	require.True(t, ok)
	assert.Equal(t, "b", current.ID)
}

func TestDeckRetiredNeverReappears(t *testing.T) {
	builder := newStubBuilder()
	builder.push(models.Filter{}, okPage(
		candidate("a", models.CategoryCafe, "u1"),
		candidate("b", models.CategoryCafe, "u1"),
	))
	deck := NewDeck(viewer, builder, 0)
	deck.Load(context.Background())

	_, ok := deck.RetireCurrent()
	require.True(t, ok)

	// A late page overlapping the retired id must not resurface it.
	added := deck.AppendPage([]models.Candidate{
		candidate("a", models.CategoryCafe, "u1"),
		candidate("c", models.CategoryBar, "u2"),
	})
	assert.Equal(t, 1, added)

	for _, c := range deck.Snapshot().Candidates {
		assert.NotEqual(t, "a", c.ID)
	}
}

func TestDeckAppendDeduplicatesLiveCards(t *testing.T) {
	builder := newStubBuilder()
	builder.push(models.Filter{}, okPage(candidate("a", models.CategoryCafe, "u1")))
	deck := NewDeck(viewer, builder, 0)
	deck.Load(context.Background())

	added := deck.AppendPage([]models.Candidate{
		candidate("a", models.CategoryCafe, "u1"),
		candidate("b", models.CategoryBar, "u2"),
		candidate("b", models.CategoryBar, "u2"),
	})
	assert.Equal(t, 1, added)
	assert.Len(t, deck.Snapshot().Candidates, 2)
}

func TestDeckAppendReplacesEmptyStack(t *testing.T) {
	builder := newStubBuilder()
	builder.push(models.Filter{}, okPage(candidate("a", models.CategoryCafe, "u1")))
	deck := NewDeck(viewer, builder, 0)
	deck.Load(context.Background())
	deck.RetireCurrent()
	require.Empty(t, deck.Snapshot().Candidates)

	deck.AppendPage([]models.Candidate{candidate("b", models.CategoryBar, "u2")})

	snapshot := deck.Snapshot()
	require.Len(t, snapshot.Candidates, 1)
	assert.Equal(t, 0, snapshot.Index)
	assert.Equal(t, "b", snapshot.Candidates[0].ID)
}

func TestDeckRetireResetsPhotoCursor(t *testing.T) {
	builder := newStubBuilder()
	builder.push(models.Filter{}, okPage(
		candidate("a", models.CategoryCafe, "u1"),
		candidate("b", models.CategoryCafe, "u1"),
	))
	deck := NewDeck(viewer, builder, 0)
	deck.Load(context.Background())

	assert.Equal(t, 2, deck.StepPhoto(2))
	deck.RetireCurrent()
	assert.Equal(t, 0, deck.PhotoIndex())
}

func TestDeckStepPhotoClampsWithoutWraparound(t *testing.T) {
	builder := newStubBuilder()
	builder.push(models.Filter{}, okPage(candidate("a", models.CategoryCafe, "u1")))
	deck := NewDeck(viewer, builder, 0)
	deck.Load(context.Background())

	assert.Equal(t, 0, deck.StepPhoto(-1), "stepping below zero must clamp")
	assert.Equal(t, 1, deck.StepPhoto(1))
	assert.Equal(t, 2, deck.StepPhoto(1))
	assert.Equal(t, 2, deck.StepPhoto(1), "stepping past the last photo must clamp")
}

func TestDeckReplenishesBelowLowWater(t *testing.T) {
	builder := newStubBuilder()
	builder.push(models.Filter{}, okPage(
		candidate("a", models.CategoryCafe, "u1"),
		candidate("b", models.CategoryCafe, "u1"),
		candidate("c", models.CategoryBar, "u2"),
	))
	builder.push(models.Filter{}, okPage(
		candidate("d", models.CategoryPark, "u1"),
		candidate("e", models.CategoryPark, "u2"),
	))
	deck := NewDeck(viewer, builder, 2)
	deck.Load(context.Background())

	deck.RetireCurrent() // 2 left, below low water of... not yet: 2 >= 2
	assert.Len(t, deck.Snapshot().Candidates, 2)

	deck.RetireCurrent() // 1 left, triggers replenishment
	require.Eventually(t, func() bool {
		return len(deck.Snapshot().Candidates) == 3
	}, time.Second, 5*time.Millisecond, "replenishment page never arrived")
}

func TestDeckReplenishStopsWhenDrained(t *testing.T) {
	builder := newStubBuilder()
	builder.push(models.Filter{}, okPage(
		candidate("a", models.CategoryCafe, "u1"),
		candidate("b", models.CategoryCafe, "u1"),
	))
	deck := NewDeck(viewer, builder, 2)
	deck.Load(context.Background())

	deck.RetireCurrent()
	require.Eventually(t, func() bool {
		builder.mu.Lock()
		defer builder.mu.Unlock()
		return builder.calls >= 2
	}, time.Second, 5*time.Millisecond)

	deck.RetireCurrent()
	time.Sleep(20 * time.Millisecond)

	builder.mu.Lock()
	calls := builder.calls
	builder.mu.Unlock()
	assert.Equal(t, 2, calls, "an exhausted filter must not be re-fetched")
}

func TestDeckSetFilterDiscardsStaleReplenishment(t *testing.T) {
	barrier := make(chan struct{})
	builder := newStubBuilder()
	builder.barrier = barrier
	builder.push(models.Filter{}, okPage(
		candidate("stale-1", models.CategoryCafe, "u1"),
		candidate("stale-2", models.CategoryCafe, "u1"),
	))
	barFilter := models.Filter{Category: models.CategoryBar}
	builder.push(barFilter, okPage(candidate("bar-1", models.CategoryBar, "u2")))

	deck := NewDeck(viewer, builder, 2)

	// Kick off a replenishment for the unfiltered deck; it blocks on the
	// barrier inside BuildPage.
	deck.AppendPage([]models.Candidate{candidate("seed", models.CategoryCafe, "u1")})
	deck.RetireCurrent()

	// Switch filters while the old build is still in flight.
	snapshot := deck.SetFilter(context.Background(), barFilter)
	require.Len(t, snapshot.Candidates, 1)
	assert.Equal(t, "bar-1", snapshot.Candidates[0].ID)

	close(barrier)
	time.Sleep(20 * time.Millisecond)

	for _, c := range deck.Snapshot().Candidates {
		assert.NotContains(t, []string{"stale-1", "stale-2"}, c.ID, "stale page was appended after filter switch")
	}
}

func TestDeckSetFilterResetsCursor(t *testing.T) {
	builder := newStubBuilder()
	builder.push(models.Filter{}, okPage(candidate("a", models.CategoryCafe, "u1")))
	cafeFilter := models.Filter{Category: models.CategoryCafe}
	builder.push(cafeFilter, okPage(candidate("b", models.CategoryCafe, "u1")))

	deck := NewDeck(viewer, builder, 0)
	deck.Load(context.Background())
	deck.StepPhoto(2)

	snapshot := deck.SetFilter(context.Background(), cafeFilter)
	assert.Equal(t, 0, snapshot.Index)
	assert.Equal(t, 0, snapshot.PhotoIndex)
	assert.Equal(t, cafeFilter, deck.Filter())
}

func TestDeckSnapshotStates(t *testing.T) {
	t.Run("graph empty", func(t *testing.T) {
		builder := newStubBuilder()
		builder.push(models.Filter{}, Page{State: PageGraphEmpty})
		deck := NewDeck(viewer, builder, 0)
		snapshot := deck.Load(context.Background())
		assert.Equal(t, PageGraphEmpty, snapshot.State)
	})

	t.Run("exhausted", func(t *testing.T) {
		builder := newStubBuilder()
		builder.push(models.Filter{}, Page{State: PageExhausted})
		deck := NewDeck(viewer, builder, 0)
		snapshot := deck.Load(context.Background())
		assert.Equal(t, PageExhausted, snapshot.State)
	})

	t.Run("ok then drained reads exhausted", func(t *testing.T) {
		builder := newStubBuilder()
		builder.push(models.Filter{}, okPage(candidate("a", models.CategoryCafe, "u1")))
		deck := NewDeck(viewer, builder, 0)
		deck.Load(context.Background())
		deck.RetireCurrent()
		assert.Equal(t, PageExhausted, deck.Snapshot().State)
	})
}

func TestDeckDigestsDecrementOnRetire(t *testing.T) {
	builder := newStubBuilder()
	builder.push(models.Filter{}, okPage(
		candidate("x", models.CategoryCafe, "user-a", "user-b"),
		candidate("y", models.CategoryCafe, "user-a"),
	))
	deck := NewDeck(viewer, builder, 0)
	deck.Load(context.Background())

	digests := deck.Snapshot().Digests
	require.Len(t, digests, 2)
	assert.Equal(t, "user-a", digests[0].UserID)
	assert.Equal(t, 2, digests[0].Remaining)
	assert.Equal(t, 1, digests[1].Remaining)

	deck.RetireCurrent() // retires x, saved by both

	digests = deck.Snapshot().Digests
	require.Len(t, digests, 1)
	assert.Equal(t, "user-a", digests[0].UserID)
	assert.Equal(t, 1, digests[0].Remaining)
}

func TestDeckCategoryFacetTracksRetirement(t *testing.T) {
	builder := newStubBuilder()
	builder.push(models.Filter{}, okPage(
		candidate("a", models.CategoryCafe, "u1"),
		candidate("b", models.CategoryCafe, "u1"),
		candidate("c", models.CategoryBar, "u1"),
	))
	deck := NewDeck(viewer, builder, 0)
	deck.Load(context.Background())

	counts := deck.Snapshot().Categories
	require.Len(t, counts, 2)
	assert.Equal(t, models.CategoryCafe, counts[0].Category)
	assert.Equal(t, 2, counts[0].Count)

	deck.RetireCurrent()

	counts = deck.Snapshot().Categories
	require.Len(t, counts, 2)
	for _, count := range counts {
		assert.Equal(t, 1, count.Count)
	}
}
