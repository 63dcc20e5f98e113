package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"place-swipe-backend/internal/models"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// PageBuilder is the slice of the pipeline the deck depends on.
type PageBuilder interface {
	BuildPage(ctx context.Context, viewerID string, filter models.Filter) Page
}

const (
	replenishTimeout = 10 * time.Second

	// maxProcessed bounds the session-scoped retired-id set. When it fills
	// up it is reset: committed swipes are excluded by the ledger on every
	// later build anyway, the set only guards against a late page
	// re-surfacing a card within the session.
	maxProcessed = 1024
)

// DeckSnapshot is the view-model the deck exposes to the presentation layer.
type DeckSnapshot struct {
	Candidates []models.Candidate      `json:"candidates"`
	Index      int                     `json:"index"`
	PhotoIndex int                     `json:"photo_index"`
	State      PageState               `json:"state"`
	Notice     string                  `json:"notice,omitempty"`
	Categories []models.CategoryCount  `json:"categories"`
	Digests    []models.FollowerDigest `json:"digests"`
}

// Deck is the in-memory ordered stack of candidates visible to the gesture
// layer. It owns the stack cursor and the session-scoped set of retired ids,
// and it is the only place replenishment is triggered from.
type Deck struct {
	viewerID string
	pipeline PageBuilder
	lowWater int

	group singleflight.Group

	mu         sync.Mutex
	candidates []models.Candidate
	index      int
	photoIndex int
	filter     models.Filter
	generation uint64
	processed  map[string]struct{}
	state      PageState
	notice     string
	drained    bool
	categories []models.CategoryCount
	digests    []models.FollowerDigest
}

// NewDeck creates an empty deck for a viewer
func NewDeck(viewerID string, pipeline PageBuilder, lowWater int) *Deck {
	return &Deck{
		viewerID:  viewerID,
		pipeline:  pipeline,
		lowWater:  lowWater,
		processed: make(map[string]struct{}),
		state:     PageExhausted,
	}
}

// Load builds the first page for the current filter.
func (d *Deck) Load(ctx context.Context) DeckSnapshot {
	d.mu.Lock()
	filter := d.filter
	d.mu.Unlock()
	return d.SetFilter(ctx, filter)
}

// SetFilter atomically resets the cursor, invalidates any in-flight
// replenishment for the old filter and issues a fresh page build. A stale
// build arriving after the switch is discarded.
func (d *Deck) SetFilter(ctx context.Context, filter models.Filter) DeckSnapshot {
	d.mu.Lock()
	d.generation++
	gen := d.generation
	d.filter = filter
	d.index = 0
	d.photoIndex = 0
	d.candidates = nil
	d.drained = false
	d.mu.Unlock()

	page := d.pipeline.BuildPage(ctx, d.viewerID, filter)

	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.generation {
		return d.snapshotLocked()
	}
	d.state = page.State
	d.notice = page.Notice
	d.candidates = d.withoutProcessed(page.Candidates)
	d.index = 0
	d.photoIndex = 0
	if page.State != PageOK || len(d.candidates) == 0 {
		d.drained = true
	}
	d.recomputeLocked()
	return d.snapshotLocked()
}

// Current returns the candidate under the cursor.
func (d *Deck) Current() (models.Candidate, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.index >= len(d.candidates) {
		return models.Candidate{}, false
	}
	return d.candidates[d.index], true
}

// PhotoIndex returns the photo sub-cursor of the current card.
func (d *Deck) PhotoIndex() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.photoIndex
}

// StepPhoto moves the photo sub-cursor by delta, clamped to the current
// card's photo range. No wraparound.
func (d *Deck) StepPhoto(delta int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.index >= len(d.candidates) {
		return 0
	}
	next := d.photoIndex + delta
	if next < 0 {
		next = 0
	}
	if max := len(d.candidates[d.index].Photos) - 1; next > max {
		if max < 0 {
			max = 0
		}
		next = max
	}
	d.photoIndex = next
	return d.photoIndex
}

// RetireCurrent removes the candidate under the cursor, never to reappear in
// this session. The unretired sequence strictly shrinks by one. Replenishment
// is triggered when the remainder falls below the low-water mark.
func (d *Deck) RetireCurrent() (models.Candidate, bool) {
	d.mu.Lock()
	if d.index >= len(d.candidates) {
		d.mu.Unlock()
		return models.Candidate{}, false
	}

	retired := d.candidates[d.index]
	d.candidates = append(d.candidates[:d.index:d.index], d.candidates[d.index+1:]...)
	d.photoIndex = 0

	if len(d.processed) >= maxProcessed {
		d.processed = make(map[string]struct{})
	}
	d.processed[retired.ID] = struct{}{}

	d.decrementDigestsLocked(retired.Savers)
	d.categories = CategoryCounts(d.candidates[d.index:])

	var replenish bool
	var gen uint64
	var filter models.Filter
	if !d.drained && len(d.candidates)-d.index < d.lowWater {
		replenish = true
		gen = d.generation
		filter = d.filter
	}
	d.mu.Unlock()

	if replenish {
		go d.replenish(gen, filter)
	}
	return retired, true
}

// AppendPage merges a page into the stack, dropping anything already live or
// already retired this session. An empty stack is replaced wholesale.
func (d *Deck) AppendPage(candidates []models.Candidate) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.appendLocked(candidates)
}

// Snapshot returns the current view-model state.
func (d *Deck) Snapshot() DeckSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

// Filter returns the active filter.
func (d *Deck) Filter() models.Filter {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.filter
}

// replenish fetches another page for the given filter generation. Concurrent
// triggers for the same filter coalesce into a single in-flight build.
func (d *Deck) replenish(gen uint64, filter models.Filter) {
	v, _, _ := d.group.Do(filter.Key(), func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), replenishTimeout)
		defer cancel()
		return d.pipeline.BuildPage(ctx, d.viewerID, filter), nil
	})
	page := v.(Page)

	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.generation {
		log.Debug().Str("viewer_id", d.viewerID).Msg("Discarding stale replenishment page")
		return
	}
	if page.Notice != "" {
		d.notice = page.Notice
	}
	added := d.appendLocked(page.Candidates)
	if added == 0 {
		// Nothing new for this filter; stop re-triggering until the
		// filter changes.
		d.drained = true
		if d.index >= len(d.candidates) && d.state == PageOK {
			d.state = page.State
		}
	}
}

func (d *Deck) appendLocked(candidates []models.Candidate) int {
	live := make(map[string]struct{}, len(d.candidates))
	for _, c := range d.candidates {
		live[c.ID] = struct{}{}
	}

	kept := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := d.processed[c.ID]; ok {
			continue
		}
		if _, ok := live[c.ID]; ok {
			continue
		}
		live[c.ID] = struct{}{}
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		return 0
	}

	if len(d.candidates)-d.index == 0 {
		d.candidates = kept
		d.index = 0
		d.photoIndex = 0
	} else {
		d.candidates = append(d.candidates, kept...)
	}
	d.state = PageOK
	d.recomputeLocked()
	return len(kept)
}

// withoutProcessed filters out ids retired earlier in this session.
func (d *Deck) withoutProcessed(candidates []models.Candidate) []models.Candidate {
	kept := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := d.processed[c.ID]; ok {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// recomputeLocked rebuilds both facets wholesale from the unretired sequence.
func (d *Deck) recomputeLocked() {
	remaining := d.candidates[d.index:]
	d.categories = CategoryCounts(remaining)
	d.digests = FollowerDigests(remaining)
}

// decrementDigestsLocked drops the retired card's savers by one each.
func (d *Deck) decrementDigestsLocked(savers []models.Saver) {
	kept := d.digests[:0]
	for _, digest := range d.digests {
		for _, saver := range savers {
			if saver.UserID == digest.UserID {
				digest.Remaining--
				break
			}
		}
		if digest.Remaining > 0 {
			kept = append(kept, digest)
		}
	}
	d.digests = kept
	sort.Slice(d.digests, func(i, j int) bool {
		if d.digests[i].Remaining != d.digests[j].Remaining {
			return d.digests[i].Remaining > d.digests[j].Remaining
		}
		return d.digests[i].Username < d.digests[j].Username
	})
}

func (d *Deck) snapshotLocked() DeckSnapshot {
	remaining := append([]models.Candidate(nil), d.candidates[d.index:]...)
	state := d.state
	if state == PageOK && len(remaining) == 0 {
		state = PageExhausted
	}
	return DeckSnapshot{
		Candidates: remaining,
		Index:      d.index,
		PhotoIndex: d.photoIndex,
		State:      state,
		Notice:     d.notice,
		Categories: append([]models.CategoryCount(nil), d.categories...),
		Digests:    append([]models.FollowerDigest(nil), d.digests...),
	}
}
