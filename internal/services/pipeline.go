package services

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"place-swipe-backend/internal/graph"
	"place-swipe-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// unknownName is the sentinel placeholder for locations whose metadata never
// resolved properly; such locations are never surfaced.
const unknownName = "Unknown place"

// SwipeLedger is the append-only record of swipe decisions.
type SwipeLedger interface {
	RecordSwipe(ctx context.Context, decision *models.SwipeDecision) error
	GetSwiped(ctx context.Context, viewerID string) (map[string]struct{}, error)
}

// SavedStore provides access to saved-location facts.
type SavedStore interface {
	SaveLocation(ctx context.Context, userID, locationID string) error
	GetSavedByUsers(ctx context.Context, userIDs []string, limit int) ([]models.SavedLocation, error)
	GetSavedByViewer(ctx context.Context, viewerID string) (map[string]struct{}, error)
}

// LocationResolver resolves location ids to metadata.
type LocationResolver interface {
	Resolve(ctx context.Context, ids []string) (map[string]models.LocationInfo, error)
}

// PhotoSigner turns stored photo object keys into fetchable URLs.
type PhotoSigner interface {
	SignedURL(ctx context.Context, key string) (string, error)
}

// PageState distinguishes why a page may be empty.
type PageState string

const (
	// PageOK means the page carries candidates.
	PageOK PageState = "ok"
	// PageGraphEmpty means the viewer follows no one. Terminal until the
	// viewer follows someone; not an error.
	PageGraphEmpty PageState = "graph_empty"
	// PageExhausted means the viewer follows people but no eligible
	// candidate remains under the active filter.
	PageExhausted PageState = "exhausted"
	// PageDegraded means a fetch failed while assembling the page; the
	// page is best-effort partial or empty and Notice carries the reason.
	PageDegraded PageState = "degraded"
)

// Page is one finite pipeline result. Each build reflects current ledger
// state; pages are not restartable.
type Page struct {
	Candidates []models.Candidate `json:"candidates"`
	State      PageState          `json:"state"`
	Notice     string             `json:"notice,omitempty"`
}

// Pipeline builds ordered candidate pages for a viewer by joining the follow
// graph, the swipe ledger, saved-location facts and location metadata.
type Pipeline struct {
	graph     graph.Client
	ledger    SwipeLedger
	saved     SavedStore
	locations LocationResolver
	photos    PhotoSigner // optional

	pageSize   int
	fetchLimit int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPipeline creates a new candidate pipeline
func NewPipeline(
	graphClient graph.Client,
	ledger SwipeLedger,
	saved SavedStore,
	locations LocationResolver,
	photos PhotoSigner,
	pageSize, fetchLimit int,
) *Pipeline {
	return &Pipeline{
		graph:      graphClient,
		ledger:     ledger,
		saved:      saved,
		locations:  locations,
		photos:     photos,
		pageSize:   pageSize,
		fetchLimit: fetchLimit,
		rng:        rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
}

// Seed makes page shuffling deterministic
func (p *Pipeline) Seed(seed uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rng = rand.New(rand.NewPCG(seed, 0))
}

// candidateGroup accumulates savers of one location in first-seen order.
type candidateGroup struct {
	locationID string
	savers     []models.Saver
	seen       map[string]struct{}
}

// BuildPage assembles one page of candidates for the viewer. It never returns
// an error: any fetch failure is logged once and the page degrades to
// whatever could be assembled.
func (p *Pipeline) BuildPage(ctx context.Context, viewerID string, filter models.Filter) Page {
	following, err := p.graph.Following(ctx, viewerID)
	if err != nil {
		log.Warn().Err(err).Str("viewer_id", viewerID).Msg("Failed to resolve follow set")
		return Page{State: PageDegraded, Notice: "could not load your follow list"}
	}
	if len(following) == 0 {
		return Page{State: PageGraphEmpty}
	}

	memberIDs := make([]string, 0, len(following))
	memberByID := make(map[string]graph.Member, len(following))
	for _, member := range following {
		memberIDs = append(memberIDs, member.UserID)
		memberByID[member.UserID] = member
	}

	saves, err := p.saved.GetSavedByUsers(ctx, memberIDs, p.fetchLimit)
	if err != nil {
		log.Warn().Err(err).Str("viewer_id", viewerID).Msg("Failed to fetch followed saves")
		return Page{State: PageDegraded, Notice: "could not load recommendations"}
	}

	swiped, err := p.ledger.GetSwiped(ctx, viewerID)
	if err != nil {
		log.Warn().Err(err).Str("viewer_id", viewerID).Msg("Failed to fetch swipe history")
		return Page{State: PageDegraded, Notice: "could not load recommendations"}
	}
	ownSaves, err := p.saved.GetSavedByViewer(ctx, viewerID)
	if err != nil {
		log.Warn().Err(err).Str("viewer_id", viewerID).Msg("Failed to fetch viewer saves")
		return Page{State: PageDegraded, Notice: "could not load recommendations"}
	}

	// Group saves by location in first-seen order, merging saver lists so
	// each distinct location yields exactly one candidate.
	var order []string
	groups := make(map[string]*candidateGroup)
	for _, save := range saves {
		if _, ok := swiped[save.LocationID]; ok {
			continue
		}
		if _, ok := ownSaves[save.LocationID]; ok {
			continue
		}
		group, ok := groups[save.LocationID]
		if !ok {
			group = &candidateGroup{
				locationID: save.LocationID,
				seen:       make(map[string]struct{}),
			}
			groups[save.LocationID] = group
			order = append(order, save.LocationID)
		}
		if _, dup := group.seen[save.UserID]; dup {
			continue
		}
		group.seen[save.UserID] = struct{}{}
		member := memberByID[save.UserID]
		group.savers = append(group.savers, models.Saver{
			UserID:    member.UserID,
			Username:  member.Username,
			AvatarURL: member.AvatarURL,
		})
	}

	if len(order) == 0 {
		return Page{State: PageExhausted}
	}

	resolved, err := p.locations.Resolve(ctx, order)
	if err != nil {
		log.Warn().Err(err).Str("viewer_id", viewerID).Msg("Failed to resolve location metadata")
		return Page{State: PageDegraded, Notice: "could not load place details"}
	}

	candidates := make([]models.Candidate, 0, len(order))
	for _, locationID := range order {
		info, ok := resolved[locationID]
		if !ok || info.Name == "" || info.Name == unknownName {
			continue
		}
		candidate := models.Candidate{
			ID:            locationID,
			Name:          info.Name,
			Category:      info.Category,
			City:          info.City,
			Coordinates:   info.Coordinates,
			Photos:        info.Photos,
			FallbackImage: info.FallbackImage,
			Savers:        groups[locationID].savers,
		}
		if !filter.Matches(candidate) {
			continue
		}
		candidates = append(candidates, candidate)
	}

	if len(candidates) == 0 {
		return Page{State: PageExhausted}
	}

	// Uniform shuffle prevents popularity bias and re-showing the same head
	// of queue across repeated builds within a session.
	p.mu.Lock()
	p.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	p.mu.Unlock()

	if len(candidates) > p.pageSize {
		candidates = candidates[:p.pageSize]
	}

	p.signPhotos(ctx, candidates)

	return Page{Candidates: candidates, State: PageOK}
}

// signPhotos replaces stored photo keys with signed URLs, best effort. A key
// that fails to sign is dropped rather than surfaced broken.
func (p *Pipeline) signPhotos(ctx context.Context, candidates []models.Candidate) {
	if p.photos == nil {
		return
	}
	for i := range candidates {
		signed := make([]string, 0, len(candidates[i].Photos))
		for _, key := range candidates[i].Photos {
			url, err := p.photos.SignedURL(ctx, key)
			if err != nil {
				log.Warn().Err(err).Str("photo_key", key).Msg("Failed to sign photo URL")
				continue
			}
			signed = append(signed, url)
		}
		candidates[i].Photos = signed
	}
}
