package services

import (
	"context"
	"fmt"
	"time"

	"place-swipe-backend/internal/graph"
	"place-swipe-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// UserDirectory is the slice of the user store the commit service needs.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Pusher delivers a best-effort push notification.
type Pusher interface {
	SavedAlert(deviceToken, saverName, locationName string) error
}

// CommitService turns a committed gesture outcome into durable writes. It is
// the only writer of the swipe ledger. The swipe record always lands before
// the saved-location record; if the swipe record fails nothing else is
// attempted and the whole commit aborts.
type CommitService struct {
	ledger SwipeLedger
	saved  SavedStore
	users  UserDirectory
	graph  graph.Client
	hub    *WSHub // optional
	pusher Pusher // optional
}

// NewCommitService creates a new swipe commit service
func NewCommitService(
	ledger SwipeLedger,
	saved SavedStore,
	users UserDirectory,
	graphClient graph.Client,
	hub *WSHub,
	pusher Pusher,
) *CommitService {
	return &CommitService{
		ledger: ledger,
		saved:  saved,
		users:  users,
		graph:  graphClient,
		hub:    hub,
		pusher: pusher,
	}
}

// Commit durably records the decision.
//
// A ErrLedgerWrite result means nothing was written: the card must be
// restored and the user can retry. A ErrSaveWrite result means the swipe
// record exists but the save did not take: the location will not reappear in
// future pages even though it was not saved, and the caller must surface that
// distinctly.
func (s *CommitService) Commit(ctx context.Context, viewerID string, candidate models.Candidate, direction models.Direction) error {
	decision := &models.SwipeDecision{
		ID:         uuid.New().String(),
		ViewerID:   viewerID,
		LocationID: candidate.ID,
		Direction:  direction,
		CreatedAt:  time.Now(),
	}
	if err := s.ledger.RecordSwipe(ctx, decision); err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerWrite, err)
	}

	if direction == models.DirectionSave {
		if err := s.saved.SaveLocation(ctx, viewerID, candidate.ID); err != nil {
			return fmt.Errorf("%w: %v", ErrSaveWrite, err)
		}
		go s.notifyFollowers(viewerID, candidate)
	}

	log.Info().
		Str("viewer_id", viewerID).
		Str("location_id", candidate.ID).
		Str("direction", string(direction)).
		Msg("Swipe committed")

	return nil
}

// notifyFollowers fans a save out to the saver's followers: a realtime event
// for connected clients and an APNs push for the rest. Advisory only; any
// failure is logged and dropped.
func (s *CommitService) notifyFollowers(saverID string, candidate models.Candidate) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	saver, err := s.users.GetByID(ctx, saverID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", saverID).Msg("Failed to load saver for notification")
		return
	}

	followers, err := s.graph.Followers(ctx, saverID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", saverID).Msg("Failed to load followers for notification")
		return
	}

	event := WSMessage{
		Type:         MessageFollowedSaved,
		SaverID:      saver.ID,
		SaverName:    saver.Username,
		LocationID:   candidate.ID,
		LocationName: candidate.Name,
		Timestamp:    time.Now().UnixMilli(),
	}

	for _, followerID := range followers {
		if s.hub != nil {
			s.hub.NotifyFollowedSaved(followerID, event)
		}
		if s.pusher == nil {
			continue
		}
		follower, err := s.users.GetByID(ctx, followerID)
		if err != nil || follower.PushToken == nil {
			continue
		}
		if err := s.pusher.SavedAlert(*follower.PushToken, saver.Username, candidate.Name); err != nil {
			log.Warn().Err(err).Str("user_id", followerID).Msg("Failed to send save push")
		}
	}
}
