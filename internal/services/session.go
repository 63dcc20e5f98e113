package services

import (
	"context"
	"errors"

	"place-swipe-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// Pointer event types accepted over the wire.
const (
	EventPointerDown = "pointer_down"
	EventPointerMove = "pointer_move"
	EventPointerUp   = "pointer_up"
	EventSetFilter   = "set_filter"
)

// PointerEvent is one raw input event from the client.
type PointerEvent struct {
	Type   string        `json:"type"`
	X      float64       `json:"x"`
	Y      float64       `json:"y"`
	Width  float64       `json:"width,omitempty"` // card width, sent on pointer_down
	Filter models.Filter `json:"filter"`
}

// Session drives one viewer's swipe deck: it feeds pointer events through the
// gesture controller, commits decisions, and produces the view-model messages
// the client renders. Events are handled serially on the connection's
// goroutine, mirroring a single-threaded UI event loop.
type Session struct {
	viewerID string
	deck     *Deck
	gesture  *GestureController
	commits  *CommitService
}

// NewSession creates a session over an already-constructed deck.
func NewSession(viewerID string, deck *Deck, gesture *GestureController, commits *CommitService) *Session {
	return &Session{
		viewerID: viewerID,
		deck:     deck,
		gesture:  gesture,
		commits:  commits,
	}
}

// Start loads the first page and returns the initial deck message.
func (s *Session) Start(ctx context.Context) WSMessage {
	snapshot := s.deck.Load(ctx)
	return deckMessage(snapshot)
}

// SetFilter switches the category/follower filter and rebuilds the deck.
func (s *Session) SetFilter(ctx context.Context, filter models.Filter) WSMessage {
	snapshot := s.deck.SetFilter(ctx, filter)
	return deckMessage(snapshot)
}

// RefreshDigests recomputes the follower digests. Called when a realtime
// followed-user-saved event arrives; advisory, never required for
// correctness.
func (s *Session) RefreshDigests() WSMessage {
	snapshot := s.deck.Snapshot()
	return WSMessage{Type: MessageDigests, Data: snapshot.Digests}
}

// HandlePointer advances the gesture state machine by one event and returns
// the messages to send, in order.
func (s *Session) HandlePointer(ctx context.Context, event PointerEvent) []WSMessage {
	switch event.Type {
	case EventPointerDown:
		candidate, ok := s.deck.Current()
		if !ok {
			return nil
		}
		s.gesture.Present(len(candidate.Photos), event.Width)
		frame := s.gesture.PointerDown(event.X, event.Y)
		return []WSMessage{{Type: MessageFrame, Frame: &frame}}

	case EventPointerMove:
		frame, ok := s.gesture.PointerMove(event.X, event.Y)
		if !ok {
			return nil
		}
		return []WSMessage{{Type: MessageFrame, Frame: &frame}}

	case EventPointerUp:
		return s.resolve(ctx, s.gesture.PointerUp(event.X, event.Y))

	default:
		return []WSMessage{{Type: MessageError, Message: "unknown event type"}}
	}
}

// resolve turns a pointer-up resolution into wire messages. The animation
// frame always precedes the outcome, so the client never learns of a commit
// without the commit animation.
func (s *Session) resolve(ctx context.Context, res Resolution) []WSMessage {
	messages := []WSMessage{{Type: MessageFrame, Frame: &res.Target}}

	switch res.Kind {
	case OutcomeSnapBack:
		return messages

	case OutcomeViewDetails:
		return append(messages, WSMessage{Type: MessageOutcome, Outcome: string(OutcomeViewDetails)})

	case OutcomePhotoStep:
		index := s.deck.StepPhoto(res.PhotoStep)
		return append(messages, WSMessage{
			Type:       MessageOutcome,
			Outcome:    string(OutcomePhotoStep),
			PhotoIndex: &index,
		})

	case OutcomePass, OutcomeSave:
		return s.commitDecision(ctx, res, messages)
	}

	return messages
}

func (s *Session) commitDecision(ctx context.Context, res Resolution, messages []WSMessage) []WSMessage {
	candidate, ok := s.deck.Current()
	if !ok {
		return append(messages, WSMessage{Type: MessageError, Message: "no card to swipe"})
	}

	direction := models.DirectionPass
	if res.Kind == OutcomeSave {
		direction = models.DirectionSave
	}

	err := s.commits.Commit(ctx, s.viewerID, candidate, direction)
	if errors.Is(err, ErrLedgerWrite) {
		// Whole commit aborted: restore the card to center, keep the stack.
		log.Error().Err(err).Str("viewer_id", s.viewerID).Msg("Swipe commit aborted")
		restore := animatedIdentity()
		return append(messages,
			WSMessage{Type: MessageFrame, Frame: &restore},
			WSMessage{Type: MessageError, Message: "could not process swipe, try again"},
		)
	}
	if errors.Is(err, ErrSaveWrite) {
		// Swipe recorded but save failed: location stays suppressed, card
		// still retires. Distinct message so the user understands.
		log.Error().Err(err).Str("viewer_id", s.viewerID).Msg("Save write failed after swipe record")
		messages = append(messages, WSMessage{Type: MessageError, Message: "could not save this place; it will not be suggested again"})
	}

	s.deck.RetireCurrent()
	snapshot := s.deck.Snapshot()
	messages = append(messages, WSMessage{
		Type:         MessageOutcome,
		Outcome:      string(res.Kind),
		LocationID:   candidate.ID,
		LocationName: candidate.Name,
	})
	return append(messages, deckMessage(snapshot))
}

func deckMessage(snapshot DeckSnapshot) WSMessage {
	return WSMessage{Type: MessageDeck, Deck: &snapshot}
}
