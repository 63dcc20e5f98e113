package services

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocket message types.
const (
	MessageDeck          = "deck"
	MessageFrame         = "frame"
	MessageOutcome       = "outcome"
	MessageDigests       = "digests"
	MessageFollowedSaved = "followed_user_saved"
	MessageError         = "error"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type         string        `json:"type"`
	Timestamp    int64         `json:"timestamp,omitempty"`
	SaverID      string        `json:"saver_id,omitempty"`
	SaverName    string        `json:"saver_name,omitempty"`
	LocationID   string        `json:"location_id,omitempty"`
	LocationName string        `json:"location_name,omitempty"`
	PhotoIndex   *int          `json:"photo_index,omitempty"`
	Outcome      string        `json:"outcome,omitempty"`
	Frame        *Transform    `json:"frame,omitempty"`
	Deck         *DeckSnapshot `json:"deck,omitempty"`
	Message      string        `json:"message,omitempty"`
	Data         interface{}   `json:"data,omitempty"`
}

// WSClient is one registered viewer connection. Saves carries advisory
// followed-user-saved events for the connection's own event loop. The session
// loop, digest refreshes and the save fanout all write to the same
// connection, so writes are serialized through writeMu.
type WSClient struct {
	UserID string
	conn   *websocket.Conn
	Saves  chan WSMessage

	writeMu sync.Mutex
}

// WSHub manages WebSocket connections
type WSHub struct {
	mu      sync.RWMutex
	clients map[string]*WSClient
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{clients: make(map[string]*WSClient)}
}

// Register registers a new WebSocket connection for a user, closing any
// previous one.
func (h *WSHub) Register(userID string, conn *websocket.Conn) *WSClient {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.clients[userID]; ok {
		existing.conn.Close()
		close(existing.Saves)
	}

	client := &WSClient{
		UserID: userID,
		conn:   conn,
		Saves:  make(chan WSMessage, 8),
	}
	h.clients[userID] = client

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
	return client
}

// Unregister removes a WebSocket connection for a user
func (h *WSHub) Unregister(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, ok := h.clients[userID]; ok {
		client.conn.Close()
		close(client.Saves)
		delete(h.clients, userID)
		log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
	}
}

// SendToUser sends a message to a specific user
func (h *WSHub) SendToUser(userID string, message WSMessage) error {
	h.mu.RLock()
	client, ok := h.clients[userID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	client.writeMu.Lock()
	err = client.conn.WriteMessage(websocket.TextMessage, data)
	client.writeMu.Unlock()
	if err != nil {
		h.Unregister(userID)
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// IsOnline checks if a user is online
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// NotifyFollowedSaved delivers a save event to a follower if connected: the
// raw event goes over the wire and a copy lands on the connection's Saves
// channel so its session can refresh digests. Best effort either way.
func (h *WSHub) NotifyFollowedSaved(followerID string, event WSMessage) {
	if err := h.SendToUser(followerID, event); err != nil {
		return
	}

	// Saves is only closed under the exclusive lock, so a send made while
	// holding the read lock can never hit a closed channel.
	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[followerID]
	if !ok {
		return
	}
	select {
	case client.Saves <- event:
	default:
	}
}
