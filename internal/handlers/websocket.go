package handlers

import (
	"encoding/json"
	"net/http"

	"place-swipe-backend/internal/middleware"
	"place-swipe-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for MVP
	},
}

// WebSocketHandler runs the interactive swipe session over a WebSocket:
// pointer events in, transform frames and outcomes out.
type WebSocketHandler struct {
	hub         *services.WSHub
	userService *services.UserService
	pipeline    services.PageBuilder
	commits     *services.CommitService
	lowWater    int
	gestureCfg  services.GestureConfig
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *services.WSHub,
	userService *services.UserService,
	pipeline services.PageBuilder,
	commits *services.CommitService,
	lowWater int,
	gestureCfg services.GestureConfig,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		userService: userService,
		pipeline:    pipeline,
		commits:     commits,
		lowWater:    lowWater,
		gestureCfg:  gestureCfg,
	}
}

// HandleWebSocket handles WebSocket connections
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Token arrives as a query parameter
	userID, err := middleware.ValidateWebSocketToken(r.URL.Query().Get("token"), h.userService)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	client := h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID)

	ctx := r.Context()
	deck := services.NewDeck(userID, h.pipeline, h.lowWater)
	gesture := services.NewGestureController(h.gestureCfg)
	session := services.NewSession(userID, deck, gesture, h.commits)

	if err := h.hub.SendToUser(userID, session.Start(ctx)); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to send initial deck")
		return
	}

	// Followed-user-saved events arrive on the hub channel; refresh the
	// digest strip when they do. Advisory only.
	go func() {
		for range client.Saves {
			if err := h.hub.SendToUser(userID, session.RefreshDigests()); err != nil {
				return
			}
		}
	}()

	log.Info().Str("user_id", userID).Msg("Swipe session established")

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}

		var event services.PointerEvent
		if err := json.Unmarshal(messageBytes, &event); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to parse WebSocket message")
			h.sendError(userID, "Invalid message format")
			continue
		}

		var out []services.WSMessage
		if event.Type == services.EventSetFilter {
			out = []services.WSMessage{session.SetFilter(ctx, event.Filter)}
		} else {
			out = session.HandlePointer(ctx, event)
		}

		for _, msg := range out {
			if err := h.hub.SendToUser(userID, msg); err != nil {
				log.Error().Err(err).Str("user_id", userID).Str("type", msg.Type).Msg("Failed to send message")
				return
			}
		}
	}
}

// sendError sends an error message to a user
func (h *WebSocketHandler) sendError(userID, message string) {
	msg := services.WSMessage{
		Type:    services.MessageError,
		Message: message,
	}
	if err := h.hub.SendToUser(userID, msg); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to send error message")
	}
}
