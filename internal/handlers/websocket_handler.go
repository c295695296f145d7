package handlers

import (
	"log"
	"os"

	"github.com/futureaiitofficial/travelconnect-sub000/internal/handlers/ws"
	"github.com/futureaiitofficial/travelconnect-sub000/internal/service"
	"github.com/gofiber/websocket/v2"
)

type WebSocketHandler struct {
	conversationService *service.ConversationService
	messageService      *service.MessageService
	userService         *service.UserService
	hub                 *ws.Hub
}

func NewWebSocketHandler(
	hub *ws.Hub,
	conversationService *service.ConversationService,
	messageService *service.MessageService,
	userService *service.UserService,
) *WebSocketHandler {
	return &WebSocketHandler{
		conversationService: conversationService,
		messageService:      messageService,
		userService:         userService,
		hub:                 hub,
	}
}

// GetHub returns the hub instance (useful for sending messages from other handlers)
func (h *WebSocketHandler) GetHub() *ws.Hub {
	return h.hub
}

func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	userID := c.Locals("userID").(uint)
	wsDebug := os.Getenv("WS_DEBUG") == "true"

	// Check if client supports gzip compression (via query param or header)
	supportsGzip := c.Query("gzip") == "1" || c.Headers("X-Supports-Gzip") == "1"

	session := h.hub.Register(userID, c, supportsGzip)

	// First session for a user flips them online; last one out flips offline.
	go func() {
		if err := h.userService.SetUserOnline(userID); err != nil {
			log.Printf("Failed to set user %d online: %v", userID, err)
		}
	}()

	defer func() {
		h.hub.Unregister(session)
		go func() {
			if h.hub.IsOnline(userID) {
				return
			}
			if err := h.userService.SetUserOffline(userID); err != nil {
				log.Printf("Failed to set user %d offline: %v", userID, err)
			}
		}()
	}()

	log.Printf("User %d connected via WebSocket", userID)

	ctx := &ws.MessageContext{
		UserID:              userID,
		Session:             session,
		Hub:                 h.hub,
		ConversationService: h.conversationService,
		MessageService:      h.messageService,
		UserService:         h.userService,
	}

	for {
		messageType, messageBytes, err := c.ReadMessage()
		if err != nil {
			log.Printf("Error reading message from user %d: %v", userID, err)
			break
		}

		if wsDebug {
			log.Printf("ws_recv user_id=%d frame_type=%d size=%d", userID, messageType, len(messageBytes))
		}

		// Decompress if binary message (gzip compressed)
		if messageType == websocket.BinaryMessage {
			decompressed, err := ws.DecompressMessage(messageBytes)
			if err != nil {
				log.Printf("Error decompressing message from user %d: %v", userID, err)
				ws.SendError(h.hub, session, "decompression_failed", "Failed to decompress message", err.Error())
				continue
			}
			messageBytes = decompressed
		}

		msg, err := ws.Deserialize(messageBytes)
		if err != nil {
			log.Printf("Error deserializing message from user %d: %v", userID, err)
			ws.SendError(h.hub, session, "invalid_message", "Invalid message format", err.Error())
			continue
		}

		if err := msg.Process(ctx); err != nil {
			log.Printf("Error processing message %s from user %d: %v", msg.GetType(), userID, err)
			ws.SendError(h.hub, session, "processing_failed", "Failed to process message", err.Error())
		}
	}

	log.Printf("User %d disconnected from WebSocket", userID)
}
