package ws

import (
	"encoding/json"

	"github.com/futureaiitofficial/travelconnect-sub000/internal/models"
)

// Server-to-client event types.
const (
	EventNewMessage  = "new-message"
	EventUserTyping  = "user-typing"
	EventMessageRead = "message-read"
	EventPong        = "pong"
	EventError       = "error"
)

// Event is the server-to-client wire envelope, the mirror of
// SerializedMessage on the inbound side.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type NewMessageEvent struct {
	Message models.MessageResponse `json:"message"`
}

type UserTypingEvent struct {
	ConversationID uint `json:"conversation_id"`
	UserID         uint `json:"user_id"`
	IsTyping       bool `json:"is_typing"`
}

// MessageReadEvent mirrors a persisted read marker. MessageID zero means the
// reader marked the whole conversation.
type MessageReadEvent struct {
	ConversationID uint `json:"conversation_id"`
	MessageID      uint `json:"message_id"`
	ReaderID       uint `json:"reader_id"`
}
