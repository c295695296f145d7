package ws

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/futureaiitofficial/travelconnect-sub000/internal/service"
)

// MessageContext provides all dependencies needed for message processing
type MessageContext struct {
	UserID              uint
	Session             *Session
	Hub                 *Hub
	ConversationService *service.ConversationService
	MessageService      *service.MessageService
	UserService         *service.UserService
}

// Message interface for all client-to-server WebSocket message types
type Message interface {
	GetType() string
	Process(ctx *MessageContext) error
}

// SerializedMessage is the inbound wire format wrapper
type SerializedMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ErrorResponse is sent when message processing fails
type ErrorResponse struct {
	Type    string `json:"type"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

func ToJson(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

func FromJson(jsonBytes []byte, msg Message) error {
	return json.Unmarshal(jsonBytes, msg)
}

func CreateMessage(msgType string, typeRegistry map[string]reflect.Type) (Message, error) {
	msgTypeReflect, ok := typeRegistry[msgType]
	if !ok {
		return nil, fmt.Errorf("unknown message type: %s", msgType)
	}

	instance := reflect.New(msgTypeReflect).Interface()
	return instance.(Message), nil
}

// NewErrorResponse builds the error frame sent when message processing fails.
func NewErrorResponse(code, message, details string) ErrorResponse {
	return ErrorResponse{
		Type:    EventError,
		Error:   message,
		Code:    code,
		Details: details,
	}
}

// SendError sends an error response to the client. It goes through the hub so
// the write holds the session's write lock; the reader goroutine calls this
// while hub pushes may be writing to the same connection.
func SendError(hub *Hub, session *Session, code, message, details string) error {
	return hub.WriteJSON(session, NewErrorResponse(code, message, details))
}
