package client

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/futureaiitofficial/travelconnect-sub000/internal/handlers/ws"
	"github.com/gorilla/websocket"
)

// Client consumes the live event stream and feeds a ConversationView. It is
// not the system of record: on reconnect the caller re-fetches history over
// REST and rebuilds the view before listening again.
type Client struct {
	view *ConversationView
	conn *websocket.Conn

	writeMu sync.Mutex

	// OnTyping, if set, receives typing indicators for the open conversation.
	OnTyping func(conversationID, userID uint, isTyping bool)
}

// Dial connects to the hub's WebSocket endpoint authenticating with the
// view's injected token.
func Dial(ctx context.Context, wsURL string, view *ConversationView) (*Client, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+view.AuthToken())

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return nil, err
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	return &Client{view: view, conn: conn}, nil
}

// Listen processes pushes until the connection drops, merging them into the
// view. It returns the read error that ended the loop.
func (c *Client) Listen() error {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return err
		}

		var event ws.Event
		if err := json.Unmarshal(data, &event); err != nil {
			log.Printf("Dropping undecodable event: %v", err)
			continue
		}

		switch event.Type {
		case ws.EventNewMessage:
			var payload ws.NewMessageEvent
			if err := json.Unmarshal(event.Payload, &payload); err != nil {
				log.Printf("Dropping malformed %s event: %v", event.Type, err)
				continue
			}
			c.view.MergePush(payload.Message)
		case ws.EventUserTyping:
			var payload ws.UserTypingEvent
			if err := json.Unmarshal(event.Payload, &payload); err != nil {
				continue
			}
			if c.OnTyping != nil && payload.ConversationID == c.view.ActiveConversation() {
				c.OnTyping(payload.ConversationID, payload.UserID, payload.IsTyping)
			}
		case ws.EventMessageRead:
			var payload ws.MessageReadEvent
			if err := json.Unmarshal(event.Payload, &payload); err != nil {
				continue
			}
			c.view.ApplyReadReceipt(payload.ConversationID, payload.MessageID, payload.ReaderID)
		case ws.EventPong:
			// keepalive reply, nothing to merge
		default:
			log.Printf("Ignoring unknown event type %q", event.Type)
		}
	}
}

// JoinConversation subscribes this session to a conversation channel,
// typically right after Open on the view.
func (c *Client) JoinConversation(conversationID uint) error {
	return c.send("join-conversation", map[string]interface{}{
		"conversation_id": conversationID,
	})
}

func (c *Client) LeaveConversation(conversationID uint) error {
	return c.send("leave-conversation", map[string]interface{}{
		"conversation_id": conversationID,
	})
}

func (c *Client) Typing(conversationID uint, isTyping bool) error {
	return c.send("typing", map[string]interface{}{
		"conversation_id": conversationID,
		"is_typing":       isTyping,
	})
}

func (c *Client) Ping() error {
	return c.send("ping", map[string]interface{}{})
}

func (c *Client) send(msgType string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	envelope := ws.SerializedMessage{Type: msgType, Payload: raw}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(envelope)
}

func (c *Client) Close() error {
	return c.conn.Close()
}
