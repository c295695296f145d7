package ws

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/futureaiitofficial/travelconnect-sub000/internal/models"
	"github.com/gofiber/websocket/v2"
)

// Session wraps one WebSocket connection. A user may hold several sessions at
// once (multiple tabs/devices); each is registered separately and delivery is
// at-most-once per session.
type Session struct {
	ID           uint64
	UserID       uint
	Conn         *websocket.Conn
	LastPong     time.Time
	SupportsGzip bool
	PingTicker   *time.Ticker
	CloseChan    chan struct{}

	writeMu sync.Mutex
}

// Hub is the live-delivery fan-out. Every session sits in its personal user
// channel from registration; it joins and leaves per-conversation channels as
// the client opens and closes chat views. The hub is a pure observer of the
// stores: nothing here is durable, and a session that misses a push recovers
// by re-fetching history on reconnect.
type Hub struct {
	mu            sync.RWMutex
	sessions      map[uint64]*Session
	userSessions  map[uint]map[uint64]*Session
	conversations map[uint]map[uint64]*Session
	subscriptions map[uint64]map[uint]bool
	nextSessionID uint64

	pingInterval time.Duration
	pongTimeout  time.Duration
}

func NewHub() *Hub {
	hub := &Hub{
		sessions:      make(map[uint64]*Session),
		userSessions:  make(map[uint]map[uint64]*Session),
		conversations: make(map[uint]map[uint64]*Session),
		subscriptions: make(map[uint64]map[uint]bool),
		pingInterval:  30 * time.Second,
		pongTimeout:   90 * time.Second,
	}

	go hub.connectionHealthChecker()

	return hub
}

// Register adds a session and places it in its personal user channel.
func (h *Hub) Register(userID uint, conn *websocket.Conn, supportsGzip bool) *Session {
	h.mu.Lock()
	h.nextSessionID++
	session := &Session{
		ID:           h.nextSessionID,
		UserID:       userID,
		Conn:         conn,
		LastPong:     time.Now(),
		SupportsGzip: supportsGzip,
		PingTicker:   time.NewTicker(h.pingInterval),
		CloseChan:    make(chan struct{}),
	}
	h.sessions[session.ID] = session
	if h.userSessions[userID] == nil {
		h.userSessions[userID] = make(map[uint64]*Session)
	}
	h.userSessions[userID][session.ID] = session
	h.subscriptions[session.ID] = make(map[uint]bool)
	total := len(h.sessions)
	h.mu.Unlock()

	conn.SetPongHandler(func(appData string) error {
		h.mu.Lock()
		if s, exists := h.sessions[session.ID]; exists {
			s.LastPong = time.Now()
		}
		h.mu.Unlock()
		_ = conn.SetReadDeadline(time.Now().Add(h.pongTimeout))
		return nil
	})
	_ = conn.SetReadDeadline(time.Now().Add(h.pongTimeout))

	go h.pingRoutine(session)

	log.Printf("User %d session %d connected to hub (sessions: %d, gzip: %v)", userID, session.ID, total, supportsGzip)
	return session
}

// Unregister removes a session from every channel it joined.
func (h *Hub) Unregister(session *Session) {
	h.mu.Lock()
	if _, exists := h.sessions[session.ID]; exists {
		session.PingTicker.Stop()
		close(session.CloseChan)
		delete(h.sessions, session.ID)
		if sessions := h.userSessions[session.UserID]; sessions != nil {
			delete(sessions, session.ID)
			if len(sessions) == 0 {
				delete(h.userSessions, session.UserID)
			}
		}
		for conversationID := range h.subscriptions[session.ID] {
			if room := h.conversations[conversationID]; room != nil {
				delete(room, session.ID)
				if len(room) == 0 {
					delete(h.conversations, conversationID)
				}
			}
		}
		delete(h.subscriptions, session.ID)
	}
	total := len(h.sessions)
	h.mu.Unlock()
	log.Printf("User %d session %d disconnected from hub (sessions: %d)", session.UserID, session.ID, total)
}

// JoinConversation subscribes a session to a conversation channel. Membership
// is validated by the caller before this is invoked.
func (h *Hub) JoinConversation(session *Session, conversationID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.sessions[session.ID]; !exists {
		return
	}
	if h.conversations[conversationID] == nil {
		h.conversations[conversationID] = make(map[uint64]*Session)
	}
	h.conversations[conversationID][session.ID] = session
	h.subscriptions[session.ID][conversationID] = true
}

func (h *Hub) LeaveConversation(session *Session, conversationID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room := h.conversations[conversationID]; room != nil {
		delete(room, session.ID)
		if len(room) == 0 {
			delete(h.conversations, conversationID)
		}
	}
	if subs := h.subscriptions[session.ID]; subs != nil {
		delete(subs, conversationID)
	}
}

// IsOnline reports whether the user has at least one connected session.
func (h *Hub) IsOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userSessions[userID]) > 0
}

// SessionCount returns the number of connected sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// PublishMessage pushes a new message to every session of every member, once
// per session. Sessions viewing the conversation merge it into their list;
// the rest bump the conversation's unread badge.
func (h *Hub) PublishMessage(memberIDs []uint, message models.MessageResponse) {
	event := Event{Type: EventNewMessage, Payload: mustMarshal(NewMessageEvent{Message: message})}
	h.sendToUsers(memberIDs, event)
}

// PublishTyping is ephemeral: only sessions with the conversation open care,
// and a missed indicator is never recovered.
func (h *Hub) PublishTyping(conversationID, userID uint, isTyping bool) {
	event := Event{Type: EventUserTyping, Payload: mustMarshal(UserTypingEvent{
		ConversationID: conversationID,
		UserID:         userID,
		IsTyping:       isTyping,
	})}
	h.sendToConversation(conversationID, userID, event)
}

// PublishReadReceipt mirrors a persisted read marker to the conversation's
// open views. A zero messageID means the whole conversation was marked.
func (h *Hub) PublishReadReceipt(memberIDs []uint, conversationID, messageID, readerID uint) {
	event := Event{Type: EventMessageRead, Payload: mustMarshal(MessageReadEvent{
		ConversationID: conversationID,
		MessageID:      messageID,
		ReaderID:       readerID,
	})}
	h.sendToUsers(memberIDs, event)
}

func (h *Hub) sendToUsers(userIDs []uint, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling %s event: %v", event.Type, err)
		return
	}

	h.mu.RLock()
	var targets []*Session
	for _, userID := range userIDs {
		for _, session := range h.userSessions[userID] {
			targets = append(targets, session)
		}
	}
	h.mu.RUnlock()

	for _, session := range targets {
		h.writeSession(session, data)
	}
}

// sendToConversation delivers to the conversation channel, skipping the
// originating user's sessions.
func (h *Hub) sendToConversation(conversationID, skipUserID uint, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling %s event: %v", event.Type, err)
		return
	}

	h.mu.RLock()
	var targets []*Session
	for _, session := range h.conversations[conversationID] {
		if session.UserID == skipUserID {
			continue
		}
		targets = append(targets, session)
	}
	h.mu.RUnlock()

	for _, session := range targets {
		h.writeSession(session, data)
	}
}

// writeSession serializes writes per session and drops the session on write
// failure. Delivery is best-effort; there is no queue behind it.
func (h *Hub) writeSession(session *Session, data []byte) {
	frameType := websocket.TextMessage
	payload := data
	if session.SupportsGzip && len(data) > 512 {
		if compressed, err := compressData(data); err == nil && len(compressed) < len(data) {
			payload = compressed
			frameType = websocket.BinaryMessage
		}
	}

	session.writeMu.Lock()
	err := session.Conn.WriteMessage(frameType, payload)
	session.writeMu.Unlock()
	if err != nil {
		log.Printf("Error writing to user %d session %d: %v", session.UserID, session.ID, err)
		h.Unregister(session)
	}
}

// WriteJSON sends an arbitrary payload to one session, used for direct
// replies like pong and error frames.
func (h *Hub) WriteJSON(session *Session, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	session.writeMu.Lock()
	defer session.writeMu.Unlock()
	return session.Conn.WriteMessage(websocket.TextMessage, data)
}

func (h *Hub) pingRoutine(session *Session) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Ping routine recovered from panic for user %d: %v", session.UserID, r)
		}
	}()

	for {
		select {
		case <-session.CloseChan:
			return
		case <-session.PingTicker.C:
			session.writeMu.Lock()
			err := session.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second))
			session.writeMu.Unlock()
			if err != nil {
				log.Printf("Ping failed for user %d session %d: %v", session.UserID, session.ID, err)
				h.Unregister(session)
				return
			}
		}
	}
}

func (h *Hub) connectionHealthChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		h.mu.RLock()
		var dead []*Session
		now := time.Now()
		for _, session := range h.sessions {
			if now.Sub(session.LastPong) > h.pongTimeout {
				dead = append(dead, session)
			}
		}
		h.mu.RUnlock()

		for _, session := range dead {
			log.Printf("Removing dead session %d for user %d (no pong received)", session.ID, session.UserID)
			h.Unregister(session)
		}
	}
}

func compressData(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)

	if _, err := gzipWriter.Write(data); err != nil {
		return nil, err
	}
	if err := gzipWriter.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func mustMarshal(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Error marshaling event payload: %v", err)
		return json.RawMessage("{}")
	}
	return data
}
