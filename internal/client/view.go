package client

import (
	"sort"
	"sync"
	"time"

	"github.com/futureaiitofficial/travelconnect-sub000/internal/models"
	"github.com/google/uuid"
)

// echoWindow is how close in time a server echo must be to an optimistic
// entry to be treated as the same message when the correlation ID is missing.
const echoWindow = 5 * time.Second

// ConversationView is the client-side view model: the conversation directory
// ordered by last activity, and the message list of the one open
// conversation. Identity is injected at construction; nothing here reads
// ambient state. Safe for use from a render loop and a push loop at once.
type ConversationView struct {
	mu sync.Mutex

	userID    uint
	authToken string

	directory []models.ConversationResponse
	activeID  uint
	messages  []models.MessageResponse
}

func NewConversationView(userID uint, authToken string) *ConversationView {
	return &ConversationView{
		userID:    userID,
		authToken: authToken,
	}
}

func (v *ConversationView) UserID() uint {
	return v.userID
}

func (v *ConversationView) AuthToken() string {
	return v.authToken
}

// SetDirectory replaces the directory with a server page, newest activity
// first.
func (v *ConversationView) SetDirectory(conversations []models.ConversationResponse) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.directory = append([]models.ConversationResponse(nil), conversations...)
	sortDirectory(v.directory)
}

// Open makes a conversation active and installs its first (most recent)
// page, which arrives oldest-first. Opening zeroes the unread badge: the
// server marks the fetch read as a side effect.
func (v *ConversationView) Open(conversationID uint, page []models.MessageResponse) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.activeID = conversationID
	v.messages = append([]models.MessageResponse(nil), page...)
	for i := range v.directory {
		if v.directory[i].ID == conversationID {
			v.directory[i].UnreadCount = 0
			break
		}
	}
}

// CloseActive leaves the open conversation view.
func (v *ConversationView) CloseActive() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.activeID = 0
	v.messages = nil
}

// AppendLocal optimistically appends an outgoing message and returns the
// payload to send. The generated correlation ID is what reconciles the
// server echo later.
func (v *ConversationView) AppendLocal(text string, messageType models.MessageType) models.MessageResponse {
	v.mu.Lock()
	defer v.mu.Unlock()

	if messageType == "" {
		messageType = models.TextMessage
	}
	local := models.MessageResponse{
		ClientID:       uuid.NewString(),
		ConversationID: v.activeID,
		SenderID:       v.userID,
		MessageText:    text,
		MessageType:    messageType,
		CreatedAt:      time.Now(),
	}
	v.messages = append(v.messages, local)
	v.touchDirectory(local)
	return local
}

// ReconcileEcho replaces the optimistic entry with the server's version of
// the same message. Matching prefers the correlation ID and falls back to
// identical sender and text within a short window; an echo that matches
// nothing is appended, never duplicated.
func (v *ConversationView) ReconcileEcho(echo models.MessageResponse) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.reconcileEchoLocked(echo)
}

func (v *ConversationView) reconcileEchoLocked(echo models.MessageResponse) {
	for i := range v.messages {
		if v.matchesEcho(&v.messages[i], &echo) {
			v.messages[i] = echo
			v.touchDirectory(echo)
			return
		}
	}
	if echo.ConversationID == v.activeID {
		v.messages = append(v.messages, echo)
	}
	v.touchDirectory(echo)
}

func (v *ConversationView) matchesEcho(local, echo *models.MessageResponse) bool {
	if local.ID != 0 && local.ID == echo.ID {
		return true
	}
	if local.ClientID != "" && local.ClientID == echo.ClientID {
		return true
	}
	// Last-one-wins fallback for clients that lost the correlation ID.
	if local.ID == 0 &&
		local.SenderID == echo.SenderID &&
		local.MessageText == echo.MessageText {
		delta := echo.CreatedAt.Sub(local.CreatedAt)
		if delta < 0 {
			delta = -delta
		}
		return delta <= echoWindow
	}
	return false
}

// MergePush folds a live push into the view: appended when it belongs to the
// open conversation, otherwise the source conversation's badge is bumped
// without fetching bodies.
func (v *ConversationView) MergePush(message models.MessageResponse) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if message.SenderID == v.userID {
		// Our own send echoed back through the hub.
		v.reconcileEchoLocked(message)
		return
	}

	if message.ConversationID == v.activeID {
		for i := range v.messages {
			if v.messages[i].ID == message.ID {
				return
			}
		}
		v.messages = append(v.messages, message)
		v.touchDirectory(message)
		return
	}

	for i := range v.directory {
		if v.directory[i].ID == message.ConversationID {
			v.directory[i].UnreadCount++
			break
		}
	}
	v.touchDirectory(message)
}

// PrependOlder inserts an older page before the loaded messages. Already
// loaded messages are never re-sorted.
func (v *ConversationView) PrependOlder(page []models.MessageResponse) {
	v.mu.Lock()
	defer v.mu.Unlock()

	known := make(map[uint]bool, len(v.messages))
	for i := range v.messages {
		known[v.messages[i].ID] = true
	}

	fresh := make([]models.MessageResponse, 0, len(page))
	for i := range page {
		if !known[page[i].ID] {
			fresh = append(fresh, page[i])
		}
	}
	v.messages = append(fresh, v.messages...)
}

// ApplyReadReceipt folds a read receipt from one of our other sessions into
// the conversation badge. A zero messageID means the whole conversation was
// marked and the badge resets; a single-message receipt decrements it.
func (v *ConversationView) ApplyReadReceipt(conversationID, messageID, readerID uint) {
	if readerID != v.userID {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.directory {
		if v.directory[i].ID == conversationID {
			if messageID == 0 {
				v.directory[i].UnreadCount = 0
			} else if v.directory[i].UnreadCount > 0 {
				v.directory[i].UnreadCount--
			}
			break
		}
	}
}

// Directory returns a snapshot of the conversation list.
func (v *ConversationView) Directory() []models.ConversationResponse {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.ConversationResponse(nil), v.directory...)
}

// Messages returns a snapshot of the open conversation's messages.
func (v *ConversationView) Messages() []models.MessageResponse {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.MessageResponse(nil), v.messages...)
}

func (v *ConversationView) ActiveConversation() uint {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.activeID
}

// touchDirectory refreshes the preview for the message's conversation and
// re-orders the directory by last activity. Callers hold the lock.
func (v *ConversationView) touchDirectory(message models.MessageResponse) {
	for i := range v.directory {
		if v.directory[i].ID == message.ConversationID {
			at := message.CreatedAt
			v.directory[i].LastMessage = message.MessageText
			senderID := message.SenderID
			v.directory[i].LastMessageBy = &senderID
			v.directory[i].LastMessageAt = &at
			break
		}
	}
	sortDirectory(v.directory)
}

func sortDirectory(directory []models.ConversationResponse) {
	sort.SliceStable(directory, func(i, j int) bool {
		a, b := directory[i].LastMessageAt, directory[j].LastMessageAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}
