package client

import (
	"testing"
	"time"

	"github.com/futureaiitofficial/travelconnect-sub000/internal/models"
)

func timePtr(t time.Time) *time.Time { return &t }

func newViewFixture() *ConversationView {
	view := NewConversationView(1, "token")
	now := time.Now()
	view.SetDirectory([]models.ConversationResponse{
		{ID: 10, LastMessage: "older", LastMessageAt: timePtr(now.Add(-time.Hour)), UnreadCount: 0},
		{ID: 20, LastMessage: "newer", LastMessageAt: timePtr(now.Add(-time.Minute)), UnreadCount: 2},
		{ID: 30},
	})
	return view
}

func TestSetDirectoryOrdersByActivity(t *testing.T) {
	view := newViewFixture()

	directory := view.Directory()
	if len(directory) != 3 {
		t.Fatalf("expected 3 conversations, got %d", len(directory))
	}
	if directory[0].ID != 20 || directory[1].ID != 10 {
		t.Errorf("expected order 20,10, got %d,%d", directory[0].ID, directory[1].ID)
	}
	// A conversation with no activity yet sorts last.
	if directory[2].ID != 30 {
		t.Errorf("expected idle conversation last, got %d", directory[2].ID)
	}
}

func TestOpenZeroesBadge(t *testing.T) {
	view := newViewFixture()

	view.Open(20, []models.MessageResponse{{ID: 1, ConversationID: 20, MessageText: "hi"}})
	if view.ActiveConversation() != 20 {
		t.Errorf("expected active conversation 20, got %d", view.ActiveConversation())
	}
	for _, conversation := range view.Directory() {
		if conversation.ID == 20 && conversation.UnreadCount != 0 {
			t.Errorf("expected badge zeroed, got %d", conversation.UnreadCount)
		}
	}
	if got := len(view.Messages()); got != 1 {
		t.Errorf("expected 1 message loaded, got %d", got)
	}

	view.CloseActive()
	if view.ActiveConversation() != 0 {
		t.Error("expected no active conversation after close")
	}
	if len(view.Messages()) != 0 {
		t.Error("expected messages cleared after close")
	}
}

func TestOptimisticSendReconcilesByClientID(t *testing.T) {
	view := newViewFixture()
	view.Open(20, nil)

	local := view.AppendLocal("on my way", models.TextMessage)
	if local.ClientID == "" {
		t.Fatal("expected a generated correlation ID")
	}
	if len(view.Messages()) != 1 {
		t.Fatalf("expected the optimistic entry, got %d messages", len(view.Messages()))
	}

	echo := models.MessageResponse{
		ID:             77,
		ClientID:       local.ClientID,
		ConversationID: 20,
		SenderID:       1,
		MessageText:    "on my way",
		IsDelivered:    true,
		CreatedAt:      time.Now(),
	}
	view.ReconcileEcho(echo)

	messages := view.Messages()
	if len(messages) != 1 {
		t.Fatalf("echo duplicated the message: %d entries", len(messages))
	}
	if messages[0].ID != 77 || !messages[0].IsDelivered {
		t.Errorf("expected the server version in place, got %+v", messages[0])
	}
}

func TestReconcileEchoFallsBackToSenderAndText(t *testing.T) {
	view := newViewFixture()
	view.Open(20, nil)

	view.AppendLocal("lost the id", models.TextMessage)

	echo := models.MessageResponse{
		ID:             78,
		ClientID:       "a-different-client-id",
		ConversationID: 20,
		SenderID:       1,
		MessageText:    "lost the id",
		CreatedAt:      time.Now(),
	}
	view.ReconcileEcho(echo)

	messages := view.Messages()
	if len(messages) != 1 {
		t.Fatalf("fallback match failed, got %d entries", len(messages))
	}
	if messages[0].ID != 78 {
		t.Errorf("expected the echo to replace the optimistic entry, got %+v", messages[0])
	}
}

func TestMergePushAppendsOnlyToActiveConversation(t *testing.T) {
	view := newViewFixture()
	view.Open(20, nil)

	view.MergePush(models.MessageResponse{
		ID:             100,
		ConversationID: 20,
		SenderID:       2,
		MessageText:    "incoming",
		CreatedAt:      time.Now(),
	})
	if len(view.Messages()) != 1 {
		t.Fatalf("push to the open conversation should append, got %d", len(view.Messages()))
	}

	// Duplicate delivery of the same push is ignored.
	view.MergePush(models.MessageResponse{ID: 100, ConversationID: 20, SenderID: 2, MessageText: "incoming"})
	if len(view.Messages()) != 1 {
		t.Errorf("duplicate push appended, got %d messages", len(view.Messages()))
	}

	view.MergePush(models.MessageResponse{
		ID:             101,
		ConversationID: 10,
		SenderID:       3,
		MessageText:    "elsewhere",
		CreatedAt:      time.Now(),
	})
	if len(view.Messages()) != 1 {
		t.Error("push to another conversation must not enter the open view")
	}

	directory := view.Directory()
	if directory[0].ID != 10 {
		t.Errorf("expected conversation 10 bumped to the top, got %d", directory[0].ID)
	}
	for _, conversation := range directory {
		if conversation.ID == 10 && conversation.UnreadCount != 1 {
			t.Errorf("expected badge 1 on conversation 10, got %d", conversation.UnreadCount)
		}
	}
}

func TestMergePushOwnEchoDoesNotDuplicate(t *testing.T) {
	view := newViewFixture()
	view.Open(20, nil)

	local := view.AppendLocal("ping", models.TextMessage)
	view.MergePush(models.MessageResponse{
		ID:             55,
		ClientID:       local.ClientID,
		ConversationID: 20,
		SenderID:       1,
		MessageText:    "ping",
		CreatedAt:      time.Now(),
	})

	messages := view.Messages()
	if len(messages) != 1 {
		t.Fatalf("own echo through the hub duplicated the message: %d entries", len(messages))
	}
	if messages[0].ID != 55 {
		t.Errorf("expected the echo to win, got %+v", messages[0])
	}
}

func TestPrependOlderKeepsChronologicalOrder(t *testing.T) {
	view := newViewFixture()
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	pageOne := []models.MessageResponse{
		{ID: 4, ConversationID: 20, CreatedAt: base.Add(4 * time.Minute)},
		{ID: 5, ConversationID: 20, CreatedAt: base.Add(5 * time.Minute)},
		{ID: 6, ConversationID: 20, CreatedAt: base.Add(6 * time.Minute)},
	}
	view.Open(20, pageOne)

	pageTwo := []models.MessageResponse{
		{ID: 1, ConversationID: 20, CreatedAt: base.Add(1 * time.Minute)},
		{ID: 2, ConversationID: 20, CreatedAt: base.Add(2 * time.Minute)},
		// Overlap with the loaded page must be dropped, not duplicated.
		{ID: 4, ConversationID: 20, CreatedAt: base.Add(4 * time.Minute)},
	}
	view.PrependOlder(pageTwo)

	messages := view.Messages()
	if len(messages) != 5 {
		t.Fatalf("expected 5 messages after prepend, got %d", len(messages))
	}
	for i := 1; i < len(messages); i++ {
		if messages[i].CreatedAt.Before(messages[i-1].CreatedAt) {
			t.Fatalf("timestamps regress at index %d", i)
		}
	}
	if messages[0].ID != 1 {
		t.Errorf("expected the oldest message first, got %d", messages[0].ID)
	}
}

func badgeFor(t *testing.T, view *ConversationView, conversationID uint) int64 {
	t.Helper()
	for _, conversation := range view.Directory() {
		if conversation.ID == conversationID {
			return conversation.UnreadCount
		}
	}
	t.Fatalf("conversation %d not in directory", conversationID)
	return 0
}

func TestApplyReadReceiptZeroesOwnBadge(t *testing.T) {
	view := newViewFixture()

	// Another user's receipt leaves our badges alone.
	view.ApplyReadReceipt(20, 0, 2)
	if got := badgeFor(t, view, 20); got != 2 {
		t.Errorf("foreign receipt changed the badge to %d", got)
	}

	// Our own conversation-wide receipt from another session zeroes the badge.
	view.ApplyReadReceipt(20, 0, 1)
	if got := badgeFor(t, view, 20); got != 0 {
		t.Errorf("expected badge zeroed, got %d", got)
	}
}

func TestApplyReadReceiptSingleMessageDecrements(t *testing.T) {
	view := NewConversationView(1, "token")
	view.SetDirectory([]models.ConversationResponse{{ID: 10, UnreadCount: 5}})

	// A single-message receipt only accounts for that one message.
	view.ApplyReadReceipt(10, 77, 1)
	if got := badgeFor(t, view, 10); got != 4 {
		t.Errorf("badge should be 4, got %d", got)
	}

	view.ApplyReadReceipt(10, 78, 1)
	if got := badgeFor(t, view, 10); got != 3 {
		t.Errorf("badge should be 3, got %d", got)
	}

	// The badge never goes negative.
	for i := 0; i < 10; i++ {
		view.ApplyReadReceipt(10, uint(100+i), 1)
	}
	if got := badgeFor(t, view, 10); got != 0 {
		t.Errorf("badge should floor at 0, got %d", got)
	}
}
