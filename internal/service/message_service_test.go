package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/futureaiitofficial/travelconnect-sub000/internal/models"
	"github.com/futureaiitofficial/travelconnect-sub000/internal/testutil"
	"gorm.io/gorm"
)

type recordedPublish struct {
	memberIDs []uint
	message   models.MessageResponse
}

type recordedReceipt struct {
	memberIDs      []uint
	conversationID uint
	messageID      uint
	readerID       uint
}

// RecordingFanout captures publishes on channels so tests can wait for the
// asynchronous delivery without sleeping.
type RecordingFanout struct {
	Messages chan recordedPublish
	Receipts chan recordedReceipt
}

func NewRecordingFanout() *RecordingFanout {
	return &RecordingFanout{
		Messages: make(chan recordedPublish, 8),
		Receipts: make(chan recordedReceipt, 8),
	}
}

func (f *RecordingFanout) PublishMessage(memberIDs []uint, message models.MessageResponse) {
	f.Messages <- recordedPublish{memberIDs: memberIDs, message: message}
}

func (f *RecordingFanout) PublishReadReceipt(memberIDs []uint, conversationID, messageID, readerID uint) {
	f.Receipts <- recordedReceipt{memberIDs, conversationID, messageID, readerID}
}

func newMessageFixture(t *testing.T, userIDs ...uint) (*MessageService, *ConversationService, *RecordingFanout) {
	t.Helper()

	users := make([]*models.User, 0, len(userIDs))
	for _, id := range userIDs {
		users = append(users, &models.User{ID: id, Username: "user"})
	}
	conversationRepo := testutil.NewMockConversationRepository()
	messageRepo := testutil.NewMockMessageRepository(conversationRepo)
	fanout := NewRecordingFanout()
	messageSvc := NewMessageService(messageRepo, conversationRepo, fanout, nil)
	conversationSvc := NewConversationService(conversationRepo, messageRepo, testutil.NewMockUserRepository(users...))
	return messageSvc, conversationSvc, fanout
}

func waitForPublish(t *testing.T, fanout *RecordingFanout) recordedPublish {
	t.Helper()
	select {
	case published := <-fanout.Messages:
		return published
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for fan-out publish")
		return recordedPublish{}
	}
}

func TestSendRequiresMembership(t *testing.T) {
	messageSvc, conversationSvc, _ := newMessageFixture(t, 1, 2, 3)

	conversation, err := conversationSvc.FindOrCreateDirect(1, 2)
	if err != nil {
		t.Fatalf("FindOrCreateDirect failed: %v", err)
	}

	if _, err := messageSvc.Send(conversation.ID, 3, SendMessageInput{MessageText: "hi"}); !errors.Is(err, ErrNotAMember) {
		t.Errorf("expected ErrNotAMember, got %v", err)
	}
	if _, err := messageSvc.Send(999, 1, SendMessageInput{MessageText: "hi"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSendPublishesToAllMembers(t *testing.T) {
	messageSvc, conversationSvc, fanout := newMessageFixture(t, 1, 2)

	conversation, err := conversationSvc.FindOrCreateDirect(1, 2)
	if err != nil {
		t.Fatalf("FindOrCreateDirect failed: %v", err)
	}

	sent, err := messageSvc.Send(conversation.ID, 1, SendMessageInput{MessageText: "hello from Porto"})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if !sent.IsDelivered {
		t.Error("expected the stored message to be marked delivered")
	}
	if sent.ClientID == "" {
		t.Error("expected a generated client ID when the client sends none")
	}

	published := waitForPublish(t, fanout)
	if published.message.ID != sent.ID {
		t.Errorf("published message %d, sent %d", published.message.ID, sent.ID)
	}
	if len(published.memberIDs) != 2 {
		t.Errorf("expected fan-out to both members, got %v", published.memberIDs)
	}
}

func TestSendClientIDDeduplicates(t *testing.T) {
	messageSvc, conversationSvc, _ := newMessageFixture(t, 1, 2)

	conversation, err := conversationSvc.FindOrCreateDirect(1, 2)
	if err != nil {
		t.Fatalf("FindOrCreateDirect failed: %v", err)
	}

	input := SendMessageInput{ClientID: "11111111-2222-3333-4444-555555555555", MessageText: "once"}
	first, err := messageSvc.Send(conversation.ID, 1, input)
	if err != nil {
		t.Fatalf("first send failed: %v", err)
	}
	second, err := messageSvc.Send(conversation.ID, 1, input)
	if err != nil {
		t.Fatalf("resend failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("resend created a duplicate: %d and %d", first.ID, second.ID)
	}

	// A different sender may reuse the same correlation ID.
	other, err := messageSvc.Send(conversation.ID, 2, input)
	if err != nil {
		t.Fatalf("send from other user failed: %v", err)
	}
	if other.ID == first.ID {
		t.Error("client IDs must only deduplicate per sender")
	}
}

// racingMessageRepo makes the dedup lookup miss a set number of times, the
// way a concurrent resend can slip past check-then-insert.
type racingMessageRepo struct {
	*testutil.MockMessageRepository
	mu     sync.Mutex
	misses int
}

func (r *racingMessageRepo) FindByClientID(clientID string, senderID uint) (*models.Message, error) {
	r.mu.Lock()
	if r.misses > 0 {
		r.misses--
		r.mu.Unlock()
		return nil, gorm.ErrRecordNotFound
	}
	r.mu.Unlock()
	return r.MockMessageRepository.FindByClientID(clientID, senderID)
}

func TestSendConcurrentResendReturnsWinner(t *testing.T) {
	conversationRepo := testutil.NewMockConversationRepository()
	racing := &racingMessageRepo{MockMessageRepository: testutil.NewMockMessageRepository(conversationRepo)}
	users := []*models.User{{ID: 1, Username: "alice"}, {ID: 2, Username: "bob"}}
	messageSvc := NewMessageService(racing, conversationRepo, nil, nil)
	conversationSvc := NewConversationService(conversationRepo, racing, testutil.NewMockUserRepository(users...))

	conversation, err := conversationSvc.FindOrCreateDirect(1, 2)
	if err != nil {
		t.Fatalf("FindOrCreateDirect failed: %v", err)
	}

	input := SendMessageInput{ClientID: "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee", MessageText: "once"}
	winner, err := messageSvc.Send(conversation.ID, 1, input)
	if err != nil {
		t.Fatalf("first send failed: %v", err)
	}

	// The resend misses the dedup lookup and runs into the unique index.
	racing.misses = 1
	loser, err := messageSvc.Send(conversation.ID, 1, input)
	if err != nil {
		t.Fatalf("racing resend failed: %v", err)
	}
	if loser.ID != winner.ID {
		t.Errorf("racing resend created a duplicate: %d and %d", winner.ID, loser.ID)
	}

	page, err := messageSvc.ListPage(conversation.ID, 1, 1, 50)
	if err != nil {
		t.Fatalf("ListPage failed: %v", err)
	}
	if len(page) != 1 {
		t.Errorf("expected a single stored message, got %d", len(page))
	}
}

func TestSendDropsInvalidReplyLink(t *testing.T) {
	messageSvc, conversationSvc, _ := newMessageFixture(t, 1, 2, 3)

	conversation, err := conversationSvc.FindOrCreateDirect(1, 2)
	if err != nil {
		t.Fatalf("FindOrCreateDirect failed: %v", err)
	}
	other, err := conversationSvc.FindOrCreateDirect(1, 3)
	if err != nil {
		t.Fatalf("FindOrCreateDirect failed: %v", err)
	}
	foreign, err := messageSvc.Send(other.ID, 3, SendMessageInput{MessageText: "elsewhere"})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	missing := uint(999)
	sent, err := messageSvc.Send(conversation.ID, 1, SendMessageInput{MessageText: "reply", ReplyToID: &missing})
	if err != nil {
		t.Fatalf("send with missing reply target failed: %v", err)
	}
	if sent.ReplyToID != nil {
		t.Error("expected the missing reply link to be dropped")
	}

	crossConversation := foreign.ID
	sent, err = messageSvc.Send(conversation.ID, 1, SendMessageInput{MessageText: "reply", ReplyToID: &crossConversation})
	if err != nil {
		t.Fatalf("send with cross-conversation reply failed: %v", err)
	}
	if sent.ReplyToID != nil {
		t.Error("expected the cross-conversation reply link to be dropped")
	}
}

func TestSendKeepsValidReplyLink(t *testing.T) {
	messageSvc, conversationSvc, _ := newMessageFixture(t, 1, 2)

	conversation, err := conversationSvc.FindOrCreateDirect(1, 2)
	if err != nil {
		t.Fatalf("FindOrCreateDirect failed: %v", err)
	}
	original, err := messageSvc.Send(conversation.ID, 1, SendMessageInput{MessageText: "original"})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	reply, err := messageSvc.Send(conversation.ID, 2, SendMessageInput{MessageText: "reply", ReplyToID: &original.ID})
	if err != nil {
		t.Fatalf("reply failed: %v", err)
	}
	if reply.ReplyToID == nil || *reply.ReplyToID != original.ID {
		t.Errorf("expected reply link to %d, got %v", original.ID, reply.ReplyToID)
	}
}

func TestSendUpdatesLastMessageSummary(t *testing.T) {
	messageSvc, conversationSvc, _ := newMessageFixture(t, 1, 2)

	conversation, err := conversationSvc.FindOrCreateDirect(1, 2)
	if err != nil {
		t.Fatalf("FindOrCreateDirect failed: %v", err)
	}

	if _, err := messageSvc.Send(conversation.ID, 1, SendMessageInput{MessageText: "first"}); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if _, err := messageSvc.Send(conversation.ID, 2, SendMessageInput{MessageText: "second"}); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	updated, err := conversationSvc.GetForUser(conversation.ID, 1)
	if err != nil {
		t.Fatalf("GetForUser failed: %v", err)
	}
	if updated.LastMessage != "second" {
		t.Errorf("expected preview %q, got %q", "second", updated.LastMessage)
	}
	if updated.LastMessageByID == nil || *updated.LastMessageByID != 2 {
		t.Errorf("expected last message by 2, got %v", updated.LastMessageByID)
	}
	if updated.LastMessageAt == nil {
		t.Error("expected last_message_at to be set")
	}
}

func TestSendMediaMessageUsesTypePlaceholder(t *testing.T) {
	messageSvc, conversationSvc, _ := newMessageFixture(t, 1, 2)

	conversation, err := conversationSvc.FindOrCreateDirect(1, 2)
	if err != nil {
		t.Fatalf("FindOrCreateDirect failed: %v", err)
	}

	if _, err := messageSvc.Send(conversation.ID, 1, SendMessageInput{
		MessageType: models.ImageMessage,
		MediaURL:    "messages/1/photo.jpg",
	}); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	updated, err := conversationSvc.GetForUser(conversation.ID, 1)
	if err != nil {
		t.Fatalf("GetForUser failed: %v", err)
	}
	if updated.LastMessage != "[image]" {
		t.Errorf("expected placeholder preview, got %q", updated.LastMessage)
	}
}

func TestListPageOrdering(t *testing.T) {
	messageSvc, conversationSvc, _ := newMessageFixture(t, 1, 2)

	conversation, err := conversationSvc.FindOrCreateDirect(1, 2)
	if err != nil {
		t.Fatalf("FindOrCreateDirect failed: %v", err)
	}
	for i := 0; i < 7; i++ {
		if _, err := messageSvc.Send(conversation.ID, 1, SendMessageInput{MessageText: "m"}); err != nil {
			t.Fatalf("send failed: %v", err)
		}
	}

	pageOne, err := messageSvc.ListPage(conversation.ID, 2, 1, 3)
	if err != nil {
		t.Fatalf("ListPage failed: %v", err)
	}
	pageTwo, err := messageSvc.ListPage(conversation.ID, 2, 2, 3)
	if err != nil {
		t.Fatalf("ListPage failed: %v", err)
	}
	if len(pageOne) != 3 || len(pageTwo) != 3 {
		t.Fatalf("expected 3 messages per page, got %d and %d", len(pageOne), len(pageTwo))
	}

	// Page two is older than page one; concatenated older-to-newer the
	// timestamps never decrease.
	combined := append(append([]models.Message{}, pageTwo...), pageOne...)
	for i := 1; i < len(combined); i++ {
		if combined[i].CreatedAt.Before(combined[i-1].CreatedAt) {
			t.Fatalf("timestamps regress at index %d", i)
		}
	}

	if _, err := messageSvc.ListPage(conversation.ID, 99, 1, 3); !errors.Is(err, ErrNotAMember) {
		t.Errorf("expected ErrNotAMember for an outsider, got %v", err)
	}
}

func TestMarkConversationReadIsIdempotent(t *testing.T) {
	messageSvc, conversationSvc, fanout := newMessageFixture(t, 1, 2)

	conversation, err := conversationSvc.FindOrCreateDirect(1, 2)
	if err != nil {
		t.Fatalf("FindOrCreateDirect failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := messageSvc.Send(conversation.ID, 1, SendMessageInput{MessageText: "m"}); err != nil {
			t.Fatalf("send failed: %v", err)
		}
		waitForPublish(t, fanout)
	}

	marked, err := messageSvc.MarkConversationRead(conversation.ID, 2)
	if err != nil {
		t.Fatalf("MarkConversationRead failed: %v", err)
	}
	if marked != 3 {
		t.Errorf("expected 3 newly marked messages, got %d", marked)
	}

	select {
	case receipt := <-fanout.Receipts:
		if receipt.readerID != 2 || receipt.conversationID != conversation.ID {
			t.Errorf("unexpected receipt %+v", receipt)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for read receipt")
	}

	marked, err = messageSvc.MarkConversationRead(conversation.ID, 2)
	if err != nil {
		t.Fatalf("repeat MarkConversationRead failed: %v", err)
	}
	if marked != 0 {
		t.Errorf("expected repeat marking to be a no-op, got %d", marked)
	}
	select {
	case receipt := <-fanout.Receipts:
		t.Errorf("no receipt expected for a no-op marking, got %+v", receipt)
	case <-time.After(50 * time.Millisecond):
	}

	if _, err := messageSvc.MarkConversationRead(conversation.ID, 99); !errors.Is(err, ErrNotAMember) {
		t.Errorf("expected ErrNotAMember, got %v", err)
	}
}

func TestReactionReplaceSemantics(t *testing.T) {
	messageSvc, conversationSvc, _ := newMessageFixture(t, 1, 2, 3)

	conversation, err := conversationSvc.FindOrCreateDirect(1, 2)
	if err != nil {
		t.Fatalf("FindOrCreateDirect failed: %v", err)
	}
	message, err := messageSvc.Send(conversation.ID, 1, SendMessageInput{MessageText: "react to me"})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if _, err := messageSvc.AddReaction(message.ID, 3, "👍"); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for non-member reaction, got %v", err)
	}

	updated, err := messageSvc.AddReaction(message.ID, 2, "👍")
	if err != nil {
		t.Fatalf("AddReaction failed: %v", err)
	}
	if len(updated.Reactions) != 1 || updated.Reactions[0].Emoji != "👍" {
		t.Fatalf("unexpected reactions %+v", updated.Reactions)
	}

	updated, err = messageSvc.AddReaction(message.ID, 2, "❤️")
	if err != nil {
		t.Fatalf("second AddReaction failed: %v", err)
	}
	if len(updated.Reactions) != 1 || updated.Reactions[0].Emoji != "❤️" {
		t.Fatalf("expected replacement, got %+v", updated.Reactions)
	}

	updated, err = messageSvc.AddReaction(message.ID, 1, "😀")
	if err != nil {
		t.Fatalf("sender AddReaction failed: %v", err)
	}
	if len(updated.Reactions) != 2 {
		t.Fatalf("expected one reaction per user, got %+v", updated.Reactions)
	}

	updated, err = messageSvc.RemoveReaction(message.ID, 2)
	if err != nil {
		t.Fatalf("RemoveReaction failed: %v", err)
	}
	if len(updated.Reactions) != 1 || updated.Reactions[0].UserID != 1 {
		t.Fatalf("expected only the sender's reaction to remain, got %+v", updated.Reactions)
	}
}

func TestDeleteIsSenderOnly(t *testing.T) {
	messageSvc, conversationSvc, _ := newMessageFixture(t, 1, 2)

	conversation, err := conversationSvc.FindOrCreateDirect(1, 2)
	if err != nil {
		t.Fatalf("FindOrCreateDirect failed: %v", err)
	}
	message, err := messageSvc.Send(conversation.ID, 1, SendMessageInput{MessageText: "delete me"})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if err := messageSvc.Delete(message.ID, 2); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for non-sender delete, got %v", err)
	}
	if err := messageSvc.Delete(message.ID, 1); err != nil {
		t.Fatalf("sender delete failed: %v", err)
	}
	if err := messageSvc.Delete(message.ID, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
