package models

import (
	"testing"
	"time"
)

func TestDirectPairKeyCanonicalizes(t *testing.T) {
	if DirectPairKey(7, 3) != DirectPairKey(3, 7) {
		t.Error("pair key must be order-independent")
	}
	if got := DirectPairKey(3, 7); got != "3:7" {
		t.Errorf("expected 3:7, got %q", got)
	}
}

func TestMessageResponseDerivedRead(t *testing.T) {
	message := Message{ID: 10, SenderID: 1, MessageText: "hi"}

	response := message.ToResponse()
	if response.IsRead {
		t.Error("message with no read markers should not be read")
	}
	if response.ReadBy == nil || response.Reactions == nil {
		t.Error("nil slices should serialize as empty arrays")
	}

	// A sender's own marker does not make the message read.
	message.ReadBy = []MessageRead{{MessageID: 10, UserID: 1, ReadAt: time.Now()}}
	if message.ToResponse().IsRead {
		t.Error("the sender's own marker must not count")
	}

	message.ReadBy = append(message.ReadBy, MessageRead{MessageID: 10, UserID: 2, ReadAt: time.Now()})
	if !message.ToResponse().IsRead {
		t.Error("a recipient marker should flip is_read")
	}
}

func TestConversationMembership(t *testing.T) {
	conversation := Conversation{
		ID: 5,
		Members: []ConversationMember{
			{ConversationID: 5, UserID: 1},
			{ConversationID: 5, UserID: 2},
		},
	}

	if !conversation.HasMember(1) || !conversation.HasMember(2) {
		t.Error("expected both users to be members")
	}
	if conversation.HasMember(3) {
		t.Error("user 3 is not a member")
	}

	ids := conversation.MemberIDs()
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Errorf("unexpected member IDs %v", ids)
	}
}

func TestConversationToResponseCarriesSummary(t *testing.T) {
	now := time.Now()
	byID := uint(2)
	conversation := Conversation{
		ID:              5,
		IsGroup:         true,
		GroupName:       "Trip",
		LastMessage:     "see you there",
		LastMessageByID: &byID,
		LastMessageAt:   &now,
		Members: []ConversationMember{
			{UserID: 1, User: User{ID: 1, Username: "alice"}},
			{UserID: 2, User: User{ID: 2, Username: "bob"}},
		},
	}

	response := conversation.ToResponse(4)
	if response.UnreadCount != 4 {
		t.Errorf("expected unread 4, got %d", response.UnreadCount)
	}
	if response.LastMessage != "see you there" || response.LastMessageBy == nil || *response.LastMessageBy != 2 {
		t.Errorf("summary not carried: %+v", response)
	}
	if len(response.Members) != 2 || response.Members[0].Username != "alice" {
		t.Errorf("members not mapped: %+v", response.Members)
	}
}
