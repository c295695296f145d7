package testutil

import (
	"os"
	"testing"
	"time"

	"github.com/futureaiitofficial/travelconnect-sub000/internal/models"
)

// TestHelper provides utility functions for tests
type TestHelper struct {
	t *testing.T
}

func NewTestHelper(t *testing.T) *TestHelper {
	return &TestHelper{t: t}
}

// CreateTestUser creates a test user with default values
func (h *TestHelper) CreateTestUser(id uint, username string) *models.User {
	if id == 0 {
		id = 1
	}
	if username == "" {
		username = "testuser"
	}

	return &models.User{
		ID:        id,
		Username:  username,
		FullName:  "Test User",
		Avatar:    "https://example.com/avatar.jpg",
		IsOnline:  false,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// CreateTestConversation creates a direct test conversation between two users
func (h *TestHelper) CreateTestConversation(id uint, userA, userB uint) *models.Conversation {
	if id == 0 {
		id = 1
	}
	pairKey := models.DirectPairKey(userA, userB)
	return &models.Conversation{
		ID:       id,
		IsGroup:  false,
		PairKey:  &pairKey,
		IsActive: true,
		Members: []models.ConversationMember{
			{ConversationID: id, UserID: userA, JoinedAt: time.Now()},
			{ConversationID: id, UserID: userB, JoinedAt: time.Now()},
		},
		CreatedAt: time.Now(),
	}
}

// CreateTestMessage creates a test message with default values
func (h *TestHelper) CreateTestMessage(id uint, conversationID, senderID uint, text string) *models.Message {
	if id == 0 {
		id = 1
	}
	if conversationID == 0 {
		conversationID = 1
	}
	if senderID == 0 {
		senderID = 1
	}
	if text == "" {
		text = "Test message"
	}

	return &models.Message{
		ID:             id,
		ClientID:       "client-test",
		ConversationID: conversationID,
		SenderID:       senderID,
		MessageText:    text,
		MessageType:    models.TextMessage,
		IsDelivered:    true,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
		Sender: models.User{
			ID:       senderID,
			Username: "sender",
		},
	}
}

// SetupTestEnv sets up required environment variables for testing
func (h *TestHelper) SetupTestEnv() {
	os.Setenv("JWT_SECRET", "test-secret-key-for-testing-only")
	os.Setenv("DATABASE_URL", "")
	os.Setenv("MAX_MESSAGE_LENGTH", "")
}

// TeardownTestEnv cleans up environment variables after testing
func (h *TestHelper) TeardownTestEnv() {
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("DATABASE_URL")
	os.Unsetenv("MAX_MESSAGE_LENGTH")
}

// AssertError checks if an error occurred when it should (or shouldn't)
func (h *TestHelper) AssertError(err error, shouldErr bool, testName string) {
	if (err != nil) != shouldErr {
		if shouldErr {
			h.t.Errorf("%s: expected error but got nil", testName)
		} else {
			h.t.Errorf("%s: unexpected error: %v", testName, err)
		}
	}
}

// AssertEqual checks if two values are equal
func (h *TestHelper) AssertEqual(got, want interface{}, testName string) {
	if got != want {
		h.t.Errorf("%s: got %v, want %v", testName, got, want)
	}
}
