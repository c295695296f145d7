package repository

import (
	"github.com/futureaiitofficial/travelconnect-sub000/internal/models"
)

// UserRepositoryInterface defines the contract for user profile lookups
type UserRepositoryInterface interface {
	FindByID(id uint) (*models.User, error)
	FindByIDs(ids []uint) ([]models.User, error)
	UpdateOnlineStatus(userID uint, isOnline bool) error
	SearchUsers(query string, limit int) ([]models.User, error)
}

// ConversationRepositoryInterface defines the contract for the conversation directory
type ConversationRepositoryInterface interface {
	Create(conversation *models.Conversation) error
	FindByID(id uint) (*models.Conversation, error)
	FindByPairKey(pairKey string) (*models.Conversation, error)
	ListForUser(userID uint, page, pageSize int) ([]models.Conversation, error)
	IsMember(conversationID, userID uint) (bool, error)
	AddMember(conversationID, userID uint) error
	RemoveMember(conversationID, userID uint) error
	SetGroupAdmin(conversationID uint, adminID uint) error
	EarliestMember(conversationID uint) (uint, error)
	Deactivate(conversationID uint) error
}

// MessageRepositoryInterface defines the contract for the message store
type MessageRepositoryInterface interface {
	CreateWithSummary(message *models.Message, preview string) error
	FindByID(id uint) (*models.Message, error)
	FindByClientID(clientID string, senderID uint) (*models.Message, error)
	FindPage(conversationID uint, page, pageSize int) ([]models.Message, error)
	MarkConversationRead(conversationID, userID uint) (int64, error)
	MarkOneRead(messageID, userID uint) error
	UpsertReaction(messageID, userID uint, emoji string) error
	DeleteReaction(messageID, userID uint) (int64, error)
	Delete(messageID uint) error
	UnreadCount(conversationID, userID uint) (int64, error)
	UnreadCountsForUser(userID uint) (map[uint]int64, error)
	TotalUnread(userID uint) (int64, error)
}
