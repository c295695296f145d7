package repository

import (
	"github.com/futureaiitofficial/travelconnect-sub000/internal/models"
	"gorm.io/gorm"
)

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create persists a conversation together with its member rows in one
// transaction. A duplicate pair key surfaces as the driver's unique-violation
// error; FindOrCreateDirect in the service retries on it.
func (r *ConversationRepository) Create(conversation *models.Conversation) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(conversation).Error
	})
}

func (r *ConversationRepository) FindByID(id uint) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.db.Preload("Members.User").First(&conversation, id).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *ConversationRepository) FindByPairKey(pairKey string) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.db.Preload("Members.User").Where("pair_key = ?", pairKey).First(&conversation).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *ConversationRepository) ListForUser(userID uint, page, pageSize int) ([]models.Conversation, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	var conversations []models.Conversation
	err := r.db.Preload("Members.User").
		Joins("JOIN conversation_members cm ON cm.conversation_id = conversations.id").
		Where("cm.user_id = ? AND conversations.is_active = true", userID).
		Order("conversations.last_message_at DESC NULLS LAST, conversations.id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&conversations).Error
	return conversations, err
}

func (r *ConversationRepository) IsMember(conversationID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.ConversationMember{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *ConversationRepository) AddMember(conversationID, userID uint) error {
	return r.db.Exec(`
		INSERT INTO conversation_members (conversation_id, user_id, joined_at)
		VALUES (?, ?, NOW())
		ON CONFLICT (conversation_id, user_id) DO NOTHING
	`, conversationID, userID).Error
}

func (r *ConversationRepository) RemoveMember(conversationID, userID uint) error {
	return r.db.Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Delete(&models.ConversationMember{}).Error
}

func (r *ConversationRepository) SetGroupAdmin(conversationID uint, adminID uint) error {
	return r.db.Model(&models.Conversation{}).Where("id = ?", conversationID).
		Update("group_admin_id", adminID).Error
}

// EarliestMember returns the longest-standing member, used to promote a new
// admin when the current one leaves.
func (r *ConversationRepository) EarliestMember(conversationID uint) (uint, error) {
	var member models.ConversationMember
	err := r.db.Where("conversation_id = ?", conversationID).
		Order("joined_at ASC, user_id ASC").
		First(&member).Error
	if err != nil {
		return 0, err
	}
	return member.UserID, nil
}

func (r *ConversationRepository) Deactivate(conversationID uint) error {
	return r.db.Model(&models.Conversation{}).Where("id = ?", conversationID).
		Update("is_active", false).Error
}
