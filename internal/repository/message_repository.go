package repository

import (
	"github.com/futureaiitofficial/travelconnect-sub000/internal/models"
	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// CreateWithSummary persists the message and overwrites the conversation's
// last-message preview in a single transaction, so a failed send leaves no
// partial state behind.
func (r *MessageRepository) CreateWithSummary(message *models.Message, preview string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", message.ConversationID).
			Updates(map[string]interface{}{
				"last_message":       preview,
				"last_message_by_id": message.SenderID,
				"last_message_at":    message.CreatedAt,
			}).Error
	})
}

func (r *MessageRepository) FindByID(id uint) (*models.Message, error) {
	var message models.Message
	err := r.db.Preload("Sender").Preload("ReadBy").Preload("Reactions").
		First(&message, id).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *MessageRepository) FindByClientID(clientID string, senderID uint) (*models.Message, error) {
	var message models.Message
	err := r.db.Preload("Sender").
		Where("client_id = ? AND sender_id = ?", clientID, senderID).
		First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// FindPage fetches one page of a conversation, walking backward in time.
// The query is newest-first for pagination; the page itself is reversed so
// callers always receive chronological order for display.
func (r *MessageRepository) FindPage(conversationID uint, page, pageSize int) ([]models.Message, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 50
	}

	var messages []models.Message
	err := r.db.Preload("Sender").Preload("ReadBy").Preload("Reactions").
		Where("conversation_id = ? AND is_blocked = false", conversationID).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Reverse to chronological order within the page
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// MarkConversationRead inserts read markers for every message in the
// conversation not authored by the reader. The conflict clause makes
// concurrent re-marking from multiple sessions converge without error.
func (r *MessageRepository) MarkConversationRead(conversationID, userID uint) (int64, error) {
	result := r.db.Exec(`
		INSERT INTO message_reads (message_id, user_id, read_at)
		SELECT m.id, ?, NOW()
		FROM messages m
		WHERE m.conversation_id = ?
		  AND m.sender_id <> ?
		  AND m.deleted_at IS NULL
		  AND m.is_blocked = false
		ON CONFLICT (message_id, user_id) DO NOTHING
	`, userID, conversationID, userID)
	return result.RowsAffected, result.Error
}

func (r *MessageRepository) MarkOneRead(messageID, userID uint) error {
	return r.db.Exec(`
		INSERT INTO message_reads (message_id, user_id, read_at)
		VALUES (?, ?, NOW())
		ON CONFLICT (message_id, user_id) DO NOTHING
	`, messageID, userID).Error
}

// UpsertReaction adds or replaces the user's reaction on a message.
func (r *MessageRepository) UpsertReaction(messageID, userID uint, emoji string) error {
	return r.db.Exec(`
		INSERT INTO message_reactions (message_id, user_id, emoji, created_at)
		VALUES (?, ?, ?, NOW())
		ON CONFLICT (message_id, user_id) DO UPDATE
		SET emoji = EXCLUDED.emoji, created_at = NOW()
	`, messageID, userID, emoji).Error
}

func (r *MessageRepository) DeleteReaction(messageID, userID uint) (int64, error) {
	result := r.db.Where("message_id = ? AND user_id = ?", messageID, userID).
		Delete(&models.MessageReaction{})
	return result.RowsAffected, result.Error
}

// Delete hard-deletes a message along with its read markers and reactions.
func (r *MessageRepository) Delete(messageID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", messageID).Delete(&models.MessageRead{}).Error; err != nil {
			return err
		}
		if err := tx.Where("message_id = ?", messageID).Delete(&models.MessageReaction{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&models.Message{}, messageID).Error
	})
}

// UnreadCount is count-only: no message bodies are loaded.
func (r *MessageRepository) UnreadCount(conversationID, userID uint) (int64, error) {
	var count int64
	err := r.db.Raw(`
		SELECT COUNT(*)
		FROM messages m
		WHERE m.conversation_id = ?
		  AND m.sender_id <> ?
		  AND m.deleted_at IS NULL
		  AND m.is_blocked = false
		  AND NOT EXISTS (
			SELECT 1 FROM message_reads mr
			WHERE mr.message_id = m.id AND mr.user_id = ?
		  )
	`, conversationID, userID, userID).Scan(&count).Error
	return count, err
}

type unreadRow struct {
	ConversationID uint  `gorm:"column:conversation_id"`
	UnreadCount    int64 `gorm:"column:unread_count"`
}

// UnreadCountsForUser computes per-conversation unread counts in a single
// query so the conversation list avoids an N+1.
func (r *MessageRepository) UnreadCountsForUser(userID uint) (map[uint]int64, error) {
	var rows []unreadRow
	err := r.db.Raw(`
		SELECT m.conversation_id, COUNT(*) AS unread_count
		FROM messages m
		JOIN conversation_members cm
		  ON cm.conversation_id = m.conversation_id AND cm.user_id = ?
		WHERE m.sender_id <> ?
		  AND m.deleted_at IS NULL
		  AND m.is_blocked = false
		  AND NOT EXISTS (
			SELECT 1 FROM message_reads mr
			WHERE mr.message_id = m.id AND mr.user_id = ?
		  )
		GROUP BY m.conversation_id
	`, userID, userID, userID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.ConversationID] = row.UnreadCount
	}
	return counts, nil
}

func (r *MessageRepository) TotalUnread(userID uint) (int64, error) {
	var count int64
	err := r.db.Raw(`
		SELECT COUNT(*)
		FROM messages m
		JOIN conversation_members cm
		  ON cm.conversation_id = m.conversation_id AND cm.user_id = ?
		WHERE m.sender_id <> ?
		  AND m.deleted_at IS NULL
		  AND m.is_blocked = false
		  AND NOT EXISTS (
			SELECT 1 FROM message_reads mr
			WHERE mr.message_id = m.id AND mr.user_id = ?
		  )
	`, userID, userID, userID).Scan(&count).Error
	return count, err
}
