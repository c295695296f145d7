package models

import (
	"time"

	"gorm.io/gorm"
)

type MessageType string

const (
	TextMessage     MessageType = "text"
	ImageMessage    MessageType = "image"
	VideoMessage    MessageType = "video"
	FileMessage     MessageType = "file"
	LocationMessage MessageType = "location"
)

type Message struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// ClientID is the client-generated correlation UUID used for optimistic
	// send reconciliation and duplicate suppression.
	ClientID string `gorm:"type:varchar(36);uniqueIndex:idx_client_sender" json:"client_id"`

	ConversationID uint         `gorm:"not null;index" json:"conversation_id"`
	Conversation   Conversation `gorm:"foreignKey:ConversationID" json:"-"`
	SenderID       uint         `gorm:"not null;uniqueIndex:idx_client_sender;index" json:"sender_id"`
	Sender         User         `gorm:"foreignKey:SenderID" json:"sender"`

	MessageText string      `gorm:"type:text;not null" json:"message_text"`
	MessageType MessageType `gorm:"type:varchar(20);default:'text'" json:"message_type"`
	MediaURL    string      `json:"media_url,omitempty"`
	Location    string      `gorm:"size:255" json:"location,omitempty"`

	// ReplyToID points at an earlier message in the same conversation. The
	// link is a pointer, not a tree: replies to replies still reference a
	// single prior message.
	ReplyToID *uint    `gorm:"index" json:"reply_to_id,omitempty"`
	ReplyTo   *Message `gorm:"foreignKey:ReplyToID" json:"reply_to,omitempty"`

	// IsDelivered means the server accepted the message for broadcast. It is
	// independent of whether any recipient has read it.
	IsDelivered bool `gorm:"default:false" json:"is_delivered"`
	IsBlocked   bool `gorm:"default:false;index" json:"-"`

	ReadBy    []MessageRead     `gorm:"foreignKey:MessageID" json:"read_by"`
	Reactions []MessageReaction `gorm:"foreignKey:MessageID" json:"reactions"`
}

// MessageRead is one (user, timestamp) read marker. The composite primary key
// makes re-marking a natural no-op.
type MessageRead struct {
	MessageID uint      `gorm:"primaryKey" json:"message_id"`
	UserID    uint      `gorm:"primaryKey;index" json:"user_id"`
	ReadAt    time.Time `gorm:"autoCreateTime" json:"read_at"`
}

// MessageReaction holds at most one reaction per user per message; adding a
// second reaction from the same user replaces the first.
type MessageReaction struct {
	MessageID uint      `gorm:"primaryKey" json:"message_id"`
	UserID    uint      `gorm:"primaryKey;index" json:"user_id"`
	Emoji     string    `gorm:"size:16;not null" json:"emoji"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type MessageResponse struct {
	ID             uint              `json:"id"`
	ClientID       string            `json:"client_id"`
	ConversationID uint              `json:"conversation_id"`
	SenderID       uint              `json:"sender_id"`
	Sender         UserResponse      `json:"sender"`
	MessageText    string            `json:"message_text"`
	MessageType    MessageType       `json:"message_type"`
	MediaURL       string            `json:"media_url,omitempty"`
	Location       string            `json:"location,omitempty"`
	ReplyToID      *uint             `json:"reply_to_id,omitempty"`
	IsDelivered    bool              `json:"is_delivered"`
	IsRead         bool              `json:"is_read"`
	ReadBy         []MessageRead     `json:"read_by"`
	Reactions      []MessageReaction `json:"reactions"`
	CreatedAt      time.Time         `json:"created_at"`
}

// ToResponse maps a message for display. The is_read convenience flag is
// derived from the read markers rather than stored: true once anyone other
// than the sender has read the message.
func (m *Message) ToResponse() MessageResponse {
	readBy := m.ReadBy
	if readBy == nil {
		readBy = []MessageRead{}
	}
	reactions := m.Reactions
	if reactions == nil {
		reactions = []MessageReaction{}
	}
	isRead := false
	for i := range readBy {
		if readBy[i].UserID != m.SenderID {
			isRead = true
			break
		}
	}
	return MessageResponse{
		ID:             m.ID,
		ClientID:       m.ClientID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Sender:         m.Sender.ToResponse(),
		MessageText:    m.MessageText,
		MessageType:    m.MessageType,
		MediaURL:       m.MediaURL,
		Location:       m.Location,
		ReplyToID:      m.ReplyToID,
		IsDelivered:    m.IsDelivered,
		IsRead:         isRead,
		ReadBy:         readBy,
		Reactions:      reactions,
		CreatedAt:      m.CreatedAt,
	}
}
