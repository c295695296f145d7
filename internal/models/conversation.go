package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Conversation struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	IsGroup      bool   `gorm:"not null;default:false" json:"is_group"`
	GroupName    string `gorm:"size:100" json:"group_name,omitempty"`
	GroupAdminID *uint  `gorm:"index" json:"group_admin_id,omitempty"`

	// PairKey is "min:max" of the two member IDs for direct conversations and
	// NULL for groups. The unique index is what makes FindOrCreateDirect safe
	// under concurrent calls from both participants.
	PairKey *string `gorm:"uniqueIndex" json:"-"`

	// Denormalized preview of the most recent message, written in the same
	// transaction as the message itself.
	LastMessage     string     `gorm:"size:255" json:"last_message"`
	LastMessageByID *uint      `json:"last_message_by"`
	LastMessageAt   *time.Time `gorm:"index" json:"last_message_at"`

	IsActive bool `gorm:"not null;default:true" json:"is_active"`

	Members []ConversationMember `gorm:"foreignKey:ConversationID" json:"members"`
}

type ConversationMember struct {
	ConversationID uint      `gorm:"primaryKey" json:"conversation_id"`
	UserID         uint      `gorm:"primaryKey;index" json:"user_id"`
	JoinedAt       time.Time `gorm:"autoCreateTime" json:"joined_at"`

	User         User         `gorm:"foreignKey:UserID" json:"user"`
	Conversation Conversation `gorm:"foreignKey:ConversationID" json:"-"`
}

// DirectPairKey canonicalizes an unordered user pair into the unique key used
// to enforce at-most-one direct conversation per pair.
func DirectPairKey(userA, userB uint) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return fmt.Sprintf("%d:%d", userA, userB)
}

type ConversationResponse struct {
	ID            uint           `json:"id"`
	IsGroup       bool           `json:"is_group"`
	GroupName     string         `json:"group_name,omitempty"`
	GroupAdminID  *uint          `json:"group_admin_id,omitempty"`
	LastMessage   string         `json:"last_message"`
	LastMessageBy *uint          `json:"last_message_by"`
	LastMessageAt *time.Time     `json:"last_message_at"`
	UnreadCount   int64          `json:"unread_count"`
	Members       []UserResponse `json:"members"`
	CreatedAt     time.Time      `json:"created_at"`
}

func (c *Conversation) ToResponse(unreadCount int64) ConversationResponse {
	members := make([]UserResponse, 0, len(c.Members))
	for i := range c.Members {
		members = append(members, c.Members[i].User.ToResponse())
	}
	return ConversationResponse{
		ID:            c.ID,
		IsGroup:       c.IsGroup,
		GroupName:     c.GroupName,
		GroupAdminID:  c.GroupAdminID,
		LastMessage:   c.LastMessage,
		LastMessageBy: c.LastMessageByID,
		LastMessageAt: c.LastMessageAt,
		UnreadCount:   unreadCount,
		Members:       members,
		CreatedAt:     c.CreatedAt,
	}
}

// HasMember reports whether userID is a current member. Only meaningful when
// Members has been preloaded.
func (c *Conversation) HasMember(userID uint) bool {
	for i := range c.Members {
		if c.Members[i].UserID == userID {
			return true
		}
	}
	return false
}

// MemberIDs returns the user IDs of all current members.
func (c *Conversation) MemberIDs() []uint {
	ids := make([]uint, 0, len(c.Members))
	for i := range c.Members {
		ids = append(ids, c.Members[i].UserID)
	}
	return ids
}
