package service

import (
	"errors"

	"github.com/futureaiitofficial/travelconnect-sub000/internal/cache"
	"github.com/futureaiitofficial/travelconnect-sub000/internal/repository"
	"gorm.io/gorm"
)

// UnreadService computes unread counts from read markers. Counts are
// count-only queries; message bodies are never loaded.
type UnreadService struct {
	messageRepo      repository.MessageRepositoryInterface
	conversationRepo repository.ConversationRepositoryInterface
	unreadCache      *cache.UnreadCache
}

func NewUnreadService(
	messageRepo repository.MessageRepositoryInterface,
	conversationRepo repository.ConversationRepositoryInterface,
	unreadCache *cache.UnreadCache,
) *UnreadService {
	return &UnreadService{
		messageRepo:      messageRepo,
		conversationRepo: conversationRepo,
		unreadCache:      unreadCache,
	}
}

func (s *UnreadService) UnreadCountFor(userID, conversationID uint) (int64, error) {
	isMember, err := s.conversationRepo.IsMember(conversationID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	if !isMember {
		return 0, ErrNotAMember
	}
	return s.messageRepo.UnreadCount(conversationID, userID)
}

// TotalUnreadFor is the global badge value, cached briefly since it is polled
// by every client.
func (s *UnreadService) TotalUnreadFor(userID uint) (int64, error) {
	if count, ok := s.unreadCache.GetTotal(userID); ok {
		return count, nil
	}

	count, err := s.messageRepo.TotalUnread(userID)
	if err != nil {
		return 0, err
	}

	_ = s.unreadCache.SetTotal(userID, count)
	return count, nil
}
