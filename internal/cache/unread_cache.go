package cache

import (
	"fmt"
	"time"

	"github.com/futureaiitofficial/travelconnect-sub000/internal/models"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	// TotalUnreadTTL keeps the global badge cheap to poll without letting it
	// drift for long; every write path invalidates it anyway.
	TotalUnreadTTL      = 1 * time.Minute
	ConversationListTTL = 2 * time.Minute
)

// UnreadCache caches per-user unread totals and conversation-list payloads.
// All methods are safe on a nil receiver or nil Redis so the server can run
// without a cache.
type UnreadCache struct {
	redis *RedisCache
}

func NewUnreadCache(redis *RedisCache) *UnreadCache {
	return &UnreadCache{redis: redis}
}

func totalKey(userID uint) string {
	return fmt.Sprintf("unread:total:%d", userID)
}

func convListKey(userID uint) string {
	return fmt.Sprintf("convlist:%d", userID)
}

func (uc *UnreadCache) GetTotal(userID uint) (int64, bool) {
	if uc == nil || uc.redis == nil {
		return 0, false
	}
	data, err := uc.redis.Get(totalKey(userID))
	if err != nil || data == nil {
		return 0, false
	}

	var count int64
	if err := msgpack.Unmarshal(data, &count); err != nil {
		return 0, false
	}
	return count, true
}

func (uc *UnreadCache) SetTotal(userID uint, count int64) error {
	if uc == nil || uc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(count)
	if err != nil {
		return err
	}
	return uc.redis.Set(totalKey(userID), data, TotalUnreadTTL)
}

// Invalidate drops the user's unread total and conversation list.
func (uc *UnreadCache) Invalidate(userID uint) {
	if uc == nil || uc.redis == nil {
		return
	}
	_ = uc.redis.Delete(totalKey(userID), convListKey(userID))
}

// InvalidateForUsers drops cached state for every member touched by a write.
func (uc *UnreadCache) InvalidateForUsers(userIDs []uint) {
	for _, id := range userIDs {
		uc.Invalidate(id)
	}
}

func (uc *UnreadCache) GetConversationList(userID uint) ([]models.ConversationResponse, bool) {
	if uc == nil || uc.redis == nil {
		return nil, false
	}
	data, err := uc.redis.Get(convListKey(userID))
	if err != nil || data == nil {
		return nil, false
	}

	var conversations []models.ConversationResponse
	if err := msgpack.Unmarshal(data, &conversations); err != nil {
		return nil, false
	}
	return conversations, true
}

func (uc *UnreadCache) SetConversationList(userID uint, conversations []models.ConversationResponse) error {
	if uc == nil || uc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(conversations)
	if err != nil {
		return err
	}
	return uc.redis.Set(convListKey(userID), data, ConversationListTTL)
}
