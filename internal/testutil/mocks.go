package testutil

import (
	"sync"
	"time"

	"github.com/futureaiitofficial/travelconnect-sub000/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// MockConversationRepository is an in-memory ConversationRepository for
// testing. It enforces pair-key uniqueness the way Postgres would, surfacing
// a unique-violation PgError so the find-or-create retry path is exercised.
type MockConversationRepository struct {
	mu            sync.Mutex
	conversations map[uint]*models.Conversation
	nextID        uint
}

func NewMockConversationRepository() *MockConversationRepository {
	return &MockConversationRepository{
		conversations: make(map[uint]*models.Conversation),
		nextID:        1,
	}
}

func (m *MockConversationRepository) Create(conversation *models.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if conversation.PairKey != nil {
		for _, existing := range m.conversations {
			if existing.PairKey != nil && *existing.PairKey == *conversation.PairKey {
				return &pgconn.PgError{Code: uniqueViolation}
			}
		}
	}

	conversation.ID = m.nextID
	m.nextID++
	conversation.CreatedAt = time.Now()
	conversation.IsActive = true
	for i := range conversation.Members {
		conversation.Members[i].ConversationID = conversation.ID
		if conversation.Members[i].JoinedAt.IsZero() {
			conversation.Members[i].JoinedAt = time.Now().Add(time.Duration(i) * time.Millisecond)
		}
	}
	m.conversations[conversation.ID] = conversation
	return nil
}

func (m *MockConversationRepository) FindByID(id uint) (*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if conversation, ok := m.conversations[id]; ok {
		copied := *conversation
		copied.Members = append([]models.ConversationMember(nil), conversation.Members...)
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockConversationRepository) FindByPairKey(pairKey string) (*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, conversation := range m.conversations {
		if conversation.PairKey != nil && *conversation.PairKey == pairKey {
			copied := *conversation
			copied.Members = append([]models.ConversationMember(nil), conversation.Members...)
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockConversationRepository) ListForUser(userID uint, page, pageSize int) ([]models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []models.Conversation
	for _, conversation := range m.conversations {
		if !conversation.IsActive {
			continue
		}
		for i := range conversation.Members {
			if conversation.Members[i].UserID == userID {
				result = append(result, *conversation)
				break
			}
		}
	}
	// newest activity first
	for i := 0; i < len(result); i++ {
		for j := i + 1; j < len(result); j++ {
			a, b := result[i].LastMessageAt, result[j].LastMessageAt
			if a == nil || (b != nil && b.After(*a)) {
				result[i], result[j] = result[j], result[i]
			}
		}
	}
	return result, nil
}

func (m *MockConversationRepository) IsMember(conversationID, userID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conversation, ok := m.conversations[conversationID]
	if !ok {
		return false, nil
	}
	for i := range conversation.Members {
		if conversation.Members[i].UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockConversationRepository) AddMember(conversationID, userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	conversation, ok := m.conversations[conversationID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range conversation.Members {
		if conversation.Members[i].UserID == userID {
			return nil
		}
	}
	conversation.Members = append(conversation.Members, models.ConversationMember{
		ConversationID: conversationID,
		UserID:         userID,
		JoinedAt:       time.Now(),
	})
	return nil
}

func (m *MockConversationRepository) RemoveMember(conversationID, userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	conversation, ok := m.conversations[conversationID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range conversation.Members {
		if conversation.Members[i].UserID == userID {
			conversation.Members = append(conversation.Members[:i], conversation.Members[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *MockConversationRepository) SetGroupAdmin(conversationID uint, adminID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	conversation, ok := m.conversations[conversationID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	conversation.GroupAdminID = &adminID
	return nil
}

func (m *MockConversationRepository) EarliestMember(conversationID uint) (uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conversation, ok := m.conversations[conversationID]
	if !ok || len(conversation.Members) == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	earliest := conversation.Members[0]
	for _, member := range conversation.Members[1:] {
		if member.JoinedAt.Before(earliest.JoinedAt) {
			earliest = member
		}
	}
	return earliest.UserID, nil
}

func (m *MockConversationRepository) Deactivate(conversationID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	conversation, ok := m.conversations[conversationID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	conversation.IsActive = false
	return nil
}

func (m *MockConversationRepository) updateSummary(conversationID uint, preview string, senderID uint, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if conversation, ok := m.conversations[conversationID]; ok {
		conversation.LastMessage = preview
		conversation.LastMessageByID = &senderID
		conversation.LastMessageAt = &at
	}
}

// MockMessageRepository is an in-memory MessageRepository. Creation
// timestamps come from a monotonic counter so ordering is deterministic, and
// the (client_id, sender_id) unique index is enforced the way Postgres would.
type MockMessageRepository struct {
	mu       sync.Mutex
	messages map[uint]*models.Message
	nextID   uint
	clock    time.Time

	conversations *MockConversationRepository
}

func NewMockMessageRepository(conversations *MockConversationRepository) *MockMessageRepository {
	return &MockMessageRepository{
		messages:      make(map[uint]*models.Message),
		nextID:        1,
		clock:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		conversations: conversations,
	}
}

func (m *MockMessageRepository) CreateWithSummary(message *models.Message, preview string) error {
	m.mu.Lock()
	for _, existing := range m.messages {
		if existing.ClientID == message.ClientID && existing.SenderID == message.SenderID {
			m.mu.Unlock()
			return &pgconn.PgError{Code: uniqueViolation}
		}
	}
	message.ID = m.nextID
	m.nextID++
	m.clock = m.clock.Add(time.Second)
	message.CreatedAt = m.clock
	stored := *message
	m.messages[message.ID] = &stored
	m.mu.Unlock()

	if m.conversations != nil {
		m.conversations.updateSummary(message.ConversationID, preview, message.SenderID, message.CreatedAt)
	}
	return nil
}

func (m *MockMessageRepository) FindByID(id uint) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if message, ok := m.messages[id]; ok {
		copied := *message
		copied.ReadBy = append([]models.MessageRead(nil), message.ReadBy...)
		copied.Reactions = append([]models.MessageReaction(nil), message.Reactions...)
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockMessageRepository) FindByClientID(clientID string, senderID uint) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, message := range m.messages {
		if message.ClientID == clientID && message.SenderID == senderID {
			copied := *message
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockMessageRepository) FindPage(conversationID uint, page, pageSize int) ([]models.Message, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 50
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var all []models.Message
	for _, message := range m.messages {
		if message.ConversationID == conversationID && !message.IsBlocked {
			all = append(all, *message)
		}
	}
	// newest first for pagination
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			if all[j].CreatedAt.After(all[i].CreatedAt) {
				all[i], all[j] = all[j], all[i]
			}
		}
	}

	start := (page - 1) * pageSize
	if start >= len(all) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	pageSlice := all[start:end]

	// chronological within the page
	for i, j := 0, len(pageSlice)-1; i < j; i, j = i+1, j-1 {
		pageSlice[i], pageSlice[j] = pageSlice[j], pageSlice[i]
	}
	return pageSlice, nil
}

func (m *MockMessageRepository) MarkConversationRead(conversationID, userID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var marked int64
	for _, message := range m.messages {
		if message.ConversationID != conversationID || message.SenderID == userID || message.IsBlocked {
			continue
		}
		if hasRead(message, userID) {
			continue
		}
		message.ReadBy = append(message.ReadBy, models.MessageRead{
			MessageID: message.ID,
			UserID:    userID,
			ReadAt:    time.Now(),
		})
		marked++
	}
	return marked, nil
}

func (m *MockMessageRepository) MarkOneRead(messageID, userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	message, ok := m.messages[messageID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if hasRead(message, userID) {
		return nil
	}
	message.ReadBy = append(message.ReadBy, models.MessageRead{
		MessageID: messageID,
		UserID:    userID,
		ReadAt:    time.Now(),
	})
	return nil
}

func (m *MockMessageRepository) UpsertReaction(messageID, userID uint, emoji string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	message, ok := m.messages[messageID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range message.Reactions {
		if message.Reactions[i].UserID == userID {
			message.Reactions[i].Emoji = emoji
			return nil
		}
	}
	message.Reactions = append(message.Reactions, models.MessageReaction{
		MessageID: messageID,
		UserID:    userID,
		Emoji:     emoji,
	})
	return nil
}

func (m *MockMessageRepository) DeleteReaction(messageID, userID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	message, ok := m.messages[messageID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	for i := range message.Reactions {
		if message.Reactions[i].UserID == userID {
			message.Reactions = append(message.Reactions[:i], message.Reactions[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (m *MockMessageRepository) Delete(messageID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.messages, messageID)
	return nil
}

func (m *MockMessageRepository) UnreadCount(conversationID, userID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for _, message := range m.messages {
		if message.ConversationID == conversationID && message.SenderID != userID &&
			!message.IsBlocked && !hasRead(message, userID) {
			count++
		}
	}
	return count, nil
}

func (m *MockMessageRepository) UnreadCountsForUser(userID uint) (map[uint]int64, error) {
	counts := make(map[uint]int64)
	if m.conversations == nil {
		return counts, nil
	}
	conversations, err := m.conversations.ListForUser(userID, 1, 100)
	if err != nil {
		return nil, err
	}
	for i := range conversations {
		count, err := m.UnreadCount(conversations[i].ID, userID)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			counts[conversations[i].ID] = count
		}
	}
	return counts, nil
}

func (m *MockMessageRepository) TotalUnread(userID uint) (int64, error) {
	counts, err := m.UnreadCountsForUser(userID)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, count := range counts {
		total += count
	}
	return total, nil
}

func hasRead(message *models.Message, userID uint) bool {
	for i := range message.ReadBy {
		if message.ReadBy[i].UserID == userID {
			return true
		}
	}
	return false
}

// MockUserRepository is an in-memory UserRepository for profile lookups.
type MockUserRepository struct {
	mu    sync.Mutex
	users map[uint]*models.User
}

func NewMockUserRepository(users ...*models.User) *MockUserRepository {
	repo := &MockUserRepository{users: make(map[uint]*models.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (m *MockUserRepository) FindByID(id uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockUserRepository) FindByIDs(ids []uint) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var users []models.User
	for _, id := range ids {
		if user, ok := m.users[id]; ok {
			users = append(users, *user)
		}
	}
	return users, nil
}

func (m *MockUserRepository) UpdateOnlineStatus(userID uint, isOnline bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.users[userID]; ok {
		user.IsOnline = isOnline
	}
	return nil
}

func (m *MockUserRepository) SearchUsers(query string, limit int) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var users []models.User
	for _, user := range m.users {
		if len(users) >= limit {
			break
		}
		users = append(users, *user)
	}
	return users, nil
}
