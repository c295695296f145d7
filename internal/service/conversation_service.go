package service

import (
	"errors"

	"github.com/futureaiitofficial/travelconnect-sub000/internal/models"
	"github.com/futureaiitofficial/travelconnect-sub000/internal/repository"
	"github.com/futureaiitofficial/travelconnect-sub000/internal/validation"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

type ConversationService struct {
	conversationRepo repository.ConversationRepositoryInterface
	messageRepo      repository.MessageRepositoryInterface
	userRepo         repository.UserRepositoryInterface
}

func NewConversationService(
	conversationRepo repository.ConversationRepositoryInterface,
	messageRepo repository.MessageRepositoryInterface,
	userRepo repository.UserRepositoryInterface,
) *ConversationService {
	return &ConversationService{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		userRepo:         userRepo,
	}
}

// FindOrCreateDirect returns the single direct conversation for the pair,
// creating it if absent. The unique index on the canonicalized pair key makes
// this idempotent: if both participants race into the insert, the loser hits a
// unique violation and returns the winner's row.
func (s *ConversationService) FindOrCreateDirect(userA, userB uint) (*models.Conversation, error) {
	if userA == userB || userA == 0 || userB == 0 {
		return nil, ErrInvalidDirectPair
	}

	pairKey := models.DirectPairKey(userA, userB)
	conversation, err := s.conversationRepo.FindByPairKey(pairKey)
	if err == nil {
		return conversation, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if _, err := s.userRepo.FindByID(userB); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	conversation = &models.Conversation{
		IsGroup: false,
		PairKey: &pairKey,
		Members: []models.ConversationMember{
			{UserID: userA},
			{UserID: userB},
		},
	}

	if err := s.conversationRepo.Create(conversation); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return s.conversationRepo.FindByPairKey(pairKey)
		}
		return nil, err
	}

	return s.conversationRepo.FindByID(conversation.ID)
}

// CreateGroup creates a group conversation. The admin is always included; the
// deduplicated member set must end up with at least three users.
func (s *ConversationService) CreateGroup(name string, adminID uint, memberIDs []uint) (*models.Conversation, error) {
	name = validation.NormalizeGroupName(name)
	if name == "" {
		return nil, ErrInvalidGroupComposition
	}

	seen := map[uint]bool{adminID: true}
	members := []models.ConversationMember{{UserID: adminID}}
	for _, id := range memberIDs {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, models.ConversationMember{UserID: id})
	}
	if len(members) < 3 {
		return nil, ErrInvalidGroupComposition
	}

	conversation := &models.Conversation{
		IsGroup:      true,
		GroupName:    name,
		GroupAdminID: &adminID,
		Members:      members,
	}

	if err := s.conversationRepo.Create(conversation); err != nil {
		return nil, err
	}

	return s.conversationRepo.FindByID(conversation.ID)
}

// ListForUser returns the caller's conversations ordered by last activity,
// each annotated with the caller's unread count via a single grouped query.
func (s *ConversationService) ListForUser(userID uint, page, pageSize int) ([]models.ConversationResponse, error) {
	conversations, err := s.conversationRepo.ListForUser(userID, page, pageSize)
	if err != nil {
		return nil, err
	}

	counts, err := s.messageRepo.UnreadCountsForUser(userID)
	if err != nil {
		return nil, err
	}

	responses := make([]models.ConversationResponse, 0, len(conversations))
	for i := range conversations {
		responses = append(responses, conversations[i].ToResponse(counts[conversations[i].ID]))
	}
	return responses, nil
}

// GetForUser loads a conversation the caller belongs to.
func (s *ConversationService) GetForUser(conversationID, userID uint) (*models.Conversation, error) {
	conversation, err := s.conversationRepo.FindByID(conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !conversation.HasMember(userID) {
		return nil, ErrForbidden
	}
	return conversation, nil
}

func (s *ConversationService) AddMember(conversationID, callerID, newMemberID uint) (*models.Conversation, error) {
	conversation, err := s.conversationRepo.FindByID(conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !conversation.IsGroup {
		return nil, ErrNotGroupConversation
	}
	if !conversation.HasMember(callerID) {
		return nil, ErrNotAMember
	}
	if _, err := s.userRepo.FindByID(newMemberID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := s.conversationRepo.AddMember(conversationID, newMemberID); err != nil {
		return nil, err
	}
	return s.conversationRepo.FindByID(conversationID)
}

// RemoveMember removes a group member. Only the admin may remove others;
// anyone may remove themselves. Removing the admin promotes the earliest
// remaining member.
func (s *ConversationService) RemoveMember(conversationID, callerID, targetID uint) (*models.Conversation, error) {
	conversation, err := s.conversationRepo.FindByID(conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !conversation.IsGroup {
		return nil, ErrNotGroupConversation
	}
	if !conversation.HasMember(callerID) {
		return nil, ErrNotAMember
	}
	if !conversation.HasMember(targetID) {
		return nil, ErrNotFound
	}

	isAdmin := conversation.GroupAdminID != nil && *conversation.GroupAdminID == callerID
	if callerID != targetID && !isAdmin {
		return nil, ErrForbidden
	}

	if err := s.conversationRepo.RemoveMember(conversationID, targetID); err != nil {
		return nil, err
	}

	if conversation.GroupAdminID != nil && *conversation.GroupAdminID == targetID {
		nextAdmin, err := s.conversationRepo.EarliestMember(conversationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Last member left; archive instead of promoting.
				if err := s.conversationRepo.Deactivate(conversationID); err != nil {
					return nil, err
				}
				return s.conversationRepo.FindByID(conversationID)
			}
			return nil, err
		}
		if err := s.conversationRepo.SetGroupAdmin(conversationID, nextAdmin); err != nil {
			return nil, err
		}
	}

	return s.conversationRepo.FindByID(conversationID)
}

func (s *ConversationService) IsMember(conversationID, userID uint) (bool, error) {
	return s.conversationRepo.IsMember(conversationID, userID)
}
