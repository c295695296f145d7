package service

import (
	"errors"
	"log"

	"github.com/futureaiitofficial/travelconnect-sub000/internal/cache"
	"github.com/futureaiitofficial/travelconnect-sub000/internal/models"
	"github.com/futureaiitofficial/travelconnect-sub000/internal/repository"
	"github.com/futureaiitofficial/travelconnect-sub000/internal/validation"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Fanout is the live-delivery boundary. Implementations are pure observers:
// they never touch persisted state and their failures never propagate back to
// the persistence call.
type Fanout interface {
	PublishMessage(memberIDs []uint, message models.MessageResponse)
	PublishReadReceipt(memberIDs []uint, conversationID, messageID, readerID uint)
}

type MessageService struct {
	messageRepo      repository.MessageRepositoryInterface
	conversationRepo repository.ConversationRepositoryInterface
	fanout           Fanout
	unreadCache      *cache.UnreadCache
}

func NewMessageService(
	messageRepo repository.MessageRepositoryInterface,
	conversationRepo repository.ConversationRepositoryInterface,
	fanout Fanout,
	unreadCache *cache.UnreadCache,
) *MessageService {
	return &MessageService{
		messageRepo:      messageRepo,
		conversationRepo: conversationRepo,
		fanout:           fanout,
		unreadCache:      unreadCache,
	}
}

type SendMessageInput struct {
	ClientID    string             `json:"client_id"`
	MessageText string             `json:"message_text"`
	MessageType models.MessageType `json:"message_type"`
	MediaURL    string             `json:"media_url"`
	Location    string             `json:"location"`
	ReplyToID   *uint              `json:"reply_to"`
}

// Send persists a message and its last-message summary in one transaction,
// then hands the result to the fan-out asynchronously. An invalid reply_to is
// dropped rather than failing the send; the message goes out without the link.
func (s *MessageService) Send(conversationID, senderID uint, input SendMessageInput) (*models.Message, error) {
	conversation, err := s.conversationRepo.FindByID(conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !conversation.HasMember(senderID) {
		return nil, ErrNotAMember
	}

	// Resend with the same correlation ID returns the original message
	// instead of creating a duplicate.
	if input.ClientID != "" {
		if existing, err := s.messageRepo.FindByClientID(input.ClientID, senderID); err == nil {
			return existing, nil
		}
	} else {
		input.ClientID = uuid.NewString()
	}

	replyTo := s.validateReplyTo(conversationID, input.ReplyToID)

	messageType := input.MessageType
	if messageType == "" {
		messageType = models.TextMessage
	}

	message := &models.Message{
		ClientID:       input.ClientID,
		ConversationID: conversationID,
		SenderID:       senderID,
		MessageText:    input.MessageText,
		MessageType:    messageType,
		MediaURL:       input.MediaURL,
		Location:       input.Location,
		ReplyToID:      replyTo,
		IsDelivered:    true,
	}

	preview := validation.Preview(message.MessageText, validation.PreviewLength)
	if preview == "" {
		preview = "[" + string(messageType) + "]"
	}

	if err := s.messageRepo.CreateWithSummary(message, preview); err != nil {
		// Two concurrent resends can both miss the dedup lookup; the loser
		// hits the (client_id, sender_id) unique index and returns the
		// winner's row, same as the direct-conversation pair key.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return s.messageRepo.FindByClientID(input.ClientID, senderID)
		}
		return nil, err
	}

	created, err := s.messageRepo.FindByID(message.ID)
	if err != nil {
		return nil, err
	}

	memberIDs := conversation.MemberIDs()
	s.unreadCache.InvalidateForUsers(memberIDs)
	if s.fanout != nil {
		go s.fanout.PublishMessage(memberIDs, created.ToResponse())
	}

	return created, nil
}

// validateReplyTo returns the reply link only when it references a
// non-blocked message in the same conversation.
func (s *MessageService) validateReplyTo(conversationID uint, replyToID *uint) *uint {
	if replyToID == nil || *replyToID == 0 {
		return nil
	}
	target, err := s.messageRepo.FindByID(*replyToID)
	if err != nil {
		log.Printf("Dropping reply link to missing message %d", *replyToID)
		return nil
	}
	if target.ConversationID != conversationID || target.IsBlocked {
		log.Printf("Dropping reply link to ineligible message %d", *replyToID)
		return nil
	}
	return replyToID
}

// ListPage returns one page of conversation history, oldest-first within the
// page; pagination itself walks backward in time.
func (s *MessageService) ListPage(conversationID, requesterID uint, page, pageSize int) ([]models.Message, error) {
	isMember, err := s.conversationRepo.IsMember(conversationID, requesterID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotAMember
	}
	return s.messageRepo.FindPage(conversationID, page, pageSize)
}

// MarkConversationRead marks every message not authored by userID as read by
// them. Re-marking is a no-op, so concurrent sessions converge.
func (s *MessageService) MarkConversationRead(conversationID, userID uint) (int64, error) {
	conversation, err := s.conversationRepo.FindByID(conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	if !conversation.HasMember(userID) {
		return 0, ErrNotAMember
	}

	marked, err := s.messageRepo.MarkConversationRead(conversationID, userID)
	if err != nil {
		return 0, err
	}

	s.unreadCache.Invalidate(userID)
	if marked > 0 && s.fanout != nil {
		go s.fanout.PublishReadReceipt(conversation.MemberIDs(), conversationID, 0, userID)
	}
	return marked, nil
}

func (s *MessageService) MarkOneRead(messageID, userID uint) error {
	message, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	conversation, err := s.conversationRepo.FindByID(message.ConversationID)
	if err != nil {
		return err
	}
	if !conversation.HasMember(userID) {
		return ErrForbidden
	}

	if err := s.messageRepo.MarkOneRead(messageID, userID); err != nil {
		return err
	}

	s.unreadCache.Invalidate(userID)
	if s.fanout != nil {
		go s.fanout.PublishReadReceipt(conversation.MemberIDs(), message.ConversationID, messageID, userID)
	}
	return nil
}

// AddReaction sets the caller's reaction on a message, replacing any previous
// one from the same caller.
func (s *MessageService) AddReaction(messageID, userID uint, emoji string) (*models.Message, error) {
	message, _, err := s.loadMessageForMember(messageID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.messageRepo.UpsertReaction(message.ID, userID, emoji); err != nil {
		return nil, err
	}
	return s.messageRepo.FindByID(messageID)
}

func (s *MessageService) RemoveReaction(messageID, userID uint) (*models.Message, error) {
	message, _, err := s.loadMessageForMember(messageID, userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.messageRepo.DeleteReaction(message.ID, userID); err != nil {
		return nil, err
	}
	return s.messageRepo.FindByID(messageID)
}

// Delete hard-deletes a message. Only the sender may do this.
func (s *MessageService) Delete(messageID, requesterID uint) error {
	message, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if message.SenderID != requesterID {
		return ErrForbidden
	}

	if err := s.messageRepo.Delete(messageID); err != nil {
		return err
	}

	if conversation, err := s.conversationRepo.FindByID(message.ConversationID); err == nil {
		s.unreadCache.InvalidateForUsers(conversation.MemberIDs())
	}
	return nil
}

func (s *MessageService) loadMessageForMember(messageID, userID uint) (*models.Message, *models.Conversation, error) {
	message, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	conversation, err := s.conversationRepo.FindByID(message.ConversationID)
	if err != nil {
		return nil, nil, err
	}
	if !conversation.HasMember(userID) {
		return nil, nil, ErrForbidden
	}
	return message, conversation, nil
}
