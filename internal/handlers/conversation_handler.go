package handlers

import (
	"log"
	"strconv"

	"github.com/futureaiitofficial/travelconnect-sub000/internal/cache"
	"github.com/futureaiitofficial/travelconnect-sub000/internal/httpx"
	"github.com/futureaiitofficial/travelconnect-sub000/internal/models"
	"github.com/futureaiitofficial/travelconnect-sub000/internal/service"
	"github.com/gofiber/fiber/v2"
)

type ConversationHandler struct {
	conversationService *service.ConversationService
	messageService      *service.MessageService
	unreadCache         *cache.UnreadCache
}

func NewConversationHandler(
	conversationService *service.ConversationService,
	messageService *service.MessageService,
	unreadCache *cache.UnreadCache,
) *ConversationHandler {
	return &ConversationHandler{
		conversationService: conversationService,
		messageService:      messageService,
		unreadCache:         unreadCache,
	}
}

// GetConversations lists the caller's conversations by last activity with
// unread counts. The first default page is served from cache when possible.
func (h *ConversationHandler) GetConversations(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 20)

	if page == 1 && pageSize == 20 {
		if cached, ok := h.unreadCache.GetConversationList(userID); ok {
			return c.JSON(fiber.Map{
				"conversations": cached,
				"count":         len(cached),
			})
		}
	}

	conversations, err := h.conversationService.ListForUser(userID, page, pageSize)
	if err != nil {
		return httpx.Internal(c, "list_conversations_failed")
	}

	if page == 1 && pageSize == 20 {
		if err := h.unreadCache.SetConversationList(userID, conversations); err != nil {
			log.Printf("Failed to cache conversation list for user %d: %v", userID, err)
		}
	}

	return c.JSON(fiber.Map{
		"conversations": conversations,
		"count":         len(conversations),
	})
}

type createConversationInput struct {
	UserID    uint   `json:"user_id"`
	IsGroup   bool   `json:"is_group"`
	GroupName string `json:"group_name"`
	MemberIDs []uint `json:"member_ids"`
}

// CreateConversation starts a direct conversation (body: user_id) or a group
// (body: is_group, group_name, member_ids).
func (h *ConversationHandler) CreateConversation(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input createConversationInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	var conversation *models.Conversation
	if input.IsGroup {
		conversation, err = h.conversationService.CreateGroup(input.GroupName, userID, input.MemberIDs)
	} else {
		if input.UserID == 0 {
			return httpx.BadRequest(c, "missing_user", "user_id is required for direct conversations")
		}
		conversation, err = h.conversationService.FindOrCreateDirect(userID, input.UserID)
	}
	if err != nil {
		return httpx.ServiceError(c, err, "create_conversation_failed")
	}

	h.unreadCache.Invalidate(userID)
	return c.Status(fiber.StatusCreated).JSON(conversation.ToResponse(0))
}

// GetConversation returns conversation metadata plus one page of history and,
// as a side effect, marks the fetched conversation read for the caller.
func (h *ConversationHandler) GetConversation(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	conversationID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_conversation_id", "Invalid conversation id")
	}

	conversation, err := h.conversationService.GetForUser(conversationID, userID)
	if err != nil {
		return httpx.ServiceError(c, err, "fetch_conversation_failed")
	}

	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 50)

	// Mark before fetching so the returned page already carries the caller's
	// read markers.
	if _, err := h.messageService.MarkConversationRead(conversationID, userID); err != nil {
		log.Printf("Failed to mark conversation %d read for user %d: %v", conversationID, userID, err)
	}

	messages, err := h.messageService.ListPage(conversationID, userID, page, pageSize)
	if err != nil {
		return httpx.ServiceError(c, err, "fetch_messages_failed")
	}

	responses := make([]models.MessageResponse, 0, len(messages))
	for i := range messages {
		responses = append(responses, messages[i].ToResponse())
	}

	return c.JSON(fiber.Map{
		"conversation": conversation.ToResponse(0),
		"messages":     responses,
		"count":        len(responses),
		"page":         page,
	})
}

type memberInput struct {
	UserID uint `json:"user_id"`
}

func (h *ConversationHandler) AddMember(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	conversationID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_conversation_id", "Invalid conversation id")
	}

	var input memberInput
	if err := c.BodyParser(&input); err != nil || input.UserID == 0 {
		return httpx.BadRequest(c, "missing_user", "user_id is required")
	}

	conversation, err := h.conversationService.AddMember(conversationID, userID, input.UserID)
	if err != nil {
		return httpx.ServiceError(c, err, "add_member_failed")
	}

	return c.JSON(conversation.ToResponse(0))
}

func (h *ConversationHandler) RemoveMember(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	conversationID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_conversation_id", "Invalid conversation id")
	}
	targetID, err := paramUint(c, "user_id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_user_id", "Invalid user id")
	}

	conversation, err := h.conversationService.RemoveMember(conversationID, userID, targetID)
	if err != nil {
		return httpx.ServiceError(c, err, "remove_member_failed")
	}

	return c.JSON(conversation.ToResponse(0))
}

func queryInt(c *fiber.Ctx, key string, fallback int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return fallback
}

func paramUint(c *fiber.Ctx, key string) (uint, error) {
	v, err := strconv.ParseUint(c.Params(key), 10, 32)
	return uint(v), err
}
