package handlers

import (
	"github.com/futureaiitofficial/travelconnect-sub000/internal/httpx"
	"github.com/futureaiitofficial/travelconnect-sub000/internal/service"
	"github.com/futureaiitofficial/travelconnect-sub000/internal/validation"
	"github.com/gofiber/fiber/v2"
)

type MessageHandler struct {
	messageService *service.MessageService
	unreadService  *service.UnreadService
}

func NewMessageHandler(messageService *service.MessageService, unreadService *service.UnreadService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		unreadService:  unreadService,
	}
}

// SendMessage posts a message into a conversation. Location and media typed
// messages may carry an empty text body.
func (h *MessageHandler) SendMessage(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	conversationID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_conversation_id", "Invalid conversation id")
	}

	var input service.SendMessageInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	input.MessageText = validation.TrimAndLimit(input.MessageText, validation.MaxMessageLength())
	if input.MessageText == "" && input.MediaURL == "" && input.Location == "" {
		return httpx.BadRequest(c, "missing_content", "Message needs text, media or a location")
	}

	message, err := h.messageService.Send(conversationID, userID, input)
	if err != nil {
		return httpx.ServiceError(c, err, "send_message_failed")
	}

	return c.Status(fiber.StatusCreated).JSON(message.ToResponse())
}

// MarkConversationRead bulk-marks the conversation read for the caller.
func (h *MessageHandler) MarkConversationRead(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	conversationID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_conversation_id", "Invalid conversation id")
	}

	marked, err := h.messageService.MarkConversationRead(conversationID, userID)
	if err != nil {
		return httpx.ServiceError(c, err, "mark_read_failed")
	}

	return c.JSON(fiber.Map{"marked": marked})
}

func (h *MessageHandler) MarkOneRead(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	messageID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_message_id", "Invalid message id")
	}

	if err := h.messageService.MarkOneRead(messageID, userID); err != nil {
		return httpx.ServiceError(c, err, "mark_read_failed")
	}

	return c.JSON(fiber.Map{"ok": true})
}

func (h *MessageHandler) DeleteMessage(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	messageID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_message_id", "Invalid message id")
	}

	if err := h.messageService.Delete(messageID, userID); err != nil {
		return httpx.ServiceError(c, err, "delete_message_failed")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

type reactionInput struct {
	Emoji string `json:"emoji"`
}

// AddReaction sets the caller's reaction; a second reaction from the same
// caller replaces the first.
func (h *MessageHandler) AddReaction(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	messageID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_message_id", "Invalid message id")
	}

	var input reactionInput
	if err := c.BodyParser(&input); err != nil || !validation.ValidEmoji(input.Emoji) {
		return httpx.BadRequest(c, "invalid_emoji", "A single emoji is required")
	}

	message, err := h.messageService.AddReaction(messageID, userID, input.Emoji)
	if err != nil {
		return httpx.ServiceError(c, err, "add_reaction_failed")
	}

	return c.JSON(message.ToResponse())
}

func (h *MessageHandler) RemoveReaction(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	messageID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_message_id", "Invalid message id")
	}

	message, err := h.messageService.RemoveReaction(messageID, userID)
	if err != nil {
		return httpx.ServiceError(c, err, "remove_reaction_failed")
	}

	return c.JSON(message.ToResponse())
}

// GetUnreadCount is the global badge value for the caller.
func (h *MessageHandler) GetUnreadCount(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	count, err := h.unreadService.TotalUnreadFor(userID)
	if err != nil {
		return httpx.Internal(c, "unread_count_failed")
	}

	return c.JSON(fiber.Map{"unread_count": count})
}
