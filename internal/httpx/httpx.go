package httpx

import (
	"errors"
	"fmt"

	"github.com/futureaiitofficial/travelconnect-sub000/internal/service"
	"github.com/gofiber/fiber/v2"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func requestID(c *fiber.Ctx) string {
	if v := c.Locals("requestid"); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func Error(c *fiber.Ctx, status int, code string, message string) error {
	if message == "" {
		message = "Request failed"
	}
	return c.Status(status).JSON(ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestID(c),
	})
}

func BadRequest(c *fiber.Ctx, code string, message string) error {
	return Error(c, fiber.StatusBadRequest, code, message)
}

func Unauthorized(c *fiber.Ctx, code string, message string) error {
	return Error(c, fiber.StatusUnauthorized, code, message)
}

func Forbidden(c *fiber.Ctx, code string, message string) error {
	return Error(c, fiber.StatusForbidden, code, message)
}

func NotFound(c *fiber.Ctx, code string, message string) error {
	return Error(c, fiber.StatusNotFound, code, message)
}

func UnprocessableEntity(c *fiber.Ctx, code string, message string) error {
	return Error(c, fiber.StatusUnprocessableEntity, code, message)
}

func Internal(c *fiber.Ctx, code string) error {
	return Error(c, fiber.StatusInternalServerError, code, "Internal server error")
}

// ServiceError maps the messaging error taxonomy onto HTTP statuses;
// anything unrecognized is a 500 with the given fallback code.
func ServiceError(c *fiber.Ctx, err error, fallbackCode string) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return NotFound(c, "not_found", "Resource not found")
	case errors.Is(err, service.ErrForbidden):
		return Forbidden(c, "forbidden", "You are not allowed to do that")
	case errors.Is(err, service.ErrNotAMember):
		return Forbidden(c, "not_a_member", "You are not a member of this conversation")
	case errors.Is(err, service.ErrNotGroupConversation):
		return BadRequest(c, "not_group_conversation", "Membership can only change on group conversations")
	case errors.Is(err, service.ErrInvalidGroupComposition):
		return UnprocessableEntity(c, "invalid_group_composition", "Groups need a name and at least three members")
	case errors.Is(err, service.ErrInvalidDirectPair):
		return BadRequest(c, "invalid_direct_pair", "Cannot start a direct conversation with yourself")
	default:
		return Internal(c, fallbackCode)
	}
}

func LocalUint(c *fiber.Ctx, key string) (uint, error) {
	v := c.Locals(key)
	if v == nil {
		return 0, fmt.Errorf("missing local %s", key)
	}
	u, ok := v.(uint)
	if !ok {
		return 0, fmt.Errorf("invalid local %s", key)
	}
	return u, nil
}
