package handlers

import (
	"strings"

	"github.com/futureaiitofficial/travelconnect-sub000/internal/httpx"
	"github.com/futureaiitofficial/travelconnect-sub000/internal/models"
	"github.com/futureaiitofficial/travelconnect-sub000/internal/service"
	"github.com/gofiber/fiber/v2"
)

// UserHandler exposes the profile-lookup boundary used for member and sender
// enrichment in conversation views.
type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	if _, err := httpx.LocalUint(c, "userID"); err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	userID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_user_id", "Invalid user id")
	}

	user, err := h.userService.GetUser(userID)
	if err != nil {
		return httpx.ServiceError(c, err, "fetch_user_failed")
	}

	return c.JSON(user.ToResponse())
}

func (h *UserHandler) SearchUsers(c *fiber.Ctx) error {
	if _, err := httpx.LocalUint(c, "userID"); err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	query := strings.ToLower(strings.TrimSpace(c.Query("q")))
	if query == "" {
		return httpx.BadRequest(c, "missing_query", "q is required")
	}

	limit := queryInt(c, "limit", 20)
	users, err := h.userService.SearchUsers(query, limit)
	if err != nil {
		return httpx.Internal(c, "search_users_failed")
	}

	responses := make([]models.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, users[i].ToResponse())
	}

	return c.JSON(fiber.Map{"users": responses, "count": len(responses)})
}
