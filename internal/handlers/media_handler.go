package handlers

import (
	"fmt"
	"time"

	"github.com/futureaiitofficial/travelconnect-sub000/internal/httpx"
	"github.com/futureaiitofficial/travelconnect-sub000/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// MediaHandler issues presigned URLs so image/video/file messages can carry a
// media_url without the upload bytes ever passing through this service.
type MediaHandler struct {
	media *storage.MediaStorage
}

func NewMediaHandler(media *storage.MediaStorage) *MediaHandler {
	return &MediaHandler{media: media}
}

type presignInput struct {
	FileName string `json:"file_name"`
}

func (h *MediaHandler) PresignUpload(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	if h.media == nil {
		return httpx.Error(c, fiber.StatusServiceUnavailable, "media_unavailable", "Media storage is not configured")
	}

	var input presignInput
	if err := c.BodyParser(&input); err != nil || input.FileName == "" {
		return httpx.BadRequest(c, "missing_file_name", "file_name is required")
	}

	key := fmt.Sprintf("%d/%d-%s-%s", userID, time.Now().Unix(), uuid.NewString()[:8], input.FileName)
	uploadURL, err := h.media.PresignUpload(c.Context(), key)
	if err != nil {
		return httpx.BadRequest(c, "invalid_file_name", "Could not presign that file name")
	}

	downloadURL, err := h.media.PresignDownload(c.Context(), key)
	if err != nil {
		return httpx.Internal(c, "presign_failed")
	}

	return c.JSON(fiber.Map{
		"key":          key,
		"upload_url":   uploadURL,
		"download_url": downloadURL,
	})
}
