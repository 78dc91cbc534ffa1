// Package asset exposes course media upload/removal backed by the S3 bucket.
// Routes here are instructor-gated: learners never write to the bucket.
package asset

import (
	"errors"

	"github.com/edulaunch/marketplace-api/model"
	"github.com/edulaunch/marketplace-api/services/storage"
	"github.com/edulaunch/marketplace-api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// AssetHandler handles media upload and removal
type AssetHandler struct {
	storage *storage.Client
}

// NewAssetHandler creates a new asset handler
func NewAssetHandler(storageClient *storage.Client) *AssetHandler {
	return &AssetHandler{storage: storageClient}
}

// UploadImageRequest carries a base64 data URI
type UploadImageRequest struct {
	Image string `json:"image" validate:"required"`
}

// RemoveAssetRequest names the stored object to delete
type RemoveAssetRequest struct {
	Asset model.Asset `json:"asset" validate:"required"`
}

// UploadImage handles POST /api/v1/assets/image
func (h *AssetHandler) UploadImage(c *fiber.Ctx) error {
	var req UploadImageRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	asset, err := h.storage.UploadImage(c.Context(), req.Image)
	if err != nil {
		if errors.Is(err, storage.ErrNoImage) || errors.Is(err, storage.ErrInvalidDataURI) {
			return response.BadRequest(c, err.Error())
		}
		return response.InternalServerError(c, "Image upload failed")
	}

	return response.Success(c, asset)
}

// UploadVideo handles POST /api/v1/assets/video (multipart form, field "video")
func (h *AssetHandler) UploadVideo(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("video")
	if err != nil {
		return response.BadRequest(c, "No video")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.InternalServerError(c, "Failed to read upload")
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp4"
	}

	asset, err := h.storage.UploadVideo(c.Context(), contentType, file)
	if err != nil {
		return response.InternalServerError(c, "Video upload failed")
	}

	return response.Success(c, asset)
}

// RemoveAsset handles POST /api/v1/assets/remove
func (h *AssetHandler) RemoveAsset(c *fiber.Ctx) error {
	var req RemoveAssetRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Asset.IsZero() {
		return response.BadRequest(c, "No asset key")
	}

	if err := h.storage.Delete(c.Context(), req.Asset); err != nil {
		return response.InternalServerError(c, "Asset removal failed")
	}

	return response.SuccessWithMessage(c, "Asset removed", nil)
}
