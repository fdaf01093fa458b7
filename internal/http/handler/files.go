package handler

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"doceditor/internal/files"
	"doceditor/internal/storage"
)

// presigner is implemented by blob stores that can hand out direct download URLs.
type presigner interface {
	PresignGet(ctx context.Context, locator string, expiry time.Duration) (string, error)
}

// ServeFile serves the blob whose locator is the request path (/files/... or /private/files/...).
// Locators outside part are reported as missing. Stores that can presign answer
// with a temporary redirect; others are streamed.
//
// @Summary  Download a stored file
// @Tags     files
// @Param    name path string true "file name"
// @Success  200
// @Success  307
// @Failure  404 {object} errorPayload
// @Router   /files/{name} [get]
func ServeFile(blobs storage.BlobStore, part files.Partition, expiry time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		locator, err := url.PathUnescape(c.Path())
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PATH", "invalid file path")
		}
		loc, err := files.Parse(locator)
		if err != nil || loc.Partition != part {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "file not found")
		}
		locator = loc.Locator()

		if p, ok := blobs.(presigner); ok {
			u, err := p.PresignGet(c.UserContext(), locator, expiry)
			if err != nil {
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
			return c.Redirect(u, fiber.StatusTemporaryRedirect)
		}

		rc, info, err := blobs.Open(c.UserContext(), locator)
		if err != nil {
			if errors.Is(err, storage.ErrBlobNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "file not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		if info.ContentType != "" {
			c.Set(fiber.HeaderContentType, info.ContentType)
		}
		size := -1
		if info.Size > 0 {
			size = int(info.Size)
		}
		// fasthttp closes rc once the body has been written
		return c.SendStream(rc, size)
	}
}
