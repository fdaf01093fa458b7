package handler

import (
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"

	"doceditor/internal/files"
	"doceditor/internal/service"
	"doceditor/internal/storage"
)

// FileRoutes configures the download routes for stored blobs.
type FileRoutes struct {
	Blobs         storage.BlobStore
	PresignExpiry time.Duration
	// ServePrivate mounts /private/files/*. No per-user permission check is made.
	ServePrivate bool
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// File routes are only mounted when fr.Blobs is set.
func RegisterRoutes(app *fiber.App, db *sql.DB, docSvc service.DocumentService, fr FileRoutes) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	docs := app.Group("/documents")
	docs.Get("/", ListDocuments(docSvc))
	docs.Post("/", CreateDocument(docSvc))
	docs.Get("/:id", GetDocument(docSvc))
	docs.Put("/:id", UpdateDocument(docSvc))
	docs.Delete("/:id", DeleteDocument(docSvc))
	docs.Get("/:id/diff", DocumentDiff(docSvc))

	if fr.Blobs == nil {
		return
	}
	app.Get("/files/*", ServeFile(fr.Blobs, files.PartitionPublic, fr.PresignExpiry))
	if fr.ServePrivate {
		app.Get("/private/files/*", ServeFile(fr.Blobs, files.PartitionPrivate, fr.PresignExpiry))
	}
}
