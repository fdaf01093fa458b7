package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"doceditor/internal/model"
	"doceditor/internal/notify"
	"doceditor/internal/service"
)

// documentResponse wraps a saved document with the messages raised while saving it.
type documentResponse struct {
	Data     *model.DocumentFile `json:"data"`
	Messages []string            `json:"messages,omitempty"`
}

type updateRequest struct {
	Title           *string `json:"title"`
	RichTextContent *string `json:"rich_text_content"`
	UploadedFile    *string `json:"uploaded_file"`
}

func respondSaved(c *fiber.Ctx, status int, doc *model.DocumentFile) error {
	res := documentResponse{Data: doc}
	if b := notify.FromContext(c.UserContext()); b != nil {
		res.Messages = b.Messages()
	}
	return c.Status(status).JSON(res)
}

func validID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// ListDocuments lists documents with limit & offset.
//
// @Summary  List documents
// @Tags     documents
// @Produce  json
// @Param    limit  query int false "page size" default(10)
// @Param    offset query int false "offset"    default(0)
// @Success  200 {object} service.DocumentListResult
// @Failure  400 {object} errorPayload
// @Router   /documents [get]
func ListDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := docSvc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// CreateDocument uploads a file and creates the document seeded from it.
//
// @Summary  Create a document
// @Tags     documents
// @Accept   multipart/form-data
// @Produce  json
// @Param    file       formData file   false "source .doc, .docx or .pdf file"
// @Param    title      formData string false "title; defaults to the file name"
// @Param    is_private formData bool   false "store the upload in the private partition"
// @Success  201 {object} documentResponse
// @Failure  400 {object} errorPayload
// @Failure  422 {object} errorPayload
// @Router   /documents [post]
func CreateDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in := service.CreateInput{Title: strings.TrimSpace(c.FormValue("title"))}

		if v := c.FormValue("is_private"); v != "" {
			private, err := strconv.ParseBool(v)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_IS_PRIVATE", "is_private must be a boolean")
			}
			in.Private = private
		}

		if fh, err := c.FormFile("file"); err == nil {
			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			defer f.Close()
			in.File = f
			in.Filename = fh.Filename
		} else if in.Title == "" {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file or title is required")
		}

		doc, err := docSvc.Create(c.UserContext(), in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return respondSaved(c, fiber.StatusCreated, doc)
	}
}

// GetDocument returns one document with its attachments.
//
// @Summary  Get a document
// @Tags     documents
// @Produce  json
// @Param    id path string true "document id"
// @Success  200 {object} model.DocumentFile
// @Failure  400 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Router   /documents/{id} [get]
func GetDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := docSvc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// UpdateDocument changes title, rich text or the uploaded file and re-runs extraction.
//
// @Summary  Update a document
// @Tags     documents
// @Accept   json
// @Produce  json
// @Param    id   path string        true "document id"
// @Param    body body updateRequest true "fields to change"
// @Success  200 {object} documentResponse
// @Failure  400 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Failure  422 {object} errorPayload
// @Router   /documents/{id} [put]
func UpdateDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req updateRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		doc, err := docSvc.Update(c.UserContext(), id, service.UpdateInput{
			Title:           req.Title,
			RichTextContent: req.RichTextContent,
			UploadedFile:    req.UploadedFile,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return respondSaved(c, fiber.StatusOK, doc)
	}
}

// DeleteDocument removes a document record.
//
// @Summary  Delete a document
// @Tags     documents
// @Param    id path string true "document id"
// @Success  204
// @Failure  400 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Router   /documents/{id} [delete]
func DeleteDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := docSvc.Delete(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DocumentDiff renders the word diff between the extracted and the edited text.
//
// @Summary  Word diff of a document
// @Tags     documents
// @Produce  html
// @Param    id path string true "document id"
// @Success  200 {string} string
// @Failure  404 {object} errorPayload
// @Router   /documents/{id}/diff [get]
func DocumentDiff(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		out, err := docSvc.Diff(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Type("html", "utf-8").SendString(out)
	}
}
