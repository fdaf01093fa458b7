package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"doceditor/internal/model"
	"doceditor/internal/repository"
	"doceditor/internal/storage"
)

var (
	ErrIDRequired  = errors.New("id is required")
	ErrNotFound    = errors.New("document not found")
	ErrNoFilename  = errors.New("filename is required")
	ErrNothingToDo = errors.New("no fields to update")
)

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.DocumentFile `json:"data"`
	Total int                  `json:"total"`
}

// CreateInput describes a new document. File is optional; when set, Filename is required.
type CreateInput struct {
	Title    string
	Filename string
	File     io.Reader
	Private  bool
}

// UpdateInput holds the fields to change; nil fields are left as they are.
type UpdateInput struct {
	Title           *string
	RichTextContent *string
	UploadedFile    *string
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Create stores the uploaded file, seeds the record from it and saves the record.
	// The uploaded blob is removed again if the record cannot be saved.
	Create(ctx context.Context, in CreateInput) (*model.DocumentFile, error)

	// List returns documents using limit/offset and a total count. Attachments are not loaded.
	List(ctx context.Context, limit, offset int) (*DocumentListResult, error)

	// Get returns a single document with its attachments.
	Get(ctx context.Context, id string) (*model.DocumentFile, error)

	// Update applies in, runs an extraction pass and saves the record.
	Update(ctx context.Context, id string, in UpdateInput) (*model.DocumentFile, error)

	// Delete removes the record and its attachment rows. Blobs are left to the orphan policy.
	Delete(ctx context.Context, id string) error

	// Diff returns the current diff markup of a document.
	Diff(ctx context.Context, id string) (string, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	blobs  storage.BlobStore
	repo   repository.DocumentRepository
	loader *ContentLoader
	log    *zap.Logger
	now    func() time.Time
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(blobs storage.BlobStore, repo repository.DocumentRepository, loader *ContentLoader, log *zap.Logger) DocumentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &documentService{
		blobs:  blobs,
		repo:   repo,
		loader: loader,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *documentService) Create(ctx context.Context, in CreateInput) (*model.DocumentFile, error) {
	now := s.now()
	doc := &model.DocumentFile{
		ID:         uuid.New().String(),
		Title:      in.Title,
		CreatedAt:  now,
		ModifiedAt: now,
	}

	if in.File != nil {
		if in.Filename == "" {
			return nil, ErrNoFilename
		}
		data, err := io.ReadAll(in.File)
		if err != nil {
			return nil, fmt.Errorf("read upload: %w", err)
		}
		loc, err := s.blobs.Persist(ctx, storage.Blob{
			Filename:  in.Filename,
			Data:      data,
			OwnerType: model.OwnerType,
			OwnerID:   doc.ID,
			Private:   in.Private,
		})
		if err != nil {
			return nil, fmt.Errorf("upload to storage: %w", err)
		}
		doc.UploadedFile = loc
		if doc.Title == "" {
			doc.Title = in.Filename
		}
	}

	if err := s.loader.BeforeSave(ctx, doc); err != nil {
		s.rollbackUpload(ctx, doc.UploadedFile)
		return nil, err
	}

	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		s.loader.Reconcile(ctx, doc.ImageLocators())
		if doc.UploadedFile != "" {
			if delErr := s.blobs.Delete(ctx, doc.UploadedFile); delErr != nil {
				return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
			}
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

func (s *documentService) rollbackUpload(ctx context.Context, loc string) {
	if loc == "" {
		return
	}
	if err := s.blobs.Delete(ctx, loc); err != nil {
		s.log.Warn("rollback upload failed", zap.String("locator", loc), zap.Error(err))
	}
}

// List returns paginated documents without exposing repository types.
func (s *documentService) List(ctx context.Context, limit, offset int) (*DocumentListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (*model.DocumentFile, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *documentService) Update(ctx context.Context, id string, in UpdateInput) (*model.DocumentFile, error) {
	if in.Title == nil && in.RichTextContent == nil && in.UploadedFile == nil {
		return nil, ErrNothingToDo
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	doc := current.Clone()
	if in.Title != nil {
		doc.Title = *in.Title
	}
	if in.RichTextContent != nil {
		doc.RichTextContent = *in.RichTextContent
	}
	if in.UploadedFile != nil {
		doc.UploadedFile = *in.UploadedFile
	}
	doc.ModifiedAt = s.now()

	if doc.UploadedFile == "" {
		// no extraction pass; keep the diff in step with the texts
		RefreshDiff(doc)
	} else if err := s.loader.BeforeSave(ctx, doc); err != nil {
		return nil, err
	}

	stored, err := s.repo.Update(ctx, doc)
	if err != nil {
		s.loader.Reconcile(ctx, Orphans(doc, current))
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	s.loader.Reconcile(ctx, Orphans(current, doc))
	return stored, nil
}

// Delete removes the record. Image blobs become orphans; the uploaded file is kept.
func (s *documentService) Delete(ctx context.Context, id string) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	// Delete DB row (repository ignores missing row errors as per contract)
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.loader.Reconcile(ctx, doc.ImageLocators())
	return nil
}

func (s *documentService) Diff(ctx context.Context, id string) (string, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return doc.DiffOutputHTML, nil
}
