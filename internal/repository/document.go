package repository

import (
	"context"

	"doceditor/internal/model"
)

// DocumentRepository defines data access for document files using SQL queries only.
// Implementations hold no business logic.
type DocumentRepository interface {
	// Create inserts a new document record together with its attached images.
	// Returns the stored document (may include values set by the DB).
	Create(ctx context.Context, doc *model.DocumentFile) (*model.DocumentFile, error)

	// FindByID returns a document and its attached images in order.
	FindByID(ctx context.Context, id string) (*model.DocumentFile, error)

	// List returns a paginated list of documents and total rows count. Attached images are not loaded.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.DocumentFile], error)

	// Update saves every field of doc and replaces its attached images in one transaction.
	// It returns sql.ErrNoRows if the document does not exist.
	Update(ctx context.Context, doc *model.DocumentFile) (*model.DocumentFile, error)

	// Delete removes a document by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
