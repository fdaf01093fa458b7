package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"doceditor/internal/model"
	"doceditor/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, title, uploaded_file, original_content, rich_text_content, diff_output_html, created_at, modified_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*model.DocumentFile, error) {
	var d model.DocumentFile
	if err := row.Scan(
		&d.ID,
		&d.Title,
		&d.UploadedFile,
		&d.OriginalContent,
		&d.RichTextContent,
		&d.DiffOutputHTML,
		&d.CreatedAt,
		&d.ModifiedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a new document row and its images in one transaction and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.DocumentFile) (*model.DocumentFile, error) {
	const q = `
		INSERT INTO document_files (id, title, uploaded_file, original_content, rich_text_content, diff_output_html, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + documentColumns

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	out, err := scanDocument(tx.QueryRowContext(ctx, q,
		doc.ID,
		doc.Title,
		doc.UploadedFile,
		doc.OriginalContent,
		doc.RichTextContent,
		doc.DiffOutputHTML,
		doc.CreatedAt,
		doc.ModifiedAt,
	))
	if err != nil {
		return nil, err
	}
	if out.AttachedImages, err = insertImages(ctx, tx, out.ID, doc.AttachedImages); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

// FindByID fetches a single document and its images by ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.DocumentFile, error) {
	const q = `SELECT ` + documentColumns + ` FROM document_files WHERE id = $1`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, err
	}

	const qImages = `SELECT idx, image FROM document_file_images WHERE document_id = $1 ORDER BY idx`
	rows, err := r.db.QueryContext(ctx, qImages, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	d.AttachedImages = make([]model.ImageAttachment, 0)
	for rows.Next() {
		var img model.ImageAttachment
		if err := rows.Scan(&img.Idx, &img.Image); err != nil {
			return nil, err
		}
		d.AttachedImages = append(d.AttachedImages, img)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return d, nil
}

// List returns documents using LIMIT/OFFSET pagination and a total count.
func (r *DocumentPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.DocumentFile], error) {
	// Count total rows
	const qCount = `SELECT COUNT(*) FROM document_files`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	// Fetch page
	const qList = `
		SELECT ` + documentColumns + `
		FROM document_files
		ORDER BY modified_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.DocumentFile, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.DocumentFile]{
		Items: items,
		Total: total,
	}, nil
}

// Update saves every column of doc and replaces its image rows in one transaction.
func (r *DocumentPostgres) Update(ctx context.Context, doc *model.DocumentFile) (*model.DocumentFile, error) {
	const q = `
		UPDATE document_files
		SET title = $2, uploaded_file = $3, original_content = $4, rich_text_content = $5,
		    diff_output_html = $6, modified_at = $7
		WHERE id = $1
		RETURNING ` + documentColumns

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	out, err := scanDocument(tx.QueryRowContext(ctx, q,
		doc.ID,
		doc.Title,
		doc.UploadedFile,
		doc.OriginalContent,
		doc.RichTextContent,
		doc.DiffOutputHTML,
		doc.ModifiedAt,
	))
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_file_images WHERE document_id = $1`, doc.ID); err != nil {
		return nil, err
	}
	if out.AttachedImages, err = insertImages(ctx, tx, out.ID, doc.AttachedImages); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a document by ID; image rows go with it. It does not return an error if the row does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM document_files WHERE id = $1`
	// image rows are removed by ON DELETE CASCADE
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

func insertImages(ctx context.Context, tx *sql.Tx, docID string, imgs []model.ImageAttachment) ([]model.ImageAttachment, error) {
	const q = `INSERT INTO document_file_images (document_id, idx, image) VALUES ($1, $2, $3)`
	out := make([]model.ImageAttachment, 0, len(imgs))
	for _, img := range imgs {
		if _, err := tx.ExecContext(ctx, q, docID, img.Idx, img.Image); err != nil {
			return nil, fmt.Errorf("insert image %d: %w", img.Idx, err)
		}
		out = append(out, img)
	}
	return out, nil
}
