package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"doceditor/internal/diff"
	"doceditor/internal/extract"
	"doceditor/internal/files"
	"doceditor/internal/model"
)

// MsgContentLoaded is sent to the user after a successful extraction pass.
const MsgContentLoaded = "File content loaded into the editor."

// Extractor pulls text and persisted images out of a local file.
type Extractor interface {
	Text(ctx context.Context, path string) (string, error)
	Images(ctx context.Context, path, ownerID string) ([]string, error)
}

// NotificationSink delivers informational messages to the user.
type NotificationSink interface {
	Notify(ctx context.Context, msg string)
}

// BlobDeleter removes blobs by locator.
type BlobDeleter interface {
	Delete(ctx context.Context, locator string) error
}

// OrphanPolicy decides what happens to image blobs no record refers to any more.
type OrphanPolicy int

const (
	// KeepOrphans leaves superseded image blobs in the blob store.
	KeepOrphans OrphanPolicy = iota
	// DeleteOrphans removes them.
	DeleteOrphans
)

// LoadError is the single user-facing failure of an extraction pass.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string { return "Failed to extract file content: " + e.Err.Error() }
func (e *LoadError) Unwrap() error { return e.Err }

// ContentLoader seeds a document's fields from its uploaded file before the document is saved.
type ContentLoader struct {
	resolver  files.Resolver
	extractor Extractor
	notifier  NotificationSink

	policy  OrphanPolicy
	blobs   BlobDeleter
	metrics *ExtractionMetrics
	log     *zap.Logger
}

// LoaderOption configures a ContentLoader.
type LoaderOption func(*ContentLoader)

// WithOrphanPolicy sets the orphan policy. blobs is only used by DeleteOrphans.
func WithOrphanPolicy(p OrphanPolicy, blobs BlobDeleter) LoaderOption {
	return func(l *ContentLoader) {
		l.policy = p
		l.blobs = blobs
	}
}

// WithMetrics records every pass in m.
func WithMetrics(m *ExtractionMetrics) LoaderOption {
	return func(l *ContentLoader) { l.metrics = m }
}

// WithLoaderLogger sets the logger.
func WithLoaderLogger(log *zap.Logger) LoaderOption {
	return func(l *ContentLoader) { l.log = log }
}

// NewContentLoader creates a ContentLoader that keeps orphaned images.
func NewContentLoader(resolver files.Resolver, extractor Extractor, notifier NotificationSink, opts ...LoaderOption) *ContentLoader {
	l := &ContentLoader{
		resolver:  resolver,
		extractor: extractor,
		notifier:  notifier,
		log:       zap.NewNop(),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// BeforeSave runs one extraction pass over doc. Documents without an uploaded
// file are left alone. doc is only modified when the whole pass succeeds;
// any failure is returned as a *LoadError.
func (l *ContentLoader) BeforeSave(ctx context.Context, doc *model.DocumentFile) error {
	if doc == nil || doc.UploadedFile == "" {
		return nil
	}

	format := string(files.FormatOf(doc.UploadedFile))
	if !files.Format(format).Supported() {
		format = "other"
	}
	ctx, span := otel.Tracer("service").Start(ctx, "ContentLoader.BeforeSave")
	defer span.End()
	span.SetAttributes(
		attribute.String("document.id", doc.ID),
		attribute.String("document.format", format),
	)

	start := time.Now()
	work := doc.Clone()
	err := l.load(ctx, work)
	l.metrics.observe(format, err, time.Since(start))

	if err != nil {
		var ie *extract.ImageError
		if errors.As(err, &ie) {
			l.Reconcile(ctx, ie.Persisted)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.log.Warn("extraction failed",
			zap.String("document_id", doc.ID),
			zap.String("uploaded_file", doc.UploadedFile),
			zap.Error(err),
		)
		return &LoadError{Err: err}
	}

	*doc = *work
	l.log.Info("extraction completed",
		zap.String("document_id", doc.ID),
		zap.String("format", format),
		zap.Int("images", len(doc.AttachedImages)),
		zap.Duration("took", time.Since(start)),
	)
	l.notifier.Notify(ctx, MsgContentLoaded)
	return nil
}

func (l *ContentLoader) load(ctx context.Context, doc *model.DocumentFile) error {
	p, release, err := l.resolver.Resolve(ctx, doc.UploadedFile)
	if err != nil {
		return extract.FromResolve(err)
	}
	defer release()

	text, err := l.extractor.Text(ctx, p)
	if err != nil {
		return err
	}
	images, err := l.extractor.Images(ctx, p, doc.ID)
	if err != nil {
		return err
	}

	if doc.OriginalContent == "" {
		doc.OriginalContent = text
	}
	if doc.RichTextContent == "" {
		doc.RichTextContent = text
	}
	RefreshDiff(doc)
	doc.AttachedImages = model.NewAttachments(images)
	return nil
}

// RefreshDiff recomputes the diff markup when both texts are present and clears it otherwise.
func RefreshDiff(doc *model.DocumentFile) {
	if doc.OriginalContent == "" || doc.RichTextContent == "" {
		doc.DiffOutputHTML = ""
		return
	}
	doc.DiffOutputHTML = diff.Render(doc.OriginalContent, doc.RichTextContent)
}

// Reconcile applies the orphan policy to locators no record refers to.
// Deletion failures are logged and otherwise ignored.
func (l *ContentLoader) Reconcile(ctx context.Context, orphans []string) {
	if len(orphans) == 0 {
		return
	}
	if l.policy != DeleteOrphans || l.blobs == nil {
		l.log.Debug("keeping orphaned images", zap.Int("count", len(orphans)))
		return
	}
	for _, loc := range orphans {
		if err := l.blobs.Delete(ctx, loc); err != nil {
			l.log.Warn("delete orphaned image failed", zap.String("locator", loc), zap.Error(err))
		}
	}
}

// Orphans lists the image locators of before that after no longer refers to.
func Orphans(before, after *model.DocumentFile) []string {
	if before == nil {
		return nil
	}
	keep := make(map[string]bool)
	if after != nil {
		for _, loc := range after.ImageLocators() {
			keep[loc] = true
		}
	}
	var out []string
	for _, loc := range before.ImageLocators() {
		if !keep[loc] {
			out = append(out, loc)
		}
	}
	return out
}
