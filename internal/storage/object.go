package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"doceditor/internal/files"
)

// ObjectStore is a BlobStore on top of an S3-compatible Storage.
// Objects live under "<partition>/files/<owner id>/<unique>-<filename>".
type ObjectStore struct {
	store Storage
}

// NewObjectStore wraps store.
func NewObjectStore(store Storage) *ObjectStore {
	return &ObjectStore{store: store}
}

var _ BlobStore = (*ObjectStore)(nil)

// Persist uploads b and returns its locator.
func (o *ObjectStore) Persist(ctx context.Context, b Blob) (string, error) {
	name := sanitizeName(b.Filename)
	if name == "" {
		return "", fmt.Errorf("persist blob: filename is required")
	}
	part := files.PartitionPublic
	if b.Private {
		part = files.PartitionPrivate
	}
	rel := uuid.NewString()[:8] + "-" + name
	if b.OwnerID != "" {
		rel = path.Join(b.OwnerID, rel)
	}
	loc := files.Location{Partition: part, Name: rel}

	meta := map[string]string{"original-filename": name}
	if b.OwnerType != "" {
		meta["owner-type"] = b.OwnerType
	}
	if b.OwnerID != "" {
		meta["owner-id"] = b.OwnerID
	}
	_, err := o.store.Put(ctx, loc.Key(), bytes.NewReader(b.Data), PutObjectOptions{
		Size:        int64(len(b.Data)),
		ContentType: contentTypeOf(name),
		Metadata:    meta,
	})
	if err != nil {
		return "", fmt.Errorf("persist blob: %w", err)
	}
	return loc.Locator(), nil
}

// Open streams the object behind locator.
func (o *ObjectStore) Open(ctx context.Context, locator string) (io.ReadCloser, ObjectInfo, error) {
	loc, err := files.Parse(locator)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	return o.store.Get(ctx, loc.Key())
}

// Delete removes the object behind locator.
func (o *ObjectStore) Delete(ctx context.Context, locator string) error {
	loc, err := files.Parse(locator)
	if err != nil {
		return err
	}
	return o.store.Delete(ctx, loc.Key())
}

// PresignGet returns a time-limited download URL for locator.
func (o *ObjectStore) PresignGet(ctx context.Context, locator string, expiry time.Duration) (string, error) {
	loc, err := files.Parse(locator)
	if err != nil {
		return "", err
	}
	return o.store.PresignGet(ctx, loc.Key(), expiry)
}

// ObjectResolver makes object-store files readable by path-based extractors by
// downloading them into a temporary file.
type ObjectResolver struct {
	store   Storage
	tempDir string
}

// NewObjectResolver creates an ObjectResolver writing temp files under tempDir.
func NewObjectResolver(store Storage, tempDir string) *ObjectResolver {
	return &ObjectResolver{store: store, tempDir: tempDir}
}

var _ files.Resolver = (*ObjectResolver)(nil)

// Resolve downloads the object behind locator. The temp file keeps the original
// extension so format detection still works; release removes it.
func (r *ObjectResolver) Resolve(ctx context.Context, locator string) (string, func(), error) {
	none := func() {}
	loc, err := files.Parse(locator)
	if err != nil {
		return "", none, err
	}
	rc, _, err := r.store.Get(ctx, loc.Key())
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return "", none, fmt.Errorf("%w at: %s", files.ErrFileNotFound, loc.Key())
		}
		return "", none, fmt.Errorf("download %s: %w", loc.Key(), err)
	}
	defer rc.Close()

	f, err := os.CreateTemp(r.tempDir, "extract-*"+filepath.Ext(loc.Name))
	if err != nil {
		return "", none, fmt.Errorf("create temp file: %w", err)
	}
	release := func() { _ = os.Remove(f.Name()) }
	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		release()
		return "", none, fmt.Errorf("download %s: %w", loc.Key(), err)
	}
	if err := f.Close(); err != nil {
		release()
		return "", none, fmt.Errorf("download %s: %w", loc.Key(), err)
	}
	return f.Name(), release, nil
}
