package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"doceditor/internal/files"
)

// SiteStore keeps blobs in a site directory on local disk:
// <root>/public/files/<name> and <root>/private/files/<name>.
// Names are kept as given unless a file with that name already exists.
type SiteStore struct {
	root  string
	paths *files.SiteResolver
}

// NewSiteStore creates the partition directories under root if missing.
func NewSiteStore(root string) (*SiteStore, error) {
	for _, p := range []files.Partition{files.PartitionPublic, files.PartitionPrivate} {
		if err := os.MkdirAll(filepath.Join(root, string(p), "files"), 0o755); err != nil {
			return nil, fmt.Errorf("create %s files dir: %w", p, err)
		}
	}
	return &SiteStore{root: root, paths: files.NewSiteResolver(root)}, nil
}

var _ BlobStore = (*SiteStore)(nil)

// Persist writes b and returns its locator.
func (s *SiteStore) Persist(_ context.Context, b Blob) (string, error) {
	name := sanitizeName(b.Filename)
	if name == "" {
		return "", fmt.Errorf("persist blob: filename is required")
	}
	part := files.PartitionPublic
	if b.Private {
		part = files.PartitionPrivate
	}
	dir := filepath.Join(s.root, string(part), "files")

	// O_EXCL so two uploads with the same name never overwrite each other.
	for attempt := 0; attempt < 5; attempt++ {
		candidate := name
		if attempt > 0 {
			candidate = uniqueName(name)
		}
		f, err := os.OpenFile(filepath.Join(dir, candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("persist blob: %w", err)
		}
		_, werr := f.Write(b.Data)
		cerr := f.Close()
		if werr != nil || cerr != nil {
			_ = os.Remove(f.Name())
			return "", fmt.Errorf("persist blob: %w", errors.Join(werr, cerr))
		}
		return files.Build(part, candidate), nil
	}
	return "", fmt.Errorf("persist blob: no free name for %q", name)
}

// Open streams the blob behind locator.
func (s *SiteStore) Open(_ context.Context, locator string) (io.ReadCloser, ObjectInfo, error) {
	p, err := s.paths.Path(locator)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ObjectInfo{}, fmt.Errorf("%w: %s", ErrBlobNotFound, locator)
		}
		return nil, ObjectInfo{}, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ObjectInfo{}, err
	}
	return f, ObjectInfo{
		Key:          locator,
		Size:         st.Size(),
		ContentType:  contentTypeOf(p),
		LastModified: st.ModTime(),
	}, nil
}

// Delete removes the blob behind locator. Missing blobs are not an error.
func (s *SiteStore) Delete(_ context.Context, locator string) error {
	p, err := s.paths.Path(locator)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	return name
}

func uniqueName(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "-" + uuid.NewString()[:8] + ext
}

func contentTypeOf(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
