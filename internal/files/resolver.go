package files

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Resolver turns a locator into a path on the local filesystem.
// release must be called once the caller is done with the path.
type Resolver interface {
	Resolve(ctx context.Context, locator string) (path string, release func(), err error)
}

// SiteResolver resolves locators against a site directory laid out as
// <root>/public/files and <root>/private/files.
type SiteResolver struct {
	Root string
}

// NewSiteResolver creates a SiteResolver for root.
func NewSiteResolver(root string) *SiteResolver {
	return &SiteResolver{Root: root}
}

var _ Resolver = (*SiteResolver)(nil)

// Path joins the site root with the locator's partition and name without touching the disk.
func (r *SiteResolver) Path(locator string) (string, error) {
	loc, err := Parse(locator)
	if err != nil {
		return "", err
	}
	return filepath.Join(r.Root, string(loc.Partition), "files", filepath.FromSlash(loc.Name)), nil
}

// Resolve returns the local path of locator, failing with ErrFileNotFound if nothing is there.
func (r *SiteResolver) Resolve(_ context.Context, locator string) (string, func(), error) {
	p, err := r.Path(locator)
	if err != nil {
		return "", noop, err
	}
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", noop, fmt.Errorf("%w at: %s", ErrFileNotFound, p)
		}
		return "", noop, fmt.Errorf("stat %s: %w", p, err)
	}
	return p, noop, nil
}

func noop() {}
