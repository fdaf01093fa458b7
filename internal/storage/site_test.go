package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSiteStore_PersistOpenDelete(t *testing.T) {
	root := t.TempDir()
	s, err := NewSiteStore(root)
	require.NoError(t, err)
	ctx := context.Background()

	loc, err := s.Persist(ctx, Blob{Filename: "image1.png", Data: []byte("png-bytes"), OwnerID: "doc-1"})
	require.NoError(t, err)
	assert.Equal(t, "/files/image1.png", loc)

	data, err := os.ReadFile(filepath.Join(root, "public", "files", "image1.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	rc, info, err := s.Open(ctx, loc)
	require.NoError(t, err)
	got, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "png-bytes", string(got))
	assert.Equal(t, int64(9), info.Size)
	assert.Equal(t, "image/png", info.ContentType)

	require.NoError(t, s.Delete(ctx, loc))
	_, _, err = s.Open(ctx, loc)
	assert.ErrorIs(t, err, ErrBlobNotFound)

	// deleting twice is fine
	assert.NoError(t, s.Delete(ctx, loc))
}

func TestSiteStore_PersistCollision(t *testing.T) {
	s, err := NewSiteStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	first, err := s.Persist(ctx, Blob{Filename: "page_1_img_1.jpg", Data: []byte("a")})
	require.NoError(t, err)
	second, err := s.Persist(ctx, Blob{Filename: "page_1_img_1.jpg", Data: []byte("b")})
	require.NoError(t, err)

	assert.Equal(t, "/files/page_1_img_1.jpg", first)
	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasPrefix(second, "/files/page_1_img_1-"))
	assert.True(t, strings.HasSuffix(second, ".jpg"))
}

func TestSiteStore_PersistPrivateAndSanitize(t *testing.T) {
	root := t.TempDir()
	s, err := NewSiteStore(root)
	require.NoError(t, err)

	loc, err := s.Persist(context.Background(), Blob{Filename: "../../evil.docx", Data: []byte("x"), Private: true})
	require.NoError(t, err)
	assert.Equal(t, "/private/files/evil.docx", loc)
	assert.FileExists(t, filepath.Join(root, "private", "files", "evil.docx"))

	_, err = s.Persist(context.Background(), Blob{Filename: "", Data: []byte("x")})
	assert.Error(t, err)
}
