package extract

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"doceditor/internal/model"
	"doceditor/internal/storage"
	storeMocks "doceditor/internal/storage/mocks"
)

func blobNamed(name string) interface{} {
	return mock.MatchedBy(func(b storage.Blob) bool { return b.Filename == name })
}

func TestExtractor_Images_Docx(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	p := writeDocx(t, dir, "pics.docx", para("with pictures"),
		zipEntry{"word/media/image1.png", "png-one"},
		zipEntry{"word/media/chart.emf", "emf"},
		zipEntry{"word/theme/theme1.png", "not media"},
		zipEntry{"word/media/photo.JPEG", "jpeg-two"},
	)

	m := new(storeMocks.MockBlobStore)
	m.On("Persist", mock.Anything, mock.MatchedBy(func(b storage.Blob) bool {
		return b.Filename == "image1.png" && string(b.Data) == "png-one" &&
			b.OwnerType == model.OwnerType && b.OwnerID == "doc-1" && !b.Private
	})).Return("/files/image1.png", nil).Once()
	m.On("Persist", mock.Anything, mock.MatchedBy(func(b storage.Blob) bool {
		return b.Filename == "photo.JPEG" && string(b.Data) == "jpeg-two"
	})).Return("/files/photo.JPEG", nil).Once()

	locs, err := New(m).Images(ctx, p, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"/files/image1.png", "/files/photo.JPEG"}, locs)
	m.AssertExpectations(t)
}

func TestExtractor_Images_PDFNaming(t *testing.T) {
	ctx := context.Background()
	p := writeFile(t, t.TempDir(), "scan.pdf", "x")

	fake := func(context.Context, string) ([]PageImage, error) {
		return []PageImage{
			{Page: 1, Ext: "jpg", Data: []byte("a")},
			{Page: 1, Ext: "png", Data: []byte("b")},
			{Page: 3, Ext: "tif", Data: []byte("c")},
			{Page: 4, Ext: "", Data: []byte("d")},
		}, nil
	}

	m := new(storeMocks.MockBlobStore)
	for _, name := range []string{"page_1_img_1.jpg", "page_1_img_2.png", "page_3_img_1.tif", "page_4_img_1.bin"} {
		m.On("Persist", mock.Anything, blobNamed(name)).Return("/files/"+name, nil).Once()
	}

	locs, err := New(m, WithPDFImages(fake)).Images(ctx, p, "doc-9")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/files/page_1_img_1.jpg",
		"/files/page_1_img_2.png",
		"/files/page_3_img_1.tif",
		"/files/page_4_img_1.bin",
	}, locs)
	m.AssertExpectations(t)
}

func TestExtractor_Images_Failures(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	t.Run("corrupt docx", func(t *testing.T) {
		m := new(storeMocks.MockBlobStore)
		locs, err := New(m).Images(ctx, writeFile(t, dir, "bad.docx", "zip?"), "doc-1")
		assert.Nil(t, locs)
		assert.ErrorIs(t, err, ErrImageExtractionFailed)
		assert.Contains(t, err.Error(), "Error extracting images from DOCX")
		m.AssertNotCalled(t, "Persist", mock.Anything, mock.Anything)
	})

	t.Run("corrupt pdf", func(t *testing.T) {
		locs, err := New(new(storeMocks.MockBlobStore)).Images(ctx, writeFile(t, dir, "bad.pdf", "garbage"), "doc-1")
		assert.Nil(t, locs)
		assert.ErrorIs(t, err, ErrImageExtractionFailed)
		assert.Contains(t, err.Error(), "Error extracting images from PDF file")
	})

	t.Run("persist failure discards partial result", func(t *testing.T) {
		fake := func(context.Context, string) ([]PageImage, error) {
			return []PageImage{{Page: 1, Ext: "png"}, {Page: 1, Ext: "png"}, {Page: 2, Ext: "png"}}, nil
		}
		m := new(storeMocks.MockBlobStore)
		m.On("Persist", mock.Anything, blobNamed("page_1_img_1.png")).Return("/files/page_1_img_1.png", nil).Once()
		m.On("Persist", mock.Anything, blobNamed("page_1_img_2.png")).Return("", errors.New("disk full")).Once()

		locs, err := New(m, WithPDFImages(fake)).Images(ctx, writeFile(t, dir, "c.pdf", "x"), "doc-1")
		assert.Nil(t, locs)
		require.Error(t, err)
		assert.Equal(t, KindImageExtractionFailed, KindOf(err))
		assert.EqualError(t, err, "Error extracting images from PDF file: save page_1_img_2.png: disk full")

		var ie *ImageError
		require.True(t, errors.As(err, &ie))
		assert.Equal(t, []string{"/files/page_1_img_1.png"}, ie.Persisted)
		m.AssertExpectations(t)
	})

	t.Run("enumeration failure", func(t *testing.T) {
		fake := func(context.Context, string) ([]PageImage, error) { return nil, fmt.Errorf("xref broken") }
		_, err := New(nil, WithPDFImages(fake)).Images(ctx, writeFile(t, dir, "d.pdf", "x"), "doc-1")
		assert.EqualError(t, err, "Error extracting images from PDF file: xref broken")
	})
}

func TestExtractor_Images_OtherFormats(t *testing.T) {
	m := new(storeMocks.MockBlobStore)
	e := New(m)
	for _, name := range []string{"a.doc", "a.txt"} {
		locs, err := e.Images(context.Background(), writeFile(t, t.TempDir(), name, "x"), "doc-1")
		assert.NoError(t, err)
		assert.Empty(t, locs)
	}
	m.AssertNotCalled(t, "Persist", mock.Anything, mock.Anything)
}

func TestPDFImages_TextOnly(t *testing.T) {
	p := writePDF(t, t.TempDir(), "text.pdf", "only words here")
	imgs, err := PDFImages(context.Background(), p)
	require.NoError(t, err)
	assert.Empty(t, imgs)
}

func TestPDFImages_DCT(t *testing.T) {
	p := writeImagePDF(t, t.TempDir(), "photos.pdf",
		[]pdfImage{{"Im1", "jpeg-page1-first"}, {"Im2", "jpeg-page1-second"}},
		[]pdfImage{{"Im1", "jpeg-page2-only"}},
	)

	imgs, err := PDFImages(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, []PageImage{
		{Page: 1, Ext: "jpg", Data: []byte("jpeg-page1-first")},
		{Page: 1, Ext: "jpg", Data: []byte("jpeg-page1-second")},
		{Page: 2, Ext: "jpg", Data: []byte("jpeg-page2-only")},
	}, imgs)
}

func TestExtractor_Images_PDF(t *testing.T) {
	p := writeImagePDF(t, t.TempDir(), "scan.pdf",
		[]pdfImage{{"Im1", "first-photo"}, {"Im2", "second-photo"}},
	)

	m := new(storeMocks.MockBlobStore)
	m.On("Persist", mock.Anything, mock.MatchedBy(func(b storage.Blob) bool {
		return b.Filename == "page_1_img_1.jpg" && string(b.Data) == "first-photo"
	})).Return("/files/page_1_img_1.jpg", nil).Once()
	m.On("Persist", mock.Anything, mock.MatchedBy(func(b storage.Blob) bool {
		return b.Filename == "page_1_img_2.jpg" && string(b.Data) == "second-photo"
	})).Return("/files/page_1_img_2.jpg", nil).Once()

	locs, err := New(m).Images(context.Background(), p, "doc-3")
	require.NoError(t, err)
	assert.Equal(t, []string{"/files/page_1_img_1.jpg", "/files/page_1_img_2.jpg"}, locs)
	m.AssertExpectations(t)
}

func TestResourceNameLess(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"Im1", "Im2", true},
		{"Im2", "Im10", true},
		{"Im10", "Im2", false},
		{"Im1", "Im1", false},
		{"Im", "Im1", true},
		{"Fm0.Im1", "Im1", true},
		{"Im1a", "Im1b", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, resourceNameLess(tt.a, tt.b), "%s < %s", tt.a, tt.b)
	}
}
