package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentFile_Clone(t *testing.T) {
	orig := &DocumentFile{
		ID:             "doc-1",
		AttachedImages: NewAttachments([]string{"/files/a.png"}),
	}

	cp := orig.Clone()
	cp.AttachedImages[0].Image = "/files/b.png"
	cp.RichTextContent = "edited"

	assert.Equal(t, "/files/a.png", orig.AttachedImages[0].Image)
	assert.Empty(t, orig.RichTextContent)
	assert.Nil(t, (*DocumentFile)(nil).Clone())
}

func TestNewAttachments(t *testing.T) {
	atts := NewAttachments([]string{"/files/a.png", "/files/b.jpg"})

	assert.Equal(t, []ImageAttachment{
		{Idx: 1, Image: "/files/a.png"},
		{Idx: 2, Image: "/files/b.jpg"},
	}, atts)

	doc := &DocumentFile{AttachedImages: atts}
	assert.Equal(t, []string{"/files/a.png", "/files/b.jpg"}, doc.ImageLocators())
	assert.Empty(t, NewAttachments(nil))
}
