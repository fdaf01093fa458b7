package model

import "time"

// OwnerType is the owner type recorded on blobs created for a DocumentFile.
const OwnerType = "Document File"

// DocumentFile is an editable document seeded from an uploaded word-processing or PDF file.
// This is a pure domain model with no database-specific dependencies or tags.
//
// OriginalContent is populated once from the first successful extraction and never
// overwritten afterwards. DiffOutputHTML is derived from (OriginalContent, RichTextContent).
type DocumentFile struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	UploadedFile    string            `json:"uploaded_file"`
	OriginalContent string            `json:"original_content"`
	RichTextContent string            `json:"rich_text_content"`
	DiffOutputHTML  string            `json:"diff_output_html"`
	AttachedImages  []ImageAttachment `json:"attached_images"`
	CreatedAt       time.Time         `json:"created_at"`
	ModifiedAt      time.Time         `json:"modified_at"`
}

// ImageAttachment references one image blob extracted from the uploaded file.
type ImageAttachment struct {
	Idx   int    `json:"idx"`
	Image string `json:"image"`
}

// Clone returns a deep copy; the attachment slice is not shared.
func (d *DocumentFile) Clone() *DocumentFile {
	if d == nil {
		return nil
	}
	out := *d
	if d.AttachedImages != nil {
		out.AttachedImages = make([]ImageAttachment, len(d.AttachedImages))
		copy(out.AttachedImages, d.AttachedImages)
	}
	return &out
}

// ImageLocators lists the attached image locators in order.
func (d *DocumentFile) ImageLocators() []string {
	out := make([]string, 0, len(d.AttachedImages))
	for _, img := range d.AttachedImages {
		out = append(out, img.Image)
	}
	return out
}

// NewAttachments builds an ordered attachment list from image locators.
func NewAttachments(locators []string) []ImageAttachment {
	out := make([]ImageAttachment, 0, len(locators))
	for i, loc := range locators {
		out = append(out, ImageAttachment{Idx: i + 1, Image: loc})
	}
	return out
}
