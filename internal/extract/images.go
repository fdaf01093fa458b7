package extract

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"doceditor/internal/files"
	"doceditor/internal/model"
	"doceditor/internal/storage"
)

// Persister stores one extracted image and returns its locator.
type Persister interface {
	Persist(ctx context.Context, b storage.Blob) (string, error)
}

// Image is a raster image found inside a document.
type Image struct {
	Name string
	Data []byte
}

// PageImage is an image found on a PDF page, in its encoded form.
type PageImage struct {
	Page int
	Ext  string
	Data []byte
}

// PDFImageFunc lists the images of a PDF in page order, then listing order within a page.
type PDFImageFunc func(ctx context.Context, path string) ([]PageImage, error)

// ImageError is returned when image extraction fails part way. Persisted holds
// the locators of blobs stored before the failure; they are not part of any result.
type ImageError struct {
	Err       error
	Persisted []string
}

func (e *ImageError) Error() string { return e.Err.Error() }
func (e *ImageError) Unwrap() error { return e.Err }

var docxImageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true}

const docxMediaDir = "word/media/"

// Images extracts the embedded images of the document at docPath, persists each one
// as a public blob owned by ownerID and returns their locators. Formats without
// embedded images yield nothing. On failure no locators are returned.
func (e *Extractor) Images(ctx context.Context, docPath, ownerID string) ([]string, error) {
	format := files.FormatOf(docPath)
	if !format.HasImages() {
		return nil, nil
	}
	ctx, span := otel.Tracer("extract").Start(ctx, "extract.Images")
	defer span.End()
	span.SetAttributes(attribute.String("document.format", string(format)))

	var (
		imgs []Image
		msg  string
		err  error
	)
	switch format {
	case files.FormatDocx:
		msg = "Error extracting images from DOCX"
		imgs, err = DocxImages(docPath)
	case files.FormatPDF:
		msg = "Error extracting images from PDF file"
		var pageImgs []PageImage
		if pageImgs, err = e.pdfImages(ctx, docPath); err == nil {
			imgs = namePageImages(pageImgs)
		}
	}
	if err != nil {
		return nil, e.imageFailure(span, &ImageError{Err: &Error{Kind: KindImageExtractionFailed, Msg: msg, Err: err}})
	}

	locators := make([]string, 0, len(imgs))
	for _, img := range imgs {
		loc, err := e.persister.Persist(ctx, storage.Blob{
			Filename:  img.Name,
			Data:      img.Data,
			OwnerType: model.OwnerType,
			OwnerID:   ownerID,
		})
		if err != nil {
			return nil, e.imageFailure(span, &ImageError{
				Err:       &Error{Kind: KindImageExtractionFailed, Msg: msg, Err: fmt.Errorf("save %s: %w", img.Name, err)},
				Persisted: locators,
			})
		}
		locators = append(locators, loc)
	}
	span.SetAttributes(attribute.Int("document.images", len(locators)))
	e.log.Debug("images extracted", zap.String("format", string(format)), zap.Int("count", len(locators)))
	return locators, nil
}

func (e *Extractor) imageFailure(span trace.Span, err *ImageError) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	e.log.Warn("image extraction failed", zap.Error(err), zap.Int("orphaned", len(err.Persisted)))
	return err
}

// DocxImages reads the png, jpg, jpeg and gif entries under word/media/ in archive order.
func DocxImages(p string) ([]Image, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var imgs []Image
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, docxMediaDir) || !docxImageExts[strings.ToLower(path.Ext(f.Name))] {
			continue
		}
		data, err := readZipEntry(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		imgs = append(imgs, Image{Name: path.Base(f.Name), Data: data})
	}
	return imgs, nil
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// namePageImages names images page_{page}_img_{n}.{ext}, n counting from 1 on each page.
func namePageImages(in []PageImage) []Image {
	out := make([]Image, 0, len(in))
	page, n := 0, 0
	for _, pi := range in {
		if pi.Page != page {
			page, n = pi.Page, 0
		}
		n++
		ext := strings.TrimPrefix(strings.ToLower(pi.Ext), ".")
		if ext == "" {
			ext = "bin"
		}
		out = append(out, Image{Name: fmt.Sprintf("page_%d_img_%d.%s", pi.Page, n, ext), Data: pi.Data})
	}
	return out
}

// PDFImages lists the embedded images of a PDF with pdfcpu in their native encoding.
// pdfcpu does not keep resource dictionary order, so within a page images are
// ordered by resource name (Im2 before Im10), then object number. Page thumbnails are skipped.
func PDFImages(ctx context.Context, p string) (imgs []PageImage, err error) {
	defer func() {
		if r := recover(); r != nil {
			imgs, err = nil, fmt.Errorf("read pdf: %v", r)
		}
	}()

	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	api.DisableConfigDir()
	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed

	pages, err := api.ExtractImagesRaw(f, nil, conf)
	if err != nil {
		return nil, err
	}

	type ordered struct {
		obj  int
		name string
		img  PageImage
	}
	var all []ordered
	for _, byObj := range pages {
		for nr, img := range byObj {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if img.Thumb {
				continue
			}
			data, err := io.ReadAll(img)
			if err != nil {
				return nil, fmt.Errorf("page %d image %d: %w", img.PageNr, nr, err)
			}
			all = append(all, ordered{obj: nr, name: img.Name, img: PageImage{Page: img.PageNr, Ext: img.FileType, Data: data}})
		}
	}
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.img.Page != b.img.Page {
			return a.img.Page < b.img.Page
		}
		switch {
		case resourceNameLess(a.name, b.name):
			return true
		case resourceNameLess(b.name, a.name):
			return false
		}
		return a.obj < b.obj
	})

	imgs = make([]PageImage, len(all))
	for i, o := range all {
		imgs[i] = o.img
	}
	return imgs, nil
}

// resourceNameLess compares names with digit runs taken as numbers, so Im2 sorts before Im10.
func resourceNameLess(a, b string) bool {
	for a != "" && b != "" {
		da, db := digitPrefix(a), digitPrefix(b)
		if da == "" || db == "" {
			if a[0] != b[0] {
				return a[0] < b[0]
			}
			a, b = a[1:], b[1:]
			continue
		}
		na, nb := strings.TrimLeft(da, "0"), strings.TrimLeft(db, "0")
		if len(na) != len(nb) {
			return len(na) < len(nb)
		}
		if na != nb {
			return na < nb
		}
		a, b = a[len(da):], b[len(db):]
	}
	return len(a) < len(b)
}

func digitPrefix(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i]
}
