// Package extract pulls plain text and embedded images out of .doc, .docx and .pdf files.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"doceditor/internal/files"
)

// NoPDFText is returned instead of an empty string when a PDF has no extractable text.
const NoPDFText = "No text could be extracted from this PDF."

// TextFunc extracts text from the file at path.
type TextFunc func(ctx context.Context, path string) (string, error)

// Extractor dispatches text and image extraction by file extension.
type Extractor struct {
	doc  TextFunc
	docx TextFunc
	pdf  TextFunc

	pdfImages PDFImageFunc
	persister Persister
	log       *zap.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithDocTool extracts .doc text with an external command instead of the built-in OLE2 reader.
// An empty name or "builtin" keeps the built-in reader.
func WithDocTool(name string) Option {
	return func(e *Extractor) {
		if t := toolText(name); t != nil {
			e.doc = t
		}
	}
}

// WithPDFTool extracts .pdf text with an external command instead of the built-in reader.
func WithPDFTool(name string) Option {
	return func(e *Extractor) {
		if t := toolText(name); t != nil {
			e.pdf = t
		}
	}
}

// WithPDFImages replaces the PDF image enumerator.
func WithPDFImages(f PDFImageFunc) Option {
	return func(e *Extractor) { e.pdfImages = f }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) { e.log = l }
}

// New creates an Extractor that stores extracted images through p.
func New(p Persister, opts ...Option) *Extractor {
	e := &Extractor{
		doc:       DocText,
		docx:      DocxText,
		pdf:       PDFText,
		pdfImages: PDFImages,
		persister: p,
		log:       zap.NewNop(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Text extracts the plain text of the document at path.
func (e *Extractor) Text(ctx context.Context, path string) (string, error) {
	format := files.FormatOf(path)
	ctx, span := otel.Tracer("extract").Start(ctx, "extract.Text")
	defer span.End()
	span.SetAttributes(attribute.String("document.format", string(format)))

	var (
		text string
		err  error
	)
	switch format {
	case files.FormatDocx:
		text, err = e.docx(ctx, path)
		err = failedIf("Error extracting text from .docx file", err)
	case files.FormatDoc:
		text, err = e.doc(ctx, path)
		if err == nil {
			text = strings.TrimSpace(text)
		}
		err = failedIf("Error extracting text from .doc file", err)
	case files.FormatPDF:
		text, err = e.pdf(ctx, path)
		if err == nil && strings.TrimSpace(text) == "" {
			text = NoPDFText
		}
		err = failedIf("Error extracting text from PDF file", err)
	default:
		err = unsupported()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.log.Warn("text extraction failed", zap.String("format", string(format)), zap.Error(err))
		return "", err
	}
	e.log.Debug("text extracted", zap.String("format", string(format)), zap.Int("chars", len(text)))
	return text, nil
}

func failedIf(msg string, err error) error {
	if err == nil {
		return nil
	}
	return failed(msg, err)
}

// toolArgs holds the argument lists of the command-line extractors we know how to drive.
// The path is appended unless the list contains "{}".
var toolArgs = map[string][]string{
	"antiword":  {"-w", "0"},
	"catdoc":    {"-w"},
	"pdftotext": {"-enc", "UTF-8", "-layout", "{}", "-"},
}

func toolText(name string) TextFunc {
	name = strings.TrimSpace(name)
	if name == "" || name == "builtin" {
		return nil
	}
	return func(ctx context.Context, path string) (string, error) {
		return runTool(ctx, name, path)
	}
}

func runTool(ctx context.Context, name, path string) (string, error) {
	bin, err := exec.LookPath(name)
	if err != nil {
		return "", &Error{
			Kind: KindExtractionUnavailable,
			Msg:  fmt.Sprintf("%s is required for %s files and was not found", name, files.FormatOf(path)),
			Err:  err,
		}
	}

	args := append([]string(nil), toolArgs[name]...)
	placed := false
	for i, a := range args {
		if a == "{}" {
			args[i] = path
			placed = true
		}
	}
	if !placed {
		args = append(args, path)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && stderr.Len() > 0 {
			return "", fmt.Errorf("%s: %s", name, strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return strings.ToValidUTF8(stdout.String(), "�"), nil
}
