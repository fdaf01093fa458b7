package extract

import (
	"errors"
	"strings"

	"doceditor/internal/files"
)

// Kind classifies extraction failures.
type Kind int

const (
	KindInvalidLocator Kind = iota + 1
	KindFileNotFound
	KindUnsupportedFormat
	KindExtractionUnavailable
	KindExtractionFailed
	KindImageExtractionFailed
)

func (k Kind) String() string {
	switch k {
	case KindInvalidLocator:
		return "invalid locator"
	case KindFileNotFound:
		return "file not found"
	case KindUnsupportedFormat:
		return "unsupported format"
	case KindExtractionUnavailable:
		return "extraction unavailable"
	case KindExtractionFailed:
		return "extraction failed"
	case KindImageExtractionFailed:
		return "image extraction failed"
	default:
		return "unknown"
	}
}

// Error is the failure value returned by every extractor.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so the sentinels below work with errors.Is.
// The resolver sentinels from package files match their kinds too.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	switch target {
	case files.ErrInvalidLocator:
		return e.Kind == KindInvalidLocator
	case files.ErrFileNotFound:
		return e.Kind == KindFileNotFound
	}
	return false
}

var (
	ErrInvalidLocator        = &Error{Kind: KindInvalidLocator}
	ErrFileNotFound          = &Error{Kind: KindFileNotFound}
	ErrUnsupportedFormat     = &Error{Kind: KindUnsupportedFormat}
	ErrExtractionUnavailable = &Error{Kind: KindExtractionUnavailable}
	ErrExtractionFailed      = &Error{Kind: KindExtractionFailed}
	ErrImageExtractionFailed = &Error{Kind: KindImageExtractionFailed}
)

const (
	msgInvalidLocator    = "Invalid file URL."
	msgUnsupportedFormat = "Unsupported file format. Only .doc, .docx, and .pdf are supported."
)

// KindOf returns the Kind of err, or 0 if err is not an extraction error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// FromResolve maps a files.Resolver failure onto the extraction taxonomy.
func FromResolve(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, files.ErrInvalidLocator):
		return &Error{Kind: KindInvalidLocator, Msg: msgInvalidLocator}
	case errors.Is(err, files.ErrFileNotFound):
		// "file not found at: <path>"
		return &Error{Kind: KindFileNotFound, Msg: "File not found" + strings.TrimPrefix(err.Error(), files.ErrFileNotFound.Error())}
	default:
		return &Error{Kind: KindExtractionFailed, Msg: "Error resolving file", Err: err}
	}
}

func unsupported() error {
	return &Error{Kind: KindUnsupportedFormat, Msg: msgUnsupportedFormat}
}

func failed(msg string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindExtractionFailed, Msg: msg, Err: err}
}
