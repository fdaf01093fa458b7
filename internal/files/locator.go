// Package files maps stored-file locators to their storage partition, a local path and a format tag.
package files

import (
	"errors"
	"path"
	"path/filepath"
	"strings"
)

// Partition is the visibility partition a blob is stored in.
type Partition string

const (
	PartitionPublic  Partition = "public"
	PartitionPrivate Partition = "private"
)

const (
	privatePattern = "/private/files/"
	publicPattern  = "/files/"
)

var (
	ErrInvalidLocator = errors.New("invalid file URL")
	ErrFileNotFound   = errors.New("file not found")
)

// Location is a parsed locator.
type Location struct {
	Partition Partition
	// Name is the path relative to the partition's files directory, slash separated.
	Name string
}

// Parse recognizes "/private/files/<name>" and "/files/<name>" anywhere in the locator.
// The private pattern wins because it also contains the public one.
func Parse(locator string) (Location, error) {
	switch {
	case strings.Contains(locator, privatePattern):
		return location(PartitionPrivate, lastAfter(locator, privatePattern))
	case strings.Contains(locator, publicPattern):
		return location(PartitionPublic, lastAfter(locator, publicPattern))
	default:
		return Location{}, ErrInvalidLocator
	}
}

func location(p Partition, name string) (Location, error) {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if name == "" || name == "." {
		return Location{}, ErrInvalidLocator
	}
	return Location{Partition: p, Name: name}, nil
}

func lastAfter(s, sep string) string {
	return s[strings.LastIndex(s, sep)+len(sep):]
}

// Build is the inverse of Parse.
func Build(p Partition, name string) string {
	name = strings.TrimPrefix(name, "/")
	if p == PartitionPrivate {
		return privatePattern + name
	}
	return publicPattern + name
}

// Locator returns the canonical locator of l.
func (l Location) Locator() string {
	return Build(l.Partition, l.Name)
}

// Key is the object-store key of l, e.g. "private/files/report.docx".
func (l Location) Key() string {
	return string(l.Partition) + "/files/" + l.Name
}

// Format is a lower-case file extension without the dot.
type Format string

const (
	FormatDoc  Format = "doc"
	FormatDocx Format = "docx"
	FormatPDF  Format = "pdf"
)

// SupportedFormats lists the formats text can be extracted from.
var SupportedFormats = []Format{FormatDoc, FormatDocx, FormatPDF}

// FormatOf detects the format tag from a path's extension.
func FormatOf(p string) Format {
	return Format(strings.TrimPrefix(strings.ToLower(filepath.Ext(p)), "."))
}

// Supported reports whether f is one of SupportedFormats.
func (f Format) Supported() bool {
	for _, s := range SupportedFormats {
		if f == s {
			return true
		}
	}
	return false
}

// HasImages reports whether embedded images can be extracted from f.
func (f Format) HasImages() bool {
	return f == FormatDocx || f == FormatPDF
}
