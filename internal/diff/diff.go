// Package diff renders a word-level comparison of two texts as inline-styled HTML.
package diff

import (
	"html"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// OpKind classifies one aligned token.
type OpKind int

const (
	Equal OpKind = iota
	Insert
	Delete
)

// Op is a single token of the alignment.
type Op struct {
	Kind OpKind
	Word string
}

const (
	insertedStyle = "background-color:#d4fcbc;"
	deletedStyle  = "background-color:#fbb6c2;text-decoration:line-through;"
)

// Tokenize splits s into words on runs of whitespace.
func Tokenize(s string) []string {
	return strings.Fields(s)
}

// Compute aligns the words of original and modified. A replaced block comes out
// as its deletions followed by its insertions.
func Compute(original, modified string) []Op {
	a, b := Tokenize(original), Tokenize(modified)

	// autojunk off: frequent words must still be matched
	m := difflib.NewMatcherWithJunk(a, b, false, nil)

	ops := make([]Op, 0, len(a)+len(b))
	for _, oc := range m.GetOpCodes() {
		switch oc.Tag {
		case 'e':
			for _, w := range a[oc.I1:oc.I2] {
				ops = append(ops, Op{Kind: Equal, Word: w})
			}
		case 'd':
			for _, w := range a[oc.I1:oc.I2] {
				ops = append(ops, Op{Kind: Delete, Word: w})
			}
		case 'i':
			for _, w := range b[oc.J1:oc.J2] {
				ops = append(ops, Op{Kind: Insert, Word: w})
			}
		case 'r':
			for _, w := range a[oc.I1:oc.I2] {
				ops = append(ops, Op{Kind: Delete, Word: w})
			}
			for _, w := range b[oc.J1:oc.J2] {
				ops = append(ops, Op{Kind: Insert, Word: w})
			}
		}
	}
	return ops
}

// Render returns the diff of original and modified as space-joined words, with
// insertions and deletions wrapped in styled spans. Words are HTML-escaped.
func Render(original, modified string) string {
	ops := Compute(original, modified)
	parts := make([]string, len(ops))
	for i, op := range ops {
		w := html.EscapeString(op.Word)
		switch op.Kind {
		case Insert:
			parts[i] = `<span style="` + insertedStyle + `">` + w + `</span>`
		case Delete:
			parts[i] = `<span style="` + deletedStyle + `">` + w + `</span>`
		default:
			parts[i] = w
		}
	}
	return strings.Join(parts, " ")
}
