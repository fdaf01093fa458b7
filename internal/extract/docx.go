package extract

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// DocxText returns the text of every body paragraph in document order,
// paragraphs separated by a blank line. Tables, headers and footers are skipped.
func DocxText(_ context.Context, path string) (string, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer r.Close()

	paras, err := bodyParagraphs(r.Editable().GetContent())
	if err != nil {
		return "", fmt.Errorf("parse document.xml: %w", err)
	}
	return strings.Join(paras, "\n\n"), nil
}

// bodyParagraphs walks document.xml and collects the direct w:p children of w:body.
// Only text of the paragraph's own runs counts; text boxes and alternate
// content (which Word writes twice, as Choice and Fallback) are skipped.
func bodyParagraphs(content string) ([]string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))

	var (
		paras []string
		stack []string
		buf   strings.Builder
		inPar bool
		skip  int // stack depth of the subtree being skipped, 0 if none
	)
	parent := func(n int) string {
		if len(stack) < n {
			return ""
		}
		return stack[len(stack)-n]
	}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			if t.Name.Space != wordNS && t.Name.Space != "" {
				name = "~" + name
			}
			if name == "p" && len(stack) == 2 && stack[0] == "document" && stack[1] == "body" {
				inPar = true
				buf.Reset()
			}
			if inPar && skip == 0 {
				switch {
				case name == "~AlternateContent" || name == "txbxContent":
					skip = len(stack)
				// w:tab also appears under w:pPr/w:tabs as a tab stop; only runs count.
				case parent(1) == "r" && name == "tab":
					buf.WriteByte('\t')
				case parent(1) == "r" && (name == "br" || name == "cr"):
					buf.WriteByte('\n')
				}
			}
			stack = append(stack, name)
		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			stack = stack[:len(stack)-1]
			if skip > 0 && len(stack) == skip {
				skip = 0
			}
			if inPar && len(stack) == 2 && t.Name.Local == "p" {
				paras = append(paras, buf.String())
				inPar = false
			}
		case xml.CharData:
			if inPar && skip == 0 && parent(1) == "t" && parent(2) == "r" {
				buf.Write(t)
			}
		}
	}
	return paras, nil
}
