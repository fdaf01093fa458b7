package extract

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/require"
)

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Default Extension="png" ContentType="image/png"/>
<Default Extension="jpeg" ContentType="image/jpeg"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const docxDocumentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId5" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/image1.png"/>
</Relationships>`

type zipEntry struct {
	name string
	data string
}

// writeDocx builds a minimal .docx whose body is the given XML, followed by extra entries in order.
func writeDocx(t *testing.T, dir, name, body string, extra ...zipEntry) string {
	t.Helper()
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `<w:sectPr/></w:body></w:document>`

	entries := []zipEntry{
		{"[Content_Types].xml", docxContentTypes},
		{"_rels/.rels", docxRels},
		{"word/document.xml", doc},
		{"word/_rels/document.xml.rels", docxDocumentRels},
	}
	entries = append(entries, extra...)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(e.data))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o644))
	return p
}

func para(text string) string {
	return `<w:p><w:r><w:t xml:space="preserve">` + text + `</w:t></w:r></w:p>`
}

// writePDF builds a PDF with one Helvetica text line per page. An empty string gives a page without text.
func writePDF(t *testing.T, dir, name string, pages ...string) string {
	t.Helper()

	n := len(pages)
	// 1 catalog, 2 pages, 3 font, then page/content pairs
	objs := make([]string, 3+2*n)
	kids := make([]string, n)
	for i, text := range pages {
		pageNr, contentNr := 4+2*i, 5+2*i
		kids[i] = fmt.Sprintf("%d 0 R", pageNr)

		stream := "BT ET"
		if text != "" {
			stream = fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
		}
		objs[pageNr-1] = fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", contentNr)
		objs[contentNr-1] = fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream)
	}
	objs[0] = "<< /Type /Catalog /Pages 2 0 R >>"
	objs[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n)
	objs[2] = "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>"

	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, pdfBytes(objs), 0o644))
	return p
}

// pdfBytes serializes objs as objects 1..n with a classic xref table; object 1 is the catalog.
func pdfBytes(objs []string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(data), 0o644))
	return p
}

// docPiece is one piece of a Word piece table. Compressed pieces hold cp1252 bytes.
type docPiece struct {
	text       string
	compressed bool
}

// wordStreams builds a WordDocument stream with the pieces' text after the FIB
// and a table stream holding the matching Clx.
func wordStreams(pieces ...docPiece) (wordDoc, table []byte) {
	wordDoc = make([]byte, 0x400)

	var cps []uint32
	var pcds []byte
	cp := uint32(0)
	for _, p := range pieces {
		fc := uint32(len(wordDoc))
		cps = append(cps, cp)
		pcd := make([]byte, 8)
		if p.compressed {
			wordDoc = append(wordDoc, p.text...)
			cp += uint32(len(p.text))
			binary.LittleEndian.PutUint32(pcd[2:], fc*2|fCompressed)
		} else {
			units := utf16.Encode([]rune(p.text))
			for _, u := range units {
				wordDoc = binary.LittleEndian.AppendUint16(wordDoc, u)
			}
			cp += uint32(len(units))
			binary.LittleEndian.PutUint32(pcd[2:], fc)
		}
		pcds = append(pcds, pcd...)
	}
	cps = append(cps, cp)

	var plc []byte
	for _, c := range cps {
		plc = binary.LittleEndian.AppendUint32(plc, c)
	}
	plc = append(plc, pcds...)

	// Clx: one Prc to skip, then the Pcdt
	clx := []byte{0x01, 0x02, 0x00, 0xAA, 0xBB, 0x02}
	clx = binary.LittleEndian.AppendUint32(clx, uint32(len(plc)))
	clx = append(clx, plc...)

	table = append(make([]byte, 16), clx...)
	binary.LittleEndian.PutUint32(wordDoc[fibFcClx:], 16)
	binary.LittleEndian.PutUint32(wordDoc[fibLcbClx:], uint32(len(clx)))
	return wordDoc, table
}

type cfbStream struct {
	name string
	data []byte
}

// compoundFile lays out a version 3 OLE2 container: header, one FAT sector,
// one directory sector, then each stream padded to at least 4096 bytes so it
// lives in regular sectors. At most three streams fit the directory sector.
func compoundFile(t *testing.T, streams ...cfbStream) []byte {
	t.Helper()
	require.LessOrEqual(t, len(streams), 3)

	const (
		sectorSize = 512
		endOfChain = 0xFFFFFFFE
		freeSect   = 0xFFFFFFFF
		fatSect    = 0xFFFFFFFD
		noStream   = 0xFFFFFFFF
	)

	dir := make([]byte, sectorSize)
	entry := func(i int, name string, typ byte, right, child, start, size uint32) {
		e := dir[i*128 : (i+1)*128]
		units := utf16.Encode([]rune(name))
		for j, u := range units {
			binary.LittleEndian.PutUint16(e[2*j:], u)
		}
		binary.LittleEndian.PutUint16(e[64:], uint16(2*(len(units)+1)))
		e[66] = typ
		e[67] = 1 // black
		binary.LittleEndian.PutUint32(e[68:], noStream)
		binary.LittleEndian.PutUint32(e[72:], right)
		binary.LittleEndian.PutUint32(e[76:], child)
		binary.LittleEndian.PutUint32(e[116:], start)
		binary.LittleEndian.PutUint32(e[120:], size)
	}
	entry(0, "Root Entry", 5, noStream, 1, endOfChain, 0)

	// sector 0 is the FAT, sector 1 the directory
	fat := []uint32{fatSect, endOfChain}
	var body []byte
	for i, s := range streams {
		data := append([]byte(nil), s.data...)
		if len(data) < 4096 {
			data = append(data, make([]byte, 4096-len(data))...)
		}
		if r := len(data) % sectorSize; r != 0 {
			data = append(data, make([]byte, sectorSize-r)...)
		}
		start := uint32(len(fat))
		n := len(data) / sectorSize
		for k := 1; k < n; k++ {
			fat = append(fat, start+uint32(k))
		}
		fat = append(fat, endOfChain)

		right := uint32(noStream)
		if i < len(streams)-1 {
			right = uint32(i + 2)
		}
		entry(i+1, s.name, 2, right, noStream, start, uint32(len(data)))
		body = append(body, data...)
	}
	require.LessOrEqual(t, len(fat), sectorSize/4)

	fatSector := make([]byte, sectorSize)
	for i := 0; i < sectorSize/4; i++ {
		v := uint32(freeSect)
		if i < len(fat) {
			v = fat[i]
		}
		binary.LittleEndian.PutUint32(fatSector[4*i:], v)
	}

	header := make([]byte, sectorSize)
	binary.LittleEndian.PutUint64(header[0:], 0xE11AB1A1E011CFD0)
	binary.LittleEndian.PutUint16(header[24:], 0x003E)
	binary.LittleEndian.PutUint16(header[26:], 3)
	binary.LittleEndian.PutUint16(header[28:], 0xFFFE)
	binary.LittleEndian.PutUint16(header[30:], 9)
	binary.LittleEndian.PutUint16(header[32:], 6)
	binary.LittleEndian.PutUint32(header[44:], 1) // FAT sectors
	binary.LittleEndian.PutUint32(header[48:], 1) // directory start
	binary.LittleEndian.PutUint32(header[56:], 4096)
	binary.LittleEndian.PutUint32(header[60:], endOfChain)
	binary.LittleEndian.PutUint32(header[68:], endOfChain)
	for i := 76; i < sectorSize; i += 4 {
		binary.LittleEndian.PutUint32(header[i:], freeSect)
	}
	binary.LittleEndian.PutUint32(header[76:], 0) // DIFAT[0] is sector 0

	out := append(header, fatSector...)
	out = append(out, dir...)
	return append(out, body...)
}

// writeDoc writes a legacy Word file whose streams are given in directory order.
func writeDoc(t *testing.T, dir, name string, streams ...cfbStream) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, compoundFile(t, streams...), 0o644))
	return p
}

// pdfImage is a DCT-encoded image XObject; pdfcpu hands its stream bytes back unchanged.
type pdfImage struct {
	name string
	data string
}

// writeImagePDF builds a PDF with one page per entry. Each page draws its images in
// the given order; image objects are numbered in reverse so resource order and
// object order disagree.
func writeImagePDF(t *testing.T, dir, name string, pages ...[]pdfImage) string {
	t.Helper()

	objs := []string{"<< /Type /Catalog /Pages 2 0 R >>", ""}
	var kids []string
	for _, imgs := range pages {
		pageNr := len(objs) + 1
		contentNr := pageNr + 1
		firstImg := contentNr + 1
		kids = append(kids, fmt.Sprintf("%d 0 R", pageNr))

		xobjs := make([]string, len(imgs))
		ops := make([]string, len(imgs))
		imgObjs := make([]string, len(imgs))
		for i, img := range imgs {
			nr := firstImg + len(imgs) - 1 - i
			xobjs[i] = fmt.Sprintf("/%s %d 0 R", img.name, nr)
			ops[i] = fmt.Sprintf("q 10 0 0 10 %d 700 cm /%s Do Q", 72+20*i, img.name)
			imgObjs[nr-firstImg] = fmt.Sprintf("<< /Type /XObject /Subtype /Image /Width 1 /Height 1 "+
				"/ColorSpace /DeviceRGB /BitsPerComponent 8 /Filter /DCTDecode /Length %d >>\nstream\n%s\nendstream",
				len(img.data), img.data)
		}
		stream := strings.Join(ops, "\n")
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
				"/Resources << /XObject << %s >> >> /Contents %d 0 R >>", strings.Join(xobjs, " "), contentNr),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		)
		objs = append(objs, imgObjs...)
	}
	objs[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, pdfBytes(objs), 0o644))
	return p
}
