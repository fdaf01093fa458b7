package extract

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf16"

	"github.com/richardlehane/mscfb"
	"golang.org/x/text/encoding/charmap"
)

// FIB offsets in the WordDocument stream.
const (
	fibFlags  = 0x000A
	fibFcClx  = 0x01A2
	fibLcbClx = 0x01A6

	fWhichTblStm = 1 << 9
	fCompressed  = 0x40000000
	maxPieceLen  = 1 << 20
)

var errNoWordDocument = errors.New("WordDocument stream not found")

// DocText reads a legacy Word 97-2003 file. Text is taken from the piece table
// in the table stream; if that cannot be parsed, printable runs of the
// WordDocument stream are used instead.
func DocText(_ context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	cfb, err := mscfb.New(f)
	if err != nil {
		return "", fmt.Errorf("read OLE2 container: %w", err)
	}

	var wordDoc, table0, table1 []byte
	for entry, nerr := cfb.Next(); nerr == nil; entry, nerr = cfb.Next() {
		var dst *[]byte
		switch entry.Name {
		case "WordDocument":
			dst = &wordDoc
		case "0Table":
			dst = &table0
		case "1Table":
			dst = &table1
		default:
			continue
		}
		if *dst, err = io.ReadAll(entry); err != nil {
			return "", fmt.Errorf("read %s stream: %w", entry.Name, err)
		}
	}
	if len(wordDoc) < fibLcbClx+4 {
		return "", errNoWordDocument
	}

	table := table0
	if binary.LittleEndian.Uint16(wordDoc[fibFlags:])&fWhichTblStm != 0 {
		table = table1
	}
	if text, ok := pieceTableText(wordDoc, table); ok {
		return text, nil
	}
	return printableText(wordDoc), nil
}

// pieceTableText decodes the text pieces described by the Clx in the table stream.
func pieceTableText(wordDoc, table []byte) (string, bool) {
	fc := int(binary.LittleEndian.Uint32(wordDoc[fibFcClx:]))
	lcb := int(binary.LittleEndian.Uint32(wordDoc[fibLcbClx:]))
	if lcb == 0 || fc+lcb > len(table) {
		return "", false
	}
	clx := table[fc : fc+lcb]

	// skip Prc entries until the Pcdt
	pos := 0
	for pos < len(clx) && clx[pos] == 0x01 {
		if pos+3 > len(clx) {
			return "", false
		}
		pos += 3 + int(binary.LittleEndian.Uint16(clx[pos+1:]))
	}
	if pos+5 > len(clx) || clx[pos] != 0x02 {
		return "", false
	}
	size := int(binary.LittleEndian.Uint32(clx[pos+1:]))
	pos += 5
	if size < 16 || pos+size > len(clx) {
		return "", false
	}
	plc := clx[pos : pos+size]

	// (n+1) CPs followed by n 8-byte PCDs
	n := (size - 4) / 12
	cps := 4 * (n + 1)

	var sb strings.Builder
	for i := 0; i < n; i++ {
		start := binary.LittleEndian.Uint32(plc[4*i:])
		end := binary.LittleEndian.Uint32(plc[4*(i+1):])
		if end <= start || end-start > maxPieceLen {
			continue
		}
		count := int(end - start)
		raw := binary.LittleEndian.Uint32(plc[cps+8*i+2:])

		// compressed pieces hold one cp1252 byte per character
		if raw&fCompressed != 0 {
			off := int(raw&^fCompressed) / 2
			if off+count > len(wordDoc) {
				continue
			}
			for _, b := range wordDoc[off : off+count] {
				writeDocChar(&sb, charmap.Windows1252.DecodeByte(b))
			}
			continue
		}

		off := int(raw)
		if off+2*count > len(wordDoc) {
			continue
		}
		units := make([]uint16, count)
		for j := range units {
			units[j] = binary.LittleEndian.Uint16(wordDoc[off+2*j:])
		}
		for _, r := range utf16.Decode(units) {
			writeDocChar(&sb, r)
		}
	}
	return sb.String(), sb.Len() > 0
}

func writeDocChar(sb *strings.Builder, r rune) {
	switch {
	case r == 0x0D || r == 0x0B:
		sb.WriteByte('\n')
	case r == 0x07:
		sb.WriteByte('\t')
	case r == '\t' || r >= 0x20:
		sb.WriteRune(r)
	}
}

func printableText(b []byte) string {
	var sb strings.Builder
	gap := false
	for _, c := range b {
		if c == 0x0D || c == '\n' || c == '\t' || (c >= 0x20 && c < 0x7F) {
			if gap && sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			gap = false
			if c == 0x0D {
				c = '\n'
			}
			sb.WriteByte(c)
			continue
		}
		gap = true
	}
	return sb.String()
}
