package extract

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/richardlehane/mscfb"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

const (
	wordIdent    = 0xA5EC
	fibFlagsOff  = 0x0A
	fibWhichTbl  = 0x0200
	fibEncrypted = 0x0100
	fibBaseLen   = 32
	// fcClx is the 34th fc/lcb pair of FibRgFcLcb97.
	fcClxIndex = 33
	// ccpText is the 4th field of FibRgLw97.
	ccpTextIndex = 3
	fCompressed  = 0x40000000
)

var errNotWord = errors.New("not a Word 97-2003 document")

// wordText returns the main document text of a Word 97-2003 binary. The
// compound file holds a WordDocument stream and a table stream whose piece
// table maps character positions to byte runs in WordDocument.
func wordText(data []byte) (string, error) {
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", errNotWord, err)
	}

	streams := map[string][]byte{}
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		switch entry.Name {
		case "WordDocument", "0Table", "1Table":
			buf := make([]byte, entry.Size)
			if _, err := io.ReadFull(entry, buf); err != nil {
				return "", fmt.Errorf("reading %s stream: %w", entry.Name, err)
			}
			streams[entry.Name] = buf
		}
	}

	word := streams["WordDocument"]
	if len(word) < fibBaseLen+2 || binary.LittleEndian.Uint16(word) != wordIdent {
		return "", errNotWord
	}
	flags := binary.LittleEndian.Uint16(word[fibFlagsOff:])
	if flags&fibEncrypted != 0 {
		return "", errors.New("document is encrypted")
	}
	tableName := "0Table"
	if flags&fibWhichTbl != 0 {
		tableName = "1Table"
	}
	table, ok := streams[tableName]
	if !ok {
		return "", fmt.Errorf("%s stream not found", tableName)
	}

	fib, err := readFib(word)
	if err != nil {
		return "", err
	}
	if uint64(fib.fcClx)+uint64(fib.lcbClx) > uint64(len(table)) {
		return "", errors.New("piece table outside table stream")
	}
	pieces, err := readPieces(table[fib.fcClx : fib.fcClx+fib.lcbClx])
	if err != nil {
		return "", err
	}

	var b strings.Builder
	remaining := int(fib.ccpText)
	for _, p := range pieces {
		if remaining <= 0 {
			break
		}
		n := min(p.chars, remaining)
		text, err := p.decode(word, n)
		if err != nil {
			return "", err
		}
		b.WriteString(text)
		remaining -= n
	}
	return cleanWordText(b.String()), nil
}

type fib struct {
	ccpText uint32
	fcClx   uint32
	lcbClx  uint32
}

// readFib walks the variable-length FIB sections to the fields it needs.
func readFib(word []byte) (fib, error) {
	var f fib
	off := fibBaseLen
	field := func(at, size int) ([]byte, error) {
		if at < 0 || at+size > len(word) {
			return nil, errors.New("truncated file information block")
		}
		return word[at : at+size], nil
	}

	raw, err := field(off, 2)
	if err != nil {
		return f, err
	}
	off += 2 + int(binary.LittleEndian.Uint16(raw))*2

	raw, err = field(off, 2)
	if err != nil {
		return f, err
	}
	cslw := int(binary.LittleEndian.Uint16(raw))
	if cslw <= ccpTextIndex {
		return f, errors.New("file information block has no text length")
	}
	raw, err = field(off+2+ccpTextIndex*4, 4)
	if err != nil {
		return f, err
	}
	f.ccpText = binary.LittleEndian.Uint32(raw)
	off += 2 + cslw*4

	raw, err = field(off, 2)
	if err != nil {
		return f, err
	}
	if int(binary.LittleEndian.Uint16(raw)) <= fcClxIndex {
		return f, errors.New("file information block has no piece table")
	}
	raw, err = field(off+2+fcClxIndex*8, 8)
	if err != nil {
		return f, err
	}
	f.fcClx = binary.LittleEndian.Uint32(raw[:4])
	f.lcbClx = binary.LittleEndian.Uint32(raw[4:])
	return f, nil
}

type piece struct {
	chars      int
	offset     uint32
	compressed bool
}

func (p piece) decode(word []byte, n int) (string, error) {
	size := n * 2
	if p.compressed {
		size = n
	}
	end := uint64(p.offset) + uint64(size)
	if end > uint64(len(word)) {
		return "", errors.New("text piece outside WordDocument stream")
	}
	raw := word[p.offset:end]
	var (
		out []byte
		err error
	)
	if p.compressed {
		out, err = charmap.Windows1252.NewDecoder().Bytes(raw)
	} else {
		out, err = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(raw)
	}
	if err != nil {
		return "", fmt.Errorf("decoding text piece: %w", err)
	}
	return string(out), nil
}

// readPieces parses the Clx: property runs to skip, then the piece table.
func readPieces(clx []byte) ([]piece, error) {
	for i := 0; i < len(clx); {
		switch clx[i] {
		case 0x01:
			if i+3 > len(clx) {
				return nil, errors.New("truncated property run")
			}
			i += 3 + int(binary.LittleEndian.Uint16(clx[i+1:]))
		case 0x02:
			if i+5 > len(clx) {
				return nil, errors.New("truncated piece table")
			}
			lcb := int(binary.LittleEndian.Uint32(clx[i+1:]))
			plc := clx[i+5:]
			if lcb > len(plc) || lcb < 4 || (lcb-4)%12 != 0 {
				return nil, errors.New("malformed piece table")
			}
			n := (lcb - 4) / 12
			pieces := make([]piece, 0, n)
			for k := 0; k < n; k++ {
				start := binary.LittleEndian.Uint32(plc[k*4:])
				end := binary.LittleEndian.Uint32(plc[(k+1)*4:])
				if end < start {
					return nil, errors.New("piece table positions out of order")
				}
				pcd := plc[(n+1)*4+k*8:]
				fc := binary.LittleEndian.Uint32(pcd[2:])
				p := piece{chars: int(end - start), offset: fc}
				if fc&fCompressed != 0 {
					p.compressed = true
					p.offset = (fc &^ fCompressed) / 2
				}
				pieces = append(pieces, p)
			}
			return pieces, nil
		default:
			return nil, fmt.Errorf("unexpected piece table marker 0x%02x", clx[i])
		}
	}
	return nil, errors.New("piece table not found")
}

// cleanWordText maps Word control characters to plain text and drops field
// instructions, keeping field results.
func cleanWordText(s string) string {
	var (
		b     strings.Builder
		depth int
		instr []bool
	)
	for _, r := range s {
		switch r {
		case 0x13:
			depth++
			instr = append(instr, true)
			continue
		case 0x14:
			if depth > 0 {
				instr[depth-1] = false
			}
			continue
		case 0x15:
			if depth > 0 {
				depth--
				instr = instr[:depth]
			}
			continue
		}
		if depth > 0 && instr[depth-1] {
			continue
		}
		switch {
		case r == '\r', r == 0x0B, r == 0x0C:
			b.WriteByte('\n')
		case r == 0x07, r == '\t':
			b.WriteByte('\t')
		case r < 0x20:
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
