package extract

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"testing"
	"unicode/utf16"

	"github.com/santiagomed/edpgen/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contentTypes = `<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractPlainText(t *testing.T) {
	e := NewDocumentExtractor()
	text, err := e.Extract("spec.md", []byte("  # Login\nUsers sign in.\n"))
	require.NoError(t, err)
	assert.Equal(t, "# Login\nUsers sign in.", text)
}

func TestExtractDocx(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p w:rsidR="00A1"><w:r><w:t>Use Case:</w:t></w:r><w:r><w:tab/><w:t>Login</w:t></w:r></w:p>
<w:p><w:r><w:t>Fields: email, password</w:t></w:r></w:p>
</w:body>
</w:document>`
	data := buildZip(t, map[string]string{
		"[Content_Types].xml": contentTypes,
		"word/document.xml":   doc,
	})
	text, err := NewDocumentExtractor().Extract("spec.DOCX", data)
	require.NoError(t, err)
	assert.Equal(t, "Use Case:\nLogin\n\nFields: email, password", text)
}

func TestExtractDocxMalformed(t *testing.T) {
	data := buildZip(t, map[string]string{"word/document.xml": "<w:document/>"})
	_, err := NewDocumentExtractor().Extract("spec.docx", data)
	assert.ErrorContains(t, err, "malformed document")

	_, err = NewDocumentExtractor().Extract("spec.docx", []byte("plain"))
	assert.ErrorContains(t, err, "unzipping")
}

func TestExtractODT(t *testing.T) {
	content := `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0">
<office:body><office:text><text:p>Manage orders</text:p><text:p>Cancel an order</text:p></office:text></office:body>
</office:document-content>`
	data := buildZip(t, map[string]string{"content.xml": content})
	text, err := NewDocumentExtractor().Extract("spec.odt", data)
	require.NoError(t, err)
	assert.Equal(t, "Manage orders\nCancel an order", text)
}

// wordPiece is one run of the piece table in buildWordDoc.
type wordPiece struct {
	text       string
	compressed bool
}

// buildWordDoc writes a minimal Word 97 compound file: a FAT sector, a
// directory sector, then the WordDocument and 1Table streams, each padded
// past the mini stream cutoff.
func buildWordDoc(t *testing.T, pieces ...wordPiece) []byte {
	t.Helper()
	const (
		sector     = 512
		streamSize = 4096
		textStart  = 1024
		endOfChain = 0xFFFFFFFE
		freeSect   = 0xFFFFFFFF
		noStream   = 0xFFFFFFFF
	)
	le := binary.LittleEndian

	word := make([]byte, streamSize)
	le.PutUint16(word[0:], 0xA5EC)
	le.PutUint16(word[0x0A:], 0x0200)
	le.PutUint16(word[32:], 14)
	le.PutUint16(word[62:], 22)
	le.PutUint16(word[152:], 93)

	// property run, then a piece table with one descriptor per piece
	clx := []byte{0x01, 0x02, 0x00, 0xAA, 0xBB}
	var cps, pcds []byte
	cp, at := uint32(0), uint32(textStart)
	for _, p := range pieces {
		cps = le.AppendUint32(cps, cp)
		fc := at
		var raw []byte
		if p.compressed {
			raw = []byte(p.text)
			fc = (at * 2) | 0x40000000
		} else {
			for _, u := range utf16.Encode([]rune(p.text)) {
				raw = le.AppendUint16(raw, u)
			}
		}
		copy(word[at:], raw)
		at += uint32(len(raw))
		cp += uint32(len([]rune(p.text)))

		pcds = append(pcds, 0, 0)
		pcds = le.AppendUint32(pcds, fc)
		pcds = append(pcds, 0, 0)
	}
	cps = le.AppendUint32(cps, cp)
	clx = append(clx, 0x02)
	clx = le.AppendUint32(clx, uint32(len(cps)+len(pcds)))
	clx = append(append(clx, cps...), pcds...)

	le.PutUint32(word[76:], cp)
	le.PutUint32(word[154+33*8:], 0)
	le.PutUint32(word[154+33*8+4:], uint32(len(clx)))

	table := make([]byte, streamSize)
	copy(table, clx)

	header := make([]byte, sector)
	copy(header, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	le.PutUint16(header[24:], 0x3E)
	le.PutUint16(header[26:], 3)
	le.PutUint16(header[28:], 0xFFFE)
	le.PutUint16(header[30:], 9)
	le.PutUint16(header[32:], 6)
	le.PutUint32(header[44:], 1)
	le.PutUint32(header[48:], 1)
	le.PutUint32(header[56:], streamSize)
	le.PutUint32(header[60:], endOfChain)
	le.PutUint32(header[68:], endOfChain)
	le.PutUint32(header[76:], 0)
	for i := 80; i < sector; i += 4 {
		le.PutUint32(header[i:], freeSect)
	}

	perStream := streamSize / sector
	fat := make([]byte, sector)
	for i := 0; i < sector/4; i++ {
		le.PutUint32(fat[i*4:], freeSect)
	}
	le.PutUint32(fat[0:], 0xFFFFFFFD)
	le.PutUint32(fat[4:], endOfChain)
	for _, first := range []int{2, 2 + perStream} {
		for k := 0; k < perStream; k++ {
			next := uint32(first + k + 1)
			if k == perStream-1 {
				next = endOfChain
			}
			le.PutUint32(fat[(first+k)*4:], next)
		}
	}

	dir := make([]byte, sector)
	entry := func(i int, name string, typ byte, right, child, start, size uint32) {
		e := dir[i*128:]
		units := utf16.Encode([]rune(name))
		for k, u := range units {
			le.PutUint16(e[k*2:], u)
		}
		le.PutUint16(e[64:], uint16((len(units)+1)*2))
		e[66] = typ
		e[67] = 1
		le.PutUint32(e[68:], noStream)
		le.PutUint32(e[72:], right)
		le.PutUint32(e[76:], child)
		le.PutUint32(e[116:], start)
		le.PutUint32(e[120:], size)
	}
	entry(0, "Root Entry", 5, noStream, 1, endOfChain, 0)
	entry(1, "WordDocument", 2, 2, noStream, 2, streamSize)
	entry(2, "1Table", 2, noStream, noStream, uint32(2+perStream), streamSize)

	var out bytes.Buffer
	for _, part := range [][]byte{header, fat, dir, word, table} {
		out.Write(part)
	}
	return out.Bytes()
}

func TestExtractLegacyDoc(t *testing.T) {
	data := buildWordDoc(t,
		wordPiece{text: "Use case: Login\r", compressed: true},
		wordPiece{text: "Passwörd reset\x07\x13 HYPERLINK \"x\" \x14Docs\x15\r"},
	)

	text, err := NewDocumentExtractor().Extract("legacy.doc", data)
	require.NoError(t, err)
	assert.Equal(t, "Use case: Login\nPasswörd reset\tDocs", text)
}

func TestExtractLegacyDocRejectsOtherFormats(t *testing.T) {
	_, err := NewDocumentExtractor().Extract("legacy.doc", []byte("Add login page"))
	assert.ErrorIs(t, err, errNotWord)
}

func TestExtractRejects(t *testing.T) {
	e := NewDocumentExtractor()

	_, err := e.Extract("diagram.png", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedDocument)

	_, err = e.Extract("empty.txt", []byte("   \n"))
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = e.Extract("bad.txt", []byte{0xff, 0xfe, 0xfd})
	assert.ErrorIs(t, err, ErrUnsupportedDocument)
}

func TestAcceptsCustomExtensions(t *testing.T) {
	e := NewDocumentExtractor(".cs", ".VB")
	assert.True(t, e.Accepts("User.cs"))
	assert.True(t, e.Accepts("Module.vb"))
	assert.False(t, e.Accepts("spec.txt"))
}

func TestExtractFile(t *testing.T) {
	memFS := fs.NewMemoryFileSystem()
	require.NoError(t, memFS.WriteFile("docs/spec.txt", []byte("Add login")))

	text, err := ExtractFile(memFS, NewDocumentExtractor(), "docs/spec.txt")
	require.NoError(t, err)
	assert.Equal(t, "Add login", text)

	_, err = ExtractFile(memFS, NewDocumentExtractor(), "docs/missing.txt")
	assert.Error(t, err)
}
