package cv

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// classicPDF lays objects out as 1 0 obj, 2 0 obj, ... with a plain xref
// table. Object 1 must be the catalog.
func classicPDF(objects ...string) []byte {
	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, o := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return b.Bytes()
}

// objectStreamPDF stores every object inside one Flate-compressed object
// stream, indexed by a cross-reference stream, the way PDF 1.5 writers do.
func objectStreamPDF(t *testing.T, objects ...string) []byte {
	t.Helper()

	var header, body strings.Builder
	for i, o := range objects {
		fmt.Fprintf(&header, "%d %d ", i+1, body.Len())
		body.WriteString(o)
		body.WriteString("\n")
	}
	var packed bytes.Buffer
	zw := zlib.NewWriter(&packed)
	_, err := zw.Write([]byte(header.String() + body.String()))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	n := len(objects)
	stmID, xrefID := n+1, n+2

	var b bytes.Buffer
	b.WriteString("%PDF-1.5\n")
	stmOffset := b.Len()
	fmt.Fprintf(&b, "%d 0 obj\n<< /Type /ObjStm /N %d /First %d /Filter /FlateDecode /Length %d >>\nstream\n",
		stmID, n, header.Len(), packed.Len())
	b.Write(packed.Bytes())
	b.WriteString("\nendstream\nendobj\n")

	// W [1 4 2]: type, offset or stream number, generation or index.
	entry := func(typ byte, f2 uint32, f3 uint16) []byte {
		e := []byte{typ, 0, 0, 0, 0, 0, 0}
		binary.BigEndian.PutUint32(e[1:5], f2)
		binary.BigEndian.PutUint16(e[5:7], f3)
		return e
	}
	xrefOffset := b.Len()
	var table bytes.Buffer
	table.Write(entry(0, 0, 0xFFFF))
	for i := range objects {
		table.Write(entry(2, uint32(stmID), uint16(i)))
	}
	table.Write(entry(1, uint32(stmOffset), 0))
	table.Write(entry(1, uint32(xrefOffset), 0))

	fmt.Fprintf(&b, "%d 0 obj\n<< /Type /XRef /Size %d /W [1 4 2] /Root 1 0 R /Length %d >>\nstream\n",
		xrefID, xrefID+1, table.Len())
	b.Write(table.Bytes())
	fmt.Fprintf(&b, "\nendstream\nendobj\nstartxref\n%d\n%%%%EOF\n", xrefOffset)
	return b.Bytes()
}

var twoPageObjects = []string{
	"<< /Type /Catalog /Pages 2 0 R >>",
	"<< /Type /Pages /Kids [3 0 R 4 0 R] /Count 2 >>",
	"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>",
	"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>",
}

func TestCountPages(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		pages int
		err   error
	}{
		{name: "xref table", data: classicPDF(twoPageObjects...), pages: 2},
		{name: "compressed object stream", data: objectStreamPDF(t, twoPageObjects...), pages: 2},
		{
			name: "nested page tree",
			data: classicPDF(
				"<< /Type /Catalog /Pages 2 0 R >>",
				"<< /Type /Pages /Kids [3 0 R 4 0 R] /Count 3 >>",
				"<< /Type /Pages /Parent 2 0 R /Kids [5 0 R 6 0 R] /Count 2 >>",
				"<< /Type /Page /Parent 2 0 R >>",
				"<< /Type /Page /Parent 3 0 R >>",
				"<< /Type /Page /Parent 3 0 R >>",
			),
			pages: 3,
		},
		{name: "not a pdf", data: []byte("hello"), err: ErrNotPDF},
		{name: "no cross-reference data", data: []byte("%PDF-1.4\n1 0 obj << /Type /Catalog >> endobj\n%%EOF\n"), err: ErrNotPDF},
		{
			name: "empty page tree",
			data: classicPDF("<< /Type /Catalog /Pages 2 0 R >>", "<< /Type /Pages /Kids [] /Count 0 >>"),
			err:  ErrNoPages,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := CountPages(tt.data)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.pages, n)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cv.pdf")
	data := objectStreamPDF(t, twoPageObjects...)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Pages)
	assert.EqualValues(t, len(data), doc.Size)

	_, err = Load(filepath.Join(dir, "missing.pdf"))
	assert.ErrorIs(t, err, ErrMissing)

	_, err = Load(dir)
	assert.ErrorIs(t, err, ErrNotPDF)
}

func TestBundledCV(t *testing.T) {
	doc, err := Load(filepath.Join("..", "..", "static", "cv.pdf"))
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Pages)
}
