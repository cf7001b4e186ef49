package extractor

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/yungbote/refyne-backend/internal/pkg/errors"
	"github.com/yungbote/refyne-backend/internal/platform/logger"
)

func newTestExtractor() *Extractor { return New(logger.Nop()) }

func TestExtractPlainTextVerbatim(t *testing.T) {
	in := "# Title\n\nLine one.\n  indented\n"
	res, err := newTestExtractor().Extract("notes.md", []byte(in))
	require.NoError(t, err)
	assert.Equal(t, in, res.Text)
	assert.Equal(t, "md", res.Diagnostics["extractor"])
}

func TestExtractCSVRows(t *testing.T) {
	in := "name, role\n\"Lovelace, Ada\",Engineer\n\n Grace ,\"Admiral\"\n"
	res, err := newTestExtractor().Extract("people.CSV", []byte(in))
	require.NoError(t, err)
	want := "--- Row 1 ---\nname: Lovelace, Ada\nrole: Engineer\n\n--- Row 2 ---\nname: Grace\nrole: Admiral"
	assert.Equal(t, want, res.Text)
	assert.Equal(t, 2, res.Diagnostics["rows"])
}

func TestExtractCSVHeaderOnly(t *testing.T) {
	res, err := newTestExtractor().Extract("empty.csv", []byte("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, "", res.Text)
}

func TestExtractHTMLDropsScripts(t *testing.T) {
	in := `<html><head><style>p{color:red}</style><script>alert("x")</script></head>
<body><h1>Help &amp; Support</h1>
<p>Reset   your
password.</p></body></html>`
	res, err := newTestExtractor().Extract("faq.htm", []byte(in))
	require.NoError(t, err)
	assert.Equal(t, "Help & Support Reset your password.", res.Text)
}

func buildDOCX(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractDOCXParagraphs(t *testing.T) {
	data := buildDOCX(t, `<w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve"> world</w:t></w:r></w:p><w:p></w:p><w:p><w:r><w:t>Second</w:t></w:r></w:p>`)
	res, err := newTestExtractor().Extract("memo.docx", data)
	require.NoError(t, err)
	assert.Equal(t, "Hello world\n\nSecond", res.Text)
}

func TestExtractErrors(t *testing.T) {
	x := newTestExtractor()

	_, err := x.Extract("slides.pptx", []byte("PK"))
	var extractionErr *perrors.ExtractionError
	require.True(t, errors.As(err, &extractionErr))
	assert.Equal(t, ".pptx", extractionErr.UnsupportedType)
	assert.Contains(t, err.Error(), "unsupported file type: .pptx")

	_, err = x.Extract("fake.pdf", []byte("not a pdf at all"))
	require.True(t, errors.As(err, &extractionErr))
	assert.Empty(t, extractionErr.UnsupportedType)
	assert.True(t, strings.Contains(err.Error(), "%PDF"))

	_, err = x.Extract("fake.docx", []byte("plain"))
	require.Error(t, err)

	_, err = x.Extract("empty.docx", buildDOCX(t, ""))
	require.Error(t, err)
}

func TestFileType(t *testing.T) {
	cases := map[string]string{"a.HTM": "html", "b.html": "html", "c.txt": "txt", "d.docx": "docx"}
	for name, want := range cases {
		got, ok := FileType(name)
		if !ok || got != want {
			t.Fatalf("FileType(%q): want=%s got=%s ok=%v", name, want, got, ok)
		}
	}
	if _, ok := FileType("e.exe"); ok {
		t.Fatalf("FileType(e.exe): want unsupported")
	}
}
