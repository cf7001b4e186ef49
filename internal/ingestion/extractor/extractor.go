package extractor

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	perrors "github.com/yungbote/refyne-backend/internal/pkg/errors"
	"github.com/yungbote/refyne-backend/internal/platform/logger"
)

// Result is the extracted text of one file plus diagnostics stored on the document.
type Result struct {
	Text        string
	Diagnostics map[string]any
}

type Extractor struct {
	log *logger.Logger
}

func New(baseLog *logger.Logger) *Extractor {
	return &Extractor{log: baseLog.With("component", "Extractor")}
}

var supported = map[string]string{
	".txt":  "txt",
	".md":   "md",
	".csv":  "csv",
	".pdf":  "pdf",
	".docx": "docx",
	".html": "html",
	".htm":  "html",
}

// FileType maps a filename to the stored file type ("htm" becomes "html").
// ok is false for extensions that cannot be extracted.
func FileType(filename string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	ft, ok := supported[ext]
	return ft, ok
}

func SupportedExtensions() []string {
	return []string{".txt", ".md", ".csv", ".pdf", ".docx", ".html", ".htm"}
}

// Extract dispatches on the original filename's extension.
func (e *Extractor) Extract(originalFilename string, data []byte) (*Result, error) {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	kind, ok := supported[ext]
	if !ok {
		if ext == "" {
			ext = "(none)"
		}
		return nil, &perrors.ExtractionError{Filename: originalFilename, UnsupportedType: ext}
	}

	var (
		text string
		diag = map[string]any{"extractor": kind, "bytes": len(data)}
		err  error
	)
	switch kind {
	case "txt", "md":
		text = extractPlainText(data)
	case "csv":
		var rows int
		text, rows, err = extractCSV(data)
		diag["rows"] = rows
	case "pdf":
		var pages int
		text, pages, err = extractPDF(data)
		diag["pages"] = pages
	case "docx":
		text, err = extractDOCX(data)
	case "html":
		text, err = extractHTML(data)
	}
	if err != nil {
		e.log.Warn("Extraction failed", "filename", originalFilename, "extractor", kind, "error", err)
		return nil, &perrors.ExtractionError{Filename: originalFilename, Err: err}
	}
	diag["chars"] = utf8.RuneCountInString(text)
	return &Result{Text: text, Diagnostics: diag}, nil
}

func extractPlainText(data []byte) string {
	s := string(data)
	s = strings.TrimPrefix(s, "\ufeff")
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "\ufffd")
	}
	return s
}

func collapseWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}

func firstBytesHex(b []byte, n int) string {
	n = min(len(b), n)
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 0, n*2)
	for i := 0; i < n; i++ {
		out = append(out, hexdigits[b[i]>>4], hexdigits[b[i]&0x0f])
	}
	return string(out)
}

func errEmpty(kind string) error {
	return fmt.Errorf("no text extracted from %s", kind)
}
