package extractor

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

var blankLines = regexp.MustCompile(`\n{3,}`)

func isPDF(b []byte) bool {
	return len(b) >= 5 && string(b[:5]) == "%PDF-"
}

func extractPDF(data []byte) (string, int, error) {
	if !isPDF(data) {
		return "", 0, fmt.Errorf("file claims pdf but missing %%PDF header (head=%s)", firstBytesHex(data, 16))
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("pdf reader: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", r.NumPage(), fmt.Errorf("pdf plaintext: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", r.NumPage(), fmt.Errorf("pdf read: %w", err)
	}
	return normalizeLines(string(b)), r.NumPage(), nil
}

// normalizeLines trims trailing spaces and squeezes runs of blank lines,
// keeping paragraph breaks for the chunker.
func normalizeLines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(strings.ReplaceAll(l, "\u00a0", " "), " \t")
	}
	s = strings.Join(lines, "\n")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
