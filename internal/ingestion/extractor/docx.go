package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

func isZip(b []byte) bool {
	return len(b) >= 4 && b[0] == 'P' && b[1] == 'K' && b[2] == 3 && b[3] == 4
}

// extractDOCX reads word/document.xml and joins <w:t> runs, one paragraph per
// <w:p> separated by blank lines.
func extractDOCX(data []byte) (string, error) {
	if !isZip(data) {
		return "", fmt.Errorf("file claims docx but is not a valid zip container")
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("docx zip: %w", err)
	}
	var part *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			part = f
			break
		}
	}
	if part == nil {
		return "", fmt.Errorf("docx: missing word/document.xml")
	}
	rc, err := part.Open()
	if err != nil {
		return "", fmt.Errorf("docx open: %w", err)
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("docx read: %w", err)
	}

	dec := xml.NewDecoder(bytes.NewReader(raw))
	var paragraphs []string
	var cur strings.Builder
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("docx xml: %w", err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				var v string
				if err := dec.DecodeElement(&v, &el); err != nil {
					return "", fmt.Errorf("docx text run: %w", err)
				}
				cur.WriteString(v)
			case "tab":
				cur.WriteString("\t")
			case "br", "cr":
				cur.WriteString("\n")
			}
		case xml.EndElement:
			if el.Name.Local == "p" {
				if p := strings.TrimSpace(cur.String()); p != "" {
					paragraphs = append(paragraphs, p)
				}
				cur.Reset()
			}
		}
	}
	if p := strings.TrimSpace(cur.String()); p != "" {
		paragraphs = append(paragraphs, p)
	}
	if len(paragraphs) == 0 {
		return "", errEmpty("docx")
	}
	return strings.Join(paragraphs, "\n\n"), nil
}
