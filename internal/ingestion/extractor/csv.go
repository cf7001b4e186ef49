package extractor

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// extractCSV renders every data row as a labeled block:
//
//	--- Row 1 ---
//	name: Ada
//	role: Engineer
func extractCSV(data []byte) (string, int, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\ufeff"))))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var header []string
	var blocks []string
	rowNum := 0
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", rowNum, fmt.Errorf("csv: %w", err)
		}
		if isBlankRecord(rec) {
			continue
		}
		if header == nil {
			header = make([]string, len(rec))
			for i, h := range rec {
				header[i] = strings.TrimSpace(h)
			}
			continue
		}
		rowNum++
		var b strings.Builder
		fmt.Fprintf(&b, "--- Row %d ---", rowNum)
		for i, h := range header {
			v := ""
			if i < len(rec) {
				v = strings.TrimSpace(rec[i])
			}
			b.WriteString("\n")
			b.WriteString(h)
			b.WriteString(": ")
			b.WriteString(v)
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n"), rowNum, nil
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
