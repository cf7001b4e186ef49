package extractor

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// extractHTML drops script, style and noscript content and returns the visible
// text with whitespace collapsed. Entities are decoded by the parser.
func extractHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("html parse: %w", err)
	}
	doc.Find("script, style, noscript, template").Remove()
	return collapseWhitespace(doc.Text()), nil
}
