package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/book-expert/audiobook-service/internal/core"
)

// ParsePDF extracts the plain text of every page in order and splits it into
// chapters. Pages whose text cannot be extracted are skipped rather than
// failing the whole document, since scanned or malformed pages are common.
func ParsePDF(path string) ([]core.ChapterRecord, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	defer func() { _ = file.Close() }()

	var lines []string

	for pageNumber := 1; pageNumber <= reader.NumPage(); pageNumber++ {
		page := reader.Page(pageNumber)
		if page.V.IsNull() {
			continue
		}

		pageText, textErr := page.GetPlainText(nil)
		if textErr != nil {
			continue
		}

		lines = append(lines, strings.Split(pageText, "\n")...)
	}

	chapters := chaptersFromLines(lines)
	if len(chapters) == 0 {
		return nil, ErrNoChapters
	}

	return chapters, nil
}
