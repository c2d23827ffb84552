// Package extract parses source documents (plain text, PDF, EPUB) into
// ordered chapter records ready for narration.
package extract

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/book-expert/audiobook-service/internal/core"
)

// A heading shorter than this is treated as decoration, not a chapter title.
const minHeaderLength = 4

const defaultChapterTitle = "Introduction"

// Static errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrNoChapters        = errors.New("document contains no chapters")
)

// IsChapterHeader reports whether a line of text looks like a chapter
// heading: either it starts with the word "chapter" (any casing), or the
// whole line is upper case and long enough to be a deliberate title.
func IsChapterHeader(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}

	if strings.HasPrefix(strings.ToLower(trimmed), "chapter") {
		return true
	}

	return trimmed == strings.ToUpper(trimmed) && len(trimmed) > minHeaderLength
}

// isPageNumber reports whether a line is nothing but digits, the usual shape
// of a page number artifact left over from PDF extraction.
func isPageNumber(line string) bool {
	if line == "" {
		return false
	}

	for _, r := range line {
		if !unicode.IsDigit(r) {
			return false
		}
	}

	return true
}

// chaptersFromLines walks the document lines in order and groups them into
// chapter records. Content before the first recognized heading falls into a
// default introductory chapter; page-number lines are dropped; chapters that
// end up with no content are pruned.
func chaptersFromLines(lines []string) []core.ChapterRecord {
	chapters := make([]core.ChapterRecord, 0)

	current := core.ChapterRecord{
		Title:   defaultChapterTitle,
		Content: nil,
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isPageNumber(trimmed) {
			continue
		}

		if IsChapterHeader(trimmed) {
			if len(current.Content) > 0 {
				chapters = append(chapters, current)
			}

			current = core.ChapterRecord{
				Title:   trimmed,
				Content: nil,
			}

			continue
		}

		current.Content = append(current.Content, trimmed)
	}

	if len(current.Content) > 0 {
		chapters = append(chapters, current)
	}

	return chapters
}

// ParseText reads a plain text document and splits it into chapters.
func ParseText(reader io.Reader) ([]core.ChapterRecord, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string

	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	err := scanner.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	chapters := chaptersFromLines(lines)
	if len(chapters) == 0 {
		return nil, ErrNoChapters
	}

	return chapters, nil
}

// parseTextFile opens a plain text document from disk and parses it.
func parseTextFile(path string) ([]core.ChapterRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}

	defer func() { _ = file.Close() }()

	return ParseText(file)
}

// ParseDocument dispatches on the file extension and returns the document's
// chapters.
func ParseDocument(path string) ([]core.ChapterRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return parseTextFile(path)
	case ".pdf":
		return ParsePDF(path)
	case ".epub":
		return ParseEPUB(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}
