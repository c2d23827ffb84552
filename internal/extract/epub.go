package extract

import (
	"archive/zip"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/book-expert/audiobook-service/internal/core"
)

// ParseEPUB reads the XHTML content documents of an EPUB container in
// archive order and splits their text into chapters using the same heading
// heuristics as the other formats.
func ParseEPUB(path string) ([]core.ChapterRecord, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open EPUB: %w", err)
	}

	defer func() { _ = archive.Close() }()

	documents := contentDocuments(archive)

	var lines []string

	for _, document := range documents {
		documentLines, docErr := documentTextLines(document)
		if docErr != nil {
			continue
		}

		lines = append(lines, documentLines...)
	}

	chapters := chaptersFromLines(lines)
	if len(chapters) == 0 {
		return nil, ErrNoChapters
	}

	return chapters, nil
}

// contentDocuments returns the archive's XHTML content files sorted by path,
// which matches the reading order of the common sequentially named layouts.
func contentDocuments(archive *zip.ReadCloser) []*zip.File {
	var documents []*zip.File

	for _, file := range archive.File {
		name := strings.ToLower(file.Name)
		if strings.HasSuffix(name, ".xhtml") ||
			strings.HasSuffix(name, ".html") ||
			strings.HasSuffix(name, ".htm") {
			documents = append(documents, file)
		}
	}

	sort.Slice(documents, func(i, j int) bool {
		return documents[i].Name < documents[j].Name
	})

	return documents
}

// documentTextLines extracts the visible text of one XHTML document, one
// line per text node.
func documentTextLines(file *zip.File) ([]string, error) {
	reader, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open EPUB entry %s: %w", file.Name, err)
	}

	defer func() { _ = reader.Close() }()

	root, err := html.Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse EPUB entry %s: %w", file.Name, err)
	}

	var lines []string

	collectTextLines(root, &lines)

	return lines, nil
}

// collectTextLines walks the parsed document and appends every non-blank
// text node, skipping script and style subtrees.
func collectTextLines(node *html.Node, lines *[]string) {
	if node.Type == html.ElementNode {
		switch node.Data {
		case "script", "style":
			return
		}
	}

	if node.Type == html.TextNode {
		text := strings.TrimSpace(node.Data)
		if text != "" {
			*lines = append(*lines, text)
		}
	}

	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectTextLines(child, lines)
	}
}
