package extract_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/audiobook-service/internal/core"
	"github.com/book-expert/audiobook-service/internal/extract"
)

func TestIsChapterHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		line     string
		expected bool
	}{
		{name: "chapter prefix", line: "Chapter 1: The Beginning", expected: true},
		{name: "lowercase chapter prefix", line: "chapter twelve", expected: true},
		{name: "all caps title", line: "THE GREAT ESCAPE", expected: true},
		{name: "short caps decoration", line: "***", expected: false},
		{name: "ordinary sentence", line: "It was a dark night.", expected: false},
		{name: "blank line", line: "   ", expected: false},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got := extract.IsChapterHeader(testCase.line)
			assert.Equal(t, testCase.expected, got)
		})
	}
}

func TestParseText_SplitsOnHeadings(t *testing.T) {
	t.Parallel()

	document := strings.Join([]string{
		"Some opening remarks before any heading.",
		"",
		"Chapter 1",
		"The story begins here.",
		"It continues on this line.",
		"42",
		"Chapter 2",
		"The second part of the story.",
	}, "\n")

	chapters, err := extract.ParseText(strings.NewReader(document))
	require.NoError(t, err)

	require.Len(t, chapters, 3)

	assert.Equal(t, "Introduction", chapters[0].Title)
	assert.Equal(t, []string{"Some opening remarks before any heading."}, chapters[0].Content)

	assert.Equal(t, "Chapter 1", chapters[1].Title)
	assert.Equal(t, []string{
		"The story begins here.",
		"It continues on this line.",
	}, chapters[1].Content, "page number lines should be dropped")

	assert.Equal(t, "Chapter 2", chapters[2].Title)
	assert.Equal(t, []string{"The second part of the story."}, chapters[2].Content)
}

func TestParseText_PrunesEmptyChapters(t *testing.T) {
	t.Parallel()

	document := strings.Join([]string{
		"Chapter 1",
		"Chapter 2",
		"Only this chapter has content.",
	}, "\n")

	chapters, err := extract.ParseText(strings.NewReader(document))
	require.NoError(t, err)

	require.Len(t, chapters, 1)
	assert.Equal(t, "Chapter 2", chapters[0].Title)
}

func TestParseText_NoContent(t *testing.T) {
	t.Parallel()

	_, err := extract.ParseText(strings.NewReader("  \n \n  "))
	require.Error(t, err)
	assert.ErrorIs(t, err, extract.ErrNoChapters)
}

func TestBatchRoundTrip(t *testing.T) {
	t.Parallel()

	chapters := []core.ChapterRecord{
		{Title: "Chapter 1", Content: []string{"First line.", "Second line."}},
		{Title: "Chapter 2", Content: []string{"Third line."}},
	}

	path := filepath.Join(t.TempDir(), "batch.json")

	err := extract.WriteBatch(path, chapters)
	require.NoError(t, err)

	loaded, err := extract.ReadBatch(path)
	require.NoError(t, err)

	assert.Equal(t, chapters, loaded)
}

func TestWriteBatch_RejectsEmpty(t *testing.T) {
	t.Parallel()

	err := extract.WriteBatch(filepath.Join(t.TempDir(), "batch.json"), nil)
	assert.ErrorIs(t, err, extract.ErrNoChapters)
}

func TestDecodeBatch_RejectsMalformedData(t *testing.T) {
	t.Parallel()

	_, err := extract.DecodeBatch([]byte("not json"))
	require.Error(t, err)

	_, err = extract.DecodeBatch([]byte("[]"))
	assert.ErrorIs(t, err, extract.ErrNoChapters)
}

func TestParseDocument_UnsupportedExtension(t *testing.T) {
	t.Parallel()

	_, err := extract.ParseDocument("book.docx")
	assert.ErrorIs(t, err, extract.ErrUnsupportedFormat)
}
