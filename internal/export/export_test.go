package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/book-expert/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/audiobook-service/internal/audio"
	"github.com/book-expert/audiobook-service/internal/core"
)

var errMockCommand = errors.New("mock command error")

// recordedCall captures one external command invocation.
type recordedCall struct {
	name string
	args []string
}

// stubRunner records invocations and optionally fails the nth call.
type stubRunner struct {
	calls    []recordedCall
	failCall int
}

func (r *stubRunner) Run(_ context.Context, name string, args []string) ([]byte, error) {
	r.calls = append(r.calls, recordedCall{name: name, args: args})

	if r.failCall == len(r.calls) {
		return []byte("mock tool output"), errMockCommand
	}

	return nil, nil
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "export-test.log")
	require.NoError(t, err)

	t.Cleanup(func() {
		closeErr := log.Close()
		if closeErr != nil {
			t.Logf("failed to close test logger: %v", closeErr)
		}
	})

	return log
}

func testWave() audio.Segment {
	samples := make([]int, 44100)
	for i := range samples {
		samples[i] = i % 64
	}

	return audio.Segment{
		Samples:    samples,
		SampleRate: 44100,
		Channels:   1,
		BitDepth:   16,
	}
}

func testMarks() []core.ChapterMark {
	return []core.ChapterMark{
		{Title: "Introduction", StartMS: 0, EndMS: 5000},
		{Title: "Chapter One", StartMS: 5000, EndMS: 8200},
	}
}

func TestRenderChapterMetadata(t *testing.T) {
	t.Parallel()

	rendered := RenderChapterMetadata(testMarks())

	assert.True(t, strings.HasPrefix(rendered, ";FFMETADATA1\n"))
	assert.Contains(t, rendered, "[CHAPTER]\nTIMEBASE=1/1\nSTART=0\nEND=5\ntitle=Introduction\n")
	assert.Contains(t, rendered, "[CHAPTER]\nTIMEBASE=1/1\nSTART=5\nEND=8\ntitle=Chapter One\n")
}

func TestRenderChapterMetadata_EscapesSpecialCharacters(t *testing.T) {
	t.Parallel()

	marks := []core.ChapterMark{
		{Title: `Q=A; #1 \ done`, StartMS: 0, EndMS: 1000},
	}

	rendered := RenderChapterMetadata(marks)

	assert.Contains(t, rendered, `title=Q\=A\; \#1 \\ done`)
}

func TestExport_RunsEncodeThenMux(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{}
	workDir := t.TempDir()

	exporter, err := newWithRunner("ffmpeg", workDir, runner, newTestLogger(t))
	require.NoError(t, err)

	outputPath := filepath.Join(t.TempDir(), "book.m4b")

	err = exporter.Export(context.Background(), testWave(), testMarks(), outputPath)
	require.NoError(t, err)

	require.Len(t, runner.calls, 2)

	encode := runner.calls[0]
	assert.Equal(t, "ffmpeg", encode.name)
	assert.Contains(t, encode.args, "aac")

	mux := runner.calls[1]
	assert.Contains(t, mux.args, "-map_chapters")
	assert.Contains(t, mux.args, "ffmetadata")
	assert.Equal(t, outputPath, mux.args[len(mux.args)-1])
}

func TestExport_RemovesIntermediatesOnSuccess(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{}
	workDir := t.TempDir()

	exporter, err := newWithRunner("ffmpeg", workDir, runner, newTestLogger(t))
	require.NoError(t, err)

	outputPath := filepath.Join(t.TempDir(), "book.m4b")

	err = exporter.Export(context.Background(), testWave(), testMarks(), outputPath)
	require.NoError(t, err)

	entries, err := os.ReadDir(workDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "intermediate files should be removed")
}

func TestExport_RemovesIntermediatesOnFailure(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{failCall: 2}
	workDir := t.TempDir()

	exporter, err := newWithRunner("ffmpeg", workDir, runner, newTestLogger(t))
	require.NoError(t, err)

	outputPath := filepath.Join(t.TempDir(), "book.m4b")

	err = exporter.Export(context.Background(), testWave(), testMarks(), outputPath)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errMockCommand))

	entries, err := os.ReadDir(workDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "intermediate files should be removed on failure too")
}

func TestExport_RejectsEmptyWaveform(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{}

	exporter, err := newWithRunner("ffmpeg", t.TempDir(), runner, newTestLogger(t))
	require.NoError(t, err)

	err = exporter.Export(
		context.Background(),
		audio.Segment{},
		testMarks(),
		filepath.Join(t.TempDir(), "book.m4b"),
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyWaveform))
	assert.Empty(t, runner.calls)
}
