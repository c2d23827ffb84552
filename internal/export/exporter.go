package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/book-expert/logger"
	"github.com/google/uuid"

	"github.com/book-expert/audiobook-service/internal/audio"
	"github.com/book-expert/audiobook-service/internal/core"
)

const (
	defaultFFmpegPath = "ffmpeg"

	filePermissions = 0o600
	dirPermissions  = 0o750
)

// Output metadata applied to every exported audiobook.
const (
	metadataTitle  = "Audiobook"
	metadataArtist = "TTS"
)

// Static errors.
var (
	ErrEmptyWaveform = errors.New("cannot export an empty waveform")
)

// commandRunner abstracts external process execution so tests can intercept
// the ffmpeg invocations.
type commandRunner interface {
	Run(ctx context.Context, name string, args []string) ([]byte, error)
}

// execRunner runs commands through os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args []string) ([]byte, error) {
	// #nosec G204 -- the binary path and arguments are built from
	// configuration, not request data.
	cmd := exec.CommandContext(ctx, name, args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("command %s failed: %w", name, err)
	}

	return output, nil
}

// Compile-time collaborator check.
var _ core.AudiobookExporter = (*Exporter)(nil)

// Exporter writes a waveform and its chapter marks to an M4B file through
// two ffmpeg invocations: an AAC encode of the raw audio, then a mux that
// attaches the chapter metadata without re-encoding.
type Exporter struct {
	ffmpegPath string
	workDir    string
	runner     commandRunner
	log        *logger.Logger
}

// New creates an Exporter that shells out to the given ffmpeg binary and
// stages its intermediate files in workDir.
func New(ffmpegPath, workDir string, log *logger.Logger) (*Exporter, error) {
	return newWithRunner(ffmpegPath, workDir, execRunner{}, log)
}

func newWithRunner(
	ffmpegPath, workDir string,
	runner commandRunner,
	log *logger.Logger,
) (*Exporter, error) {
	if ffmpegPath == "" {
		ffmpegPath = defaultFFmpegPath
	}

	if workDir == "" {
		workDir = os.TempDir()
	}

	dirErr := os.MkdirAll(workDir, dirPermissions)
	if dirErr != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", dirErr)
	}

	return &Exporter{
		ffmpegPath: ffmpegPath,
		workDir:    workDir,
		runner:     runner,
		log:        log,
	}, nil
}

// Export writes the waveform to outputPath as a chapterized M4B. All
// intermediate files are removed whether the export succeeds or fails; the
// output file is only left behind on success.
func (e *Exporter) Export(
	ctx context.Context,
	wave audio.Segment,
	marks []core.ChapterMark,
	outputPath string,
) error {
	if wave.Empty() {
		return ErrEmptyWaveform
	}

	stem := uuid.NewString()
	wavPath := filepath.Join(e.workDir, stem+".wav")
	m4aPath := filepath.Join(e.workDir, stem+".m4a")
	chaptersPath := filepath.Join(e.workDir, stem+".chapters")

	err := wave.WriteWAVFile(wavPath)
	if err != nil {
		return fmt.Errorf("failed to write intermediate WAV: %w", err)
	}
	defer e.removeArtifact(wavPath)

	err = e.encodeIntermediate(ctx, wavPath, m4aPath)
	if err != nil {
		return err
	}
	defer e.removeArtifact(m4aPath)

	err = os.WriteFile(
		chaptersPath,
		[]byte(RenderChapterMetadata(marks)),
		filePermissions,
	)
	if err != nil {
		return fmt.Errorf("failed to write chapter metadata: %w", err)
	}
	defer e.removeArtifact(chaptersPath)

	err = e.muxChapters(ctx, m4aPath, chaptersPath, outputPath)
	if err != nil {
		return err
	}

	e.log.Info(
		"Exported audiobook: %s (%d chapters, %d ms)",
		outputPath, len(marks), wave.DurationMS(),
	)

	return nil
}

// encodeIntermediate converts the raw WAV to an AAC-in-MP4 intermediate.
func (e *Exporter) encodeIntermediate(ctx context.Context, wavPath, m4aPath string) error {
	args := []string{
		"-y",
		"-i", wavPath,
		"-c:a", "aac",
		m4aPath,
	}

	output, err := e.runner.Run(ctx, e.ffmpegPath, args)
	if err != nil {
		return fmt.Errorf(
			"audio encode failed: %w: %s", err, string(output),
		)
	}

	return nil
}

// muxChapters attaches the chapter metadata to the encoded audio without
// re-encoding and writes the final container.
func (e *Exporter) muxChapters(
	ctx context.Context,
	m4aPath, chaptersPath, outputPath string,
) error {
	args := []string{
		"-y",
		"-i", m4aPath,
		"-f", "ffmetadata",
		"-i", chaptersPath,
		"-map_chapters", "1",
		"-map", "0",
		"-codec", "copy",
		"-metadata", "title=" + metadataTitle,
		"-metadata", "artist=" + metadataArtist,
		"-movflags", "+faststart",
		outputPath,
	}

	output, err := e.runner.Run(ctx, e.ffmpegPath, args)
	if err != nil {
		return fmt.Errorf(
			"chapter mux failed: %w: %s", err, string(output),
		)
	}

	return nil
}

// removeArtifact deletes an intermediate file, logging any unexpected
// failure. A file that was never created is not an error.
func (e *Exporter) removeArtifact(path string) {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		e.log.Warn("Failed to remove intermediate file '%s': %v", path, err)
	}
}
