// Package pipeline implements the chunked synthesis-with-verification
// pipeline: chapter text is segmented into bounded chunks, every chunk is
// synthesized and proofread by a transcription model, and the accepted audio
// is accumulated into a single waveform with millisecond chapter marks.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/book-expert/logger"
	"github.com/google/uuid"

	"github.com/book-expert/audiobook-service/internal/audio"
	"github.com/book-expert/audiobook-service/internal/core"
	"github.com/book-expert/audiobook-service/internal/text"
)

// Defaults for the verification loop.
const (
	DefaultMaxAttempts         = 3
	DefaultSimilarityThreshold = 0.85
)

const (
	filePermissions = 0o600
	dirPermissions  = 0o750
)

// Static errors.
var (
	ErrNoSynthesizer = errors.New("synthesizer cannot be nil")
	ErrNoTranscriber = errors.New("transcriber cannot be nil")
	ErrAllAttemptsFailed = errors.New(
		"all synthesis attempts failed without producing audio",
	)
)

// Options configures a Builder. Zero fields fall back to defaults.
type Options struct {
	// Voice holds the fixed voice parameters used for every chunk.
	Voice core.VoiceConfig

	// MaxChunkLength bounds the character length of one synthesis unit.
	MaxChunkLength int

	// MaxAttempts bounds synthesis invocations per chunk.
	MaxAttempts int

	// SimilarityThreshold is the minimum transcript similarity for a
	// chunk to be accepted without further retries.
	SimilarityThreshold float64

	// WorkDir holds the transient per-attempt WAV artifacts. Defaults to
	// the system temp directory.
	WorkDir string
}

// ChunkResult reports the outcome of synthesizing one text chunk.
type ChunkResult struct {
	// Audio is the decoded audio kept for this chunk: the accepted
	// attempt's audio, or the last attempt's audio as fallback.
	Audio audio.Segment

	// Transcript is what the transcriber heard on the kept attempt.
	Transcript string

	// Similarity is the measured score of the kept attempt.
	Similarity float64

	// Attempts counts synthesis invocations made for this chunk.
	Attempts int

	// Accepted reports whether the kept audio met the threshold.
	Accepted bool
}

// Compile-time collaborator check.
var _ core.AudiobookBuilder = (*Builder)(nil)

// Builder drives the synthesis-verification loop over ordered chapters.
// Chapters are processed strictly in document order and chunks strictly in
// segmentation order, since audio order is the narration order.
type Builder struct {
	synthesizer core.Synthesizer
	transcriber core.Transcriber
	normalizer  *text.Normalizer
	opts        Options
	log         *logger.Logger
}

// New creates a Builder around the injected synthesis and transcription
// collaborators. The caller owns the collaborators and disposes of them once
// per process run.
func New(
	synthesizer core.Synthesizer,
	transcriber core.Transcriber,
	opts Options,
	log *logger.Logger,
) (*Builder, error) {
	if synthesizer == nil {
		return nil, ErrNoSynthesizer
	}

	if transcriber == nil {
		return nil, ErrNoTranscriber
	}

	if opts.MaxChunkLength <= 0 {
		opts.MaxChunkLength = text.DefaultMaxChunkLength
	}

	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}

	if opts.SimilarityThreshold <= 0 {
		opts.SimilarityThreshold = DefaultSimilarityThreshold
	}

	if opts.WorkDir == "" {
		opts.WorkDir = os.TempDir()
	}

	dirErr := os.MkdirAll(opts.WorkDir, dirPermissions)
	if dirErr != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", dirErr)
	}

	return &Builder{
		synthesizer: synthesizer,
		transcriber: transcriber,
		normalizer:  text.NewNormalizer(),
		opts:        opts,
		log:         log,
	}, nil
}

// Build synthesizes every non-empty chapter in order and returns the full
// waveform together with one contiguous chapter mark per narrated chapter.
// Chapters with no non-blank content are skipped and contribute neither
// audio nor a mark.
func (b *Builder) Build(
	ctx context.Context,
	chapters []core.ChapterRecord,
) (audio.Segment, []core.ChapterMark, error) {
	var full audio.Segment

	marks := make([]core.ChapterMark, 0, len(chapters))

	for _, chapter := range chapters {
		chapterText := strings.TrimSpace(strings.Join(chapter.Content, " "))
		if chapterText == "" {
			b.log.Info("Skipping chapter %q: no content", chapter.Title)

			continue
		}

		chapterText = b.normalizer.Normalize(chapterText)
		chunks := text.Segment(chapterText, b.opts.MaxChunkLength)

		if len(chunks) == 0 {
			b.log.Info("Skipping chapter %q: no narratable text", chapter.Title)

			continue
		}

		chapterAudio, err := b.buildChapter(ctx, chapter.Title, chunks)
		if err != nil {
			return audio.Segment{}, nil, fmt.Errorf(
				"chapter %q: %w", chapter.Title, err,
			)
		}

		startMS := full.DurationMS()

		full, err = full.Append(chapterAudio)
		if err != nil {
			return audio.Segment{}, nil, fmt.Errorf(
				"failed to append chapter %q audio: %w", chapter.Title, err,
			)
		}

		marks = append(marks, core.ChapterMark{
			Title:   chapter.Title,
			StartMS: startMS,
			EndMS:   full.DurationMS(),
		})

		b.log.Info(
			"Chapter %q narrated: %d chunks, %d ms",
			chapter.Title, len(chunks), full.DurationMS()-startMS,
		)
	}

	return full, marks, nil
}

// buildChapter runs the verification loop over every chunk of one chapter,
// in segmentation order, and concatenates the kept audio.
func (b *Builder) buildChapter(
	ctx context.Context,
	title string,
	chunks []string,
) (audio.Segment, error) {
	var chapterAudio audio.Segment

	for chunkIndex, chunk := range chunks {
		result, err := b.SynthesizeChunk(ctx, chunk)
		if err != nil {
			return audio.Segment{}, fmt.Errorf(
				"chunk %d: %w", chunkIndex, err,
			)
		}

		if result.Accepted {
			b.log.Info(
				"Chunk %d/%d of %q accepted (similarity %.2f, attempt %d)",
				chunkIndex+1, len(chunks), title,
				result.Similarity, result.Attempts,
			)
		} else {
			b.log.Warn(
				"Chunk %d/%d of %q kept below-threshold audio after %d attempts (similarity %.2f)",
				chunkIndex+1, len(chunks), title,
				result.Attempts, result.Similarity,
			)
		}

		chapterAudio, err = chapterAudio.Append(result.Audio)
		if err != nil {
			return audio.Segment{}, fmt.Errorf(
				"failed to append chunk %d audio: %w", chunkIndex, err,
			)
		}
	}

	return chapterAudio, nil
}

// SynthesizeChunk drives the synthesize-transcribe-compare loop for a single
// chunk. It performs at most MaxAttempts synthesis invocations: the first
// attempt meeting the similarity threshold is accepted immediately; when the
// budget is exhausted, the last attempt that produced audio is kept as
// fallback with Accepted set to false. Only when no attempt produced audio
// at all does the chunk fail with an error.
func (b *Builder) SynthesizeChunk(ctx context.Context, chunk string) (ChunkResult, error) {
	var last ChunkResult

	haveAudio := false

	for attempt := 1; attempt <= b.opts.MaxAttempts; attempt++ {
		ctxErr := ctx.Err()
		if ctxErr != nil {
			return ChunkResult{}, fmt.Errorf("chunk synthesis aborted: %w", ctxErr)
		}

		outcome, err := b.attempt(ctx, chunk)
		if err != nil {
			b.log.Warn("Synthesis attempt %d failed: %v", attempt, err)
			last.Attempts = attempt

			continue
		}

		outcome.Attempts = attempt
		last = outcome
		haveAudio = true

		if outcome.Accepted {
			return outcome, nil
		}

		b.log.Info(
			"Attempt %d below threshold: similarity %.2f < %.2f",
			attempt, outcome.Similarity, b.opts.SimilarityThreshold,
		)
	}

	if !haveAudio {
		return ChunkResult{}, fmt.Errorf(
			"%w after %d attempts", ErrAllAttemptsFailed, b.opts.MaxAttempts,
		)
	}

	return last, nil
}

// attempt performs one synthesize-transcribe-compare round. The transient
// WAV artifact written for the transcriber is removed on every exit path.
func (b *Builder) attempt(ctx context.Context, chunk string) (ChunkResult, error) {
	wavData, err := b.synthesizer.Synthesize(ctx, chunk, b.opts.Voice)
	if err != nil {
		return ChunkResult{}, fmt.Errorf("synthesis failed: %w", err)
	}

	segment, err := audio.DecodeWAV(wavData)
	if err != nil {
		return ChunkResult{}, fmt.Errorf("failed to decode synthesized audio: %w", err)
	}

	artifactPath := filepath.Join(b.opts.WorkDir, "chunk-"+uuid.NewString()+".wav")

	err = os.WriteFile(artifactPath, wavData, filePermissions)
	if err != nil {
		return ChunkResult{}, fmt.Errorf("failed to write attempt artifact: %w", err)
	}

	defer func() {
		removeErr := os.Remove(artifactPath)
		if removeErr != nil {
			b.log.Warn(
				"Failed to remove attempt artifact '%s': %v",
				artifactPath, removeErr,
			)
		}
	}()

	transcript, err := b.transcriber.Transcribe(ctx, artifactPath)
	if err != nil {
		return ChunkResult{}, fmt.Errorf("transcription failed: %w", err)
	}

	similarity := text.Similarity(chunk, transcript)

	return ChunkResult{
		Audio:      segment,
		Transcript: transcript,
		Similarity: similarity,
		Attempts:   0,
		Accepted:   similarity >= b.opts.SimilarityThreshold,
	}, nil
}
