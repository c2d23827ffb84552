// Package core defines the shared types and collaborator interfaces for the
// audiobook service.
package core

import (
	"context"

	"github.com/book-expert/audiobook-service/internal/audio"
)

// ChapterRecord is one titled section of a source document, as produced by
// the extraction step. Content holds the chapter's text lines in reading
// order. Records are immutable once consumed by the pipeline.
type ChapterRecord struct {
	Title   string   `json:"chapter_title"`
	Content []string `json:"chapter_content"`
}

// ChapterMark records where one chapter's audio lives inside the final
// concatenated waveform, in milliseconds. Marks are contiguous: each chapter
// starts exactly where the previous one ended.
type ChapterMark struct {
	Title   string `json:"title"`
	StartMS int64  `json:"start_ms"`
	EndMS   int64  `json:"end_ms"`
}

// VoiceConfig holds the fixed voice parameters used for every chunk of a run.
type VoiceConfig struct {
	Voice       string
	Language    string
	Temperature float64
}

// Synthesizer converts one text chunk into WAV audio data. A returned error
// means the synthesis itself failed; low-quality-but-valid audio is not an
// error and is caught by the verification loop instead.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice VoiceConfig) ([]byte, error)
	HealthCheck(ctx context.Context) error
}

// Transcriber converts an audio file back into text. It is expected to return
// some text (possibly wrong) under normal operation.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// ObjectStore defines the interface for interacting with a key-value blob store.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
}

// AudiobookBuilder assembles ordered chapter records into a single waveform
// plus one chapter mark per non-empty chapter.
type AudiobookBuilder interface {
	Build(ctx context.Context, chapters []ChapterRecord) (audio.Segment, []ChapterMark, error)
}

// AudiobookExporter muxes a waveform and its chapter marks into the final
// container file at outputPath.
type AudiobookExporter interface {
	Export(ctx context.Context, wave audio.Segment, marks []ChapterMark, outputPath string) error
}
