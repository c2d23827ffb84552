// Package audio provides PCM segment decoding, concatenation, and duration
// bookkeeping for the audiobook pipeline.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const msPerSecond = 1000

// Static errors.
var (
	ErrEmptyAudio     = errors.New("audio data is empty")
	ErrInvalidWAV     = errors.New("invalid WAV data")
	ErrFormatMismatch = errors.New("audio format mismatch")
)

// Segment holds decoded PCM samples for a stretch of narration audio.
// Samples are interleaved when Channels is greater than one. The zero value
// is an empty segment that adopts the format of the first segment appended
// to it.
type Segment struct {
	Samples    []int
	SampleRate int
	Channels   int
	BitDepth   int
}

// DecodeWAV decodes in-memory WAV data into a Segment.
func DecodeWAV(data []byte) (Segment, error) {
	if len(data) == 0 {
		return Segment{}, ErrEmptyAudio
	}

	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return Segment{}, ErrInvalidWAV
	}

	buffer, err := decoder.FullPCMBuffer()
	if err != nil {
		return Segment{}, fmt.Errorf("failed to decode PCM data: %w", err)
	}

	return Segment{
		Samples:    buffer.Data,
		SampleRate: buffer.Format.SampleRate,
		Channels:   buffer.Format.NumChannels,
		BitDepth:   int(decoder.BitDepth),
	}, nil
}

// DecodeWAVFile decodes a WAV file from disk into a Segment.
func DecodeWAVFile(path string) (Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Segment{}, fmt.Errorf("failed to read audio file: %w", err)
	}

	return DecodeWAV(data)
}

// Empty reports whether the segment carries no samples.
func (s Segment) Empty() bool {
	return len(s.Samples) == 0
}

// DurationMS returns the segment length in milliseconds.
func (s Segment) DurationMS() int64 {
	if s.SampleRate == 0 || s.Channels == 0 {
		return 0
	}

	frames := int64(len(s.Samples) / s.Channels)

	return frames * msPerSecond / int64(s.SampleRate)
}

// Append concatenates other onto s and returns the combined segment. An empty
// receiver adopts the format of other; otherwise both segments must share the
// same sample rate and channel count.
func (s Segment) Append(other Segment) (Segment, error) {
	if other.Empty() {
		return s, nil
	}

	if s.Empty() {
		return other, nil
	}

	if s.SampleRate != other.SampleRate || s.Channels != other.Channels {
		return Segment{}, fmt.Errorf(
			"%w: %d Hz/%d ch vs %d Hz/%d ch",
			ErrFormatMismatch,
			s.SampleRate, s.Channels,
			other.SampleRate, other.Channels,
		)
	}

	combined := make([]int, 0, len(s.Samples)+len(other.Samples))
	combined = append(combined, s.Samples...)
	combined = append(combined, other.Samples...)

	return Segment{
		Samples:    combined,
		SampleRate: s.SampleRate,
		Channels:   s.Channels,
		BitDepth:   s.BitDepth,
	}, nil
}

// WriteWAVFile writes the segment to path as a PCM WAV file.
func (s Segment) WriteWAVFile(path string) error {
	if s.Empty() {
		return ErrEmptyAudio
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create audio file: %w", err)
	}

	encoder := wav.NewEncoder(file, s.SampleRate, s.BitDepth, s.Channels, 1)

	buffer := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: s.Channels,
			SampleRate:  s.SampleRate,
		},
		Data:           s.Samples,
		SourceBitDepth: s.BitDepth,
	}

	writeErr := encoder.Write(buffer)

	closeErr := encoder.Close()
	fileErr := file.Close()

	if writeErr != nil {
		return fmt.Errorf("failed to write PCM data: %w", writeErr)
	}

	if closeErr != nil {
		return fmt.Errorf("failed to finalize WAV file: %w", closeErr)
	}

	if fileErr != nil {
		return fmt.Errorf("failed to close audio file: %w", fileErr)
	}

	return nil
}
