// Package config provides the configuration structure for the
// audiobook-service.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
	toml "github.com/pelletier/go-toml/v2"
)

// Default pipeline values applied when the configuration leaves them unset.
const (
	defaultVoice               = "Damien Black"
	defaultLanguage            = "en"
	defaultTemperature         = 0.75
	defaultMaxChunkLength      = 250
	defaultMaxAttempts         = 3
	defaultSimilarityThreshold = 0.85
	defaultFFmpegPath          = "ffmpeg"
)

// Static errors.
var (
	ErrTTSBaseURLRequired = errors.New("tts base_url is required")
)

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL                        string `toml:"url"`
	AudiobookStreamName        string `toml:"audiobook_stream_name"`
	AudiobookConsumerName      string `toml:"audiobook_consumer_name"`
	AudiobookRequestedSubject  string `toml:"audiobook_requested_subject"`
	AudiobookCreatedSubject    string `toml:"audiobook_created_subject"`
	BatchObjectStoreBucket     string `toml:"batch_object_store_bucket"`
	AudiobookObjectStoreBucket string `toml:"audiobook_object_store_bucket"`
}

// TTSConfig holds the connection settings for the speech synthesis service.
type TTSConfig struct {
	BaseURL        string  `toml:"base_url"`
	Voice          string  `toml:"voice"`
	Language       string  `toml:"language"`
	Temperature    float64 `toml:"temperature"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// WhisperConfig holds the transcription settings for the verification loop.
type WhisperConfig struct {
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Language       string `toml:"language"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// PipelineConfig tunes segmentation and the verification loop.
type PipelineConfig struct {
	MaxChunkLength      int     `toml:"max_chunk_length"`
	MaxAttempts         int     `toml:"max_attempts"`
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	WorkDir             string  `toml:"work_dir"`
}

// FFmpegConfig holds the export tool settings.
type FFmpegConfig struct {
	Path           string `toml:"path"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
	InputDir    string `toml:"input_dir"`
	OutputDir   string `toml:"output_dir"`
}

// Config is the root configuration structure.
type Config struct {
	NATS     NATSConfig     `toml:"nats"`
	TTS      TTSConfig      `toml:"tts"`
	Whisper  WhisperConfig  `toml:"whisper"`
	Pipeline PipelineConfig `toml:"pipeline"`
	FFmpeg   FFmpegConfig   `toml:"ffmpeg"`
	Paths    PathsConfig    `toml:"paths"`
}

// Load loads the configuration for the audiobook-service through the shared
// configurator.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	cfg.applyDefaults()

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFile loads the configuration from a local TOML file, used by the
// command line tools that run outside the service environment.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from operator input.
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	var cfg Config

	err = toml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file: %w", err)
	}

	cfg.applyDefaults()

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults fills in the optional fields the configuration left unset.
func (c *Config) applyDefaults() {
	if c.TTS.Voice == "" {
		c.TTS.Voice = defaultVoice
	}

	if c.TTS.Language == "" {
		c.TTS.Language = defaultLanguage
	}

	if c.TTS.Temperature == 0 {
		c.TTS.Temperature = defaultTemperature
	}

	if c.Whisper.Language == "" {
		c.Whisper.Language = c.TTS.Language
	}

	if c.Pipeline.MaxChunkLength == 0 {
		c.Pipeline.MaxChunkLength = defaultMaxChunkLength
	}

	if c.Pipeline.MaxAttempts == 0 {
		c.Pipeline.MaxAttempts = defaultMaxAttempts
	}

	if c.Pipeline.SimilarityThreshold == 0 {
		c.Pipeline.SimilarityThreshold = defaultSimilarityThreshold
	}

	if c.FFmpeg.Path == "" {
		c.FFmpeg.Path = defaultFFmpegPath
	}
}

// Validate checks the fields without which the pipeline cannot run at all.
func (c *Config) Validate() error {
	if c.TTS.BaseURL == "" {
		return ErrTTSBaseURLRequired
	}

	return nil
}
