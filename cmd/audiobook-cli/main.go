// main package for the audiobook command-line client. It narrates chapter
// batch files from a local directory into M4B audiobooks without the NATS
// service environment.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/book-expert/logger"

	"github.com/book-expert/audiobook-service/internal/config"
	"github.com/book-expert/audiobook-service/internal/core"
	"github.com/book-expert/audiobook-service/internal/export"
	"github.com/book-expert/audiobook-service/internal/extract"
	"github.com/book-expert/audiobook-service/internal/pipeline"
	"github.com/book-expert/audiobook-service/internal/tts"
	"github.com/book-expert/audiobook-service/internal/whisper"
)

// Flag names.
const (
	flagInput   = "input"
	flagOutput  = "output"
	flagConfig  = "config"
	flagVerbose = "verbose"
)

// Flag descriptions.
const (
	flagInputDesc   = "Directory containing chapter batch JSON files"
	flagOutputDesc  = "Directory for finished audiobooks"
	flagConfigDesc  = "Path to the TOML configuration file"
	flagVerboseDesc = "Enable verbose logging"
)

// Error and log messages.
const (
	errFailedToLoadConfig  = "Failed to load configuration: %v"
	errFailedToInitLogger  = "Failed to initialize logger: %v"
	errHealthCheckFailed   = "TTS service is not healthy: %v"
	logServiceHealthy      = "TTS service is healthy"
	logProcessingBatch     = "Processing batch: %s"
	logSkippingExisting    = "Skipping %s: audiobook already exists"
	logBatchFailed         = "Failed to process batch %s: %v"
	logGeneratedAudiobook  = "Generated audiobook: %s"
	logAllBatchesProcessed = "Processed %d batches (%d failed)"
)

// File names.
const (
	logFileNameDefault = "audiobook-cli.log"
	logFileNameVerbose = "audiobook-cli-verbose.log"
	batchFileSuffix    = ".json"
	audiobookSuffix    = ".m4b"
)

const defaultTTSTimeout = 5 * time.Minute

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	input   string
	output  string
	config  string
	verbose bool
}

func parseFlags() appFlags {
	var flags appFlags

	flag.StringVar(&flags.input, flagInput, ".", flagInputDesc)
	flag.StringVar(&flags.output, flagOutput, ".", flagOutputDesc)
	flag.StringVar(&flags.config, flagConfig, "project.toml", flagConfigDesc)
	flag.BoolVar(&flags.verbose, flagVerbose, false, flagVerboseDesc)
	flag.Parse()

	return flags
}

// buildPipeline wires the synthesis and transcription clients into a
// narration pipeline from the loaded configuration.
func buildPipeline(cfg *config.Config, log *logger.Logger) (*pipeline.Builder, error) {
	ttsTimeout := defaultTTSTimeout
	if cfg.TTS.TimeoutSeconds > 0 {
		ttsTimeout = time.Duration(cfg.TTS.TimeoutSeconds) * time.Second
	}

	synthesizer := tts.NewClient(cfg.TTS.BaseURL, ttsTimeout)

	whisperOpts := []whisper.Option{
		whisper.WithLanguage(cfg.Whisper.Language),
	}

	if cfg.Whisper.BaseURL != "" {
		whisperOpts = append(whisperOpts, whisper.WithBaseURL(cfg.Whisper.BaseURL))
	}

	if cfg.Whisper.Model != "" {
		whisperOpts = append(whisperOpts, whisper.WithModel(cfg.Whisper.Model))
	}

	transcriber, err := whisper.NewClientFromEnv(whisperOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcription client: %w", err)
	}

	builder, err := pipeline.New(synthesizer, transcriber, pipeline.Options{
		Voice: core.VoiceConfig{
			Voice:       cfg.TTS.Voice,
			Language:    cfg.TTS.Language,
			Temperature: cfg.TTS.Temperature,
		},
		MaxChunkLength:      cfg.Pipeline.MaxChunkLength,
		MaxAttempts:         cfg.Pipeline.MaxAttempts,
		SimilarityThreshold: cfg.Pipeline.SimilarityThreshold,
		WorkDir:             cfg.Pipeline.WorkDir,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline builder: %w", err)
	}

	return builder, nil
}

// processBatch narrates one chapter batch file into an M4B next to the
// output directory.
func processBatch(
	ctx context.Context,
	builder *pipeline.Builder,
	exporter *export.Exporter,
	batchPath, outputPath string,
) error {
	chapters, err := extract.ReadBatch(batchPath)
	if err != nil {
		return fmt.Errorf("failed to read batch: %w", err)
	}

	wave, marks, err := builder.Build(ctx, chapters)
	if err != nil {
		return fmt.Errorf("failed to build audiobook: %w", err)
	}

	err = exporter.Export(ctx, wave, marks, outputPath)
	if err != nil {
		return fmt.Errorf("failed to export audiobook: %w", err)
	}

	return nil
}

func run() error {
	flags := parseFlags()

	cfg, err := config.LoadFile(flags.config)
	if err != nil {
		return fmt.Errorf(errFailedToLoadConfig, err)
	}

	logFileName := logFileNameDefault
	if flags.verbose {
		logFileName = logFileNameVerbose
	}

	log, err := logger.New(cfg.Paths.BaseLogsDir, logFileName)
	if err != nil {
		return fmt.Errorf(errFailedToInitLogger, err)
	}

	defer func() {
		closeErr := log.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing logger: %v\n", closeErr)
		}
	}()

	ctx := context.Background()

	ttsTimeout := defaultTTSTimeout
	if cfg.TTS.TimeoutSeconds > 0 {
		ttsTimeout = time.Duration(cfg.TTS.TimeoutSeconds) * time.Second
	}

	healthErr := tts.NewClient(cfg.TTS.BaseURL, ttsTimeout).HealthCheck(ctx)
	if healthErr != nil {
		return fmt.Errorf(errHealthCheckFailed, healthErr)
	}

	log.Info(logServiceHealthy)

	builder, err := buildPipeline(cfg, log)
	if err != nil {
		return err
	}

	exporter, err := export.New(cfg.FFmpeg.Path, cfg.Pipeline.WorkDir, log)
	if err != nil {
		return fmt.Errorf("failed to create exporter: %w", err)
	}

	batchPaths, err := filepath.Glob(filepath.Join(flags.input, "*"+batchFileSuffix))
	if err != nil {
		return fmt.Errorf("failed to scan input directory: %w", err)
	}

	processed := 0
	failed := 0

	for _, batchPath := range batchPaths {
		stem := strings.TrimSuffix(filepath.Base(batchPath), batchFileSuffix)
		outputPath := filepath.Join(flags.output, stem+audiobookSuffix)

		_, statErr := os.Stat(outputPath)
		if statErr == nil {
			log.Info(logSkippingExisting, batchPath)

			continue
		}

		log.Info(logProcessingBatch, batchPath)

		processErr := processBatch(ctx, builder, exporter, batchPath, outputPath)
		if processErr != nil {
			log.Error(logBatchFailed, batchPath, processErr)

			failed++

			continue
		}

		log.Info(logGeneratedAudiobook, outputPath)

		processed++
	}

	log.Info(logAllBatchesProcessed, processed, failed)

	return nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "audiobook-cli: %v\n", err)
		os.Exit(1)
	}
}
