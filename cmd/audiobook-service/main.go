// main package for the audiobook-service
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"

	"github.com/book-expert/audiobook-service/internal/config"
	"github.com/book-expert/audiobook-service/internal/core"
	"github.com/book-expert/audiobook-service/internal/export"
	"github.com/book-expert/audiobook-service/internal/objectstore"
	"github.com/book-expert/audiobook-service/internal/pipeline"
	"github.com/book-expert/audiobook-service/internal/tts"
	"github.com/book-expert/audiobook-service/internal/whisper"
	"github.com/book-expert/audiobook-service/internal/worker"
)

const defaultTTSTimeout = 5 * time.Minute

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "audiobook-service.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

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

	if cfg.Whisper.TimeoutSeconds > 0 {
		whisperOpts = append(
			whisperOpts,
			whisper.WithTimeout(time.Duration(cfg.Whisper.TimeoutSeconds)*time.Second),
		)
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

func run() error {
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	batchStore, err := objectstore.New(jetstreamContext, cfg.NATS.BatchObjectStoreBucket)
	if err != nil {
		return fmt.Errorf("failed to create batch object store: %w", err)
	}

	audiobookStore, err := objectstore.New(jetstreamContext, cfg.NATS.AudiobookObjectStoreBucket)
	if err != nil {
		return fmt.Errorf("failed to create audiobook object store: %w", err)
	}

	builder, err := buildPipeline(cfg, finalLog)
	if err != nil {
		return err
	}

	exporter, err := export.New(cfg.FFmpeg.Path, cfg.Pipeline.WorkDir, finalLog)
	if err != nil {
		return fmt.Errorf("failed to create exporter: %w", err)
	}

	natsWorker, err := worker.NewNatsWorker(
		natsConnection,
		cfg.NATS.AudiobookRequestedSubject,
		batchStore,
		audiobookStore,
		builder,
		exporter,
		cfg.Pipeline.WorkDir,
		finalLog,
	)
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	finalLog.System(
		"Audiobook-Service successfully initialized. Listening for jobs on subject: %s",
		cfg.NATS.AudiobookRequestedSubject,
	)

	err = natsWorker.Run(ctx)
	if err != nil {
		return fmt.Errorf("worker stopped with error: %w", err)
	}

	return nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
