// Package worker provides a NATS worker that builds audiobooks from chapter
// batch jobs.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/book-expert/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/book-expert/audiobook-service/internal/core"
	"github.com/book-expert/audiobook-service/internal/extract"
)

// Building a full audiobook synthesizes and verifies every chunk of every
// chapter, so the per-job budget is generous.
const handleMessageTimeout = 2 * time.Hour

const dirPermissions = 0o750

var (
	// ErrBatchKeyEmpty indicates that the job named no chapter batch.
	ErrBatchKeyEmpty = errors.New("batch key cannot be empty")
)

// NatsWorker listens for audiobook jobs on a NATS subject and processes
// them: it downloads the chapter batch, narrates it, exports the M4B, and
// uploads the result.
type NatsWorker struct {
	natsConnection *nats.Conn
	subject        string
	batchStore     core.ObjectStore
	audiobookStore core.ObjectStore
	builder        core.AudiobookBuilder
	exporter       core.AudiobookExporter
	workDir        string
	log            *logger.Logger
}

// NewNatsWorker creates a new instance of a NATS worker.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subject string,
	batchStore core.ObjectStore,
	audiobookStore core.ObjectStore,
	builder core.AudiobookBuilder,
	exporter core.AudiobookExporter,
	workDir string,
	log *logger.Logger,
) (*NatsWorker, error) {
	if workDir == "" {
		workDir = os.TempDir()
	}

	dirErr := os.MkdirAll(workDir, dirPermissions)
	if dirErr != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", dirErr)
	}

	return &NatsWorker{
		natsConnection: natsConnection,
		subject:        subject,
		batchStore:     batchStore,
		audiobookStore: audiobookStore,
		builder:        builder,
		exporter:       exporter,
		workDir:        workDir,
		log:            log,
	}, nil
}

// Run starts the worker and begins listening for messages.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	event, err := w.parseAndValidateEvent(msg)
	if err != nil {
		w.log.Error("Failed to parse and validate event: %v", err)

		return
	}

	replyEvent, processErr := w.processJob(ctx, event)
	if processErr != nil {
		w.log.Error(
			"Failed to process audiobook job for workflow %s: %v",
			event.Header.WorkflowID, processErr,
		)

		return
	}

	err = w.publishReplyEvent(msg, replyEvent)
	if err != nil {
		w.log.Error(
			"Failed to publish reply event for workflow %s: %v",
			event.Header.WorkflowID, err,
		)
	}
}

// processJob handles the core logic: download the chapter batch, narrate it,
// export the container, and upload the finished audiobook.
func (w *NatsWorker) processJob(
	ctx context.Context,
	event *core.AudiobookRequestedEvent,
) (*core.AudiobookCreatedEvent, error) {
	batchData, err := w.batchStore.Download(ctx, event.BatchKey)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to download chapter batch '%s': %w", event.BatchKey, err,
		)
	}

	chapters, err := extract.DecodeBatch(batchData)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to decode chapter batch '%s': %w", event.BatchKey, err,
		)
	}

	wave, marks, err := w.builder.Build(ctx, chapters)
	if err != nil {
		return nil, fmt.Errorf("failed to build audiobook: %w", err)
	}

	outputPath := filepath.Join(w.workDir, uuid.NewString()+".m4b")

	err = w.exporter.Export(ctx, wave, marks, outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to export audiobook: %w", err)
	}

	defer func() {
		removeErr := os.Remove(outputPath)
		if removeErr != nil && !os.IsNotExist(removeErr) {
			w.log.Warn(
				"Failed to remove exported file '%s': %v",
				outputPath, removeErr,
			)
		}
	}()

	audiobookData, err := os.ReadFile(outputPath) // #nosec G304 -- path is built from a fresh UUID.
	if err != nil {
		return nil, fmt.Errorf("failed to read exported audiobook: %w", err)
	}

	audioKey := event.OutputName
	if audioKey == "" {
		audioKey = uuid.NewString() + ".m4b"
	}

	err = w.audiobookStore.Upload(ctx, audioKey, audiobookData)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to upload audiobook for key '%s': %w", audioKey, err,
		)
	}

	return &core.AudiobookCreatedEvent{
		Header:     event.Header,
		AudioKey:   audioKey,
		Chapters:   len(marks),
		DurationMS: wave.DurationMS(),
	}, nil
}

// publishReplyEvent marshals and responds with the AudiobookCreatedEvent.
func (w *NatsWorker) publishReplyEvent(
	msg *nats.Msg,
	replyEvent *core.AudiobookCreatedEvent,
) error {
	replyData, err := json.Marshal(replyEvent)
	if err != nil {
		return fmt.Errorf("failed to marshal reply event: %w", err)
	}

	err = msg.Respond(replyData)
	if err != nil {
		return fmt.Errorf("failed to publish reply event: %w", err)
	}

	return nil
}

func (w *NatsWorker) parseAndValidateEvent(msg *nats.Msg) (*core.AudiobookRequestedEvent, error) {
	var event core.AudiobookRequestedEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	if event.BatchKey == "" {
		return nil, ErrBatchKeyEmpty
	}

	return &event, nil
}
