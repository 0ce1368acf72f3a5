package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/leejason2025/audiostudio/model"
	"github.com/leejason2025/audiostudio/pkg/logger"
	"github.com/leejason2025/audiostudio/queue"
	"github.com/leejason2025/audiostudio/service"
)

// Transcriber converts a staged audio file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Summarizer condenses a transcription into a summary.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// FileRemover deletes a staged upload.
type FileRemover interface {
	Remove(path string) error
}

// Archiver copies the audio file to long-term storage before removal.
type Archiver interface {
	StoreAudio(ctx context.Context, jobID, path string) error
}

// Processor drives one job through transcription and summarization. It is
// the only writer for a job once the job leaves pending.
type Processor struct {
	store       service.Store
	transcriber Transcriber
	summarizer  Summarizer
	files       FileRemover
	archiver    Archiver
}

// NewProcessor wires a processor. archiver may be nil when archival is not
// configured.
func NewProcessor(store service.Store, transcriber Transcriber, summarizer Summarizer, files FileRemover, archiver Archiver) *Processor {
	return &Processor{
		store:       store,
		transcriber: transcriber,
		summarizer:  summarizer,
		files:       files,
		archiver:    archiver,
	}
}

// Process runs the pipeline for one dispatched message. The returned error
// marks the task failed on the queue; the job record is always updated
// first, so queue state is observability only.
//
// A summarization failure does not fail the job: the transcription already
// succeeded, so the job completes with a placeholder summary instead of
// discarding the transcript.
func (p *Processor) Process(ctx context.Context, msg queue.Message) (err error) {
	ctx = logger.WithJobID(ctx, msg.JobID)

	job, err := p.store.Get(ctx, msg.JobID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			logger.Error(ctx, "job not found for processing")
			return fmt.Errorf("job %s not found", msg.JobID)
		}
		logger.Error(ctx, "failed to load job", "error", err)
		return fmt.Errorf("failed to load job: %w", err)
	}
	if job.Status != model.StatusPending {
		logger.Warn(ctx, "skipping job not in pending state", "status", string(job.Status))
		return nil
	}

	if _, err := p.store.Update(ctx, msg.JobID, service.MarkProcessing()); err != nil {
		// Either another worker claimed the job or the store is down. The
		// staged file stays put in both cases.
		logger.Error(ctx, "failed to mark job processing", "error", err)
		return fmt.Errorf("failed to mark job processing: %w", err)
	}
	logger.Info(ctx, "processing started", "filename", job.Filename)

	// Once processing has started the staged file is removed exactly once,
	// whatever the outcome. Deferred before the recover so it still runs
	// after a recovered panic.
	defer p.cleanup(ctx, msg)
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "panic while processing job", "panic", r)
			p.markFailed(ctx, msg.JobID, fmt.Sprintf("Audio processing failed: %v", r))
			err = fmt.Errorf("audio processing panicked: %v", r)
		}
	}()

	text, err := p.transcriber.Transcribe(ctx, msg.FilePath)
	if err != nil {
		reason := service.FailureMessage(err)
		logger.Error(ctx, "transcription failed", "error", err)
		p.markFailed(ctx, msg.JobID, reason)
		return fmt.Errorf("transcription failed: %w", err)
	}

	// Persist the transcription before summarization so status queries can
	// observe partial progress on long jobs.
	if _, err := p.store.Update(ctx, msg.JobID, service.SetTranscription(text)); err != nil {
		logger.Error(ctx, "failed to store transcription", "error", err)
		p.markFailed(ctx, msg.JobID, "Failed to store transcription")
		return fmt.Errorf("failed to store transcription: %w", err)
	}
	logger.Info(ctx, "transcription stored", "characters", len(text))

	summary, err := p.summarizer.Summarize(ctx, text)
	if err != nil {
		reason := service.FailureMessage(err)
		logger.Warn(ctx, "summarization failed, completing with transcription only", "error", err)
		summary = "Summary generation failed: " + reason
	}

	if _, err := p.store.Update(ctx, msg.JobID, service.MarkCompleted(summary)); err != nil {
		logger.Error(ctx, "failed to complete job", "error", err)
		p.markFailed(ctx, msg.JobID, "Failed to store summary")
		return fmt.Errorf("failed to complete job: %w", err)
	}

	logger.Info(ctx, "job completed")
	return nil
}

// markFailed records a terminal failure. A store error here leaves the job
// stuck in processing, which surfaces only in logs.
func (p *Processor) markFailed(ctx context.Context, jobID, reason string) {
	if _, err := p.store.Update(ctx, jobID, service.MarkFailed(reason)); err != nil {
		logger.Error(ctx, "failed to mark job failed", "error", err, "reason", reason)
	}
}

// cleanup archives and removes the staged audio file. Nothing here touches
// the job record.
func (p *Processor) cleanup(ctx context.Context, msg queue.Message) {
	if p.archiver != nil {
		if err := p.archiver.StoreAudio(ctx, msg.JobID, msg.FilePath); err != nil {
			logger.Warn(ctx, "failed to archive audio file", "error", err, "path", msg.FilePath)
		}
	}
	switch err := p.files.Remove(msg.FilePath); {
	case err == nil:
		logger.Debug(ctx, "removed staged audio file", "path", msg.FilePath)
	case errors.Is(err, service.ErrFileMissing):
		logger.Warn(ctx, "staged audio file already removed", "path", msg.FilePath)
	default:
		logger.Error(ctx, "failed to remove staged audio file", "error", err, "path", msg.FilePath)
	}
}
