package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
)

// AsynqDispatcher enqueues processing tasks on a Redis broker.
type AsynqDispatcher struct {
	client *asynq.Client
}

var _ Dispatcher = (*AsynqDispatcher)(nil)

// NewAsynqDispatcher connects an asynq client to the broker at redisURL
// (e.g. redis://localhost:6379/0).
func NewAsynqDispatcher(redisURL string) (*AsynqDispatcher, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return &AsynqDispatcher{client: asynq.NewClient(opt)}, nil
}

// Dispatch enqueues msg as an audio:process task. Tasks run at most once:
// a failed attempt records its error on the job instead of retrying.
func (d *AsynqDispatcher) Dispatch(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode task payload: %w", err)
	}
	task := asynq.NewTask(TaskTypeProcessAudio, payload)
	if _, err := d.client.EnqueueContext(ctx, task, asynq.MaxRetry(0)); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// Close releases the client's broker connection.
func (d *AsynqDispatcher) Close() error {
	return d.client.Close()
}

// RunWorker consumes audio:process tasks from the broker at redisURL and runs
// handler for each, up to concurrency at a time. It blocks until ctx is
// cancelled or the server fails to start.
func RunWorker(ctx context.Context, redisURL string, concurrency int, handler Handler) error {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return fmt.Errorf("failed to parse redis url: %w", err)
	}

	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Logger:      slogAdapter{},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeProcessAudio, taskHandler(handler))

	go func() {
		<-ctx.Done()
		srv.Shutdown()
	}()

	slog.Info("worker started", "concurrency", concurrency, "task_type", TaskTypeProcessAudio)
	return srv.Run(mux)
}

// taskHandler decodes the broker payload and forwards it to handler.
func taskHandler(handler Handler) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		var msg Message
		if err := json.Unmarshal(t.Payload(), &msg); err != nil {
			return fmt.Errorf("failed to decode task payload: %w", err)
		}
		return handler(ctx, msg)
	}
}

// slogAdapter routes asynq's internal logging through slog.
type slogAdapter struct{}

func (slogAdapter) Debug(args ...any) { slog.Debug(fmt.Sprint(args...)) }
func (slogAdapter) Info(args ...any)  { slog.Info(fmt.Sprint(args...)) }
func (slogAdapter) Warn(args ...any)  { slog.Warn(fmt.Sprint(args...)) }
func (slogAdapter) Error(args ...any) { slog.Error(fmt.Sprint(args...)) }
func (slogAdapter) Fatal(args ...any) {
	slog.Error(fmt.Sprint(args...))
	os.Exit(1)
}
