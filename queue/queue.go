package queue

import "context"

// TaskTypeProcessAudio identifies the audio processing task on the broker.
const TaskTypeProcessAudio = "audio:process"

// Message is the payload handed from the upload path to a worker. It carries
// only identifiers; the worker loads job state from the store.
type Message struct {
	JobID    string `json:"job_id"`
	FilePath string `json:"file_path"`
}

// Handler consumes a dispatched message. A non-nil error marks the attempt
// as failed; neither driver retries.
type Handler func(ctx context.Context, msg Message) error

// Dispatcher hands messages to the processing backend. Implementations must
// not block on slow consumers: Dispatch either accepts the message or fails.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
	Close() error
}
