package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/leejason2025/audiostudio/model"
)

// Store persists processing jobs. Implementations must enforce the job
// status machine: an update that carries a status is rejected with
// ErrInvalidTransition unless model.CanTransition allows the edge.
type Store interface {
	// Create inserts a new pending job for the uploaded filename and
	// returns it with a generated ID.
	Create(ctx context.Context, filename string) (*model.Job, error)

	// Get returns the job with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*model.Job, error)

	// Update atomically applies the non-nil fields of upd and returns
	// the resulting job. Untouched fields are preserved.
	Update(ctx context.Context, id string, upd JobUpdate) (*model.Job, error)

	// Delete removes the job, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Close releases any underlying resources.
	Close()
}

// JobUpdate is a partial update applied to a stored job. Nil fields are
// left untouched.
type JobUpdate struct {
	Status        *model.Status
	Transcription *string
	Summary       *string
	ErrorMessage  *string
}

// MarkProcessing moves a job from pending to processing.
func MarkProcessing() JobUpdate {
	return JobUpdate{Status: statusPtr(model.StatusProcessing)}
}

// SetTranscription records the transcript without changing status.
func SetTranscription(text string) JobUpdate {
	return JobUpdate{Transcription: strPtr(text)}
}

// MarkCompleted moves a job to completed with its summary.
func MarkCompleted(summary string) JobUpdate {
	return JobUpdate{
		Status:  statusPtr(model.StatusCompleted),
		Summary: strPtr(summary),
	}
}

// MarkFailed moves a job to failed with the reason shown to clients.
func MarkFailed(reason string) JobUpdate {
	return JobUpdate{
		Status:       statusPtr(model.StatusFailed),
		ErrorMessage: strPtr(reason),
	}
}

func statusPtr(s model.Status) *model.Status {
	return &s
}

func strPtr(s string) *string {
	return &s
}

// MemoryStore is an in-memory job store for single-process deployments.
// Jobs are lost on restart.
type MemoryStore struct {
	jobs    map[string]*model.Job
	mu      sync.RWMutex
	maxJobs int // Maximum jobs to keep, 0 = unlimited
}

// NewMemoryStore creates a memory store that keeps at most maxJobs jobs,
// evicting the oldest when the limit is exceeded. maxJobs <= 0 means
// unlimited.
func NewMemoryStore(maxJobs int) *MemoryStore {
	if maxJobs < 0 {
		maxJobs = 0
	}
	return &MemoryStore{
		jobs:    make(map[string]*model.Job),
		maxJobs: maxJobs,
	}
}

func (s *MemoryStore) Create(ctx context.Context, filename string) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	job := &model.Job{
		ID:        uuid.New().String(),
		Filename:  filename,
		Status:    model.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.jobs[job.ID] = job

	// Cleanup if exceeds max
	s.cleanupIfNeeded()

	return cloneJob(job), nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneJob(job), nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, upd JobUpdate) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}

	if upd.Status != nil && !model.CanTransition(job.Status, *upd.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, job.Status, *upd.Status)
	}

	if upd.Status != nil {
		job.Status = *upd.Status
	}
	if upd.Transcription != nil {
		job.Transcription = cloneString(upd.Transcription)
	}
	if upd.Summary != nil {
		job.Summary = cloneString(upd.Summary)
	}
	if upd.ErrorMessage != nil {
		job.ErrorMessage = cloneString(upd.ErrorMessage)
	}
	job.UpdatedAt = time.Now().UTC()

	return cloneJob(job), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return ErrNotFound
	}
	delete(s.jobs, id)
	return nil
}

// Count returns the number of jobs in the store.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

func (s *MemoryStore) Close() {}

// cleanupIfNeeded removes oldest jobs if store exceeds maxJobs
// Must be called with lock held
func (s *MemoryStore) cleanupIfNeeded() {
	if s.maxJobs <= 0 {
		return // Unlimited
	}

	if len(s.jobs) <= s.maxJobs {
		return
	}

	// Sort jobs by creation time
	jobs := make([]*model.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})

	// Remove oldest jobs
	removeCount := len(jobs) - s.maxJobs
	for i := 0; i < removeCount; i++ {
		slog.Info("auto-cleaning old job",
			"job_id", jobs[i].ID,
			"created_at", jobs[i].CreatedAt,
		)
		delete(s.jobs, jobs[i].ID)
	}
}

// Clones guard against callers mutating stored state after release of
// the lock.
func cloneJob(j *model.Job) *model.Job {
	out := *j
	out.Transcription = cloneString(j.Transcription)
	out.Summary = cloneString(j.Summary)
	out.ErrorMessage = cloneString(j.ErrorMessage)
	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
