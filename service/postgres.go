package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/leejason2025/audiostudio/model"
)

// PostgresStore persists jobs in PostgreSQL so records survive process
// restarts and can be shared between the API server and workers.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)
var _ Store = (*MemoryStore)(nil)

// NewPostgresStore connects to the database, verifies the connection and
// creates the jobs table if it does not exist yet.
func NewPostgresStore(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return store, nil
}

const createJobsTable = `
CREATE TABLE IF NOT EXISTS processing_jobs (
	id            TEXT PRIMARY KEY,
	filename      TEXT NOT NULL,
	status        TEXT NOT NULL,
	transcription TEXT,
	summary       TEXT,
	error_message TEXT,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
)`

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createJobsTable); err != nil {
		return fmt.Errorf("failed to create jobs table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, filename string) (*model.Job, error) {
	query := `
		INSERT INTO processing_jobs (id, filename, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING id, filename, status, transcription, summary, error_message, created_at, updated_at
	`

	var job model.Job
	err := s.pool.QueryRow(ctx, query, uuid.New().String(), filename, string(model.StatusPending), time.Now().UTC()).Scan(
		&job.ID,
		&job.Filename,
		&job.Status,
		&job.Transcription,
		&job.Summary,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	return &job, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*model.Job, error) {
	query := `
		SELECT id, filename, status, transcription, summary, error_message, created_at, updated_at
		FROM processing_jobs
		WHERE id = $1
	`

	var job model.Job
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&job.ID,
		&job.Filename,
		&job.Status,
		&job.Transcription,
		&job.Summary,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

// Update applies the partial update in one statement. The status guard in
// the WHERE clause makes transition checks atomic under concurrent
// workers: the row only matches while the job is in a status the target
// can legally be reached from.
func (s *PostgresStore) Update(ctx context.Context, id string, upd JobUpdate) (*model.Job, error) {
	query := `
		UPDATE processing_jobs
		SET status        = COALESCE($2, status),
		    transcription = COALESCE($3, transcription),
		    summary       = COALESCE($4, summary),
		    error_message = COALESCE($5, error_message),
		    updated_at    = $6
		WHERE id = $1 AND ($2::text IS NULL OR status = ANY($7))
		RETURNING id, filename, status, transcription, summary, error_message, created_at, updated_at
	`

	var newStatus *string
	var allowedFrom []string
	if upd.Status != nil {
		v := string(*upd.Status)
		newStatus = &v
		allowedFrom = transitionSources(*upd.Status)
	}

	var job model.Job
	err := s.pool.QueryRow(ctx, query,
		id, newStatus, upd.Transcription, upd.Summary, upd.ErrorMessage, time.Now().UTC(), allowedFrom,
	).Scan(
		&job.ID,
		&job.Filename,
		&job.Status,
		&job.Transcription,
		&job.Summary,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err == nil {
		return &job, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to update job: %w", err)
	}

	// No row matched: either the job is gone or the status guard held.
	if upd.Status == nil {
		return nil, ErrNotFound
	}
	current, getErr := s.Get(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, *upd.Status)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM processing_jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

// transitionSources lists the statuses a job may currently be in for a
// move to target to be legal.
func transitionSources(target model.Status) []string {
	var sources []string
	for _, from := range model.AllStatuses {
		if model.CanTransition(from, target) {
			sources = append(sources, string(from))
		}
	}
	return sources
}
