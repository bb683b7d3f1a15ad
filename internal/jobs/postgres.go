package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createJobsTable = `
CREATE TABLE IF NOT EXISTS conversion_jobs (
	id          TEXT PRIMARY KEY,
	pipeline    TEXT NOT NULL,
	backend     TEXT NOT NULL,
	file_name   TEXT NOT NULL,
	status      TEXT NOT NULL,
	error       TEXT,
	lines       INTEGER NOT NULL DEFAULT 0,
	attachments TEXT[] NOT NULL DEFAULT '{}',
	client_ip   TEXT,
	created_at  TIMESTAMPTZ NOT NULL,
	duration_ms BIGINT NOT NULL DEFAULT 0
)`

const jobColumns = `id, pipeline, backend, file_name, status, error, lines, attachments, client_ip, created_at, duration_ms`

// PostgresStore persists the job history in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates the conversion_jobs table if it does not exist.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, createJobsTable); err != nil {
		return nil, fmt.Errorf("create conversion_jobs: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Record implements Store.
func (s *PostgresStore) Record(ctx context.Context, job Job) error {
	attachments := job.Attachments
	if attachments == nil {
		attachments = []string{}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO conversion_jobs (`+jobColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO UPDATE SET
		   status = EXCLUDED.status, error = EXCLUDED.error, lines = EXCLUDED.lines,
		   attachments = EXCLUDED.attachments, duration_ms = EXCLUDED.duration_ms`,
		job.ID, job.Pipeline, job.Backend, job.FileName, job.Status,
		toPgText(job.Error), job.Lines, attachments, toPgText(job.ClientIP),
		job.CreatedAt, job.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("record job %s: %w", job.ID, err)
	}
	return nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, id string) (Job, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM conversion_jobs WHERE id = $1`, id)
	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	return job, err
}

// Recent implements Store, newest first.
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM conversion_jobs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func scanJob(row pgx.Row) (Job, error) {
	var (
		job      Job
		errText  pgtype.Text
		clientIP pgtype.Text
	)
	err := row.Scan(&job.ID, &job.Pipeline, &job.Backend, &job.FileName, &job.Status,
		&errText, &job.Lines, &job.Attachments, &clientIP, &job.CreatedAt, &job.DurationMS)
	if err != nil {
		return Job{}, err
	}
	job.Error = errText.String
	job.ClientIP = clientIP.String
	return job, nil
}

// toPgText maps "" to NULL.
func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
