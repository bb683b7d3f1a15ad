package jobs

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Store.Get for an unknown job.
var ErrNotFound = errors.New("job not found")

// Status values recorded for a job.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Job is one finished conversion as shown in the job history.
type Job struct {
	ID          string    `json:"id"`
	Pipeline    string    `json:"pipeline"`
	Backend     string    `json:"backend"`
	FileName    string    `json:"file_name"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	Lines       int       `json:"lines"`
	Attachments []string  `json:"attachments"`
	ClientIP    string    `json:"client_ip,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	DurationMS  int64     `json:"duration_ms"`
}

// Store records finished jobs. Implementations must be safe for concurrent use.
type Store interface {
	Record(ctx context.Context, job Job) error
	Get(ctx context.Context, id string) (Job, error)
	Recent(ctx context.Context, limit int) ([]Job, error)
}
