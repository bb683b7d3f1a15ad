package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/cuetext/internal/config"
	"github.com/JonMunkholm/cuetext/internal/jobs"
	"github.com/JonMunkholm/cuetext/internal/logging"
)

// Service provides the conversion workflow shared by the web server and the CLI.
type Service struct {
	cfg     config.ConvertConfig
	layout  *jobs.Layout
	store   jobs.Store
	limiter *Limiter

	mu       sync.RWMutex
	backends map[string]BackendFactory
}

// Request is one conversion submitted to the service.
type Request struct {
	Pipeline string
	FileName string
	File     io.Reader
	Options  Options
}

// Outcome is a finished conversion.
type Outcome struct {
	JobID    string  `json:"job_id"`
	Pipeline string  `json:"pipeline"`
	Backend  string  `json:"backend"`
	Result   *Result `json:"result"`
}

// NewService creates a new Service. A nil store keeps no job history beyond
// the default in-memory one.
func NewService(cfg config.ConvertConfig, layout *jobs.Layout, store jobs.Store) *Service {
	if store == nil {
		store = jobs.NewMemoryStore(0)
	}
	return &Service{
		cfg:      cfg,
		layout:   layout,
		store:    store,
		limiter:  NewLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
		backends: make(map[string]BackendFactory),
	}
}

// RegisterBackend makes an alternative backend selectable through
// ConvertConfig.Backend.
func (s *Service) RegisterBackend(name string, f BackendFactory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backends[strings.ToLower(name)] = f
}

// Pipelines returns the registered pipelines.
func (s *Service) Pipelines() []Pipeline {
	return All()
}

// BackendName returns the backend conversions currently run on.
func (s *Service) BackendName() string {
	if s.cfg.NativeBackend() {
		return config.BackendNative
	}
	return s.cfg.Backend
}

func (s *Service) engine(p Pipeline) (Engine, error) {
	if s.cfg.NativeBackend() {
		return NativeEngine{Pipeline: p}, nil
	}

	s.mu.RLock()
	f, ok := s.backends[s.cfg.Backend]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: backend %q is not available", ErrBackendFailed, s.cfg.Backend)
	}
	return f(p), nil
}

// Process runs a conversion in its own job directory and records it in the
// job history. Failed conversions are recorded too.
func (s *Service) Process(ctx context.Context, req Request) (*Outcome, error) {
	p, ok := Get(req.Pipeline)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPipeline, req.Pipeline)
	}
	if req.File == nil {
		return nil, ErrNoFile
	}

	eng, err := s.engine(p)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	dirs, err := s.layout.Create()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutputWriteFailed, err)
	}

	log := logging.WithFields(ctx, "job_id", dirs.ID, "pipeline", p.Key, "backend", s.BackendName())
	start := time.Now()

	job := jobs.Job{
		ID:        dirs.ID,
		Pipeline:  p.Key,
		Backend:   s.BackendName(),
		FileName:  jobs.SafeFileName(req.FileName, "input.xlsx"),
		ClientIP:  IPAddressFromContext(ctx),
		CreatedAt: start.UTC(),
	}

	result, err := s.run(ctx, eng, dirs, req)
	job.DurationMS = time.Since(start).Milliseconds()
	if err != nil {
		job.Status = jobs.StatusFailed
		job.Error = err.Error()
		log.Warn("conversion failed", "error", err, "duration_ms", job.DurationMS)
	} else {
		job.Status = jobs.StatusOK
		job.Lines = countLines(result.TextOutput)
		for _, a := range result.Attachments {
			job.Attachments = append(job.Attachments, a.Name)
		}
		log.Info("conversion completed",
			"lines", job.Lines,
			"attachments", len(job.Attachments),
			"duration_ms", job.DurationMS,
		)
	}

	// The job is recorded even when the client has gone away.
	if rerr := s.store.Record(context.WithoutCancel(ctx), job); rerr != nil {
		log.Error("record job failed", "error", rerr)
	}

	if err != nil {
		return nil, err
	}
	return &Outcome{JobID: dirs.ID, Pipeline: p.Key, Backend: job.Backend, Result: result}, nil
}

func (s *Service) run(ctx context.Context, eng Engine, dirs jobs.Dirs, req Request) (*Result, error) {
	path, err := s.layout.SaveUpload(dirs, req.FileName, req.File)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutputWriteFailed, err)
	}

	return eng.Convert(ctx, Input{
		Path:      path,
		Options:   req.Options,
		OutputDir: dirs.OutputDir,
	})
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	return strings.Count(text, "\n") + 1
}

// OutputFile returns the path of a generated file of a job.
func (s *Service) OutputFile(jobID, name string) (string, error) {
	path, err := s.layout.OutputFile(jobID, name)
	if errors.Is(err, jobs.ErrInvalidName) || errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s/%s", ErrJobNotFound, jobID, name)
	}
	return path, err
}

// History returns the most recent jobs, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]jobs.Job, error) {
	return s.store.Recent(ctx, limit)
}

// Job returns a single job from the history.
func (s *Service) Job(ctx context.Context, id string) (jobs.Job, error) {
	job, err := s.store.Get(ctx, id)
	if errors.Is(err, jobs.ErrNotFound) {
		return jobs.Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return job, err
}

// LimiterStatus reports conversion slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForConversions blocks until running conversions finish or ctx is done.
func (s *Service) WaitForConversions(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
