// Package jobs manages per-job directories and the job history.
//
// Every conversion gets a short random ID and two directories:
// <uploads>/<id>/ for the uploaded workbook and <outputs>/<id>/ for the
// generated files. Distinct IDs never share a directory, so concurrent
// conversions never see each other's files.
package jobs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IDLength is the number of characters of a job ID.
const IDLength = 8

// ErrInvalidName is returned for job IDs or file names that would escape the
// job directory.
var ErrInvalidName = errors.New("invalid job or file name")

// NewID returns a short random job ID.
func NewID() string {
	return uuid.New().String()[:IDLength]
}

// ValidID reports whether id looks like an ID returned by NewID.
func ValidID(id string) bool {
	if len(id) != IDLength {
		return false
	}
	for _, r := range id {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return false
		}
	}
	return true
}

// Layout is the on-disk location of job directories.
type Layout struct {
	UploadsDir string
	OutputsDir string
}

// NewLayout creates both root directories if needed.
func NewLayout(uploadsDir, outputsDir string) (*Layout, error) {
	for _, dir := range []string{uploadsDir, outputsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return &Layout{UploadsDir: uploadsDir, OutputsDir: outputsDir}, nil
}

// Dirs are the directories owned by one job.
type Dirs struct {
	ID        string
	UploadDir string
	OutputDir string
}

// Create allocates a fresh job ID and its directories. The output directory
// is created with os.Mkdir, so an ID already on disk is never handed out twice.
func (l *Layout) Create() (Dirs, error) {
	var lastErr error
	for attempt := 0; attempt < 5; attempt++ {
		id := NewID()
		out := filepath.Join(l.OutputsDir, id)
		if err := os.Mkdir(out, 0o755); err != nil {
			lastErr = err
			if errors.Is(err, os.ErrExist) {
				continue
			}
			return Dirs{}, fmt.Errorf("create job dir: %w", err)
		}

		up := filepath.Join(l.UploadsDir, id)
		if err := os.MkdirAll(up, 0o755); err != nil {
			os.RemoveAll(out)
			return Dirs{}, fmt.Errorf("create upload dir: %w", err)
		}
		return Dirs{ID: id, UploadDir: up, OutputDir: out}, nil
	}
	return Dirs{}, fmt.Errorf("allocate job id: %w", lastErr)
}

// SafeFileName strips directories from an uploaded file name and falls back
// to def when nothing usable remains.
func SafeFileName(name, def string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == ".." || name == "" {
		return def
	}
	return name
}

// SaveUpload copies r into the job's upload directory and returns the path.
func (l *Layout) SaveUpload(d Dirs, name string, r io.Reader) (string, error) {
	path := filepath.Join(d.UploadDir, SafeFileName(name, "input.xlsx"))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	return path, nil
}

// OutputFile resolves a generated file of a job. It rejects names that would
// leave the job directory and returns os.ErrNotExist for missing files.
func (l *Layout) OutputFile(id, name string) (string, error) {
	if !ValidID(id) || name == "" || name != filepath.Base(name) || name == ".." {
		return "", ErrInvalidName
	}

	path := filepath.Join(l.OutputsDir, id, name)
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", os.ErrNotExist
	}
	return path, nil
}

// Sweep removes job directories last modified before cutoff from both roots.
// It returns the number of directories removed.
func (l *Layout) Sweep(cutoff time.Time) (int, error) {
	removed := 0
	var errs []error
	for _, root := range []string{l.UploadsDir, l.OutputsDir} {
		entries, err := os.ReadDir(root)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, e := range entries {
			if !e.IsDir() || !ValidID(e.Name()) {
				continue
			}
			info, err := e.Info()
			if err != nil || !info.ModTime().Before(cutoff) {
				continue
			}
			if err := os.RemoveAll(filepath.Join(root, e.Name())); err != nil {
				errs = append(errs, err)
				continue
			}
			removed++
		}
	}
	return removed, errors.Join(errs...)
}
