// Package notebook runs conversions through an external notebook executor.
//
// The notebook is treated as a black box: it reads INPUT_XLSX and writes its
// results into OUTPUT_DIR. Afterwards the runner collects the files it knows
// about and previews the first one.
package notebook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/cuetext/internal/config"
	"github.com/JonMunkholm/cuetext/internal/core"
	"github.com/JonMunkholm/cuetext/internal/logging"
)

// OutputNames are the files collected after a run, in preview order.
var OutputNames = []string{"codes.txt", "codes_pipeline_a.txt", "codes_pipeline_b.txt", "output.txt"}

const previewUnreadable = "(Kan preview niet lezen, maar bestanden zijn geproduceerd.)"

// waitDelay bounds how long a killed executor's children may keep its
// output pipes open.
const waitDelay = time.Second

// maxStderr is how much of the executor's stderr ends up in the error.
const maxStderr = 2048

// Runner executes one pipeline's notebook.
type Runner struct {
	Notebook string        // Path of the notebook file
	Command  []string      // Executor; the notebook path is appended
	Timeout  time.Duration // Upper bound for one run; the process is killed after it
}

// Factory returns a core.BackendFactory that maps each pipeline to its
// notebook in cfg.NotebooksDir.
func Factory(cfg config.ConvertConfig) core.BackendFactory {
	command := strings.Fields(cfg.NotebookCommand)
	return func(p core.Pipeline) core.Engine {
		return &Runner{
			Notebook: filepath.Join(cfg.NotebooksDir, p.Notebook),
			Command:  command,
			Timeout:  cfg.NotebookTimeout,
		}
	}
}

// Convert implements core.Engine. It is never retried; every failure wraps
// core.ErrBackendFailed.
func (r *Runner) Convert(ctx context.Context, in core.Input) (*core.Result, error) {
	if len(r.Command) == 0 {
		return nil, fmt.Errorf("%w: no notebook command configured", core.ErrBackendFailed)
	}
	if _, err := os.Stat(r.Notebook); err != nil {
		return nil, fmt.Errorf("%w: notebook %s: %v", core.ErrBackendFailed, r.Notebook, err)
	}

	if err := os.MkdirAll(in.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrOutputWriteFailed, err)
	}
	outDir, err := filepath.Abs(in.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrOutputWriteFailed, err)
	}

	inputPath, cleanup, err := inputFile(in)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if err := r.execute(ctx, inputPath, outDir); err != nil {
		return nil, err
	}
	return collect(outDir), nil
}

func (r *Runner) execute(ctx context.Context, inputPath, outDir string) error {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	args := append(append([]string{}, r.Command[1:]...), r.Notebook)
	cmd := exec.CommandContext(ctx, r.Command[0], args...)
	cmd.Env = append(os.Environ(), "INPUT_XLSX="+inputPath, "OUTPUT_DIR="+outDir)

	cmd.WaitDelay = waitDelay

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	log := logging.WithFields(ctx, "notebook", filepath.Base(r.Notebook))
	start := time.Now()
	err := cmd.Run()
	log.Debug("notebook finished", "duration_ms", time.Since(start).Milliseconds(), "error", err)

	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: notebook timed out after %s", core.ErrBackendFailed, r.Timeout)
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %v", core.ErrBackendFailed, ctx.Err())
	}
	return fmt.Errorf("%w: %v: %s", core.ErrBackendFailed, err, tail(stderr.String(), maxStderr))
}

// inputFile returns a path to the workbook, writing Data to a temporary file
// when the input has no path.
func inputFile(in core.Input) (string, func(), error) {
	if in.Data == nil {
		path, err := filepath.Abs(in.Path)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", core.ErrUnreadableWorkbook, err)
		}
		return path, func() {}, nil
	}

	f, err := os.CreateTemp("", "cueconv-*.xlsx")
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", core.ErrBackendFailed, err)
	}
	cleanup := func() { os.Remove(f.Name()) }

	if _, err := f.Write(in.Data); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("%w: %v", core.ErrBackendFailed, err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("%w: %v", core.ErrBackendFailed, err)
	}
	return f.Name(), cleanup, nil
}

func collect(outDir string) *core.Result {
	res := &core.Result{Attachments: []core.Attachment{}}
	for _, name := range OutputNames {
		path := filepath.Join(outDir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			res.Attachments = append(res.Attachments, core.Attachment{Name: name, Path: path})
		}
	}

	if len(res.Attachments) > 0 {
		data, err := os.ReadFile(res.Attachments[0].Path)
		if err != nil {
			res.TextOutput = previewUnreadable
		} else {
			res.TextOutput = core.NormalizeText(string(data))
		}
	}
	return res
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		return "..." + s[len(s)-n:]
	}
	return s
}
