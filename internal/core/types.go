package core

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Options carries per-conversion settings. Only "out_name" is interpreted by
// the engines; other keys (competition, match_date, extra form options) are
// passed through untouched.
type Options map[string]any

// OptOutName overrides the output file name.
const OptOutName = "out_name"

// String returns the option as a trimmed string, "" when absent.
func (o Options) String(key string) string {
	v, ok := o[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// OutName returns the out_name option or def when it is unset.
func (o Options) OutName(def string) string {
	if name := o.String(OptOutName); name != "" {
		return name
	}
	return def
}

// Attachment is one file produced by a conversion.
type Attachment struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Result is the shared output contract of every conversion engine.
type Result struct {
	TextOutput  string       `json:"text_output"`
	Attachments []Attachment `json:"attachments"`
}

// Input is what an engine converts. Data takes precedence over Path.
type Input struct {
	Path      string
	Data      []byte
	Options   Options
	OutputDir string
}

// Bytes returns the workbook bytes, reading Path when Data is unset.
func (in Input) Bytes() ([]byte, error) {
	if in.Data != nil {
		return in.Data, nil
	}
	data, err := os.ReadFile(in.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	}
	return data, nil
}

// Engine converts a workbook into packaged CUE text.
// Implementations: the native pipelines and the notebook backend.
type Engine interface {
	Convert(ctx context.Context, in Input) (*Result, error)
}

// BuildFunc turns workbook bytes into CUE text. It must not keep state
// between calls.
type BuildFunc func(data []byte) (string, error)

// Pipeline describes one registered conversion.
type Pipeline struct {
	Key            string // Form value selecting the pipeline ("A", "B")
	Label          string // Human-readable name
	DefaultOutName string // Output file name when out_name is not given
	Notebook       string // Notebook file name for the notebook backend
	Template       string // File name of the blank input workbook
	TemplateHeader []string
	Build          BuildFunc
}
