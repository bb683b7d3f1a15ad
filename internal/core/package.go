package core

// package.go writes engine text into the job's output directory and builds
// the shared result record.

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// NormalizeText converts CRLF and lone CR line endings to LF and replaces
// invalid UTF-8 with U+FFFD.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ToValidUTF8(s, "\uFFFD")
}

// Package writes text to dir/name and returns a result with the text for
// preview and a single attachment. name is reduced to its base name so an
// out_name option cannot escape dir. Every failure wraps ErrOutputWriteFailed.
func Package(text, dir, name string) (*Result, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: invalid output file name", ErrOutputWriteFailed)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrOutputWriteFailed, dir, err)
	}

	path, err := filepath.Abs(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutputWriteFailed, err)
	}

	text = NormalizeText(text)
	if err := writeFile(path, text); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutputWriteFailed, err)
	}

	return &Result{
		TextOutput:  text,
		Attachments: []Attachment{{Name: name, Path: path}},
	}, nil
}

func writeFile(path, text string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	_, err = f.WriteString(text)
	return err
}
