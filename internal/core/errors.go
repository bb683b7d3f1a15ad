package core

import (
	"errors"

	"github.com/JonMunkholm/cuetext/internal/sheet"
)

// Fatal conversion errors. Only these cross the engine boundary; every other
// data problem is absorbed by the engines as blank fields or skipped rows.
var (
	// ErrEmptyWorkbook means no sheet yielded a usable row.
	ErrEmptyWorkbook = sheet.ErrEmptyWorkbook

	// ErrUnreadableWorkbook means the input is not a readable spreadsheet.
	ErrUnreadableWorkbook = sheet.ErrUnreadableWorkbook

	// ErrOutputWriteFailed means the output directory or file could not be written.
	ErrOutputWriteFailed = errors.New("output write failed")

	// ErrBackendFailed means an external conversion backend failed or timed out.
	ErrBackendFailed = errors.New("conversion backend failed")
)

// Service-level errors.
var (
	ErrUnknownPipeline = errors.New("unknown pipeline")
	ErrNoFile          = errors.New("no file provided")
	ErrJobNotFound     = errors.New("job not found")
)
