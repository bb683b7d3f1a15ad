// Package sheet loads spreadsheet workbooks into plain string tables.
//
// Two shapes are produced from the same workbook:
//
//   - [Workbook.Normalized]: every worksheet's data rows concatenated in
//     workbook order, each row tagged with the sheet it came from.
//   - [Workbook.FirstNonEmpty]: a single worksheet with fully blank rows and
//     columns removed.
//
// The first non-blank row of every worksheet is treated as its header row.
// All cell values are whitespace-trimmed strings; blank cells are "".
package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrEmptyWorkbook is returned when no worksheet yields usable rows.
	ErrEmptyWorkbook = errors.New("empty workbook: no data rows found")

	// ErrUnreadableWorkbook is returned when the bytes are not a spreadsheet.
	ErrUnreadableWorkbook = errors.New("unreadable workbook")
)

// Grid is one worksheet as read from the file.
type Grid struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Workbook is an ordered, read-only collection of worksheets.
type Workbook struct {
	Sheets []Grid
}

// Open parses raw workbook bytes. The underlying file handle is released
// before Open returns, whether or not reading succeeded.
func Open(data []byte) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	}
	defer f.Close()

	wb := &Workbook{}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %v", ErrUnreadableWorkbook, name, err)
		}
		wb.Sheets = append(wb.Sheets, newGrid(name, rows))
	}
	return wb, nil
}

// newGrid splits raw rows into a header row and the data rows after it.
// Leading blank rows are skipped before the header is taken.
func newGrid(name string, raw [][]string) Grid {
	g := Grid{Name: name}

	start := 0
	for start < len(raw) && isBlankRow(raw[start]) {
		start++
	}
	if start == len(raw) {
		return g
	}

	g.Header = cleanRow(raw[start])
	for _, r := range raw[start+1:] {
		g.Rows = append(g.Rows, cleanRow(r))
	}
	return g
}

func cleanRow(r []string) []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

func isBlankRow(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// width is the widest of the header and all data rows.
func (g Grid) width() int {
	w := len(g.Header)
	for _, r := range g.Rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}
