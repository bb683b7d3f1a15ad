package sheet

import (
	"fmt"
	"strings"
)

// Row is one data row together with the worksheet it came from.
// Sheet plays the role of the synthetic sheet-name column; keeping it out of
// Cells leaves positional column indexes untouched.
type Row struct {
	Sheet string
	Cells []string
}

// Table is a rectangular set of rows with header labels.
// Every row has exactly len(Columns) cells.
type Table struct {
	Columns []string
	Rows    []Row
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// Width returns the number of columns.
func (t *Table) Width() int { return len(t.Columns) }

// Cell returns the value at (row, col), or "" when either is out of range.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	cells := t.Rows[row].Cells
	if col < 0 || col >= len(cells) {
		return ""
	}
	return cells[col]
}

// Column returns every value of column col, "" for a column that does not exist.
func (t *Table) Column(col int) []string {
	out := make([]string, len(t.Rows))
	for i := range t.Rows {
		out[i] = t.Cell(i, col)
	}
	return out
}

// Header returns the label of column col, or "" when out of range.
func (t *Table) Header(col int) string {
	if col < 0 || col >= len(t.Columns) {
		return ""
	}
	return t.Columns[col]
}

// Normalized concatenates the data rows of every worksheet, in workbook order
// then row order. Column count is the widest sheet; short rows are padded
// with blanks. Header labels come from the first sheet that has a header.
func (wb *Workbook) Normalized() (*Table, error) {
	width := 0
	var header []string
	for _, g := range wb.Sheets {
		if w := g.width(); w > width {
			width = w
		}
		if header == nil && len(g.Header) > 0 {
			header = g.Header
		}
	}

	t := &Table{Columns: pad(header, width)}
	for _, g := range wb.Sheets {
		for _, r := range g.Rows {
			t.Rows = append(t.Rows, Row{Sheet: g.Name, Cells: pad(r, width)})
		}
	}

	if len(t.Rows) == 0 {
		return nil, ErrEmptyWorkbook
	}
	return t, nil
}

// FirstNonEmpty returns the first worksheet, in workbook order, that is not
// empty once blank rows and columns are trimmed. When every sheet trims to
// nothing, the first sheet's trimmed form is returned so callers can report
// on it. Only a workbook with no sheets at all is an error.
func (wb *Workbook) FirstNonEmpty() (*Table, error) {
	if len(wb.Sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}
	for _, g := range wb.Sheets {
		if t := Trim(g); t.Len() > 0 {
			return t, nil
		}
	}
	return Trim(wb.Sheets[0]), nil
}

// Trim removes fully blank data rows and columns without data, then labels
// the remaining columns. Blank labels become "Unnamed: <i>" and repeated
// labels get a ".<n>" suffix.
func Trim(g Grid) *Table {
	width := g.width()

	var rows [][]string
	for _, r := range g.Rows {
		if !isBlankRow(r) {
			rows = append(rows, pad(r, width))
		}
	}

	var keep []int
	for c := 0; c < width; c++ {
		for _, r := range rows {
			if r[c] != "" {
				keep = append(keep, c)
				break
			}
		}
	}

	header := pad(g.Header, width)
	t := &Table{Columns: make([]string, 0, len(keep))}
	seen := make(map[string]int)
	for _, c := range keep {
		label := header[c]
		if label == "" {
			label = fmt.Sprintf("Unnamed: %d", c)
		}
		if n := seen[label]; n > 0 {
			seen[label] = n + 1
			label = fmt.Sprintf("%s.%d", label, n)
		} else {
			seen[label] = 1
		}
		t.Columns = append(t.Columns, label)
	}

	for _, r := range rows {
		cells := make([]string, len(keep))
		for i, c := range keep {
			cells[i] = r[c]
		}
		t.Rows = append(t.Rows, Row{Sheet: g.Name, Cells: cells})
	}
	return t
}

// pad returns a copy of r extended with blanks to width.
func pad(r []string, width int) []string {
	out := make([]string, width)
	copy(out, r)
	return out
}

// Labels joins up to n column labels with " / ", for diagnostics.
func (t *Table) Labels(n int) string {
	cols := t.Columns
	if len(cols) > n {
		cols = cols[:n]
	}
	return strings.Join(cols, " / ")
}
