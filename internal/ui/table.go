package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Table is a simple ANSI-aware table printer
type Table struct {
	writer     io.Writer
	headers    []string
	rows       [][]string
	alignRight map[int]bool
	padding    int
}

// NewTable creates a new table writing to w
func NewTable(w io.Writer) *Table {
	return &Table{
		writer:     w,
		padding:    2,
		alignRight: make(map[int]bool),
	}
}

// SetHeaders sets the table headers
func (t *Table) SetHeaders(headers ...string) {
	t.headers = headers
}

// AlignRight right-aligns the given columns (sizes, counts).
func (t *Table) AlignRight(cols ...int) {
	for _, c := range cols {
		t.alignRight[c] = true
	}
}

// AddRow adds a row to the table
func (t *Table) AddRow(cols ...string) {
	t.rows = append(t.rows, cols)
}

// Render prints the table
func (t *Table) Render() {
	if len(t.headers) == 0 && len(t.rows) == 0 {
		return
	}

	numCols := len(t.headers)
	for _, row := range t.rows {
		if len(row) > numCols {
			numCols = len(row)
		}
	}

	colWidths := make([]int, numCols)
	for i, h := range t.headers {
		if w := VisibleLen(h); w > colWidths[i] {
			colWidths[i] = w
		}
	}
	for _, row := range t.rows {
		for i, col := range row {
			if w := VisibleLen(col); w > colWidths[i] {
				colWidths[i] = w
			}
		}
	}

	if len(t.headers) > 0 {
		headers := make([]string, len(t.headers))
		for i, h := range t.headers {
			headers[i] = HeaderStyle.Render(h)
		}
		t.printRow(headers, colWidths)
	}

	for _, row := range t.rows {
		t.printRow(row, colWidths)
	}
}

func (t *Table) printRow(row []string, widths []int) {
	var b strings.Builder
	for i, col := range row {
		pad := widths[i] - VisibleLen(col)
		last := i == len(row)-1

		if t.alignRight[i] {
			b.WriteString(strings.Repeat(" ", pad))
			b.WriteString(col)
		} else {
			b.WriteString(col)
			if !last {
				b.WriteString(strings.Repeat(" ", pad))
			}
		}
		if !last {
			b.WriteString(strings.Repeat(" ", t.padding))
		}
	}
	fmt.Fprintln(t.writer, b.String())
}

// StripANSI removes ANSI escape codes from a string
func StripANSI(s string) string {
	var result strings.Builder
	inEscape := false
	for _, r := range s {
		if r == '\033' {
			inEscape = true
			continue
		}
		if inEscape {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}

// VisibleLen returns the visible length of a string (excluding ANSI codes)
func VisibleLen(s string) int {
	return runewidth.StringWidth(StripANSI(s))
}
