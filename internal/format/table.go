// Package format renders tables for terminal output and Markdown reports.
package format

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Mode selects how a Table is rendered.
type Mode int

const (
	Terminal Mode = iota // box-drawing table for the CLI
	Markdown             // GitHub-flavoured Markdown table
)

// Table collects a header and rows and renders them in one Mode.
// Markdown output escapes '|' inside cells.
type Table struct {
	writer table.Writer
	mode   Mode
	rows   int
}

// NewTable creates a table with the given column headers.
func NewTable(mode Mode, header ...string) *Table {
	w := table.NewWriter()
	if mode == Terminal {
		w.SetStyle(table.StyleLight)
	}
	if len(header) > 0 {
		row := make(table.Row, len(header))
		for i, h := range header {
			row[i] = h
		}
		w.AppendHeader(row)
	}
	return &Table{writer: w, mode: mode}
}

// Row appends a data row. Values are printed with fmt's %v.
func (t *Table) Row(vals ...any) *Table {
	row := make(table.Row, len(vals))
	copy(row, vals)
	t.writer.AppendRow(row)
	t.rows++
	return t
}

// AlignRight right-aligns the given 1-based columns.
func (t *Table) AlignRight(cols ...int) *Table {
	cfgs := make([]table.ColumnConfig, len(cols))
	for i, c := range cols {
		cfgs[i] = table.ColumnConfig{Number: c, Align: text.AlignRight}
	}
	t.writer.SetColumnConfigs(cfgs)
	return t
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return t.rows
}

// String renders the table without a trailing newline.
func (t *Table) String() string {
	if t.mode == Markdown {
		return t.writer.RenderMarkdown()
	}
	return t.writer.Render()
}
