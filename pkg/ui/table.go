package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Alignment of a table column
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
)

const columnGap = "  "

// TableColumn describes one column. Width is a minimum and MaxWidth a cap
// (0 means unbounded); widths are measured in terminal cells.
type TableColumn struct {
	Header   string
	Width    int
	MaxWidth int
	Align    Alignment
}

type tableRow struct {
	cells []string
	dim   bool
}

// Table renders document listings with styled badge cells
type Table struct {
	Columns []TableColumn
	rows    []tableRow
}

func NewTable(columns []TableColumn) *Table {
	return &Table{Columns: columns}
}

// AddRow appends a row
func (t *Table) AddRow(cells []string) {
	t.rows = append(t.rows, tableRow{cells: cells})
}

// AddDimRow appends a row drawn muted, used for documents the server
// cannot act on yet
func (t *Table) AddDimRow(cells []string) {
	t.rows = append(t.rows, tableRow{cells: cells, dim: true})
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) widths() []int {
	widths := make([]int, len(t.Columns))
	for i, col := range t.Columns {
		widths[i] = max(lipgloss.Width(col.Header), col.Width)
	}
	for _, row := range t.rows {
		for i, cell := range row.cells {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}
	for i, col := range t.Columns {
		if col.MaxWidth > 0 {
			widths[i] = min(widths[i], col.MaxWidth)
		}
	}
	return widths
}

// Render draws the header, a separator and the rows
func (t *Table) Render() string {
	if len(t.Columns) == 0 {
		return ""
	}
	widths := t.widths()

	var b strings.Builder

	parts := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		parts[i] = pad(col.Header, widths[i], AlignLeft)
	}
	b.WriteString(StyleTableHeader.Render(strings.Join(parts, columnGap)))
	b.WriteByte('\n')

	for i := range parts {
		parts[i] = strings.Repeat("─", widths[i])
	}
	b.WriteString(StyleTableBorder.Render(strings.Join(parts, columnGap)))
	b.WriteByte('\n')

	for idx, row := range t.rows {
		for i, col := range t.Columns {
			cell := ""
			if i < len(row.cells) {
				cell = row.cells[i]
			}
			parts[i] = pad(Truncate(cell, widths[i]), widths[i], col.Align)
		}

		style := StyleTableRow
		switch {
		case row.dim:
			style = StyleTableDim
		case idx%2 == 1:
			style = StyleTableRowAlt
		}
		b.WriteString(style.Render(strings.Join(parts, columnGap)))
		b.WriteByte('\n')
	}

	return b.String()
}

func pad(s string, width int, align Alignment) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	switch align {
	case AlignRight:
		return strings.Repeat(" ", gap) + s
	case AlignCenter:
		return strings.Repeat(" ", gap/2) + s + strings.Repeat(" ", gap-gap/2)
	default:
		return s + strings.Repeat(" ", gap)
	}
}

// Truncate shortens plain text to width cells, ending with "…". Styled text is
// returned as is.
func Truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width || strings.Contains(s, "\x1b[") {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// RenderKeyValue renders "Key: value" with the key highlighted
func RenderKeyValue(key, value string) string {
	return fmt.Sprintf("%s: %s", StyleAccent.Render(key), value)
}
