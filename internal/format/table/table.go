// Package table lays out plain-text columns for terminal output.
package table

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// Format returns the rows padded according to the widest entry in each
// column. Widths are measured in terminal cells, so wide runes and styled
// text line up. The last column is never padded.
func Format(rows [][]string, alignments []Alignment) []string {
	if len(rows) == 0 {
		return nil
	}
	colCount := 0
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	widths := make([]int, colCount)
	for _, row := range rows {
		for c, cell := range row {
			if width := ansi.StringWidth(cell); width > widths[c] {
				widths[c] = width
			}
		}
	}
	out := make([]string, len(rows))
	for i, row := range rows {
		var b strings.Builder
		for c, cell := range row {
			if c > 0 {
				b.WriteString("  ")
			}
			pad := widths[c] - ansi.StringWidth(cell)
			right := c < len(alignments) && alignments[c] == AlignRight
			if right {
				b.WriteString(strings.Repeat(" ", max(pad, 0)))
			}
			b.WriteString(cell)
			if !right && c < len(row)-1 {
				b.WriteString(strings.Repeat(" ", max(pad, 0)))
			}
		}
		out[i] = b.String()
	}
	return out
}
