// Package position converts between flat byte offsets and line/column pairs.
package position

import (
	"sort"
	"strings"
)

// LineMeta is the start offset and length of one line, terminator excluded.
type LineMeta struct {
	Offset int
	Length int
}

// LineColumn is a 1-based line and a 0-based column.
type LineColumn struct {
	Line   int
	Column int
}

// Converter maps offsets in a fixed text to line/column pairs and back.
// Out-of-range input is clamped, never rejected.
type Converter struct {
	text  string
	lines []LineMeta
}

func NewConverter(text string) *Converter {
	parts := strings.Split(text, "\n")
	lines := make([]LineMeta, 0, len(parts))
	offset := 0
	for _, part := range parts {
		lines = append(lines, LineMeta{Offset: offset, Length: len(part)})
		offset += len(part) + 1
	}
	return &Converter{text: text, lines: lines}
}

func (c *Converter) Len() int { return len(c.text) }

func (c *Converter) LineCount() int { return len(c.lines) }

// ToLineColumn resolves index to the line containing it. An index sitting on a
// line terminator resolves to that line at its length.
func (c *Converter) ToLineColumn(index int) LineColumn {
	index = clamp(index, 0, len(c.text))
	// First line starting after index, minus one.
	idx := sort.Search(len(c.lines), func(i int) bool {
		return c.lines[i].Offset > index
	}) - 1
	if idx < 0 {
		idx = 0
	}
	return LineColumn{Line: idx + 1, Column: index - c.lines[idx].Offset}
}

func (c *Converter) ToIndex(lc LineColumn) int {
	line := c.lines[clamp(lc.Line, 1, len(c.lines))-1]
	return line.Offset + clamp(lc.Column, 0, line.Length)
}

// Line returns the text of a 1-based line, clamped like ToIndex.
func (c *Converter) Line(line int) string {
	meta := c.lines[clamp(line, 1, len(c.lines))-1]
	return c.text[meta.Offset : meta.Offset+meta.Length]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
