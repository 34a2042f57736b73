// Package sourcemap translates offsets in transpiler output back to offsets in
// the original source through the inline source map the transpiler appends.
package sourcemap

import (
	"encoding/base64"
	"strings"
	"unicode/utf16"

	"scopelens/internal/core/errors"
	"scopelens/internal/engine/position"

	gosourcemap "github.com/go-sourcemap/sourcemap"
)

const mappingURLMarker = "sourceMappingURL="

// Consumer answers reverse lookups from generated to original positions.
// Lines are 1-based, columns 0-based UTF-16 code units.
type Consumer interface {
	Source(genLine, genColumn int) (source, name string, line, column int, ok bool)
}

type Locator struct {
	consumer  Consumer
	generated *position.Converter
	original  *position.Converter
}

// NewLocator decodes the inline mapping table carried by generated.
func NewLocator(generated, original string) (*Locator, error) {
	payload, err := ExtractPayload(generated)
	if err != nil {
		return nil, err
	}
	consumer, err := gosourcemap.Parse("", payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeMapping, "parse source map")
	}
	return NewLocatorWithConsumer(consumer, generated, original), nil
}

func NewLocatorWithConsumer(consumer Consumer, generated, original string) *Locator {
	return &Locator{
		consumer:  consumer,
		generated: position.NewConverter(generated),
		original:  position.NewConverter(original),
	}
}

// ExtractPayload returns the decoded JSON of the last inline source map in text.
func ExtractPayload(text string) ([]byte, error) {
	idx := strings.LastIndex(text, mappingURLMarker)
	if idx < 0 {
		return nil, errors.New(errors.CodeMapping, "no inline source map in generated output")
	}
	url := text[idx+len(mappingURLMarker):]
	if end := strings.IndexAny(url, "\r\n"); end >= 0 {
		url = url[:end]
	}
	url = strings.TrimSpace(url)
	comma := strings.LastIndex(url, ",")
	if comma < 0 || !strings.HasPrefix(url, "data:") {
		return nil, errors.New(errors.CodeMapping, "source map is not an inline data url")
	}
	encoded := url[comma+1:]
	if encoded == "" {
		return nil, errors.New(errors.CodeMapping, "empty source map payload")
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeMapping, "decode source map payload")
	}
	return data, nil
}

// Locate maps a byte offset in the generated text to a byte offset in the
// original text. ok is false when the table has no mapping for the position.
func (l *Locator) Locate(generatedOffset int) (int, bool) {
	lc := l.generated.ToLineColumn(generatedOffset)
	genCol := utf16Column(l.generated.Line(lc.Line), lc.Column)

	_, _, line, column, ok := l.consumer.Source(lc.Line, genCol)
	if !ok {
		return 0, false
	}
	origCol := byteColumn(l.original.Line(line), column)
	return l.original.ToIndex(position.LineColumn{Line: line, Column: origCol}), true
}

// LocateAll maps every offset, reporting per entry whether it was mapped.
func (l *Locator) LocateAll(offsets []int) ([]int, []bool) {
	out := make([]int, len(offsets))
	mapped := make([]bool, len(offsets))
	for i, off := range offsets {
		out[i], mapped[i] = l.Locate(off)
	}
	return out, mapped
}

// Original exposes the converter over the original text.
func (l *Locator) Original() *position.Converter { return l.original }

// utf16Column counts the UTF-16 code units in line[:byteCol].
func utf16Column(line string, byteCol int) int {
	if byteCol > len(line) {
		byteCol = len(line)
	}
	units := 0
	for _, r := range line[:byteCol] {
		units += utf16.RuneLen(r)
	}
	return units
}

// byteColumn is the inverse of utf16Column; columns past the line end clamp.
func byteColumn(line string, unitCol int) int {
	units := 0
	for i, r := range line {
		if units >= unitCol {
			return i
		}
		units += utf16.RuneLen(r)
	}
	return len(line)
}
