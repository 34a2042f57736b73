package highlight

import (
	"sort"
	"strings"
)

// Sentinels are private use code points, left untouched by escaping.
const (
	openGlobal    = "\uE000"
	openUndefined = "\uE001"
	closeMark     = "\uE002"
)

// Span is a half-open byte range of the original text.
type Span struct {
	Start int
	End   int
	Class Class
}

func openMark(c Class) string {
	if c == ClassGlobal {
		return openGlobal
	}
	return openUndefined
}

// Inject returns text with sentinel markers around every span. Spans are
// applied highest start first, so each splice only shifts text after the
// spans still waiting. Duplicate and overlapping spans are dropped; ranges
// are clamped to the text. Sentinel code points already present in text are
// replaced with U+FFFD first; both encode to three bytes, so offsets hold.
func Inject(text string, spans []Span) string {
	text = sentinelScrubber.Replace(text)
	ordered := make([]Span, 0, len(spans))
	for _, s := range spans {
		s.Start = clamp(s.Start, 0, len(text))
		s.End = clamp(s.End, s.Start, len(text))
		if s.End == s.Start {
			continue
		}
		ordered = append(ordered, s)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start > ordered[j].Start
	})

	out := text
	limit := len(text)
	for _, s := range ordered {
		// Anything reaching into an already inserted span is skipped.
		if s.End > limit {
			continue
		}
		out = out[:s.Start] + openMark(s.Class) + out[s.Start:s.End] + closeMark + out[s.End:]
		limit = s.Start
	}
	return out
}

// Strip removes all sentinel markers.
func Strip(marked string) string {
	return sentinelStripper.Replace(marked)
}

var (
	sentinelStripper = strings.NewReplacer(openGlobal, "", openUndefined, "", closeMark, "")
	sentinelScrubber = strings.NewReplacer(openGlobal, "\uFFFD", openUndefined, "\uFFFD", closeMark, "\uFFFD")
)

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
