package cnext

import (
	"fmt"
	"sort"
	"unicode/utf8"
)

const eof = -1

// Range is a half-open byte offset span within a single file's source text.
type Range struct{ Start, End int }

func NewRange(start, end int) Range {
	return Range{Start: start, End: end}
}

func (r Range) String() string {
	if r.Start == r.End {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("%d..%d", r.Start, r.End)
}

func (r Range) Str(v []byte) string {
	return string(v[r.Start:r.End])
}

func (r Range) Contains(other Range) bool {
	return other.Start >= r.Start && other.End <= r.End
}

// FileID uniquely identifies a source file within a compilation run.
type FileID int

// Location is a line/column/cursor position within one file.
type Location struct {
	Line   int32
	Column int32
	Cursor int
	File   string
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Span is a pair of Locations, used to report diagnostics with
// human-readable line/column information.
type Span struct {
	Start Location
	End   Location
}

func NewSpan(start, end Location) Span {
	return Span{Start: start, End: end}
}

func (s Span) String() string {
	startLine, startCol := s.Start.Line, s.Start.Column
	endLine, endCol := s.End.Line, s.End.Column
	if startLine == endLine && startCol == endCol {
		return fmt.Sprintf("%d:%d", startLine, startCol)
	}
	if startLine == endLine {
		return fmt.Sprintf("%d:%d..%d", startLine, startCol, endCol)
	}
	return fmt.Sprintf("%d:%d..%d:%d", startLine, startCol, endLine, endCol)
}

// SourceLocation pins a Span to the file it belongs to, so diagnostics
// remain meaningful once multiple files are aggregated by the
// orchestrator.
type SourceLocation struct {
	FileID FileID
	Span   Span
}

func NewSourceLocation(f FileID, s Span) SourceLocation {
	return SourceLocation{FileID: f, Span: s}
}

// LineIndex allows fast conversion from byte cursor offsets to
// line/column. It stores the start byte offset of each line (0-based)
// and binary searches line starts to find the owning line in
// O(log lines). Construction is O(n) over the input and is meant to be
// cached per file.
type LineIndex struct {
	input     []byte
	lineStart []int
}

func NewLineIndex(input []byte) *LineIndex {
	lineStart := make([]int, 1, 64)
	lineStart[0] = 0
	for i, b := range input {
		if b == '\n' {
			lineStart = append(lineStart, i+1)
		}
	}
	return &LineIndex{input: input, lineStart: lineStart}
}

func (li *LineIndex) Span(r Range) Span {
	return Span{Start: li.LocationAt(r.Start), End: li.LocationAt(r.End)}
}

func (li *LineIndex) LocationAt(cursor int) Location {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(li.input) {
		cursor = len(li.input)
	}
	lineIdx := sort.Search(len(li.lineStart), func(i int) bool {
		return li.lineStart[i] > cursor
	}) - 1
	if lineIdx < 0 {
		lineIdx = 0
	}
	lineStart := li.lineStart[lineIdx]
	col := int32(utf8.RuneCount(li.input[lineStart:cursor])) + 1
	return Location{Line: int32(lineIdx + 1), Column: col, Cursor: cursor}
}
