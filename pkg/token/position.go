package token

// Position represents a line/column location in the source.
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number
	Offset int // 0-based byte offset
}

// IsValid returns true if the position is valid (line > 0).
func (p Position) IsValid() bool {
	return p.Line > 0
}

// Span is a half-open byte range [Start, End) in the source.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains returns true if the span contains the given offset.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// Touches is like Contains but also accepts the end offset, which is where
// an editor cursor sits right after typing the last character.
func (s Span) Touches(offset int) bool {
	return offset >= s.Start && offset <= s.End
}

// Len returns the number of bytes covered.
func (s Span) Len() int {
	return s.End - s.Start
}

// Cover returns the smallest span covering both s and o.
func (s Span) Cover(o Span) Span {
	out := s
	if o.Start < out.Start {
		out.Start = o.Start
	}
	if o.End > out.End {
		out.End = o.End
	}
	return out
}

// PositionAt converts a byte offset in src into a line/column position.
// Offsets past the end clamp to the end of the source.
func PositionAt(src string, offset int) Position {
	if offset > len(src) {
		offset = len(src)
	}
	if offset < 0 {
		offset = 0
	}
	line, col := 1, 1
	for i := 0; i < offset; i++ {
		if src[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return Position{Line: line, Column: col, Offset: offset}
}
