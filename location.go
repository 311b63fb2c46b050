package cel

import "fmt"

// Location is a zero-based line/column pair within a source string.
type Location struct {
	Line   int
	Column int
}

// String renders a Location as "line:column".
func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Less reports whether l comes strictly before other in source order.
func (l Location) Less(other Location) bool {
	if l.Line != other.Line {
		return l.Line < other.Line
	}
	return l.Column < other.Column
}

// Range delimits the textual extent of a token or AST node.
type Range struct {
	Start Location
	End   Location
}

// NewRange builds a Range from two locations.
func NewRange(start, end Location) Range {
	return Range{Start: start, End: end}
}

// String renders a Range as "startLine:startCol..endLine:endCol", or
// just "line:col" when start and end coincide.
func (r Range) String() string {
	if r.Start == r.End {
		return r.Start.String()
	}
	return fmt.Sprintf("%s..%s", r.Start, r.End)
}

// Surrounding returns the minimum Range enclosing both r and other.
func (r Range) Surrounding(other Range) Range {
	start := r.Start
	if other.Start.Less(start) {
		start = other.Start
	}
	end := r.End
	if end.Less(other.End) {
		end = other.End
	}
	return Range{Start: start, End: end}
}

// scanner turns a source string into a rune stream with lookahead
// (peek, or peekAt for n runes ahead) and running line/column tracking. Ground: base_parser.go's
// Peek/Any idiom (rune-at-a-time, column resets on '\n').
type scanner struct {
	input  []rune
	cursor int
	line   int
	column int
}

const eof = -1

func newScanner(src string) *scanner {
	return &scanner{input: []rune(src)}
}

// location returns the scanner's current Location.
func (s *scanner) location() Location {
	return Location{Line: s.line, Column: s.column}
}

// peek returns the rune under the cursor without consuming it, or eof.
func (s *scanner) peek() rune {
	if s.cursor >= len(s.input) {
		return eof
	}
	return s.input[s.cursor]
}

// peekAt returns the rune `n` positions ahead of the cursor without
// consuming anything, or eof if that position is past the input.
func (s *scanner) peekAt(n int) rune {
	idx := s.cursor + n
	if idx >= len(s.input) {
		return eof
	}
	return s.input[idx]
}

// next consumes and returns the rune under the cursor, advancing
// line/column bookkeeping. Returns eof without advancing at end of input.
func (s *scanner) next() rune {
	c := s.peek()
	if c == eof {
		return eof
	}
	s.cursor++
	if c == '\n' {
		s.line++
		s.column = 0
	} else {
		s.column++
	}
	return c
}

// atEOF reports whether the cursor has consumed the entire input.
func (s *scanner) atEOF() bool {
	return s.cursor >= len(s.input)
}
