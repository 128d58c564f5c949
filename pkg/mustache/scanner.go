package mustache

import "regexp"

// Scanner is a forward-only cursor over a template string.
type Scanner struct {
	src  string
	tail string
	pos  int
}

// NewScanner returns a Scanner positioned at the start of src.
func NewScanner(src string) *Scanner {
	return &Scanner{src: src, tail: src}
}

// Pos returns the cursor offset in bytes.
func (s *Scanner) Pos() int { return s.pos }

// EOS reports whether the cursor has reached the end of the input.
func (s *Scanner) EOS() bool { return s.tail == "" }

// Scan advances past re if it matches at the cursor and returns the matched
// text. Otherwise it returns "" and does not move.
func (s *Scanner) Scan(re *regexp.Regexp) string {
	loc := re.FindStringIndex(s.tail)
	if loc == nil || loc[0] != 0 {
		return ""
	}
	match := s.tail[:loc[1]]
	s.advance(loc[1])
	return match
}

// ScanUntil returns the text between the cursor and the next match of re and
// moves the cursor to the match. With no match the rest of the input is
// returned and the cursor moves to the end.
func (s *Scanner) ScanUntil(re *regexp.Regexp) string {
	loc := re.FindStringIndex(s.tail)
	var match string
	switch {
	case loc == nil:
		match = s.tail
		s.advance(len(s.tail))
	case loc[0] == 0:
		return ""
	default:
		match = s.tail[:loc[0]]
		s.advance(loc[0])
	}
	return match
}

func (s *Scanner) advance(n int) {
	s.tail = s.tail[n:]
	s.pos += n
}
