package parser

import "strings"

// CaptureMode selects how a span of host code is turned into text.
type CaptureMode int

const (
	// CaptureHeader re-emits the code with canonical inter-token spacing.
	CaptureHeader CaptureMode = iota
	// CaptureVerbatim keeps the source text untouched.
	CaptureVerbatim
)

func capture(code string, mode CaptureMode) string {
	if mode == CaptureVerbatim {
		return code
	}
	return canonicalCode(code)
}

// readCode reads a balanced span and captures its inner text.
func (s *Scanner) readCode(mode CaptureMode) (string, error) {
	inner, err := s.readBalanced()
	if err != nil {
		return "", err
	}
	return capture(inner, mode), nil
}

// canonicalCode collapses blanks and comments between two tokens to a
// single space. No space is kept after an opening paren or bracket or a
// comma, nor before a closing paren or bracket, a comma or a semicolon.
// String literals are copied as written.
func canonicalCode(code string) string {
	s := NewScanner(code, "")
	var b strings.Builder
	var last byte
	space := false

	write := func(text string) {
		first := text[0]
		if space && b.Len() > 0 && !noSpaceAfter(last) && !noSpaceBefore(first) {
			b.WriteByte(' ')
		}
		space = false
		b.WriteString(text)
		last = text[len(text)-1]
	}

	for !s.eof() {
		ch := s.peek()
		switch {
		case isSpace(ch):
			s.skipWhitespace()
			space = true
		case s.atComment():
			if err := s.skipComment(); err != nil {
				write(code[s.pos:])
				return b.String()
			}
			space = true
		case isQuote(ch):
			start := s.pos
			if _, _, err := s.readString(); err != nil {
				write(code[start:])
				return b.String()
			}
			write(code[start:s.pos])
		default:
			start := s.pos
			for !s.eof() && !isSpace(s.peek()) && !isQuote(s.peek()) && !s.atComment() {
				s.advance()
			}
			write(code[start:s.pos])
		}
	}
	return b.String()
}

func noSpaceAfter(ch byte) bool {
	return ch == '(' || ch == '[' || ch == ','
}

func noSpaceBefore(ch byte) bool {
	return ch == ')' || ch == ']' || ch == ',' || ch == ';'
}
