package parser

import "strings"

// Scanner is a positional cursor over template source. It knows about
// strings, comments and balanced delimiters but nothing about markup.
type Scanner struct {
	input  string
	file   string
	pos    int
	line   int
	column int
}

type scanState struct {
	pos    int
	line   int
	column int
}

func NewScanner(input, file string) *Scanner {
	return &Scanner{
		input:  input,
		file:   file,
		line:   1,
		column: 1,
	}
}

func (s *Scanner) Position() Position {
	return Position{
		File:   s.file,
		Offset: s.pos,
		Line:   s.line,
		Column: s.column,
	}
}

func (s *Scanner) Offset() int {
	return s.pos
}

func (s *Scanner) mark() scanState {
	return scanState{pos: s.pos, line: s.line, column: s.column}
}

func (s *Scanner) reset(st scanState) {
	s.pos = st.pos
	s.line = st.line
	s.column = st.column
}

func (s *Scanner) eof() bool {
	return s.pos >= len(s.input)
}

func (s *Scanner) peek() byte {
	if s.pos >= len(s.input) {
		return 0
	}
	return s.input[s.pos]
}

func (s *Scanner) peekN(n int) byte {
	if s.pos+n >= len(s.input) {
		return 0
	}
	return s.input[s.pos+n]
}

func (s *Scanner) hasPrefix(prefix string) bool {
	return strings.HasPrefix(s.input[s.pos:], prefix)
}

func (s *Scanner) advance() byte {
	if s.pos >= len(s.input) {
		return 0
	}
	ch := s.input[s.pos]
	s.pos++
	if ch == '\n' {
		s.line++
		s.column = 1
	} else if ch&0xC0 != 0x80 {
		s.column++
	}
	return ch
}

func (s *Scanner) advanceN(n int) {
	for i := 0; i < n; i++ {
		s.advance()
	}
}

func (s *Scanner) slice(start, end int) string {
	return s.input[start:end]
}

func (s *Scanner) errorf(kind ErrorKind, format string, args ...any) *Error {
	return newError(kind, s.Position(), format, args...)
}

func (s *Scanner) errorAt(kind ErrorKind, st scanState, format string, args ...any) *Error {
	return newError(kind, Position{File: s.file, Offset: st.pos, Line: st.line, Column: st.column}, format, args...)
}

// skipWhitespace reports whether a line break was crossed.
func (s *Scanner) skipWhitespace() bool {
	newline := false
	for !s.eof() {
		switch s.peek() {
		case '\n':
			newline = true
			s.advance()
		case ' ', '\t', '\r', '\f':
			s.advance()
		default:
			return newline
		}
	}
	return newline
}

func (s *Scanner) skipSpaces() {
	for s.peek() == ' ' || s.peek() == '\t' {
		s.advance()
	}
}

func (s *Scanner) atComment() bool {
	return s.peek() == '/' && (s.peekN(1) == '/' || s.peekN(1) == '*')
}

func (s *Scanner) skipComment() error {
	start := s.mark()
	if s.peekN(1) == '/' {
		for !s.eof() && s.peek() != '\n' {
			s.advance()
		}
		return nil
	}
	s.advanceN(2)
	for !s.eof() {
		if s.peek() == '*' && s.peekN(1) == '/' {
			s.advanceN(2)
			return nil
		}
		s.advance()
	}
	return s.errorAt(UnterminatedLiteral, start, "unterminated block comment")
}

// skipTrivia skips whitespace and comments.
func (s *Scanner) skipTrivia() (bool, error) {
	newline := false
	for {
		if s.skipWhitespace() {
			newline = true
		}
		if !s.atComment() {
			return newline, nil
		}
		if err := s.skipComment(); err != nil {
			return newline, err
		}
	}
}

func isQuote(ch byte) bool {
	return ch == '"' || ch == '\'' || ch == '`'
}

// readString consumes a quoted literal and returns its raw content
// (escapes untouched) and the quote character.
func (s *Scanner) readString() (string, byte, error) {
	start := s.mark()
	quote := s.advance()
	contentStart := s.pos
	for !s.eof() {
		ch := s.peek()
		switch {
		case ch == '\\':
			s.advanceN(2)
		case ch == quote:
			content := s.input[contentStart:s.pos]
			s.advance()
			return content, quote, nil
		case ch == '\n' && quote != '`':
			return "", quote, s.errorAt(UnterminatedLiteral, start, "unterminated string literal")
		default:
			s.advance()
		}
	}
	return "", quote, s.errorAt(UnterminatedLiteral, start, "unterminated string literal")
}

func closerOf(open byte) byte {
	switch open {
	case '(':
		return ')'
	case '[':
		return ']'
	case '{':
		return '}'
	}
	return 0
}

// readBalanced consumes a span that starts on an opening delimiter and
// returns the text between the delimiters. Nested delimiters must match,
// strings and comments are skipped.
func (s *Scanner) readBalanced() (string, error) {
	start := s.mark()
	open := s.advance()
	stack := []byte{closerOf(open)}
	contentStart := s.pos
	for !s.eof() {
		ch := s.peek()
		switch {
		case isQuote(ch):
			if _, _, err := s.readString(); err != nil {
				return "", err
			}
		case s.atComment():
			if err := s.skipComment(); err != nil {
				return "", err
			}
		case ch == '(' || ch == '[' || ch == '{':
			stack = append(stack, closerOf(ch))
			s.advance()
		case ch == ')' || ch == ']' || ch == '}':
			want := stack[len(stack)-1]
			if ch != want {
				return "", s.errorf(UnbalancedDelimiter, "expected %q but found %q", want, ch)
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				content := s.input[contentStart:s.pos]
				s.advance()
				return content, nil
			}
			s.advance()
		default:
			s.advance()
		}
	}
	return "", s.errorAt(UnbalancedDelimiter, start, "unclosed %q", open)
}

func (s *Scanner) readIdentifier() string {
	start := s.pos
	if !isIdentStart(s.peek()) {
		return ""
	}
	for isIdentPart(s.peek()) {
		s.advance()
	}
	return s.input[start:s.pos]
}

// readRef reads a dotted reference such as b.tooltip.
func (s *Scanner) readRef() string {
	start := s.pos
	for {
		if s.readIdentifier() == "" {
			break
		}
		if s.peek() != '.' || !isIdentStart(s.peekN(1)) {
			break
		}
		s.advance()
	}
	return s.input[start:s.pos]
}

// lineIndent returns the number of leading blank characters of the line
// holding offset.
func (s *Scanner) lineIndent(offset int) int {
	lineStart := strings.LastIndexByte(s.input[:offset], '\n') + 1
	return leadingWhitespace(s.input[lineStart:])
}

func leadingWhitespace(line string) int {
	n := 0
	for n < len(line) && (line[n] == ' ' || line[n] == '\t') {
		n++
	}
	return n
}

func isIdentStart(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch == '_' || ch == '$' || ch >= 0x80
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f'
}
