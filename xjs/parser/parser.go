package parser

import (
	"fmt"
	"strings"
)

// Dialect selects how bare source inside a body is read.
type Dialect int

const (
	// DialectCode reads bare lines as host statements; text needs # markers.
	DialectCode Dialect = iota
	// DialectText reads bare runs as text; host code starts with $.
	DialectText
)

var dialectNames = map[Dialect]string{
	DialectCode: "code",
	DialectText: "text",
}

func (d Dialect) String() string {
	if name, ok := dialectNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Dialect(%d)", d)
}

func ParseDialect(name string) (Dialect, error) {
	for d, n := range dialectNames {
		if n == name {
			return d, nil
		}
	}
	return DialectCode, fmt.Errorf("unknown dialect %q (want code or text)", name)
}

type Option func(*Parser)

func WithFile(path string) Option {
	return func(p *Parser) {
		p.file = path
	}
}

// WithContentOnly parses the input as content of an anonymous fragment
// instead of a template function.
func WithContentOnly() Option {
	return func(p *Parser) {
		p.contentOnly = true
	}
}

func WithDialect(d Dialect) Option {
	return func(p *Parser) {
		p.dialect = d
	}
}

type Parser struct {
	file        string
	contentOnly bool
	dialect     Dialect
	s           *Scanner
}

// Parse parses src into a *TplFunction, or into a *Fragment when
// WithContentOnly is given. Failures are returned as *Error.
func Parse(src string, opts ...Option) (Node, error) {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	p.s = NewScanner(src, p.file)
	if p.contentOnly {
		return p.parseRoot()
	}
	return p.parseTplFunction()
}

func (p *Parser) parseRoot() (Node, error) {
	root := &Fragment{Position: p.s.Position()}
	content, err := p.parseContent(scopeRoot)
	if err != nil {
		return nil, err
	}
	root.Content = content
	return root, nil
}

func (p *Parser) parseTplFunction() (Node, error) {
	s := p.s
	if _, err := s.skipTrivia(); err != nil {
		return nil, err
	}
	fn := &TplFunction{Position: s.Position()}
	switch {
	case s.peek() == '(':
		args, err := p.parseArguments()
		if err != nil {
			return nil, err
		}
		fn.Arguments = args
	case isIdentStart(s.peek()):
		fn.Arguments = []*Argument{{Name: s.readIdentifier()}}
	default:
		return nil, s.errorf(InvalidArgumentList, "expected template arguments, found %s", describe(s))
	}
	if _, err := s.skipTrivia(); err != nil {
		return nil, err
	}
	if !s.hasPrefix("=>") {
		return nil, s.errorf(InvalidArgumentList, "expected => after template arguments, found %s", describe(s))
	}
	s.advanceN(2)
	if _, err := s.skipTrivia(); err != nil {
		return nil, err
	}
	if s.peek() != '{' {
		return nil, s.errorf(InvalidArgumentList, "expected { to open the template body, found %s", describe(s))
	}
	open := s.mark()
	s.advance()
	fn.Indent = p.bodyIndent()

	content, err := p.parseContent(scopeBrace)
	if err != nil {
		return nil, err
	}
	if s.peek() != '}' {
		return nil, s.errorAt(UnbalancedDelimiter, open, "template body is not closed")
	}
	s.advance()
	fn.Content = content

	if _, err := s.skipTrivia(); err != nil {
		return nil, err
	}
	if !s.eof() {
		return nil, s.errorf(UnbalancedDelimiter, "unexpected %s after template body", describe(s))
	}
	return fn, nil
}

// bodyIndent returns the blanks in front of the first non-blank
// character after the opening brace, or "" when that character is on
// the brace line or closes an empty body.
func (p *Parser) bodyIndent() string {
	rest := p.s.input[p.s.pos:]
	lineStart := -1
	i := 0
	for i < len(rest) && isSpace(rest[i]) {
		if rest[i] == '\n' {
			lineStart = i + 1
		}
		i++
	}
	if lineStart < 0 || i == len(rest) || rest[i] == '}' {
		return ""
	}
	return rest[lineStart:i]
}

func (p *Parser) parseArguments() ([]*Argument, error) {
	s := p.s
	open := s.mark()
	s.advance()
	args := []*Argument{}
	for {
		if _, err := s.skipTrivia(); err != nil {
			return nil, err
		}
		if s.eof() {
			return nil, s.errorAt(InvalidArgumentList, open, "argument list is not closed")
		}
		if s.peek() == ')' {
			s.advance()
			return args, nil
		}

		arg := &Argument{Name: s.readIdentifier()}
		if arg.Name == "" {
			return nil, s.errorf(InvalidArgumentList, "expected argument name, found %s", describe(s))
		}
		if _, err := s.skipTrivia(); err != nil {
			return nil, err
		}
		if s.peek() == '?' {
			arg.Optional = true
			s.advance()
			if _, err := s.skipTrivia(); err != nil {
				return nil, err
			}
		}
		if s.peek() == ':' {
			s.advance()
			text, err := p.readArgumentPart(true)
			if err != nil {
				return nil, err
			}
			if arg.TypeRef = canonicalCode(text); arg.TypeRef == "" {
				return nil, s.errorf(InvalidArgumentList, "missing type for argument %s", arg.Name)
			}
		}
		if s.peek() == '=' {
			s.advance()
			text, err := p.readArgumentPart(false)
			if err != nil {
				return nil, err
			}
			if arg.DefaultValue = canonicalCode(text); arg.DefaultValue == "" {
				return nil, s.errorf(InvalidArgumentList, "missing default value for argument %s", arg.Name)
			}
		}
		args = append(args, arg)

		switch s.peek() {
		case ',':
			s.advance()
		case ')':
		default:
			return nil, s.errorf(InvalidArgumentList, "unexpected %s in argument list", describe(s))
		}
	}
}

// readArgumentPart reads a type annotation or a default value up to the
// next top-level comma or closing paren. Types also stop at a default
// value marker and may contain angle brackets.
func (p *Parser) readArgumentPart(isType bool) (string, error) {
	s := p.s
	start := s.pos
	angles := 0
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
			if _, err := s.readBalanced(); err != nil {
				return "", err
			}
		case ch == '=' && s.peekN(1) == '>':
			s.advanceN(2)
		case isType && ch == '<':
			angles++
			s.advance()
		case isType && ch == '>' && angles > 0:
			angles--
			s.advance()
		case angles == 0 && (ch == ',' || ch == ')' || isType && ch == '='):
			return s.input[start:s.pos], nil
		case ch == ']' || ch == '}' || ch == ')':
			return "", s.errorf(InvalidArgumentList, "unexpected %q in argument list", ch)
		default:
			s.advance()
		}
	}
	return "", s.errorf(InvalidArgumentList, "argument list is not closed")
}

// FormatArguments renders an argument list the canonical way:
// "a, b:string, c?, d?:boolean = false".
func FormatArguments(args []*Argument) string {
	var b strings.Builder
	for i, arg := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(arg.Name)
		if arg.Optional {
			b.WriteByte('?')
		}
		if arg.TypeRef != "" {
			b.WriteByte(':')
			b.WriteString(arg.TypeRef)
		}
		if arg.DefaultValue != "" {
			b.WriteString(" = ")
			b.WriteString(arg.DefaultValue)
		}
	}
	return b.String()
}

func describe(s *Scanner) string {
	if s.eof() {
		return "end of input"
	}
	return fmt.Sprintf("%q", s.peek())
}
