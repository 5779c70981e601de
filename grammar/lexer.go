package grammar

import (
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/exp/ebnf"
)

// DefaultTokens are the lexical productions a Lexer tries when none are
// given. Ties on match length go to the earlier name.
var DefaultTokens = []string{"comment", "string", "number", "identifier", "sigil", "punct"}

// Position represents a location in source code.
type Position struct {
	Filename string
	Offset   int
	Line     int
	Column   int
}

func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token represents a lexical token with its position.
type Token struct {
	Kind     string
	Literal  string
	Position Position
}

func (t Token) String() string {
	return fmt.Sprintf("%s %s %q", t.Position, t.Kind, t.Literal)
}

type memoKey struct {
	name   string
	offset int
}

// Lexer splits input into the longest matches of a set of lexical
// productions, skipping white space in between.
type Lexer struct {
	grammar  ebnf.Grammar
	tokens   []string
	input    []byte
	filename string
	pos      int
	line     int
	column   int
	memo     map[memoKey]int // match length, -1 for no match
	visiting map[memoKey]bool
}

func NewLexer(grammar ebnf.Grammar, input []byte, filename string, tokens ...string) *Lexer {
	if len(tokens) == 0 {
		tokens = DefaultTokens
	}
	return &Lexer{
		grammar:  grammar,
		tokens:   tokens,
		input:    input,
		filename: filename,
		line:     1,
		column:   1,
		memo:     make(map[memoKey]int),
		visiting: make(map[memoKey]bool),
	}
}

func (l *Lexer) Position() Position {
	return Position{
		Filename: l.filename,
		Offset:   l.pos,
		Line:     l.line,
		Column:   l.column,
	}
}

func (l *Lexer) advance() {
	if l.pos >= len(l.input) {
		return
	}
	_, size := utf8.DecodeRune(l.input[l.pos:])
	if l.input[l.pos] == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	l.pos += size
}

func (l *Lexer) skipSpace() {
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case ' ', '\t', '\n', '\r':
			l.advance()
		default:
			return
		}
	}
}

// NextToken returns the next token, or io.EOF at the end of input. Input
// no token production matches comes back one character at a time as
// ERROR tokens.
func (l *Lexer) NextToken() (Token, error) {
	l.skipSpace()
	if l.pos >= len(l.input) {
		return Token{Kind: "EOF", Position: l.Position()}, io.EOF
	}

	start := l.Position()
	clear(l.memo)

	bestKind, bestLen := "", 0
	for _, name := range l.tokens {
		clear(l.visiting)
		if n := l.matchName(name, l.pos); n > bestLen {
			bestKind, bestLen = name, n
		}
	}

	if bestLen == 0 {
		_, size := utf8.DecodeRune(l.input[l.pos:])
		bestKind, bestLen = "ERROR", size
	}

	literal := string(l.input[l.pos : l.pos+bestLen])
	end := l.pos + bestLen
	for l.pos < end {
		l.advance()
	}
	return Token{Kind: bestKind, Literal: literal, Position: start}, nil
}

// Tokenize reads all tokens from input. The last token is EOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.NextToken()
		tokens = append(tokens, tok)
		if err == io.EOF {
			return tokens, nil
		}
		if err != nil {
			return tokens, err
		}
	}
}

// match returns the length of the longest match of expr at offset, or -1.
// Repetitions and options are greedy and never backtrack.
func (l *Lexer) match(expr ebnf.Expression, offset int) int {
	switch e := expr.(type) {
	case *ebnf.Token:
		return l.matchLiteral(e.String, offset)

	case *ebnf.Range:
		return l.matchRange(e.Begin.String, e.End.String, offset)

	case ebnf.Sequence:
		pos := offset
		for _, item := range e {
			n := l.match(item, pos)
			if n < 0 {
				return -1
			}
			pos += n
		}
		return pos - offset

	case ebnf.Alternative:
		best := -1
		for _, alt := range e {
			if n := l.match(alt, offset); n > best {
				best = n
			}
		}
		return best

	case *ebnf.Repetition:
		pos := offset
		for {
			n := l.match(e.Body, pos)
			if n <= 0 {
				break
			}
			pos += n
		}
		return pos - offset

	case *ebnf.Option:
		if n := l.match(e.Body, offset); n > 0 {
			return n
		}
		return 0

	case *ebnf.Group:
		return l.match(e.Body, offset)

	case *ebnf.Name:
		return l.matchName(e.String, offset)
	}
	return -1
}

// matchName matches a named production with memoization. Left recursion
// is cut off as a failed match.
func (l *Lexer) matchName(name string, offset int) int {
	key := memoKey{name: name, offset: offset}
	if n, ok := l.memo[key]; ok {
		return n
	}
	if l.visiting[key] {
		return -1
	}

	prod, ok := l.grammar[name]
	if !ok || prod.Expr == nil {
		l.memo[key] = -1
		return -1
	}

	l.visiting[key] = true
	n := l.match(prod.Expr, offset)
	delete(l.visiting, key)
	l.memo[key] = n
	return n
}

func (l *Lexer) matchLiteral(lit string, offset int) int {
	if offset+len(lit) > len(l.input) {
		return -1
	}
	if string(l.input[offset:offset+len(lit)]) == lit {
		return len(lit)
	}
	return -1
}

func (l *Lexer) matchRange(begin, end string, offset int) int {
	if offset >= len(l.input) {
		return -1
	}
	lo, _ := utf8.DecodeRuneInString(begin)
	hi, _ := utf8.DecodeRuneInString(end)
	ch, size := utf8.DecodeRune(l.input[offset:])
	if ch >= lo && ch <= hi {
		return size
	}
	return -1
}
