package parser

import "strings"

type scope int

const (
	// scopeRoot ends at end of input.
	scopeRoot scope = iota
	// scopeBrace ends at the closing brace of a body or control region.
	scopeBrace
	// scopeMarkup ends at a closing tag.
	scopeMarkup
)

var pragmas = map[string]bool{
	"$if":       true,
	"$else":     true,
	"$for":      true,
	"$while":    true,
	"$each":     true,
	"$template": true,
}

var codeKeywords = map[string]bool{
	"if":    true,
	"else":  true,
	"for":   true,
	"while": true,
	"do":    true,
}

// segment collects the siblings of one scope. Consecutive host code,
// including control regions folded back into text, accumulates in a
// pending source span that becomes a single JsStatements node.
type segment struct {
	p            *Parser
	nodes        []Node
	pendingStart int
	pendingEnd   int
	pendingPos   Position
	afterRegion  bool
}

func (g *segment) addCode(pos Position, start, end int) {
	if g.pendingStart < 0 {
		g.pendingStart, g.pendingPos = start, pos
	}
	g.pendingEnd = end
}

func (g *segment) flush() {
	if g.pendingStart < 0 {
		return
	}
	code := strings.TrimRight(g.p.s.input[g.pendingStart:g.pendingEnd], " \t\r\n")
	if code != "" {
		g.nodes = append(g.nodes, &JsStatements{Position: g.pendingPos, Code: code})
	}
	g.pendingStart = -1
}

func (g *segment) add(n Node) {
	g.flush()
	g.nodes = append(g.nodes, n)
	g.afterRegion = false
}

// parseContent segments a scope into markup nodes, text, JsStatements
// and JsBlocks. It stops in front of the scope terminator (or at end of
// input) and leaves the terminator to the caller.
func (p *Parser) parseContent(sc scope) ([]Node, error) {
	s := p.s
	g := &segment{p: p, nodes: []Node{}, pendingStart: -1}
	for {
		blankStart := s.mark()
		s.skipWhitespace()
		if s.eof() {
			break
		}
		ch := s.peek()
		if ch == '}' {
			if sc == scopeBrace {
				break
			}
			return nil, s.errorf(UnbalancedDelimiter, "unexpected }")
		}
		if s.hasPrefix("</") {
			if sc == scopeMarkup {
				break
			}
			return nil, s.errorf(UnbalancedDelimiter, "unexpected closing tag")
		}

		var err error
		switch {
		case ch == '<':
			var n Node
			if n, err = p.parseMarkup(); err == nil {
				g.add(n)
			}
		case ch == '#' && p.dialect == DialectCode:
			var n *TextNode
			if n, err = p.parseDelimitedText(); err == nil {
				g.add(n)
			}
		case p.controlKeyword(g.afterRegion) != "":
			err = p.parseControl(g, blankStart)
		case p.dialect == DialectText:
			err = p.parseTextRun(g, blankStart)
		default:
			err = p.parseCodeStatements(g)
		}
		if err != nil {
			return nil, err
		}
	}
	g.flush()
	return g.nodes, nil
}

// controlKeyword returns the control head at the cursor, if any. A bare
// else only counts right after a control region in the text dialect.
func (p *Parser) controlKeyword(afterRegion bool) string {
	s := p.s
	st := s.mark()
	word := s.readIdentifier()
	s.reset(st)
	switch {
	case pragmas[word]:
		return word
	case word == "else" && afterRegion:
		return word
	case p.dialect == DialectCode && codeKeywords[word]:
		return word
	}
	return ""
}

// parseTextRun handles bare input in the text dialect: $code statements
// and implicit text, which keeps the blanks in front of it.
func (p *Parser) parseTextRun(g *segment, blankStart scanState) error {
	s := p.s
	if s.atDollarCode() {
		return p.parseTextStatement(g)
	}
	s.reset(blankStart)
	text, err := p.parseImplicitText()
	if err != nil {
		return err
	}
	if !isBlankText(text) {
		g.add(text)
	}
	return nil
}

// parseTextStatement reads $code up to a top-level semicolon (included),
// the end of the line, a closing brace or a tag.
func (p *Parser) parseTextStatement(g *segment) error {
	s := p.s
	start, pos := s.pos, s.Position()
	var stack []scanState
	for !s.eof() {
		ch := s.peek()
		if len(stack) == 0 {
			if ch == ';' {
				s.advance()
				break
			}
			if ch == '\n' || ch == '}' || s.atMarkupStart() {
				break
			}
		}
		if err := p.scanCodeChar(&stack); err != nil {
			return err
		}
	}
	if len(stack) > 0 {
		return s.errorAt(UnbalancedDelimiter, stack[len(stack)-1], "%q is not closed", s.input[stack[len(stack)-1].pos])
	}
	g.addCode(pos, start, s.pos)
	g.afterRegion = false
	return nil
}

// parseCodeStatements reads a run of host statements in the code dialect.
// The run goes on across lines until a line starts with markup, text, a
// closing brace or a control head; a control head after a top-level
// semicolon and a closing tag also end it.
func (p *Parser) parseCodeStatements(g *segment) error {
	s := p.s
	start, pos := s.pos, s.Position()
	var stack []scanState
	for !s.eof() {
		ch := s.peek()
		if len(stack) == 0 {
			if ch == '}' || s.hasPrefix("</") {
				break
			}
			if ch == '\n' && p.statementsEndAfterLine() {
				break
			}
			if ch == ';' {
				s.advance()
				st := s.mark()
				s.skipSpaces()
				if p.controlKeyword(false) != "" {
					break
				}
				s.reset(st)
				continue
			}
		}
		if err := p.scanCodeChar(&stack); err != nil {
			return err
		}
	}
	if len(stack) > 0 {
		return s.errorAt(UnbalancedDelimiter, stack[len(stack)-1], "%q is not closed", s.input[stack[len(stack)-1].pos])
	}
	g.addCode(pos, start, s.pos)
	g.afterRegion = false
	return nil
}

// scanCodeChar consumes one unit of host code (a character, a string or a
// comment) and tracks open delimiters on stack.
func (p *Parser) scanCodeChar(stack *[]scanState) error {
	s := p.s
	ch := s.peek()
	switch {
	case isQuote(ch):
		_, _, err := s.readString()
		return err
	case s.atComment():
		return s.skipComment()
	case ch == '(' || ch == '[' || ch == '{':
		*stack = append(*stack, s.mark())
	case ch == ')' || ch == ']' || ch == '}':
		if len(*stack) == 0 {
			return s.errorf(UnbalancedDelimiter, "unexpected %q", ch)
		}
		top := (*stack)[len(*stack)-1]
		if want := closerOf(s.input[top.pos]); want != ch {
			return s.errorf(UnbalancedDelimiter, "expected %q but found %q", want, ch)
		}
		*stack = (*stack)[:len(*stack)-1]
	}
	s.advance()
	return nil
}

// statementsEndAfterLine looks past the line break under the cursor.
func (p *Parser) statementsEndAfterLine() bool {
	s := p.s
	st := s.mark()
	defer s.reset(st)
	s.skipWhitespace()
	if s.eof() {
		return true
	}
	switch s.peek() {
	case '<', '#', '}':
		return true
	}
	return p.controlKeyword(false) != ""
}

// parseControl reads a control head and its region. The region is parsed
// first; it becomes a JsBlock only if markup shows up somewhere inside,
// otherwise its source joins the surrounding statement text. A head with
// no region is read as plain code.
func (p *Parser) parseControl(g *segment, blankStart scanState) error {
	s := p.s
	start := s.mark()
	pos := s.Position()
	keyword := p.controlKeyword(g.afterRegion)

	var header string
	if keyword == "$template" {
		h, err := p.parseTemplateHead()
		if err != nil {
			return err
		}
		header = h
	} else {
		brace, err := p.findRegionBrace(keyword)
		if err != nil {
			return err
		}
		if brace < 0 {
			return p.parsePlainCode(g, blankStart)
		}
		header = canonicalCode(s.input[start.pos:brace])
		s.advanceN(brace - start.pos)
	}

	open := s.mark()
	s.advance()
	content, err := p.parseContent(scopeBrace)
	if err != nil {
		return err
	}
	if s.peek() != '}' {
		return s.errorAt(UnbalancedDelimiter, open, "block is not closed")
	}
	s.advance()
	end := "}" + p.readCloserTail()

	if containsMarkup(content) {
		g.add(&JsBlock{
			Position:  pos,
			StartCode: header + " {",
			Content:   content,
			EndCode:   end,
		})
	} else {
		g.addCode(pos, start.pos, s.pos)
	}
	g.afterRegion = true
	return nil
}

// readCloserTail consumes the ")];," characters that follow the brace
// closing a region, as in "});", and returns them without the blanks
// between them. Blanks not followed by one of them are left in place.
func (p *Parser) readCloserTail() string {
	s := p.s
	var tail strings.Builder
	for {
		st := s.mark()
		s.skipSpaces()
		if s.eof() || strings.IndexByte(")];,", s.peek()) < 0 {
			s.reset(st)
			return tail.String()
		}
		tail.WriteByte(s.advance())
	}
}

func (p *Parser) parsePlainCode(g *segment, blankStart scanState) error {
	if p.dialect == DialectCode {
		return p.parseCodeStatements(g)
	}
	return p.parseTextRun(g, blankStart)
}

// parseTemplateHead reads "$template name(args)" and leaves the cursor on
// the opening brace of the region.
func (p *Parser) parseTemplateHead() (string, error) {
	s := p.s
	s.advanceN(len("$template"))
	if _, err := s.skipTrivia(); err != nil {
		return "", err
	}
	name := s.readIdentifier()
	if name == "" {
		return "", s.errorf(InvalidArgumentList, "expected template name, found %s", describe(s))
	}
	if _, err := s.skipTrivia(); err != nil {
		return "", err
	}
	if s.peek() != '(' {
		return "", s.errorf(InvalidArgumentList, "expected ( after template name, found %s", describe(s))
	}
	args, err := p.parseArguments()
	if err != nil {
		return "", err
	}
	if _, err := s.skipTrivia(); err != nil {
		return "", err
	}
	if s.peek() != '{' {
		return "", s.errorf(InvalidArgumentList, "expected { after template arguments, found %s", describe(s))
	}
	return "$template " + name + " (" + FormatArguments(args) + ")", nil
}

// findRegionBrace returns the offset of the brace opening the region of
// the control head at the cursor, or -1 when the head has no region. The
// region brace follows a closing paren, else or do at the top level, or
// the arrow of an iteration callback. Other braces are skipped whole.
func (p *Parser) findRegionBrace(keyword string) (int, error) {
	s := p.s
	st := s.mark()
	defer s.reset(st)

	s.advanceN(len(keyword))
	prev := keyword
	depth := 0
	for !s.eof() {
		ch := s.peek()
		switch {
		case ch == '\n':
			if depth == 0 && (p.dialect == DialectText || p.statementsEndAfterLine()) {
				return -1, nil
			}
			s.advance()
		case isSpace(ch):
			s.advance()
		case s.atComment():
			if err := s.skipComment(); err != nil {
				return -1, err
			}
		case isQuote(ch):
			if _, _, err := s.readString(); err != nil {
				return -1, nil
			}
			prev = "string"
		case ch == '{':
			if depth == 0 && (prev == ")" || prev == "else" || prev == "$else" || prev == "do") ||
				prev == "=>" && depth == 1 && keyword == "$each" {
				return s.pos, nil
			}
			if _, err := s.readBalanced(); err != nil {
				return -1, err
			}
			prev = "}"
		case ch == '(' || ch == '[':
			depth++
			s.advance()
			prev = string(ch)
		case ch == ')' || ch == ']':
			if depth == 0 {
				return -1, nil
			}
			depth--
			s.advance()
			prev = ")"
		case depth == 0 && (ch == ';' || ch == '}'):
			return -1, nil
		case ch == '=' && s.peekN(1) == '>':
			s.advanceN(2)
			prev = "=>"
		case isIdentStart(ch):
			prev = s.readIdentifier()
		default:
			s.advance()
			prev = string(ch)
		}
	}
	return -1, nil
}
