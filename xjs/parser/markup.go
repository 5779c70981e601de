package parser

import "strings"

const cdataClose = "</!cdata>"

// parseMarkup dispatches on the sigil following '<'.
func (p *Parser) parseMarkup() (Node, error) {
	s := p.s
	open := s.mark()
	pos := s.Position()
	s.advance()

	switch ch := s.peek(); {
	case ch == '!':
		s.advance()
		if s.hasWord("cdata") {
			s.advanceN(len("cdata"))
			return p.parseCData(pos, open)
		}
		n := &Fragment{Position: pos}
		content, err := p.parseTag(&n.Attributes, open)
		if err != nil {
			return nil, err
		}
		n.Content = content
		return n, nil

	case ch == '*':
		s.advance()
		n := &Component{Position: pos, Ref: s.readRef()}
		if n.Ref == "" {
			return nil, s.errorf(UnknownSigil, "expected component reference after <*, found %s", describe(s))
		}
		content, err := p.parseTag(&n.Attributes, open)
		if err != nil {
			return nil, err
		}
		n.Content = content
		return n, nil

	case ch == '@':
		s.advance()
		n := &DecoratorNode{Position: pos, Ref: s.readRef()}
		if n.Ref == "" {
			return nil, s.errorf(UnknownSigil, "expected decorator reference after <@, found %s", describe(s))
		}
		content, err := p.parseTag(&n.Attributes, open)
		if err != nil {
			return nil, err
		}
		n.Content = content
		return n, nil

	case ch == '.':
		s.advance()
		n := &ParamNode{Position: pos}
		if s.peek() == '{' {
			expr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			n.NameExpression = expr
		} else if n.Name = s.readIdentifier(); n.Name == "" {
			return nil, s.errorf(UnknownSigil, "expected param name after <., found %s", describe(s))
		}
		content, err := p.parseTag(&n.Attributes, open)
		if err != nil {
			return nil, err
		}
		n.Content = content
		return n, nil

	case ch == '{':
		n := &Element{Position: pos}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		n.NameExpression = expr
		content, err := p.parseTag(&n.Attributes, open)
		if err != nil {
			return nil, err
		}
		n.Content = content
		return n, nil

	case isIdentStart(ch):
		n := &Element{Position: pos, Name: p.readTagName()}
		content, err := p.parseTag(&n.Attributes, open)
		if err != nil {
			return nil, err
		}
		n.Content = content
		return n, nil
	}
	return nil, s.errorAt(UnknownSigil, open, "unknown markup sigil %s", describe(s))
}

func (p *Parser) readTagName() string {
	s := p.s
	start := s.pos
	for isIdentPart(s.peek()) || s.peek() == '-' || s.peek() == ':' {
		s.advance()
	}
	return s.input[start:s.pos]
}

// parseTag reads the attribute list and, unless the tag self-closes, the
// content and the closing tag. A nil result means self-closing.
func (p *Parser) parseTag(attrs *Attributes, open scanState) ([]Node, error) {
	s := p.s
	if err := p.parseAttributes(attrs, attrsTag, open); err != nil {
		return nil, err
	}
	if s.hasPrefix("/>") {
		s.advanceN(2)
		return nil, nil
	}
	s.advance()

	content, err := p.parseContent(scopeMarkup)
	if err != nil {
		return nil, err
	}
	if !s.hasPrefix("</") {
		return nil, s.errorAt(UnterminatedMarkup, open, "missing closing tag")
	}
	return content, p.skipCloseTag()
}

// skipCloseTag consumes </...>. The name is not checked: a closing tag
// always closes the nearest open one.
func (p *Parser) skipCloseTag() error {
	s := p.s
	start := s.mark()
	s.advanceN(2)
	for !s.eof() && s.peek() != '>' {
		if s.peek() == '<' || s.peek() == '\n' {
			break
		}
		s.advance()
	}
	if s.peek() != '>' {
		return s.errorAt(UnterminatedMarkup, start, "closing tag is not terminated")
	}
	s.advance()
	return nil
}

// parseCData reads <!cdata ...> whose content is kept as one verbatim
// text node up to </!cdata>.
func (p *Parser) parseCData(pos Position, open scanState) (Node, error) {
	s := p.s
	n := &Element{Position: pos, Name: "!cdata"}
	if err := p.parseAttributes(&n.Attributes, attrsTag, open); err != nil {
		return nil, err
	}
	if s.hasPrefix("/>") {
		s.advanceN(2)
		return n, nil
	}
	s.advance()

	textPos := s.Position()
	end := strings.Index(s.input[s.pos:], cdataClose)
	if end < 0 {
		return nil, s.errorAt(UnterminatedMarkup, open, "missing %s", cdataClose)
	}
	raw := s.input[s.pos : s.pos+end]
	s.advanceN(end + len(cdataClose))
	n.Content = []Node{&TextNode{Position: textPos, TextFragments: []string{raw}}}
	return n, nil
}

// parseDelimitedText reads # ... # text. An attribute block may follow
// the opening marker: #(#label @deco) text #.
func (p *Parser) parseDelimitedText() (*TextNode, error) {
	s := p.s
	open := s.mark()
	text := &TextNode{Position: s.Position(), Delimited: true}
	s.advance()

	st := s.mark()
	s.skipWhitespace()
	if s.peek() == '(' && p.textAttributesAhead() {
		blockOpen := s.mark()
		s.advance()
		var bag Attributes
		if err := p.parseAttributes(&bag, attrsText, blockOpen); err != nil {
			return nil, err
		}
		s.advance()
		text.Labels, text.Decorators = bag.Labels, bag.Decorators
	} else {
		s.reset(st)
	}

	var buf strings.Builder
	for {
		if s.eof() {
			return nil, s.errorAt(UnterminatedMarkup, open, "text is not closed with #")
		}
		switch ch := s.peek(); ch {
		case '#':
			s.advance()
			text.TextFragments = append(text.TextFragments, buf.String())
			return text, nil
		case '\\':
			buf.WriteByte(s.advance())
			if !s.eof() {
				buf.WriteByte(s.advance())
			}
		case '{':
			expr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			text.TextFragments = append(text.TextFragments, buf.String())
			text.Expressions = append(text.Expressions, expr)
			buf.Reset()
		default:
			buf.WriteByte(s.advance())
		}
	}
}

func (p *Parser) textAttributesAhead() bool {
	s := p.s
	st := s.mark()
	defer s.reset(st)
	s.advance()
	s.skipWhitespace()
	return s.peek() == '#' || s.peek() == '@'
}

// parseImplicitText reads bare text. Blank runs collapse to one space;
// the run stops at markup, at a closing brace or at $code.
func (p *Parser) parseImplicitText() (*TextNode, error) {
	s := p.s
	text := &TextNode{Position: s.Position()}
	var buf strings.Builder
	for !s.eof() {
		ch := s.peek()
		if ch == '<' || ch == '}' || s.atDollarCode() {
			break
		}
		switch {
		case isSpace(ch):
			s.skipWhitespace()
			buf.WriteByte(' ')
		case ch == '\\':
			buf.WriteByte(s.advance())
			if !s.eof() {
				buf.WriteByte(s.advance())
			}
		case ch == '$' && s.peekN(1) == '$':
			// $$name is literal text, not code.
			buf.WriteString("$$")
			s.advanceN(2)
		case ch == '{':
			expr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			text.TextFragments = append(text.TextFragments, buf.String())
			text.Expressions = append(text.Expressions, expr)
			buf.Reset()
		default:
			buf.WriteByte(s.advance())
		}
	}
	text.TextFragments = append(text.TextFragments, buf.String())
	return text, nil
}

// atDollarCode reports whether the cursor is on $name, which starts host
// code in the text dialect.
func (s *Scanner) atDollarCode() bool {
	return s.peek() == '$' && isIdentStart(s.peekN(1)) && s.peekN(1) != '$'
}

// atMarkupStart reports whether the cursor is on a tag opener such as
// "<p", "<*ref" or "</". A "<" before a blank or digit is an operator.
func (s *Scanner) atMarkupStart() bool {
	if s.peek() != '<' {
		return false
	}
	ch := s.peekN(1)
	return strings.IndexByte("/*@.!", ch) >= 0 || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z'
}

// isBlankText reports whether a text node holds nothing but blanks.
func isBlankText(t *TextNode) bool {
	return len(t.Expressions) == 0 && strings.Trim(t.TextFragments[0], " \t\n\r\f") == ""
}
