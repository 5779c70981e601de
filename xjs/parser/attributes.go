package parser

import (
	"strconv"
	"strings"
)

type attrContext int

const (
	// attrsTag ends at > or />.
	attrsTag attrContext = iota
	// attrsDecorator ends at ) and accepts the full grammar.
	attrsDecorator
	// attrsText ends at ) and accepts labels and decorators only.
	attrsText
)

// parseAttributes fills bag until the terminator of ctx, leaving the
// scanner on it. Decorator arguments recurse with the same bag shape.
func (p *Parser) parseAttributes(bag *Attributes, ctx attrContext, open scanState) error {
	s := p.s
	for {
		if _, err := s.skipTrivia(); err != nil {
			return err
		}
		if s.eof() {
			if ctx == attrsTag {
				return s.errorAt(UnterminatedMarkup, open, "tag is not closed")
			}
			return s.errorAt(UnbalancedDelimiter, open, "attribute list is not closed")
		}

		ch := s.peek()
		if ctx == attrsTag && (ch == '>' || s.hasPrefix("/>")) {
			return nil
		}
		if ctx != attrsTag && ch == ')' {
			return nil
		}
		if ctx == attrsText && ch != '#' && ch != '@' {
			return s.errorf(MalformedAttribute, "only labels and decorators may annotate text, found %q", ch)
		}

		switch {
		case ch == '#':
			label, err := p.parseLabel()
			if err != nil {
				return err
			}
			bag.Labels = append(bag.Labels, label)
		case ch == '@':
			deco, err := p.parseDecorator()
			if err != nil {
				return err
			}
			bag.Decorators = append(bag.Decorators, deco)
		case ch == '[':
			prop, err := p.parseProperty()
			if err != nil {
				return err
			}
			bag.Properties = append(bag.Properties, prop)
		case ch == '{':
			if err := p.parseBraceAttribute(bag); err != nil {
				return err
			}
		case isIdentStart(ch):
			param := &Param{Name: p.readAttrName()}
			value, ok, err := p.parseOptionalValue()
			if err != nil {
				return err
			}
			param.Value, param.Orphan = value, !ok
			bag.Params = append(bag.Params, param)
		default:
			return s.errorf(MalformedAttribute, "unexpected %q in attribute list", ch)
		}
	}
}

func (p *Parser) parseLabel() (*Label, error) {
	s := p.s
	s.advance()
	label := &Label{}
	if s.peek() == '#' {
		label.Forward = true
		s.advance()
	}
	if label.Name = p.readAttrName(); label.Name == "" {
		return nil, s.errorf(MalformedAttribute, "expected label name, found %s", describe(s))
	}
	value, ok, err := p.parseOptionalValue()
	if err != nil {
		return nil, err
	}
	label.Value, label.Orphan = value, !ok
	return label, nil
}

func (p *Parser) parseDecorator() (*Decorator, error) {
	s := p.s
	s.advance()
	deco := &Decorator{Ref: s.readRef()}
	if deco.Ref == "" {
		return nil, s.errorf(MalformedAttribute, "expected decorator reference, found %s", describe(s))
	}
	if s.peek() == '(' {
		open := s.mark()
		s.advance()
		if err := p.parseAttributes(&deco.Attributes, attrsDecorator, open); err != nil {
			return nil, err
		}
		s.advance()
		return deco, nil
	}
	value, ok, err := p.parseOptionalValue()
	if err != nil {
		return nil, err
	}
	if ok {
		deco.HasDefaultValue, deco.DefaultValue = true, value
	} else {
		deco.Orphan = true
	}
	return deco, nil
}

func (p *Parser) parseProperty() (*Property, error) {
	s := p.s
	s.advance()
	s.skipWhitespace()
	prop := &Property{Name: p.readAttrName()}
	if prop.Name == "" {
		return nil, s.errorf(MalformedAttribute, "expected property name, found %s", describe(s))
	}
	s.skipWhitespace()
	if s.peek() != ']' {
		return nil, s.errorf(MalformedAttribute, "expected ] after property name, found %s", describe(s))
	}
	s.advance()
	value, ok, err := p.parseOptionalValue()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.errorf(MalformedAttribute, "property [%s] has no value", prop.Name)
	}
	prop.Value = value
	return prop, nil
}

// parseBraceAttribute handles spreads ({...expr}, {...[expr]}) and
// binding shorthands ({name}, {::name}, {[name]}, {::[name]}), which are
// expanded into their long form.
func (p *Parser) parseBraceAttribute(bag *Attributes) error {
	s := p.s
	start := s.mark()
	pos := s.Position()
	inner, err := s.readBalanced()
	if err != nil {
		return err
	}
	code := strings.TrimSpace(inner)

	if rest, ok := strings.CutPrefix(code, "..."); ok {
		rest = strings.TrimSpace(rest)
		isProperty := strings.HasPrefix(rest, "[") && strings.HasSuffix(rest, "]")
		if isProperty {
			rest = rest[1 : len(rest)-1]
		}
		expr := &Expression{Position: pos, Code: canonicalCode(rest)}
		if expr.Code == "" {
			return s.errorAt(MalformedAttribute, start, "empty spread expression")
		}
		if isProperty {
			bag.Properties = append(bag.Properties, &Property{Spread: true, Value: expr})
		} else {
			bag.Params = append(bag.Params, &Param{Spread: true, Value: expr})
		}
		return nil
	}

	oneTime := false
	if rest, ok := strings.CutPrefix(code, "::"); ok {
		oneTime = true
		code = strings.TrimSpace(rest)
	}
	isProperty := strings.HasPrefix(code, "[") && strings.HasSuffix(code, "]")
	if isProperty {
		code = strings.TrimSpace(code[1 : len(code)-1])
	}
	if !isName(code) {
		return s.errorAt(MalformedAttribute, start, "invalid binding shorthand {%s}", inner)
	}
	expr := &Expression{Position: pos, Code: code, OneTime: oneTime}
	if isProperty {
		bag.Properties = append(bag.Properties, &Property{Name: code, Value: expr})
	} else {
		bag.Params = append(bag.Params, &Param{Name: code, Value: expr})
	}
	return nil
}

// parseOptionalValue parses "= value" if present.
func (p *Parser) parseOptionalValue() (Value, bool, error) {
	s := p.s
	st := s.mark()
	if _, err := s.skipTrivia(); err != nil {
		return nil, false, err
	}
	if s.peek() != '=' {
		s.reset(st)
		return nil, false, nil
	}
	s.advance()
	if _, err := s.skipTrivia(); err != nil {
		return nil, false, err
	}
	value, err := p.parseValue()
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (p *Parser) parseValue() (Value, error) {
	s := p.s
	ch := s.peek()
	switch {
	case ch == '"' || ch == '\'':
		content, quote, err := s.readString()
		if err != nil {
			return nil, err
		}
		return String{Value: content, Quote: quote}, nil
	case ch == '{':
		return p.parseExpression()
	case s.hasWord("true"):
		s.advanceN(4)
		return Boolean(true), nil
	case s.hasWord("false"):
		s.advanceN(5)
		return Boolean(false), nil
	case isDigit(ch) || ch == '-' || ch == '+' || ch == '.' && isDigit(s.peekN(1)):
		start := s.mark()
		lexeme := p.readNumber()
		n, err := strconv.ParseFloat(lexeme, 64)
		if err != nil {
			return nil, s.errorAt(MalformedAttribute, start, "invalid number %q", lexeme)
		}
		return Number(n), nil
	}
	return nil, s.errorf(MalformedAttribute, "invalid attribute value starting with %s", describe(s))
}

func (p *Parser) readNumber() string {
	s := p.s
	start := s.pos
	if s.peek() == '-' || s.peek() == '+' {
		s.advance()
	}
	for isDigit(s.peek()) {
		s.advance()
	}
	if s.peek() == '.' {
		s.advance()
		for isDigit(s.peek()) {
			s.advance()
		}
	}
	if s.peek() == 'e' || s.peek() == 'E' {
		s.advance()
		if s.peek() == '-' || s.peek() == '+' {
			s.advance()
		}
		for isDigit(s.peek()) {
			s.advance()
		}
	}
	return s.input[start:s.pos]
}

// parseExpression reads {code}, {::code}, {=code} or the arrow shorthand
// {=>code}, which stands for ()=>code.
func (p *Parser) parseExpression() (*Expression, error) {
	s := p.s
	start := s.mark()
	expr := &Expression{Position: s.Position()}
	inner, err := s.readBalanced()
	if err != nil {
		return nil, err
	}
	code := strings.TrimLeft(inner, " \t\r\n")
	if rest, ok := strings.CutPrefix(code, "::"); ok {
		expr.OneTime = true
		code = strings.TrimLeft(rest, " \t\r\n")
	}
	switch {
	case strings.HasPrefix(code, "=>"):
		code = "()" + code
	case strings.HasPrefix(code, "=") && !strings.HasPrefix(code, "=="):
		expr.Binding = true
		code = code[1:]
	}
	if expr.Code = canonicalCode(code); expr.Code == "" {
		return nil, s.errorAt(MalformedAttribute, start, "empty expression")
	}
	return expr, nil
}

// readAttrName reads names such as aria-label.
func (p *Parser) readAttrName() string {
	s := p.s
	start := s.pos
	if !isIdentStart(s.peek()) {
		return ""
	}
	for isIdentPart(s.peek()) || s.peek() == '-' {
		s.advance()
	}
	return s.input[start:s.pos]
}

func (s *Scanner) hasWord(word string) bool {
	return s.hasPrefix(word) && !isIdentPart(s.peekN(len(word)))
}

func isName(code string) bool {
	if code == "" || !isIdentStart(code[0]) {
		return false
	}
	for i := 1; i < len(code); i++ {
		if !isIdentPart(code[i]) {
			return false
		}
	}
	return true
}
