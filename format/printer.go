package format

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dhamidi/xjs/xjs/parser"
)

const defaultIncrement = "    "

// asciiBlanks are the blanks collapsed by the parser. Other spaces such
// as U+00A0 are text.
const asciiBlanks = " \t\n\r\f"

type PrinterOption func(*Printer)

// WithIndent sets the base indent written in front of every line.
func WithIndent(base string) PrinterOption {
	return func(p *Printer) {
		p.base = base
	}
}

// WithIncrement sets the indent added per nesting level.
func WithIncrement(step string) PrinterOption {
	return func(p *Printer) {
		p.step = step
	}
}

// Printer renders a tree in canonical form. With an empty base and an
// empty increment the output is compact: no line breaks between nodes.
type Printer struct {
	w     io.Writer
	base  string
	step  string
	level int
	sb    strings.Builder
	err   error
}

func NewPrinter(w io.Writer, opts ...PrinterOption) *Printer {
	p := &Printer{w: w}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ToString renders root with the given base indent and a four space
// increment, or compactly when baseIndent is empty.
func ToString(root parser.Node, baseIndent string) (string, error) {
	step := defaultIncrement
	if baseIndent == "" {
		step = ""
	}
	var sb strings.Builder
	if err := NewPrinter(&sb, WithIndent(baseIndent), WithIncrement(step)).Print(root); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (p *Printer) Print(root parser.Node) error {
	p.reset(0)
	p.newline()
	p.printNode(root)
	return p.flush()
}

// PrintContent renders siblings at the top level, the way the content of
// a content-only file is laid out.
func (p *Printer) PrintContent(nodes []parser.Node) error {
	p.reset(-1)
	p.printContent(nodes)
	return p.flush()
}

func (p *Printer) reset(level int) {
	p.sb.Reset()
	p.err = nil
	p.level = level
}

func (p *Printer) flush() error {
	if p.err != nil {
		return p.err
	}
	_, err := io.WriteString(p.w, p.sb.String())
	return err
}

func (p *Printer) lineMode() bool {
	return p.base != "" || p.step != ""
}

func (p *Printer) write(s string) {
	p.sb.WriteString(s)
}

func (p *Printer) newline() {
	if !p.lineMode() {
		return
	}
	p.sb.WriteByte('\n')
	p.sb.WriteString(p.base)
	for i := 0; i < p.level; i++ {
		p.sb.WriteString(p.step)
	}
}

func (p *Printer) fail(n parser.Node, format string, args ...any) {
	if p.err != nil {
		return
	}
	p.err = &parser.Error{
		Kind:    parser.StructuralInvariantViolation,
		Message: fmt.Sprintf(format, args...),
		Pos:     n.Pos(),
	}
}

func (p *Printer) printNode(n parser.Node) {
	switch n := n.(type) {
	case *parser.TplFunction:
		p.write("(" + parser.FormatArguments(n.Arguments) + ") => {")
		p.printContent(n.Content)
		p.newline()
		p.write("}")
	case *parser.Fragment:
		p.write("<!")
		p.printAttributes(&n.Attributes)
		p.printBody(n.Content)
	case *parser.Element:
		if n.Name == "!cdata" {
			p.printCData(n)
			return
		}
		if (n.Name == "") == (n.NameExpression == nil) {
			p.fail(n, "element needs exactly one of name and name expression")
			return
		}
		p.write("<")
		if n.NameExpression != nil {
			p.write(expression(n.NameExpression))
		} else {
			p.write(n.Name)
		}
		p.printAttributes(&n.Attributes)
		p.printBody(n.Content)
	case *parser.Component:
		if n.Ref == "" {
			p.fail(n, "component without reference")
			return
		}
		p.write("<*" + n.Ref)
		p.printAttributes(&n.Attributes)
		p.printBody(n.Content)
	case *parser.DecoratorNode:
		if n.Ref == "" {
			p.fail(n, "decorator node without reference")
			return
		}
		p.write("<@" + n.Ref)
		p.printAttributes(&n.Attributes)
		p.printBody(n.Content)
	case *parser.ParamNode:
		if (n.Name == "") == (n.NameExpression == nil) {
			p.fail(n, "param node needs exactly one of name and name expression")
			return
		}
		p.write("<.")
		if n.NameExpression != nil {
			p.write(expression(n.NameExpression))
		} else {
			p.write(n.Name)
		}
		p.printAttributes(&n.Attributes)
		p.printBody(n.Content)
	case *parser.TextNode:
		p.printText(n)
	case *parser.Expression:
		p.write(expression(n))
	case *parser.JsStatements:
		p.printCode(n.Code)
	case *parser.JsBlock:
		p.write(n.StartCode)
		p.printContent(n.Content)
		p.newline()
		p.write(n.EndCode)
	default:
		p.err = fmt.Errorf("format: unexpected node %T", n)
	}
}

func (p *Printer) printBody(content []parser.Node) {
	if content == nil {
		p.write("/>")
		return
	}
	p.write(">")
	p.printContent(content)
	if len(content) > 0 {
		p.newline()
	}
	p.write("</>")
}

// printContent writes children one level deeper, decorator nodes first.
// Continuation code such as else joins the line of the block before it.
// Compact output still breaks the line after host statements, since a
// statement runs to the end of its line.
func (p *Printer) printContent(content []parser.Node) {
	p.level++
	nodes := hoistDecorators(content)
	for i, n := range nodes {
		if i > 0 && continues(nodes[i-1], n) {
			p.write(" ")
		} else {
			p.newline()
		}
		p.printNode(n)
		if _, ok := n.(*parser.JsStatements); ok && !p.lineMode() {
			last := i == len(nodes)-1
			if last && p.level > 0 || !last && !continues(n, nodes[i+1]) {
				p.write("\n")
			}
		}
	}
	p.level--
}

func (p *Printer) printCData(n *parser.Element) {
	p.write("<!cdata")
	p.printAttributes(&n.Attributes)
	if n.Content == nil {
		p.write("/>")
		return
	}
	p.write(">")
	for _, child := range n.Content {
		text, ok := child.(*parser.TextNode)
		if !ok || len(text.Expressions) > 0 {
			p.fail(n, "cdata content must be plain text")
			return
		}
		p.write(strings.Join(text.TextFragments, ""))
	}
	p.write("</!cdata>")
}

func (p *Printer) printText(n *parser.TextNode) {
	if len(n.TextFragments) != len(n.Expressions)+1 {
		p.fail(n, "text node has %d fragments for %d expressions", len(n.TextFragments), len(n.Expressions))
		return
	}
	var body strings.Builder
	for i, frag := range n.TextFragments {
		if i > 0 {
			body.WriteString(expression(n.Expressions[i-1]))
		}
		body.WriteString(frag)
	}

	if n.Delimited || len(n.Labels) > 0 || len(n.Decorators) > 0 {
		p.write("#")
		if len(n.Labels) > 0 || len(n.Decorators) > 0 {
			items := attributeList(&parser.Attributes{Labels: n.Labels, Decorators: n.Decorators})
			p.write("(" + strings.Join(items, " ") + ")")
		}
		p.write(body.String())
		p.write("#")
		return
	}
	if p.lineMode() {
		p.write(" " + strings.Trim(body.String(), asciiBlanks) + " ")
		return
	}
	p.write(body.String())
}

// printCode writes host code with its common indentation removed.
func (p *Printer) printCode(code string) {
	for i, line := range stripIndent(code) {
		switch {
		case i == 0:
		case line == "" || !p.lineMode():
			p.write("\n")
		default:
			p.newline()
		}
		p.write(line)
	}
}

func (p *Printer) printAttributes(a *parser.Attributes) {
	for _, item := range attributeList(a) {
		p.write(" " + item)
	}
}

// attributeList renders labels, params, properties and decorators, in
// that order.
func attributeList(a *parser.Attributes) []string {
	var items []string
	for _, l := range a.Labels {
		item := "#" + l.Name
		if l.Forward {
			item = "#" + item
		}
		if !l.Orphan && l.Value != nil {
			item += "=" + value(l.Value)
		}
		items = append(items, item)
	}
	for _, prm := range a.Params {
		switch {
		case prm.Spread:
			items = append(items, "{..."+spreadCode(prm.Value)+"}")
		case prm.Orphan || prm.Value == nil:
			items = append(items, prm.Name)
		default:
			items = append(items, prm.Name+"="+value(prm.Value))
		}
	}
	for _, prop := range a.Properties {
		if prop.Spread {
			items = append(items, "{...["+spreadCode(prop.Value)+"]}")
			continue
		}
		items = append(items, "["+prop.Name+"]="+value(prop.Value))
	}
	for _, d := range a.Decorators {
		item := "@" + d.Ref
		switch {
		case d.HasDefaultValue:
			item += "=" + value(d.DefaultValue)
		case !d.Orphan:
			item += "(" + strings.Join(attributeList(&d.Attributes), " ") + ")"
		}
		items = append(items, item)
	}
	return items
}

func value(v parser.Value) string {
	switch v := v.(type) {
	case parser.Boolean:
		return strconv.FormatBool(bool(v))
	case parser.Number:
		return strconv.FormatFloat(float64(v), 'f', -1, 64)
	case parser.String:
		return quote(v.Value)
	case *parser.Expression:
		return expression(v)
	}
	return ""
}

func spreadCode(v parser.Value) string {
	if expr, ok := v.(*parser.Expression); ok {
		return expr.Code
	}
	return value(v)
}

func expression(e *parser.Expression) string {
	var b strings.Builder
	b.WriteByte('{')
	if e.OneTime {
		b.WriteString("::")
	}
	if e.Binding {
		b.WriteByte('=')
	}
	b.WriteString(e.Code)
	b.WriteByte('}')
	return b.String()
}

// quote wraps raw string content in single quotes, escaping the single
// quotes that are not escaped yet.
func quote(raw string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for i := 0; i < len(raw); i++ {
		switch ch := raw[i]; ch {
		case '\\':
			b.WriteByte(ch)
			if i+1 < len(raw) {
				i++
				b.WriteByte(raw[i])
			}
		case '\'':
			b.WriteString(`\'`)
		default:
			b.WriteByte(ch)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// hoistDecorators moves decorator nodes in front of their siblings,
// keeping the relative order of both groups.
func hoistDecorators(content []parser.Node) []parser.Node {
	hoisted := make([]parser.Node, 0, len(content))
	for _, n := range content {
		if _, ok := n.(*parser.DecoratorNode); ok {
			hoisted = append(hoisted, n)
		}
	}
	if len(hoisted) == 0 {
		return content
	}
	for _, n := range content {
		if _, ok := n.(*parser.DecoratorNode); !ok {
			hoisted = append(hoisted, n)
		}
	}
	return hoisted
}

// continues reports whether n carries on the control structure closed by
// prev, as in "} else {" or "} while (x);" after a do block.
func continues(prev, n parser.Node) bool {
	var prevCode string
	switch prev := prev.(type) {
	case *parser.JsBlock:
		prevCode = prev.StartCode
	case *parser.JsStatements:
		if !strings.HasSuffix(prev.Code, "}") {
			return false
		}
		prevCode = prev.Code
	default:
		return false
	}

	var code string
	switch n := n.(type) {
	case *parser.JsBlock:
		code = n.StartCode
	case *parser.JsStatements:
		code = n.Code
	default:
		return false
	}
	switch leadingWord(code) {
	case "else", "$else", "catch", "finally":
		return true
	case "while":
		return leadingWord(prevCode) == "do"
	}
	return false
}

func leadingWord(code string) string {
	end := 0
	for end < len(code) && (isWordChar(code[end]) || end == 0 && code[end] == '$') {
		end++
	}
	return code[:end]
}

func isWordChar(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9' || ch == '_'
}

// stripIndent splits code into lines and removes from every line after
// the first the smallest indentation found among them. Blank lines are
// emptied and do not count.
func stripIndent(code string) []string {
	lines := strings.Split(code, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t\r")
	}
	minIndent := -1
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if minIndent < 0 || n < minIndent {
			minIndent = n
		}
	}
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = lines[i][minIndent:]
		}
	}
	return lines
}
