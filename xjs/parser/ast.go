package parser

import "fmt"

type NodeKind int

const (
	KindTplFunction NodeKind = iota
	KindFragment
	KindElement
	KindComponent
	KindDecoratorNode
	KindParamNode
	KindTextNode
	KindExpression
	KindJsStatements
	KindJsBlock
)

var nodeKindNames = map[NodeKind]string{
	KindTplFunction:   "tplFunction",
	KindFragment:      "fragment",
	KindElement:       "element",
	KindComponent:     "component",
	KindDecoratorNode: "decoratorNode",
	KindParamNode:     "paramNode",
	KindTextNode:      "textNode",
	KindExpression:    "expression",
	KindJsStatements:  "jsStatements",
	KindJsBlock:       "jsBlock",
}

func (k NodeKind) String() string {
	if name, ok := nodeKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("NodeKind(%d)", k)
}

// Node is implemented by every tree node. The set of implementations is
// closed; consumers switch over the concrete types.
type Node interface {
	Kind() NodeKind
	Pos() Position
	node()
}

// Value is the closed set of attribute values: Boolean, Number, String
// and *Expression.
type Value interface {
	value()
}

type Boolean bool

type Number float64

// String keeps the literal content as written, escapes included, and the
// quote character that delimited it.
type String struct {
	Value string
	Quote byte
}

func (Boolean) value()     {}
func (Number) value()      {}
func (String) value()      {}
func (*Expression) value() {}

type Argument struct {
	Name         string
	Optional     bool
	TypeRef      string
	DefaultValue string
}

type Label struct {
	Name    string
	Forward bool
	Orphan  bool
	Value   Value
}

type Param struct {
	Name   string
	Orphan bool
	Spread bool
	Value  Value
}

type Property struct {
	Name   string
	Spread bool
	Value  Value
}

// Decorator carries its own attribute bag when written with arguments,
// as in @ref(a=1 @other).
type Decorator struct {
	Ref             string
	Orphan          bool
	HasDefaultValue bool
	DefaultValue    Value
	Attributes
}

// Attributes is the attribute bag shared by markup nodes and decorators.
type Attributes struct {
	Labels     []*Label
	Params     []*Param
	Properties []*Property
	Decorators []*Decorator
}

func (a *Attributes) Empty() bool {
	return len(a.Labels) == 0 && len(a.Params) == 0 && len(a.Properties) == 0 && len(a.Decorators) == 0
}

type TplFunction struct {
	Position  Position
	Arguments []*Argument
	Content   []Node
	Indent    string
}

type Fragment struct {
	Position Position
	Attributes
	Content []Node
}

// Element is a plain tag. Exactly one of Name and NameExpression is set.
type Element struct {
	Position       Position
	Name           string
	NameExpression *Expression
	Attributes
	Content []Node
}

type Component struct {
	Position Position
	Ref      string
	Attributes
	Content []Node
}

type DecoratorNode struct {
	Position Position
	Ref      string
	Attributes
	Content []Node
}

type ParamNode struct {
	Position       Position
	Name           string
	NameExpression *Expression
	Attributes
	Content []Node
}

// TextNode holds text interleaved with expressions:
// len(TextFragments) == len(Expressions)+1.
type TextNode struct {
	Position      Position
	TextFragments []string
	Expressions   []*Expression
	Labels        []*Label
	Decorators    []*Decorator
	Delimited     bool
}

type Expression struct {
	Position Position
	Code     string
	OneTime  bool
	Binding  bool
}

type JsStatements struct {
	Position Position
	Code     string
}

// JsBlock is a control region of host code whose body holds markup.
type JsBlock struct {
	Position  Position
	StartCode string
	Content   []Node
	EndCode   string
}

func (n *TplFunction) Kind() NodeKind   { return KindTplFunction }
func (n *Fragment) Kind() NodeKind      { return KindFragment }
func (n *Element) Kind() NodeKind       { return KindElement }
func (n *Component) Kind() NodeKind     { return KindComponent }
func (n *DecoratorNode) Kind() NodeKind { return KindDecoratorNode }
func (n *ParamNode) Kind() NodeKind     { return KindParamNode }
func (n *TextNode) Kind() NodeKind      { return KindTextNode }
func (n *Expression) Kind() NodeKind    { return KindExpression }
func (n *JsStatements) Kind() NodeKind  { return KindJsStatements }
func (n *JsBlock) Kind() NodeKind       { return KindJsBlock }

func (n *TplFunction) Pos() Position   { return n.Position }
func (n *Fragment) Pos() Position      { return n.Position }
func (n *Element) Pos() Position       { return n.Position }
func (n *Component) Pos() Position     { return n.Position }
func (n *DecoratorNode) Pos() Position { return n.Position }
func (n *ParamNode) Pos() Position     { return n.Position }
func (n *TextNode) Pos() Position      { return n.Position }
func (n *Expression) Pos() Position    { return n.Position }
func (n *JsStatements) Pos() Position  { return n.Position }
func (n *JsBlock) Pos() Position       { return n.Position }

func (*TplFunction) node()   {}
func (*Fragment) node()      {}
func (*Element) node()       {}
func (*Component) node()     {}
func (*DecoratorNode) node() {}
func (*ParamNode) node()     {}
func (*TextNode) node()      {}
func (*Expression) node()    {}
func (*JsStatements) node()  {}
func (*JsBlock) node()       {}

// Children returns the content list of n, or nil for leaves and
// self-closing nodes.
func Children(n Node) []Node {
	switch n := n.(type) {
	case *TplFunction:
		return n.Content
	case *Fragment:
		return n.Content
	case *Element:
		return n.Content
	case *Component:
		return n.Content
	case *DecoratorNode:
		return n.Content
	case *ParamNode:
		return n.Content
	case *JsBlock:
		return n.Content
	}
	return nil
}

// Inspect walks the tree in depth-first order. If f returns false the
// children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if !f(n) {
		return
	}
	for _, child := range Children(n) {
		Inspect(child, f)
	}
}

// IsMarkup reports whether n is anything other than host code.
func IsMarkup(n Node) bool {
	_, ok := n.(*JsStatements)
	return !ok
}

func containsMarkup(nodes []Node) bool {
	for _, n := range nodes {
		if IsMarkup(n) {
			return true
		}
	}
	return false
}

// BaseIndent returns the indentation of the first meaningful line of a
// template function body.
func BaseIndent(root Node) string {
	if fn, ok := root.(*TplFunction); ok {
		return fn.Indent
	}
	return ""
}
