package format

import (
	"io"

	"github.com/goccy/go-json"

	"github.com/dhamidi/xjs/xjs/parser"
)

type ASTJSONEncoder struct {
	w io.Writer
}

func NewASTJSONEncoder(w io.Writer) *ASTJSONEncoder {
	return &ASTJSONEncoder{w: w}
}

func (e *ASTJSONEncoder) Encode(root parser.Node) error {
	text, err := e.MarshalText(root)
	if err != nil {
		return err
	}
	if _, err := e.w.Write(text); err != nil {
		return err
	}
	_, err = io.WriteString(e.w, "\n")
	return err
}

func (e *ASTJSONEncoder) MarshalText(root parser.Node) ([]byte, error) {
	return json.MarshalIndent(nodeToJSON(root), "", "  ")
}

type astJSONNode struct {
	Kind           string          `json:"kind"`
	Position       astJSONPosition `json:"position"`
	Name           string          `json:"name,omitempty"`
	NameExpression *astJSONNode    `json:"nameExpression,omitempty"`
	Ref            string          `json:"ref,omitempty"`
	Arguments      []astJSONArg    `json:"arguments,omitempty"`
	Indent         string          `json:"indent,omitempty"`
	Attributes     *astJSONAttrs   `json:"attributes,omitempty"`
	TextFragments  []string        `json:"textFragments,omitempty"`
	Expressions    []*astJSONNode  `json:"expressions,omitempty"`
	Code           string          `json:"code,omitempty"`
	OneTime        bool            `json:"oneTime,omitempty"`
	Binding        bool            `json:"binding,omitempty"`
	StartCode      string          `json:"startCode,omitempty"`
	EndCode        string          `json:"endCode,omitempty"`
	SelfClosing    bool            `json:"selfClosing,omitempty"`
	Content        []*astJSONNode  `json:"content,omitempty"`
}

type astJSONPosition struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type astJSONArg struct {
	Name         string `json:"name"`
	Optional     bool   `json:"optional,omitempty"`
	Type         string `json:"type,omitempty"`
	DefaultValue string `json:"defaultValue,omitempty"`
}

type astJSONAttrs struct {
	Labels     []astJSONAttr `json:"labels,omitempty"`
	Params     []astJSONAttr `json:"params,omitempty"`
	Properties []astJSONAttr `json:"properties,omitempty"`
	Decorators []astJSONAttr `json:"decorators,omitempty"`
}

type astJSONAttr struct {
	Name       string        `json:"name,omitempty"`
	Forward    bool          `json:"forward,omitempty"`
	Orphan     bool          `json:"orphan,omitempty"`
	Spread     bool          `json:"spread,omitempty"`
	Value      any           `json:"value,omitempty"`
	Attributes *astJSONAttrs `json:"attributes,omitempty"`
}

type astJSONValue struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
	Quote string `json:"quote,omitempty"`
}

func nodeToJSON(n parser.Node) *astJSONNode {
	pos := n.Pos()
	jn := &astJSONNode{
		Kind:     n.Kind().String(),
		Position: astJSONPosition{Line: pos.Line, Column: pos.Column},
	}

	switch n := n.(type) {
	case *parser.TplFunction:
		for _, arg := range n.Arguments {
			jn.Arguments = append(jn.Arguments, astJSONArg{
				Name:         arg.Name,
				Optional:     arg.Optional,
				Type:         arg.TypeRef,
				DefaultValue: arg.DefaultValue,
			})
		}
		jn.Indent = n.Indent
	case *parser.Fragment:
		jn.Attributes = attrsToJSON(&n.Attributes)
	case *parser.Element:
		jn.Name = n.Name
		if n.NameExpression != nil {
			jn.NameExpression = nodeToJSON(n.NameExpression)
		}
		jn.Attributes = attrsToJSON(&n.Attributes)
	case *parser.Component:
		jn.Ref = n.Ref
		jn.Attributes = attrsToJSON(&n.Attributes)
	case *parser.DecoratorNode:
		jn.Ref = n.Ref
		jn.Attributes = attrsToJSON(&n.Attributes)
	case *parser.ParamNode:
		jn.Name = n.Name
		if n.NameExpression != nil {
			jn.NameExpression = nodeToJSON(n.NameExpression)
		}
		jn.Attributes = attrsToJSON(&n.Attributes)
	case *parser.TextNode:
		jn.TextFragments = n.TextFragments
		for _, expr := range n.Expressions {
			jn.Expressions = append(jn.Expressions, nodeToJSON(expr))
		}
		jn.Attributes = attrsToJSON(&parser.Attributes{Labels: n.Labels, Decorators: n.Decorators})
	case *parser.Expression:
		jn.Code = n.Code
		jn.OneTime = n.OneTime
		jn.Binding = n.Binding
	case *parser.JsStatements:
		jn.Code = n.Code
	case *parser.JsBlock:
		jn.StartCode = n.StartCode
		jn.EndCode = n.EndCode
	}

	children := parser.Children(n)
	switch n.(type) {
	case *parser.Fragment, *parser.Element, *parser.Component, *parser.DecoratorNode, *parser.ParamNode:
		jn.SelfClosing = children == nil
	}
	for _, child := range children {
		jn.Content = append(jn.Content, nodeToJSON(child))
	}
	return jn
}

func attrsToJSON(a *parser.Attributes) *astJSONAttrs {
	if a.Empty() {
		return nil
	}
	ja := &astJSONAttrs{}
	for _, l := range a.Labels {
		ja.Labels = append(ja.Labels, astJSONAttr{Name: l.Name, Forward: l.Forward, Orphan: l.Orphan, Value: valueToJSON(l.Value)})
	}
	for _, prm := range a.Params {
		ja.Params = append(ja.Params, astJSONAttr{Name: prm.Name, Spread: prm.Spread, Orphan: prm.Orphan, Value: valueToJSON(prm.Value)})
	}
	for _, prop := range a.Properties {
		ja.Properties = append(ja.Properties, astJSONAttr{Name: prop.Name, Spread: prop.Spread, Value: valueToJSON(prop.Value)})
	}
	for _, d := range a.Decorators {
		jd := astJSONAttr{Name: d.Ref, Orphan: d.Orphan, Attributes: attrsToJSON(&d.Attributes)}
		if d.HasDefaultValue {
			jd.Value = valueToJSON(d.DefaultValue)
		}
		ja.Decorators = append(ja.Decorators, jd)
	}
	return ja
}

func valueToJSON(v parser.Value) any {
	switch v := v.(type) {
	case parser.Boolean:
		return astJSONValue{Type: "boolean", Value: bool(v)}
	case parser.Number:
		return astJSONValue{Type: "number", Value: float64(v)}
	case parser.String:
		return astJSONValue{Type: "string", Value: v.Value, Quote: string(rune(v.Quote))}
	case *parser.Expression:
		return nodeToJSON(v)
	}
	return nil
}
