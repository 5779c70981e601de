package parser

import "testing"

func TestParseMarkupSigils(t *testing.T) {
	tests := []struct {
		src  string
		kind NodeKind
		name string
	}{
		{"<div/>", KindElement, "div"},
		{"<my-widget/>", KindElement, "my-widget"},
		{"<svg:rect/>", KindElement, "svg:rect"},
		{"<!/>", KindFragment, ""},
		{"<*b.section/>", KindComponent, "b.section"},
		{"<@b.tooltip/>", KindDecoratorNode, "b.tooltip"},
		{"<.header/>", KindParamNode, "header"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			nodes := parseContent(t, tt.src, DialectCode)
			expectKinds(t, nodes, tt.kind)
			var name string
			switch n := nodes[0].(type) {
			case *Element:
				name = n.Name
			case *Component:
				name = n.Ref
			case *DecoratorNode:
				name = n.Ref
			case *ParamNode:
				name = n.Name
			}
			if name != tt.name {
				t.Errorf("name = %q, want %q", name, tt.name)
			}
			if Children(nodes[0]) != nil {
				t.Errorf("expected self-closing node")
			}
		})
	}
}

func TestParseNameExpressions(t *testing.T) {
	nodes := parseContent(t, "<{tag} a=1/><.{slot}/>", DialectCode)
	expectKinds(t, nodes, KindElement, KindParamNode)

	el := nodes[0].(*Element)
	if el.Name != "" || el.NameExpression == nil || el.NameExpression.Code != "tag" {
		t.Errorf("element = %+v", *el)
	}
	prm := nodes[1].(*ParamNode)
	if prm.Name != "" || prm.NameExpression == nil || prm.NameExpression.Code != "slot" {
		t.Errorf("param node = %+v", *prm)
	}
}

func TestParseNestedContent(t *testing.T) {
	nodes := parseContent(t, "<*b.section title='x'>\n  <.header> #Title# </.header>\n  <div></div>\n</>", DialectCode)
	expectKinds(t, nodes, KindComponent)

	cpt := nodes[0].(*Component)
	expectKinds(t, cpt.Content, KindParamNode, KindElement)

	header := cpt.Content[0].(*ParamNode)
	expectKinds(t, header.Content, KindTextNode)
	if frags := header.Content[0].(*TextNode).TextFragments; len(frags) != 1 || frags[0] != "Title" {
		t.Errorf("text fragments = %q", frags)
	}

	div := cpt.Content[1].(*Element)
	if div.Content == nil || len(div.Content) != 0 {
		t.Errorf("expected empty non-nil content, got %#v", div.Content)
	}
}

func TestParseCData(t *testing.T) {
	nodes := parseContent(t, "<!cdata a=1> <div> {x} #y# </!cdata>", DialectCode)
	expectKinds(t, nodes, KindElement)

	el := nodes[0].(*Element)
	if el.Name != "!cdata" || len(el.Params) != 1 {
		t.Fatalf("element = %+v", *el)
	}
	expectKinds(t, el.Content, KindTextNode)
	text := el.Content[0].(*TextNode)
	if len(text.TextFragments) != 1 || text.TextFragments[0] != " <div> {x} #y# " {
		t.Errorf("cdata text = %q", text.TextFragments)
	}
}

func TestParseDelimitedText(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		fragments []string
		exprs     []string
		labels    int
		decos     int
	}{
		{"plain", "# Hello #", []string{" Hello "}, nil, 0, 0},
		{"expressions", "#Hello {name}!#", []string{"Hello ", "!"}, []string{"name"}, 0, 0},
		{"adjacent expressions", "#{a}{b}#", []string{"", "", ""}, []string{"a", "b"}, 0, 0},
		{"escapes", `#a \# b \{c\}#`, []string{`a \# b \{c\}`}, nil, 0, 0},
		{"attributes", "#(#lbl @deco) Hello {name}! #", []string{" Hello ", "! "}, []string{"name"}, 1, 1},
		{"parenthesis text", "#(not attributes)#", []string{"(not attributes)"}, nil, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes := parseContent(t, tt.src, DialectCode)
			expectKinds(t, nodes, KindTextNode)
			text := nodes[0].(*TextNode)
			if !text.Delimited {
				t.Error("expected delimited text")
			}
			if len(text.TextFragments) != len(tt.fragments) {
				t.Fatalf("fragments = %q, want %q", text.TextFragments, tt.fragments)
			}
			for i := range tt.fragments {
				if text.TextFragments[i] != tt.fragments[i] {
					t.Errorf("fragment[%d] = %q, want %q", i, text.TextFragments[i], tt.fragments[i])
				}
			}
			if len(text.Expressions) != len(tt.exprs) {
				t.Fatalf("got %d expressions, want %d", len(text.Expressions), len(tt.exprs))
			}
			for i := range tt.exprs {
				if text.Expressions[i].Code != tt.exprs[i] {
					t.Errorf("expression[%d] = %q, want %q", i, text.Expressions[i].Code, tt.exprs[i])
				}
			}
			if len(text.Labels) != tt.labels || len(text.Decorators) != tt.decos {
				t.Errorf("got %d labels and %d decorators", len(text.Labels), len(text.Decorators))
			}
		})
	}
}

func TestParseTextAttributesRejectParams(t *testing.T) {
	_, err := Parse("#(#a title='x') text#", WithContentOnly())
	expectErrorKind(t, err, MalformedAttribute)
}

func TestParseImplicitText(t *testing.T) {
	nodes := parseContent(t, "Hello {name} <b>x</b>", DialectText)
	expectKinds(t, nodes, KindTextNode, KindElement)

	text := nodes[0].(*TextNode)
	if text.Delimited {
		t.Error("implicit text must not be delimited")
	}
	if len(text.TextFragments) != 2 || text.TextFragments[0] != "Hello " || text.TextFragments[1] != " " {
		t.Errorf("fragments = %q", text.TextFragments)
	}

	b := nodes[1].(*Element)
	expectKinds(t, b.Content, KindTextNode)
	if frags := b.Content[0].(*TextNode).TextFragments; frags[0] != "x" {
		t.Errorf("inner text = %q", frags)
	}
}

func TestParseImplicitTextCollapsesBlanks(t *testing.T) {
	nodes := parseContent(t, "<p>\n    two\n    lines\n</p>", DialectText)
	p := nodes[0].(*Element)
	expectKinds(t, p.Content, KindTextNode)
	if frags := p.Content[0].(*TextNode).TextFragments; frags[0] != " two lines " {
		t.Errorf("fragments = %q, want %q", frags, []string{" two lines "})
	}
}

func TestParseDollarEscapes(t *testing.T) {
	nodes := parseContent(t, "costs $$5 or $ 6", DialectText)
	expectKinds(t, nodes, KindTextNode)
	if frags := nodes[0].(*TextNode).TextFragments; frags[0] != "costs $$5 or $ 6" {
		t.Errorf("fragments = %q", frags)
	}
}

func TestParseDoubleDollarBeforeName(t *testing.T) {
	nodes := parseContent(t, "<p>price $$total here</p>", DialectText)
	p := nodes[0].(*Element)
	expectKinds(t, p.Content, KindTextNode)
	if frags := p.Content[0].(*TextNode).TextFragments; frags[0] != "price $$total here" {
		t.Errorf("fragments = %q, want %q", frags, []string{"price $$total here"})
	}
}
