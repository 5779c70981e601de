package format

import (
	"errors"
	"strings"
	"testing"

	"github.com/dhamidi/xjs/xjs/parser"
)

func parseContentOnly(t *testing.T, src string, d parser.Dialect) *parser.Fragment {
	t.Helper()
	root, err := parser.Parse(src, parser.WithContentOnly(), parser.WithDialect(d))
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", src, err)
	}
	return root.(*parser.Fragment)
}

// lines joins each line with a leading newline and base indent, the way
// the printer lays out nodes in line mode.
func lines(base string, ls ...string) string {
	var sb strings.Builder
	for _, l := range ls {
		sb.WriteString("\n" + base + l)
	}
	return sb.String()
}

func TestToStringNodes(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"orphan and string params", "<div foo bar='baz'/>", "<div foo bar='baz'/>"},
		{"binding shorthand", "<div {title}/>", "<div title={title}/>"},
		{"one-time shorthand", "<div {::title} {[value]}/>", "<div title={::title} [value]={value}/>"},
		{"decorator arguments", "<*cpt @foo(a=1 b={123 / 3} @disabled @bar=2)/>", "<*cpt @foo(a=1 b={123 / 3} @disabled @bar=2)/>"},
		{"attribute order", `<div @deco [p]={x} a="q'uote" #lbl/>`, `<div #lbl a='q\'uote' [p]={x} @deco/>`},
		{"forward label", "<div ##ref=1 #plain/>", "<div ##ref=1 #plain/>"},
		{"numbers", "<a v=1.50 w=2e3 x=-0.25/>", "<a v=1.5 w=2000 x=-0.25/>"},
		{"booleans", "<a v = true w=false/>", "<a v=true w=false/>"},
		{"expression prefixes", "<a v={:: foo() } w={=x} z={=>go()}/>", "<a v={::foo()} w={=x} z={()=>go()}/>"},
		{"spreads", "<div {...rest} {... [props]}/>", "<div {...rest} {...[props]}/>"},
		{"name expressions", "<{tag} a=1/>", "<{tag} a=1/>"},
		{"param node expression", "<.{slot}></.{slot}>", "<.{slot}></>"},
		{"cdata", "<!cdata a=1> a <b> {c} </!cdata>", "<!cdata a=1> a <b> {c} </!cdata>"},
		{"delimited text", "#(#l @d) hi {x} #", "#(#l @d) hi {x} #"},
		{"fragment", "<! #a></!>", "<! #a></>"},
		{"component with content", "<*b.section title='x'><.header/>#t#</*b.section>", "<*b.section title='x'><.header/>#t#</>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := parseContentOnly(t, tt.src, parser.DialectCode)
			if len(root.Content) != 1 {
				t.Fatalf("expected 1 node, got %d", len(root.Content))
			}
			got, err := ToString(root.Content[0], "")
			if err != nil {
				t.Fatalf("ToString() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ToString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToStringTemplateFunction(t *testing.T) {
	tests := []struct {
		name string
		src  string
		base string
		want string
	}{
		{"empty", "() => {}", "", "() => {}"},
		{"two arguments", "(a, b) => {}", "", "(a, b) => {}"},
		{
			"line mode",
			"(a, b:string, c?, d?:boolean=false) => {\n  <div/>\n}",
			"    ",
			lines("    ",
				"(a, b:string, c?, d?:boolean = false) => {",
				"    <div/>",
				"}"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := parser.Parse(tt.src)
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			got, err := ToString(root, tt.base)
			if err != nil {
				t.Fatalf("ToString() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ToString() = %q, want %q", got, tt.want)
			}
		})
	}
}

const blocksSource = `<div>
    $if (a.b.c) {
        <span/>
    } else {
        <*section>
            <.header pos="top"> header </>
            CONTENT
        </>
    }
    $each(x.y, (item, idx) => {
        {item}{idx}
        $log("index", idx);
    });
</div>`

func TestToStringBlocks(t *testing.T) {
	root := parseContentOnly(t, blocksSource, parser.DialectText)

	t.Run("line mode", func(t *testing.T) {
		base := "        "
		want := lines(base,
			"<!>",
			"    <div>",
			"        $if (a.b.c) {",
			"            <span/>",
			"        } else {",
			"            <*section>",
			"                <.header pos='top'>",
			"                     header ",
			"                </>",
			"                 CONTENT ",
			"            </>",
			"        }",
			"        $each(x.y,(item,idx) => {",
			"             {item}{idx} ",
			`            $log("index", idx);`,
			"        });",
			"    </>",
			"</>")
		got, err := ToString(root, base)
		if err != nil {
			t.Fatalf("ToString() error: %v", err)
		}
		if got != want {
			t.Errorf("ToString() mismatch\ngot:  %q\nwant: %q", got, want)
		}
	})

	t.Run("compact", func(t *testing.T) {
		want := `<!><div>$if (a.b.c) {<span/>} else {<*section><.header pos='top'> header </> CONTENT </>}$each(x.y,(item,idx) => { {item}{idx} $log("index", idx);` + "\n" + `});</></>`
		got, err := ToString(root, "")
		if err != nil {
			t.Fatalf("ToString() error: %v", err)
		}
		if got != want {
			t.Errorf("ToString() mismatch\ngot:  %q\nwant: %q", got, want)
		}
	})
}

func TestToStringTemplatePragma(t *testing.T) {
	src := "$template foo(arg1:string, arg2=123) {\n    <div/>\n}\n$for (let i=0;  10>i; i++) {\n    #{i}#\n}"
	root := parseContentOnly(t, src, parser.DialectCode)
	got, err := ToString(root, "")
	if err != nil {
		t.Fatalf("ToString() error: %v", err)
	}
	want := "<!>$template foo (arg1:string, arg2 = 123) {<div/>}$for (let i=0; 10>i; i++) {#{i}#}</>"
	if got != want {
		t.Errorf("ToString() = %q, want %q", got, want)
	}
}

func TestToStringHoistsDecorators(t *testing.T) {
	root := parseContentOnly(t, "<div><@a/><b/><@c/>#d#</div>", parser.DialectCode)
	got, err := ToString(root.Content[0], "")
	if err != nil {
		t.Fatalf("ToString() error: %v", err)
	}
	if want := "<div><@a/><@c/><b/>#d#</>"; got != want {
		t.Errorf("ToString() = %q, want %q", got, want)
	}
}

func TestToStringCompactBreaksAfterStatements(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		dialect  parser.Dialect
		topLevel bool
		want     string
	}{
		{"before closing tag", "<div>\n    x = 1\n</div>", parser.DialectCode, false, "<!><div>x = 1\n</></>"},
		{"before sibling", "<p>\n    $log(1)\n    <b/>\n</p>", parser.DialectText, false, "<!><p>$log(1)\n<b/></></>"},
		{"before continuation", "if (a) { b() } else {\n    <i/>\n}", parser.DialectCode, false, "<!>if (a) { b() } else {<i/>}</>"},
		{"last at top level", "x = 1", parser.DialectCode, true, "x = 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := parseContentOnly(t, tt.src, tt.dialect)
			var got string
			var err error
			if tt.topLevel {
				var sb strings.Builder
				err = NewPrinter(&sb).PrintContent(root.Content)
				got = sb.String()
			} else {
				got, err = ToString(root, "")
			}
			if err != nil {
				t.Fatalf("ToString() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ToString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToStringKeepsNonBreakingSpaces(t *testing.T) {
	root := parseContentOnly(t, "<p>\u00a0hello\u00a0</p>", parser.DialectText)
	got, err := ToString(root.Content[0], "  ")
	if err != nil {
		t.Fatalf("ToString() error: %v", err)
	}
	want := lines("  ", "<p>", "     \u00a0hello\u00a0 ", "</>")
	if got != want {
		t.Errorf("ToString() = %q, want %q", got, want)
	}
}

func TestToStringStructuralInvariant(t *testing.T) {
	tests := []struct {
		name string
		node parser.Node
	}{
		{"fragment count", &parser.TextNode{TextFragments: []string{"a", "b"}}},
		{"no fragments", &parser.TextNode{}},
		{"element without name", &parser.Element{}},
		{"element with both names", &parser.Element{Name: "div", NameExpression: &parser.Expression{Code: "x"}}},
		{"param node without name", &parser.ParamNode{}},
		{"component without ref", &parser.Component{}},
		{"nested", &parser.Fragment{Content: []parser.Node{&parser.TextNode{TextFragments: []string{"a"}, Expressions: []*parser.Expression{{Code: "x"}}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToString(tt.node, "  ")
			var perr *parser.Error
			if !errors.As(err, &perr) {
				t.Fatalf("expected *parser.Error, got %v", err)
			}
			if perr.Kind != parser.StructuralInvariantViolation {
				t.Errorf("error kind = %s, want StructuralInvariantViolation", perr.Kind)
			}
		})
	}
}

func TestStripIndent(t *testing.T) {
	got := stripIndent("let x = {\n        a: 1,\n\n    };  ")
	want := []string{"let x = {", "    a: 1,", "", "};"}
	if len(got) != len(want) {
		t.Fatalf("stripIndent() = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"abc", "'abc'"},
		{"it's", `'it\'s'`},
		{`it\'s`, `'it\'s'`},
		{`say "hi"`, `'say "hi"'`},
		{`a\nb`, `'a\nb'`},
	}
	for _, tt := range tests {
		if got := quote(tt.raw); got != tt.want {
			t.Errorf("quote(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
