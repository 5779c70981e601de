package format

import (
	"io"
	"strings"

	"github.com/dhamidi/xjs/xjs/parser"
)

// Encoder writes a parsed template in some output format.
type Encoder interface {
	Encode(root parser.Node) error
}

// Style controls how template files are parsed and printed.
type Style struct {
	Indent      string
	Dialect     parser.Dialect
	ContentOnly bool
}

func DefaultStyle() Style {
	return Style{Indent: defaultIncrement}
}

func (st Style) ParseOptions(filename string) []parser.Option {
	opts := []parser.Option{parser.WithDialect(st.Dialect)}
	if filename != "" {
		opts = append(opts, parser.WithFile(filename))
	}
	if st.ContentOnly {
		opts = append(opts, parser.WithContentOnly())
	}
	return opts
}

// XJSEncoder writes the canonical form of a file: no base indent, one
// Style.Indent per level and a trailing newline. With Style.ContentOnly
// the anonymous root fragment is left out and its content starts at the
// top level.
type XJSEncoder struct {
	w     io.Writer
	style Style
}

func NewXJSEncoder(w io.Writer, style Style) *XJSEncoder {
	if style.Indent == "" {
		style.Indent = defaultIncrement
	}
	return &XJSEncoder{w: w, style: style}
}

func (e *XJSEncoder) Encode(root parser.Node) error {
	text, err := e.MarshalText(root)
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *XJSEncoder) MarshalText(root parser.Node) ([]byte, error) {
	var sb strings.Builder
	p := NewPrinter(&sb, WithIncrement(e.style.Indent))
	var err error
	if frag, ok := root.(*parser.Fragment); ok && e.style.ContentOnly {
		err = p.PrintContent(frag.Content)
	} else {
		err = p.Print(root)
	}
	if err != nil {
		return nil, err
	}
	text := strings.TrimPrefix(sb.String(), "\n")
	if text == "" {
		return nil, nil
	}
	return []byte(text + "\n"), nil
}

// Source parses a template file and returns its canonical form.
func Source(src []byte, style Style) ([]byte, error) {
	return SourceFile(src, "", style)
}

func SourceFile(src []byte, filename string, style Style) ([]byte, error) {
	root, err := parser.Parse(string(src), style.ParseOptions(filename)...)
	if err != nil {
		return nil, err
	}
	return NewXJSEncoder(nil, style).MarshalText(root)
}
