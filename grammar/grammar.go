// Package grammar holds the EBNF description of the template language and
// a lexer driven by its lexical productions.
package grammar

import (
	"bytes"
	_ "embed"
	"fmt"
	"sort"

	"golang.org/x/exp/ebnf"
)

// Start is the production every template is derived from.
const Start = "Template"

//go:embed xjs.ebnf
var source []byte

// Source returns the grammar text.
func Source() []byte {
	return bytes.Clone(source)
}

// Load parses the embedded grammar.
func Load() (ebnf.Grammar, error) {
	g, err := ebnf.Parse("xjs.ebnf", bytes.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("parse grammar: %w", err)
	}
	return g, nil
}

// Verify checks that every production is defined and reachable from Start.
func Verify(g ebnf.Grammar) error {
	if err := ebnf.Verify(g, Start); err != nil {
		return fmt.Errorf("verify grammar: %w", err)
	}
	return nil
}

// Productions returns the names of the productions of g, syntactic ones
// first, each group in source order.
func Productions(g ebnf.Grammar) []string {
	var syntactic, lexical []string
	for name := range g {
		if IsLexical(name) {
			lexical = append(lexical, name)
		} else {
			syntactic = append(syntactic, name)
		}
	}
	bySource := func(names []string) {
		sort.Slice(names, func(i, j int) bool {
			return g[names[i]].Pos().Offset < g[names[j]].Pos().Offset
		})
	}
	bySource(syntactic)
	bySource(lexical)
	return append(syntactic, lexical...)
}

// IsLexical reports whether name denotes a lexical production.
func IsLexical(name string) bool {
	return name != "" && !(name[0] >= 'A' && name[0] <= 'Z')
}
