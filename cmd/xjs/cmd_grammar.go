package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/xjs/grammar"
)

func newGrammarCmd() *cobra.Command {
	var verify bool
	var list bool
	var tokensFile string

	cmd := &cobra.Command{
		Use:   "grammar",
		Short: "Print the EBNF grammar of the template language",
		Long: `Print the EBNF grammar of the template language.

Use --verify to check that every production is defined and reachable,
--list to print the production names, or --tokens FILE to split a file
into the tokens of the lexical productions.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !verify && !list && tokensFile == "" {
				_, err := os.Stdout.Write(grammar.Source())
				return err
			}

			g, err := grammar.Load()
			if err != nil {
				return err
			}

			if verify {
				if err := grammar.Verify(g); err != nil {
					return err
				}
				fmt.Printf("%d productions, start %s: ok\n", len(g), grammar.Start)
			}

			if list {
				for _, name := range grammar.Productions(g) {
					fmt.Println(name)
				}
			}

			if tokensFile != "" {
				input, err := os.ReadFile(tokensFile)
				if err != nil {
					return fmt.Errorf("read file: %w", err)
				}
				tokens, err := grammar.NewLexer(g, input, tokensFile).Tokenize()
				if err != nil {
					return err
				}
				for _, tok := range tokens {
					fmt.Println(tok)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "verify the grammar")
	cmd.Flags().BoolVar(&list, "list", false, "list production names, syntactic ones first")
	cmd.Flags().StringVar(&tokensFile, "tokens", "", "print the tokens of a file")

	return cmd
}
