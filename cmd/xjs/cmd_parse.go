package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/xjs/format"
	"github.com/dhamidi/xjs/xjs/parser"
)

func newParseCmd() *cobra.Command {
	var outputFormat string
	var flags styleFlags

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a template and dump the result",
		Long: `Parse a template file and dump its tree.

If no file is provided, reads the template from stdin.

Formats:
  json   the syntax tree as JSON, one object per node with a "kind" field
  xjs    the canonical form of the template`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, style, err := loadProject(cmd, &flags)
			if err != nil {
				return err
			}

			var source []byte
			var filename string
			if len(args) == 0 {
				source, err = io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
			} else {
				filename = args[0]
				source, err = os.ReadFile(filename)
				if err != nil {
					return fmt.Errorf("read file: %w", err)
				}
			}

			root, err := parser.Parse(string(source), style.ParseOptions(filename)...)
			if err != nil {
				return err
			}

			var encoder format.Encoder
			switch outputFormat {
			case "json":
				encoder = format.NewASTJSONEncoder(os.Stdout)
			case "xjs":
				encoder = format.NewXJSEncoder(os.Stdout, style)
			default:
				return fmt.Errorf("unknown format: %s", outputFormat)
			}

			if err := encoder.Encode(root); err != nil {
				return fmt.Errorf("encode: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "output format (json, xjs)")
	flags.register(cmd, false)

	return cmd
}
