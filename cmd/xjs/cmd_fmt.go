package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dhamidi/xjs/format"
)

type fmtResult struct {
	path      string
	source    []byte
	formatted []byte
	err       error
}

func (r fmtResult) changed() bool {
	return r.err == nil && !bytes.Equal(r.source, r.formatted)
}

func newFmtCmd() *cobra.Command {
	var fmtOverwrite bool
	var fmtCheck bool
	var flags styleFlags

	cmd := &cobra.Command{
		Use:   "fmt [path...]",
		Short: "Format templates in their canonical form",
		Long: `Format template files in their canonical form.

Without arguments, formats every template of the project described by
.xjs.yaml in the current directory. Directories are searched for
project templates. Use - to read a template from stdin.

By default the formatted templates are written to stdout.
Use -w to overwrite files in place, or --check to only list the files
whose formatting differs.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if fmtOverwrite && fmtCheck {
				return fmt.Errorf("-w and --check are mutually exclusive")
			}
			proj, style, err := loadProject(cmd, &flags)
			if err != nil {
				return err
			}

			if len(args) == 1 && args[0] == "-" {
				if fmtOverwrite {
					return fmt.Errorf("-w requires a file argument")
				}
				source, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				output, err := format.Source(source, style)
				if err != nil {
					return err
				}
				_, err = os.Stdout.Write(output)
				return err
			}

			files, err := collectFiles(proj, args)
			if err != nil {
				return err
			}

			results, err := formatFiles(cmd.Context(), files, style)
			if err != nil {
				return err
			}

			var failed, unformatted int
			for _, r := range results {
				switch {
				case r.err != nil:
					failed++
					fmt.Fprintln(os.Stderr, r.err)
				case fmtCheck:
					if r.changed() {
						unformatted++
						fmt.Println(r.path)
					}
				case fmtOverwrite:
					if r.changed() {
						if err := os.WriteFile(r.path, r.formatted, 0644); err != nil {
							return fmt.Errorf("write %s: %w", r.path, err)
						}
					}
				default:
					if _, err := os.Stdout.Write(r.formatted); err != nil {
						return err
					}
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files could not be parsed", failed, len(results))
			}
			if unformatted > 0 {
				return fmt.Errorf("%d files are not formatted", unformatted)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&fmtOverwrite, "write", "w", false, "overwrite files in place")
	cmd.Flags().BoolVar(&fmtCheck, "check", false, "list files whose formatting differs and fail if there are any")
	flags.register(cmd, true)

	return cmd
}

// formatFiles formats files concurrently. Parse failures are reported
// per file; only read errors abort the run.
func formatFiles(ctx context.Context, files []string, style format.Style) ([]fmtResult, error) {
	results := make([]fmtResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			source, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			formatted, err := format.SourceFile(source, path, style)
			results[i] = fmtResult{path: path, source: source, formatted: formatted, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
