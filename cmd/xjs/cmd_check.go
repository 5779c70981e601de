package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/dhamidi/xjs/xjs/codebase"
)

// diagnosticPrinter writes diagnostics as file:line:col: message, with
// colours when w is a terminal.
type diagnosticPrinter struct {
	out *termenv.Output
}

func newDiagnosticPrinter(w io.Writer) *diagnosticPrinter {
	return &diagnosticPrinter{out: termenv.NewOutput(w)}
}

func (p *diagnosticPrinter) print(d codebase.Diagnostic) {
	loc := p.out.String(fmt.Sprintf("%s:%d:%d:", d.Path, d.Pos.Line, d.Pos.Column)).Bold()
	kind := p.out.String(d.Kind.String()).Foreground(p.out.Color("1"))
	fmt.Fprintf(p.out, "%s %s %s\n", loc, d.Message, kind)
}

func (p *diagnosticPrinter) ok(path string) {
	mark := p.out.String("ok").Foreground(p.out.Color("2"))
	fmt.Fprintf(p.out, "%s %s\n", mark, path)
}

func newCheckCmd() *cobra.Command {
	var watch bool
	var flags styleFlags

	cmd := &cobra.Command{
		Use:   "check [path...]",
		Short: "Report templates that fail to parse",
		Long: `Parse template files and report failures as file:line:col: message.

Without arguments, checks every template of the project described by
.xjs.yaml in the current directory.

Use --watch to keep running and re-check templates as they change.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, style, err := loadProject(cmd, &flags)
			if err != nil {
				return err
			}
			proj.Config.Indent = style.Indent
			proj.Config.Dialect = style.Dialect.String()
			proj.Config.ContentOnly = style.ContentOnly

			files, err := collectFiles(proj, args)
			if err != nil {
				return err
			}

			cb := codebase.New(proj)
			for _, path := range files {
				if err := cb.ScanFile(path); err != nil {
					return err
				}
			}

			printer := newDiagnosticPrinter(os.Stdout)
			diags := cb.AllDiagnostics()
			for _, d := range diags {
				printer.print(d)
			}

			if !watch {
				if len(diags) > 0 {
					return fmt.Errorf("%d of %d files could not be parsed", len(diags), len(files))
				}
				return nil
			}
			return watchCodebase(cmd, cb, printer)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "re-check templates when they change")
	flags.register(cmd, false)

	return cmd
}

func watchCodebase(cmd *cobra.Command, cb *codebase.Codebase, printer *diagnosticPrinter) error {
	watcher, err := codebase.NewFileWatcher(cb, codebase.DefaultWatchDelay)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	watcher.OnChange = func(paths []string) {
		for _, path := range paths {
			if cb.GetFile(path) == nil {
				continue
			}
			diags := cb.Diagnostics(path)
			if len(diags) == 0 {
				printer.ok(path)
			}
			for _, d := range diags {
				printer.print(d)
			}
		}
	}
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Stop()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	fmt.Fprintf(os.Stderr, "watching %s\n", cb.RootDir())
	<-ctx.Done()
	return nil
}
