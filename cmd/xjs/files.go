package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/maruel/natural"
	"github.com/spf13/cobra"

	"github.com/dhamidi/xjs/format"
	"github.com/dhamidi/xjs/project"
	"github.com/dhamidi/xjs/xjs/parser"
)

// styleFlags override the project configuration for one invocation.
type styleFlags struct {
	indent      string
	dialect     string
	contentOnly bool
}

func (f *styleFlags) register(cmd *cobra.Command, withIndent bool) {
	if withIndent {
		cmd.Flags().StringVar(&f.indent, "indent", "", "indentation per level (default from .xjs.yaml)")
	}
	cmd.Flags().StringVar(&f.dialect, "dialect", "", "parsing dialect (code, text)")
	cmd.Flags().BoolVar(&f.contentOnly, "content", false, "parse files as bare content instead of a template function")
}

func (f *styleFlags) apply(cmd *cobra.Command, style format.Style) (format.Style, error) {
	if cmd.Flags().Changed("indent") {
		style.Indent = f.indent
	}
	if cmd.Flags().Changed("dialect") {
		d, err := parser.ParseDialect(f.dialect)
		if err != nil {
			return style, err
		}
		style.Dialect = d
	}
	if cmd.Flags().Changed("content") {
		style.ContentOnly = f.contentOnly
	}
	return style, nil
}

// loadProject reads the configuration of the current directory and
// applies the command line overrides.
func loadProject(cmd *cobra.Command, flags *styleFlags) (*project.Project, format.Style, error) {
	proj, err := project.Load()
	if err != nil {
		return nil, format.Style{}, err
	}
	style, err := flags.apply(cmd, proj.Style())
	if err != nil {
		return nil, format.Style{}, err
	}
	return proj, style, nil
}

// collectFiles expands args into template files. No args means every
// file of the project; directories are searched for project files.
func collectFiles(proj *project.Project, args []string) ([]string, error) {
	if len(args) == 0 {
		return proj.Files()
	}

	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && proj.Matches(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
		sort.Slice(found, func(i, j int) bool {
			return natural.Less(found[i], found[j])
		})
		for _, path := range found {
			add(path)
		}
	}
	return files, nil
}
