package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/xjs/project"
)

func newInitCmd() *cobra.Command {
	var force bool
	var flags styleFlags

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a .xjs.yaml configuration",
		Long: `Write a .xjs.yaml configuration with the default settings.

If a directory is provided, creates it and writes the configuration
there. Otherwise, uses the current directory. An existing configuration
is only replaced with --force.

Examples:
  xjs init                      # defaults in the current directory
  xjs init --dialect text site  # text dialect in site/`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("create directory: %w", err)
				}
			}

			cfg := project.DefaultConfig()
			style, err := flags.apply(cmd, cfg.Style())
			if err != nil {
				return err
			}
			cfg.Indent = style.Indent
			cfg.Dialect = style.Dialect.String()
			cfg.ContentOnly = style.ContentOnly

			path, err := project.WriteConfig(dir, cfg, force)
			if err != nil {
				return err
			}
			fmt.Printf("Created %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "replace an existing configuration")
	flags.register(cmd, true)

	return cmd
}
