package main

import (
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/xjs/xjs/codebase"
)

func newLSPCmd() *cobra.Command {
	var logFile string
	var verbose int

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Long: `Start a language server on stdin/stdout.

The server reports parse failures as diagnostics and formats documents
in their canonical form. Logs go to stderr unless --log is given; repeat
-v for more detail.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var path *string
			if logFile != "" {
				path = &logFile
			}
			commonlog.Configure(verbose, path)
			server := codebase.NewLSPServer(version)
			return server.RunStdio()
		},
	}

	cmd.Flags().StringVar(&logFile, "log", "", "write logs to this file")
	cmd.Flags().CountVarP(&verbose, "verbose", "v", "increase log verbosity")

	return cmd
}
