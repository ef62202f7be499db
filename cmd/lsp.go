// Copyright © 2024 The vbalint authors

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luthersystems/vbalint/lsp"
)

// LSPCommand creates the "lsp" cobra command.  Embedders can pass
// WithRegistry or WithBuiltins to configure the analysis.
func LSPCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)

	var (
		stdio    bool
		port     int
		excludes []string
	)

	cmd := &cobra.Command{
		Use:           "lsp [flags]",
		Short:         "Start the vbalint Language Server Protocol server",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `Start an LSP server for VBA component files.

The language server inspects the component files of the workspace and of
open documents and publishes the results as diagnostics.  Quick fixes are
offered as code actions.  It also provides hover, go-to-definition, find
references, document and workspace symbols, folding and rename.

Transport modes:
  --stdio      Use stdin/stdout for LSP communication (default)
  --port N     Listen for an LSP client on TCP port N

Logs are written to stderr.

Examples:
  vbalint lsp                           Start with stdio transport
  vbalint lsp --port 7998               Start with TCP on port 7998

Editor configuration (VS Code):
  Install a generic LSP client extension and configure it to run
  "vbalint lsp --stdio" for .bas, .cls, .frm and .doccls files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := cfg.settings()
			if err != nil {
				return err
			}
			logger := s.logger(cmd.ErrOrStderr())
			sess, err := s.newSession(cfg, logger)
			if err != nil {
				return err
			}
			srv := lsp.New(sess,
				lsp.WithLogger(logger.Named("lsp")),
				lsp.WithProject(s.Project),
				lsp.WithExclude(excludes),
			)

			if !stdio && port > 0 {
				addr := fmt.Sprintf("localhost:%d", port)
				logger.Info("LSP server listening", "addr", addr)
				if err := srv.RunTCP(addr); err != nil {
					return fmt.Errorf("lsp server: %w", err)
				}
				return nil
			}
			if err := srv.RunStdio(); err != nil {
				return fmt.Errorf("lsp server: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&stdio, "stdio", false,
		"Use stdin/stdout for LSP communication (default behavior)")
	cmd.Flags().IntVar(&port, "port", 0,
		"TCP port for LSP server (use instead of --stdio)")
	cmd.Flags().StringArrayVar(&excludes, "exclude", nil,
		"Glob pattern for workspace files to exclude (may be repeated).")
	return cmd
}
