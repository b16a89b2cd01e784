package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapexpr/internal/lsp"
)

// NewLSPCommand creates the lsp command.
func NewLSPCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Long: `Start the LSP server for editor integration.

The server communicates over stdin/stdout using JSON-RPC. Each open
document holds one formula, checked against the configured table and
mode. Clients may override both with the "table" and "mode"
initialization options.`,
		Example: `  # Start LSP server (usually called by an editor)
  leapexpr lsp --table orders --mode aggregation`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLSP(cmd)
		},
	}

	return cmd
}

func runLSP(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	cmdCtx.WatchMetadata(cmd.Context(), nil)
	server := lsp.NewServerWithLogger(cmd.InOrStdin(), cmd.OutOrStdout(), cmdCtx.Logger, cmdCtx.Engine)
	return server.Run()
}
