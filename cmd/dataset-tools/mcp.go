package main

import (
	"github.com/spf13/cobra"

	"github.com/ironsheep/dataset-tools/internal/server"
)

// NewMCPCmd creates the mcp command.
func NewMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the dataset tools over the Model Context Protocol",
		Long: `Speak MCP (JSON-RPC 2.0, one message per line) on stdin and stdout so an
MCP client can inspect masks, extract contours and build or check datasets.

Logs go to stderr; stdout carries only protocol messages. Configure it in
your MCP client as:

  {"command": "dataset-tools", "args": ["mcp"]}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			e.logger.Debug("MCP server starting", "version", getVersion(), "commit", getCommit())
			return server.New(e.table, e.logger, getVersion()).Serve(cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
