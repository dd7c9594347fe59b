package cli

import (
	"github.com/spf13/cobra"

	mcpserver "github.com/lore-tools/lore/cmd/lore/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run as an MCP server over stdio",
	Long: `Serve the archive to MCP clients over stdio.

Exposes search_context, get_context, get_patterns, and redact_text tools.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return mcpserver.StartServer(mcpserver.Options{
			ArchiveDir:   cfg.ArchiveDir,
			IndexPath:    cfg.IndexPath,
			HalfLifeDays: cfg.HalfLifeDays,
		})
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
