package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/hybridrag/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

Tools: search (hybrid retrieval), ingest (add a document), model_info.
Resources: hybridrag://documents/{documentId} (a document's chunks).

By default, the server communicates over stdio using JSON-RPC.
Use --http to serve streamable HTTP instead.

Examples:
  # Stdio mode (default, for desktop assistants)
  hybridrag mcp

  # HTTP mode (for MCP Inspector, remote access)
  hybridrag mcp --http :8080`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().String("http", "", "HTTP listen address (empty = use stdio)")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	addr, err := cmd.Flags().GetString("http")
	if err != nil {
		return fmt.Errorf("getting http flag: %w", err)
	}
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	ports := &mcp.Ports{
		Retrieval: retrievalService,
		Ingestion: ingestionService,
		Embedding: embeddingClient,
		Metadata:  metadataStore,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if addr != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
