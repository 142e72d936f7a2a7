package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/hybridrag/internal/adapters/driving/docfile"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Ingest document files",
	Long: `Reads document files and embeds and indexes their chunks.

A file holds one document or a JSON array of them:
  {"doc_id": "handbook", "chunks": [{"text": "...", "metadata": {"title": "..."}}]}

A single document without doc_id takes the file name as its ID.
Re-ingesting a document replaces its chunks.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}

	ctx := cmd.Context()
	var total int
	for _, path := range args {
		docs, err := docfile.ParseFile(path)
		if err != nil {
			return fmt.Errorf("failed to read documents: %w", err)
		}

		for _, doc := range docs {
			report, err := ingestionService.Ingest(ctx, doc.ID, doc.Chunks)
			if err != nil {
				return fmt.Errorf("ingest failed: %w", err)
			}
			total += report.ChunksIngested

			cmd.Printf("Ingested %s: %d chunks", report.DocumentID, report.ChunksIngested)
			if report.StaleRemoved > 0 {
				cmd.Printf(", %d stale removed", report.StaleRemoved)
			}
			cmd.Println()
		}
	}

	cmd.Printf("Total: %d chunks\n", total)
	return nil
}
