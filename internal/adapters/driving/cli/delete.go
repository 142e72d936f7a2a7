package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Remove a document from the index",
	Long:  `Deletes every chunk of a document from the metadata store and the vector index.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}

	docID := args[0]
	removed, err := ingestionService.Delete(cmd.Context(), docID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	if removed == 0 {
		cmd.Printf("No chunks found for document: %s\n", docID)
		return nil
	}
	cmd.Printf("Deleted %d chunks of document %s\n", removed, docID)
	return nil
}
