package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var modelInfoJSON bool

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the embedding service",
	Long:  `Reports whether the embedding service is reachable and its model is loaded.`,
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

var modelInfoCmd = &cobra.Command{
	Use:   "model-info",
	Short: "Show the embedding model",
	Args:  cobra.NoArgs,
	RunE:  runModelInfo,
}

func init() {
	modelInfoCmd.Flags().BoolVar(&modelInfoJSON, "json", false, "output model info as JSON")
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(modelInfoCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	if embeddingClient == nil {
		return errors.New("embedding client not configured")
	}

	status, err := embeddingClient.Health(cmd.Context())
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if !status.Ready {
		cmd.Printf("Embedding service: %s (model not ready)\n", status.Status)
		return nil
	}
	cmd.Printf("Embedding service: %s\n", status.Status)
	if status.Model != "" {
		cmd.Printf("  Model: %s\n", status.Model)
	}
	return nil
}

func runModelInfo(cmd *cobra.Command, _ []string) error {
	if embeddingClient == nil {
		return errors.New("embedding client not configured")
	}

	info, err := embeddingClient.ModelInfo(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get model info: %w", err)
	}

	if modelInfoJSON {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal model info: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Model:       %s\n", info.Name)
	cmd.Printf("Dimensions:  %d\n", info.Dimensions)
	cmd.Printf("Device:      %s\n", info.Device)
	cmd.Printf("Max length:  %d\n", info.MaxInputLength)
	return nil
}
