package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/hybridrag/internal/core/domain"
)

var (
	queryK       int
	queryAlpha   float64
	queryJSON    bool
	queryContext bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Retrieve chunks relevant to a question",
	Long: `Performs hybrid retrieval across all ingested chunks.
Blends keyword (BM25) relevance with semantic (vector) similarity;
--alpha 0 is keyword only and --alpha 1 is vector only.

Without an argument the question is read from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryK, "top-k", "k", 0, "maximum number of results (default from config)")
	queryCmd.Flags().Float64Var(&queryAlpha, "alpha", domain.DefaultAlpha, "vector weight between 0 and 1")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	queryCmd.Flags().BoolVar(&queryContext, "context", false, "print a context block for an answer generator")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	var query string
	if len(args) > 0 {
		query = args[0]
	} else {
		var err error
		if query, err = readQuery(cmd); err != nil {
			return fmt.Errorf("failed to read query: %w", err)
		}
	}

	opts := retrievalService.DefaultOptions()
	if cmd.Flags().Changed("top-k") {
		opts.K = queryK
	}
	if cmd.Flags().Changed("alpha") {
		opts.Alpha = queryAlpha
	}

	results, err := retrievalService.Retrieve(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	switch {
	case queryJSON:
		return outputQueryJSON(cmd, results)
	case queryContext:
		cmd.Println(domain.FormatContext(results))
		return nil
	default:
		return outputQueryTable(cmd, results)
	}
}

func outputQueryJSON(cmd *cobra.Command, results []domain.RetrievalResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputQueryTable(cmd *cobra.Command, results []domain.RetrievalResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, r := range results {
		// Format: [N] doc#seq (combined | lexical, vector)
		label := r.DocumentID
		if title := r.Metadata.String("title"); title != "" {
			label += " - " + title
		}
		cmd.Printf("  [%d] %s #%d (%.3f | bm25 %.3f, cosine %.3f)\n",
			i+1, label, r.Sequence, r.CombinedScore, r.LexicalScore, r.VectorScore)
		cmd.Printf("      %s\n", snippet(r.Text, 160))
		cmd.Println()
	}
	return nil
}

// readQuery reads one line from the command's input, prompting when the
// input is an interactive terminal.
func readQuery(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		cmd.Print("Query: ")
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// snippet shortens text to at most n runes.
func snippet(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
