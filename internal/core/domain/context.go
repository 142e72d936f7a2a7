package domain

import (
	"fmt"
	"strings"
)

// ContextSeparator divides chunks in a formatted context block.
const ContextSeparator = "\n\n---\n\n"

// FormatContext renders results as a context block for an answer generator.
// Each chunk is headed by its document (or filename), title when known, and sequence.
func FormatContext(results []RetrievalResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		header := []string{r.DocumentID}
		if name := r.Metadata.String("filename"); name != "" {
			header[0] = name
		}
		if title := r.Metadata.String("title"); title != "" {
			header = append(header, title)
		}
		header = append(header, fmt.Sprintf("chunk:%d", r.Sequence))
		parts[i] = "[" + strings.Join(header, " | ") + "]\n" + r.Text
	}
	return strings.Join(parts, ContextSeparator)
}
