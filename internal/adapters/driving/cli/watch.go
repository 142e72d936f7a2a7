package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/hybridrag/internal/adapters/driving/docfile"
	"github.com/custodia-labs/hybridrag/internal/adapters/driving/watch"
	"github.com/custodia-labs/hybridrag/internal/core/ports/driving"
	"github.com/custodia-labs/hybridrag/internal/logger"
)

var (
	watchDebounce time.Duration
	watchNoScan   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest document files as they appear in a directory",
	Long: `Watches a directory for document files (*.json). New or changed files are
ingested; removing a file deletes the documents it held. Existing files are
ingested on startup unless --no-scan is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before a changed file is ingested")
	watchCmd.Flags().BoolVar(&watchNoScan, "no-scan", false, "skip files already in the directory")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}

	handler := newDocumentSync(ingestionService, func(format string, a ...any) {
		cmd.Printf(format+"\n", a...)
	})
	w := watch.New(args[0], handler, watchDebounce)
	w.Match = docfile.IsDocumentFile

	ctx := cmd.Context()
	if !watchNoScan {
		if err := w.Scan(ctx); err != nil {
			logger.Warn("Initial scan: %v", err)
		}
	}

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", args[0])
	return w.Run(ctx)
}

// documentSync keeps the index in step with the document files in a
// directory. It remembers which documents each file produced so a removed
// or rewritten file drops documents it no longer holds.
type documentSync struct {
	ingestion driving.IngestionService
	report    func(format string, args ...any)

	mu    sync.Mutex
	files map[string][]string
}

var _ watch.Handler = (*documentSync)(nil)

func newDocumentSync(ingestion driving.IngestionService, report func(string, ...any)) *documentSync {
	return &documentSync{
		ingestion: ingestion,
		report:    report,
		files:     make(map[string][]string),
	}
}

// FileChanged ingests every document in path.
func (d *documentSync) FileChanged(ctx context.Context, path string) error {
	docs, err := docfile.ParseFile(path)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	current := make([]string, 0, len(docs))
	var errs []error
	for _, doc := range docs {
		report, err := d.ingestion.Ingest(ctx, doc.ID, doc.Chunks)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		current = append(current, doc.ID)
		d.report("Ingested %s from %s: %d chunks", doc.ID, path, report.ChunksIngested)
	}

	for _, id := range d.files[path] {
		if slices.Contains(current, id) {
			continue
		}
		if err := d.deleteDocument(ctx, path, id); err != nil {
			errs = append(errs, err)
		}
	}
	d.files[path] = current
	return errors.Join(errs...)
}

// FileRemoved deletes the documents path last produced.
func (d *documentSync) FileRemoved(ctx context.Context, path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for _, id := range d.files[path] {
		if err := d.deleteDocument(ctx, path, id); err != nil {
			errs = append(errs, err)
		}
	}
	delete(d.files, path)
	return errors.Join(errs...)
}

func (d *documentSync) deleteDocument(ctx context.Context, path, docID string) error {
	removed, err := d.ingestion.Delete(ctx, docID)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", docID, err)
	}
	d.report("Removed %s (%s): %d chunks", docID, path, removed)
	return nil
}
