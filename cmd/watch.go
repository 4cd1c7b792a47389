package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/cryptodoc/cryptodoc-cli/internal/core/domain"
	"github.com/cryptodoc/cryptodoc-cli/pkg/ui"
)

var (
	watchTags        string
	watchMetricsAddr string
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Upload files dropped into a directory",
	Long: `Watch a directory and upload every new or modified file.

Changes are debounced (watch_debounce_ms) so a file that is still being
written is uploaded once. A file whose content did not change since its
last upload is skipped.

Tags come from --tags, then watch_default_tags, then filename detection.

Use --metrics-addr to expose Prometheus metrics while watching.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchTags, "tags", "t", "", "Tags for uploaded files")
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "Serve /metrics on this address (e.g. :9090)")
}

// uploadQueue collects changed paths until the debounce timer fires
type uploadQueue struct {
	mu       sync.Mutex
	pending  map[string]struct{}
	uploaded map[string]string // path -> sha256 of the last uploaded content
	timer    *time.Timer
	delay    time.Duration
	upload   func(path string) string
}

func newUploadQueue(delay time.Duration, upload func(path string) string) *uploadQueue {
	return &uploadQueue{
		pending:  make(map[string]struct{}),
		uploaded: make(map[string]string),
		delay:    delay,
		upload:   upload,
	}
}

// Add schedules a path and resets the debounce timer
func (q *uploadQueue) Add(path string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending[path] = struct{}{}
	if q.timer != nil {
		q.timer.Stop()
	}
	q.timer = time.AfterFunc(q.delay, q.flush)
}

// Stop cancels a pending flush
func (q *uploadQueue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.timer != nil {
		q.timer.Stop()
	}
}

func (q *uploadQueue) flush() {
	q.mu.Lock()
	paths := make([]string, 0, len(q.pending))
	for p := range q.pending {
		paths = append(paths, p)
	}
	q.pending = make(map[string]struct{})
	q.mu.Unlock()

	sort.Strings(paths)
	for _, p := range paths {
		q.process(p)
	}
}

func (q *uploadQueue) process(path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return
	}

	sum, err := hashFile(path)
	if err != nil {
		slog.Warn("watch_hash_failed", "path", path, "error", err)
		return
	}

	q.mu.Lock()
	same := q.uploaded[path] == sum
	q.mu.Unlock()
	if same {
		clientMetrics.RecordUpload(serviceName, "skipped")
		return
	}

	result := q.upload(path)
	clientMetrics.RecordUpload(serviceName, result)
	if result == "ok" {
		q.mu.Lock()
		q.uploaded[path] = sum
		q.mu.Unlock()
	}
}

// watchable filters hidden files and editor temporaries
func watchable(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~") {
		return false
	}
	for _, suffix := range []string{"~", ".tmp", ".part", ".crdownload", ".swp"} {
		if strings.HasSuffix(base, suffix) {
			return false
		}
	}
	return true
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	dir, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("not a directory: %s", args[0])
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory: %w", err)
	}

	if watchMetricsAddr != "" {
		stop := serveMetrics(ctx, watchMetricsAddr)
		defer stop()
	}

	tags := watchTags
	if tags == "" {
		tags = domain.JoinTags(appConfig.WatchDefaultTags)
	}

	queue := newUploadQueue(appConfig.WatchDebounce(), func(path string) string {
		fileTags := tags
		if fileTags == "" {
			fileTags = tagSuggester.SuggestString(path)
		}

		doc, err := uploadFile(ctx, path, fileTags)
		if err != nil {
			fmt.Println(ui.FormatError(filepath.Base(path) + ": " + userMessage(err)))
			slog.Warn("watch_upload_failed", "path", path, "error", err)
			return "failed"
		}
		fmt.Println(ui.FormatSuccess(fmt.Sprintf("Uploaded %s (%s)", doc.Name, doc.Category)))
		return "ok"
	})
	defer queue.Stop()

	fmt.Println(ui.FormatRocket("Watching for new documents..."))
	fmt.Println(ui.FormatMuted("Directory: " + dir))
	fmt.Println(ui.FormatMuted("Press Ctrl+C to stop"))
	fmt.Println()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watchable(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				queue.Add(event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("watcher_error", "error", err)

		case <-ctx.Done():
			fmt.Println()
			fmt.Println(ui.FormatMuted("Watcher stopped"))
			return nil
		}
	}
}

// serveMetrics exposes the client metrics until the returned func is called
func serveMetrics(ctx context.Context, addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", clientMetrics.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics_server_failed", "addr", addr, "error", err)
		}
	}()
	fmt.Println(ui.FormatMuted("Metrics: http://" + addr + "/metrics"))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}
