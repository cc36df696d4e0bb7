package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/capitalize-ai/support-router/internal/model"
	"github.com/capitalize-ai/support-router/pkg/logger"
)

const defaultDebounce = 400 * time.Millisecond

// DocumentIngester is the subset of Processor the watcher needs.
type DocumentIngester interface {
	Ingest(ctx context.Context, req model.IngestRequest) (*model.IngestResult, error)
}

// Watcher ingests documents dropped into a directory. Markdown and text
// files become one document each; YAML files are read as seed files.
type Watcher struct {
	dir      string
	ingester DocumentIngester
	log      *logger.Logger
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewWatcher creates a watcher for dir.
func NewWatcher(dir string, ingester DocumentIngester, log *logger.Logger) *Watcher {
	if log == nil {
		log = logger.NewNop()
	}
	return &Watcher{
		dir:      dir,
		ingester: ingester,
		log:      log.Named("watcher"),
		debounce: defaultDebounce,
		pending:  make(map[string]*time.Timer),
	}
}

// Run watches the directory until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.log.Info("Watching for documents", zap.String("dir", w.dir))

	for {
		select {
		case <-ctx.Done():
			w.stopPending()
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !Supported(ev.Name) {
				continue
			}
			w.schedule(ctx, ev.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("Watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		if err := w.IngestFile(ctx, path); err != nil {
			w.log.Warn("File ingestion failed", zap.String("path", path), zap.Error(err))
		}
	})
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

// IngestFile ingests one file from disk.
func (w *Watcher) IngestFile(ctx context.Context, path string) error {
	reqs, err := ReadDocumentFile(path)
	if err != nil {
		return err
	}
	for _, req := range reqs {
		if _, err := w.ingester.Ingest(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// Supported reports whether path has an extension the watcher ingests.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".txt", ".yaml", ".yml":
		return true
	}
	return false
}

// ReadDocumentFile turns a file into ingest requests. Every request carries
// a source so that re-reading the file replaces what it produced before.
func ReadDocumentFile(path string) ([]model.IngestRequest, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		reqs, err := LoadSeedFile(path)
		if err != nil {
			return nil, err
		}
		for i := range reqs {
			if reqs[i].Source == "" {
				reqs[i].Source = path + "#" + reqs[i].Title
			}
		}
		return reqs, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	contentType := "text"
	if ext == ".md" {
		contentType = "markdown"
	}
	return []model.IngestRequest{{
		Title:       strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Content:     string(data),
		Source:      path,
		ContentType: contentType,
	}}, nil
}
