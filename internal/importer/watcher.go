package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"coursebook/internal/domain"
)

// DefaultDebounce is how long a file must be quiet before it is imported.
// Editors write files in several steps and each one fires an event.
const DefaultDebounce = 500 * time.Millisecond

// Importer stores the content of one dropped file.
type Importer interface {
	ImportJSON(ctx context.Context, id string, data []byte) (*domain.Document, error)
}

// Watcher imports every *.json file written to a directory. The document id
// is the file name without its extension.
type Watcher struct {
	dir      string
	imp      Importer
	debounce time.Duration
	watcher  *fsnotify.Watcher
	log      *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	wg     sync.WaitGroup
}

// New creates a Watcher for dir. A debounce of zero uses DefaultDebounce.
func New(dir string, imp Importer, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("create import directory: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(abs); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", abs, err)
	}
	return &Watcher{
		dir:      abs,
		imp:      imp,
		debounce: debounce,
		watcher:  fw,
		log:      slog.Default().With("component", "importer", "dir", abs),
		timers:   make(map[string]*time.Timer),
	}, nil
}

// DocumentID maps a file path to the id its content is stored under.
func DocumentID(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func isImportable(path string) bool {
	base := filepath.Base(path)
	return strings.EqualFold(filepath.Ext(base), ".json") && !strings.HasPrefix(base, ".")
}

// ImportExisting imports the files already present in the directory and
// returns how many succeeded.
func (w *Watcher) ImportExisting(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return 0, fmt.Errorf("read import directory: %w", err)
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() || !isImportable(e.Name()) {
			continue
		}
		if w.importFile(ctx, filepath.Join(w.dir, e.Name())) == nil {
			n++
		}
	}
	return n, nil
}

// Run processes file events until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stopTimers()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !isImportable(event.Name) {
				continue
			}
			w.schedule(ctx, event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", "error", err)
		}
	}
}

// schedule (re)arms the debounce timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		if t.Stop() {
			w.wg.Done()
		}
	}
	w.wg.Add(1)
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		_ = w.importFile(ctx, path)
	})
}

func (w *Watcher) importFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		w.log.WarnContext(ctx, "read file", "file", path, "error", err)
		return err
	}
	id := DocumentID(path)
	if _, err := w.imp.ImportJSON(ctx, id, data); err != nil {
		w.log.WarnContext(ctx, "import failed", "file", path, "id", id, "error", err)
		return err
	}
	w.log.InfoContext(ctx, "file imported", "file", path, "id", id)
	return nil
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	for path, t := range w.timers {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.timers, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
