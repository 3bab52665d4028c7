package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/nikbrunner/linkhub/internal/model"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
)

// Store is the durable record of all saved links.
// Every list it returns is ordered by CreatedAt descending.
type Store interface {
	All(ctx context.Context) ([]model.Link, error)
	Favorites(ctx context.Context) ([]model.Link, error)
	ByCategory(ctx context.Context, category string) ([]model.Link, error)
	Categories(ctx context.Context) ([]string, error)
	Get(ctx context.Context, id int64) (model.Link, error)

	// Insert stores link under a fresh id and returns the stored copy.
	Insert(ctx context.Context, link model.Link) (model.Link, error)
	// Update replaces the editable fields of the link with link.ID.
	// CreatedAt, ClickCount and LastOpened are never written.
	Update(ctx context.Context, link model.Link) error
	Delete(ctx context.Context, id int64) error
	// RecordOpen increments ClickCount and sets LastOpened in one step.
	RecordOpen(ctx context.Context, id int64, atMillis int64) error

	// Watch registers fn to run after every committed mutation.
	Watch(fn func()) (cancel func())
	Close() error
}

// Open opens the named backend inside dir.
func Open(backend, dir string) (Store, error) {
	switch backend {
	case BackendSQLite, "":
		return NewSQLiteStore(filepath.Join(dir, "links.db"))
	case BackendJSON:
		return NewJSONStore(filepath.Join(dir, "links.json"))
	default:
		return nil, fmt.Errorf("unsupported storage backend %q: must be sqlite or json", backend)
	}
}

// DefaultDataDir returns the default data directory: ~/.config/linkhub
func DefaultDataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "linkhub"), nil
}

// watchers fans change notifications out to registered callbacks.
type watchers struct {
	mu   sync.Mutex
	next int
	fns  map[int]func()
}

func (w *watchers) add(fn func()) func() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.fns == nil {
		w.fns = make(map[int]func())
	}
	id := w.next
	w.next++
	w.fns[id] = fn

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.fns, id)
	}
}

// notify runs every callback outside the lock so callbacks may re-query
// the store or cancel themselves.
func (w *watchers) notify() {
	w.mu.Lock()
	fns := make([]func(), 0, len(w.fns))
	for _, fn := range w.fns {
		fns = append(fns, fn)
	}
	w.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// sortNewestFirst orders links by CreatedAt descending, newest id first on ties.
func sortNewestFirst(links []model.Link) {
	slices.SortStableFunc(links, func(a, b model.Link) int {
		switch {
		case a.CreatedAt > b.CreatedAt:
			return -1
		case a.CreatedAt < b.CreatedAt:
			return 1
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
}
