// Package repository is the single entry point for reading and writing links.
// It validates input the store does not check and serves live feeds.
package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nikbrunner/linkhub/internal/feed"
	"github.com/nikbrunner/linkhub/internal/model"
	"github.com/nikbrunner/linkhub/internal/storage"
)

// DefaultGrace is how long an unused feed keeps its upstream warm.
const DefaultGrace = 5 * time.Second

// Repository wraps a storage.Store with validation and live feeds.
type Repository struct {
	store  storage.Store
	now    func() int64
	grace  time.Duration
	logger *slog.Logger

	all        *feed.Shared[[]model.Link]
	favorites  *feed.Shared[[]model.Link]
	categories *feed.Shared[[]string]

	mu         sync.Mutex
	byCategory map[string]*feed.Shared[[]model.Link]
}

// Params holds parameters for creating a Repository.
type Params struct {
	Store  storage.Store
	Grace  time.Duration // optional, DefaultGrace if zero; negative disables
	Logger *slog.Logger  // optional
	Now    func() int64  // optional clock in milliseconds
}

// New creates a Repository over params.Store.
func New(params Params) *Repository {
	grace := params.Grace
	if grace == 0 {
		grace = DefaultGrace
	}
	if grace < 0 {
		grace = 0
	}

	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := params.Now
	if now == nil {
		now = model.NowMillis
	}

	r := &Repository{
		store:      params.Store,
		now:        now,
		grace:      grace,
		logger:     logger,
		byCategory: make(map[string]*feed.Shared[[]model.Link]),
	}

	r.all = feed.NewShared(liveQuery(r, "all", params.Store.All), grace)
	r.favorites = feed.NewShared(liveQuery(r, "favorites", params.Store.Favorites), grace)
	r.categories = feed.NewShared(liveQuery(r, "categories", params.Store.Categories), grace)

	return r
}

// Validate checks the rules every new link must satisfy.
func Validate(link model.Link) error {
	if strings.TrimSpace(link.Title) == "" {
		return &model.ValidationError{Field: "title", Reason: "must not be blank"}
	}
	if !model.HasValidScheme(link.URL) {
		return &model.ValidationError{Field: "url", Reason: "must start with http:// or https://"}
	}
	switch {
	case link.ClickCount < 0:
		return &model.ValidationError{Field: "clickCount", Reason: "must not be negative"}
	case link.CreatedAt < 0:
		return &model.ValidationError{Field: "createdAt", Reason: "must not be negative"}
	case link.LastOpened < 0:
		return &model.ValidationError{Field: "lastOpened", Reason: "must not be negative"}
	}
	return nil
}

// Insert validates link and stores it as a new record. Any id on link is
// ignored; the stored copy with its fresh id is returned.
func (r *Repository) Insert(ctx context.Context, link model.Link) (model.Link, error) {
	if err := Validate(link); err != nil {
		return model.Link{}, err
	}

	link.ID = 0
	if strings.TrimSpace(link.Category) == "" {
		link.Category = model.DefaultCategory
	}
	if link.CreatedAt == 0 {
		link.CreatedAt = r.now()
	}

	stored, err := r.store.Insert(ctx, link)
	if err != nil {
		return model.Link{}, fmt.Errorf("insert link: %w", err)
	}
	return stored, nil
}

// Update writes the editable fields of link back to the store.
func (r *Repository) Update(ctx context.Context, link model.Link) error {
	if err := r.store.Update(ctx, link); err != nil {
		return fmt.Errorf("update link %d: %w", link.ID, err)
	}
	return nil
}

// Delete removes link. The caller may keep the value to restore it later.
func (r *Repository) Delete(ctx context.Context, link model.Link) error {
	if err := r.store.Delete(ctx, link.ID); err != nil {
		return fmt.Errorf("delete link %d: %w", link.ID, err)
	}
	return nil
}

// RecordOpen counts one open of the link with id, stamped with the current time.
func (r *Repository) RecordOpen(ctx context.Context, id int64) error {
	if err := r.store.RecordOpen(ctx, id, r.now()); err != nil {
		return fmt.Errorf("record open %d: %w", id, err)
	}
	return nil
}

// Get returns a single link.
func (r *Repository) Get(ctx context.Context, id int64) (model.Link, error) {
	return r.store.Get(ctx, id)
}

// Snapshot returns the full collection once, newest first.
func (r *Repository) Snapshot(ctx context.Context) ([]model.Link, error) {
	return r.store.All(ctx)
}

// AllLinks is the live feed of every link, newest first.
func (r *Repository) AllLinks() *feed.Shared[[]model.Link] {
	return r.all
}

// Favorites is the live feed of favorite links, newest first.
func (r *Repository) Favorites() *feed.Shared[[]model.Link] {
	return r.favorites
}

// Categories is the live feed of distinct categories, ascending.
func (r *Repository) Categories() *feed.Shared[[]string] {
	return r.categories
}

// ByCategory is the live feed of links in category, newest first.
// Repeated calls with the same category share one feed.
func (r *Repository) ByCategory(category string) *feed.Shared[[]model.Link] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if f, ok := r.byCategory[category]; ok {
		return f
	}
	query := func(ctx context.Context) ([]model.Link, error) {
		return r.store.ByCategory(ctx, category)
	}
	f := feed.NewShared(liveQuery(r, "category:"+category, query), r.grace)
	r.byCategory[category] = f
	return f
}

// liveQuery builds a feed source that re-runs query after every store change.
// Refreshes are serialized so a slow query never publishes over a newer one.
// A failed query keeps the last good snapshot.
func liveQuery[T any](r *Repository, name string, query func(context.Context) (T, error)) feed.Source[T] {
	return func(publish func(T)) func() {
		var mu sync.Mutex
		refresh := func() {
			mu.Lock()
			defer mu.Unlock()

			v, err := query(context.Background())
			if err != nil {
				r.logger.Warn("live query failed", "feed", name, "err", err)
				return
			}
			publish(v)
		}

		cancel := r.store.Watch(refresh)
		refresh()
		r.logger.Debug("feed started", "feed", name)

		return func() {
			cancel()
			r.logger.Debug("feed stopped", "feed", name)
		}
	}
}
