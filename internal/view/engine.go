package view

import (
	"log/slog"
	"sync"

	"github.com/nikbrunner/linkhub/internal/feed"
	"github.com/nikbrunner/linkhub/internal/model"
	"github.com/nikbrunner/linkhub/internal/repository"
)

// Engine keeps the derived view current. It holds one subscription to each
// of the all-links, favorites and categories feeds and re-derives the view
// whenever one of them or the query changes.
type Engine struct {
	repo   *repository.Repository
	writer *repository.Writer
	logger *slog.Logger

	allSub *feed.Subscription[[]model.Link]
	favSub *feed.Subscription[[]model.Link]
	catSub *feed.Subscription[[]string]

	links      *feed.Subject[[]model.Link]
	categories *feed.Subject[[]string]

	mu        sync.Mutex
	query     Query
	all       []model.Link
	favorites []model.Link
	haveAll   bool
	haveFavs  bool

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// EngineParams holds parameters for creating an Engine.
type EngineParams struct {
	Repo   *repository.Repository
	Writer *repository.Writer
	Logger *slog.Logger // optional
	Query  *Query       // optional, DefaultQuery if nil
}

// NewEngine subscribes to the repository feeds and starts deriving.
func NewEngine(params EngineParams) *Engine {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	query := DefaultQuery()
	if params.Query != nil {
		query = *params.Query
	}

	e := &Engine{
		repo:       params.Repo,
		writer:     params.Writer,
		logger:     logger,
		links:      feed.NewSubject[[]model.Link](),
		categories: feed.NewSubject[[]string](),
		query:      query,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}

	e.allSub = params.Repo.AllLinks().Subscribe()
	e.favSub = params.Repo.Favorites().Subscribe()
	e.catSub = params.Repo.Categories().Subscribe()

	go e.run()
	return e
}

func (e *Engine) run() {
	defer close(e.done)
	for {
		select {
		case all, ok := <-e.allSub.C():
			if !ok {
				return
			}
			e.mu.Lock()
			e.all, e.haveAll = all, true
			e.recomputeLocked()
			e.mu.Unlock()
		case favs, ok := <-e.favSub.C():
			if !ok {
				return
			}
			e.mu.Lock()
			e.favorites, e.haveFavs = favs, true
			e.recomputeLocked()
			e.mu.Unlock()
		case cats, ok := <-e.catSub.C():
			if !ok {
				return
			}
			e.categories.Publish(cats)
		case <-e.stop:
			return
		}
	}
}

// recomputeLocked re-runs the full pipeline once both inputs have arrived.
func (e *Engine) recomputeLocked() {
	if !e.haveAll || !e.haveFavs {
		return
	}
	e.links.Publish(Derive(e.all, e.favorites, e.query))
}

// Links is the live derived view.
func (e *Engine) Links() *feed.Subject[[]model.Link] {
	return e.links
}

// Categories is the live list of distinct categories.
func (e *Engine) Categories() *feed.Subject[[]string] {
	return e.categories
}

// Query returns the current query.
func (e *Engine) Query() Query {
	e.mu.Lock()
	defer e.mu.Unlock()
	q := e.query
	if q.Category != nil {
		c := *q.Category
		q.Category = &c
	}
	return q
}

// SetSearchQuery replaces the search text.
func (e *Engine) SetSearchQuery(search string) {
	e.update(func(q *Query) { q.Search = search })
}

// SetSortOption replaces the sort order.
func (e *Engine) SetSortOption(sort model.SortOption) {
	e.update(func(q *Query) { q.Sort = sort })
}

// SetFilterOption replaces the filter. category is only kept for
// FilterCategory.
func (e *Engine) SetFilterOption(filter model.FilterOption, category *string) {
	e.update(func(q *Query) {
		q.Filter = filter
		q.Category = nil
		if filter == model.FilterCategory && category != nil {
			c := *category
			q.Category = &c
		}
	})
}

func (e *Engine) update(fn func(q *Query)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.query)
	e.recomputeLocked()
}

// InsertLink stores a new link.
func (e *Engine) InsertLink(link model.Link) <-chan repository.Result {
	return e.writer.Insert(link)
}

// UpdateLink writes the editable fields of link.
func (e *Engine) UpdateLink(link model.Link) <-chan repository.Result {
	return e.writer.Update(link)
}

// DeleteLink removes link. Keep the value to hand back to RestoreLink.
func (e *Engine) DeleteLink(link model.Link) <-chan repository.Result {
	return e.writer.Delete(link)
}

// RestoreLink re-inserts a deleted link as a new record with a fresh id.
func (e *Engine) RestoreLink(link model.Link) <-chan repository.Result {
	return e.writer.Insert(link)
}

// ToggleFavorite flips IsFavorite and writes the record back.
func (e *Engine) ToggleFavorite(link model.Link) <-chan repository.Result {
	link.IsFavorite = !link.IsFavorite
	return e.writer.Update(link)
}

// RecordOpen counts one open of the link with id.
func (e *Engine) RecordOpen(id int64) <-chan repository.Result {
	return e.writer.RecordOpen(id)
}

// Close releases the feed subscriptions and ends the derived feeds.
// The writer is owned by the caller.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		close(e.stop)
		<-e.done
		e.allSub.Close()
		e.favSub.Close()
		e.catSub.Close()
		e.links.Close()
		e.categories.Close()
		e.logger.Debug("view engine closed")
	})
}
