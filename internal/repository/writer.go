package repository

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/nikbrunner/linkhub/internal/model"
)

// ErrWriterClosed is returned for mutations submitted after Close.
var ErrWriterClosed = errors.New("writer closed")

// Result is the outcome of one asynchronous mutation.
type Result struct {
	Link model.Link // stored link for inserts, the input otherwise
	Err  error
}

type op struct {
	name   string
	run    func(ctx context.Context) (model.Link, error)
	result chan Result
}

// Writer applies mutations on a single goroutine in submission order.
// Submitting never blocks; each call returns a channel that receives
// exactly one Result.
type Writer struct {
	repo   *Repository
	logger *slog.Logger

	mu     sync.Mutex
	queue  []op
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

// NewWriter starts a writer goroutine for repo.
func NewWriter(repo *Repository, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = repo.logger
	}
	w := &Writer{
		repo:   repo,
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go w.run()
	return w
}

// Insert queues repo.Insert.
func (w *Writer) Insert(link model.Link) <-chan Result {
	return w.submit("insert", func(ctx context.Context) (model.Link, error) {
		return w.repo.Insert(ctx, link)
	})
}

// Blocking returns a view of w whose Insert waits for its result. It lets
// batch callers such as import share the writer's ordering.
func (w *Writer) Blocking() BlockingWriter {
	return BlockingWriter{w: w}
}

// BlockingWriter submits to a Writer and waits for each result.
type BlockingWriter struct {
	w *Writer
}

// Insert queues link and waits for it to be applied. If ctx ends first the
// insert may still be applied later.
func (b BlockingWriter) Insert(ctx context.Context, link model.Link) (model.Link, error) {
	select {
	case r := <-b.w.Insert(link):
		return r.Link, r.Err
	case <-ctx.Done():
		return model.Link{}, ctx.Err()
	}
}

// Update queues repo.Update.
func (w *Writer) Update(link model.Link) <-chan Result {
	return w.submit("update", func(ctx context.Context) (model.Link, error) {
		return link, w.repo.Update(ctx, link)
	})
}

// Delete queues repo.Delete.
func (w *Writer) Delete(link model.Link) <-chan Result {
	return w.submit("delete", func(ctx context.Context) (model.Link, error) {
		return link, w.repo.Delete(ctx, link)
	})
}

// RecordOpen queues repo.RecordOpen.
func (w *Writer) RecordOpen(id int64) <-chan Result {
	return w.submit("record open", func(ctx context.Context) (model.Link, error) {
		return model.Link{ID: id}, w.repo.RecordOpen(ctx, id)
	})
}

func (w *Writer) submit(name string, run func(ctx context.Context) (model.Link, error)) <-chan Result {
	result := make(chan Result, 1)

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		result <- Result{Err: ErrWriterClosed}
		return result
	}
	w.queue = append(w.queue, op{name: name, run: run, result: result})
	w.mu.Unlock()

	w.signal()
	return result
}

func (w *Writer) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Writer) run() {
	defer close(w.done)
	ctx := context.Background()

	for {
		w.mu.Lock()
		if len(w.queue) == 0 {
			closed := w.closed
			w.mu.Unlock()
			if closed {
				return
			}
			<-w.wake
			continue
		}
		next := w.queue[0]
		w.queue = w.queue[1:]
		w.mu.Unlock()

		link, err := next.run(ctx)
		if err != nil {
			level := slog.LevelWarn
			if errors.Is(err, model.ErrValidation) || errors.Is(err, model.ErrNotFound) {
				level = slog.LevelDebug
			}
			w.logger.Log(ctx, level, "write failed", "op", next.name, "err", err)
		}
		next.result <- Result{Link: link, Err: err}
	}
}

// Close stops accepting mutations, applies everything already queued,
// and waits for the goroutine to exit.
func (w *Writer) Close() {
	w.mu.Lock()
	alreadyClosed := w.closed
	w.closed = true
	w.mu.Unlock()

	if !alreadyClosed {
		w.signal()
	}
	<-w.done
}
