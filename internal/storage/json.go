package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/nikbrunner/linkhub/internal/model"
)

// jsonFile is the on-disk layout of a JSONStore.
// NextID survives deletes so ids are never handed out twice.
type jsonFile struct {
	NextID int64        `json:"nextId"`
	Links  []model.Link `json:"links"`
}

// JSONStore implements Store using a single JSON file.
// The whole file is rewritten after every mutation.
type JSONStore struct {
	path string

	mu       sync.RWMutex
	data     jsonFile
	watchers watchers
}

// NewJSONStore loads the store at path. A missing file yields an empty store.
func NewJSONStore(path string) (*JSONStore, error) {
	s := &JSONStore{path: path}
	if err := s.load(); err != nil {
		return nil, model.WrapStorage("load", err)
	}
	return s, nil
}

// Path returns the storage file path.
func (s *JSONStore) Path() string {
	return s.path
}

func (s *JSONStore) load() error {
	s.data = jsonFile{NextID: 1, Links: []model.Link{}}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	var data jsonFile
	if err := json.Unmarshal(raw, &data); err != nil {
		return err
	}
	if data.Links == nil {
		data.Links = []model.Link{}
	}

	// Repair a file whose counter lags behind its contents.
	for _, l := range data.Links {
		if l.ID >= data.NextID {
			data.NextID = l.ID + 1
		}
	}
	if data.NextID < 1 {
		data.NextID = 1
	}

	s.data = data
	return nil
}

// save writes data to disk. Callers hold the write lock.
func (s *JSONStore) save(data jsonFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// commit persists next and swaps it in only if the write succeeded.
func (s *JSONStore) commit(op string, next jsonFile) error {
	if err := s.save(next); err != nil {
		return model.WrapStorage(op, err)
	}
	s.data = next
	return nil
}

// Close implements Store. The file is already flushed after each write.
func (s *JSONStore) Close() error {
	return nil
}

// Watch implements Store.
func (s *JSONStore) Watch(fn func()) func() {
	return s.watchers.add(fn)
}

func (s *JSONStore) filter(keep func(model.Link) bool) []model.Link {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []model.Link{}
	for _, l := range s.data.Links {
		if keep(l) {
			result = append(result, l)
		}
	}
	sortNewestFirst(result)
	return result
}

// All returns every link, newest first.
func (s *JSONStore) All(ctx context.Context) ([]model.Link, error) {
	return s.filter(func(model.Link) bool { return true }), nil
}

// Favorites returns favorite links, newest first.
func (s *JSONStore) Favorites(ctx context.Context) ([]model.Link, error) {
	return s.filter(func(l model.Link) bool { return l.IsFavorite }), nil
}

// ByCategory returns links in category, newest first.
func (s *JSONStore) ByCategory(ctx context.Context, category string) ([]model.Link, error) {
	return s.filter(func(l model.Link) bool { return l.Category == category }), nil
}

// Categories returns the distinct categories in ascending order.
func (s *JSONStore) Categories(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := []string{}
	for _, l := range s.data.Links {
		categories = append(categories, l.Category)
	}
	slices.Sort(categories)
	return slices.Compact(categories), nil
}

// Get returns the link with id, or model.ErrNotFound.
func (s *JSONStore) Get(ctx context.Context, id int64) (model.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.data.Links[i], nil
	}
	return model.Link{}, model.ErrNotFound
}

func (s *JSONStore) indexOf(id int64) int {
	return slices.IndexFunc(s.data.Links, func(l model.Link) bool { return l.ID == id })
}

// Insert stores link under the next id.
func (s *JSONStore) Insert(ctx context.Context, link model.Link) (model.Link, error) {
	s.mu.Lock()
	link.ID = s.data.NextID
	next := jsonFile{
		NextID: s.data.NextID + 1,
		Links:  append(slices.Clone(s.data.Links), link),
	}
	err := s.commit("insert", next)
	s.mu.Unlock()

	if err != nil {
		return model.Link{}, err
	}
	s.watchers.notify()
	return link, nil
}

// Update replaces the editable fields of an existing link.
func (s *JSONStore) Update(ctx context.Context, link model.Link) error {
	err := s.mutate("update", link.ID, func(links []model.Link, i int) []model.Link {
		cur := &links[i]
		cur.Title = link.Title
		cur.URL = link.URL
		cur.Category = link.Category
		cur.IsFavorite = link.IsFavorite
		cur.Notes = link.Notes
		cur.FaviconURL = link.FaviconURL
		return links
	})
	if err != nil {
		return err
	}
	s.watchers.notify()
	return nil
}

// Delete removes the link with id.
func (s *JSONStore) Delete(ctx context.Context, id int64) error {
	err := s.mutate("delete", id, func(links []model.Link, i int) []model.Link {
		return slices.Delete(links, i, i+1)
	})
	if err != nil {
		return err
	}
	s.watchers.notify()
	return nil
}

// RecordOpen bumps the click counter and last-opened time under one lock.
func (s *JSONStore) RecordOpen(ctx context.Context, id int64, atMillis int64) error {
	err := s.mutate("record open", id, func(links []model.Link, i int) []model.Link {
		links[i].ClickCount++
		links[i].LastOpened = atMillis
		return links
	})
	if err != nil {
		return err
	}
	s.watchers.notify()
	return nil
}

// mutate applies fn to a copy of the links and commits the result.
func (s *JSONStore) mutate(op string, id int64, fn func(links []model.Link, i int) []model.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.ErrNotFound
	}

	next := jsonFile{
		NextID: s.data.NextID,
		Links:  fn(slices.Clone(s.data.Links), i),
	}
	return s.commit(op, next)
}
