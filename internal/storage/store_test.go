package storage_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/nikbrunner/linkhub/internal/model"
	"github.com/nikbrunner/linkhub/internal/storage"
)

// backends returns a fresh instance of every Store implementation.
func backends(t *testing.T) map[string]storage.Store {
	t.Helper()
	tmpDir := t.TempDir()

	sqliteStore, err := storage.NewSQLiteStore(filepath.Join(tmpDir, "links.db"))
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}
	t.Cleanup(func() { sqliteStore.Close() })

	jsonStore, err := storage.NewJSONStore(filepath.Join(tmpDir, "links.json"))
	if err != nil {
		t.Fatalf("failed to create json store: %v", err)
	}

	return map[string]storage.Store{
		"sqlite": sqliteStore,
		"json":   jsonStore,
	}
}

func mustInsert(t *testing.T, s storage.Store, link model.Link) model.Link {
	t.Helper()
	stored, err := s.Insert(context.Background(), link)
	if err != nil {
		t.Fatalf("insert %q: %v", link.Title, err)
	}
	return stored
}

func titles(links []model.Link) []string {
	out := make([]string, len(links))
	for i, l := range links {
		out[i] = l.Title
	}
	return out
}

func TestStore_InsertAssignsUniqueIDs(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			seen := map[int64]bool{}
			for i := 0; i < 20; i++ {
				l := mustInsert(t, s, model.Link{Title: "link", URL: "https://example.com", CreatedAt: int64(i)})
				if l.ID == 0 {
					t.Fatal("expected a non-zero id")
				}
				if seen[l.ID] {
					t.Fatalf("id %d assigned twice", l.ID)
				}
				seen[l.ID] = true
			}
		})
	}
}

func TestStore_IDsNotReusedAfterDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			mustInsert(t, s, model.Link{Title: "a", URL: "https://a.com", CreatedAt: 1})
			last := mustInsert(t, s, model.Link{Title: "b", URL: "https://b.com", CreatedAt: 2})

			if err := s.Delete(ctx, last.ID); err != nil {
				t.Fatalf("delete: %v", err)
			}

			again := mustInsert(t, s, model.Link{Title: "c", URL: "https://c.com", CreatedAt: 3})
			if again.ID <= last.ID {
				t.Errorf("expected id greater than %d, got %d", last.ID, again.ID)
			}
		})
	}
}

func TestStore_AllOrderedNewestFirst(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			mustInsert(t, s, model.Link{Title: "100", URL: "https://a.com", CreatedAt: 100})
			mustInsert(t, s, model.Link{Title: "300", URL: "https://b.com", CreatedAt: 300})
			mustInsert(t, s, model.Link{Title: "200", URL: "https://c.com", CreatedAt: 200})

			all, err := s.All(ctx)
			if err != nil {
				t.Fatalf("all: %v", err)
			}
			got := titles(all)
			want := []string{"300", "200", "100"}
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("expected order %v, got %v", want, got)
				}
			}
		})
	}
}

func TestStore_FavoritesCategoriesAndByCategory(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			mustInsert(t, s, model.Link{Title: "Go", URL: "https://go.dev", Category: "Dev", IsFavorite: true, CreatedAt: 1})
			mustInsert(t, s, model.Link{Title: "News", URL: "https://news.com", Category: "Reading", CreatedAt: 2})
			mustInsert(t, s, model.Link{Title: "Rust", URL: "https://rust-lang.org", Category: "Dev", CreatedAt: 3})

			favs, err := s.Favorites(ctx)
			if err != nil {
				t.Fatalf("favorites: %v", err)
			}
			if len(favs) != 1 || favs[0].Title != "Go" {
				t.Errorf("expected [Go], got %v", titles(favs))
			}

			dev, err := s.ByCategory(ctx, "Dev")
			if err != nil {
				t.Fatalf("by category: %v", err)
			}
			if got := titles(dev); len(got) != 2 || got[0] != "Rust" || got[1] != "Go" {
				t.Errorf("expected [Rust Go], got %v", got)
			}

			cats, err := s.Categories(ctx)
			if err != nil {
				t.Fatalf("categories: %v", err)
			}
			if len(cats) != 2 || cats[0] != "Dev" || cats[1] != "Reading" {
				t.Errorf("expected [Dev Reading], got %v", cats)
			}
		})
	}
}

func TestStore_UpdateKeepsTrackedFields(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			l := mustInsert(t, s, model.Link{Title: "Old", URL: "https://old.com", Category: "General", CreatedAt: 42})
			if err := s.RecordOpen(ctx, l.ID, 1000); err != nil {
				t.Fatalf("record open: %v", err)
			}

			// A stale copy still carries ClickCount 0.
			stale := l
			stale.Title = "New"
			stale.IsFavorite = true
			stale.CreatedAt = 99
			stale.Notes = "note"
			if err := s.Update(ctx, stale); err != nil {
				t.Fatalf("update: %v", err)
			}

			got, err := s.Get(ctx, l.ID)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.Title != "New" || !got.IsFavorite || got.Notes != "note" {
				t.Errorf("editable fields not updated: %+v", got)
			}
			if got.CreatedAt != 42 {
				t.Errorf("CreatedAt changed to %d", got.CreatedAt)
			}
			if got.ClickCount != 1 || got.LastOpened != 1000 {
				t.Errorf("click tracking lost: count=%d lastOpened=%d", got.ClickCount, got.LastOpened)
			}
		})
	}
}

func TestStore_MissingIDsReportNotFound(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Update(ctx, model.Link{ID: 404, Title: "x", URL: "https://x.com"}); !errors.Is(err, model.ErrNotFound) {
				t.Errorf("update: expected ErrNotFound, got %v", err)
			}
			if err := s.Delete(ctx, 404); !errors.Is(err, model.ErrNotFound) {
				t.Errorf("delete: expected ErrNotFound, got %v", err)
			}
			if err := s.RecordOpen(ctx, 404, 1); !errors.Is(err, model.ErrNotFound) {
				t.Errorf("record open: expected ErrNotFound, got %v", err)
			}
			if _, err := s.Get(ctx, 404); !errors.Is(err, model.ErrNotFound) {
				t.Errorf("get: expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestStore_RecordOpenIsMonotonic(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			l := mustInsert(t, s, model.Link{Title: "x", URL: "https://x.com", ClickCount: 3})

			for i, at := range []int64{10, 20} {
				if err := s.RecordOpen(ctx, l.ID, at); err != nil {
					t.Fatalf("record open %d: %v", i, err)
				}
			}

			got, _ := s.Get(ctx, l.ID)
			if got.ClickCount != 5 {
				t.Errorf("expected click count 5, got %d", got.ClickCount)
			}
			if got.LastOpened != 20 {
				t.Errorf("expected last opened 20, got %d", got.LastOpened)
			}
		})
	}
}

func TestStore_ConcurrentRecordOpenLosesNothing(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			l := mustInsert(t, s, model.Link{Title: "x", URL: "https://x.com"})

			const n = 25
			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(at int64) {
					defer wg.Done()
					if err := s.RecordOpen(ctx, l.ID, at); err != nil {
						t.Errorf("record open: %v", err)
					}
				}(int64(i + 1))
			}
			wg.Wait()

			got, _ := s.Get(ctx, l.ID)
			if got.ClickCount != n {
				t.Errorf("expected %d clicks, got %d", n, got.ClickCount)
			}
		})
	}
}

func TestStore_DeleteRacingRecordOpenStaysConsistent(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			l := mustInsert(t, s, model.Link{Title: "x", URL: "https://x.com"})

			var wg sync.WaitGroup
			wg.Add(2)
			go func() {
				defer wg.Done()
				err := s.RecordOpen(ctx, l.ID, 5)
				if err != nil && !errors.Is(err, model.ErrNotFound) {
					t.Errorf("record open: %v", err)
				}
			}()
			go func() {
				defer wg.Done()
				if err := s.Delete(ctx, l.ID); err != nil {
					t.Errorf("delete: %v", err)
				}
			}()
			wg.Wait()

			all, err := s.All(ctx)
			if err != nil {
				t.Fatalf("all: %v", err)
			}
			if len(all) != 0 {
				t.Errorf("expected row to be gone, got %+v", all)
			}
		})
	}
}

func TestStore_WatchNotifiesAfterMutations(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var mu sync.Mutex
			calls := 0
			cancel := s.Watch(func() {
				mu.Lock()
				calls++
				mu.Unlock()
			})

			l := mustInsert(t, s, model.Link{Title: "x", URL: "https://x.com"})
			_ = s.Update(ctx, l)
			_ = s.RecordOpen(ctx, l.ID, 1)
			_ = s.Delete(ctx, l.ID)
			_ = s.Delete(ctx, l.ID) // not found: no notification

			cancel()
			mustInsert(t, s, model.Link{Title: "y", URL: "https://y.com"})

			mu.Lock()
			defer mu.Unlock()
			if calls != 4 {
				t.Errorf("expected 4 notifications, got %d", calls)
			}
		})
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	if _, err := storage.Open("mongo", t.TempDir()); err == nil {
		t.Error("expected error for unknown backend")
	}
}
