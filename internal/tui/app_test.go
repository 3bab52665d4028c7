package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/nikbrunner/linkhub/internal/model"
	"github.com/nikbrunner/linkhub/internal/repository"
	"github.com/nikbrunner/linkhub/internal/settings"
	"github.com/nikbrunner/linkhub/internal/storage"
	"github.com/nikbrunner/linkhub/internal/view"
)

type harness struct {
	repo   *repository.Repository
	engine *view.Engine
	opened []string
	copied []string
}

// newHarness builds an engine over an in-memory store seeded with links,
// oldest first.
func newHarness(t *testing.T, seed ...model.Link) *harness {
	t.Helper()
	store, err := storage.NewSQLiteStore(":memory:")
	assert.NilError(t, err)

	clock := int64(1_000)
	repo := repository.New(repository.Params{
		Store: store,
		Grace: -1,
		Now: func() int64 {
			clock++
			return clock
		},
	})
	for _, l := range seed {
		_, err := repo.Insert(context.Background(), l)
		assert.NilError(t, err)
	}

	writer := repository.NewWriter(repo, nil)
	engine := view.NewEngine(view.EngineParams{Repo: repo, Writer: writer})
	t.Cleanup(func() {
		engine.Close()
		writer.Close()
		store.Close()
	})
	return &harness{repo: repo, engine: engine}
}

func (h *harness) app(t *testing.T, params AppParams) App {
	t.Helper()
	params.Engine = h.engine
	if params.Open == nil {
		params.Open = func(url, _ string) error {
			h.opened = append(h.opened, url)
			return nil
		}
	}
	if params.Copy == nil {
		params.Copy = func(text string) error {
			h.copied = append(h.copied, text)
			return nil
		}
	}
	a := NewApp(params)
	t.Cleanup(a.Close)
	return a
}

func link(title, url, category string) model.Link {
	return model.Link{Title: title, URL: url, Category: category}
}

// refresh feeds derived lists to the app until match accepts one.
func refresh(t *testing.T, a App, match func([]model.Link) bool) App {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case v := <-a.linksSub.C():
			m, _ := a.Update(linksMsg(v))
			a = m.(App)
			if match(v) {
				return a
			}
		case <-deadline:
			t.Fatal("timed out waiting for links")
			return a
		}
	}
}

func hasLen(n int) func([]model.Link) bool {
	return func(links []model.Link) bool { return len(links) == n }
}

// exec runs cmd and feeds its messages back into the app. Follow-up
// commands are not run.
func exec(t *testing.T, a App, cmd tea.Cmd) App {
	t.Helper()
	if cmd == nil {
		return a
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			a = exec(t, a, c)
		}
		return a
	}
	m, _ := a.Update(msg)
	return m.(App)
}

func press(a App, keys ...string) (App, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		var m tea.Model
		m, cmd = a.Update(msg)
		a = m.(App)
	}
	return a, cmd
}

func typeText(a App, text string) App {
	for _, r := range text {
		a, _ = press(a, string(r))
	}
	return a
}

func TestApp_Navigation_JK(t *testing.T) {
	h := newHarness(t,
		link("One", "https://one.example", ""),
		link("Two", "https://two.example", ""),
		link("Three", "https://three.example", ""),
	)
	a := refresh(t, h.app(t, AppParams{}), hasLen(3))

	assert.Equal(t, a.Cursor(), 0)
	a, _ = press(a, "j")
	assert.Equal(t, a.Cursor(), 1)
	a, _ = press(a, "j", "j", "j")
	assert.Equal(t, a.Cursor(), 2, "cursor stops at the last link")
	a, _ = press(a, "k", "k", "k")
	assert.Equal(t, a.Cursor(), 0, "cursor stops at the first link")
}

func TestApp_Navigation_GG_G(t *testing.T) {
	h := newHarness(t,
		link("One", "https://one.example", ""),
		link("Two", "https://two.example", ""),
		link("Three", "https://three.example", ""),
	)
	a := refresh(t, h.app(t, AppParams{}), hasLen(3))

	a, _ = press(a, "G")
	assert.Equal(t, a.Cursor(), 2)

	a, _ = press(a, "g")
	assert.Equal(t, a.Cursor(), 2, "single g does nothing")
	a, _ = press(a, "g")
	assert.Equal(t, a.Cursor(), 0)
}

func TestApp_NewestFirstByDefault(t *testing.T) {
	h := newHarness(t,
		link("Old", "https://old.example", ""),
		link("New", "https://new.example", ""),
	)
	a := refresh(t, h.app(t, AppParams{}), hasLen(2))

	assert.Equal(t, a.Links()[0].Title, "New")
	assert.Equal(t, a.Links()[1].Title, "Old")
}

func TestApp_CursorFollowsLinkAcrossUpdates(t *testing.T) {
	h := newHarness(t,
		link("Alpha", "https://alpha.example", ""),
		link("Beta", "https://beta.example", ""),
	)
	a := refresh(t, h.app(t, AppParams{}), hasLen(2))

	a, _ = press(a, "j")
	assert.Equal(t, a.Links()[a.Cursor()].Title, "Alpha")

	_, err := h.repo.Insert(context.Background(), link("Gamma", "https://gamma.example", ""))
	assert.NilError(t, err)
	a = refresh(t, a, hasLen(3))

	assert.Equal(t, a.Links()[a.Cursor()].Title, "Alpha")
}

func TestApp_AddLink(t *testing.T) {
	h := newHarness(t)
	a := refresh(t, h.app(t, AppParams{}), hasLen(0))

	a, _ = press(a, "a")
	assert.Equal(t, a.Mode(), ModeAdd)

	a = typeText(a, "https://go.dev")
	a, _ = press(a, "tab")
	a = typeText(a, "Go")
	a, _ = press(a, "tab")
	a = typeText(a, "Dev")

	a, cmd := press(a, "enter")
	assert.Equal(t, a.Mode(), ModeNormal)
	a = exec(t, a, cmd)
	assert.Check(t, is.Contains(a.Message(), "Added Go"))

	a = refresh(t, a, hasLen(1))
	got := a.Links()[0]
	assert.Equal(t, got.URL, "https://go.dev")
	assert.Equal(t, got.Category, "Dev")
	assert.Equal(t, got.FaviconURL, "https://go.dev/favicon.ico")
}

func TestApp_AddLink_FetchesMissingTitle(t *testing.T) {
	h := newHarness(t)
	var fetched string
	a := h.app(t, AppParams{
		Fetch: func(_ context.Context, url string) (string, error) {
			fetched = url
			return "The Go Programming Language", nil
		},
	})
	a = refresh(t, a, hasLen(0))

	a, _ = press(a, "a")
	a = typeText(a, "https://go.dev")
	a, cmd := press(a, "enter")
	assert.Assert(t, a.form.Fetching)

	// title fetched, then insert
	a = exec(t, a, cmd)
	assert.Equal(t, fetched, "https://go.dev")
	assert.Equal(t, a.Mode(), ModeNormal)

	a = refresh(t, a, hasLen(1))
	assert.Equal(t, a.Links()[0].Title, "The Go Programming Language")
	assert.Equal(t, a.Links()[0].Category, model.DefaultCategory)
}

func TestApp_AddLink_RejectsURLWithoutScheme(t *testing.T) {
	h := newHarness(t)
	a := refresh(t, h.app(t, AppParams{}), hasLen(0))

	a, _ = press(a, "a")
	a = typeText(a, "go.dev")
	a, cmd := press(a, "enter")

	assert.Assert(t, cmd == nil)
	assert.Equal(t, a.Mode(), ModeAdd)
	assert.Check(t, is.Contains(a.Message(), "http://"))
}

func TestApp_AddLink_Cancel(t *testing.T) {
	h := newHarness(t)
	a := refresh(t, h.app(t, AppParams{}), hasLen(0))

	a, _ = press(a, "a")
	a = typeText(a, "https://go.dev")
	a, cmd := press(a, "esc")

	assert.Assert(t, cmd == nil)
	assert.Equal(t, a.Mode(), ModeNormal)
}

func TestApp_EditLink(t *testing.T) {
	h := newHarness(t, link("Go", "https://go.dev", "Dev"))
	a := refresh(t, h.app(t, AppParams{}), hasLen(1))

	a, _ = press(a, "e")
	assert.Equal(t, a.Mode(), ModeEdit)
	assert.Equal(t, a.form.Value(FieldTitle), "Go")

	a, _ = press(a, "tab", " ", "D", "o", "c", "s")
	a, cmd := press(a, "enter")
	a = exec(t, a, cmd)
	assert.Check(t, is.Contains(a.Message(), "Saved"))

	a = refresh(t, a, func(links []model.Link) bool {
		return len(links) == 1 && links[0].Title == "Go Docs"
	})
	assert.Equal(t, a.Links()[0].Category, "Dev")
}

func TestApp_DeleteAndUndo(t *testing.T) {
	h := newHarness(t, link("Go", "https://go.dev", "Dev"))
	a := refresh(t, h.app(t, AppParams{}), hasLen(1))

	a, cmd := press(a, "d")
	a = exec(t, a, cmd)
	assert.Check(t, is.Contains(a.Message(), "u to undo"))
	a = refresh(t, a, hasLen(0))

	a, cmd = press(a, "u")
	a = exec(t, a, cmd)
	assert.Check(t, is.Contains(a.Message(), "Restored Go"))

	a = refresh(t, a, hasLen(1))
	assert.Equal(t, a.Links()[0].Category, "Dev")
}

func TestApp_UndoExpires(t *testing.T) {
	h := newHarness(t, link("Go", "https://go.dev", ""))
	a := refresh(t, h.app(t, AppParams{}), hasLen(1))

	a, cmd := press(a, "d")
	a = exec(t, a, cmd)

	// a stale timer from an earlier delete is ignored
	m, _ := a.Update(undoExpiredMsg{gen: a.undoGen - 1})
	a = m.(App)
	assert.Assert(t, a.undo != nil)

	m, _ = a.Update(undoExpiredMsg{gen: a.undoGen})
	a = m.(App)
	assert.Assert(t, a.undo == nil)

	a, cmd = press(a, "u")
	assert.Assert(t, cmd == nil)
	assert.Equal(t, a.Message(), "Nothing to undo")
}

func TestApp_OpenRecordsClick(t *testing.T) {
	h := newHarness(t, link("Go", "https://go.dev", ""))
	a := refresh(t, h.app(t, AppParams{}), hasLen(1))

	a, cmd := press(a, "enter")
	a = exec(t, a, cmd)
	assert.DeepEqual(t, h.opened, []string{"https://go.dev"})

	a = refresh(t, a, func(links []model.Link) bool {
		return len(links) == 1 && links[0].ClickCount == 1
	})
	assert.Assert(t, a.Links()[0].LastOpened > 0)
}

func TestApp_ToggleFavorite(t *testing.T) {
	h := newHarness(t, link("Go", "https://go.dev", ""))
	a := refresh(t, h.app(t, AppParams{}), hasLen(1))

	a, cmd := press(a, "*")
	a = exec(t, a, cmd)
	assert.Equal(t, a.Message(), "Added to favorites")

	a = refresh(t, a, func(links []model.Link) bool {
		return len(links) == 1 && links[0].IsFavorite
	})
}

func TestApp_YankURL(t *testing.T) {
	h := newHarness(t, link("Go", "https://go.dev", ""))
	a := refresh(t, h.app(t, AppParams{}), hasLen(1))

	a, _ = press(a, "Y")
	assert.DeepEqual(t, h.copied, []string{"https://go.dev"})
	assert.Check(t, is.Contains(a.Message(), "Copied"))
}

func TestApp_SearchUpdatesQuery(t *testing.T) {
	h := newHarness(t,
		link("Go", "https://go.dev", ""),
		link("Rust", "https://rust-lang.org", ""),
	)
	a := refresh(t, h.app(t, AppParams{}), hasLen(2))

	a, _ = press(a, "/")
	assert.Equal(t, a.Mode(), ModeSearch)
	a = typeText(a, "rust")
	assert.Equal(t, h.engine.Query().Search, "rust")

	a = refresh(t, a, hasLen(1))
	assert.Equal(t, a.Links()[0].Title, "Rust")

	a, _ = press(a, "esc")
	assert.Equal(t, a.Mode(), ModeNormal)
	assert.Equal(t, h.engine.Query().Search, "")
}

func TestApp_SortCycles(t *testing.T) {
	h := newHarness(t)
	a := h.app(t, AppParams{})

	start := h.engine.Query().Sort
	a, _ = press(a, "s")
	assert.Equal(t, h.engine.Query().Sort, start.Next())
	assert.Check(t, strings.HasPrefix(a.Message(), "Sort: "))
}

func TestApp_FilterCycles(t *testing.T) {
	h := newHarness(t,
		link("Go", "https://go.dev", "Dev"),
		link("News", "https://news.example", "Read"),
	)
	a := refresh(t, h.app(t, AppParams{}), hasLen(2))
	m, _ := a.Update(categoriesMsg{"Dev", "Read"})
	a = m.(App)

	steps := []struct {
		filter   model.FilterOption
		category string
	}{
		{model.FilterFavorites, ""},
		{model.FilterCategory, "Dev"},
		{model.FilterCategory, "Read"},
		{model.FilterAll, ""},
	}
	for _, step := range steps {
		a, _ = press(a, "f")
		q := h.engine.Query()
		assert.Equal(t, q.Filter, step.filter)
		if step.category == "" {
			assert.Assert(t, q.Category == nil)
		} else {
			assert.Equal(t, *q.Category, step.category)
		}
	}
}

func TestApp_ToggleTheme(t *testing.T) {
	provider, err := settings.Open(filepath.Join(t.TempDir(), "settings.json"))
	assert.NilError(t, err)

	h := newHarness(t)
	a := h.app(t, AppParams{Settings: provider})
	assert.Assert(t, a.dark)

	a, _ = press(a, "T")
	assert.Assert(t, !provider.Get().DarkTheme)

	m, _ := a.Update(settingsMsg(provider.Get()))
	a = m.(App)
	assert.Assert(t, !a.dark)
}

func TestApp_HelpClosesOnAnyKey(t *testing.T) {
	h := newHarness(t)
	a := h.app(t, AppParams{})

	a, _ = press(a, "?")
	assert.Equal(t, a.Mode(), ModeHelp)
	a, _ = press(a, "x")
	assert.Equal(t, a.Mode(), ModeNormal)
}
