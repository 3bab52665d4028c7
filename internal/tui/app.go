// Package tui is the interactive terminal interface over the view engine.
package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nikbrunner/linkhub/internal/feed"
	"github.com/nikbrunner/linkhub/internal/model"
	"github.com/nikbrunner/linkhub/internal/repository"
	"github.com/nikbrunner/linkhub/internal/settings"
	"github.com/nikbrunner/linkhub/internal/tui/layout"
	"github.com/nikbrunner/linkhub/internal/view"
)

// UndoWindow is how long a deleted link can be restored with undo.
const UndoWindow = 5 * time.Second

// TitleFetcher looks up a page title for a url.
type TitleFetcher func(ctx context.Context, url string) (string, error)

// App is the main bubbletea model.
type App struct {
	engine   *view.Engine
	settings *settings.Provider
	fetch    TitleFetcher
	open     func(url, title string) error
	copy     func(text string) error

	keys         KeyMap
	styles       Styles
	layoutConfig layout.LayoutConfig
	dark         bool

	linksSub    *feed.Subscription[[]model.Link]
	catsSub     *feed.Subscription[[]string]
	settingsSub *feed.Subscription[settings.Settings]

	links      []model.Link
	categories []string
	loaded     bool
	cursor     int

	mode   Mode
	search textinput.Model
	form   FormState

	undo    *model.Link
	undoGen int

	messageText string
	messageType MessageType

	// For gg command
	lastKeyWasG bool

	width  int
	height int
}

// AppParams holds parameters for creating a new App.
type AppParams struct {
	Engine   *view.Engine
	Settings *settings.Provider            // optional
	Fetch    TitleFetcher                  // optional
	Open     func(url, title string) error // hands a link to the browser
	Copy     func(text string) error       // clipboard writer
	Keys     *KeyMap                       // optional, uses default if nil

	LayoutConfig *layout.LayoutConfig // optional, uses default if nil
}

// NewApp creates a new App with the given parameters.
func NewApp(params AppParams) App {
	keys := DefaultKeyMap()
	if params.Keys != nil {
		keys = *params.Keys
	}

	dark := settings.Default().DarkTheme
	if params.Settings != nil {
		dark = params.Settings.Get().DarkTheme
	}

	cfg := layout.DefaultConfig()
	if params.LayoutConfig != nil {
		cfg = *params.LayoutConfig
	}

	search := textinput.New()
	search.Placeholder = "Search title, url, category..."
	search.CharLimit = cfg.Input.SearchCharLimit
	search.Width = cfg.Input.StandardWidth
	search.SetValue(params.Engine.Query().Search)

	app := App{
		engine:       params.Engine,
		settings:     params.Settings,
		fetch:        params.Fetch,
		open:         params.Open,
		copy:         params.Copy,
		keys:         keys,
		styles:       DefaultStyles(dark),
		layoutConfig: cfg,
		dark:         dark,
		linksSub:     params.Engine.Links().Subscribe(),
		catsSub:      params.Engine.Categories().Subscribe(),
		search:       search,
		form:         NewFormState(cfg),
		width:        80,
		height:       24,
	}
	if params.Settings != nil {
		app.settingsSub = params.Settings.Subscribe()
	}
	return app
}

// Close releases the app's feed subscriptions.
func (a App) Close() {
	a.linksSub.Close()
	a.catsSub.Close()
	if a.settingsSub != nil {
		a.settingsSub.Close()
	}
}

// Messages delivered to Update.
type (
	linksMsg      []model.Link
	categoriesMsg []string
	settingsMsg   settings.Settings

	writeResultMsg struct {
		op   string
		link model.Link
		err  error
	}

	titleFetchedMsg struct {
		link  model.Link
		title string
		err   error
	}

	openedMsg struct {
		link model.Link
		err  error
	}

	undoExpiredMsg struct {
		gen int
	}
)

func waitFor[T any](sub *feed.Subscription[T], wrap func(T) tea.Msg) tea.Cmd {
	if sub == nil {
		return nil
	}
	return func() tea.Msg {
		v, ok := <-sub.C()
		if !ok {
			return nil
		}
		return wrap(v)
	}
}

func (a App) waitForLinks() tea.Cmd {
	return waitFor(a.linksSub, func(v []model.Link) tea.Msg { return linksMsg(v) })
}

func (a App) waitForCategories() tea.Cmd {
	return waitFor(a.catsSub, func(v []string) tea.Msg { return categoriesMsg(v) })
}

func (a App) waitForSettings() tea.Cmd {
	return waitFor(a.settingsSub, func(v settings.Settings) tea.Msg { return settingsMsg(v) })
}

func awaitWrite(op string, ch <-chan repository.Result) tea.Cmd {
	return func() tea.Msg {
		r := <-ch
		return writeResultMsg{op: op, link: r.Link, err: r.Err}
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(a.waitForLinks(), a.waitForCategories(), a.waitForSettings())
}

// WithDimensions returns the app sized to a fixed terminal.
func (a App) WithDimensions(width, height int) App {
	a.width = width
	a.height = height
	return a
}

// Links returns the rendered links.
func (a App) Links() []model.Link {
	return a.links
}

// Cursor returns the current cursor position.
func (a App) Cursor() int {
	return a.cursor
}

// Mode returns the current input mode.
func (a App) Mode() Mode {
	return a.mode
}

// Message returns the status line text.
func (a App) Message() string {
	return a.messageText
}

func (a App) current() (model.Link, bool) {
	if a.cursor < 0 || a.cursor >= len(a.links) {
		return model.Link{}, false
	}
	return a.links[a.cursor], true
}

func (a *App) setMessage(t MessageType, format string, args ...any) {
	a.messageType = t
	a.messageText = fmt.Sprintf(format, args...)
}

// setLinks swaps in a new derived list, keeping the cursor on the same link
// when it is still visible.
func (a *App) setLinks(links []model.Link) {
	var selected int64
	if cur, ok := a.current(); ok {
		selected = cur.ID
	}
	a.links = links
	a.loaded = true

	if i := slices.IndexFunc(links, func(l model.Link) bool { return l.ID == selected }); i >= 0 {
		a.cursor = i
		return
	}
	if a.cursor >= len(links) {
		a.cursor = len(links) - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case linksMsg:
		a.setLinks(msg)
		return a, a.waitForLinks()

	case categoriesMsg:
		a.categories = msg
		return a, a.waitForCategories()

	case settingsMsg:
		a.dark = msg.DarkTheme
		a.styles = DefaultStyles(a.dark)
		return a, a.waitForSettings()

	case writeResultMsg:
		return a.handleWriteResult(msg)

	case titleFetchedMsg:
		return a.handleTitleFetched(msg)

	case openedMsg:
		if msg.err != nil {
			a.setMessage(MessageError, "Could not open %s: %v", msg.link.URL, msg.err)
		} else {
			a.setMessage(MessageInfo, "Opened %s", msg.link.Title)
		}
		return a, nil

	case undoExpiredMsg:
		if msg.gen == a.undoGen && a.undo != nil {
			a.undo = nil
			a.messageText = ""
		}
		return a, nil

	case tea.KeyMsg:
		switch a.mode {
		case ModeSearch:
			return a.updateSearch(msg)
		case ModeAdd, ModeEdit:
			return a.updateForm(msg)
		case ModeHelp:
			a.mode = ModeNormal
			return a, nil
		default:
			return a.updateNormal(msg)
		}
	}

	return a, nil
}

func (a App) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle gg sequence
	if key.Matches(msg, a.keys.Top) {
		if a.lastKeyWasG {
			a.cursor = 0
			a.lastKeyWasG = false
			return a, nil
		}
		a.lastKeyWasG = true
		return a, nil
	}
	a.lastKeyWasG = false

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Down):
		if a.cursor < len(a.links)-1 {
			a.cursor++
		}

	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}

	case key.Matches(msg, a.keys.Bottom):
		if len(a.links) > 0 {
			a.cursor = len(a.links) - 1
		}

	case key.Matches(msg, a.keys.Help):
		a.mode = ModeHelp

	case key.Matches(msg, a.keys.Search):
		a.mode = ModeSearch
		a.search.CursorEnd()
		return a, a.search.Focus()

	case key.Matches(msg, a.keys.Sort):
		next := a.engine.Query().Sort.Next()
		a.engine.SetSortOption(next)
		a.setMessage(MessageInfo, "Sort: %s", next.Label())

	case key.Matches(msg, a.keys.Filter):
		a.cycleFilter()

	case key.Matches(msg, a.keys.Add):
		a.form.Reset()
		a.mode = ModeAdd
		return a, textinput.Blink

	case key.Matches(msg, a.keys.Edit):
		if link, ok := a.current(); ok {
			a.form.Load(link)
			a.mode = ModeEdit
			return a, textinput.Blink
		}

	case key.Matches(msg, a.keys.Favorite):
		if link, ok := a.current(); ok {
			return a, awaitWrite("favorite", a.engine.ToggleFavorite(link))
		}

	case key.Matches(msg, a.keys.Delete):
		if link, ok := a.current(); ok {
			return a, awaitWrite("delete", a.engine.DeleteLink(link))
		}

	case key.Matches(msg, a.keys.Undo):
		if a.undo != nil {
			link := *a.undo
			a.undo = nil
			return a, awaitWrite("restore", a.engine.RestoreLink(link))
		}
		a.setMessage(MessageWarning, "Nothing to undo")

	case key.Matches(msg, a.keys.Open):
		if link, ok := a.current(); ok {
			return a, a.openLink(link)
		}

	case key.Matches(msg, a.keys.YankURL):
		if link, ok := a.current(); ok && a.copy != nil {
			if err := a.copy(link.URL); err != nil {
				a.setMessage(MessageError, "Copy failed: %v", err)
			} else {
				a.setMessage(MessageSuccess, "Copied %s", link.URL)
			}
		}

	case key.Matches(msg, a.keys.ToggleTheme):
		if a.settings != nil {
			err := a.settings.Set(func(s *settings.Settings) error {
				s.DarkTheme = !s.DarkTheme
				return nil
			})
			if err != nil {
				a.setMessage(MessageError, "%v", err)
			}
		}
	}

	return a, nil
}

// openLink records the open once and then hands the link to the browser.
func (a App) openLink(link model.Link) tea.Cmd {
	record := awaitWrite("open", a.engine.RecordOpen(link.ID))
	if a.open == nil {
		return record
	}
	open := a.open
	return tea.Batch(record, func() tea.Msg {
		return openedMsg{link: link, err: open(link.URL, link.Title)}
	})
}

// cycleFilter steps through all, favorites, then each category.
func (a *App) cycleFilter() {
	q := a.engine.Query()

	switch q.Filter {
	case model.FilterAll:
		a.engine.SetFilterOption(model.FilterFavorites, nil)
		a.setMessage(MessageInfo, "Filter: favorites")
		return
	case model.FilterFavorites:
		if len(a.categories) > 0 {
			a.engine.SetFilterOption(model.FilterCategory, &a.categories[0])
			a.setMessage(MessageInfo, "Filter: %s", a.categories[0])
			return
		}
	case model.FilterCategory:
		if q.Category != nil {
			i := slices.Index(a.categories, *q.Category)
			if i >= 0 && i+1 < len(a.categories) {
				next := a.categories[i+1]
				a.engine.SetFilterOption(model.FilterCategory, &next)
				a.setMessage(MessageInfo, "Filter: %s", next)
				return
			}
		}
	}

	a.engine.SetFilterOption(model.FilterAll, nil)
	a.setMessage(MessageInfo, "Filter: all")
}

func (a App) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		a.search.SetValue("")
		a.search.Blur()
		a.engine.SetSearchQuery("")
		a.mode = ModeNormal
		return a, nil
	case tea.KeyEnter:
		a.search.Blur()
		a.mode = ModeNormal
		return a, nil
	}

	var cmd tea.Cmd
	a.search, cmd = a.search.Update(msg)
	a.engine.SetSearchQuery(a.search.Value())
	a.cursor = 0
	return a, cmd
}

func (a App) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.form.Fetching {
		if msg.Type == tea.KeyEsc {
			a.mode = ModeNormal
			a.form.Fetching = false
		}
		return a, nil
	}

	switch msg.Type {
	case tea.KeyEsc:
		a.mode = ModeNormal
		return a, nil
	case tea.KeyTab, tea.KeyDown:
		a.form.Move(1)
		return a, nil
	case tea.KeyShiftTab, tea.KeyUp:
		a.form.Move(-1)
		return a, nil
	case tea.KeyEnter:
		return a.submitForm()
	}

	var cmd tea.Cmd
	a.form.Inputs[a.form.Focus], cmd = a.form.Inputs[a.form.Focus].Update(msg)
	return a, cmd
}

func (a App) submitForm() (tea.Model, tea.Cmd) {
	url := a.form.Value(FieldURL)
	if !model.HasValidScheme(url) {
		a.setMessage(MessageWarning, "URL must start with http:// or https://")
		return a, nil
	}

	if a.mode == ModeEdit {
		link := a.form.Editing
		link.URL = url
		link.Title = a.form.Value(FieldTitle)
		link.Category = a.form.Value(FieldCategory)
		link.Notes = a.form.Value(FieldNotes)
		link.FaviconURL = model.FaviconURL(url)
		if link.Category == "" {
			link.Category = model.DefaultCategory
		}
		if err := repository.Validate(link); err != nil {
			a.setMessage(MessageWarning, "%v", err)
			return a, nil
		}
		a.mode = ModeNormal
		return a, awaitWrite("update", a.engine.UpdateLink(link))
	}

	link := model.NewLink(model.NewLinkParams{
		Title:    a.form.Value(FieldTitle),
		URL:      url,
		Category: a.form.Value(FieldCategory),
		Notes:    a.form.Value(FieldNotes),
	})

	if link.Title == "" && a.fetch != nil {
		a.form.Fetching = true
		a.setMessage(MessageInfo, "Fetching title...")
		fetch := a.fetch
		return a, func() tea.Msg {
			title, err := fetch(context.Background(), link.URL)
			return titleFetchedMsg{link: link, title: title, err: err}
		}
	}
	if link.Title == "" {
		link.Title = link.URL
	}

	a.mode = ModeNormal
	return a, awaitWrite("insert", a.engine.InsertLink(link))
}

func (a App) handleTitleFetched(msg titleFetchedMsg) (tea.Model, tea.Cmd) {
	if !a.form.Fetching {
		// form was cancelled while fetching
		return a, nil
	}
	a.form.Fetching = false
	a.mode = ModeNormal

	link := msg.link
	link.Title = msg.title
	if link.Title == "" {
		link.Title = link.URL
	}
	return a, awaitWrite("insert", a.engine.InsertLink(link))
}

func (a App) handleWriteResult(msg writeResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		switch {
		case errors.Is(msg.err, model.ErrValidation):
			a.setMessage(MessageWarning, "%v", msg.err)
		case errors.Is(msg.err, model.ErrNotFound):
			a.setMessage(MessageWarning, "Link no longer exists")
		default:
			a.setMessage(MessageError, "Could not %s: %v", msg.op, msg.err)
		}
		return a, nil
	}

	switch msg.op {
	case "insert":
		a.setMessage(MessageSuccess, "Added %s", msg.link.Title)
	case "update":
		a.setMessage(MessageSuccess, "Saved %s", msg.link.Title)
	case "favorite":
		if msg.link.IsFavorite {
			a.setMessage(MessageSuccess, "Added to favorites")
		} else {
			a.setMessage(MessageSuccess, "Removed from favorites")
		}
	case "restore":
		a.setMessage(MessageSuccess, "Restored %s", msg.link.Title)
	case "delete":
		link := msg.link
		a.undo = &link
		a.undoGen++
		gen := a.undoGen
		a.setMessage(MessageInfo, "Deleted %s (u to undo)", link.Title)
		return a, tea.Tick(UndoWindow, func(time.Time) tea.Msg {
			return undoExpiredMsg{gen: gen}
		})
	}
	return a, nil
}

// View implements tea.Model.
func (a App) View() string {
	return a.renderView()
}
