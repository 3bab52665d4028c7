package tui_test

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/nikbrunner/linkhub/internal/model"
	"github.com/nikbrunner/linkhub/internal/repository"
	"github.com/nikbrunner/linkhub/internal/storage"
	"github.com/nikbrunner/linkhub/internal/tui"
	"github.com/nikbrunner/linkhub/internal/tui/layout"
	"github.com/nikbrunner/linkhub/internal/view"
)

// createTestApp creates a test app with fixed dimensions whose list has
// been delivered.
func createTestApp(t *testing.T, width, height int, seed ...model.Link) tui.App {
	t.Helper()
	store, err := storage.NewSQLiteStore(":memory:")
	assert.NilError(t, err)

	repo := repository.New(repository.Params{Store: store, Grace: -1})
	for _, l := range seed {
		_, err := repo.Insert(context.Background(), l)
		assert.NilError(t, err)
	}
	writer := repository.NewWriter(repo, nil)
	engine := view.NewEngine(view.EngineParams{Repo: repo, Writer: writer})

	cfg := layout.DefaultConfig()
	app := tui.NewApp(tui.AppParams{Engine: engine, LayoutConfig: &cfg})
	t.Cleanup(func() {
		app.Close()
		engine.Close()
		writer.Close()
		store.Close()
	})

	// Init waits for the first derived list
	m, _ := app.Update(runCmd(app.Init()))
	app = m.(tui.App)
	assert.Equal(t, len(app.Links()), len(seed))

	return app.WithDimensions(width, height)
}

// runCmd runs the first command of a batch.
func runCmd(cmd tea.Cmd) tea.Msg {
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		return batch[0]()
	}
	return msg
}

func TestView_NormalMode(t *testing.T) {
	app := createTestApp(t, 80, 24,
		model.Link{Title: "Go", URL: "https://go.dev", Category: "Dev", IsFavorite: true},
		model.Link{Title: "Hacker News", URL: "https://news.ycombinator.com", Category: "Read"},
	)
	output := layout.StripANSI(app.View())

	assert.Check(t, is.Contains(output, "LinkHub"))
	assert.Check(t, is.Contains(output, "[filter:all]"))
	assert.Check(t, is.Contains(output, "2 links"))
	assert.Check(t, is.Contains(output, "* Go"))
	assert.Check(t, is.Contains(output, "https://news.ycombinator.com"))
	assert.Check(t, is.Contains(output, "j/k:move"))
}

func TestView_FitsTerminal(t *testing.T) {
	app := createTestApp(t, 80, 24,
		model.Link{Title: strings.Repeat("long title ", 20), URL: "https://example.com/" + strings.Repeat("a", 200)},
	)
	output := layout.StripANSI(app.View())

	lines := strings.Split(output, "\n")
	assert.Equal(t, len(lines), 24)
	for _, line := range lines {
		assert.Assert(t, layout.VisibleLength(line) <= 80, "line too wide: %q", line)
	}
}

func TestView_EmptyState(t *testing.T) {
	app := createTestApp(t, 80, 24)
	output := layout.StripANSI(app.View())

	assert.Check(t, is.Contains(output, "No links yet"))
}

func TestView_AddForm(t *testing.T) {
	app := createTestApp(t, 80, 24)
	m, _ := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	output := layout.StripANSI(m.View())

	assert.Check(t, is.Contains(output, "Add Link"))
	for _, label := range []string{"URL", "Title", "Category", "Notes"} {
		assert.Check(t, is.Contains(output, label))
	}
	assert.Check(t, is.Contains(output, "Enter:save"))
}

func TestView_HelpOverlay(t *testing.T) {
	app := createTestApp(t, 80, 40)
	m, _ := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	output := layout.StripANSI(m.View())

	assert.Check(t, is.Contains(output, "cycle sort"))
	assert.Check(t, is.Contains(output, "undo delete"))
}
