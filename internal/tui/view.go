package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nikbrunner/linkhub/internal/model"
	"github.com/nikbrunner/linkhub/internal/tui/layout"
)

// renderView creates the complete list view.
func (a App) renderView() string {
	switch a.mode {
	case ModeAdd, ModeEdit:
		return a.renderForm()
	case ModeHelp:
		return a.renderHelpOverlay()
	}

	listHeight := layout.CalculateListHeight(a.height, a.layoutConfig.List)
	width := a.width - 4 // app padding left=2, right=2
	if width < 1 {
		width = 1
	}

	list := a.styles.Pane.
		Width(width - 2).
		Height(listHeight).
		Render(a.renderList(layout.CalculateItemWidth(width, a.layoutConfig.List), listHeight))

	content := a.styles.App.Render(
		lipgloss.JoinVertical(lipgloss.Left, a.renderHeader(width), list, a.renderHelpBar()),
	)

	// Use Place to ensure exact terminal dimensions and prevent overflow
	return lipgloss.Place(a.width, a.height, lipgloss.Left, lipgloss.Top, content)
}

// renderHeader renders the app title and the active query.
func (a App) renderHeader(width int) string {
	q := a.engine.Query()

	filter := q.Filter.String()
	if q.Filter == model.FilterCategory && q.Category != nil {
		filter = *q.Category
	}

	if a.mode == ModeSearch {
		return a.styles.Title.Render("LinkHub") + "  /" + a.search.View()
	}

	status := fmt.Sprintf("[sort:%s] [filter:%s] %d links", q.Sort.Label(), filter, len(a.links))
	if q.Search != "" {
		status = fmt.Sprintf("/%s  %s", q.Search, status)
	}

	status, _ = layout.TruncateText(status, width-len("LinkHub  "), a.layoutConfig.Text)
	return a.styles.Title.Render("LinkHub") + "  " + a.styles.Status.Render(status)
}

// renderList renders the visible window of links, two rows per link.
func (a App) renderList(width, height int) string {
	if !a.loaded {
		return a.styles.Empty.Render("Loading...")
	}
	if len(a.links) == 0 {
		if a.engine.Query().Search != "" {
			return a.styles.Empty.Render("No links match the search")
		}
		return a.styles.Empty.Render("No links yet. Press a to add one.")
	}

	visible := layout.CalculateVisibleItems(height, a.layoutConfig.List)
	offset := layout.CalculateViewportOffset(a.cursor, len(a.links), visible)
	end := min(offset+visible, len(a.links))

	var b strings.Builder
	for i := offset; i < end; i++ {
		if i > offset {
			b.WriteString("\n")
		}
		b.WriteString(a.renderItem(a.links[i], i == a.cursor, width))
	}
	return b.String()
}

// renderItem renders a link as a title row and a url row.
func (a App) renderItem(link model.Link, selected bool, maxWidth int) string {
	prefix := "  "
	if link.IsFavorite {
		prefix = "* "
	}
	suffix := "  " + link.Category
	if link.ClickCount > 0 {
		suffix += " " + strconv.Itoa(link.ClickCount)
	}

	// Item styles pad one column on the left
	title, _ := layout.TruncateWithPrefixSuffix(link.Title, maxWidth-1, prefix, suffix, a.layoutConfig.Text)

	style := a.styles.Item
	if selected {
		style = a.styles.ItemSelected
	}
	titleRow := style.Render(layout.PadRight(title, maxWidth-1))

	url, _ := layout.TruncateText(link.URL, maxWidth-3, a.layoutConfig.Text)
	return titleRow + "\n" + a.styles.URL.Render(url)
}

// renderForm renders the add/edit link modal.
func (a App) renderForm() string {
	modalWidth := layout.CalculateModalWidth(a.width, a.layoutConfig.Modal)

	title := "Add Link"
	if a.mode == ModeEdit {
		title = "Edit Link"
	}

	var b strings.Builder
	b.WriteString(a.styles.Title.Render(title) + "\n\n")
	for i, input := range a.form.Inputs {
		b.WriteString(a.styles.Label.Render(fieldLabels[i]) + input.View() + "\n")
	}

	if a.form.Fetching {
		b.WriteString("\n" + a.styles.Info.Render("Fetching title..."))
	}

	modal := a.styles.Modal.Width(modalWidth).Render(b.String())
	return lipgloss.JoinVertical(lipgloss.Left, modal, a.renderHelpBar())
}

// renderHelpOverlay renders every key binding.
func (a App) renderHelpOverlay() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("keys") + "\n")
	for _, binding := range a.keys.All() {
		h := binding.Help()
		b.WriteString(layout.PadRight(h.Key, 10) + h.Desc + "\n")
	}
	b.WriteString("\n" + a.renderHintsInline([]Hint{{Key: "any key", Desc: "close"}}))

	return lipgloss.Place(
		a.width,
		a.height,
		lipgloss.Left,
		lipgloss.Top,
		lipgloss.NewStyle().Padding(1, 2).Render(b.String()),
	)
}

func (a App) renderHelpBar() string {
	var lines []string

	// Line 1: Empty spacer OR message (message replaces the gap)
	if a.messageText != "" {
		lines = append(lines, a.renderMessageLine())
	} else {
		lines = append(lines, "")
	}

	if hints := a.renderHints(a.getContextualHints()); hints != "" {
		lines = append(lines, hints)
	}

	return strings.Join(lines, "\n")
}

// renderMessageLine renders the styled message with prefix icon based on type.
func (a App) renderMessageLine() string {
	switch a.messageType {
	case MessageError:
		return a.styles.Error.Render("✗ " + a.messageText)
	case MessageWarning:
		return a.styles.Warning.Render("⚠ " + a.messageText)
	case MessageSuccess:
		return a.styles.Success.Render("✓ " + a.messageText)
	default:
		return a.styles.Info.Render(a.messageText)
	}
}
