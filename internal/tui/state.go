package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"

	"github.com/nikbrunner/linkhub/internal/model"
	"github.com/nikbrunner/linkhub/internal/tui/layout"
)

// Mode is what the keyboard is currently driving.
type Mode int

const (
	ModeNormal Mode = iota
	ModeSearch
	ModeAdd
	ModeEdit
	ModeHelp
)

// MessageType determines the styling of status messages.
type MessageType int

const (
	MessageInfo MessageType = iota
	MessageSuccess
	MessageWarning
	MessageError
)

// Form field indexes.
const (
	FieldURL = iota
	FieldTitle
	FieldCategory
	FieldNotes
	fieldCount
)

var fieldLabels = [fieldCount]string{"URL", "Title", "Category", "Notes"}

// FormState holds the add/edit link form.
type FormState struct {
	Inputs   [fieldCount]textinput.Model
	Focus    int
	Editing  model.Link // the link being edited; zero for add
	Fetching bool       // waiting for a page title
}

// NewFormState creates a form with initialized inputs.
func NewFormState(cfg layout.LayoutConfig) FormState {
	var f FormState

	placeholders := [fieldCount]string{"https://...", "fetched from the page if empty", model.DefaultCategory, ""}
	limits := [fieldCount]int{
		cfg.Input.URLCharLimit,
		cfg.Input.TitleCharLimit,
		cfg.Input.CategoryCharLimit,
		cfg.Input.NotesCharLimit,
	}
	for i := range f.Inputs {
		input := textinput.New()
		input.Placeholder = placeholders[i]
		input.CharLimit = limits[i]
		input.Width = cfg.Input.StandardWidth
		f.Inputs[i] = input
	}
	return f
}

// Reset clears the form and focuses the first field.
func (f *FormState) Reset() {
	for i := range f.Inputs {
		f.Inputs[i].Reset()
		f.Inputs[i].Blur()
	}
	f.Editing = model.Link{}
	f.Fetching = false
	f.Focus = FieldURL
	f.Inputs[FieldURL].Focus()
}

// Load fills the form from link for editing.
func (f *FormState) Load(link model.Link) {
	f.Reset()
	f.Editing = link
	f.Inputs[FieldURL].SetValue(link.URL)
	f.Inputs[FieldTitle].SetValue(link.Title)
	f.Inputs[FieldCategory].SetValue(link.Category)
	f.Inputs[FieldNotes].SetValue(link.Notes)
}

// Move shifts focus by delta, wrapping around.
func (f *FormState) Move(delta int) {
	f.Inputs[f.Focus].Blur()
	f.Focus = (f.Focus + delta + fieldCount) % fieldCount
	f.Inputs[f.Focus].Focus()
}

// Value returns the trimmed value of field.
func (f FormState) Value(field int) string {
	return strings.TrimSpace(f.Inputs[field].Value())
}
