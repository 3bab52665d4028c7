// Package layout holds the sizing rules of the terminal UI.
package layout

// LayoutConfig holds all layout-related configuration values.
type LayoutConfig struct {
	List  ListConfig
	Modal ModalConfig
	Input InputConfig
	Text  TextConfig
}

// ListConfig holds link list dimension configuration.
type ListConfig struct {
	// HeightReduction is subtracted from terminal height for list content.
	// Accounts for: app padding (1) + header (2) + border (2) + help bar (3) = 8
	HeightReduction int

	// MinHeight is the minimum list height.
	MinHeight int

	// ContentPadding is subtracted from the list width for item rendering.
	ContentPadding int

	// LinesPerItem is how many rows one link occupies (title + url).
	LinesPerItem int
}

// ModalConfig holds modal dialog configuration.
type ModalConfig struct {
	// WidthPercent is the modal width as percentage of terminal width.
	WidthPercent int

	// MinWidth is the minimum modal width in characters.
	MinWidth int

	// MaxWidth is the maximum modal width in characters.
	MaxWidth int
}

// InputConfig holds text input configuration.
type InputConfig struct {
	TitleCharLimit    int
	URLCharLimit      int
	CategoryCharLimit int
	NotesCharLimit    int
	SearchCharLimit   int

	// StandardWidth is the display width of form inputs.
	StandardWidth int
}

// TextConfig holds text truncation configuration.
type TextConfig struct {
	// Ellipsis is the string used to indicate truncation.
	Ellipsis string
}

// DefaultConfig returns the default layout configuration.
func DefaultConfig() LayoutConfig {
	return LayoutConfig{
		List: ListConfig{
			HeightReduction: 8,
			MinHeight:       4,
			ContentPadding:  4,
			LinesPerItem:    2,
		},
		Modal: ModalConfig{
			WidthPercent: 50,
			MinWidth:     50,
			MaxWidth:     80,
		},
		Input: InputConfig{
			TitleCharLimit:    200,
			URLCharLimit:      2000,
			CategoryCharLimit: 50,
			NotesCharLimit:    500,
			SearchCharLimit:   100,
			StandardWidth:     40,
		},
		Text: TextConfig{
			Ellipsis: "...",
		},
	}
}
