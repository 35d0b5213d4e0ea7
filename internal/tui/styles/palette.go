package styles

import (
	"slices"

	"github.com/charmbracelet/lipgloss"
)

// ThemeName represents a named color theme.
type ThemeName string

// Available theme names.
const (
	ThemeDefault ThemeName = "default" // violet/green on dark
	ThemeNord    ThemeName = "nord"    // cool blue-gray
	ThemeDracula ThemeName = "dracula"
	ThemeLight   ThemeName = "light" // for light terminal backgrounds
)

// Palette is the set of colors a theme defines.
type Palette struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Muted     lipgloss.Color
	Text      lipgloss.Color
	Border    lipgloss.Color
}

var palettes = map[ThemeName]Palette{
	ThemeDefault: {
		Primary:   "#A78BFA",
		Secondary: "#10B981",
		Warning:   "#F59E0B",
		Error:     "#F87171",
		Muted:     "#9CA3AF",
		Text:      "#F9FAFB",
		Border:    "#6B7280",
	},
	ThemeNord: {
		Primary:   "#88C0D0",
		Secondary: "#A3BE8C",
		Warning:   "#EBCB8B",
		Error:     "#BF616A",
		Muted:     "#7B88A1",
		Text:      "#ECEFF4",
		Border:    "#4C566A",
	},
	ThemeDracula: {
		Primary:   "#BD93F9",
		Secondary: "#50FA7B",
		Warning:   "#F1FA8C",
		Error:     "#FF5555",
		Muted:     "#6272A4",
		Text:      "#F8F8F2",
		Border:    "#44475A",
	},
	ThemeLight: {
		Primary:   "#6D28D9",
		Secondary: "#047857",
		Warning:   "#B45309",
		Error:     "#B91C1C",
		Muted:     "#4B5563",
		Text:      "#111827",
		Border:    "#9CA3AF",
	},
}

// ThemeNames returns all theme names, sorted.
func ThemeNames() []string {
	names := make([]string, 0, len(palettes))
	for name := range palettes {
		names = append(names, string(name))
	}
	slices.Sort(names)
	return names
}

// IsValidTheme reports whether name is a known theme.
func IsValidTheme(name string) bool {
	_, ok := palettes[ThemeName(name)]
	return ok
}

// PaletteFor returns the palette of a theme, falling back to the default.
func PaletteFor(name ThemeName) Palette {
	if p, ok := palettes[name]; ok {
		return p
	}
	return palettes[ThemeDefault]
}
