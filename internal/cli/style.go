package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/dmitrijs2005/kurozora/internal/settings"
)

// Accent colour per theme, used for the prompt and notices.
var themeAccents = map[settings.Theme]lipgloss.Color{
	settings.ThemeDefault: lipgloss.Color("#FF9300"),
	settings.ThemeBlack:   lipgloss.Color("#f2f2f2"),
	settings.ThemeDay:     lipgloss.Color("#2196F3"),
	settings.ThemeGrass:   lipgloss.Color("#8BC34A"),
	settings.ThemeNight:   lipgloss.Color("#7E57C2"),
	settings.ThemeSakura:  lipgloss.Color("#F48FB1"),
	settings.ThemeSky:     lipgloss.Color("#4FC3F7"),
}

type styles struct {
	theme  settings.Theme
	accent lipgloss.Style
}

// newStyles builds the styles for t. Colour is dropped when w is not a
// terminal.
func newStyles(w io.Writer, t settings.Theme) styles {
	r := lipgloss.NewRenderer(w)
	c, ok := themeAccents[t]
	if !ok {
		t, c = settings.ThemeDefault, themeAccents[settings.ThemeDefault]
	}
	return styles{
		theme:  t,
		accent: r.NewStyle().Foreground(c),
	}
}
