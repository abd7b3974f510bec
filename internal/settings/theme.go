package settings

import (
	"context"
	"strings"
)

// Theme is an application colour theme.
type Theme string

const (
	ThemeDefault Theme = "default"
	ThemeBlack   Theme = "black"
	ThemeDay     Theme = "day"
	ThemeGrass   Theme = "grass"
	ThemeNight   Theme = "night"
	ThemeSakura  Theme = "sakura"
	ThemeSky     Theme = "sky"
)

// Themes lists every theme in display order.
var Themes = []Theme{ThemeDefault, ThemeBlack, ThemeDay, ThemeGrass, ThemeNight, ThemeSakura, ThemeSky}

// ParseTheme maps a stored value to a Theme, ignoring case and surrounding
// whitespace. Unrecognised values map to ThemeDefault.
func ParseTheme(s string) Theme {
	t := Theme(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Themes {
		if t == known {
			return t
		}
	}
	return ThemeDefault
}

// ThemeHandler applies a theme after it has been written to an account's
// settings.
type ThemeHandler func(ctx context.Context, accountID string, t Theme)
