package settings

import (
	"fmt"
	"slices"
	"strings"
)

// Kind is the value kind of a known setting.
type Kind uint8

const (
	// KindString accepts any string.
	KindString Kind = iota
	// KindEnum accepts one of Key.Enum.
	KindEnum
)

// Key describes a known setting.
type Key struct {
	Name    string
	Kind    Kind
	Default string
	Enum    []string
}

// Validate reports whether value is acceptable for k.
func (k Key) Validate(value string) error {
	if k.Kind == KindEnum && !slices.Contains(k.Enum, value) {
		return fmt.Errorf("%w: %s must be one of %v, got %q", ErrInvalidValue, k.Name, k.Enum, value)
	}
	return nil
}

// Normalize returns value in the form it is stored in. Enum values are
// matched regardless of case and surrounding space.
func (k Key) Normalize(value string) string {
	if k.Kind == KindEnum {
		return strings.ToLower(strings.TrimSpace(value))
	}
	return value
}

var (
	KeyTheme = Key{
		Name:    "theme",
		Kind:    KindEnum,
		Default: string(ThemeDefault),
		Enum:    themeNames(),
	}
	KeyLanguage = Key{
		Name:    "language",
		Kind:    KindString,
		Default: "en",
	}
	// TODO: default should be "default" once installs that relied on "en" have
	// an icon written explicitly.
	KeyAppIcon = Key{
		Name:    "app_icon",
		Kind:    KindString,
		Default: "en",
	}
)

var schema = []Key{KeyTheme, KeyLanguage, KeyAppIcon}

// LookupKey returns the known setting called name.
func LookupKey(name string) (Key, bool) {
	for _, k := range schema {
		if k.Name == name {
			return k, true
		}
	}
	return Key{}, false
}

// KnownKeys returns the names of all known settings.
func KnownKeys() []string {
	names := make([]string, len(schema))
	for i, k := range schema {
		names[i] = k.Name
	}
	return names
}

func themeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = string(t)
	}
	return names
}
