package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/kurozora/internal/settings"
)

var errNotLoggedIn = errors.New("not logged in")

func (a *App) scoped() (*settings.Scoped, error) {
	s := a.session.Scoped()
	if s == nil {
		return nil, errNotLoggedIn
	}
	return s, nil
}

// GetSetting prints one setting of the active account. Known settings fall
// back to their default; other keys report when unset.
func (a *App) GetSetting(ctx context.Context, key string) error {
	s, err := a.scoped()
	if err != nil {
		return err
	}

	if k, ok := settings.LookupKey(key); ok {
		v, err := s.Value(ctx, k)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s = %s\n", key, v)
		return nil
	}

	v, found, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintf(a.out, "%s is not set\n", key)
		return nil
	}
	fmt.Fprintf(a.out, "%s = %s\n", key, v)
	return nil
}

// SetSetting writes one setting of the active account. Known settings are
// validated first.
func (a *App) SetSetting(ctx context.Context, key, value string) error {
	s, err := a.scoped()
	if err != nil {
		return err
	}

	if k, ok := settings.LookupKey(key); ok {
		value = k.Normalize(value)
		err = s.SetValue(ctx, k, value)
	} else {
		err = s.Set(ctx, key, value)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s = %s\n", key, value)
	return nil
}

// ListSettings prints every known setting followed by any other keys stored
// for the active account.
func (a *App) ListSettings(ctx context.Context) error {
	s, err := a.scoped()
	if err != nil {
		return err
	}

	known := settings.KnownKeys()
	for _, name := range known {
		k, _ := settings.LookupKey(name)
		v, err := s.Value(ctx, k)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s = %s\n", name, v)
	}

	keys, err := s.Keys(ctx)
	if err != nil {
		return err
	}
	slices.Sort(keys)
	for _, key := range keys {
		if slices.Contains(known, key) {
			continue
		}
		v, _, err := s.Get(ctx, key)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s = %s\n", key, v)
	}
	return nil
}

// Theme shows the active account's theme, or sets it when name is given.
func (a *App) Theme(ctx context.Context, name string) error {
	s, err := a.scoped()
	if err != nil {
		return err
	}

	if name == "" {
		t, err := s.Theme(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Current theme: %s\nAvailable: %s\n", t, strings.Join(settings.KeyTheme.Enum, ", "))
		return nil
	}

	return s.SetValue(ctx, settings.KeyTheme, name)
}
