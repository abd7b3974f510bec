package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/kurozora/internal/kv"
)

func TestScoped_RoundTripIsIsolated(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			m := NewManager(b)
			ctx := context.Background()
			one, two := m.Scoped("1"), m.Scoped("2")

			require.NoError(t, one.Set(ctx, "favorite_genre", "mecha"))

			v, found, err := one.Get(ctx, "favorite_genre")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, "mecha", v)

			_, found, err = two.Get(ctx, "favorite_genre")
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, two.Set(ctx, "favorite_genre", "slice of life"))
			v, _, err = one.Get(ctx, "favorite_genre")
			require.NoError(t, err)
			assert.Equal(t, "mecha", v)
		})
	}
}

func TestScoped_TypedDefaults(t *testing.T) {
	s := NewScoped("1", kv.NewMemoryStore(), "user.1")
	ctx := context.Background()

	th, err := s.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, ThemeDefault, th)

	lang, err := s.Language(ctx)
	require.NoError(t, err)
	assert.Equal(t, "en", lang)

	icon, err := s.Icon(ctx)
	require.NoError(t, err)
	assert.Equal(t, "en", icon)
}

func TestScoped_TypedSetters(t *testing.T) {
	s := NewScoped("1", kv.NewMemoryStore(), "")
	ctx := context.Background()

	require.NoError(t, s.SetTheme(ctx, ThemeGrass))
	require.NoError(t, s.SetLanguage(ctx, "ja"))
	require.NoError(t, s.SetIcon(ctx, "sakura_icon"))

	th, _ := s.Theme(ctx)
	lang, _ := s.Language(ctx)
	icon, _ := s.Icon(ctx)
	assert.Equal(t, ThemeGrass, th)
	assert.Equal(t, "ja", lang)
	assert.Equal(t, "sakura_icon", icon)

	v, _, _ := s.Get(ctx, "app_icon")
	assert.Equal(t, "sakura_icon", v)
}

func TestScoped_SetThemeRejectsUnknown(t *testing.T) {
	s := NewScoped("1", kv.NewMemoryStore(), "")

	err := s.SetTheme(context.Background(), Theme("neon"))
	require.ErrorIs(t, err, ErrInvalidValue)

	_, found, _ := s.Get(context.Background(), "theme")
	assert.False(t, found)
}

func TestScoped_ThemeHookParsesValue(t *testing.T) {
	tests := []struct {
		value string
		want  Theme
	}{
		{"default", ThemeDefault},
		{"black", ThemeBlack},
		{"Day", ThemeDay},
		{" grass ", ThemeGrass},
		{"NIGHT", ThemeNight},
		{"sakura\n", ThemeSakura},
		{"sky", ThemeSky},
		{"neon", ThemeDefault},
		{"", ThemeDefault},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			var applied Theme
			var owner string
			s := NewScoped("9", kv.NewMemoryStore(), "user.9", WithThemeHandler(func(_ context.Context, id string, th Theme) {
				owner, applied = id, th
			}))

			require.NoError(t, s.Set(context.Background(), "theme", tt.value))
			assert.Equal(t, tt.want, applied)
			assert.Equal(t, "9", owner)

			got, err := s.Theme(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScoped_HooksOnlyFireForTheirKey(t *testing.T) {
	calls := map[string]string{}
	s := NewScoped("1", kv.NewMemoryStore(), "",
		WithHook("language", func(_ context.Context, v string) { calls["language"] = v }),
		WithThemeHandler(func(context.Context, string, Theme) { calls["theme"] = "fired" }),
	)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "unrelated", "x"))
	assert.Empty(t, calls)

	require.NoError(t, s.Set(ctx, "language", "fr"))
	assert.Equal(t, map[string]string{"language": "fr"}, calls)
}

func TestScoped_BoolAndStrings(t *testing.T) {
	s := NewScoped("1", kv.NewMemoryStore(), "user.1")
	ctx := context.Background()

	v, err := s.Bool(ctx, "notifications", true)
	require.NoError(t, err)
	assert.True(t, v, "unset key yields default")

	require.NoError(t, s.SetBool(ctx, "notifications", false))
	v, _ = s.Bool(ctx, "notifications", true)
	assert.False(t, v)

	require.NoError(t, s.Set(ctx, "notifications", "TRUE"))
	v, _ = s.Bool(ctx, "notifications", false)
	assert.True(t, v)

	require.NoError(t, s.Set(ctx, "notifications", "yes"))
	v, _ = s.Bool(ctx, "notifications", true)
	assert.False(t, v, "only \"true\" is true")

	list, err := s.Strings(ctx, "search_history")
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, s.SetStrings(ctx, "search_history", []string{"one piece", "frieren"}))
	list, _ = s.Strings(ctx, "search_history")
	assert.Equal(t, []string{"one piece", "frieren"}, list)

	raw, _, _ := s.Get(ctx, "search_history")
	assert.Equal(t, "one piece,frieren", raw)

	require.ErrorIs(t, s.SetStrings(ctx, "search_history", []string{"a,b"}), ErrInvalidValue)
}

func TestScoped_ClearSharedStoreTouchesOnlyOwnNamespace(t *testing.T) {
	store := kv.NewMemoryStore()
	ctx := context.Background()
	one := NewScoped("1", store, "user.1")
	ten := NewScoped("10", store, "user.10")

	require.NoError(t, store.Set(ctx, AccountsKey, "[]"))
	require.NoError(t, one.Set(ctx, "theme", "day"))
	require.NoError(t, one.Set(ctx, "language", "de"))
	require.NoError(t, ten.Set(ctx, "theme", "night"))

	require.NoError(t, one.Clear(ctx))

	keys, err := one.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	keys, err = ten.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"theme"}, keys)

	_, found, _ := store.Get(ctx, AccountsKey)
	assert.True(t, found)
}

func TestScoped_ClearDedicatedStoreWipesIt(t *testing.T) {
	store := kv.NewMemoryStore()
	ctx := context.Background()
	s := NewScoped("1", store, "")

	require.NoError(t, s.Set(ctx, "a", "1"))
	require.NoError(t, s.Set(ctx, "b", "2"))
	require.NoError(t, s.Clear(ctx))

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestScoped_Delete(t *testing.T) {
	s := NewScoped("1", kv.NewMemoryStore(), "user.1")
	ctx := context.Background()

	require.NoError(t, s.SetLanguage(ctx, "ja"))
	require.NoError(t, s.Delete(ctx, "language"))

	lang, err := s.Language(ctx)
	require.NoError(t, err)
	assert.Equal(t, "en", lang)
}

func TestSchema(t *testing.T) {
	assert.Equal(t, []string{"theme", "language", "app_icon"}, KnownKeys())

	k, ok := LookupKey("theme")
	require.True(t, ok)
	assert.Len(t, k.Enum, len(Themes))
	require.NoError(t, k.Validate("sky"))
	require.ErrorIs(t, k.Validate("Sky"), ErrInvalidValue)

	_, ok = LookupKey("nope")
	assert.False(t, ok)

	require.NoError(t, KeyLanguage.Validate("anything"))
}

func TestScoped_SetValueNormalizesEnums(t *testing.T) {
	ctx := context.Background()
	s := NewScoped("1", kv.NewMemoryStore(), "")

	require.NoError(t, s.SetValue(ctx, KeyTheme, "  Sakura\n"))
	v, _, err := s.Get(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "sakura", v)

	require.NoError(t, s.SetValue(ctx, KeyLanguage, "Ja"))
	v, _, err = s.Get(ctx, "language")
	require.NoError(t, err)
	assert.Equal(t, "Ja", v, "free-form values are stored as given")
}

func TestKey_Normalize(t *testing.T) {
	assert.Equal(t, "night", KeyTheme.Normalize(" NIGHT "))
	assert.Equal(t, " x ", KeyAppIcon.Normalize(" x "))
}
