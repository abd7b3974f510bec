package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/kurozora/internal/kv"
	"github.com/dmitrijs2005/kurozora/internal/logging"
	"github.com/dmitrijs2005/kurozora/internal/metrics"
)

// Scoped is the settings of a single account.
//
// It either owns a dedicated store, in which case keys are used as-is, or
// shares a store with other accounts and prefixes every key with
// "<namespace>.".
type Scoped struct {
	accountID string
	store     kv.Store
	namespace string
	hooks     map[string]func(ctx context.Context, value string)
	recorder  metrics.Recorder
	log       logging.Logger
}

// ScopedOption configures a Scoped.
type ScopedOption func(*Scoped)

// WithHook registers fn to run after every successful write of key.
func WithHook(key string, fn func(ctx context.Context, value string)) ScopedOption {
	return func(s *Scoped) {
		s.hooks[key] = fn
	}
}

// WithThemeHandler applies the parsed theme through h whenever the theme key is
// written.
func WithThemeHandler(h ThemeHandler) ScopedOption {
	return func(s *Scoped) {
		if h == nil {
			return
		}
		s.hooks[KeyTheme.Name] = func(ctx context.Context, value string) {
			h(ctx, s.accountID, ParseTheme(value))
		}
	}
}

func withRecorder(r metrics.Recorder) ScopedOption {
	return func(s *Scoped) { s.recorder = r }
}

func withLogger(l logging.Logger) ScopedOption {
	return func(s *Scoped) { s.log = l }
}

// NewScoped returns the settings of accountID kept in store. An empty
// namespace means store is dedicated to the account.
func NewScoped(accountID string, store kv.Store, namespace string, opts ...ScopedOption) *Scoped {
	s := &Scoped{
		accountID: accountID,
		store:     store,
		namespace: namespace,
		hooks:     make(map[string]func(ctx context.Context, value string)),
		recorder:  metrics.Nop{},
		log:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AccountID returns the owning account id.
func (s *Scoped) AccountID() string {
	return s.accountID
}

// Namespace returns the key prefix, or "" for a dedicated store.
func (s *Scoped) Namespace() string {
	return s.namespace
}

func (s *Scoped) resolve(key string) string {
	if s.namespace == "" {
		return key
	}
	return s.namespace + "." + key
}

// Get returns the raw value of key.
func (s *Scoped) Get(ctx context.Context, key string) (string, bool, error) {
	return s.store.Get(ctx, s.resolve(key))
}

// Set writes key and then runs its hook, if any.
func (s *Scoped) Set(ctx context.Context, key string, value string) error {
	if err := s.store.Set(ctx, s.resolve(key), value); err != nil {
		return err
	}
	s.recorder.RecordSettingWrite(key)
	s.log.Debug(ctx, "setting written", "account_id", s.accountID, "key", key)

	if hook, ok := s.hooks[key]; ok {
		hook(ctx, value)
	}
	return nil
}

// Delete removes key.
func (s *Scoped) Delete(ctx context.Context, key string) error {
	return s.store.Delete(ctx, s.resolve(key))
}

// Value returns the value of a known setting, or its default when unset.
func (s *Scoped) Value(ctx context.Context, k Key) (string, error) {
	v, found, err := s.Get(ctx, k.Name)
	if err != nil {
		return "", err
	}
	if !found {
		return k.Default, nil
	}
	return v, nil
}

// SetValue normalizes value for k, validates it and writes it.
func (s *Scoped) SetValue(ctx context.Context, k Key, value string) error {
	value = k.Normalize(value)
	if err := k.Validate(value); err != nil {
		return err
	}
	return s.Set(ctx, k.Name, value)
}

func (s *Scoped) Theme(ctx context.Context) (Theme, error) {
	v, err := s.Value(ctx, KeyTheme)
	if err != nil {
		return ThemeDefault, err
	}
	return ParseTheme(v), nil
}

func (s *Scoped) SetTheme(ctx context.Context, t Theme) error {
	return s.SetValue(ctx, KeyTheme, string(t))
}

func (s *Scoped) Language(ctx context.Context) (string, error) {
	return s.Value(ctx, KeyLanguage)
}

func (s *Scoped) SetLanguage(ctx context.Context, lang string) error {
	return s.SetValue(ctx, KeyLanguage, lang)
}

func (s *Scoped) Icon(ctx context.Context) (string, error) {
	return s.Value(ctx, KeyAppIcon)
}

func (s *Scoped) SetIcon(ctx context.Context, icon string) error {
	return s.SetValue(ctx, KeyAppIcon, icon)
}

// Bool reads key as a boolean: true only for "true" in any letter case.
// def is returned when the key is unset.
func (s *Scoped) Bool(ctx context.Context, key string, def bool) (bool, error) {
	v, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return def, err
	}
	return strings.EqualFold(v, "true"), nil
}

func (s *Scoped) SetBool(ctx context.Context, key string, v bool) error {
	if v {
		return s.Set(ctx, key, "true")
	}
	return s.Set(ctx, key, "false")
}

// Strings reads key as a comma-joined list. An unset or empty value yields an
// empty list.
func (s *Scoped) Strings(ctx context.Context, key string) ([]string, error) {
	v, found, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found || v == "" {
		return []string{}, nil
	}
	return strings.Split(v, ","), nil
}

// SetStrings stores values comma-joined. Values must not contain commas.
func (s *Scoped) SetStrings(ctx context.Context, key string, values []string) error {
	for _, v := range values {
		if strings.Contains(v, ",") {
			return fmt.Errorf("%w: list item %q contains a comma", ErrInvalidValue, v)
		}
	}
	return s.Set(ctx, key, strings.Join(values, ","))
}

// Keys returns the setting keys stored for this account, without the
// namespace prefix.
func (s *Scoped) Keys(ctx context.Context) ([]string, error) {
	all, err := s.store.Keys(ctx)
	if err != nil {
		return nil, err
	}
	if s.namespace == "" {
		return all, nil
	}

	prefix := s.namespace + "."
	keys := make([]string, 0)
	for _, k := range all {
		if rest, ok := strings.CutPrefix(k, prefix); ok {
			keys = append(keys, rest)
		}
	}
	return keys, nil
}

// Clear removes every setting of this account and nothing else.
func (s *Scoped) Clear(ctx context.Context) error {
	if s.namespace == "" {
		return s.store.Clear(ctx)
	}

	all, err := s.store.Keys(ctx)
	if err != nil {
		return err
	}
	prefix := s.namespace + "."
	for _, k := range all {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if err := s.store.Delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}
