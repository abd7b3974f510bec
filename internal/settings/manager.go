// Package settings persists the account roster, the active-account pointer
// and each account's own settings on top of a kv.Backend.
//
// Root store layout:
//
//	app.kurozora.accounts           JSON array of models.Account
//	app.kurozora.active_account_id  id of the active account
//	user.<id>.<key>                 account settings, shared-store mode only
//
// When the backend offers dedicated stores, account settings live in the
// store named "user_<id>" instead, with unprefixed keys.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/kurozora/internal/kv"
	"github.com/dmitrijs2005/kurozora/internal/logging"
	"github.com/dmitrijs2005/kurozora/internal/metrics"
	"github.com/dmitrijs2005/kurozora/internal/models"
)

const (
	AccountsKey      = "app.kurozora.accounts"
	ActiveAccountKey = "app.kurozora.active_account_id"
)

// Manager owns the roster and hands out per-account Scoped settings.
type Manager struct {
	backend  kv.Backend
	log      logging.Logger
	recorder metrics.Recorder
	onTheme  ThemeHandler

	mu     sync.Mutex
	scoped map[string]*Scoped
}

// Option configures a Manager.
type Option func(*Manager)

func WithLogger(l logging.Logger) Option {
	return func(m *Manager) { m.log = l }
}

func WithRecorder(r metrics.Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithManagerThemeHandler installs h on every Scoped the manager creates.
func WithManagerThemeHandler(h ThemeHandler) Option {
	return func(m *Manager) { m.onTheme = h }
}

func NewManager(b kv.Backend, opts ...Option) *Manager {
	m := &Manager{
		backend:  b,
		log:      logging.Nop(),
		recorder: metrics.Nop{},
		scoped:   make(map[string]*Scoped),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Accounts returns the roster in insertion order. A missing roster is empty;
// an undecodable one yields ErrCorruptRoster.
func (m *Manager) Accounts(ctx context.Context) ([]models.Account, error) {
	return m.accounts(ctx, m.backend.Root())
}

func (m *Manager) accounts(ctx context.Context, root kv.Store) ([]models.Account, error) {
	raw, found, err := root.Get(ctx, AccountsKey)
	if err != nil {
		return nil, err
	}
	if !found {
		return []models.Account{}, nil
	}

	var list []models.Account
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		m.log.Error(ctx, "accounts roster cannot be decoded", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrCorruptRoster, err)
	}
	if list == nil {
		list = []models.Account{}
	}
	return list, nil
}

func (m *Manager) saveAccounts(ctx context.Context, root kv.Store, list []models.Account) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode accounts: %w", err)
	}
	return root.Set(ctx, AccountsKey, string(data))
}

// AddOrUpdateAccount replaces the roster entry with a's id in place, or appends
// a when the id is new.
func (m *Manager) AddOrUpdateAccount(ctx context.Context, a models.Account) error {
	return m.saveAccount(ctx, a, false)
}

// AddAndActivateAccount is AddOrUpdateAccount followed by pointing the active
// account at a, as one unit: either both writes land or neither does.
func (m *Manager) AddAndActivateAccount(ctx context.Context, a models.Account) error {
	return m.saveAccount(ctx, a, true)
}

func (m *Manager) saveAccount(ctx context.Context, a models.Account, activate bool) error {
	if err := validateAccount(a); err != nil {
		return err
	}

	return m.backend.Atomically(ctx, func(ctx context.Context, b kv.Backend) error {
		list, err := m.accounts(ctx, b.Root())
		if err != nil {
			return err
		}

		replaced := false
		for i := range list {
			if list[i].ID == a.ID {
				list[i] = a
				replaced = true
				break
			}
		}
		if !replaced {
			list = append(list, a)
		}

		if err := m.saveAccounts(ctx, b.Root(), list); err != nil {
			return err
		}
		if activate {
			if err := b.Root().Set(ctx, ActiveAccountKey, a.ID); err != nil {
				return err
			}
		}
		m.log.Info(ctx, "account saved", "account_id", a.ID, "replaced", replaced, "activated", activate)
		return nil
	})
}

func validateAccount(a models.Account) error {
	return ValidateID(a.ID)
}

// ValidateID reports whether id can name an account. Ids end up inside store
// keys, where a dot would let one account's namespace prefix match another's.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidAccount)
	}
	if strings.ContainsAny(id, ". ") {
		return fmt.Errorf("%w: id %q contains a dot or space", ErrInvalidAccount, id)
	}
	return nil
}

// RemoveAccount drops id from the roster, clears the active pointer if it
// referenced id, and wipes the account's settings, all in one unit.
// Removing an unknown id still clears whatever settings it had. An id that
// could never have been added is a no-op and touches nothing.
func (m *Manager) RemoveAccount(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		m.log.Debug(ctx, "remove of invalid account id ignored", "account_id", id)
		return nil
	}

	err := m.backend.Atomically(ctx, func(ctx context.Context, b kv.Backend) error {
		root := b.Root()
		list, err := m.accounts(ctx, root)
		if err != nil {
			return err
		}

		kept := make([]models.Account, 0, len(list))
		for _, a := range list {
			if a.ID != id {
				kept = append(kept, a)
			}
		}
		if err := m.saveAccounts(ctx, root, kept); err != nil {
			return err
		}

		active, found, err := root.Get(ctx, ActiveAccountKey)
		if err != nil {
			return err
		}
		if found && active == id {
			if err := root.Delete(ctx, ActiveAccountKey); err != nil {
				return err
			}
		}

		return m.newScoped(b, id).Clear(ctx)
	})
	if err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.scoped, id)
	m.mu.Unlock()

	m.log.Info(ctx, "account removed", "account_id", id)
	return nil
}

// ActiveAccountID returns the persisted active-account pointer.
func (m *Manager) ActiveAccountID(ctx context.Context) (string, bool, error) {
	return m.backend.Root().Get(ctx, ActiveAccountKey)
}

// SetActiveAccountID points the active account at id, or clears the pointer
// when id is empty. A non-empty id must be in the roster, otherwise
// ErrUnknownAccount is returned and nothing changes.
func (m *Manager) SetActiveAccountID(ctx context.Context, id string) error {
	if id == "" {
		return m.backend.Root().Delete(ctx, ActiveAccountKey)
	}
	if err := ValidateID(id); err != nil {
		return err
	}

	return m.backend.Atomically(ctx, func(ctx context.Context, b kv.Backend) error {
		list, err := m.accounts(ctx, b.Root())
		if err != nil {
			return err
		}
		if _, ok := findAccount(list, id); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownAccount, id)
		}
		return b.Root().Set(ctx, ActiveAccountKey, id)
	})
}

// AccountByID looks id up in the roster.
func (m *Manager) AccountByID(ctx context.Context, id string) (models.Account, bool, error) {
	if ValidateID(id) != nil {
		return models.Account{}, false, nil
	}
	list, err := m.Accounts(ctx)
	if err != nil {
		return models.Account{}, false, err
	}
	a, ok := findAccount(list, id)
	return a, ok, nil
}

// ActiveAccount resolves the active pointer against the roster. A pointer to
// an id that is no longer in the roster counts as no active account.
func (m *Manager) ActiveAccount(ctx context.Context) (models.Account, bool, error) {
	id, found, err := m.ActiveAccountID(ctx)
	if err != nil || !found {
		return models.Account{}, false, err
	}

	a, ok, err := m.AccountByID(ctx, id)
	if err != nil {
		return models.Account{}, false, err
	}
	if !ok {
		m.log.Warn(ctx, "active account pointer references unknown account", "account_id", id)
	}
	return a, ok, nil
}

// ClearAll wipes the root store and, with dedicated stores, the store of
// every account. It is the way out of a corrupt roster: when the roster
// cannot be read, account stores are found through the backend's store
// listing if it has one.
func (m *Manager) ClearAll(ctx context.Context) error {
	err := m.backend.Atomically(ctx, func(ctx context.Context, b kv.Backend) error {
		if _, dedicated := b.Named(storeName("")); dedicated {
			names, err := m.accountStores(ctx, b)
			if err != nil {
				return err
			}
			for _, name := range names {
				store, _ := b.Named(name)
				if err := store.Clear(ctx); err != nil {
					return err
				}
			}
		}
		return b.Root().Clear(ctx)
	})
	if err != nil {
		return err
	}

	m.mu.Lock()
	clear(m.scoped)
	m.mu.Unlock()

	m.log.Info(ctx, "all accounts and settings cleared")
	return nil
}

type storeLister interface {
	StoreNames(ctx context.Context) ([]string, error)
}

// accountStores names the dedicated stores to wipe on ClearAll.
func (m *Manager) accountStores(ctx context.Context, b kv.Backend) ([]string, error) {
	if l, ok := b.(storeLister); ok {
		all, err := l.StoreNames(ctx)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(all))
		for _, name := range all {
			if strings.HasPrefix(name, storeName("")) {
				names = append(names, name)
			}
		}
		return names, nil
	}

	list, err := m.accounts(ctx, b.Root())
	if err != nil {
		// stores of an unreadable roster cannot be enumerated; wiping the root
		// store still logs everyone out
		m.log.Warn(ctx, "clearing without roster", "error", err)
	}
	names := make([]string, 0, len(list))
	for _, a := range list {
		names = append(names, storeName(a.ID))
	}
	return names, nil
}

// Scoped returns the settings of accountID. Instances are cached. For an id
// that fails ValidateID every operation of the returned Scoped fails with
// ErrInvalidAccount and no store is read or written.
func (m *Manager) Scoped(accountID string) *Scoped {
	if err := ValidateID(accountID); err != nil {
		return NewScoped(accountID, rejectingStore{err: err}, "")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.scoped[accountID]; ok {
		return s
	}
	s := m.newScoped(m.backend, accountID)
	m.scoped[accountID] = s
	return s
}

func (m *Manager) newScoped(b kv.Backend, accountID string) *Scoped {
	opts := []ScopedOption{
		withRecorder(m.recorder),
		withLogger(m.log),
		WithThemeHandler(m.onTheme),
	}
	if store, ok := b.Named(storeName(accountID)); ok {
		return NewScoped(accountID, store, "", opts...)
	}
	return NewScoped(accountID, b.Root(), namespace(accountID), opts...)
}

func storeName(accountID string) string {
	return "user_" + accountID
}

func namespace(accountID string) string {
	return "user." + accountID
}

func findAccount(list []models.Account, id string) (models.Account, bool) {
	for _, a := range list {
		if a.ID == id {
			return a, true
		}
	}
	return models.Account{}, false
}
