// Package session holds the process-wide login state: which account, if any,
// is active. The active account is published through an Observable so the
// rest of the application can react to logins, switches and logouts.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/kurozora/internal/logging"
	"github.com/dmitrijs2005/kurozora/internal/metrics"
	"github.com/dmitrijs2005/kurozora/internal/models"
	"github.com/dmitrijs2005/kurozora/internal/settings"
)

// Manager is the single writer of the active-account state.
//
// States are LoggedOut (Active reports false) and LoggedIn(account).
// Transitions go through AddAccount, SwitchAccount, RemoveAccount and Logout.
type Manager struct {
	settings *settings.Manager
	active   *Observable[*models.Account]
	log      logging.Logger
	recorder metrics.Recorder

	mu sync.Mutex // serialises transitions
}

// Option configures a Manager.
type Option func(*Manager)

func WithLogger(l logging.Logger) Option {
	return func(m *Manager) { m.log = l }
}

func WithRecorder(r metrics.Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// New restores the session persisted by s: LoggedIn if the stored active
// account id resolves to a roster entry, LoggedOut otherwise. A corrupt roster
// is logged and starts LoggedOut; Reset recovers from it.
func New(ctx context.Context, s *settings.Manager, opts ...Option) (*Manager, error) {
	m := &Manager{
		settings: s,
		log:      logging.Nop(),
		recorder: metrics.Nop{},
	}
	for _, opt := range opts {
		opt(m)
	}

	a, ok, err := s.ActiveAccount(ctx)
	if errors.Is(err, settings.ErrCorruptRoster) {
		m.log.Error(ctx, "cannot restore session, starting logged out", "error", err)
		ok, err = false, nil
	}
	if err != nil {
		return nil, err
	}
	if ok {
		m.active = newObservable(&a)
		m.log.Info(ctx, "session restored", "account_id", a.ID)
	} else {
		m.active = newObservable[*models.Account](nil)
	}
	return m, nil
}

// Active returns the active account.
func (m *Manager) Active() (models.Account, bool) {
	a := m.active.Get()
	if a == nil {
		return models.Account{}, false
	}
	return *a, true
}

// Subscribe calls fn with the active account (nil when logged out) after
// every transition.
func (m *Manager) Subscribe(fn func(*models.Account)) (unsubscribe func()) {
	return m.active.Subscribe(fn)
}

// Changes streams the active account, starting with the current one.
func (m *Manager) Changes(ctx context.Context) <-chan *models.Account {
	return m.active.Changes(ctx)
}

func (m *Manager) publish(a *models.Account) {
	if a != nil {
		cp := *a
		a = &cp
	}
	m.active.set(a)
}

// AllAccounts returns the roster.
func (m *Manager) AllAccounts(ctx context.Context) ([]models.Account, error) {
	return m.settings.Accounts(ctx)
}

// AddAccount adds a to the roster, or refreshes it after a re-login. It
// becomes active only when nobody is logged in.
func (m *Manager) AddAccount(ctx context.Context, a models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.active.Get()
	if current == nil {
		if err := m.settings.AddAndActivateAccount(ctx, a); err != nil {
			return err
		}
		m.recorder.RecordAccountAdded()
		m.publish(&a)
		m.log.Info(ctx, "logged in", "account_id", a.ID)
		return nil
	}

	if err := m.settings.AddOrUpdateAccount(ctx, a); err != nil {
		return err
	}
	m.recorder.RecordAccountAdded()

	if current.ID == a.ID {
		// same identity, fresh token
		m.publish(&a)
	}
	return nil
}

// SwitchAccount makes id the active account. An id that is not in the roster
// leaves the state untouched and reports false.
func (m *Manager) SwitchAccount(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok, err := m.settings.AccountByID(ctx, id)
	if err != nil {
		return false, err
	}
	if !ok {
		m.log.Debug(ctx, "switch to unknown account ignored", "account_id", id)
		return false, nil
	}

	if err := m.settings.SetActiveAccountID(ctx, id); err != nil {
		return false, err
	}
	m.publish(&a)
	m.recorder.RecordAccountSwitch()
	m.log.Info(ctx, "switched account", "account_id", id)
	return true, nil
}

// RemoveAccount deletes id and its settings. Removing the active account logs
// out.
func (m *Manager) RemoveAccount(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if settings.ValidateID(id) != nil {
		return nil
	}

	if err := m.settings.RemoveAccount(ctx, id); err != nil {
		return err
	}
	m.recorder.RecordAccountRemoved()

	if current := m.active.Get(); current != nil && current.ID == id {
		m.publish(nil)
		m.log.Info(ctx, "active account removed", "account_id", id)
	}
	return nil
}

// Scoped returns the active account's settings, or nil when logged out.
func (m *Manager) Scoped() *settings.Scoped {
	a, ok := m.Active()
	if !ok {
		return nil
	}
	return m.settings.Scoped(a.ID)
}

// Logout clears the active account. Its settings are kept for the next login.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.active.Get()
	if err := m.settings.SetActiveAccountID(ctx, ""); err != nil {
		return err
	}
	m.publish(nil)

	if current != nil {
		m.recorder.RecordLogout()
		m.log.Info(ctx, "logged out", "account_id", current.ID)
	}
	return nil
}

// Reset erases every account and every setting and logs out. It is the
// recovery path for a roster that can no longer be decoded.
func (m *Manager) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.settings.ClearAll(ctx); err != nil {
		return err
	}

	if current := m.active.Get(); current != nil {
		m.recorder.RecordLogout()
	}
	m.publish(nil)
	m.log.Warn(ctx, "all accounts and settings erased")
	return nil
}
