package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dmitrijs2005/kurozora/internal/kv"
	"github.com/dmitrijs2005/kurozora/internal/metrics"
	"github.com/dmitrijs2005/kurozora/internal/models"
	"github.com/dmitrijs2005/kurozora/internal/settings"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	alice = models.Account{ID: "1", Token: "t1", Username: "alice"}
	bob   = models.Account{ID: "2", Token: "t2", Username: "bob"}
)

func newManager(t *testing.T, b kv.Backend, opts ...Option) (*Manager, *settings.Manager) {
	t.Helper()
	s := settings.NewManager(b)
	m, err := New(context.Background(), s, opts...)
	require.NoError(t, err)
	return m, s
}

func ids(t *testing.T, m *Manager) []string {
	t.Helper()
	list, err := m.AllAccounts(context.Background())
	require.NoError(t, err)
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.ID)
	}
	return out
}

func activeID(m *Manager) string {
	a, ok := m.Active()
	if !ok {
		return ""
	}
	return a.ID
}

func TestManager_ExampleScenario(t *testing.T) {
	m, s := newManager(t, kv.NewMemoryBackend())
	ctx := context.Background()

	_, ok := m.Active()
	require.False(t, ok)
	require.Empty(t, ids(t, m))

	require.NoError(t, m.AddAccount(ctx, alice))
	assert.Equal(t, "1", activeID(m))

	require.NoError(t, m.AddAccount(ctx, bob))
	assert.Equal(t, "1", activeID(m), "adding while logged in keeps the active account")
	assert.Equal(t, []string{"1", "2"}, ids(t, m))

	switched, err := m.SwitchAccount(ctx, "2")
	require.NoError(t, err)
	assert.True(t, switched)
	assert.Equal(t, "2", activeID(m))

	require.NoError(t, m.RemoveAccount(ctx, "2"))
	_, ok = m.Active()
	assert.False(t, ok)
	assert.Equal(t, []string{"1"}, ids(t, m))

	_, found, err := s.ActiveAccountID(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestManager_SwitchToUnknownIsNoop(t *testing.T) {
	m, _ := newManager(t, kv.NewMemoryBackend())
	ctx := context.Background()

	switched, err := m.SwitchAccount(ctx, "404")
	require.NoError(t, err)
	assert.False(t, switched)
	assert.Nil(t, m.Scoped())

	require.NoError(t, m.AddAccount(ctx, alice))
	switched, err = m.SwitchAccount(ctx, "404")
	require.NoError(t, err)
	assert.False(t, switched)
	assert.Equal(t, "1", activeID(m))
}

func TestManager_LogoutKeepsScopedSettings(t *testing.T) {
	m, _ := newManager(t, kv.NewMemoryBackend())
	ctx := context.Background()

	require.NoError(t, m.AddAccount(ctx, alice))
	require.NoError(t, m.Scoped().SetTheme(ctx, settings.ThemeSakura))
	require.NoError(t, m.Scoped().SetLanguage(ctx, "ja"))

	require.NoError(t, m.Logout(ctx))
	_, ok := m.Active()
	assert.False(t, ok)
	assert.Nil(t, m.Scoped())
	assert.Equal(t, []string{"1"}, ids(t, m), "logout keeps the roster")

	switched, err := m.SwitchAccount(ctx, alice.ID)
	require.NoError(t, err)
	require.True(t, switched)

	th, err := m.Scoped().Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings.ThemeSakura, th)

	lang, err := m.Scoped().Language(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ja", lang)
}

func TestManager_AddAfterLogoutLogsIn(t *testing.T) {
	m, _ := newManager(t, kv.NewMemoryBackend())
	ctx := context.Background()

	require.NoError(t, m.AddAccount(ctx, alice))
	require.NoError(t, m.Logout(ctx))
	require.NoError(t, m.AddAccount(ctx, bob))
	assert.Equal(t, "2", activeID(m))
}

func TestManager_ReloginRefreshesActiveAccount(t *testing.T) {
	m, _ := newManager(t, kv.NewMemoryBackend())
	ctx := context.Background()

	require.NoError(t, m.AddAccount(ctx, alice))
	relogged := alice
	relogged.Token = "t1-fresh"
	require.NoError(t, m.AddAccount(ctx, relogged))

	a, ok := m.Active()
	require.True(t, ok)
	assert.Equal(t, "t1-fresh", a.Token)
	assert.Equal(t, []string{"1"}, ids(t, m))
}

func TestManager_RemoveInactiveKeepsSession(t *testing.T) {
	m, _ := newManager(t, kv.NewMemoryBackend())
	ctx := context.Background()

	require.NoError(t, m.AddAccount(ctx, alice))
	require.NoError(t, m.AddAccount(ctx, bob))
	require.NoError(t, m.RemoveAccount(ctx, bob.ID))
	assert.Equal(t, "1", activeID(m))
}

func TestNew_RestoresPersistedSession(t *testing.T) {
	ctx := context.Background()
	b, err := kv.OpenSQLiteBackend(ctx, ":memory:", true)
	require.NoError(t, err)
	defer b.Close()

	first, _ := newManager(t, b)
	require.NoError(t, first.AddAccount(ctx, alice))
	require.NoError(t, first.AddAccount(ctx, bob))
	_, err = first.SwitchAccount(ctx, bob.ID)
	require.NoError(t, err)

	second, _ := newManager(t, b)
	assert.Equal(t, "2", activeID(second))

	require.NoError(t, second.Logout(ctx))
	third, _ := newManager(t, b)
	_, ok := third.Active()
	assert.False(t, ok)
}

func TestNew_DanglingPointerStartsLoggedOut(t *testing.T) {
	ctx := context.Background()
	b := kv.NewMemoryBackend()
	require.NoError(t, b.Root().Set(ctx, settings.ActiveAccountKey, "ghost"))

	m, _ := newManager(t, b)
	_, ok := m.Active()
	assert.False(t, ok)
}

func TestNew_CorruptRosterStartsLoggedOutAndResetRecovers(t *testing.T) {
	ctx := context.Background()
	b := kv.NewMemoryBackend()
	require.NoError(t, b.Root().Set(ctx, settings.ActiveAccountKey, "1"))
	require.NoError(t, b.Root().Set(ctx, settings.AccountsKey, "]["))

	m, _ := newManager(t, b)
	_, ok := m.Active()
	assert.False(t, ok)

	require.ErrorIs(t, m.AddAccount(ctx, alice), settings.ErrCorruptRoster)

	require.NoError(t, m.Reset(ctx))
	require.NoError(t, m.AddAccount(ctx, alice))
	assert.Equal(t, "1", activeID(m))
	assert.Equal(t, []string{"1"}, ids(t, m))
}

func TestManager_ResetLogsOutAndErasesEverything(t *testing.T) {
	ctx := context.Background()
	m, s := newManager(t, kv.NewMemoryBackend())

	require.NoError(t, m.AddAccount(ctx, alice))
	require.NoError(t, m.AddAccount(ctx, bob))
	require.NoError(t, m.Scoped().SetTheme(ctx, settings.ThemeSky))

	var seen []*models.Account
	unsubscribe := m.Subscribe(func(a *models.Account) { seen = append(seen, a) })
	defer unsubscribe()

	require.NoError(t, m.Reset(ctx))

	_, ok := m.Active()
	assert.False(t, ok)
	assert.Empty(t, ids(t, m))
	require.Len(t, seen, 1)
	assert.Nil(t, seen[0])

	th, err := s.Scoped(alice.ID).Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings.ThemeDefault, th)
}

// pointerWriteFails fails every write of the active-account pointer.
type pointerWriteFails struct{ kv.Backend }

type pointerWriteFailsStore struct{ kv.Store }

var errPointerWrite = errors.New("pointer write failed")

func (f pointerWriteFails) Root() kv.Store { return pointerWriteFailsStore{f.Backend.Root()} }

func (f pointerWriteFails) Atomically(ctx context.Context, fn func(ctx context.Context, b kv.Backend) error) error {
	return f.Backend.Atomically(ctx, func(ctx context.Context, b kv.Backend) error {
		return fn(ctx, pointerWriteFails{b})
	})
}

func (s pointerWriteFailsStore) Set(ctx context.Context, key, value string) error {
	if key == settings.ActiveAccountKey {
		return errPointerWrite
	}
	return s.Store.Set(ctx, key, value)
}

func TestManager_AddAccountFailureLeavesNoRosterEntry(t *testing.T) {
	ctx := context.Background()
	b := kv.NewMemoryBackend()
	m, _ := newManager(t, pointerWriteFails{b})

	require.ErrorIs(t, m.AddAccount(ctx, alice), errPointerWrite)

	_, ok := m.Active()
	assert.False(t, ok)
	list, err := settings.NewManager(b).Accounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestManager_InvalidIDsAreNoops(t *testing.T) {
	ctx := context.Background()
	m, s := newManager(t, kv.NewMemoryBackend())

	require.NoError(t, m.AddAccount(ctx, alice))
	require.NoError(t, m.Scoped().Set(ctx, "x.volume", "7"))

	switched, err := m.SwitchAccount(ctx, "1.x")
	require.NoError(t, err)
	assert.False(t, switched)

	require.NoError(t, m.RemoveAccount(ctx, "1.x"))
	assert.Equal(t, "1", activeID(m))

	v, found, err := s.Scoped(alice.ID).Get(ctx, "x.volume")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "7", v)
}

func TestManager_SubscribersSeeTransitions(t *testing.T) {
	m, _ := newManager(t, kv.NewMemoryBackend())
	ctx := context.Background()

	var seen []string
	unsubscribe := m.Subscribe(func(a *models.Account) {
		if a == nil {
			seen = append(seen, "-")
			return
		}
		seen = append(seen, a.ID)
	})

	require.NoError(t, m.AddAccount(ctx, alice))
	require.NoError(t, m.AddAccount(ctx, bob))
	_, err := m.SwitchAccount(ctx, bob.ID)
	require.NoError(t, err)
	require.NoError(t, m.Logout(ctx))

	unsubscribe()
	_, err = m.SwitchAccount(ctx, alice.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "-"}, seen)
}

func TestManager_PublishedAccountIsACopy(t *testing.T) {
	m, _ := newManager(t, kv.NewMemoryBackend())
	ctx := context.Background()

	a := alice
	require.NoError(t, m.AddAccount(ctx, a))
	a.Username = "mallory"

	got, _ := m.Active()
	assert.Equal(t, "alice", got.Username)
}

func TestManager_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)
	m, _ := newManager(t, kv.NewMemoryBackend(), WithRecorder(c))
	ctx := context.Background()

	require.NoError(t, m.AddAccount(ctx, alice))
	require.NoError(t, m.AddAccount(ctx, bob))
	_, err := m.SwitchAccount(ctx, bob.ID)
	require.NoError(t, err)
	_, err = m.SwitchAccount(ctx, "404")
	require.NoError(t, err)
	require.NoError(t, m.Logout(ctx))
	require.NoError(t, m.RemoveAccount(ctx, bob.ID))

	expected := `
# HELP kurozora_account_switches_total Active account switches.
# TYPE kurozora_account_switches_total counter
kurozora_account_switches_total 1
# HELP kurozora_accounts_added_total Accounts added or updated in the roster.
# TYPE kurozora_accounts_added_total counter
kurozora_accounts_added_total 2
# HELP kurozora_accounts_removed_total Accounts removed from the roster.
# TYPE kurozora_accounts_removed_total counter
kurozora_accounts_removed_total 1
# HELP kurozora_logouts_total Logouts of the active account.
# TYPE kurozora_logouts_total counter
kurozora_logouts_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"kurozora_account_switches_total",
		"kurozora_accounts_added_total",
		"kurozora_accounts_removed_total",
		"kurozora_logouts_total",
	))
}
