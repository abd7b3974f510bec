package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrijs2005/kurozora/internal/config"
	"github.com/dmitrijs2005/kurozora/internal/filex"
	"github.com/dmitrijs2005/kurozora/internal/kv"
	"github.com/dmitrijs2005/kurozora/internal/logging"
	"github.com/dmitrijs2005/kurozora/internal/metrics"
	"github.com/dmitrijs2005/kurozora/internal/models"
	"github.com/dmitrijs2005/kurozora/internal/session"
	"github.com/dmitrijs2005/kurozora/internal/settings"
)

type App struct {
	config   *config.Config
	backend  kv.Backend
	closer   io.Closer
	settings *settings.Manager
	session  *session.Manager
	registry *prometheus.Registry
	log      logging.Logger
	reader   *bufio.Reader
	out      io.Writer
	styles   styles
}

// NewApp opens the settings database named by c.DBPath and restores the
// persisted session. Logs go to stderr; prompts and results to stdout.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	l, err := logging.New(c.LogFormat, c.LogLevel, os.Stderr)
	if err != nil {
		return nil, err
	}

	if isFilePath(c.DBPath) {
		if _, err := filex.EnsureDirFor(c.DBPath); err != nil {
			return nil, err
		}
	}

	b, err := kv.OpenSQLiteBackend(ctx, c.DBPath, c.DedicatedStores)
	if err != nil {
		l.Error(ctx, "error initializing database", "path", c.DBPath, "error", err)
		return nil, err
	}

	a, err := newApp(ctx, c, b, l, bufio.NewReader(os.Stdin), os.Stdout)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	a.closer = b
	return a, nil
}

// isFilePath reports whether dsn names a plain file rather than an in-memory
// database or a "file:" URI.
func isFilePath(dsn string) bool {
	return dsn != "" && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:")
}

func newApp(ctx context.Context, c *config.Config, b kv.Backend, l logging.Logger, r *bufio.Reader, w io.Writer) (*App, error) {
	a := &App{
		config:   c,
		backend:  b,
		registry: prometheus.NewRegistry(),
		log:      l,
		reader:   r,
		out:      w,
		styles:   newStyles(w, settings.ThemeDefault),
	}

	rec := metrics.NewCollector(a.registry, settings.KnownKeys()...)

	a.settings = settings.NewManager(b,
		settings.WithLogger(l),
		settings.WithRecorder(rec),
		settings.WithManagerThemeHandler(a.applyTheme),
	)

	s, err := session.New(ctx, a.settings, session.WithLogger(l), session.WithRecorder(rec))
	if err != nil {
		return nil, err
	}
	a.session = s
	a.loadTheme(ctx)
	return a, nil
}

// Run drives the REPL until the user exits or stdin closes.
func (a *App) Run(ctx context.Context) {
	defer a.close(ctx)

	unsubscribe := a.session.Subscribe(func(acc *models.Account) {
		a.loadTheme(ctx)
		if acc == nil {
			a.log.Info(ctx, "active account cleared")
			return
		}
		a.log.Info(ctx, "active account changed", "account_id", acc.ID)
	})
	defer unsubscribe()

	runREPL(ctx, a, a.prompt, a.reader, a.out)
}

func (a *App) close(ctx context.Context) {
	if a.closer == nil {
		return
	}
	if err := a.closer.Close(); err != nil {
		a.log.Error(ctx, "error closing database", "error", err)
	}
}

func (a *App) isLoggedIn() bool {
	_, ok := a.session.Active()
	return ok
}

func (a *App) status() string {
	acc, ok := a.session.Active()
	if !ok {
		return "(not logged in)"
	}
	if acc.Username != "" {
		return "@" + acc.Username
	}
	return acc.ID
}

func (a *App) prompt() string {
	return a.styles.accent.Render(a.status())
}

// loadTheme restyles output for the active account's stored theme, or the
// default theme when logged out.
func (a *App) loadTheme(ctx context.Context) {
	t := settings.ThemeDefault
	if s := a.session.Scoped(); s != nil {
		stored, err := s.Theme(ctx)
		if err != nil {
			a.log.Warn(ctx, "failed to load theme", "error", err)
		}
		t = stored
	}
	a.styles = newStyles(a.out, t)
}

// applyTheme restyles output when an account's theme is written.
func (a *App) applyTheme(_ context.Context, accountID string, t settings.Theme) {
	if active, ok := a.session.Active(); ok && active.ID == accountID {
		a.styles = newStyles(a.out, t)
	}
	fmt.Fprintln(a.out, a.styles.accent.Render(fmt.Sprintf("Theme %q applied for account %s", t, accountID)))
}
