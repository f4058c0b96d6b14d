// Package app assembles the services a command needs from the loaded
// configuration.
package app

import (
	"io"
	"log/slog"
	"os"

	"github.com/verifydesk/cli/internal/api"
	"github.com/verifydesk/cli/internal/auth"
	"github.com/verifydesk/cli/internal/config"
	"github.com/verifydesk/cli/internal/intake"
	"github.com/verifydesk/cli/internal/notify"
	"github.com/verifydesk/cli/internal/session"
)

// App holds the wired services of one invocation
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Client        *api.Client
	Auth          *auth.Service
	Notifications *notify.Store
}

// New builds the services from the global configuration. Config must be
// initialized first.
func New() *App {
	return NewWithStore(config.Get(), config.Store{}, os.Stderr)
}

// Store persists auth state and notifications
type Store interface {
	auth.Store
	notify.Persister
}

// NewWithStore builds the services on an explicit configuration and store.
// Log records go to logOut.
func NewWithStore(cfg *config.Config, store Store, logOut io.Writer) *App {
	logger := newLogger(logOut)

	a := &App{
		Config:        cfg,
		Logger:        logger,
		Notifications: notify.NewStore(store),
	}

	// the client reads the token from the auth service on every request
	var tokens lazyToken
	a.Client = api.NewClient(cfg.Server.URL,
		api.WithTimeout(cfg.Server.Timeout),
		api.WithLogger(logger),
		api.WithTokenSource(&tokens),
	)
	a.Auth = auth.NewService(store, a.Client, logger)
	tokens.src = a.Auth

	return a
}

// NewIntake returns a fresh intake bound to the API client
func (a *App) NewIntake() *intake.Intake {
	return intake.New(a.Client, intake.WithLogger(a.Logger))
}

// SessionConfig returns the monitor timings from the configuration
func (a *App) SessionConfig() session.Config {
	return session.Config{
		Timeout:          a.Config.Session.Timeout,
		WarningThreshold: a.Config.Session.Warning,
		PollInterval:     a.Config.Session.PollInterval,
	}
}

func newLogger(w io.Writer) *slog.Logger {
	if w == nil {
		w = io.Discard
	}
	level := slog.LevelWarn
	if config.IsDebug() {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

type lazyToken struct {
	src api.TokenSource
}

func (t *lazyToken) Token() string {
	if t.src == nil {
		return ""
	}
	return t.src.Token()
}
