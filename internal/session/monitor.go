// Package session implements the inactivity monitor that warns an idle
// authenticated user and logs them out when the timeout elapses.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"
)

// Default timings
const (
	DefaultTimeout          = 5 * time.Minute
	DefaultWarningThreshold = time.Minute
	DefaultPollInterval     = time.Second
)

// EventKind is a kind of user input that counts as activity
type EventKind string

// Tracked activity events
const (
	PointerPress EventKind = "pointer_press"
	PointerMove  EventKind = "pointer_move"
	KeyPress     EventKind = "key_press"
	Scroll       EventKind = "scroll"
	TouchStart   EventKind = "touch_start"
	Click        EventKind = "click"
	Focus        EventKind = "focus"
)

// ActivityEvents lists every tracked event kind
var ActivityEvents = []EventKind{PointerPress, PointerMove, KeyPress, Scroll, TouchStart, Click, Focus}

// State is the monitor's position in its lifecycle
type State int

// Monitor states
const (
	// Inactive means no authenticated session is being watched
	Inactive State = iota
	// Fresh means the timer was just reset to the full timeout
	Fresh
	// Counting means time is elapsing and no warning is shown
	Counting
	// Warning means the warning threshold was crossed
	Warning
	// Expired means the timeout elapsed and logout was invoked
	Expired
)

func (s State) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Fresh:
		return "active"
	case Counting:
		return "counting"
	case Warning:
		return "warning"
	case Expired:
		return "expired"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Config holds the monitor timings
type Config struct {
	Timeout          time.Duration
	WarningThreshold time.Duration
	PollInterval     time.Duration
}

// DefaultConfig returns the standard 5m timeout, 1m warning, 1s poll
func DefaultConfig() Config {
	return Config{
		Timeout:          DefaultTimeout,
		WarningThreshold: DefaultWarningThreshold,
		PollInterval:     DefaultPollInterval,
	}
}

// Validate checks that the timings are usable
func (c Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("session timeout must be positive")
	}
	if c.WarningThreshold <= 0 || c.WarningThreshold >= c.Timeout {
		return fmt.Errorf("warning threshold must be positive and shorter than the timeout")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	return nil
}

// Snapshot is a consistent view of the monitor
type Snapshot struct {
	State          State
	TimeRemaining  time.Duration
	WarningVisible bool
	LastActivity   time.Time
}

// Monitor tracks activity and logs out after Config.Timeout of inactivity.
// All methods are safe for concurrent use; activity handling and ticks are
// serialized by an internal lock.
type Monitor struct {
	cfg    Config
	logout func()
	onWarn func(time.Duration)
	now    func() time.Time
	logger *slog.Logger

	mu           sync.Mutex
	state        State
	lastActivity time.Time
	remaining    time.Duration
	warning      bool
}

// Option configures a Monitor
type Option func(*Monitor)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithWarningHandler registers a callback run once each time the warning
// threshold is crossed
func WithWarningHandler(fn func(remaining time.Duration)) Option {
	return func(m *Monitor) { m.onWarn = fn }
}

// New creates an inactive monitor. logout is invoked exactly once per
// authenticated lifetime when the timeout elapses. It panics if logout is
// nil or cfg is invalid, since both are wiring mistakes.
func New(cfg Config, logout func(), opts ...Option) *Monitor {
	if logout == nil {
		panic("session: New called with nil logout callback")
	}
	if err := cfg.Validate(); err != nil {
		panic("session: " + err.Error())
	}

	m := &Monitor{
		cfg:       cfg,
		logout:    logout,
		now:       time.Now,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		remaining: cfg.Timeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Config returns the monitor timings
func (m *Monitor) Config() Config {
	return m.cfg
}

// Start begins watching an authenticated session. It resets the timer.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetLocked()
	m.logger.Info("session monitor started", slog.Duration("timeout", m.cfg.Timeout))
}

// Stop detaches the monitor, for example on manual logout. Activity and
// ticks are ignored until the next Start.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Inactive && m.state != Expired {
		m.logger.Info("session monitor stopped")
	}
	m.state = Inactive
	m.warning = false
}

// Active reports whether a session is being watched
func (m *Monitor) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active()
}

func (m *Monitor) active() bool {
	return m.state != Inactive && m.state != Expired
}

// Activity records a user input event. It returns false when the monitor is
// not watching a session, in which case nothing changes.
func (m *Monitor) Activity(kind EventKind) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active() {
		return false
	}
	m.logger.Debug("session activity", slog.String("event", string(kind)))
	m.resetLocked()
	return true
}

// ResetTimer is the explicit "stay logged in" action
func (m *Monitor) ResetTimer() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active() {
		return false
	}
	m.resetLocked()
	return true
}

func (m *Monitor) resetLocked() {
	m.lastActivity = m.now()
	m.remaining = m.cfg.Timeout
	m.warning = false
	m.state = Fresh
}

// Tick recomputes the remaining time. Crossing the warning threshold shows
// the warning; reaching zero expires the session and invokes logout.
func (m *Monitor) Tick() Snapshot {
	m.mu.Lock()
	if !m.active() {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap
	}

	elapsed := m.now().Sub(m.lastActivity)
	remaining := m.cfg.Timeout - elapsed
	if remaining < 0 {
		remaining = 0
	}
	m.remaining = remaining

	var warned, expired bool
	switch {
	case remaining == 0:
		m.state = Expired
		m.warning = false
		expired = true
	case remaining <= m.cfg.WarningThreshold:
		if !m.warning {
			m.warning = true
			warned = true
		}
		m.state = Warning
	case remaining < m.cfg.Timeout:
		m.state = Counting
	}

	snap := m.snapshotLocked()
	onWarn := m.onWarn
	m.mu.Unlock()

	if warned {
		m.logger.Warn("session about to expire", slog.Duration("remaining", remaining))
		if onWarn != nil {
			onWarn(remaining)
		}
	}
	if expired {
		m.logger.Info("session expired, logging out")
		m.logout()
	}
	return snap
}

// Run ticks every poll interval until the session expires, Stop is called,
// or ctx is done. It returns nil on expiry or stop and ctx.Err() on
// cancellation.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			snap := m.Tick()
			if snap.State == Expired || snap.State == Inactive {
				return nil
			}
		}
	}
}

// Snapshot returns the current state without advancing the clock
func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Monitor) snapshotLocked() Snapshot {
	return Snapshot{
		State:          m.state,
		TimeRemaining:  m.remaining,
		WarningVisible: m.warning,
		LastActivity:   m.lastActivity,
	}
}

// TimeRemaining returns the remaining time as of the last tick or reset
func (m *Monitor) TimeRemaining() time.Duration {
	return m.Snapshot().TimeRemaining
}

// WarningVisible reports whether the expiry warning is showing
func (m *Monitor) WarningVisible() bool {
	return m.Snapshot().WarningVisible
}

// FormatTimeRemaining renders the remaining time as m:ss
func (m *Monitor) FormatTimeRemaining() string {
	return FormatDuration(m.TimeRemaining())
}

// FormatDuration renders d as minutes:seconds with the seconds zero-padded,
// rounding up to whole seconds
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(math.Ceil(d.Seconds()))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
