package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type logoutCounter struct {
	mu    sync.Mutex
	calls int
}

func (l *logoutCounter) Logout() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
}

func (l *logoutCounter) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func newTestMonitor(t *testing.T, opts ...Option) (*Monitor, *fakeClock, *logoutCounter) {
	t.Helper()
	clock := newFakeClock()
	counter := &logoutCounter{}
	m := New(DefaultConfig(), counter.Logout, append([]Option{WithClock(clock.Now)}, opts...)...)
	m.Start()
	return m, clock, counter
}

func TestMonitor_ActivityResetsTimer(t *testing.T) {
	for _, kind := range ActivityEvents {
		t.Run(string(kind), func(t *testing.T) {
			m, clock, _ := newTestMonitor(t)

			clock.Advance(4*time.Minute + 30*time.Second)
			snap := m.Tick()
			require.True(t, snap.WarningVisible)

			assert.True(t, m.Activity(kind))
			assert.Equal(t, DefaultTimeout, m.TimeRemaining())
			assert.False(t, m.WarningVisible())
			assert.Equal(t, Fresh, m.Snapshot().State)
		})
	}
}

func TestMonitor_ResetTimerIsStayLoggedIn(t *testing.T) {
	m, clock, counter := newTestMonitor(t)

	clock.Advance(4*time.Minute + 50*time.Second)
	require.True(t, m.Tick().WarningVisible)

	require.True(t, m.ResetTimer())
	clock.Advance(4*time.Minute + 50*time.Second)
	snap := m.Tick()

	assert.Equal(t, Warning, snap.State)
	assert.Equal(t, 0, counter.Calls())
}

func TestMonitor_WarningWindow(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		warning bool
		state   State
	}{
		{"one second", time.Second, false, Counting},
		{"half way", 150 * time.Second, false, Counting},
		{"just before threshold", 4*time.Minute - time.Millisecond, false, Counting},
		{"just after threshold", 4*time.Minute + time.Millisecond, true, Warning},
		{"ten seconds left", 4*time.Minute + 50*time.Second, true, Warning},
		{"last millisecond", 5*time.Minute - time.Millisecond, true, Warning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, clock, counter := newTestMonitor(t)

			clock.Advance(tt.elapsed)
			snap := m.Tick()

			assert.Equal(t, tt.warning, snap.WarningVisible)
			assert.Equal(t, tt.state, snap.State)
			assert.Equal(t, DefaultTimeout-tt.elapsed, snap.TimeRemaining)
			assert.Equal(t, 0, counter.Calls())
		})
	}
}

func TestMonitor_ExpiryLogsOutOnce(t *testing.T) {
	m, clock, counter := newTestMonitor(t)

	clock.Advance(DefaultTimeout)
	snap := m.Tick()
	assert.Equal(t, Expired, snap.State)
	assert.Equal(t, time.Duration(0), snap.TimeRemaining)
	assert.False(t, snap.WarningVisible)

	clock.Advance(time.Minute)
	m.Tick()
	m.Tick()
	assert.False(t, m.Activity(Click), "activity after expiry must not revive the session")

	assert.Equal(t, 1, counter.Calls())
}

func TestMonitor_LongIdleClampsToZero(t *testing.T) {
	m, clock, counter := newTestMonitor(t)

	clock.Advance(time.Hour)
	snap := m.Tick()

	assert.Equal(t, time.Duration(0), snap.TimeRemaining)
	assert.Equal(t, 1, counter.Calls())
}

func TestMonitor_WarningHandlerFiresOncePerCrossing(t *testing.T) {
	var warnings []time.Duration
	m, clock, _ := newTestMonitor(t, WithWarningHandler(func(d time.Duration) {
		warnings = append(warnings, d)
	}))

	clock.Advance(4*time.Minute + 10*time.Second)
	m.Tick()
	clock.Advance(time.Second)
	m.Tick()
	require.Len(t, warnings, 1)

	m.Activity(KeyPress)
	clock.Advance(4*time.Minute + 30*time.Second)
	m.Tick()
	assert.Len(t, warnings, 2)
}

func TestMonitor_InactiveIgnoresEvents(t *testing.T) {
	clock := newFakeClock()
	counter := &logoutCounter{}
	m := New(DefaultConfig(), counter.Logout, WithClock(clock.Now))

	assert.False(t, m.Activity(Scroll))
	clock.Advance(time.Hour)
	snap := m.Tick()

	assert.Equal(t, Inactive, snap.State)
	assert.Equal(t, 0, counter.Calls())

	m.Start()
	assert.True(t, m.Active())
	m.Stop()
	clock.Advance(time.Hour)
	m.Tick()
	assert.Equal(t, 0, counter.Calls(), "stopped monitor must not log out")
}

func TestMonitor_StartAfterExpiryArmsNewLifetime(t *testing.T) {
	m, clock, counter := newTestMonitor(t)

	clock.Advance(DefaultTimeout)
	m.Tick()
	require.Equal(t, 1, counter.Calls())

	m.Start()
	assert.Equal(t, DefaultTimeout, m.TimeRemaining())
	clock.Advance(DefaultTimeout)
	m.Tick()
	assert.Equal(t, 2, counter.Calls())
}

func TestMonitor_RunStopsOnExpiry(t *testing.T) {
	counter := &logoutCounter{}
	cfg := Config{
		Timeout:          40 * time.Millisecond,
		WarningThreshold: 20 * time.Millisecond,
		PollInterval:     5 * time.Millisecond,
	}
	m := New(cfg, counter.Logout)
	m.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, m.Run(ctx))
	assert.Equal(t, 1, counter.Calls())
	assert.Equal(t, Expired, m.Snapshot().State)
}

func TestMonitor_RunHonoursCancellation(t *testing.T) {
	counter := &logoutCounter{}
	m := New(DefaultConfig(), counter.Logout)
	m.Start()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, m.Run(ctx), context.Canceled)
	assert.Equal(t, 0, counter.Calls())
}

func TestNew_RejectsMisuse(t *testing.T) {
	assert.Panics(t, func() { New(DefaultConfig(), nil) })
	assert.Panics(t, func() {
		New(Config{Timeout: time.Minute, WarningThreshold: time.Minute, PollInterval: time.Second}, func() {})
	})
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{5 * time.Second, "0:05"},
		{60 * time.Second, "1:00"},
		{299 * time.Second, "4:59"},
		{5 * time.Minute, "5:00"},
		{4*time.Second + time.Millisecond, "0:05"},
		{0, "0:00"},
		{-time.Second, "0:00"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.in))
		})
	}
}

func TestMonitor_FormatTimeRemainingIsStable(t *testing.T) {
	m, clock, _ := newTestMonitor(t)
	clock.Advance(time.Second)
	m.Tick()

	first := m.FormatTimeRemaining()
	assert.Equal(t, "4:59", first)
	assert.Equal(t, first, m.FormatTimeRemaining())
}
