package session

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verifydesk/cli/internal/app"
	"github.com/verifydesk/cli/internal/config"
	"github.com/verifydesk/cli/internal/models"
	appSession "github.com/verifydesk/cli/internal/session"
)

type memoryStore struct {
	mu            sync.Mutex
	auth          models.AuthState
	notifications []models.Notification
}

func (m *memoryStore) LoadAuth() models.AuthState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.auth
}

func (m *memoryStore) SaveAuth(s models.AuthState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auth = s
	return nil
}

func (m *memoryStore) LoadNotifications() ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Notification(nil), m.notifications...), nil
}

func (m *memoryStore) SaveNotifications(l []models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = l
	return nil
}

// syncBuffer is written by the watch goroutines and read by the test
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestApp() (*app.App, *memoryStore) {
	store := &memoryStore{auth: models.AuthState{IsAuthenticated: true, UserName: "alice", Token: "t"}}
	cfg := config.Defaults()
	return app.NewWithStore(&cfg, store, nil), store
}

func shortConfig() appSession.Config {
	return appSession.Config{
		Timeout:          120 * time.Millisecond,
		WarningThreshold: 80 * time.Millisecond,
		PollInterval:     10 * time.Millisecond,
	}
}

func TestWatch_ExpiresAndLogsOut(t *testing.T) {
	a, store := newTestApp()
	out := &syncBuffer{}

	expired, err := Watch(context.Background(), a, shortConfig(), strings.NewReader(""), out)
	require.NoError(t, err)

	assert.True(t, expired)
	assert.False(t, a.Auth.IsAuthenticated())
	assert.Equal(t, "alice", store.LoadAuth().UserName)

	notes, _ := store.LoadNotifications()
	require.Len(t, notes, 1)
	assert.Equal(t, "alert", notes[0].Type)
	assert.Equal(t, "Session expired", notes[0].Title)

	assert.Contains(t, out.String(), "about to expire")
	assert.Contains(t, out.String(), "Logging out in 0:0")
}

func TestWatch_ActivityKeepsSessionAlive(t *testing.T) {
	a, _ := newTestApp()
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()

	go func() {
		ticker := time.NewTicker(30 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := io.WriteString(pw, "x\n"); err != nil {
					return
				}
			}
		}
	}()

	expired, err := Watch(ctx, a, shortConfig(), pr, &syncBuffer{})
	require.NoError(t, err)

	assert.False(t, expired)
	assert.True(t, a.Auth.IsAuthenticated())
}

func TestWatch_StayResetsTimer(t *testing.T) {
	a, _ := newTestApp()
	pr, pw := io.Pipe()
	defer pw.Close()
	out := &syncBuffer{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := shortConfig()
	cfg.Timeout = 5 * time.Second
	cfg.WarningThreshold = time.Second

	done := make(chan bool)
	go func() {
		expired, _ := Watch(ctx, a, cfg, pr, out)
		done <- expired
	}()

	_, err := io.WriteString(pw, "stay\n")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Session extended")
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.False(t, <-done)
}

func TestWatch_StopsWhenLoggedOutElsewhere(t *testing.T) {
	a, store := newTestApp()
	pr, pw := io.Pipe()
	defer pw.Close()

	cfg := shortConfig()
	cfg.Timeout = 5 * time.Second
	cfg.WarningThreshold = time.Second

	type result struct {
		expired bool
		err     error
	}
	done := make(chan result, 1)
	go func() {
		expired, err := Watch(context.Background(), a, cfg, pr, &syncBuffer{})
		done <- result{expired, err}
	}()

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, store.SaveAuth(models.AuthState{UserName: "alice"}))

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.False(t, r.expired)
	case <-time.After(2 * time.Second):
		t.Fatal("watch kept running after logout")
	}

	notes, _ := store.LoadNotifications()
	assert.Empty(t, notes)
}

func TestReadLines_StopsWhenDone(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	done := make(chan struct{})

	lines := readLines(pr, done)

	go io.WriteString(pw, "unread\n")
	close(done)

	// nobody receives the line, the goroutine must still exit
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-lines:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}
