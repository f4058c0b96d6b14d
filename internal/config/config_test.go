package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/verifydesk/cli/internal/models"
	"github.com/verifydesk/cli/internal/utils"
)

func initTemp(t *testing.T) string {
	t.Helper()
	viper.Reset()
	globalConfig = nil
	t.Cleanup(func() {
		viper.Reset()
		globalConfig = nil
	})

	path := filepath.Join(t.TempDir(), "nested", FileName)
	require.NoError(t, Initialize(path))
	return path
}

func reload(t *testing.T, path string) *Config {
	t.Helper()
	viper.Reset()
	globalConfig = nil
	require.NoError(t, Initialize(path))
	return Get()
}

func TestInitializeCreatesDefaults(t *testing.T) {
	path := initTemp(t)

	_, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, path, Path())

	cfg := Get()
	assert.Equal(t, "http://localhost:8000/api", cfg.Server.URL)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Session.Timeout)
	assert.Equal(t, time.Minute, cfg.Session.Warning)
	assert.Equal(t, time.Second, cfg.Session.PollInterval)
	assert.Equal(t, 2*time.Second, cfg.Intake.SuccessDelay)
	assert.Equal(t, "table", GetOutputFormat())
	assert.False(t, cfg.Auth.IsAuthenticated)
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("VERIFYDESK_SERVER_URL", "https://verify.example.com/api")
	t.Setenv("VERIFYDESK_SESSION_TIMEOUT", "10m")
	initTemp(t)

	assert.Equal(t, "https://verify.example.com/api", Get().Server.URL)
	assert.Equal(t, 10*time.Minute, Get().Session.Timeout)
}

func TestAuthPersistence(t *testing.T) {
	path := initTemp(t)

	require.NoError(t, UpdateAuth(models.AuthState{IsAuthenticated: true, UserName: "alice", Token: "abc"}))
	assert.Equal(t, models.AuthState{IsAuthenticated: true, UserName: "alice", Token: "abc"}, reload(t, path).Auth)

	require.NoError(t, ClearAuth())
	assert.Equal(t, models.AuthState{UserName: "alice"}, reload(t, path).Auth)
}

func TestNotificationPersistence(t *testing.T) {
	path := initTemp(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	store := Store{}
	require.NoError(t, store.SaveNotifications([]models.Notification{
		{ID: "n1", Title: "Session expired", Type: "alert", CreatedAt: created},
		{ID: "n2", Title: "Submitted", Type: "success", Read: true, CreatedAt: created, ActionText: "View"},
	}))

	reload(t, path)
	list, err := store.LoadNotifications()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "n1", list[0].ID)
	assert.True(t, list[0].CreatedAt.Equal(created))
	assert.True(t, list[1].Read)
	assert.Equal(t, "View", list[1].ActionText)
}

func TestStoreSeesChangesFromOtherInvocations(t *testing.T) {
	path := initTemp(t)
	store := Store{}
	require.NoError(t, store.SaveAuth(models.AuthState{IsAuthenticated: true, UserName: "alice", Token: "abc"}))

	// another terminal logs out and records a notification
	other := *Get()
	other.Auth = models.AuthState{UserName: "alice"}
	other.Notifications = []models.Notification{
		{ID: "n1", Title: "Session expired", Type: "alert", CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
	}
	data, err := yaml.Marshal(fileView(other))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0600))

	assert.Equal(t, models.AuthState{UserName: "alice"}, store.LoadAuth())
	list, err := store.LoadNotifications()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "n1", list[0].ID)

	// a later write from this process keeps the logout
	require.NoError(t, store.SaveNotifications(append(list, models.Notification{ID: "n2", Title: "Submitted", Type: "success"})))
	reloaded := reload(t, path)
	assert.False(t, reloaded.Auth.IsAuthenticated)
	assert.Empty(t, reloaded.Auth.Token)
	assert.Len(t, reloaded.Notifications, 2)
}

func TestSet(t *testing.T) {
	path := initTemp(t)

	require.NoError(t, Set("session.timeout", "10m"))
	require.NoError(t, Set("format.colors", "false"))
	require.NoError(t, Set("server.url", "https://verify.example.com/api"))

	cfg := reload(t, path)
	assert.Equal(t, 10*time.Minute, cfg.Session.Timeout)
	assert.False(t, cfg.Format.Colors)

	value, err := Lookup("server.url")
	require.NoError(t, err)
	assert.Equal(t, "https://verify.example.com/api", value)
}

func TestSetRejectsInvalidValues(t *testing.T) {
	initTemp(t)
	require.NoError(t, UpdateAuth(models.AuthState{IsAuthenticated: true, UserName: "alice", Token: "abc"}))

	tests := []struct {
		key   string
		value string
	}{
		{"auth.token", "x"},
		{"server.url", "localhost"},
		{"server.timeout", "-5s"},
		{"session.warning", "5m"},
		{"session.timeout", "30s"},
		{"format.default", "xml"},
		{"format.colors", "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := Set(tt.key, tt.value)
			require.Error(t, err)
			assert.True(t, utils.IsValidationError(err))
		})
	}

	assert.Equal(t, time.Minute, Get().Session.Warning)
	assert.Equal(t, 5*time.Minute, Get().Session.Timeout)
	assert.Equal(t, "abc", Get().Auth.Token)
}

func TestSettableKeysSorted(t *testing.T) {
	keys := SettableKeys()
	assert.IsIncreasing(t, keys)
	assert.NotContains(t, keys, "auth.token")
}
