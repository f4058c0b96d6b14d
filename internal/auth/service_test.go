package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verifydesk/cli/internal/api"
	"github.com/verifydesk/cli/internal/models"
	"github.com/verifydesk/cli/internal/utils"
)

type memoryStore struct {
	state models.AuthState
	saves int
	err   error
}

func (m *memoryStore) LoadAuth() models.AuthState { return m.state }

func (m *memoryStore) SaveAuth(s models.AuthState) error {
	if m.err != nil {
		return m.err
	}
	m.saves++
	m.state = s
	return nil
}

// backend accepts alice/secret123 and records password creations
type backend struct {
	passwords map[string]string
}

func newBackend(t *testing.T) (*backend, *api.Client) {
	t.Helper()
	b := &backend{passwords: map[string]string{"alice": "secret123"}}

	mux := http.NewServeMux()
	mux.HandleFunc("/login/", func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if pw, ok := b.passwords[req.Username]; !ok || pw != req.Password {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"detail":"Unable to log in with provided credentials."}`))
			return
		}
		_ = json.NewEncoder(w).Encode(models.LoginResponse{Key: "tok-" + req.Username})
	})
	mux.HandleFunc("/password/", func(w http.ResponseWriter, r *http.Request) {
		var req models.PasswordRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.passwords[req.Username] = req.Password
		w.WriteHeader(http.StatusCreated)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return b, api.NewClient(srv.URL)
}

func TestService_LoginPersistsToken(t *testing.T) {
	_, client := newBackend(t)
	store := &memoryStore{}
	svc := NewService(store, client, nil)

	require.NoError(t, svc.Login(context.Background(), "alice", "secret123"))

	assert.True(t, svc.IsAuthenticated())
	assert.Equal(t, "tok-alice", svc.Token())
	assert.Equal(t, "alice", svc.UserName())
	assert.Equal(t, models.AuthState{IsAuthenticated: true, UserName: "alice", Token: "tok-alice"}, store.state)
}

func TestService_LoginFailureKeepsState(t *testing.T) {
	_, client := newBackend(t)
	store := &memoryStore{state: models.AuthState{UserName: "bob"}}
	svc := NewService(store, client, nil)

	err := svc.Login(context.Background(), "alice", "wrong")
	require.Error(t, err)

	var apiErr *utils.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Unable to log in with provided credentials.", apiErr.Message)
	assert.False(t, svc.IsAuthenticated())
	assert.Equal(t, "bob", svc.UserName())
	assert.Zero(t, store.saves)
}

func TestService_LoginRequiresCredentials(t *testing.T) {
	_, client := newBackend(t)
	svc := NewService(&memoryStore{}, client, nil)

	assert.True(t, utils.IsValidationError(svc.Login(context.Background(), " ", "x")))
	assert.True(t, utils.IsValidationError(svc.Login(context.Background(), "alice", "")))
}

func TestService_LogoutKeepsUserName(t *testing.T) {
	store := &memoryStore{state: models.AuthState{IsAuthenticated: true, UserName: "alice", Token: "t"}}
	svc := NewService(store, nil, nil)
	require.True(t, svc.IsAuthenticated())

	require.NoError(t, svc.Logout())

	assert.False(t, svc.IsAuthenticated())
	assert.Empty(t, svc.Token())
	assert.Equal(t, models.AuthState{UserName: "alice"}, store.state)
}

func TestService_TokenFeedsClient(t *testing.T) {
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"c1"}`))
	}))
	defer srv.Close()

	store := &memoryStore{state: models.AuthState{IsAuthenticated: true, UserName: "alice", Token: "abc"}}
	svc := NewService(store, nil, nil)
	client := api.NewClient(srv.URL, api.WithTokenSource(svc))

	_, err := client.CreateApplicant(context.Background(), models.BasicInfo{Name: "Jane"})
	require.NoError(t, err)
	assert.Equal(t, "token abc", seen)

	require.NoError(t, svc.Logout())
	_, err = client.CreateApplicant(context.Background(), models.BasicInfo{Name: "Jane"})
	require.NoError(t, err)
	assert.Empty(t, seen)
}

func TestService_UpdateUserName(t *testing.T) {
	store := &memoryStore{state: models.AuthState{IsAuthenticated: true, UserName: "alice", Token: "t"}}
	svc := NewService(store, nil, nil)

	require.NoError(t, svc.UpdateUserName("  Alice Smith "))
	assert.Equal(t, "Alice Smith", store.state.UserName)
	assert.True(t, store.state.IsAuthenticated)

	assert.True(t, utils.IsValidationError(svc.UpdateUserName("")))
	assert.Equal(t, "Alice Smith", svc.UserName())
}

func TestService_SaveFailureKeepsState(t *testing.T) {
	store := &memoryStore{state: models.AuthState{IsAuthenticated: true, UserName: "alice", Token: "t"}}
	svc := NewService(store, nil, nil)
	store.err = errors.New("disk full")

	assert.Error(t, svc.Logout())
	assert.True(t, svc.IsAuthenticated())
}

func TestService_CreatePassword(t *testing.T) {
	b, client := newBackend(t)
	store := &memoryStore{}
	svc := NewService(store, client, nil)

	tests := []struct {
		name     string
		password string
		confirm  string
	}{
		{"mismatch", "longenough1", "longenough2"},
		{"too short", "short", "short"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.CreatePassword(context.Background(), "carol", tt.password, tt.confirm)
			assert.True(t, utils.IsValidationError(err))
			assert.NotContains(t, b.passwords, "carol")
		})
	}

	require.NoError(t, svc.CreatePassword(context.Background(), "carol", "longenough1", "longenough1"))
	assert.Equal(t, "longenough1", b.passwords["carol"])
	assert.True(t, svc.IsAuthenticated())
	assert.Equal(t, "tok-carol", svc.Token())
}
