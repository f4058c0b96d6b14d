// Package auth keeps the authentication state of the current user and
// persists it across invocations.
package auth

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/verifydesk/cli/internal/models"
	"github.com/verifydesk/cli/internal/utils"
)

// Store persists the authentication state
type Store interface {
	LoadAuth() models.AuthState
	SaveAuth(models.AuthState) error
}

// Client is the part of the API used for authentication
type Client interface {
	Login(ctx context.Context, username, password string) (string, error)
	SetPassword(ctx context.Context, username, password string) error
}

// Service owns the auth state. It implements api.TokenSource so the API
// client always sends the current token.
type Service struct {
	store  Store
	client Client
	logger *slog.Logger

	mu sync.RWMutex
}

// NewService returns a service over store. The state is read from store on
// every call so changes made by another invocation are seen.
func NewService(store Store, client Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		store:  store,
		client: client,
		logger: logger,
	}
}

// Login exchanges the credentials for a token and persists it. A failed
// login leaves the previous state untouched.
func (s *Service) Login(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if err := utils.ValidateRequired(username, "username"); err != nil {
		return err
	}
	if err := utils.ValidateRequired(password, "password"); err != nil {
		return err
	}

	token, err := s.client.Login(ctx, username, password)
	if err != nil {
		s.logger.Warn("login failed", slog.String("user", username), slog.String("error", err.Error()))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := models.AuthState{IsAuthenticated: true, UserName: username, Token: token}
	if err := s.store.SaveAuth(next); err != nil {
		return err
	}
	s.logger.Info("logged in", slog.String("user", username))
	return nil
}

// Logout drops the token. The user name is kept as a login hint.
func (s *Service) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := models.AuthState{UserName: s.store.LoadAuth().UserName}
	if err := s.store.SaveAuth(next); err != nil {
		return err
	}
	s.logger.Info("logged out", slog.String("user", next.UserName))
	return nil
}

// IsAuthenticated reports whether a token is held
func (s *Service) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := s.store.LoadAuth()
	return state.IsAuthenticated && state.Token != ""
}

// UserName returns the current or last user name
func (s *Service) UserName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.LoadAuth().UserName
}

// Token returns the current token, empty when logged out
func (s *Service) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := s.store.LoadAuth()
	if !state.IsAuthenticated {
		return ""
	}
	return state.Token
}

// State returns a copy of the auth state
func (s *Service) State() models.AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.LoadAuth()
}

// UpdateUserName replaces the displayed user name
func (s *Service) UpdateUserName(name string) error {
	name = strings.TrimSpace(name)
	if err := utils.ValidateRequired(name, "user_name"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.store.LoadAuth()
	next.UserName = name
	return s.store.SaveAuth(next)
}

// CreatePassword sets the first password of a registered user, then logs in
// with it
func (s *Service) CreatePassword(ctx context.Context, username, password, confirm string) error {
	username = strings.TrimSpace(username)
	if err := utils.ValidateRequired(username, "username"); err != nil {
		return err
	}
	if err := utils.ValidatePasswordConfirmation(password, confirm); err != nil {
		return err
	}

	if err := s.client.SetPassword(ctx, username, password); err != nil {
		return err
	}
	s.logger.Info("password created", slog.String("user", username))
	return s.Login(ctx, username, password)
}
