// Package notify manages the persisted notification list.
package notify

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verifydesk/cli/internal/models"
	"github.com/verifydesk/cli/internal/utils"
)

// Notification types
const (
	TypeInfo    = "info"
	TypeAlert   = "alert"
	TypeSuccess = "success"
)

// List filters
const (
	FilterAll    = "all"
	FilterUnread = "unread"
)

// ErrNotFound is returned for an unknown notification id
var ErrNotFound = errors.New("notification not found")

// Filters lists every accepted List filter
var Filters = []string{FilterAll, FilterUnread, TypeInfo, TypeAlert, TypeSuccess}

// Persister loads and saves the notification list
type Persister interface {
	LoadNotifications() ([]models.Notification, error)
	SaveNotifications([]models.Notification) error
}

// Store applies changes to the persisted list. Every operation loads the
// list, changes it and saves it back.
type Store struct {
	persist Persister
	now     func() time.Time
	mu      sync.Mutex
}

// NewStore returns a store backed by p
func NewStore(p Persister) *Store {
	return &Store{persist: p, now: time.Now}
}

func (s *Store) update(fn func([]models.Notification) ([]models.Notification, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.persist.LoadNotifications()
	if err != nil {
		return fmt.Errorf("failed to load notifications: %w", err)
	}
	list, err = fn(list)
	if err != nil {
		return err
	}
	if err := s.persist.SaveNotifications(list); err != nil {
		return fmt.Errorf("failed to save notifications: %w", err)
	}
	return nil
}

// Add stores n as unread at the top of the list. Missing id, type and
// creation time are filled in.
func (s *Store) Add(n models.Notification) (models.Notification, error) {
	if err := utils.ValidateRequired(n.Title, "title"); err != nil {
		return n, err
	}
	if n.Type == "" {
		n.Type = TypeInfo
	}
	if !validType(n.Type) {
		return n, utils.NewValidationError("type", fmt.Sprintf("unknown notification type %q", n.Type))
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now().UTC().Truncate(time.Second)
	}
	n.Read = false

	err := s.update(func(list []models.Notification) ([]models.Notification, error) {
		return append([]models.Notification{n}, list...), nil
	})
	return n, err
}

// Info adds an info notification
func (s *Store) Info(title, message string) error {
	_, err := s.Add(models.Notification{Title: title, Message: message, Type: TypeInfo})
	return err
}

// Alert adds an alert notification
func (s *Store) Alert(title, message string) error {
	_, err := s.Add(models.Notification{Title: title, Message: message, Type: TypeAlert})
	return err
}

// Success adds a success notification
func (s *Store) Success(title, message string) error {
	_, err := s.Add(models.Notification{Title: title, Message: message, Type: TypeSuccess})
	return err
}

// MarkAsRead marks the notification id as read
func (s *Store) MarkAsRead(id string) error {
	return s.update(func(list []models.Notification) ([]models.Notification, error) {
		i, err := find(list, id)
		if err != nil {
			return nil, err
		}
		list[i].Read = true
		return list, nil
	})
}

// MarkAllAsRead marks every notification as read
func (s *Store) MarkAllAsRead() error {
	return s.update(func(list []models.Notification) ([]models.Notification, error) {
		for i := range list {
			list[i].Read = true
		}
		return list, nil
	})
}

// Delete removes the notification id
func (s *Store) Delete(id string) error {
	return s.update(func(list []models.Notification) ([]models.Notification, error) {
		i, err := find(list, id)
		if err != nil {
			return nil, err
		}
		return append(list[:i:i], list[i+1:]...), nil
	})
}

// Clear removes every notification
func (s *Store) Clear() error {
	return s.update(func([]models.Notification) ([]models.Notification, error) {
		return []models.Notification{}, nil
	})
}

// UnreadCount returns the number of unread notifications
func (s *Store) UnreadCount() (int, error) {
	list, err := s.List(FilterUnread)
	return len(list), err
}

// List returns the notifications matching filter, newest first
func (s *Store) List(filter string) (List, error) {
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" {
		filter = FilterAll
	}
	if filter != FilterAll && filter != FilterUnread && !validType(filter) {
		return nil, utils.NewValidationError("filter",
			fmt.Sprintf("unknown filter %q (use %s)", filter, strings.Join(Filters, ", ")))
	}

	s.mu.Lock()
	list, err := s.persist.LoadNotifications()
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to load notifications: %w", err)
	}

	out := List{}
	for _, n := range list {
		switch {
		case filter == FilterAll,
			filter == FilterUnread && !n.Read,
			filter == n.Type:
			out = append(out, n)
		}
	}
	return out, nil
}

func validType(t string) bool {
	return t == TypeInfo || t == TypeAlert || t == TypeSuccess
}

func find(list []models.Notification, id string) (int, error) {
	for i, n := range list {
		if n.ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// List is a notification list rendered by the table formatter
type List []models.Notification

// Headers implements format.Tabular
func (l List) Headers() []string {
	return []string{"ID", "Type", "Title", "Message", "Read", "Created"}
}

// Rows implements format.Tabular
func (l List) Rows() [][]string {
	rows := make([][]string, len(l))
	for i, n := range l {
		read := "no"
		if n.Read {
			read = "yes"
		}
		rows[i] = []string{n.ID, n.Type, n.Title, n.Message, read, n.CreatedAt.Local().Format("2006-01-02 15:04")}
	}
	return rows
}
