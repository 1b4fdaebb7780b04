package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ButyrinIA/postboard/internal/models"
	"github.com/ButyrinIA/postboard/internal/storage"
)

const MinPasswordLength = 8

// Ошибки проверки формы. Запрос к бэкенду в этих случаях не выполняется.
var (
	ErrEmailRequired           = errors.New("email is required")
	ErrCurrentPasswordRequired = errors.New("current password is required")
	ErrPasswordMismatch        = errors.New("new passwords do not match")
	ErrPasswordTooShort        = fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
)

// ErrPasswordChangeUnsupported: the backend has no password endpoint yet.
var ErrPasswordChangeUnsupported = errors.New("password change is not supported by the backend")

const keyPreferences = "preferences"

type ProfileUpdater interface {
	UpdateProfile(ctx context.Context, name, email string) (*models.ProfileUpdate, error)
}

// SessionManager is the part of session.Session that settings touches.
type SessionManager interface {
	SetUser(ctx context.Context, user models.User) error
	Logout(ctx context.Context)
}

type Service struct {
	api     ProfileUpdater
	session SessionManager
	store   storage.Storage
}

func New(api ProfileUpdater, session SessionManager, store storage.Storage) *Service {
	return &Service{api: api, session: session, store: store}
}

type ProfileResult struct {
	Message string
	// LoggedOut: email changed, the user has to sign in again with the new one.
	LoggedOut bool
}

func (s *Service) UpdateProfile(ctx context.Context, name, email string) (ProfileResult, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if email == "" {
		return ProfileResult{}, ErrEmailRequired
	}

	resp, err := s.api.UpdateProfile(ctx, name, email)
	if err != nil {
		return ProfileResult{}, fmt.Errorf("update profile: %w", err)
	}

	res := ProfileResult{Message: resp.Message}
	if res.Message == "" {
		res.Message = "Profile updated successfully"
	}

	if resp.EmailChanged {
		slog.Info("email changed, logging out", "email", resp.User.Email)
		s.session.Logout(ctx)
		res.LoggedOut = true
		return res, nil
	}

	if err := s.session.SetUser(ctx, resp.User); err != nil {
		slog.Warn("failed to store updated profile", "error", err)
	}
	return res, nil
}

// ValidatePasswordChange checks the security form. A valid form still
// returns ErrPasswordChangeUnsupported.
func ValidatePasswordChange(current, next, confirm string) error {
	switch {
	case current == "":
		return ErrCurrentPasswordRequired
	case next != confirm:
		return ErrPasswordMismatch
	case len([]rune(next)) < MinPasswordLength:
		return ErrPasswordTooShort
	}
	return ErrPasswordChangeUnsupported
}

type Preferences struct {
	Notifications bool `json:"notifications"`
	EmailAlerts   bool `json:"email_alerts"`
	DarkMode      bool `json:"dark_mode"`
}

func DefaultPreferences() Preferences {
	return Preferences{Notifications: true}
}

type Preference int

const (
	PrefNotifications Preference = iota
	PrefEmailAlerts
	PrefDarkMode
)

func (p Preference) Label() string {
	switch p {
	case PrefNotifications:
		return "Push notifications"
	case PrefEmailAlerts:
		return "Email alerts"
	case PrefDarkMode:
		return "Dark mode"
	}
	return ""
}

func (p Preferences) Get(key Preference) bool {
	switch key {
	case PrefNotifications:
		return p.Notifications
	case PrefEmailAlerts:
		return p.EmailAlerts
	case PrefDarkMode:
		return p.DarkMode
	}
	return false
}

// Toggle returns a copy with key flipped.
func (p Preferences) Toggle(key Preference) Preferences {
	switch key {
	case PrefNotifications:
		p.Notifications = !p.Notifications
	case PrefEmailAlerts:
		p.EmailAlerts = !p.EmailAlerts
	case PrefDarkMode:
		p.DarkMode = !p.DarkMode
	}
	return p
}

// Preferences reads the saved preferences, falling back to defaults when
// nothing was saved or the stored value is unreadable.
func (s *Service) Preferences(ctx context.Context) (Preferences, error) {
	raw, err := s.store.Get(ctx, keyPreferences)
	if errors.Is(err, storage.ErrNotFound) {
		return DefaultPreferences(), nil
	}
	if err != nil {
		return DefaultPreferences(), fmt.Errorf("load preferences: %w", err)
	}

	p := DefaultPreferences()
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		slog.Warn("stored preferences are corrupt, using defaults", "error", err)
		return DefaultPreferences(), nil
	}
	return p, nil
}

func (s *Service) SavePreferences(ctx context.Context, p Preferences) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := s.store.Set(ctx, keyPreferences, string(raw)); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}
