package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ButyrinIA/postboard/internal/api"
	"github.com/ButyrinIA/postboard/internal/models"
	"github.com/ButyrinIA/postboard/internal/storage"
)

// Ключи в долговременном хранилище
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Authenticator - часть API-клиента, нужная сессии
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*models.LoginResponse, error)
	SetToken(token string)
}

// LoginResult is what the login form shows. Bad credentials are reported
// here, never as a Go error.
type LoginResult struct {
	Success bool
	Error   string
}

// Session holds the bearer token and the signed-in user. The API client's
// unauthorized hook may call Expire from a request goroutine, so state is
// guarded by mu.
type Session struct {
	store storage.Storage
	auth  Authenticator
	now   func() time.Time

	mu    sync.RWMutex
	ready bool
	token string
	user  *models.User
}

type Option func(*Session)

// WithClock подменяет текущее время (для проверки exp в тестах)
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func New(store storage.Storage, auth Authenticator, opts ...Option) *Session {
	s := &Session{store: store, auth: auth, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore reads the persisted session. It always marks the session ready,
// even when storage fails, so guarded views never stay blocked.
func (s *Session) Restore(ctx context.Context) error {
	defer func() {
		s.mu.Lock()
		s.ready = true
		s.mu.Unlock()
	}()

	token, err := s.store.Get(ctx, KeyToken)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore token: %w", err)
	}

	raw, err := s.store.Get(ctx, KeyUser)
	if errors.Is(err, storage.ErrNotFound) {
		slog.Warn("persisted token has no user, dropping session")
		s.clear(ctx)
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore user: %w", err)
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		slog.Warn("persisted user is corrupt, dropping session", "error", err)
		s.clear(ctx)
		return nil
	}

	if expired(token, s.now()) {
		slog.Info("persisted token expired, dropping session", "email", user.Email)
		s.clear(ctx)
		return nil
	}

	s.mu.Lock()
	s.token = token
	s.user = &user
	s.mu.Unlock()
	s.auth.SetToken(token)
	return nil
}

func (s *Session) Login(ctx context.Context, email, password string) LoginResult {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return LoginResult{Error: "Email and password are required"}
	}

	resp, err := s.auth.Login(ctx, email, password)
	if err != nil {
		slog.Info("login failed", "email", email, "error", err)
		return LoginResult{Error: api.Message(err, "Login failed")}
	}

	s.mu.Lock()
	s.token = resp.AccessToken
	user := resp.User
	s.user = &user
	s.mu.Unlock()
	s.auth.SetToken(resp.AccessToken)

	if err := s.persist(ctx, resp.AccessToken, user); err != nil {
		// сессия работает до перезапуска клиента
		slog.Warn("failed to persist session", "error", err)
	}

	slog.Info("logged in", "email", user.Email)
	return LoginResult{Success: true}
}

// Logout always succeeds. Storage errors are only logged.
func (s *Session) Logout(ctx context.Context) {
	s.clear(ctx)
}

// Expire is the forced logout after an authorization failure. It is a no-op
// when nobody is signed in.
func (s *Session) Expire(ctx context.Context) {
	if !s.Authenticated() {
		return
	}
	slog.Warn("session expired, logging out")
	s.clear(ctx)
}

// SetUser replaces the stored profile after a profile update that kept the email.
func (s *Session) SetUser(ctx context.Context, user models.User) error {
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return errors.New("not logged in")
	}
	s.user = &user
	token := s.token
	s.mu.Unlock()

	return s.persist(ctx, token, user)
}

func (s *Session) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.token != ""
}

func (s *Session) User() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) persist(ctx context.Context, token string, user models.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	// токен пишется последним: без него Restore считает сессию пустой
	if err := s.store.Set(ctx, KeyUser, string(raw)); err != nil {
		return err
	}
	if err := s.store.Set(ctx, KeyToken, token); err != nil {
		if derr := s.store.Delete(ctx, KeyUser); derr != nil {
			slog.Warn("failed to roll back persisted user", "error", derr)
		}
		return err
	}
	return nil
}

func (s *Session) clear(ctx context.Context) {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()
	s.auth.SetToken("")

	if err := s.store.Delete(ctx, KeyToken, KeyUser); err != nil {
		slog.Warn("failed to clear persisted session", "error", err)
	}
}

// expired reports whether token is a JWT whose exp lies before now. The
// signature can't be checked here; tokens that don't parse are left for the
// backend to judge.
func expired(token string, now time.Time) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !claims.ExpiresAt.After(now)
}
