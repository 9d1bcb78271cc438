// Package session holds the console's single operator session.
//
// The Store is created once in main and passed to whatever needs it. Its
// only side effects are Token Store reads and writes; the login call is
// delegated to an Authenticator.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"garansi-console/internal/audit"
	"garansi-console/internal/auth"
	"garansi-console/internal/authapi"
	"garansi-console/internal/events"
	"garansi-console/internal/rbac"
)

// State is a snapshot of the session. IsAuthed is true exactly when both
// Token and User are set, and Role always mirrors User.Role.
type State struct {
	Token    string
	User     *auth.User
	IsAuthed bool
	Role     rbac.Role
}

// TokenStore is the durable storage the session restores from and writes to.
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	User(ctx context.Context) (*auth.User, error)
	Set(ctx context.Context, token string, user auth.User) error
	Clear(ctx context.Context) error
}

type Authenticator interface {
	Login(ctx context.Context, phone, password string) (authapi.LoginResult, error)
}

// ExpirySource delivers session:expired notifications. *events.Bus
// satisfies it.
type ExpirySource interface {
	OnSessionExpired(fn func(events.SessionExpired)) (func(), error)
}

type Options struct {
	Logger *slog.Logger
	// Audit records lifecycle transitions when set.
	Audit *audit.Service
	// Clock is used for the startup expiry check.
	Clock func() time.Time
}

type Store struct {
	mu    sync.RWMutex
	state State

	tokens TokenStore
	authn  Authenticator
	audit  *audit.Service
	log    *slog.Logger
	now    func() time.Time

	unsubscribe func()
}

// New restores the session from tokens without touching the network and
// starts listening for expiry notifications on expiry (which may be nil).
func New(ctx context.Context, tokens TokenStore, authn Authenticator, expiry ExpirySource, opts Options) (*Store, error) {
	s := &Store{
		tokens: tokens,
		authn:  authn,
		audit:  opts.Audit,
		log:    opts.Logger,
		now:    opts.Clock,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.restore(ctx)

	if expiry != nil {
		off, err := expiry.OnSessionExpired(s.handleExpired)
		if err != nil {
			return nil, fmt.Errorf("session: %w", err)
		}
		s.unsubscribe = off
	}
	return s, nil
}

// restore implements startup. Storage problems leave the session signed out
// rather than failing the process.
func (s *Store) restore(ctx context.Context) {
	tok, err := s.tokens.Token(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "session restore: read token", "err", err)
		return
	}
	user, err := s.tokens.User(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "session restore: read user", "err", err)
		return
	}

	switch {
	case tok == "" && user == nil:
		return
	case tok == "":
		s.log.InfoContext(ctx, "session restore: user without token, clearing")
		s.clearStorage(ctx)
		return
	case auth.TokenExpired(tok, s.now()):
		s.log.InfoContext(ctx, "session restore: stored token expired, clearing")
		s.clearStorage(ctx)
		return
	case user == nil:
		s.log.InfoContext(ctx, "session restore: token without user, clearing")
		s.clearStorage(ctx)
		return
	case !user.Role.Valid():
		s.log.InfoContext(ctx, "session restore: unknown role, clearing", "role", user.Role.String())
		s.clearStorage(ctx)
		return
	}

	s.mu.Lock()
	s.state = authenticated(tok, *user)
	s.mu.Unlock()

	s.log.InfoContext(ctx, "session restored", "user_id", user.ID.String(), "role", user.Role.String())
	s.record(ctx, audit.EventTypeRestored, *user, "")
}

func (s *Store) clearStorage(ctx context.Context) {
	if err := s.tokens.Clear(ctx); err != nil {
		s.log.ErrorContext(ctx, "session: clear token store", "err", err)
	}
}

func authenticated(tok string, u auth.User) State {
	return State{Token: tok, User: &u, IsAuthed: true, Role: u.Role}
}

// State returns a copy of the current session.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

// Subject is what the route guard decides on.
func (s *Store) Subject() rbac.Subject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return rbac.Subject{Authenticated: s.state.IsAuthed, Role: s.state.Role}
}

// Identity returns the signed-in user.
func (s *Store) Identity() (auth.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.state.IsAuthed {
		return auth.User{}, false
	}
	return *s.state.User, true
}

// Login authenticates and replaces the session. On failure the session is
// unchanged and the error is returned as is for display.
func (s *Store) Login(ctx context.Context, phone, password string) (auth.User, error) {
	res, err := s.authn.Login(ctx, phone, password)
	if err != nil {
		s.record(ctx, audit.EventTypeLoginFailed, auth.User{Phone: phone}, err.Error())
		return auth.User{}, err
	}
	if err := s.tokens.Set(ctx, res.Token, res.User); err != nil {
		return auth.User{}, fmt.Errorf("session: persist login: %w", err)
	}

	s.mu.Lock()
	s.state = authenticated(res.Token, res.User)
	s.mu.Unlock()

	s.log.InfoContext(ctx, "signed in", "user_id", res.User.ID.String(), "role", res.User.Role.String())
	s.record(ctx, audit.EventTypeLogin, res.User, "")
	return res.User, nil
}

// Logout clears storage and the in-memory session. Storage is cleared even
// when this process is already signed out, since a shared backend may hold a
// credential written elsewhere. Only a real sign-out is recorded.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	var (
		user   auth.User
		authed = s.state.IsAuthed
	)
	if authed {
		user = *s.state.User
	}
	s.state = State{}
	s.mu.Unlock()

	if authed {
		s.record(ctx, audit.EventTypeLogout, user, "")
	}
	if err := s.tokens.Clear(ctx); err != nil {
		return fmt.Errorf("session: logout: %w", err)
	}
	return nil
}

// handleExpired runs on the publisher's goroutine. The pipeline has already
// cleared storage, so only memory is reset here.
func (s *Store) handleExpired(ev events.SessionExpired) {
	s.mu.Lock()
	if !s.state.IsAuthed {
		s.mu.Unlock()
		return
	}
	user := *s.state.User
	s.state = State{}
	s.mu.Unlock()

	ctx := context.Background()
	s.log.InfoContext(ctx, "session expired", "user_id", user.ID.String(), "status", ev.Status, "path", ev.Path)
	if s.audit != nil {
		if err := s.audit.RecordExpired(ctx, user.ID.String(), user.Role.String(), ev.Path, ev.Message); err != nil {
			s.log.WarnContext(ctx, "audit expired session", "err", err)
		}
	}
}

func (s *Store) record(ctx context.Context, t audit.EventType, u auth.User, msg string) {
	if s.audit == nil {
		return
	}
	uid := u.ID.String()
	if uid == "" {
		uid = u.Phone
	}
	if err := s.audit.Record(ctx, t, uid, u.Role.String(), msg); err != nil {
		s.log.WarnContext(ctx, "audit session event", "type", string(t), "err", err)
	}
}

// Close stops listening for expiry notifications.
func (s *Store) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}
