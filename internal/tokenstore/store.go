// Package tokenstore persists the console credential across restarts.
//
// Three keys are stored and they always change together: the bearer token,
// the JSON user profile and a legacy "logged in" flag kept for older console
// builds. Nothing here interprets the token.
package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"garansi-console/internal/auth"
)

const (
	KeyToken    = "token"
	KeyUser     = "user"
	KeyLoggedIn = "isLoggedIn"
)

// Keys lists every key owned by the store.
var Keys = []string{KeyToken, KeyUser, KeyLoggedIn}

var ErrEmptyToken = errors.New("tokenstore: token is required")

// Backend is a durable string key-value area. SetAll and DeleteAll must apply
// all keys or none.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetAll(ctx context.Context, values map[string]string) error
	DeleteAll(ctx context.Context, keys ...string) error
	Close() error
}

// Store is the token store used by the request pipeline and the session.
type Store struct {
	backend Backend
	log     *slog.Logger
}

func New(b Backend, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{backend: b, log: log}
}

// Token returns the stored bearer token, or "" when none is stored.
func (s *Store) Token(ctx context.Context) (string, error) {
	v, ok, err := s.backend.Get(ctx, KeyToken)
	if err != nil {
		return "", fmt.Errorf("tokenstore: read token: %w", err)
	}
	if !ok {
		return "", nil
	}
	return strings.TrimSpace(v), nil
}

// User returns the stored profile. A missing or unreadable profile yields
// nil without error; storage may have been edited by hand.
func (s *Store) User(ctx context.Context) (*auth.User, error) {
	raw, ok, err := s.backend.Get(ctx, KeyUser)
	if err != nil {
		return nil, fmt.Errorf("tokenstore: read user: %w", err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var u auth.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		s.log.WarnContext(ctx, "stored user is malformed, ignoring", "err", err)
		return nil, nil
	}
	return &u, nil
}

// Set replaces the token, the user and the legacy flag in one write.
func (s *Store) Set(ctx context.Context, token string, user auth.User) error {
	if strings.TrimSpace(token) == "" {
		return ErrEmptyToken
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("tokenstore: encode user: %w", err)
	}
	err = s.backend.SetAll(ctx, map[string]string{
		KeyToken:    token,
		KeyUser:     string(data),
		KeyLoggedIn: "true",
	})
	if err != nil {
		return fmt.Errorf("tokenstore: write: %w", err)
	}
	return nil
}

// Clear removes every key. Clearing an empty store is not an error.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.DeleteAll(ctx, Keys...); err != nil {
		return fmt.Errorf("tokenstore: clear: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.backend.Close()
}
