package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for activity events. It is
// append-only.
type Repository interface {
	Append(ctx context.Context, e Event) error
	Recent(ctx context.Context, n int) ([]Event, error)
}

// Service records session lifecycle activity. Callers treat recording as
// best-effort and never fail a login or logout because of it.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// Record appends an event of type t for the given operator.
func (s *Service) Record(ctx context.Context, t EventType, userID, role, message string) error {
	return s.Append(ctx, Event{Type: t, UserID: userID, Role: role, Message: message})
}

// RecordExpired notes a forced logout caused by an API rejection on path.
func (s *Service) RecordExpired(ctx context.Context, userID, role, path, message string) error {
	return s.Append(ctx, Event{
		Type:    EventTypeSessionExpired,
		UserID:  userID,
		Role:    role,
		Path:    path,
		Message: message,
	})
}

func (s *Service) Recent(ctx context.Context, n int) ([]Event, error) {
	if s.repo == nil {
		return nil, errors.New("audit: repository not configured")
	}
	return s.repo.Recent(ctx, n)
}
