package resources

import (
	"context"
	"errors"
	"sync"
	"time"

	"garansi-console/internal/debounce"
	"garansi-console/internal/pagination"
)

// ErrSuperseded is returned to a search caller whose query was replaced by a
// newer one before it ran or finished.
var ErrSuperseded = errors.New("resources: search superseded")

type ListFunc[T any] func(ctx context.Context, req pagination.Request) (pagination.Envelope[T], error)

type searchOutcome[T any] struct {
	env pagination.Envelope[T]
	err error
}

// LiveSearch collapses a burst of type-ahead queries into one list call for
// the last query once input has been quiet for the debounce delay.
type LiveSearch[T any] struct {
	list ListFunc[T]
	deb  *debounce.Debouncer

	mu      sync.Mutex
	pending chan searchOutcome[T]
}

func NewLiveSearch[T any](list ListFunc[T], delay time.Duration) *LiveSearch[T] {
	return &LiveSearch[T]{list: list, deb: debounce.New(delay)}
}

// Search submits req and waits for its result. Earlier callers still
// waiting get ErrSuperseded.
func (s *LiveSearch[T]) Search(ctx context.Context, req pagination.Request) (pagination.Envelope[T], error) {
	done := make(chan searchOutcome[T], 1)

	s.mu.Lock()
	if s.pending != nil {
		s.pending <- searchOutcome[T]{err: ErrSuperseded}
	}
	s.pending = done
	s.mu.Unlock()

	s.deb.Submit(func(runCtx context.Context) {
		callCtx, cancel := context.WithCancel(ctx)
		stop := context.AfterFunc(runCtx, cancel)
		env, err := s.list(callCtx, req)
		stop()
		cancel()

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.pending != done {
			return
		}
		s.pending = nil
		done <- searchOutcome[T]{env: env, err: err}
	})

	select {
	case out := <-done:
		return out.env, out.err
	case <-ctx.Done():
		s.mu.Lock()
		if s.pending == done {
			s.pending = nil
		}
		s.mu.Unlock()
		return pagination.Envelope[T]{}, ctx.Err()
	}
}

// Stop drops pending work.
func (s *LiveSearch[T]) Stop() {
	s.deb.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		s.pending <- searchOutcome[T]{err: ErrSuperseded}
		s.pending = nil
	}
}
