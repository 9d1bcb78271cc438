package httpapi

import (
	"sync"

	"garansi-console/internal/events"
)

// Flash keeps the last session:expired message until the login page shows
// it once.
type Flash struct {
	mu  sync.Mutex
	msg string
}

// NewFlash subscribes to bus. The returned func unsubscribes.
func NewFlash(bus *events.Bus) (*Flash, func(), error) {
	f := &Flash{}
	off, err := bus.OnSessionExpired(func(ev events.SessionExpired) {
		f.mu.Lock()
		f.msg = ev.Message
		f.mu.Unlock()
	})
	if err != nil {
		return nil, nil, err
	}
	return f, off, nil
}

// Take returns and clears the pending message.
func (f *Flash) Take() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := f.msg
	f.msg = ""
	return msg
}

// Clear drops any pending message, e.g. after a successful login.
func (f *Flash) Clear() {
	f.mu.Lock()
	f.msg = ""
	f.mu.Unlock()
}
