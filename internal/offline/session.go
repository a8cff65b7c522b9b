package offline

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"nutramind/internal/domain"
)

// Session is the offline state of one signed-in user. It is created at login
// and closed at logout; nothing in the package is process-global.
type Session struct {
	userID  int64
	queue   *Queue
	monitor *Monitor

	mu     sync.Mutex
	closed bool
}

// NewSession restores the user's queue from store (which may be nil) and
// starts watching connectivity. The session starts offline. An observer that
// also implements ConnectivityObserver is told about connectivity changes.
func NewSession(ctx context.Context, userID int64, store Store, remote Remote, observer Observer, log zerolog.Logger) (*Session, error) {
	log = log.With().Str("component", "offline").Logger()
	q, err := OpenQueue(ctx, userID, store, observer, log)
	if err != nil {
		return nil, err
	}
	mon := NewMonitor(q, remote, log)
	if co, ok := observer.(ConnectivityObserver); ok {
		mon.observer = co
	}
	return &Session{
		userID:  userID,
		queue:   q,
		monitor: mon,
	}, nil
}

// UserID returns the signed-in user.
func (s *Session) UserID() int64 { return s.userID }

// Queue returns the session's queue.
func (s *Session) Queue() *Queue { return s.queue }

// Monitor returns the session's connectivity monitor.
func (s *Session) Monitor() *Monitor { return s.monitor }

// Enqueue queues m for delivery.
func (s *Session) Enqueue(ctx context.Context, m domain.Mutation) (Ref, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return Ref{}, ErrClosed
	}
	return s.queue.Enqueue(ctx, m)
}

// SetOnline forwards a connectivity change to the monitor.
func (s *Session) SetOnline(online bool) {
	s.monitor.SetOnline(online)
}

// Watch polls p until ctx is done or the session is closed, driving
// SetOnline with the result. It blocks.
func (s *Session) Watch(ctx context.Context, p Pinger, interval time.Duration) {
	s.monitor.Poll(ctx, p, interval)
}

// SyncPending reports whether queued writes have not reached the server.
func (s *Session) SyncPending() bool {
	return s.monitor.SyncPending()
}

// Close stops background draining. Queued entries stay in the store so the
// next session for the same user resumes them. With discard set the queue is
// emptied first.
func (s *Session) Close(ctx context.Context, discard bool) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.monitor.Close()
	if discard {
		return s.queue.Reset(ctx)
	}
	return nil
}
