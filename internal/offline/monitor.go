package offline

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Pinger reports whether the server is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnectivityObserver is told every connectivity change a Monitor sees.
type ConnectivityObserver interface {
	ObserveOnline(online bool)
}

// Monitor watches connectivity and drains the queue once on every
// offline-to-online transition. Drains run in the background; only one is
// in flight at a time.
type Monitor struct {
	queue    *Queue
	remote   Remote
	observer ConnectivityObserver
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	online bool
	drains int
}

// NewMonitor returns a monitor that starts out offline.
func NewMonitor(queue *Queue, remote Remote, log zerolog.Logger) *Monitor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Monitor{
		queue:  queue,
		remote: remote,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// SetOnline records the current connectivity. Going from offline to online
// starts exactly one drain; every other call is a no-op.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	was := m.online
	m.online = online
	if m.ctx.Err() != nil || online == was {
		return
	}
	if m.observer != nil {
		m.observer.ObserveOnline(online)
	}
	if !online {
		m.log.Info().Msg("server unreachable")
		return
	}
	m.drains++
	m.wg.Add(1)
	go m.drain()
}

func (m *Monitor) drain() {
	defer m.wg.Done()
	res, err := m.queue.Drain(m.ctx, m.remote)
	if err != nil {
		// The queue already logged the failing entry.
		m.log.Debug().Err(err).Int("applied", len(res.Applied)).Int("remaining", res.Remaining).Msg("drain stopped")
		return
	}
	if len(res.Applied) > 0 {
		m.log.Info().Int("applied", len(res.Applied)).Msg("offline queue drained")
	}
}

// Poll pings p every interval and feeds the outcome to SetOnline until ctx
// is done or the monitor is closed.
func (m *Monitor) Poll(ctx context.Context, p Pinger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		pctx, cancel := context.WithTimeout(ctx, interval)
		err := p.Ping(pctx)
		cancel()
		if ctx.Err() != nil || m.ctx.Err() != nil {
			return
		}
		if err != nil {
			m.log.Debug().Err(err).Msg("health check failed")
		}
		m.SetOnline(err == nil)

		select {
		case <-ctx.Done():
			return
		case <-m.ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Online reports the last connectivity passed to SetOnline.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Drains returns how many drains the monitor has started.
func (m *Monitor) Drains() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drains
}

// SyncPending reports whether queued writes have not reached the server,
// either because the queue is non-empty or because the last drain failed.
func (m *Monitor) SyncPending() bool {
	return m.queue.SyncPending()
}

// Wait blocks until every drain started so far has returned.
func (m *Monitor) Wait() {
	m.wg.Wait()
}

// Close cancels an in-flight drain and waits for it. A closed monitor
// ignores further transitions.
func (m *Monitor) Close() {
	m.mu.Lock()
	m.cancel()
	m.mu.Unlock()
	m.wg.Wait()
}
