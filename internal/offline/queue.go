// Package offline buffers writes made while a client has no connectivity and
// replays them, in order, once it comes back online.
package offline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"nutramind/internal/domain"
)

var (
	// ErrUnknownRef is returned when an Update names a local id that is
	// neither queued nor committed.
	ErrUnknownRef = errors.New("offline: unknown local id")
	// ErrUnresolvedRef is returned by Drain when an entry still names a local
	// id whose Add has not been committed.
	ErrUnresolvedRef = errors.New("offline: unresolved local id")
	// ErrClosed is returned by a Session after Close.
	ErrClosed = errors.New("offline: session closed")
)

// Remote applies a mutation on the server and returns the id of the record
// it touched. Applying the same key twice must have the effect of applying
// it once.
type Remote interface {
	Apply(ctx context.Context, userID int64, m domain.Mutation) (string, error)
}

// Observer is told the queue depth and the sync-pending flag whenever either
// may have changed.
type Observer interface {
	ObserveQueue(depth int, syncPending bool)
}

// Entry is one queued mutation. LocalID is set on Add entries.
type Entry struct {
	Mutation domain.Mutation `json:"mutation"`
	LocalID  string          `json:"localId,omitempty"`
}

// State is the persisted form of a queue.
type State struct {
	Entries []Entry `json:"entries"`
	// Committed maps local ids to the remote ids their Adds produced.
	Committed map[string]string `json:"committed,omitempty"`
	LastError string            `json:"lastError,omitempty"`
}

// Store persists queue state between runs.
type Store interface {
	Load(ctx context.Context, userID int64) (State, error)
	Save(ctx context.Context, userID int64, s State) error
}

// DrainResult summarises one Drain call.
type DrainResult struct {
	// Applied holds the keys applied remotely, in order.
	Applied []string
	// Failed is the entry that stopped the drain, if any.
	Failed *Entry
	// Remaining is the queue length after the drain.
	Remaining int
}

// Queue is a per-user FIFO of mutations awaiting delivery.
type Queue struct {
	userID   int64
	store    Store
	observer Observer
	log      zerolog.Logger
	now      func() time.Time

	drainMu sync.Mutex // one drain at a time

	mu        sync.Mutex
	entries   []Entry
	committed map[string]string
	inFlight  string // key of the entry being applied, if any
	lastErr   error
}

// NewQueue returns an empty queue for userID. store and observer may be nil.
func NewQueue(userID int64, store Store, observer Observer, log zerolog.Logger) *Queue {
	return &Queue{
		userID:    userID,
		store:     store,
		observer:  observer,
		log:       log.With().Int64("user", userID).Logger(),
		now:       time.Now,
		committed: make(map[string]string),
	}
}

// OpenQueue returns a queue restored from store.
func OpenQueue(ctx context.Context, userID int64, store Store, observer Observer, log zerolog.Logger) (*Queue, error) {
	q := NewQueue(userID, store, observer, log)
	if store == nil {
		return q, nil
	}
	st, err := store.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load queue: %w", err)
	}
	q.entries = st.Entries
	for k, v := range st.Committed {
		q.committed[k] = v
	}
	if st.LastError != "" {
		q.lastErr = errors.New(st.LastError)
	}
	q.notify()
	return q, nil
}

// UserID returns the owner of the queue.
func (q *Queue) UserID() int64 { return q.userID }

// Enqueue appends m to the tail of the queue and returns the ref of the
// record it targets. Add entries get a fresh local id and a pending ref.
//
// An Update or Delete naming a record whose Add is still queued does not
// grow the queue: the Update is folded into the Add's payload and the Delete
// drops the Add.
func (q *Queue) Enqueue(ctx context.Context, m domain.Mutation) (Ref, error) {
	if m.Key == "" {
		m.Key = uuid.NewString()
	}
	if m.QueuedAt.IsZero() {
		m.QueuedAt = q.now().UTC()
	}
	if err := m.Validate(); err != nil {
		return Ref{}, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	prev := append([]Entry(nil), q.entries...)
	ref, err := q.enqueueLocked(m)
	if err != nil {
		return Ref{}, err
	}
	if err := q.persistLocked(ctx); err != nil {
		q.entries = prev
		q.notifyLocked()
		return Ref{}, err
	}
	return ref, nil
}

func (q *Queue) enqueueLocked(m domain.Mutation) (Ref, error) {
	if m.Kind == domain.MutationAdd {
		local := NewLocalID()
		q.entries = append(q.entries, Entry{Mutation: m, LocalID: local})
		return Pending(local), nil
	}

	if !IsLocalID(m.RecordID) {
		q.entries = append(q.entries, Entry{Mutation: m})
		return Committed(m.RecordID), nil
	}

	local := m.RecordID
	if remote, ok := q.committed[local]; ok {
		m.RecordID = remote
		q.entries = append(q.entries, Entry{Mutation: m})
		return Committed(remote), nil
	}

	i := q.indexOfAddLocked(local)
	switch {
	case i < 0 && m.Kind == domain.MutationDelete:
		// The record was already cancelled locally.
		return Pending(local), nil
	case i < 0:
		return Ref{}, fmt.Errorf("%w: %s", ErrUnknownRef, local)
	case q.entries[i].Mutation.Key == q.inFlight:
		// The Add is on the wire; the entry is resolved when it reaches the
		// head of the queue.
		q.entries = append(q.entries, Entry{Mutation: m})
		return Pending(local), nil
	case m.Kind == domain.MutationDelete:
		kept := make([]Entry, 0, len(q.entries))
		for j, e := range q.entries {
			if j == i || e.Mutation.RecordID == local {
				continue
			}
			kept = append(kept, e)
		}
		q.entries = kept
		q.log.Debug().Str("local_id", local).Msg("queued add cancelled by delete")
		return Pending(local), nil
	default:
		merged, err := mergePayload(q.entries[i].Mutation.Payload, m.Payload)
		if err != nil {
			return Ref{}, err
		}
		q.entries[i].Mutation.Payload = merged
		return Pending(local), nil
	}
}

func (q *Queue) indexOfAddLocked(local string) int {
	for i, e := range q.entries {
		if e.LocalID == local {
			return i
		}
	}
	return -1
}

// mergePayload overlays the top-level fields of patch onto base.
func mergePayload(base, patch json.RawMessage) (json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if len(base) > 0 {
		if err := json.Unmarshal(base, &fields); err != nil {
			return nil, fmt.Errorf("offline: queued payload is not an object: %w", err)
		}
	}
	if len(patch) > 0 {
		var over map[string]json.RawMessage
		if err := json.Unmarshal(patch, &over); err != nil {
			return nil, fmt.Errorf("offline: update payload is not an object: %w", err)
		}
		for k, v := range over {
			fields[k] = v
		}
	}
	return json.Marshal(fields)
}

// Drain applies queued mutations head to tail, one at a time. It stops at
// the first failure: entries applied before it are removed, the failed entry
// and everything behind it stay queued in order. Every entry keeps its key,
// so a later drain resumes safely.
func (q *Queue) Drain(ctx context.Context, remote Remote) (DrainResult, error) {
	q.drainMu.Lock()
	defer q.drainMu.Unlock()

	var res DrainResult
	for {
		if err := ctx.Err(); err != nil {
			res.Remaining = q.Len()
			return res, err
		}

		q.mu.Lock()
		if len(q.entries) == 0 {
			q.lastErr = nil
			err := q.persistLocked(ctx)
			q.mu.Unlock()
			return res, err
		}
		head := &q.entries[0]
		if IsLocalID(head.Mutation.RecordID) {
			remoteID, ok := q.committed[head.Mutation.RecordID]
			if !ok {
				err := fmt.Errorf("%w: %s", ErrUnresolvedRef, head.Mutation.RecordID)
				failed := *head
				res.Failed = &failed
				res.Remaining = len(q.entries)
				q.failLocked(ctx, failed, err)
				q.mu.Unlock()
				return res, err
			}
			head.Mutation.RecordID = remoteID
		}
		entry := *head
		q.inFlight = entry.Mutation.Key
		q.mu.Unlock()

		remoteID, err := remote.Apply(ctx, q.userID, entry.Mutation)

		q.mu.Lock()
		q.inFlight = ""
		if err != nil {
			res.Failed = &entry
			res.Remaining = len(q.entries)
			q.failLocked(ctx, entry, err)
			q.mu.Unlock()
			return res, fmt.Errorf("apply %s: %w", entry.Mutation.Key, err)
		}
		if len(q.entries) > 0 && q.entries[0].Mutation.Key == entry.Mutation.Key {
			q.entries = q.entries[1:]
		}
		if entry.LocalID != "" {
			q.committed[entry.LocalID] = remoteID
		}
		res.Applied = append(res.Applied, entry.Mutation.Key)
		res.Remaining = len(q.entries)
		if err := q.persistLocked(ctx); err != nil {
			q.mu.Unlock()
			return res, err
		}
		q.mu.Unlock()
	}
}

func (q *Queue) failLocked(ctx context.Context, e Entry, err error) {
	q.lastErr = err
	q.log.Warn().Err(err).
		Str("key", e.Mutation.Key).
		Str("kind", string(e.Mutation.Kind)).
		Str("collection", e.Mutation.Collection).
		Int("remaining", len(q.entries)).
		Msg("drain aborted")
	if perr := q.persistLocked(ctx); perr != nil {
		q.log.Error().Err(perr).Msg("persist queue after failed drain")
	}
}

// Resolve returns the committed form of ref once the Add that created it has
// been applied. Any other ref is returned unchanged.
func (q *Queue) Resolve(ref Ref) Ref {
	if !ref.IsPending() {
		return ref
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if remote, ok := q.committed[ref.ID()]; ok {
		return Committed(remote)
	}
	return ref
}

// Len returns the number of queued entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Pending returns a snapshot of the queued entries, head first.
func (q *Queue) Pending() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Entry, len(q.entries))
	copy(out, q.entries)
	return out
}

// LastError returns the error that stopped the most recent drain, or nil if
// it completed.
func (q *Queue) LastError() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lastErr
}

// SyncPending reports whether there is work the server has not seen yet.
func (q *Queue) SyncPending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.syncPendingLocked()
}

func (q *Queue) syncPendingLocked() bool {
	return len(q.entries) > 0 || q.lastErr != nil
}

// Reset drops every queued entry and forgets committed ids.
func (q *Queue) Reset(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = nil
	q.committed = make(map[string]string)
	q.lastErr = nil
	return q.persistLocked(ctx)
}

func (q *Queue) persistLocked(ctx context.Context) error {
	q.notifyLocked()
	if q.store == nil {
		return nil
	}
	st := State{
		Entries:   append([]Entry(nil), q.entries...),
		Committed: make(map[string]string, len(q.committed)),
	}
	for k, v := range q.committed {
		st.Committed[k] = v
	}
	if q.lastErr != nil {
		st.LastError = q.lastErr.Error()
	}
	if err := q.store.Save(ctx, q.userID, st); err != nil {
		return fmt.Errorf("save queue: %w", err)
	}
	return nil
}

func (q *Queue) notify() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.notifyLocked()
}

func (q *Queue) notifyLocked() {
	if q.observer != nil {
		q.observer.ObserveQueue(len(q.entries), q.syncPendingLocked())
	}
}
