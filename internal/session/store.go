// Package session keeps uploaded datasets in memory between requests, one
// session per upload, together with the dashboard's panel flags.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/dqboard/internal/dataset"
)

// ErrSessionNotFound is returned for unknown or evicted session ids.
var ErrSessionNotFound = errors.New("session not found")

// Store is an in-memory session registry with idle eviction.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
	// OnChange, if set, is called with the session count after every change.
	OnChange func(n int)
}

// NewStore creates a store evicting sessions idle for longer than ttl.
func NewStore(ttl time.Duration, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "session_store")),
	}
}

// WithClock swaps the time source; used by tests.
func (st *Store) WithClock(now func() time.Time) *Store {
	st.now = now
	return st
}

// Create registers a new session for d.
func (st *Store) Create(d *dataset.Dataset) *Session {
	s := newSession(uuid.NewString(), d, st.now)
	st.mu.Lock()
	st.sessions[s.id] = s
	n := len(st.sessions)
	st.mu.Unlock()
	st.logger.Info("session created",
		slog.String("session_id", s.id),
		slog.String("name", d.Name()),
		slog.Int("rows", d.Len()),
		slog.Int("columns", d.Width()))
	st.changed(n)
	return s
}

// Get returns a live session and marks it active.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch()
	return s, nil
}

// Delete drops a session.
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	_, ok := st.sessions[id]
	delete(st.sessions, id)
	n := len(st.sessions)
	st.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	st.logger.Info("session deleted", slog.String("session_id", id))
	st.changed(n)
	return nil
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep evicts sessions idle since before now-ttl and returns how many went.
func (st *Store) Sweep(now time.Time) int {
	cutoff := now.Add(-st.ttl)
	st.mu.Lock()
	var evicted []string
	for id, s := range st.sessions {
		if s.idleSince().Before(cutoff) {
			delete(st.sessions, id)
			evicted = append(evicted, id)
		}
	}
	n := len(st.sessions)
	st.mu.Unlock()
	for _, id := range evicted {
		st.logger.Info("session expired", slog.String("session_id", id))
	}
	if len(evicted) > 0 {
		st.changed(n)
	}
	return len(evicted)
}

// Run sweeps every interval until ctx is done.
func (st *Store) Run(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			st.Sweep(st.now())
		}
	}
}

func (st *Store) changed(n int) {
	if st.OnChange != nil {
		st.OnChange(n)
	}
}
