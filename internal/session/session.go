package session

import (
	"sync"
	"time"

	"github.com/KaramelBytes/dqboard/internal/dataset"
)

// Session owns one uploaded dataset and its panel flags. Every user action
// goes through Apply so the dataset swap and the flag change happen together.
type Session struct {
	mu      sync.Mutex
	id      string
	data    *dataset.Dataset
	flags   Flags
	created time.Time
	touched time.Time
	now     func() time.Time
}

func newSession(id string, d *dataset.Dataset, now func() time.Time) *Session {
	t := now()
	return &Session{id: id, data: d, created: t, touched: t, now: now}
}

func (s *Session) ID() string { return s.id }

// Transform computes the next dataset from the current one.
type Transform func(*dataset.Dataset) (*dataset.Dataset, error)

// Apply triggers action a and runs fn against the current dataset. On
// success the result replaces the dataset; on error the dataset is kept and
// every flag is turned off. A nil fn only triggers the action.
func (s *Session) Apply(a Action, fn Transform) (*dataset.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = s.now()
	if fn == nil {
		s.flags.Trigger(a)
		return s.data, nil
	}
	next, err := fn(s.data)
	if err != nil {
		s.flags.Reset()
		return s.data, err
	}
	s.flags.Trigger(a)
	if next != nil {
		s.data = next
	}
	return s.data, nil
}

// Report triggers a read-only action and runs fn under the session lock.
func (s *Session) Report(a Action, fn func(*dataset.Dataset) error) error {
	_, err := s.Apply(a, func(d *dataset.Dataset) (*dataset.Dataset, error) {
		return d, fn(d)
	})
	return err
}

// View runs fn with the current dataset and flags without changing either.
func (s *Session) View(fn func(d *dataset.Dataset, f Flags)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.data, s.flags)
}

// Dataset returns the current dataset.
func (s *Session) Dataset() *dataset.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// Render performs a render pass over the flags and reports the action whose
// panels it drew, both read under one lock.
func (s *Session) Render() ([]Flag, Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	last := s.flags.Last()
	return s.flags.Render(), last
}

// Info is a point-in-time summary of a session.
type Info struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Rows    int       `json:"rows"`
	Columns int       `json:"columns"`
	Last    Action    `json:"last_action,omitempty"`
	Created time.Time `json:"created_at"`
	Touched time.Time `json:"last_active_at"`
}

func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:      s.id,
		Name:    s.data.Name(),
		Rows:    s.data.Len(),
		Columns: s.data.Width(),
		Last:    s.flags.Last(),
		Created: s.created,
		Touched: s.touched,
	}
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

func (s *Session) touch() {
	s.mu.Lock()
	s.touched = s.now()
	s.mu.Unlock()
}
