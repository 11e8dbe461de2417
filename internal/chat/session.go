package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session owns one Conversation. Lock serialises pipeline runs so two
// requests on the same session never touch the conversation at once.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu           sync.Mutex
	conv         Conversation
	now          func() time.Time
	lastActivity time.Time
	activityMu   sync.Mutex
}

// Do runs fn with exclusive access to the conversation.
func (s *Session) Do(fn func(conv *Conversation)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Touch()
	fn(&s.conv)
}

// Turns returns a snapshot of the conversation.
func (s *Session) Turns() []Turn {
	var turns []Turn
	s.Do(func(conv *Conversation) { turns = conv.All() })
	return turns
}

// Touch marks the session active on the owning store's clock.
func (s *Session) Touch() {
	s.activityMu.Lock()
	s.lastActivity = s.now()
	s.activityMu.Unlock()
}

func (s *Session) LastActivity() time.Time {
	s.activityMu.Lock()
	defer s.activityMu.Unlock()
	return s.lastActivity
}

// Store keeps sessions in memory. Nothing is written to disk.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	onChange func(count int)
}

// NewStore creates a store that evicts sessions idle for longer than ttl.
// A zero ttl disables eviction.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// OnChange registers a callback run with the new session count after every
// create, delete and sweep.
func (st *Store) OnChange(fn func(count int)) {
	st.onChange = fn
}

// Create starts a session with an empty conversation.
func (st *Store) Create() *Session {
	now := st.now()
	s := &Session{ID: uuid.NewString(), CreatedAt: now, now: st.clock, lastActivity: now}

	st.mu.Lock()
	st.sessions[s.ID] = s
	n := len(st.sessions)
	st.mu.Unlock()

	st.changed(n)
	return s
}

func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	n := len(st.sessions)
	st.mu.Unlock()
	st.changed(n)
}

// Sweep evicts idle sessions and returns how many were removed.
func (st *Store) Sweep() int {
	if st.ttl <= 0 {
		return 0
	}
	cutoff := st.now().Add(-st.ttl)

	st.mu.Lock()
	removed := 0
	for id, s := range st.sessions {
		if s.LastActivity().Before(cutoff) {
			delete(st.sessions, id)
			removed++
		}
	}
	n := len(st.sessions)
	st.mu.Unlock()

	if removed > 0 {
		st.changed(n)
	}
	return removed
}

func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Run sweeps every interval until ctx is done.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Sweep()
		}
	}
}

func (st *Store) clock() time.Time {
	return st.now()
}

func (st *Store) changed(n int) {
	if st.onChange != nil {
		st.onChange(n)
	}
}
