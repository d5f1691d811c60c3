package entitlement

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

// State holds the inputs of one identity's entitlement. HasPro is derived
// from the inputs on every read and every change is pushed to subscribers.
type State struct {
	mu       sync.Mutex
	identity *domain.Identity
	profile  *domain.Profile
	license  *domain.License
	now      func() time.Time

	// resolvedAt is when the records were last read from the store.
	resolvedAt time.Time

	subs   map[uint64]func(Entitlement)
	nextID uint64
}

// NewState creates an empty (anonymous) state
func NewState(now func() time.Time) *State {
	if now == nil {
		now = time.Now
	}
	return &State{now: now, subs: make(map[uint64]func(Entitlement))}
}

// Current returns the entitlement for the present inputs.
func (s *State) Current() Entitlement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return compute(s.identity, s.profile, s.license, s.now())
}

// HasPro is Current().HasPro.
func (s *State) HasPro() bool {
	return s.Current().HasPro
}

// SetIdentity changes the identity. A different identity drops the
// records of the previous one.
func (s *State) SetIdentity(id *domain.Identity) {
	s.update(func() {
		if id == nil || s.identity == nil || id.ID != s.identity.ID {
			s.profile = nil
			s.license = nil
			s.resolvedAt = time.Time{}
		}
		s.identity = id
	})
}

func (s *State) SetProfile(p *domain.Profile) {
	s.update(func() { s.profile = p })
}

func (s *State) SetLicense(l *domain.License) {
	s.update(func() { s.license = l })
}

// Apply replaces all inputs with those of a resolved entitlement.
func (s *State) Apply(e Entitlement) {
	s.update(func() {
		s.identity = e.Identity
		s.profile = e.Profile
		s.license = e.License
		s.resolvedAt = s.now()
	})
}

// ResolvedAt returns when Apply last ran, zero if never.
func (s *State) ResolvedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolvedAt
}

func (s *State) subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Subscribe registers fn for every change. The returned func unsubscribes
// and may be called more than once.
func (s *State) Subscribe(fn func(Entitlement)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *State) update(mutate func()) {
	s.mu.Lock()
	mutate()
	e := compute(s.identity, s.profile, s.license, s.now())
	fns := make([]func(Entitlement), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

const (
	// DefaultMaxAge bounds how long resolved records are served before the
	// store is read again.
	DefaultMaxAge = 5 * time.Minute
	// DefaultIdleTTL is how long a session survives without being used.
	DefaultIdleTTL = 30 * time.Minute
)

type session struct {
	state    *State
	lastUsed time.Time
}

// Sessions keeps one State per signed-in user so every consumer of that
// user sees the same entitlement. Idle sessions are dropped by Sweep.
type Sessions struct {
	mu      sync.Mutex
	states  map[string]*session
	now     func() time.Time
	maxAge  time.Duration
	idleTTL time.Duration
}

// NewSessions creates an empty session registry with the default limits
func NewSessions(now func() time.Time) *Sessions {
	if now == nil {
		now = time.Now
	}
	return &Sessions{
		states:  make(map[string]*session),
		now:     now,
		maxAge:  DefaultMaxAge,
		idleTTL: DefaultIdleTTL,
	}
}

// WithLimits overrides the resolve age bound and the idle TTL. Zero keeps
// the current value.
func (s *Sessions) WithLimits(maxAge, idleTTL time.Duration) *Sessions {
	if maxAge > 0 {
		s.maxAge = maxAge
	}
	if idleTTL > 0 {
		s.idleTTL = idleTTL
	}
	return s
}

// Get returns the state of userID, creating it on first use.
func (s *Sessions) Get(userID string) *State {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.states[userID]
	if !ok {
		sess = &session{state: NewState(s.now)}
		s.states[userID] = sess
	}
	sess.lastUsed = s.now()
	return sess.state
}

// Fresh reports whether st was resolved recently enough to be served
// without reading the store again.
func (s *Sessions) Fresh(st *State) bool {
	at := st.ResolvedAt()
	return !at.IsZero() && s.now().Sub(at) < s.maxAge
}

// End clears the identity of userID, notifying its subscribers, and
// forgets the state.
func (s *Sessions) End(userID string) {
	s.mu.Lock()
	sess, ok := s.states[userID]
	delete(s.states, userID)
	s.mu.Unlock()

	if ok {
		sess.state.SetIdentity(nil)
	}
}

// Sweep forgets sessions unused for longer than the idle TTL. Sessions
// with live subscribers are kept. It returns how many were dropped.
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.idleTTL)
	removed := 0
	for userID, sess := range s.states {
		if sess.lastUsed.After(cutoff) || sess.state.subscribers() > 0 {
			continue
		}
		delete(s.states, userID)
		removed++
	}
	return removed
}

// Len returns the number of tracked users.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}
