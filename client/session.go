package client

import (
	"context"
	"errors"
	"sync"

	"satlas-api/core"
)

// State is the session lifecycle phase.
type State int

const (
	// StateInitializing holds until the persisted session has been read.
	StateInitializing State = iota
	// StateAnonymous means no token is held.
	StateAnonymous
	// StateAuthenticated means a token and profile are held.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// ErrAuthInFlight rejects a second sign-in/sign-up while one is pending.
var ErrAuthInFlight = errors.New("authentication already in flight")

// Session is the single source of truth for "is this client authenticated,
// and as whom". It is single-writer: all transitions are serialized, and a
// second concurrent sign-in/sign-up is rejected rather than raced.
// Subscribers are notified synchronously on every transition.
type Session struct {
	mu      sync.Mutex
	svc     *Service
	state   State
	user    core.User
	pending bool
	lastErr error
	subs    []func(State)
}

// NewSession wraps the service; call Init to leave StateInitializing.
func NewSession(svc *Service) *Session {
	return &Session{svc: svc, state: StateInitializing}
}

// Init reads the persisted session and settles into Authenticated or
// Anonymous.
func (s *Session) Init() {
	s.mu.Lock()
	if s.svc.IsAuthenticated() {
		if user, ok := s.svc.CurrentUser(); ok {
			s.state = StateAuthenticated
			s.user = user
		} else {
			s.state = StateAuthenticated
		}
	} else {
		s.state = StateAnonymous
	}
	s.mu.Unlock()
	s.notify()
}

// SignIn authenticates and transitions to Authenticated on success. The
// failure is recorded in the last-error slot and also returned.
func (s *Session) SignIn(ctx context.Context, email, password string) error {
	return s.runAuth(func() (core.User, error) {
		return s.svc.SignIn(ctx, email, password)
	})
}

// SignUp registers and transitions to Authenticated on success.
func (s *Session) SignUp(ctx context.Context, in SignUpInput) error {
	return s.runAuth(func() (core.User, error) {
		return s.svc.SignUp(ctx, in)
	})
}

// runAuth serializes an auth attempt: the in-flight guard closes the
// double-submit race, and the network call runs outside the lock.
func (s *Session) runAuth(attempt func() (core.User, error)) error {
	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return ErrAuthInFlight
	}
	s.pending = true
	s.mu.Unlock()
	s.notify()

	user, err := attempt()

	s.mu.Lock()
	s.pending = false
	if err != nil {
		s.lastErr = err
	} else {
		s.state = StateAuthenticated
		s.user = user
		s.lastErr = nil
	}
	s.mu.Unlock()
	s.notify()
	return err
}

// SignOut clears the session and transitions to Anonymous. Calling it
// twice produces the same end state as calling it once.
func (s *Session) SignOut() {
	s.mu.Lock()
	s.svc.SignOut()
	s.state = StateAnonymous
	s.user = core.User{}
	s.mu.Unlock()
	s.notify()
}

// ForceSignOut handles an authorization failure on a protected call:
// clear everything and drop to Anonymous so the route guard redirects.
func (s *Session) ForceSignOut(cause error) {
	s.mu.Lock()
	s.svc.SignOut()
	s.state = StateAnonymous
	s.user = core.User{}
	s.lastErr = cause
	s.mu.Unlock()
	s.notify()
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsAuthenticated reports whether the session holds a token.
func (s *Session) IsAuthenticated() bool {
	return s.State() == StateAuthenticated
}

// Pending reports whether a sign-in/sign-up is in flight.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// CurrentUser returns the profile held by the session.
func (s *Session) CurrentUser() (core.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAuthenticated {
		return core.User{}, false
	}
	return s.user, true
}

// LastError returns the last recorded failure. It is never cleared by an
// unrelated action; consumers clear it explicitly.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ClearError empties the last-error slot.
func (s *Session) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = nil
}

// Subscribe registers a listener invoked synchronously after every
// transition, with the state at notification time.
func (s *Session) Subscribe(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Session) notify() {
	s.mu.Lock()
	state := s.state
	subs := make([]func(State), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(state)
	}
}
