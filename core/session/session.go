package session

import (
	"context"
	"sync"

	"github.com/darasahq/darasa/core/user"
)

// Status is the authentication state of the current process.
type Status int

const (
	// Loading blocks all screens until the bootstrap sequencer has decided.
	Loading Status = iota
	Unauthenticated
	Authenticated
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	}
	return "unknown"
}

type (
	// Record is the persisted credential triple. The three fields survive a
	// process restart together or not at all; partial presence is invalid.
	Record struct {
		AccessToken    string
		RefreshToken   string
		SerializedUser string
	}

	// Credentials persists the Record across process restarts.
	Credentials interface {
		Load() (Record, error)
		Save(Record) error
		// Clear deletes all three fields. Clearing an empty store is a no-op.
		Clear() error
	}

	// LoginResult is what the API returns on any successful authentication call.
	LoginResult struct {
		Token        string    `json:"token"`
		RefreshToken string    `json:"refresh_token"`
		User         user.User `json:"user"`
	}

	// API is the slice of the REST API the session core consumes.
	API interface {
		// InitializeAuth verifies stored tokens server-side and returns the
		// canonical user record, or an error on any invalid-session condition.
		InitializeAuth(ctx context.Context, accessToken, refreshToken string) (user.User, error)
		Login(ctx context.Context, in user.Login) (LoginResult, error)
		Register(ctx context.Context, in user.Register) (LoginResult, error)
		RegisterInvited(ctx context.Context, in user.InviteRegistration) (LoginResult, error)
	}

	// Navigator is the routing collaborator: current path plus
	// replace-current-entry navigation with optional redirect state.
	Navigator interface {
		Path() string
		Replace(path string, state ...map[string]string)
	}
)

func (r Record) Complete() bool {
	return r.AccessToken != "" && r.RefreshToken != "" && r.SerializedUser != ""
}

func (r Record) Empty() bool {
	return r.AccessToken == "" && r.RefreshToken == "" && r.SerializedUser == ""
}

// Store holds the Session: status, current user and the justLoggedIn latch.
// It has a single writer at a time (the sequencer once at startup, the login
// and logout calls on user action); route guards and screens only read it.
type Store struct {
	mu           sync.RWMutex
	status       Status
	usr          *user.User
	justLoggedIn bool
}

// NewStore creates a Session in the Loading state.
func NewStore() *Store {
	return &Store{status: Loading}
}

func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// User returns the authenticated user, if any. The second return is false
// unless Status is Authenticated.
func (s *Store) User() (user.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.usr == nil {
		return user.User{}, false
	}
	return *s.usr, true
}

// JustLoggedIn reports whether a login or signup call succeeded earlier in
// this process lifetime. The latch is never cleared; it tells the bootstrap
// sequencer that a network re-check would be redundant.
func (s *Store) JustLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.justLoggedIn
}

// login commits a successful login: Authenticated, user set and the
// justLoggedIn latch raised, all under one lock so no reader can observe the
// latch without the user.
func (s *Store) login(usr user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = Authenticated
	s.usr = &usr
	s.justLoggedIn = true
}

// bootAuthenticated is the sequencer's upgrade from verified stored
// credentials. A session a login already committed is left alone.
func (s *Store) bootAuthenticated(usr user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.justLoggedIn {
		return
	}
	s.status = Authenticated
	s.usr = &usr
}

func (s *Store) setUnauthenticated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = Unauthenticated
	s.usr = nil
}

// bootUnauthenticated is the sequencer's downgrade. Once the justLoggedIn
// latch is raised the sequencer's result is discarded: a completed login owns
// the session for the rest of the process lifetime.
func (s *Store) bootUnauthenticated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.justLoggedIn {
		return
	}
	s.status = Unauthenticated
	s.usr = nil
}

// stopLoading moves a still-Loading session to a terminal status without
// touching an already-decided one.
func (s *Store) stopLoading() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != Loading {
		return
	}
	if s.usr != nil {
		s.status = Authenticated
	} else {
		s.status = Unauthenticated
	}
}
