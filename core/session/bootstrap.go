package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/user"
)

// invitePrefix marks the public invitation-acceptance screen; it must render
// regardless of stored credentials.
const invitePrefix = "/invite/"

// Sequencer computes the initial Session state from the persisted Record and
// the current location, exactly once per process lifetime.
type Sequencer struct {
	store *Store
	creds Credentials
	api   API
	nav   Navigator
	conf  *core.Config
	log   core.Logger
	once  sync.Once
}

func NewSequencer(store *Store, creds Credentials, api API, nav Navigator, conf *core.Config, log core.Logger) *Sequencer {
	return &Sequencer{store: store, creds: creds, api: api, nav: nav, conf: conf, log: log}
}

// Run executes the bootstrap sequence. Only the first call does anything;
// later calls return immediately. Whatever happens inside, the session never
// stays Loading: every exit path reaches a terminal status.
func (s *Sequencer) Run(ctx context.Context) {
	s.once.Do(func() { s.run(ctx) })
}

func (s *Sequencer) run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error(fmt.Sprintf("session bootstrap panic: %v", r))
			s.fail()
		}
		s.store.stopLoading()
	}()

	// a login this process already completed makes a re-check redundant; it
	// could also race a not-yet-flushed credential write
	if s.store.JustLoggedIn() {
		return
	}

	if IsInvitePath(s.nav.Path()) {
		s.store.bootUnauthenticated()
		return
	}

	rec, err := s.creds.Load()
	if err != nil {
		s.log.Warn(fmt.Sprintf("loading credentials: %v", err))
		s.fail()
		return
	}
	if !rec.Complete() {
		if !rec.Empty() {
			// partial records are invalid; leave the store fully absent
			s.fail()
			return
		}
		s.store.bootUnauthenticated()
		return
	}

	// development tokens are trusted without a server round-trip
	if prefix := s.conf.Client.MockTokenPrefix; prefix != "" && strings.HasPrefix(rec.AccessToken, prefix) {
		var usr user.User
		if err = json.Unmarshal([]byte(rec.SerializedUser), &usr); err != nil || usr.ID == "" {
			s.fail()
			return
		}
		s.store.bootAuthenticated(usr)
		return
	}

	vctx, cancel := context.WithTimeout(ctx, s.conf.Client.VerifyTimeout)
	defer cancel()
	usr, err := s.api.InitializeAuth(vctx, rec.AccessToken, rec.RefreshToken)
	if err != nil || usr.ID == "" {
		if err != nil {
			s.log.Info(fmt.Sprintf("session verification failed: %v", err))
		}
		s.fail()
		return
	}
	s.store.bootAuthenticated(usr)
}

// fail is the terminal failure path: stored credentials are gone as a unit
// and the user must authenticate again.
func (s *Sequencer) fail() {
	if s.store.JustLoggedIn() {
		// discarded result; the login's freshly written credentials stay
		return
	}
	if err := s.creds.Clear(); err != nil {
		s.log.Warn(fmt.Sprintf("clearing credentials: %v", err))
	}
	s.store.bootUnauthenticated()
}

// IsInvitePath reports whether path is a token-bearing invitation-acceptance
// location.
func IsInvitePath(path string) bool {
	return strings.HasPrefix(path, invitePrefix) && len(path) > len(invitePrefix)
}
